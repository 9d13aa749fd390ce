package publish

import (
	"context"
	"path/filepath"
	"strings"
)

// Publisher is the four-operation sink contract. PublishLastError is
// only invoked on ticks classified unhealthy.
type Publisher interface {
	PublishJSON(ctx context.Context, content string) error
	PublishHTML(ctx context.Context, content string) error
	PublishPNG(ctx context.Context, content []byte) error
	PublishLastError(ctx context.Context, content string) error
}

// Names holds the four artifact names at the sink.
type Names struct {
	JSON      string
	HTML      string
	PNG       string
	LastError string
}

// DeriveNames computes the PNG and last-error names from the configured
// JSON and HTML names: "index.html" -> "index.png",
// "results.json" -> "results-last_error.json".
func DeriveNames(jsonName, htmlName string) Names {
	htmlBase := strings.TrimSuffix(htmlName, filepath.Ext(htmlName))
	jsonBase := strings.TrimSuffix(jsonName, filepath.Ext(jsonName))
	return Names{
		JSON:      jsonName,
		HTML:      htmlName,
		PNG:       htmlBase + ".png",
		LastError: jsonBase + "-last_error.json",
	}
}
