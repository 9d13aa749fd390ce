package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sitegauge/sitegauge/internal/health"
	"github.com/sitegauge/sitegauge/internal/window"
)

var baseTime = time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

func sampleStats() window.Stats {
	return window.Stats{
		MinEffective:    0.0801234567,
		MaxEffective:    0.25,
		AvgEffective:    0.1234567891,
		AvgAdjusted:     0.2,
		ErrorRate:       8.333333,
		StdDevEffective: 0.0123456789,
		StdDevAdjusted:  0.02,
		StatusCode:      503,
	}
}

func TestNewSummary_FieldsAndRounding(t *testing.T) {
	s := NewSummary(baseTime, sampleStats(), health.StateUnhealthy, 5)

	if s.Timestamp != "2026-03-01T12:30:45Z" {
		t.Errorf("Timestamp = %q", s.Timestamp)
	}
	if s.AvgEffective != 0.123457 {
		t.Errorf("AvgEffective = %v, want 0.123457", s.AvgEffective)
	}
	if s.ErrorRate != 8.33 {
		t.Errorf("ErrorRate = %v, want 8.33", s.ErrorRate)
	}
	if s.Healthy != 0 {
		t.Errorf("Healthy = %d, want 0", s.Healthy)
	}
	if s.ProbeInterval != 5 {
		t.Errorf("ProbeInterval = %d, want 5", s.ProbeInterval)
	}
	if s.StatusCode == nil || *s.StatusCode != 503 {
		t.Errorf("StatusCode = %v, want 503", s.StatusCode)
	}
}

func TestNewSummary_OmitsImplausibleStatusCode(t *testing.T) {
	st := sampleStats()
	st.StatusCode = 0
	s := NewSummary(baseTime, st, health.StateHealthy, 1)
	if s.StatusCode != nil {
		t.Errorf("StatusCode = %v, want omitted", *s.StatusCode)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "status_code") {
		t.Error("status_code should be absent from the JSON")
	}
}

func TestSummary_JSONKeys(t *testing.T) {
	s := NewSummary(baseTime, sampleStats(), health.StateHealthy, 1)
	text, err := s.EncodeJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		"timestamp",
		"min_effective_latency",
		"max_effective_latency",
		"avg_effective_latency",
		"avg_adjusted_latency",
		"error_rate",
		"std_deviation_effective_latency",
		"std_deviation_adjusted_latency",
		"healthy",
		"probe_interval",
		"status_code",
	} {
		if !strings.Contains(text, `"`+key+`"`) {
			t.Errorf("JSON missing key %q", key)
		}
	}
}

func TestNewPage_LocalTimeAndColor(t *testing.T) {
	p := NewPage(baseTime, health.StateHealthy,
		"results.json", "results-last_error.json", "index.png",
		2.0, "EET", 60*24*3)

	if p.HealthText != "Healthy" || p.HealthColor != "green" {
		t.Errorf("health rendering = %q/%q", p.HealthText, p.HealthColor)
	}
	if p.LocalTime != "2026-03-01 14:30:45 EET" {
		t.Errorf("LocalTime = %q", p.LocalTime)
	}
	if p.SpanHours != 72 {
		t.Errorf("SpanHours = %d, want 72", p.SpanHours)
	}
}

func TestPage_EncodeHTML(t *testing.T) {
	p := NewPage(baseTime, health.StateUnhealthy,
		"results.json", "results-last_error.json", "index.png",
		0, "UTC", 60*24*3)
	html, err := p.EncodeHTML()
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`<meta http-equiv="refresh" content="60">`,
		"<title>Unhealthy</title>",
		"color: red",
		`href="results.json"`,
		`href="results-last_error.json"`,
		`src="index.png"`,
		"Last 72 Hours",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}
