package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/sitegauge/sitegauge/internal/health"
	"github.com/sitegauge/sitegauge/internal/window"
)

// Summary is the JSON statistics artifact. Latencies are rounded to six
// decimals and the error rate to two, matching the persisted precision
// consumers already rely on.
type Summary struct {
	Timestamp       string  `json:"timestamp"`
	MinEffective    float64 `json:"min_effective_latency"`
	MaxEffective    float64 `json:"max_effective_latency"`
	AvgEffective    float64 `json:"avg_effective_latency"`
	AvgAdjusted     float64 `json:"avg_adjusted_latency"`
	ErrorRate       float64 `json:"error_rate"`
	StdDevEffective float64 `json:"std_deviation_effective_latency"`
	StdDevAdjusted  float64 `json:"std_deviation_adjusted_latency"`
	Healthy         int     `json:"healthy"`
	ProbeInterval   int     `json:"probe_interval"`
	StatusCode      *int    `json:"status_code,omitempty"`
}

// NewSummary assembles the artifact for one tick. The dominant status
// code is included only when it is a plausible HTTP status (100–599).
func NewSummary(ts time.Time, st window.Stats, state health.State, probeInterval int) Summary {
	s := Summary{
		Timestamp:       ts.UTC().Format("2006-01-02T15:04:05Z"),
		MinEffective:    round(st.MinEffective, 6),
		MaxEffective:    round(st.MaxEffective, 6),
		AvgEffective:    round(st.AvgEffective, 6),
		AvgAdjusted:     round(st.AvgAdjusted, 6),
		ErrorRate:       round(st.ErrorRate, 2),
		StdDevEffective: round(st.StdDevEffective, 6),
		StdDevAdjusted:  round(st.StdDevAdjusted, 6),
		ProbeInterval:   probeInterval,
	}
	if state.Healthy() {
		s.Healthy = 1
	}
	if st.StatusCode >= 100 && st.StatusCode <= 599 {
		code := st.StatusCode
		s.StatusCode = &code
	}
	return s
}

// EncodeJSON renders the summary with four-space indentation.
func (s Summary) EncodeJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return "", fmt.Errorf("report: marshal summary: %w", err)
	}
	return string(data), nil
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

// Page holds everything the HTML status page template needs.
type Page struct {
	HealthText  string
	HealthColor string
	LocalTime   string
	JSONName    string
	LastError   string
	PNGName     string
	SpanHours   int
}

// NewPage assembles the template data. The displayed timestamp is
// shifted by tzOffset hours and labeled with tzCaption.
func NewPage(ts time.Time, state health.State, jsonName, lastErrorName, pngName string,
	tzOffset float64, tzCaption string, retention int) Page {

	color := "red"
	if state.Healthy() {
		color = "green"
	}

	zone := time.FixedZone(tzCaption, int(tzOffset*3600))
	local := ts.In(zone).Format("2006-01-02 15:04:05 ") + tzCaption

	return Page{
		HealthText:  state.Text(),
		HealthColor: color,
		LocalTime:   local,
		JSONName:    jsonName,
		LastError:   lastErrorName,
		PNGName:     pngName,
		SpanHours:   retention / 60,
	}
}

// pageTemplate is the self-refreshing status page: the health word in
// its state color, the local time, links to the JSON artifacts, and
// the timeline image scaled to the page width.
var pageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="icon" href="favicon.ico" type="image/x-icon">
    <meta http-equiv="refresh" content="60">
    <title>{{.HealthText}}</title>
    <style>
        body {
            display: flex;
            flex-direction: column;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            font-family: Helvetica, Arial, sans-serif;
            text-align: center;
        }
        .link {
            font-size: 1.2em;
        }
        .status {
            color: {{.HealthColor}};
            font-size: 3em;
            margin-top: 10px;
        }
        .time {
            font-size: 1.5em;
            margin-top: 10px;
        }
        .image-container {
            width: 80%;
            margin-top: 20px;
        }
        .image-container img {
            width: 100%;
            height: auto;
        }
    </style>
</head>
<body>
    <div class="status">{{.HealthText}}</div>
    <div class="time">{{.LocalTime}}</div>
    <div class="link"><a href="{{.JSONName}}">{{.JSONName}}</a></div>
    <div class="link"><a href="{{.LastError}}">{{.LastError}}</a></div>
    <div class="image-container">
        <img src="{{.PNGName}}" alt="Health Status for Last {{.SpanHours}} Hours">
    </div>
</body>
</html>
`))

// EncodeHTML renders the status page.
func (p Page) EncodeHTML() (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("report: render page: %w", err)
	}
	return buf.String(), nil
}
