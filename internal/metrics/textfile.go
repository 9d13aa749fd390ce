package metrics

import (
	"bytes"
	"fmt"
	"os"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/sitegauge/sitegauge/internal/health"
	"github.com/sitegauge/sitegauge/internal/window"
)

// TextfileWriter writes one exposition snapshot per evaluation tick.
type TextfileWriter struct {
	path string
}

// NewTextfileWriter returns a writer targeting path.
func NewTextfileWriter(path string) *TextfileWriter {
	return &TextfileWriter{path: path}
}

// gauge builds a single-sample gauge family.
func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(value)}},
		},
	}
}

// Write encodes the statistics and health state and atomically replaces
// the textfile, so a collector never reads a half-written exposition.
func (w *TextfileWriter) Write(st window.Stats, state health.State) error {
	healthy := 0.0
	if state.Healthy() {
		healthy = 1
	}

	families := []*dto.MetricFamily{
		gauge("sitegauge_healthy", "Whether the target is classified healthy (1) or unhealthy (0).", healthy),
		gauge("sitegauge_latency_seconds_min", "Minimum effective latency over the evaluation window.", st.MinEffective),
		gauge("sitegauge_latency_seconds_max", "Maximum effective latency over the evaluation window.", st.MaxEffective),
		gauge("sitegauge_latency_seconds_avg", "Mean effective latency over the evaluation window.", st.AvgEffective),
		gauge("sitegauge_latency_seconds_avg_adjusted", "Mean adjusted latency, charging failures the request timeout.", st.AvgAdjusted),
		gauge("sitegauge_latency_seconds_stddev", "Population standard deviation of effective latency.", st.StdDevEffective),
		gauge("sitegauge_latency_seconds_stddev_adjusted", "Population standard deviation of adjusted latency.", st.StdDevAdjusted),
		gauge("sitegauge_error_rate_percent", "Share of window samples that failed, in percent.", st.ErrorRate),
		gauge("sitegauge_dominant_status_code", "Most frequent non-200 HTTP status in the window, 200 when none.", float64(st.StatusCode)),
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("metrics: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("metrics: rename %s: %w", w.path, err)
	}
	return nil
}
