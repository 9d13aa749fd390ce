package health

import "github.com/sitegauge/sitegauge/internal/window"

// State is the classified health of the target.
type State string

// The two possible states. There is no intermediate or unknown state:
// classification only happens once the window has filled.
const (
	StateHealthy   State = "healthy"
	StateUnhealthy State = "unhealthy"
)

// Healthy reports whether s is the healthy state.
func (s State) Healthy() bool { return s == StateHealthy }

// Text returns the capitalized display word used on the status page.
func (s State) Text() string {
	if s.Healthy() {
		return "Healthy"
	}
	return "Unhealthy"
}

// Thresholds are the classifier bounds, in seconds and percent.
type Thresholds struct {
	Latency   float64 // ceiling for both mean latencies
	ErrorRate float64 // ceiling for the window error rate
	Deviation float64 // ceiling for both standard deviations
}

// Evaluate classifies one set of window statistics. The target is
// healthy only when every statistic is within its bound.
func Evaluate(st window.Stats, t Thresholds) State {
	if st.AvgEffective <= t.Latency &&
		st.AvgAdjusted <= t.Latency &&
		st.ErrorRate <= t.ErrorRate &&
		st.StdDevEffective <= t.Deviation &&
		st.StdDevAdjusted <= t.Deviation {
		return StateHealthy
	}
	return StateUnhealthy
}
