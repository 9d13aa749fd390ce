package window

import "math"

// Sample is one synthetic per-second probe outcome. A single probe is
// replicated into probe-interval many samples, so the window always
// models one sample per second regardless of cadence.
type Sample struct {
	// Err marks transport failures and non-200 responses.
	Err bool

	// Effective is the measured wall-clock latency of the attempt in
	// seconds, recorded whether or not the probe succeeded.
	Effective float64

	// Adjusted equals Effective for 200 responses and the configured
	// request timeout otherwise, so failures bias averages upward.
	Adjusted float64

	// StatusCode is the HTTP status, or 0 when the transport failed
	// before a response arrived.
	StatusCode int
}

// Stats is one set of aggregate statistics over the evaluation window.
type Stats struct {
	MinEffective    float64
	MaxEffective    float64
	AvgEffective    float64
	AvgAdjusted     float64
	StdDevEffective float64
	StdDevAdjusted  float64

	// ErrorRate is errors-in-window / window-size, in percent.
	ErrorRate float64

	// StatusCode is the most frequent non-200 status in the window,
	// or 200 when every sample either succeeded or never got a response.
	StatusCode int
}

// Buffer is a fixed-capacity ring of samples. Capacity is three times
// the window size; once full, appending overwrites the oldest sample,
// so memory stays bounded without any slicing.
type Buffer struct {
	samples []Sample
	head    int // index of the oldest sample
	n       int
	window  int
}

// NewBuffer returns a Buffer evaluating the most recent size samples.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		samples: make([]Sample, 3*size),
		window:  size,
	}
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int { return b.n }

// Ready reports whether enough samples have accumulated to evaluate.
// Statistics are computed only once the buffer holds strictly more
// than one full window.
func (b *Buffer) Ready() bool { return b.n > b.window }

// Append adds s to the buffer times times. When the ring is full the
// oldest samples are overwritten.
func (b *Buffer) Append(s Sample, times int) {
	for i := 0; i < times; i++ {
		idx := (b.head + b.n) % len(b.samples)
		b.samples[idx] = s
		if b.n == len(b.samples) {
			b.head = (b.head + 1) % len(b.samples)
		} else {
			b.n++
		}
	}
}

// Prune discards the k oldest samples. Called after each evaluation to
// keep the buffer near its steady-state size.
func (b *Buffer) Prune(k int) {
	if k > b.n {
		k = b.n
	}
	b.head = (b.head + k) % len(b.samples)
	b.n -= k
}

// at returns the i-th sample counted from the oldest.
func (b *Buffer) at(i int) Sample {
	return b.samples[(b.head+i)%len(b.samples)]
}

// Stats computes aggregates over the most recent window samples.
// The standard deviations are population deviations and are exactly
// 0.0 (never NaN) when fewer than two samples are in scope.
func (b *Buffer) Stats() Stats {
	count := b.window
	if count > b.n {
		count = b.n
	}
	start := b.n - count

	var st Stats
	if count == 0 {
		st.StatusCode = 200
		return st
	}

	var sumEff, sumAdj float64
	var errors int
	codeCounts := make(map[int]int)

	st.MinEffective = math.Inf(1)
	for i := start; i < b.n; i++ {
		s := b.at(i)
		if s.Effective < st.MinEffective {
			st.MinEffective = s.Effective
		}
		if s.Effective > st.MaxEffective {
			st.MaxEffective = s.Effective
		}
		sumEff += s.Effective
		sumAdj += s.Adjusted
		if s.Err {
			errors++
		}
		// Transport failures have no status to tally.
		if s.StatusCode != 0 && s.StatusCode != 200 {
			codeCounts[s.StatusCode]++
		}
	}

	n := float64(count)
	st.AvgEffective = sumEff / n
	st.AvgAdjusted = sumAdj / n
	st.ErrorRate = float64(errors) / float64(b.window) * 100

	if count >= 2 {
		var varEff, varAdj float64
		for i := start; i < b.n; i++ {
			s := b.at(i)
			dEff := s.Effective - st.AvgEffective
			dAdj := s.Adjusted - st.AvgAdjusted
			varEff += dEff * dEff
			varAdj += dAdj * dAdj
		}
		st.StdDevEffective = math.Sqrt(varEff / n)
		st.StdDevAdjusted = math.Sqrt(varAdj / n)
	}

	st.StatusCode = dominantCode(codeCounts)
	return st
}

// dominantCode picks the most frequent non-200 status. Ties break
// toward the lowest code so the result is deterministic. An empty
// tally means the window saw nothing but successes (or transport
// failures), reported as 200.
func dominantCode(counts map[int]int) int {
	best, bestCount := 200, 0
	for code, c := range counts {
		if c > bestCount || (c == bestCount && code < best) {
			best, bestCount = code, c
		}
	}
	if bestCount == 0 {
		return 200
	}
	return best
}
