// Package window maintains the rolling sample window and computes its
// summary statistics.
//
// Buffer is a fixed-capacity ring holding three windows' worth of
// samples; when full, the oldest samples are overwritten. Ready reports
// whether the buffer holds strictly more than one window, which is the
// evaluation gate. Stats computes min/max/mean latency, population
// standard deviation, the error rate relative to the window size, and
// the dominant non-200 status code, all over the most recent window.
package window
