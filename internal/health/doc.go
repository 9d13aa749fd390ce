// Package health maps window statistics to a two-state health value.
//
// Evaluate is a pure function: it carries no state between ticks and
// applies no smoothing, so a metric oscillating around a threshold will
// flip the state every evaluation. All threshold comparisons are
// inclusive; a statistic exactly at its bound still counts as healthy.
package health
