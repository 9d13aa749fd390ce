// Package probe issues single timed HTTP GET requests against the
// monitored target.
//
// Each Probe returns a Result with two latency views: Effective is the
// measured wall time of the request, Adjusted charges failures the full
// request timeout so a fast error page cannot look like a fast site.
// Transport-level failures carry status code 0 to keep them out of the
// dominant-status-code statistic.
//
// Custom User-Agent and Authorization headers are injected by a
// RoundTripper so redirects keep them; the client reuses one
// http.Transport across ticks.
package probe
