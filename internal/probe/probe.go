package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/sitegauge/sitegauge/internal/config"
	"github.com/sitegauge/sitegauge/internal/window"
)

// Result is the outcome of a single timed probe. Body is populated only
// for non-200 responses when capture is enabled, so debug runs can dump
// upstream error pages to disk.
type Result struct {
	StatusCode int // 0 when the transport failed before a response
	Effective  float64
	Adjusted   float64
	Err        bool

	Body        string
	ContentType string
}

// Sample converts the result into the per-second window sample shape.
func (r Result) Sample() window.Sample {
	return window.Sample{
		Err:        r.Err,
		Effective:  r.Effective,
		Adjusted:   r.Adjusted,
		StatusCode: r.StatusCode,
	}
}

// headerRoundTripper injects the configured static headers into every
// outgoing request.
type headerRoundTripper struct {
	base          http.RoundTripper
	userAgent     string
	authorization string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.authorization != "" {
		req.Header.Set("Authorization", t.authorization)
	}
	return t.base.RoundTrip(req)
}

// Prober issues one timed GET per tick against a fixed target.
// The underlying client and its connection pool are reused across
// ticks; Close releases idle connections on shutdown.
type Prober struct {
	target      string
	timeout     time.Duration
	captureBody bool
	client      *http.Client
}

// New builds a Prober for the configured target.
func New(cfg config.TargetConfig, captureBody bool) *Prober {
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // user-configured
	}

	return &Prober{
		target:      cfg.URL,
		timeout:     cfg.Timeout,
		captureBody: captureBody,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &headerRoundTripper{
				base:          transport,
				userAgent:     cfg.UserAgent,
				authorization: cfg.Authorization,
			},
		},
	}
}

// Probe performs one attempt and classifies the outcome. The effective
// latency is the wall-clock time of the attempt regardless of outcome;
// any failure (DNS, TLS, connect, timeout, or a non-200 status) is
// charged the full request timeout as its adjusted latency.
func (p *Prober) Probe(ctx context.Context) Result {
	timeoutSec := p.timeout.Seconds()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target, nil)
	if err != nil {
		return Result{Err: true, Adjusted: timeoutSec}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return Result{
			Err:       true,
			Effective: elapsed,
			Adjusted:  timeoutSec,
		}
	}
	defer resp.Body.Close()

	res := Result{
		StatusCode: resp.StatusCode,
		Effective:  elapsed,
	}
	if resp.StatusCode == http.StatusOK {
		res.Adjusted = elapsed
		io.Copy(io.Discard, resp.Body) // drain so the connection is reused
		return res
	}

	res.Err = true
	res.Adjusted = timeoutSec
	if p.captureBody {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		res.Body = string(body)
		res.ContentType = resp.Header.Get("Content-Type")
	}
	return res
}

// Close releases the client's idle connections.
func (p *Prober) Close() {
	p.client.CloseIdleConnections()
}
