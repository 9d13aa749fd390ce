package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitegauge/sitegauge/internal/config"
	"github.com/sitegauge/sitegauge/internal/health"
	"github.com/sitegauge/sitegauge/internal/history"
	"github.com/sitegauge/sitegauge/internal/metrics"
	"github.com/sitegauge/sitegauge/internal/probe"
	"github.com/sitegauge/sitegauge/internal/publish"
	"github.com/sitegauge/sitegauge/internal/report"
	"github.com/sitegauge/sitegauge/internal/window"
)

// Prober issues one timed probe per tick.
type Prober interface {
	Probe(ctx context.Context) probe.Result
	Close()
}

// Renderer converts the trimmed timeline into PNG bytes.
type Renderer interface {
	Render(timeline []history.Record) []byte
}

// Monitor owns all per-process monitoring state. It is driven by a
// single goroutine; nothing here needs locking.
type Monitor struct {
	cfg      *config.Config
	prober   Prober
	buf      *window.Buffer
	store    history.Store
	pub      publish.Publisher
	renderer Renderer
	textfile *metrics.TextfileWriter // nil when metrics export is off
	names    publish.Names

	timeline   []history.Record
	thresholds health.Thresholds
	reload     chan health.Thresholds

	now func() time.Time // injectable for deterministic tests
}

// New wires a Monitor from its collaborators. textfile may be nil.
func New(cfg *config.Config, prober Prober, store history.Store,
	pub publish.Publisher, renderer Renderer, textfile *metrics.TextfileWriter) *Monitor {

	return &Monitor{
		cfg:      cfg,
		prober:   prober,
		buf:      window.NewBuffer(cfg.Window.Size),
		store:    store,
		pub:      pub,
		renderer: renderer,
		textfile: textfile,
		names:    publish.DeriveNames(cfg.Output.JSONName, cfg.Output.HTMLName),
		thresholds: health.Thresholds{
			Latency:   cfg.Thresholds.Latency,
			ErrorRate: cfg.Thresholds.ErrorRate,
			Deviation: cfg.Thresholds.Deviation,
		},
		reload: make(chan health.Thresholds, 1),
		now:    time.Now,
	}
}

// UpdateThresholds hands new classifier bounds to the loop. They take
// effect at the start of the next tick. Safe to call from the config
// watcher goroutine.
func (m *Monitor) UpdateThresholds(t health.Thresholds) {
	select {
	case m.reload <- t:
	default:
		// A pending update is still unconsumed; replace it.
		select {
		case <-m.reload:
		default:
		}
		m.reload <- t
	}
}

// Run executes the monitor loop until ctx is cancelled. A cancelled
// context is a graceful stop and returns nil; artifact construction
// failures return an error and terminate the loop.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.prober.Close()

	loaded, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("monitor: load history: %w", err)
	}
	m.timeline = history.Trim(loaded, m.cfg.Window.Retention)

	slog.Info("monitor: starting",
		"url", m.cfg.Target.URL,
		"probe_interval", m.cfg.Target.ProbeInterval,
		"window", m.cfg.Window.Size,
		"history", len(m.timeline),
	)

	interval := time.Duration(m.cfg.Target.ProbeInterval) * time.Second

	for {
		if ctx.Err() != nil {
			slog.Info("monitor: shutting down")
			return nil
		}

		select {
		case t := <-m.reload:
			m.thresholds = t
			slog.Info("monitor: thresholds updated",
				"latency", t.Latency, "error_rate", t.ErrorRate, "deviation", t.Deviation)
		default:
		}

		tickStart := m.now()
		deadline := tickStart.Add(interval)

		if err := m.tick(ctx, tickStart); err != nil {
			return err
		}

		// Sleep the clamped remainder. An overrunning tick proceeds
		// straight to the next one; missed ticks are not caught up.
		if remaining := deadline.Sub(m.now()); remaining > 0 {
			select {
			case <-ctx.Done():
				slog.Info("monitor: shutting down")
				return nil
			case <-time.After(remaining):
			}
		}
	}
}

// tick performs one probe and, when the window is full, one evaluation.
func (m *Monitor) tick(ctx context.Context, tickStart time.Time) error {
	res := m.prober.Probe(ctx)
	if ctx.Err() != nil {
		return nil // interrupted mid-probe; Run's next check exits
	}

	// One probe models probe-interval seconds of samples.
	m.buf.Append(res.Sample(), m.cfg.Target.ProbeInterval)

	if res.Err {
		slog.Warn("monitor: probe failed",
			"status", res.StatusCode, "latency", res.Effective)
		m.captureErrorBody(res)
	}

	if !m.buf.Ready() {
		return nil
	}

	if err := m.evaluate(ctx, tickStart); err != nil {
		return err
	}
	m.buf.Prune(m.cfg.Window.PruneCount)
	return nil
}

// evaluate computes the window statistics, classifies, persists the
// record, and republishes all artifacts.
func (m *Monitor) evaluate(ctx context.Context, ts time.Time) error {
	st := m.buf.Stats()
	state := health.Evaluate(st, m.thresholds)

	if m.cfg.Output.Debug {
		slog.Debug("monitor: evaluation",
			"avg_eff", st.AvgEffective,
			"avg_adj", st.AvgAdjusted,
			"error_rate", st.ErrorRate,
			"stddev_eff", st.StdDevEffective,
			"stddev_adj", st.StdDevAdjusted,
			"code", st.StatusCode,
			"state", state,
		)
	}

	rec := history.Record{
		Timestamp: ts.UTC().Truncate(time.Second),
		Healthy:   state.Healthy(),
	}
	if err := m.store.Append(ctx, rec); err != nil {
		// The record is lost but the next tick writes a fresh one.
		slog.Error("monitor: history append failed", "err", err)
	}
	m.timeline = history.Trim(append(m.timeline, rec), m.cfg.Window.Retention)

	png := m.renderer.Render(m.timeline)

	summary := report.NewSummary(ts, st, state, m.cfg.Target.ProbeInterval)
	jsonText, err := summary.EncodeJSON()
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	page := report.NewPage(ts, state, m.names.JSON, m.names.LastError, m.names.PNG,
		m.cfg.Output.TZOffset, m.cfg.Output.TZCaption, m.cfg.Window.Retention)
	htmlText, err := page.EncodeHTML()
	if err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	m.publishAll(ctx, state, jsonText, htmlText, png)

	if m.textfile != nil {
		if err := m.textfile.Write(st, state); err != nil {
			slog.Error("monitor: metrics textfile write failed", "err", err)
		}
	}
	return nil
}

// publishAll pushes the artifacts to the sink. A failed publish never
// blocks the next tick's evaluation; each failure is logged and the
// rest of the artifacts are still attempted.
func (m *Monitor) publishAll(ctx context.Context, state health.State, jsonText, htmlText string, png []byte) {
	if err := m.pub.PublishJSON(ctx, jsonText); err != nil {
		slog.Error("monitor: publish json failed", "err", err)
	}
	if err := m.pub.PublishHTML(ctx, htmlText); err != nil {
		slog.Error("monitor: publish html failed", "err", err)
	}
	if err := m.pub.PublishPNG(ctx, png); err != nil {
		slog.Error("monitor: publish png failed", "err", err)
	}
	if !state.Healthy() {
		if err := m.pub.PublishLastError(ctx, jsonText); err != nil {
			slog.Error("monitor: publish last-error failed", "err", err)
		}
	}
}

// captureErrorBody dumps a non-200 response body next to the artifacts,
// named "<status>_<html-base>.html" (or .txt), debug runs only.
func (m *Monitor) captureErrorBody(res probe.Result) {
	if !m.cfg.Output.Debug || res.Body == "" || res.StatusCode == 0 {
		return
	}
	ext := ".txt"
	if strings.Contains(res.ContentType, "text/html") {
		ext = ".html"
	}
	base := strings.TrimSuffix(m.cfg.Output.HTMLName, filepath.Ext(m.cfg.Output.HTMLName))
	name := fmt.Sprintf("%d_%s%s", res.StatusCode, base, ext)
	if err := os.WriteFile(name, []byte(res.Body), 0o644); err != nil {
		slog.Error("monitor: could not write error capture", "file", name, "err", err)
	}
}
