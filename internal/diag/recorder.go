// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package diag

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	// DefaultCapacity is the number of events retained.
	DefaultCapacity = 40
	// DefaultThrottleWindow is the minimum spacing of reports per key.
	DefaultThrottleWindow = 60 * time.Second
	// DefaultStartupGrace is how long auth-class reports are downgraded
	// after the recorder is created.
	DefaultStartupGrace = 10 * time.Second

	meterName = "github.com/retr0h/tether/internal/diag"
)

// Options configures a Recorder. Zero values take the defaults.
type Options struct {
	Capacity       int
	ThrottleWindow time.Duration
	// StartupGrace of zero takes the default; a negative value disables it.
	StartupGrace time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Recorder keeps the recent network history and escalates notable
// outcomes. Safe for concurrent use.
type Recorder struct {
	logger *slog.Logger
	events *RingBuffer[NetEvent]
	now    func() time.Time

	throttleWindow time.Duration
	startupGrace   time.Duration
	startedAt      time.Time

	mu           sync.Mutex
	lastReported map[string]time.Time

	reported   atomic.Int64
	suppressed atomic.Int64

	eventCounter  metric.Int64Counter
	reportCounter metric.Int64Counter
}

// New creates a Recorder.
func New(
	logger *slog.Logger,
	opts Options,
) *Recorder {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = DefaultThrottleWindow
	}
	if opts.StartupGrace < 0 {
		opts.StartupGrace = 0
	} else if opts.StartupGrace == 0 {
		opts.StartupGrace = DefaultStartupGrace
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	r := &Recorder{
		logger:         logger,
		events:         NewRingBuffer[NetEvent](opts.Capacity),
		now:            opts.Clock,
		throttleWindow: opts.ThrottleWindow,
		startupGrace:   opts.StartupGrace,
		startedAt:      opts.Clock(),
		lastReported:   make(map[string]time.Time),
	}
	r.initMetrics()

	return r
}

func (r *Recorder) initMetrics() {
	meter := otel.Meter(meterName)

	var err error
	r.eventCounter, err = meter.Int64Counter(
		"tether.net.events",
		metric.WithDescription("Network exchanges recorded, by kind."),
	)
	if err != nil {
		r.eventCounter = noop.Int64Counter{}
	}

	r.reportCounter, err = meter.Int64Counter(
		"tether.diagnostics.escalated",
		metric.WithDescription("Diagnostics escalated past the throttle, by kind."),
	)
	if err != nil {
		r.reportCounter = noop.Int64Counter{}
	}
}

// Record appends ev to the ring and escalates or breadcrumbs it
// according to its kind.
func (r *Recorder) Record(
	ctx context.Context,
	ev NetEvent,
) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now()
	}
	r.events.WriteOne(ev)

	kind := Classify(ev)
	r.eventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("via", ev.Via),
	))

	attrs := []slog.Attr{
		slog.String("method", ev.Method),
		slog.String("path", ev.Path),
		slog.Int("status", ev.Status),
		slog.Int64("duration_ms", ev.DurationMs),
		slog.String("via", ev.Via),
	}
	if ev.SyntheticCode != "" {
		attrs = append(attrs, slog.String("code", ev.SyntheticCode))
	}

	switch r.severity(kind) {
	case SeverityEscalate:
		r.Report(ctx, kind, string(kind)+":"+ev.Method+" "+ev.Path, attrs...)
	case SeverityBreadcrumb:
		r.Breadcrumb(ctx, kind, attrs...)
	}
}

// severity applies the startup grace to auth-class kinds.
func (r *Recorder) severity(
	kind Kind,
) Severity {
	sev := SeverityOf(kind)
	if kind == KindAuthFailure && r.InStartupGrace() {
		return SeverityBreadcrumb
	}

	return sev
}

// InStartupGrace reports whether the recorder is still inside its
// startup window.
func (r *Recorder) InStartupGrace() bool {
	return r.now().Sub(r.startedAt) < r.startupGrace
}

// Report escalates a diagnostic unless another report with the same
// throttle key was emitted within the throttle window. It returns true
// when the report was emitted.
func (r *Recorder) Report(
	ctx context.Context,
	kind Kind,
	throttleKey string,
	attrs ...slog.Attr,
) bool {
	now := r.now()

	r.mu.Lock()
	if last, ok := r.lastReported[throttleKey]; ok && now.Sub(last) < r.throttleWindow {
		r.mu.Unlock()
		r.suppressed.Add(1)
		return false
	}
	r.lastReported[throttleKey] = now
	r.mu.Unlock()

	r.reported.Add(1)
	r.reportCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
	))

	attrs = append(attrs, slog.String("kind", string(kind)))
	r.logger.LogAttrs(ctx, levelFor(kind), "network diagnostic", attrs...)

	return true
}

// Breadcrumb leaves a debug-level trail entry. Breadcrumbs are never
// throttled.
func (r *Recorder) Breadcrumb(
	ctx context.Context,
	kind Kind,
	attrs ...slog.Attr,
) {
	attrs = append(attrs, slog.String("kind", string(kind)))
	r.logger.LogAttrs(ctx, slog.LevelDebug, "network breadcrumb", attrs...)
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []NetEvent {
	return r.events.ReadAll()
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Capacity:      r.events.Capacity(),
		TotalRecorded: r.events.TotalAdded(),
		Reported:      r.reported.Load(),
		Suppressed:    r.suppressed.Load(),
	}
}

// Stats summarises recorder activity.
type Stats struct {
	Capacity      int   `json:"capacity"`
	TotalRecorded int64 `json:"total_recorded"`
	Reported      int64 `json:"reported"`
	Suppressed    int64 `json:"suppressed"`
}

func levelFor(
	kind Kind,
) slog.Level {
	switch kind {
	case KindServerError, KindException, KindMissingConfig:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
