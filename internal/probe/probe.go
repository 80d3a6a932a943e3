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

// Package probe issues rate-limited connectivity checks against the
// backend, used to tell an isolated stuck call from an unreachable
// backend.
package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/transport"
)

const (
	// DefaultCooldown is the minimum spacing between probes.
	DefaultCooldown = 60 * time.Second
	// HealthPath is the cheap read used as the probe target.
	HealthPath = "/auth/v1/health"
)

// EventRecorder receives the probe outcome.
type EventRecorder interface {
	Record(ctx context.Context, ev diag.NetEvent)
}

// Outcome is the result of the last probe.
type Outcome struct {
	At            time.Time `json:"at"`
	Reason        string    `json:"reason"`
	Status        int       `json:"status"`
	SyntheticCode string    `json:"synthetic_code,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
}

// Reachable reports whether the backend answered at all.
func (o Outcome) Reachable() bool {
	return o.Status != 0
}

// Options configures a Prober.
type Options struct {
	BaseURL string
	// HTTPClient should use a transport.Transport without an observer;
	// the prober records its own event.
	HTTPClient *http.Client
	Recorder   EventRecorder
	Cooldown   time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Prober is safe for concurrent use.
type Prober struct {
	logger   *slog.Logger
	baseURL  string
	http     *http.Client
	recorder EventRecorder
	cooldown time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastAt  time.Time
	last    Outcome
	hasLast bool
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	opts Options,
) *Prober {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Prober{
		logger:   logger,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		recorder: opts.Recorder,
		cooldown: opts.Cooldown,
		now:      opts.Clock,
	}
}

// Probe issues one health read tagged with reason. It returns false
// without any I/O when a probe already ran inside the cooldown.
func (p *Prober) Probe(
	ctx context.Context,
	reason string,
) bool {
	p.mu.Lock()
	start := p.now()
	if !p.lastAt.IsZero() && start.Sub(p.lastAt) < p.cooldown {
		p.mu.Unlock()
		p.logger.Debug("probe suppressed by cooldown", slog.String("reason", reason))
		return false
	}
	p.lastAt = start
	p.mu.Unlock()

	out := Outcome{At: start, Reason: reason}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+HealthPath, nil)
	if err != nil {
		out.SyntheticCode = diag.CodeException
	} else {
		resp, err := p.http.Do(req)
		if err != nil {
			out.SyntheticCode = diag.CodeNetworkError
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			out.Status = resp.StatusCode
			out.SyntheticCode = transport.SyntheticCode(resp)
		}
	}
	out.DurationMs = p.now().Sub(start).Milliseconds()

	p.mu.Lock()
	p.last = out
	p.hasLast = true
	p.mu.Unlock()

	if p.recorder != nil {
		p.recorder.Record(ctx, diag.NetEvent{
			Timestamp:     p.now(),
			Method:        http.MethodGet,
			Path:          HealthPath,
			Status:        out.Status,
			DurationMs:    out.DurationMs,
			SyntheticCode: out.SyntheticCode,
			Via:           "probe:" + reason,
		})
	}

	p.logger.Info(
		"connectivity probe",
		slog.String("reason", reason),
		slog.Bool("reachable", out.Reachable()),
		slog.Int("status", out.Status),
		slog.String("synthetic_code", out.SyntheticCode),
		slog.Int64("duration_ms", out.DurationMs),
	)

	return true
}

// Last returns the most recent probe outcome.
func (p *Prober) Last() (Outcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.last, p.hasLast
}
