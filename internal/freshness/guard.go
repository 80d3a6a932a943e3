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

// Package freshness keeps the auth session valid. It refreshes when the
// access token is about to expire or the backend recently rejected it,
// with at most one refresh in flight and a cooldown between attempts.
package freshness

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/timeout"
)

const (
	// DefaultExpiryThreshold refreshes tokens expiring sooner than this.
	DefaultExpiryThreshold = 90 * time.Second
	// DefaultAuthFailureGrace is how long a 401/403 keeps forcing refreshes.
	DefaultAuthFailureGrace = 5 * time.Minute
	// DefaultCooldown is the minimum spacing between refresh attempts.
	DefaultCooldown = 60 * time.Second
	// DefaultRefreshTimeout bounds one refresh attempt.
	DefaultRefreshTimeout = 8 * time.Second

	signalBuffer = 16
	refreshKey   = "refresh"
)

// Options configures a Guard. Zero values take the defaults.
type Options struct {
	ExpiryThreshold  time.Duration
	AuthFailureGrace time.Duration
	Cooldown         time.Duration
	RefreshTimeout   time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Guard is the session freshness guard. Safe for concurrent use.
type Guard struct {
	auth     Authenticator
	tokens   TokenSink
	reporter Reporter
	logger   *slog.Logger

	expiryThreshold  time.Duration
	authFailureGrace time.Duration
	cooldown         time.Duration
	refreshTimeout   time.Duration
	now              func() time.Time

	group    singleflight.Group
	inFlight atomic.Bool

	mu              sync.Mutex
	lastAttemptAt   time.Time
	lastAuthFailure time.Time
	lastAuthStatus  int

	signals chan int
}

// New factory to create a new instance. reporter may be nil.
func New(
	logger *slog.Logger,
	authenticator Authenticator,
	tokens TokenSink,
	reporter Reporter,
	opts Options,
) *Guard {
	if opts.ExpiryThreshold <= 0 {
		opts.ExpiryThreshold = DefaultExpiryThreshold
	}
	if opts.AuthFailureGrace <= 0 {
		opts.AuthFailureGrace = DefaultAuthFailureGrace
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Guard{
		auth:             authenticator,
		tokens:           tokens,
		reporter:         reporter,
		logger:           logger,
		expiryThreshold:  opts.ExpiryThreshold,
		authFailureGrace: opts.AuthFailureGrace,
		cooldown:         opts.Cooldown,
		refreshTimeout:   opts.RefreshTimeout,
		now:              opts.Clock,
		signals:          make(chan int, signalBuffer),
	}
}

// Check refreshes the session when needed and reports the outcome.
func (g *Guard) Check(
	ctx context.Context,
) State {
	sess, err := g.auth.GetSession(ctx)
	if err != nil || sess == nil || sess.RefreshToken == "" {
		return StateNoSession
	}

	if !g.needsRefresh(sess.ExpiresWithin(g.now(), g.expiryThreshold)) {
		return StateOK
	}

	return g.refresh(ctx)
}

func (g *Guard) needsRefresh(
	expiring bool,
) bool {
	if expiring {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return !g.lastAuthFailure.IsZero() &&
		g.now().Sub(g.lastAuthFailure) < g.authFailureGrace
}

// refresh joins the in-flight attempt or starts one. Callers whose
// context ends first stop waiting; the attempt itself carries on.
func (g *Guard) refresh(
	ctx context.Context,
) State {
	ch := g.group.DoChan(refreshKey, func() (any, error) {
		return g.attempt(context.WithoutCancel(ctx)), nil
	})

	select {
	case r := <-ch:
		return r.Val.(State)
	case <-ctx.Done():
		return StateFailed
	}
}

// attempt runs at most once at a time, under the singleflight group.
func (g *Guard) attempt(
	ctx context.Context,
) State {
	g.mu.Lock()
	started := g.now()
	if !g.lastAttemptAt.IsZero() && started.Sub(g.lastAttemptAt) < g.cooldown {
		g.mu.Unlock()
		g.logger.Debug(
			"refresh suppressed by cooldown",
			slog.Time("last_attempt_at", g.lastAttemptAt),
		)
		return StateFailed
	}
	g.lastAttemptAt = started
	g.mu.Unlock()

	g.inFlight.Store(true)
	defer g.inFlight.Store(false)

	sess, err := timeout.Do(ctx, g.refreshTimeout, g.auth.RefreshSession)
	if err != nil || sess == nil {
		msg := "no session returned"
		if err != nil {
			msg = err.Error()
		}
		g.logger.Warn("session refresh failed", slog.String("error", msg))
		if g.reporter != nil {
			g.reporter.Report(ctx, diag.KindRefreshFailed, refreshKey, slog.String("error", msg))
		}
		return StateFailed
	}

	g.tokens.Set(sess.AccessToken)

	g.mu.Lock()
	if !g.lastAuthFailure.After(started) {
		g.lastAuthFailure = time.Time{}
		g.lastAuthStatus = 0
	}
	g.mu.Unlock()

	g.logger.Debug("session refreshed", slog.Time("expires_at", sess.Expiry()))

	return StateRefreshing
}

// Signal queues an auth failure observed on the data path. It never
// blocks; statuses other than 401 and 403 are ignored.
func (g *Guard) Signal(
	status int,
) {
	if !diag.IsAuthFailure(status) {
		return
	}

	select {
	case g.signals <- status:
	default:
		// Queue full: a check is already pending.
	}
}

// Run consumes auth failure signals until ctx ends. Each batch of queued
// signals records the failure and triggers one Check.
func (g *Guard) Run(
	ctx context.Context,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case status := <-g.signals:
			g.noteAuthFailure(status)
			g.drainSignals()

			state := g.Check(ctx)
			g.logger.Debug(
				"auth failure handled",
				slog.Int("status", status),
				slog.String("state", string(state)),
			)
		}
	}
}

func (g *Guard) drainSignals() {
	for {
		select {
		case status := <-g.signals:
			g.noteAuthFailure(status)
		default:
			return
		}
	}
}

func (g *Guard) noteAuthFailure(
	status int,
) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastAuthFailure = g.now()
	g.lastAuthStatus = status
}

// State returns a snapshot of the refresh bookkeeping.
func (g *Guard) State() RefreshState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return RefreshState{
		InFlight:          g.inFlight.Load(),
		LastAttemptAt:     g.lastAttemptAt,
		LastAuthFailureAt: g.lastAuthFailure,
		LastAuthStatus:    g.lastAuthStatus,
	}
}
