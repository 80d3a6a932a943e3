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

// Package lifecycle runs background session auto-refresh while at least
// one caller wants it and the application is in the foreground.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/retr0h/tether/internal/freshness"
)

// DefaultInterval is the auto-refresh tick.
const DefaultInterval = 30 * time.Second

// Refresher is ticked by the auto-refresh schedule.
type Refresher interface {
	Check(ctx context.Context) freshness.State
}

// Options configures a Manager.
type Options struct {
	// Interval between ticks; cron granularity is one second.
	Interval time.Duration
	// Source reports foreground/background transitions. Optional; without
	// it the application is treated as always in the foreground.
	Source AppStateSource
}

// Manager reference-counts auto-refresh. Safe for concurrent use.
type Manager struct {
	logger    *slog.Logger
	refresher Refresher
	interval  time.Duration
	source    AppStateSource

	mu          sync.Mutex
	refs        int
	unsubscribe func()
	scheduler   *cron.Cron
	cancel      context.CancelFunc
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	refresher Refresher,
	opts Options,
) *Manager {
	if opts.Interval < time.Second {
		opts.Interval = DefaultInterval
	}

	return &Manager{
		logger:    logger,
		refresher: refresher,
		interval:  opts.Interval,
		source:    opts.Source,
	}
}

// Acquire registers interest in auto-refresh. The first acquisition
// starts it; the returned release is idempotent and the last release
// stops it.
func (m *Manager) Acquire() func() {
	m.mu.Lock()
	m.refs++
	if m.refs == 1 {
		m.activate()
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(m.release)
	}
}

func (m *Manager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs--
	if m.refs > 0 {
		return
	}

	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.stopLocked()
	m.logger.Debug("auto-refresh released")
}

// activate runs with mu held.
func (m *Manager) activate() {
	state := Foreground
	if m.source != nil {
		m.unsubscribe = m.source.Subscribe(m.onState)
		state = m.source.State()
	}

	if state == Foreground {
		m.startLocked()
	}
}

func (m *Manager) onState(
	state AppState,
) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return
	}

	m.logger.Debug("app state changed", slog.String("state", state.String()))

	switch state {
	case Foreground:
		m.startLocked()
	case Background:
		m.stopLocked()
	}
}

func (m *Manager) startLocked() {
	if m.scheduler != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{logger: m.logger}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	if _, err := scheduler.AddFunc(
		fmt.Sprintf("@every %s", m.interval),
		func() { m.tick(ctx) },
	); err != nil {
		cancel()
		m.logger.Error("failed to schedule auto-refresh", slog.String("error", err.Error()))
		return
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.cancel = cancel

	go m.tick(ctx)

	m.logger.Debug("auto-refresh started", slog.Duration("interval", m.interval))
}

func (m *Manager) stopLocked() {
	if m.scheduler == nil {
		return
	}

	m.cancel()
	m.scheduler.Stop()
	m.scheduler = nil
	m.cancel = nil

	m.logger.Debug("auto-refresh stopped")
}

func (m *Manager) tick(
	ctx context.Context,
) {
	if ctx.Err() != nil {
		return
	}

	state := m.refresher.Check(ctx)
	m.logger.Debug("auto-refresh tick", slog.String("state", string(state)))
}

// Refs returns the number of outstanding acquisitions.
func (m *Manager) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refs
}

// Running reports whether the auto-refresh schedule is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.scheduler != nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(
	msg string,
	keysAndValues ...interface{},
) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(
	err error,
	msg string,
	keysAndValues ...interface{},
) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err.Error())...)
}
