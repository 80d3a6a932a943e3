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

package lifecycle_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/freshness"
	"github.com/retr0h/tether/internal/lifecycle"
)

type countingRefresher struct {
	checks atomic.Int32
}

func (r *countingRefresher) Check(
	_ context.Context,
) freshness.State {
	r.checks.Add(1)
	return freshness.StateOK
}

type ManagerPublicTestSuite struct {
	suite.Suite

	logger    *slog.Logger
	refresher *countingRefresher
	notifier  *lifecycle.Notifier
}

func (s *ManagerPublicTestSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
	s.refresher = &countingRefresher{}
	s.notifier = lifecycle.NewNotifier()
}

func (s *ManagerPublicTestSuite) newManager(
	interval time.Duration,
) *lifecycle.Manager {
	return lifecycle.New(s.logger, s.refresher, lifecycle.Options{
		Interval: interval,
		Source:   s.notifier,
	})
}

func (s *ManagerPublicTestSuite) TestAcquireRelease() {
	m := s.newManager(time.Minute)

	first := m.Acquire()
	second := m.Acquire()

	s.Equal(2, m.Refs())
	s.True(m.Running())
	s.Equal(1, s.notifier.Listeners())

	first()
	first()
	s.Equal(1, m.Refs())
	s.True(m.Running())

	second()
	s.Equal(0, m.Refs())
	s.False(m.Running())
	s.Equal(0, s.notifier.Listeners())
}

func (s *ManagerPublicTestSuite) TestStartTicksImmediately() {
	m := s.newManager(time.Minute)

	release := m.Acquire()
	defer release()

	s.Eventually(func() bool {
		return s.refresher.checks.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func (s *ManagerPublicTestSuite) TestScheduledTicks() {
	m := s.newManager(time.Second)

	release := m.Acquire()
	defer release()

	s.Eventually(func() bool {
		return s.refresher.checks.Load() >= 2
	}, 3*time.Second, 20*time.Millisecond)
}

func (s *ManagerPublicTestSuite) TestAppStateTransitions() {
	tests := []struct {
		name        string
		initial     lifecycle.AppState
		transitions []lifecycle.AppState
		wantRunning bool
	}{
		{
			name:        "when acquired in foreground runs",
			initial:     lifecycle.Foreground,
			wantRunning: true,
		},
		{
			name:    "when acquired in background waits",
			initial: lifecycle.Background,
		},
		{
			name:        "when sent to background pauses",
			initial:     lifecycle.Foreground,
			transitions: []lifecycle.AppState{lifecycle.Background},
		},
		{
			name:    "when brought back to foreground resumes",
			initial: lifecycle.Foreground,
			transitions: []lifecycle.AppState{
				lifecycle.Background,
				lifecycle.Foreground,
			},
			wantRunning: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.notifier = lifecycle.NewNotifier()
			s.notifier.Set(tt.initial)
			m := s.newManager(time.Minute)

			release := m.Acquire()
			defer release()

			for _, state := range tt.transitions {
				s.notifier.Set(state)
			}

			s.Equal(tt.wantRunning, m.Running())
		})
	}
}

func (s *ManagerPublicTestSuite) TestTransitionsAfterReleaseIgnored() {
	m := s.newManager(time.Minute)

	release := m.Acquire()
	release()

	s.notifier.Set(lifecycle.Background)
	s.notifier.Set(lifecycle.Foreground)

	s.False(m.Running())
}

func (s *ManagerPublicTestSuite) TestWithoutSource() {
	m := lifecycle.New(s.logger, s.refresher, lifecycle.Options{})

	release := m.Acquire()
	s.True(m.Running())

	release()
	s.False(m.Running())
}

func (s *ManagerPublicTestSuite) TestNotifier() {
	n := lifecycle.NewNotifier()
	var got []lifecycle.AppState

	unsubscribe := n.Subscribe(func(state lifecycle.AppState) {
		got = append(got, state)
	})

	n.Set(lifecycle.Foreground)
	n.Set(lifecycle.Background)
	n.Set(lifecycle.Background)
	n.Set(lifecycle.Foreground)
	unsubscribe()
	n.Set(lifecycle.Background)

	s.Equal([]lifecycle.AppState{lifecycle.Background, lifecycle.Foreground}, got)
	s.Equal(lifecycle.Background, n.State())
	s.Equal("background", n.State().String())
}

func TestManagerPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerPublicTestSuite))
}
