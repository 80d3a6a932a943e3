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

package diag_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/diag"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(
	d time.Duration,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type RecorderPublicTestSuite struct {
	suite.Suite

	ctx    context.Context
	buf    *bytes.Buffer
	logger *slog.Logger
	clock  *fakeClock
}

func (s *RecorderPublicTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.buf = &bytes.Buffer{}
	s.logger = slog.New(slog.NewTextHandler(s.buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	s.clock = newFakeClock()
}

func (s *RecorderPublicTestSuite) newRecorder(
	grace time.Duration,
) *diag.Recorder {
	return diag.New(s.logger, diag.Options{
		Capacity:       40,
		ThrottleWindow: time.Minute,
		StartupGrace:   grace,
		Clock:          s.clock.Now,
	})
}

func (s *RecorderPublicTestSuite) countLines(
	substr string,
) int {
	n := 0
	for _, line := range strings.Split(s.buf.String(), "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}

	return n
}

func (s *RecorderPublicTestSuite) TestClassify() {
	tests := []struct {
		name     string
		ev       diag.NetEvent
		wantKind diag.Kind
		wantSev  diag.Severity
	}{
		{
			name:     "when 200",
			ev:       diag.NetEvent{Status: 200},
			wantKind: diag.KindOK,
			wantSev:  diag.SeverityNone,
		},
		{
			name:     "when 401",
			ev:       diag.NetEvent{Status: 401},
			wantKind: diag.KindAuthFailure,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when 403",
			ev:       diag.NetEvent{Status: 403},
			wantKind: diag.KindAuthFailure,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when 406 single row not found",
			ev:       diag.NetEvent{Status: 406},
			wantKind: diag.KindNotAcceptable,
			wantSev:  diag.SeverityBreadcrumb,
		},
		{
			name:     "when routine 404",
			ev:       diag.NetEvent{Status: 404},
			wantKind: diag.KindClientError,
			wantSev:  diag.SeverityBreadcrumb,
		},
		{
			name:     "when 429",
			ev:       diag.NetEvent{Status: 429},
			wantKind: diag.KindRateLimited,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when 503",
			ev:       diag.NetEvent{Status: 503},
			wantKind: diag.KindServerError,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when synthetic timeout",
			ev:       diag.NetEvent{SyntheticCode: diag.CodeNetworkTimeout},
			wantKind: diag.KindNetworkTimeout,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when synthetic network error",
			ev:       diag.NetEvent{SyntheticCode: diag.CodeNetworkError},
			wantKind: diag.KindNetworkError,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when missing config",
			ev:       diag.NetEvent{SyntheticCode: diag.CodeMissingConfig},
			wantKind: diag.KindMissingConfig,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when client timeout",
			ev:       diag.NetEvent{SyntheticCode: diag.CodeClientTimeout},
			wantKind: diag.KindClientTimeout,
			wantSev:  diag.SeverityEscalate,
		},
		{
			name:     "when storage timeout",
			ev:       diag.NetEvent{SyntheticCode: diag.CodeStorageTimeout},
			wantKind: diag.KindStorageTimeout,
			wantSev:  diag.SeverityBreadcrumb,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			kind := diag.Classify(tt.ev)

			s.Equal(tt.wantKind, kind)
			s.Equal(tt.wantSev, diag.SeverityOf(kind))
		})
	}
}

func (s *RecorderPublicTestSuite) TestRecordEvictsOldest() {
	r := s.newRecorder(-1)

	for i := range 45 {
		r.Record(s.ctx, diag.NetEvent{
			Method:     "GET",
			Path:       "/rest/v1/items",
			Status:     200,
			DurationMs: int64(i),
			Via:        "data",
		})
	}

	events := r.Events()
	s.Len(events, 40)
	s.Equal(int64(5), events[0].DurationMs)
	s.Equal(int64(44), events[39].DurationMs)
	s.Equal(int64(45), r.Stats().TotalRecorded)
}

func (s *RecorderPublicTestSuite) TestRecordStampsTimestamp() {
	r := s.newRecorder(-1)

	r.Record(s.ctx, diag.NetEvent{Method: "GET", Path: "/x", Status: 200})

	s.Equal(s.clock.Now(), r.Events()[0].Timestamp)
}

func (s *RecorderPublicTestSuite) TestReportThrottle() {
	tests := []struct {
		name        string
		advance     time.Duration
		secondKey   string
		wantSecond  bool
		wantReports int
	}{
		{
			name:        "when same key inside the window",
			advance:     30 * time.Second,
			secondKey:   "k1",
			wantSecond:  false,
			wantReports: 1,
		},
		{
			name:        "when same key after the window",
			advance:     61 * time.Second,
			secondKey:   "k1",
			wantSecond:  true,
			wantReports: 2,
		},
		{
			name:        "when a different key inside the window",
			advance:     time.Second,
			secondKey:   "k2",
			wantSecond:  true,
			wantReports: 2,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			r := s.newRecorder(-1)

			s.True(r.Report(s.ctx, diag.KindServerError, "k1"))
			s.clock.Advance(tt.advance)
			s.Equal(tt.wantSecond, r.Report(s.ctx, diag.KindServerError, tt.secondKey))

			s.Equal(tt.wantReports, s.countLines("network diagnostic"))
			s.Equal(int64(tt.wantReports), r.Stats().Reported)
			s.Equal(int64(2-tt.wantReports), r.Stats().Suppressed)
		})
	}
}

func (s *RecorderPublicTestSuite) TestRecordEscalation() {
	tests := []struct {
		name            string
		grace           time.Duration
		advance         time.Duration
		ev              diag.NetEvent
		wantReports     int
		wantBreadcrumbs int
	}{
		{
			name:        "when server error escalates",
			grace:       -1,
			ev:          diag.NetEvent{Method: "POST", Path: "/rest/v1/rpc/f", Status: 500},
			wantReports: 1,
		},
		{
			name:            "when 406 only breadcrumbs",
			grace:           -1,
			ev:              diag.NetEvent{Method: "GET", Path: "/rest/v1/t", Status: 406},
			wantBreadcrumbs: 1,
		},
		{
			name:        "when success records silently",
			grace:       -1,
			ev:          diag.NetEvent{Method: "GET", Path: "/rest/v1/t", Status: 200},
			wantReports: 0,
		},
		{
			name:            "when 401 inside startup grace is downgraded",
			grace:           10 * time.Second,
			ev:              diag.NetEvent{Method: "GET", Path: "/rest/v1/t", Status: 401},
			wantBreadcrumbs: 1,
		},
		{
			name:        "when 401 after startup grace escalates",
			grace:       10 * time.Second,
			advance:     11 * time.Second,
			ev:          diag.NetEvent{Method: "GET", Path: "/rest/v1/t", Status: 401},
			wantReports: 1,
		},
		{
			name:        "when timeout inside startup grace still escalates",
			grace:       10 * time.Second,
			ev:          diag.NetEvent{Method: "GET", Path: "/rest/v1/t", SyntheticCode: diag.CodeNetworkTimeout},
			wantReports: 1,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			r := s.newRecorder(tt.grace)
			s.clock.Advance(tt.advance)

			r.Record(s.ctx, tt.ev)

			s.Equal(tt.wantReports, s.countLines("network diagnostic"))
			s.Equal(tt.wantBreadcrumbs, s.countLines("network breadcrumb"))
			s.Len(r.Events(), 1)
		})
	}
}

func (s *RecorderPublicTestSuite) TestRecordThrottlesRepeatedFailures() {
	r := s.newRecorder(-1)
	ev := diag.NetEvent{Method: "GET", Path: "/rest/v1/t", SyntheticCode: diag.CodeNetworkError}

	for range 5 {
		r.Record(s.ctx, ev)
	}

	s.Equal(1, s.countLines("network diagnostic"))
	s.Len(r.Events(), 5)
}

func TestRecorderPublicTestSuite(t *testing.T) {
	suite.Run(t, new(RecorderPublicTestSuite))
}
