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

package health_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/api/health"
)

type HealthPublicTestSuite struct {
	suite.Suite

	logger *slog.Logger
}

func (s *HealthPublicTestSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *HealthPublicTestSuite) serve(
	checker health.Checker,
	path string,
) (*httptest.ResponseRecorder, health.Response) {
	e := echo.New()
	health.New(s.logger, checker, time.Now().Add(-time.Minute), "0.1.0").RegisterHandler()(e)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp health.Response
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))

	return rec, resp
}

func (s *HealthPublicTestSuite) TestHealthHTTP() {
	failing := &health.BackendChecker{
		ConfigCheck:       func() error { return errors.New("backend url missing") },
		ReachabilityCheck: func() error { return errors.New("backend unreachable") },
	}

	tests := []struct {
		name       string
		path       string
		checker    health.Checker
		wantCode   int
		wantStatus string
		validate   func(resp health.Response)
	}{
		{
			name:       "when liveness probe returns ok",
			path:       "/health",
			checker:    failing,
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "when checks pass reports ready",
			path:       "/health/ready",
			checker:    &health.BackendChecker{},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "when checks fail reports not ready",
			path:       "/health/ready",
			checker:    failing,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
			validate: func(resp health.Response) {
				s.Contains(resp.Error, "backend url missing")
				s.Contains(resp.Error, "backend unreachable")
			},
		},
		{
			name:       "when status requested returns version and uptime",
			path:       "/health/status",
			checker:    &health.BackendChecker{},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			validate: func(resp health.Response) {
				s.Equal("0.1.0", resp.Version)
				s.Equal("1m0s", resp.Uptime)
			},
		},
		{
			name:       "when status requested with failing checks is degraded",
			path:       "/health/status",
			checker:    failing,
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			rec, resp := s.serve(tc.checker, tc.path)

			s.Equal(tc.wantCode, rec.Code)
			s.Equal(tc.wantStatus, resp.Status)
			if tc.validate != nil {
				tc.validate(resp)
			}
		})
	}
}

func TestHealthPublicTestSuite(t *testing.T) {
	suite.Run(t, new(HealthPublicTestSuite))
}
