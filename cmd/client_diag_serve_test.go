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

package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/api"
	"github.com/retr0h/tether/internal/config"
	"github.com/retr0h/tether/internal/probe"
	"github.com/retr0h/tether/internal/session"
)

type fakeProvider struct {
	diagnostics session.Diagnostics
}

func (f *fakeProvider) Diagnostics() session.Diagnostics { return f.diagnostics }

func (f *fakeProvider) Probe(_ context.Context, _ string) bool { return false }

type DiagServeTestSuite struct {
	suite.Suite

	saved config.Config
}

func (s *DiagServeTestSuite) SetupTest() {
	s.saved = appConfig
}

func (s *DiagServeTestSuite) TearDownTest() {
	appConfig = s.saved
}

func (s *DiagServeTestSuite) TestRegisterDiagHandlers() {
	complete := config.Backend{URL: "https://abc.example.co", APIKey: "anon"}

	tests := []struct {
		name     string
		backend  config.Backend
		probe    *probe.Outcome
		path     string
		wantCode int
		wantBody string
	}{
		{
			name:     "when backend configured and reachable is ready",
			backend:  complete,
			probe:    &probe.Outcome{Status: http.StatusOK},
			path:     "/health/ready",
			wantCode: http.StatusOK,
			wantBody: `"ready"`,
		},
		{
			name:     "when backend config missing is not ready",
			path:     "/health/ready",
			wantCode: http.StatusServiceUnavailable,
			wantBody: "backend url or api key missing",
		},
		{
			name:     "when last probe failed is not ready",
			backend:  complete,
			probe:    &probe.Outcome{SyntheticCode: "network_timeout"},
			path:     "/health/ready",
			wantCode: http.StatusServiceUnavailable,
			wantBody: "network_timeout",
		},
		{
			name:     "when diagnostics requested returns snapshot",
			backend:  complete,
			path:     "/diagnostics",
			wantCode: http.StatusOK,
			wantBody: `"lifecycle"`,
		},
		{
			name:     "when metrics requested serves handler",
			path:     "/metrics",
			wantCode: http.StatusOK,
			wantBody: "scrape",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			appConfig = config.Config{Backend: tt.backend}
			provider := &fakeProvider{diagnostics: session.Diagnostics{Probe: tt.probe}}
			metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "scrape")
			})

			sm := api.New(appConfig, slog.New(slog.NewTextHandler(io.Discard, nil)))
			registerDiagHandlers(sm, provider, metrics, "/metrics")

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			sm.Echo.ServeHTTP(rec, req)

			s.Equal(tt.wantCode, rec.Code)
			s.Contains(rec.Body.String(), tt.wantBody)
		})
	}
}

func (s *DiagServeTestSuite) TestBuildVersion() {
	saved := version
	defer func() { version = saved }()

	version = "v1.2.3"
	info := buildVersion()

	s.Equal("v1.2.3", info.GitVersion)
	s.Equal("tether", info.Name)
}

func TestDiagServeTestSuite(t *testing.T) {
	suite.Run(t, new(DiagServeTestSuite))
}
