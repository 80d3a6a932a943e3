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

package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/api"
	"github.com/retr0h/tether/internal/api/health"
	"github.com/retr0h/tether/internal/config"
	"github.com/retr0h/tether/internal/session"
)

type ServerPublicTestSuite struct {
	suite.Suite

	logger *slog.Logger
}

func (s *ServerPublicTestSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *ServerPublicTestSuite) TestNew() {
	tests := []struct {
		name string
		opts []api.Option
	}{
		{
			name: "creates server with default config",
		},
		{
			name: "creates server with a service name",
			opts: []api.Option{api.WithServiceName("tether-test")},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			server := api.New(config.Config{}, s.logger, tt.opts...)

			s.NotNil(server)
			s.NotNil(server.Echo)
		})
	}
}

func (s *ServerPublicTestSuite) TestRegisteredRoutes() {
	cfg := config.Config{Backend: config.Backend{APIKey: "anon-secret-key"}}
	svc := session.New(s.logger, session.Options{Config: cfg})

	server := api.New(cfg, s.logger)
	handlers := make([]func(e *echo.Echo), 0, 3)
	handlers = append(handlers, server.GetHealthHandler(&health.BackendChecker{}, time.Now(), "0.1.0")...)
	handlers = append(handlers, server.GetDiagnosticsHandler(svc)...)
	handlers = append(handlers, server.GetMetricsHandler(http.NotFoundHandler(), "/metrics")...)
	server.RegisterHandlers(handlers)

	tests := []struct {
		name     string
		path     string
		wantCode int
		validate func(body []byte)
	}{
		{
			name:     "when health requested",
			path:     "/health",
			wantCode: http.StatusOK,
		},
		{
			name:     "when diagnostics requested never exposes the key",
			path:     "/diagnostics",
			wantCode: http.StatusOK,
			validate: func(body []byte) {
				s.NotContains(string(body), "anon-secret-key")

				var got session.Diagnostics
				s.Require().NoError(json.Unmarshal(body, &got))
				s.False(got.Config.URLPresent)
				s.True(got.Config.APIKeyPresent)
			},
		},
		{
			name:     "when metrics requested reaches the handler",
			path:     "/metrics",
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := httptest.NewRecorder()
			server.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			s.Equal(tt.wantCode, rec.Code)
			s.NotEmpty(rec.Header().Get(echo.HeaderXRequestID))
			if tt.validate != nil {
				tt.validate(rec.Body.Bytes())
			}
		})
	}
}

func (s *ServerPublicTestSuite) TestStartAndStop() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	cfg := config.Config{
		Diagnostics: config.Diagnostics{
			Server: config.DiagnosticsServer{Port: port},
		},
	}

	server := api.New(cfg, s.logger)
	server.RegisterHandlers(server.GetHealthHandler(nil, time.Now(), "0.1.0"))
	server.Start()

	s.Eventually(func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server.Stop(ctx)
}

func (s *ServerPublicTestSuite) TestStartErrorPath() {
	ln, err := net.Listen("tcp", ":0")
	s.Require().NoError(err)
	defer func() { _ = ln.Close() }()

	cfg := config.Config{
		Diagnostics: config.Diagnostics{
			Server: config.DiagnosticsServer{Port: ln.Addr().(*net.TCPAddr).Port},
		},
	}

	server := api.New(cfg, s.logger)
	server.Start()

	time.Sleep(100 * time.Millisecond)
}

func TestServerPublicTestSuite(t *testing.T) {
	suite.Run(t, new(ServerPublicTestSuite))
}
