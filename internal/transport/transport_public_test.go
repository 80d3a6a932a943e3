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

package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/telemetry"
	"github.com/retr0h/tether/internal/transport"
)

type eventSink struct {
	mu     sync.Mutex
	events []diag.NetEvent
}

func (e *eventSink) Observe(
	_ context.Context,
	ev diag.NetEvent,
) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events = append(e.events, ev)
}

func (e *eventSink) all() []diag.NetEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]diag.NetEvent(nil), e.events...)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(
	req *http.Request,
) (*http.Response, error) {
	return f(req)
}

type trackingBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackingBody) Close() error {
	b.closed.Store(true)
	return nil
}

type TransportPublicTestSuite struct {
	suite.Suite

	logger *slog.Logger
	sink   *eventSink
}

func (s *TransportPublicTestSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
	s.sink = &eventSink{}
}

func (s *TransportPublicTestSuite) decodeError(
	resp *http.Response,
) transport.ErrorBody {
	defer func() { _ = resp.Body.Close() }()

	var body transport.ErrorBody
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func (s *TransportPublicTestSuite) TestRoundTrip() {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		baseURL    *string
		apiKey     string
		timeout    time.Duration
		wantStatus int
		wantCode   string
	}{
		{
			name: "when backend answers",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("apikey") != "anon" || r.Header.Get("X-Request-Id") == "" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[]`))
			},
			apiKey:     "anon",
			timeout:    time.Second,
			wantStatus: http.StatusOK,
		},
		{
			name: "when backend returns 401 passes it through",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			apiKey:     "anon",
			timeout:    time.Second,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "when backend exceeds the budget",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
				w.WriteHeader(http.StatusOK)
			},
			apiKey:     "anon",
			timeout:    50 * time.Millisecond,
			wantStatus: 0,
			wantCode:   diag.CodeNetworkTimeout,
		},
		{
			name:       "when api key is missing",
			apiKey:     "",
			timeout:    time.Second,
			wantStatus: 0,
			wantCode:   diag.CodeMissingConfig,
		},
		{
			name:       "when url is missing",
			baseURL:    new(string),
			apiKey:     "anon",
			timeout:    time.Second,
			wantStatus: 0,
			wantCode:   diag.CodeMissingConfig,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				if tt.handler != nil {
					tt.handler(w, r)
				}
			}))
			defer srv.Close()

			baseURL := srv.URL
			if tt.baseURL != nil {
				baseURL = *tt.baseURL
			}

			tr := transport.New(s.logger, transport.Options{
				BaseURL:  baseURL,
				APIKey:   tt.apiKey,
				Timeout:  tt.timeout,
				Via:      "data",
				Observer: s.sink,
			})

			req, err := http.NewRequest(http.MethodGet, srv.URL+"/rest/v1/items", nil)
			s.Require().NoError(err)

			resp, err := tr.Client().Do(req)
			s.Require().NoError(err)
			s.Equal(tt.wantStatus, resp.StatusCode)
			s.Equal(tt.wantCode, transport.SyntheticCode(resp))

			if tt.wantCode != "" {
				s.Equal(tt.wantCode, s.decodeError(resp).Code)
			} else {
				_ = resp.Body.Close()
			}

			if tt.wantCode == diag.CodeMissingConfig {
				s.Zero(hits.Load(), "no network request expected")
			}

			events := s.sink.all()
			s.Require().Len(events, 1)
			s.Equal("/rest/v1/items", events[0].Path)
			s.Equal(tt.wantStatus, events[0].Status)
			s.Equal(tt.wantCode, events[0].SyntheticCode)
			s.Equal("data", events[0].Via)
		})
	}
}

func (s *TransportPublicTestSuite) TestNetworkError() {
	tr := transport.New(s.logger, transport.Options{
		BaseURL:  "http://backend.invalid",
		APIKey:   "anon",
		Timeout:  time.Second,
		Observer: s.sink,
		Base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	})

	req, _ := http.NewRequest(http.MethodPost, "http://backend.invalid/rest/v1/rpc/f", nil)
	resp, err := tr.RoundTrip(req)

	s.Require().NoError(err)
	s.Equal(0, resp.StatusCode)
	body := s.decodeError(resp)
	s.Equal(diag.CodeNetworkError, body.Code)
	s.Contains(body.Message, "connection refused")
}

func (s *TransportPublicTestSuite) TestLateResponseIsDiscarded() {
	body := &trackingBody{Reader: strings.NewReader("late")}
	returned := make(chan struct{})

	tr := transport.New(s.logger, transport.Options{
		BaseURL: "http://backend.invalid",
		APIKey:  "anon",
		Timeout: 20 * time.Millisecond,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			defer close(returned)
			time.Sleep(100 * time.Millisecond)
			return &http.Response{StatusCode: http.StatusOK, Body: body, Request: req}, nil
		}),
	})

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/rest/v1/items", nil)
	resp, err := tr.RoundTrip(req)

	s.Require().NoError(err)
	s.Equal(diag.CodeNetworkTimeout, transport.SyntheticCode(resp))

	<-returned
	s.Eventually(body.closed.Load, time.Second, 5*time.Millisecond)
}

func (s *TransportPublicTestSuite) TestCancelsInFlightRequest() {
	cancelled := make(chan struct{})

	tr := transport.New(s.logger, transport.Options{
		BaseURL: "http://backend.invalid",
		APIKey:  "anon",
		Timeout: 20 * time.Millisecond,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			close(cancelled)
			return nil, req.Context().Err()
		}),
	})

	req, _ := http.NewRequest(http.MethodGet, "http://backend.invalid/rest/v1/items", nil)
	resp, err := tr.RoundTrip(req)

	s.Require().NoError(err)
	s.Equal(diag.CodeNetworkTimeout, transport.SyntheticCode(resp))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		s.Fail("request context was not cancelled")
	}
}

func (s *TransportPublicTestSuite) TestBodyReadableAfterReturn() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := transport.New(s.logger, transport.Options{
		BaseURL: srv.URL,
		APIKey:  "anon",
		Timeout: time.Second,
	})

	resp, err := tr.Client().Get(srv.URL + "/auth/v1/health")
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	s.NoError(err)
	s.JSONEq(`{"ok":true}`, string(data))
}

func (s *TransportPublicTestSuite) TestLogsCarryRequestID() {
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(transport.RequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(telemetry.NewTraceHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	tr := transport.New(logger, transport.Options{
		BaseURL: srv.URL,
		APIKey:  "anon",
		Timeout: time.Second,
		Via:     "data",
	})

	resp, err := tr.Client().Get(srv.URL + "/rest/v1/items")
	s.Require().NoError(err)
	_ = resp.Body.Close()

	id := <-seen
	s.NotEmpty(id)
	s.Contains(buf.String(), "request_id="+id)
	s.Contains(buf.String(), "via=data")
}

func (s *TransportPublicTestSuite) TestStalledBodyIsBounded() {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("["))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tr := transport.New(s.logger, transport.Options{
		BaseURL: srv.URL,
		APIKey:  "anon",
		Timeout: 200 * time.Millisecond,
	})

	resp, err := tr.Client().Get(srv.URL + "/rest/v1/items")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	defer func() { _ = resp.Body.Close() }()

	start := time.Now()
	_, err = io.ReadAll(resp.Body)

	s.ErrorIs(err, transport.ErrBodyTimeout)
	s.Less(time.Since(start), time.Second)
}

func TestTransportPublicTestSuite(t *testing.T) {
	suite.Run(t, new(TransportPublicTestSuite))
}
