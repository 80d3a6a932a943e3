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

// Package transport provides the timeout-bounded HTTP transport shared
// by every backend client.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/telemetry"
	"github.com/retr0h/tether/internal/timeout"
)

const (
	// SyntheticHeader names the synthetic code on responses that never
	// reached the backend.
	SyntheticHeader = "X-Tether-Synthetic"
	// APIKeyHeader carries the public API key.
	APIKeyHeader = "apikey"
	// RequestIDHeader carries a per-request identifier.
	RequestIDHeader = "X-Request-Id"

	tracerName = "github.com/retr0h/tether/internal/transport"
)

// ErrBodyTimeout is returned by response body reads that outlive what is
// left of the exchange budget.
var ErrBodyTimeout = fmt.Errorf("reading response body: %w", timeout.ErrTimeout)

// Observer receives one event per completed exchange, real or synthetic.
type Observer interface {
	Observe(ctx context.Context, ev diag.NetEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev diag.NetEvent)

// Observe calls f.
func (f ObserverFunc) Observe(
	ctx context.Context,
	ev diag.NetEvent,
) {
	f(ctx, ev)
}

// ErrorBody is the error document returned by the backend and by
// synthetic responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Options configures a Transport.
type Options struct {
	// BaseURL and APIKey must both be set, otherwise every request
	// short-circuits with missing_config.
	BaseURL string
	APIKey  string
	// Timeout bounds each exchange, body reads included.
	Timeout time.Duration
	// Via tags recorded events (e.g., "auth", "data").
	Via string
	// Observer is notified of every completion. Optional.
	Observer Observer
	// Base is the underlying RoundTripper. Defaults to
	// http.DefaultTransport.
	Base http.RoundTripper
}

// Transport is an http.RoundTripper that never returns an error. Missing
// configuration, timeouts and network failures are converted into
// synthetic responses with status 0 and a JSON ErrorBody.
type Transport struct {
	base     http.RoundTripper
	baseURL  string
	apiKey   string
	timeout  time.Duration
	via      string
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	opts Options,
) *Transport {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{
		base:     base,
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		timeout:  opts.Timeout,
		via:      opts.Via,
		observer: opts.Observer,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Client returns an http.Client using this transport.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// RoundTrip implements the http.RoundTripper interface.
func (t *Transport) RoundTrip(
	req *http.Request,
) (*http.Response, error) {
	start := t.now()

	if t.baseURL == "" || t.apiKey == "" {
		resp := Synthetic(req, diag.CodeMissingConfig, "backend url or api key is not configured")
		t.observe(req.Context(), req, resp, start)
		return resp, nil
	}

	ctx, span := t.tracer.Start(
		req.Context(),
		"HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		),
	)
	defer span.End()

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("http.request.id", requestID))
	ctx = telemetry.WithRequest(ctx, telemetry.Request{ID: requestID, Via: t.via})

	reqCtx, cancel := context.WithCancel(ctx)
	out := req.Clone(reqCtx)
	if out.Header.Get(APIKeyHeader) == "" {
		out.Header.Set(APIKeyHeader, t.apiKey)
	}
	out.Header.Set(RequestIDHeader, requestID)
	telemetry.InjectTraceContextToHeader(reqCtx, out.Header)

	resp, err := timeout.DoWithDiscard(
		ctx,
		t.timeout,
		func(_ context.Context) (*http.Response, error) {
			return t.base.RoundTrip(out)
		},
		discardLate,
	)
	duration := t.now().Sub(start)

	if err != nil {
		cancel()

		code := diag.CodeNetworkError
		if errors.Is(err, timeout.ErrTimeout) {
			code = diag.CodeNetworkTimeout
		}

		t.logger.DebugContext(ctx, "http request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("code", code),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, code)

		synth := Synthetic(req, code, err.Error())
		t.observe(ctx, req, synth, start)

		return synth, nil
	}

	resp.Body = newBoundedBody(resp.Body, t.timeout, duration, cancel)

	t.logger.DebugContext(ctx, "http response",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	t.observe(ctx, req, resp, start)

	return resp, nil
}

func (t *Transport) observe(
	ctx context.Context,
	req *http.Request,
	resp *http.Response,
	start time.Time,
) {
	if t.observer == nil {
		return
	}

	now := t.now()
	t.observer.Observe(ctx, diag.NetEvent{
		Timestamp:     now,
		Method:        req.Method,
		Path:          req.URL.Path,
		Status:        resp.StatusCode,
		DurationMs:    now.Sub(start).Milliseconds(),
		SyntheticCode: SyntheticCode(resp),
		Via:           t.via,
	})
}

// discardLate releases a response that arrived after its caller gave up.
func discardLate(
	resp *http.Response,
	_ error,
) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

// boundedBody ties the request context lifetime to the response body and
// cancels the exchange once the remaining budget runs out.
type boundedBody struct {
	io.ReadCloser
	cancel  context.CancelFunc
	timer   *time.Timer
	expired atomic.Bool
}

func newBoundedBody(
	body io.ReadCloser,
	budget time.Duration,
	elapsed time.Duration,
	cancel context.CancelFunc,
) *boundedBody {
	b := &boundedBody{ReadCloser: body, cancel: cancel}
	if budget <= 0 {
		return b
	}

	remaining := max(budget-elapsed, time.Millisecond)
	b.timer = time.AfterFunc(remaining, func() {
		b.expired.Store(true)
		cancel()
	})

	return b
}

func (b *boundedBody) Read(
	p []byte,
) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && b.expired.Load() {
		return n, ErrBodyTimeout
	}

	return n, err
}

func (b *boundedBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.ReadCloser.Close()
	b.cancel()

	return err
}

// Synthetic builds a status-0 response carrying code and message.
func Synthetic(
	req *http.Request,
	code string,
	message string,
) *http.Response {
	body, _ := json.Marshal(ErrorBody{Code: code, Message: message})

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set(SyntheticHeader, code)

	return &http.Response{
		Status:        code,
		StatusCode:    0,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// SyntheticCode returns the synthetic code of resp, or "" for a real
// backend response.
func SyntheticCode(
	resp *http.Response,
) string {
	if resp == nil {
		return ""
	}

	return resp.Header.Get(SyntheticHeader)
}
