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

package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type requestKey struct{}

// Request identifies one backend exchange for log correlation.
type Request struct {
	// ID is the value sent in the X-Request-Id header.
	ID string
	// Via names the client that issued the request (e.g., "auth", "data").
	Via string
}

// WithRequest returns a copy of ctx carrying r.
func WithRequest(
	ctx context.Context,
	r Request,
) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the exchange attached to ctx, if any.
func RequestFromContext(
	ctx context.Context,
) (Request, bool) {
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

// contextHandler stamps records with the span and backend exchange found
// in the record's context.
type contextHandler struct {
	inner slog.Handler
}

// NewTraceHandler wraps inner so that records logged with a context gain
// trace_id and span_id from the active span, and request_id and via from
// the exchange set by WithRequest.
func NewTraceHandler(
	inner slog.Handler,
) slog.Handler {
	return &contextHandler{inner: inner}
}

func (h *contextHandler) Enabled(
	ctx context.Context,
	level slog.Level,
) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(
	ctx context.Context,
	record slog.Record,
) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if r, ok := RequestFromContext(ctx); ok {
		if r.ID != "" {
			record.AddAttrs(slog.String("request_id", r.ID))
		}
		if r.Via != "" {
			record.AddAttrs(slog.String("via", r.Via))
		}
	}

	return h.inner.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(
	attrs []slog.Attr,
) slog.Handler {
	return &contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(
	name string,
) slog.Handler {
	return &contextHandler{inner: h.inner.WithGroup(name)}
}
