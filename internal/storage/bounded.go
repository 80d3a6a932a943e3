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

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/timeout"
)

// Breadcrumber receives storage_timeout breadcrumbs.
type Breadcrumber interface {
	Breadcrumb(ctx context.Context, kind diag.Kind, attrs ...slog.Attr)
}

// ensure Bounded implements Store at compile time.
var _ Store = (*Bounded)(nil)

// Bounded wraps a Store so that no call outlives its budget. A read that
// times out reports "nothing stored" for that call only: the error matches
// both ErrNotFound and timeout.ErrTimeout so callers can retry later. A
// write or removal that times out is dropped. Both leave a storage_timeout breadcrumb. Errors other than
// timeouts are passed through unchanged.
type Bounded struct {
	inner  Store
	budget time.Duration
	crumbs Breadcrumber
	logger *slog.Logger
}

// NewBounded creates a new Bounded store. crumbs may be nil.
func NewBounded(
	logger *slog.Logger,
	inner Store,
	budget time.Duration,
	crumbs Breadcrumber,
) *Bounded {
	return &Bounded{
		inner:  inner,
		budget: budget,
		crumbs: crumbs,
		logger: logger,
	}
}

// Get returns an error matching ErrNotFound and timeout.ErrTimeout when
// the read times out.
func (b *Bounded) Get(
	ctx context.Context,
	key string,
) ([]byte, error) {
	data, err := timeout.Do(ctx, b.budget, func(ctx context.Context) ([]byte, error) {
		return b.inner.Get(ctx, key)
	})
	if b.timedOut(ctx, "get", key, err) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return data, err
}

// Set is a no-op when the write times out.
func (b *Bounded) Set(
	ctx context.Context,
	key string,
	value []byte,
) error {
	_, err := timeout.Do(ctx, b.budget, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.inner.Set(ctx, key, value)
	})
	if b.timedOut(ctx, "set", key, err) {
		return nil
	}

	return err
}

// Remove is a no-op when the removal times out.
func (b *Bounded) Remove(
	ctx context.Context,
	key string,
) error {
	_, err := timeout.Do(ctx, b.budget, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.inner.Remove(ctx, key)
	})
	if b.timedOut(ctx, "remove", key, err) {
		return nil
	}

	return err
}

func (b *Bounded) timedOut(
	ctx context.Context,
	op string,
	key string,
	err error,
) bool {
	if !errors.Is(err, timeout.ErrTimeout) {
		return false
	}

	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("key", key),
		slog.Duration("budget", b.budget),
	}
	if b.crumbs != nil {
		b.crumbs.Breadcrumb(ctx, diag.KindStorageTimeout, attrs...)
	} else {
		b.logger.LogAttrs(ctx, slog.LevelDebug, "storage timeout", attrs...)
	}

	return true
}
