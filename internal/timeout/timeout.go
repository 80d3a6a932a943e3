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

// Package timeout races an operation against a time budget.
//
// The operation receives a context that is cancelled when the budget
// expires, so cooperative work stops early. Work that ignores its
// context is abandoned: its eventual result is dropped and, when a
// Discard hook is supplied, handed to that hook for cleanup.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned when the budget elapses before the operation
// completes.
var ErrTimeout = errors.New("operation timed out")

// Error carries the budget that was exceeded. It matches ErrTimeout
// with errors.Is.
type Error struct {
	Budget time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s after %s", ErrTimeout, e.Budget)
}

// Is reports whether target is ErrTimeout.
func (e *Error) Is(
	target error,
) bool {
	return target == ErrTimeout
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn under budget. A non-positive budget runs fn without a
// deadline.
func Do[T any](
	ctx context.Context,
	budget time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	return DoWithDiscard(ctx, budget, fn, nil)
}

// DoWithDiscard is Do with a hook that receives results arriving after
// the caller has been released. The hook runs on the worker goroutine.
func DoWithDiscard[T any](
	ctx context.Context,
	budget time.Duration,
	fn func(ctx context.Context) (T, error),
	discard func(T, error),
) (T, error) {
	if budget <= 0 {
		return fn(ctx)
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	var (
		mu        sync.Mutex
		abandoned bool
	)
	done := make(chan result[T], 1)

	go func() {
		val, err := fn(opCtx)

		mu.Lock()
		if abandoned {
			mu.Unlock()
			if discard != nil {
				discard(val, err)
			}
			return
		}
		done <- result[T]{val: val, err: err}
		mu.Unlock()
	}()

	// abandon releases the caller unless the worker already delivered.
	abandon := func() (result[T], bool) {
		mu.Lock()
		defer mu.Unlock()

		select {
		case r := <-done:
			return r, true
		default:
		}
		abandoned = true

		return result[T]{}, false
	}

	var zero T

	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		if r, ok := abandon(); ok {
			return r.val, r.err
		}
		return zero, &Error{Budget: budget}
	case <-ctx.Done():
		if r, ok := abandon(); ok {
			return r.val, r.err
		}
		return zero, ctx.Err()
	}
}
