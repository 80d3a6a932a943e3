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

package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/timeout"
	"github.com/retr0h/tether/internal/validation"
)

// Call invokes the remote procedure name with args. The whole call,
// including credential resolution, is bounded by the RPC timeout; on
// expiry the result carries client_timeout and a connectivity probe is
// started in the background. Every completion is recorded.
func (c *Client) Call(
	ctx context.Context,
	name string,
	args any,
) Result {
	start := c.now()
	path := rpcPrefix + name

	res := c.call(ctx, name, path, args)

	if c.recorder != nil {
		now := c.now()
		c.recorder.Record(ctx, diag.NetEvent{
			Timestamp:     now,
			Method:        http.MethodPost,
			Path:          path,
			Status:        res.Status,
			DurationMs:    now.Sub(start).Milliseconds(),
			SyntheticCode: res.SyntheticCode(),
			Via:           "rpc",
		})
	}

	if res.SyntheticCode() == diag.CodeClientTimeout && c.prober != nil {
		go c.prober.Probe(context.WithoutCancel(ctx), "client_timeout:"+name)
	}

	return res
}

func (c *Client) call(
	ctx context.Context,
	name string,
	path string,
	args any,
) Result {
	if msg, ok := validation.Var(name, "required,identifier"); !ok {
		return exception(fmt.Errorf("invalid rpc name: %s", msg))
	}

	if args == nil {
		args = map[string]any{}
	}
	body, err := jsonBody(args)
	if err != nil {
		return exception(err)
	}

	res, err := timeout.Do(ctx, c.rpcTimeout, func(ctx context.Context) (Result, error) {
		return c.do(ctx, request{
			method: http.MethodPost,
			path:   path,
			body:   body,
		}), nil
	})
	if err == nil {
		return res
	}

	if errors.Is(err, timeout.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn(
			"rpc timed out before completing",
			slog.String("name", name),
			slog.Duration("budget", c.rpcTimeout),
		)
		return failure(diag.CodeClientTimeout, err.Error())
	}

	return exception(err)
}
