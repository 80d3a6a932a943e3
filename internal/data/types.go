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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/realtime"
)

// ErrRealtimeDisabled is returned by Subscribe when no realtime channel
// is configured.
var ErrRealtimeDisabled = errors.New("realtime is not enabled")

// ResultError describes a failed operation. Real backend errors and
// synthetic failures share this shape.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Error implements the error interface.
func (e *ResultError) Error() string {
	if e.Code == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the outcome of every data operation. Status is 0 when the
// backend was never reached.
type Result struct {
	Data   []byte       `json:"data,omitempty"`
	Error  *ResultError `json:"error,omitempty"`
	Status int          `json:"status"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Error == nil && r.Status >= 200 && r.Status < 300
}

// SyntheticCode returns the error code of a result that never reached
// the backend, or "".
func (r Result) SyntheticCode() string {
	if r.Status != 0 || r.Error == nil {
		return ""
	}

	return r.Error.Code
}

// Decode unmarshals Data into v.
func (r Result) Decode(
	v any,
) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Data) == 0 {
		return errors.New("empty result")
	}

	return json.Unmarshal(r.Data, v)
}

func failure(
	code string,
	message string,
) Result {
	return Result{Error: &ResultError{Code: code, Message: message}}
}

func exception(
	err error,
) Result {
	return failure(diag.CodeException, err.Error())
}

// CredentialResolver yields the bearer token for a call.
type CredentialResolver interface {
	Resolve(ctx context.Context) (string, bool)
}

// EventRecorder records RPC completions.
type EventRecorder interface {
	Record(ctx context.Context, ev diag.NetEvent)
}

// Prober is triggered after a pre-transport timeout.
type Prober interface {
	Probe(ctx context.Context, reason string) bool
}

// Subscriber opens realtime subscriptions.
type Subscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		handler func(realtime.Message),
	) (*realtime.Subscription, error)
}
