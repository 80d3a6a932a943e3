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

package session

import (
	"context"
	"errors"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/data"
	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/freshness"
	"github.com/retr0h/tether/internal/probe"
	"github.com/retr0h/tether/internal/realtime"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("session already started")

// AuthOperations is the authentication namespace. Calls go to the
// auth-capable client unchanged.
type AuthOperations interface {
	SignInWithPassword(ctx context.Context, email string, password string) (*auth.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*auth.Session, error)
	RefreshSession(ctx context.Context) (*auth.Session, error)
	GetUser(ctx context.Context) (*auth.User, error)
	OnAuthStateChange(l auth.Listener) (unsubscribe func())
}

// DataOperations is everything that is not authentication. Calls go to
// the data client, which takes its credential from the cache.
type DataOperations interface {
	From(table string) *data.Query
	Call(ctx context.Context, name string, args any) data.Result
	Storage(bucket string) *data.Bucket
	Subscribe(
		ctx context.Context,
		topic string,
		handler func(realtime.Message),
	) (*realtime.Subscription, error)
}

// DiagnosticsProvider is the read-only debugging surface.
type DiagnosticsProvider interface {
	Diagnostics() Diagnostics
	Probe(ctx context.Context, reason string) bool
}

// LifecycleStatus describes the auto-refresh schedule.
type LifecycleStatus struct {
	Acquisitions int  `json:"acquisitions"`
	Running      bool `json:"running"`
}

// Diagnostics is the full debugging payload. It never carries the API
// key or any token.
type Diagnostics struct {
	diag.Snapshot
	Refresh   freshness.RefreshState `json:"refresh"`
	Probe     *probe.Outcome         `json:"probe,omitempty"`
	Lifecycle LifecycleStatus        `json:"lifecycle"`
	Realtime  bool                   `json:"realtime"`
}
