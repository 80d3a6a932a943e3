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

package freshness

import (
	"context"
	"log/slog"
	"time"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/diag"
)

// State is the outcome of a freshness check.
type State string

// Check outcomes.
const (
	// StateOK means the session is valid and no refresh was needed.
	StateOK State = "ok"
	// StateNoSession means there is nothing to refresh.
	StateNoSession State = "no_session"
	// StateRefreshing means a refresh was needed and completed
	// successfully, either by this caller or one it joined.
	StateRefreshing State = "refreshing"
	// StateFailed means the refresh failed, timed out or was refused
	// by the cooldown.
	StateFailed State = "failed"
)

// Authenticator is the slice of the auth client the guard drives.
type Authenticator interface {
	GetSession(ctx context.Context) (*auth.Session, error)
	RefreshSession(ctx context.Context) (*auth.Session, error)
}

// TokenSink receives the access token of a refreshed session.
type TokenSink interface {
	Set(token string)
}

// Reporter escalates refresh failures.
type Reporter interface {
	Report(ctx context.Context, kind diag.Kind, throttleKey string, attrs ...slog.Attr) bool
}

// RefreshState is a snapshot of the guard's bookkeeping.
type RefreshState struct {
	InFlight          bool      `json:"in_flight"`
	LastAttemptAt     time.Time `json:"last_attempt_at"`
	LastAuthFailureAt time.Time `json:"last_auth_failure_at"`
	LastAuthStatus    int       `json:"last_auth_status,omitempty"`
}
