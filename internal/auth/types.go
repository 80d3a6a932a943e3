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

// Package auth is the auth-capable backend client. It owns the user
// session: sign-in, sign-out, refresh and the persisted copy on disk.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoSession is returned when an operation needs a session and there
// is none.
var ErrNoSession = errors.New("auth: no session")

// User is the authenticated principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the token pair issued by the backend.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	// ExpiresAt is the access token expiry in unix seconds.
	ExpiresAt int64 `json:"expires_at,omitempty"`
	User      User  `json:"user"`
}

// Expiry returns when the access token expires. ExpiresAt wins; without
// it the token's exp claim is read without verifying the signature. The
// zero time means the expiry is unknown.
func (s *Session) Expiry() time.Time {
	if s == nil {
		return time.Time{}
	}
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}

	exp, err := TokenExpiry(s.AccessToken)
	if err != nil {
		return time.Time{}
	}

	return exp
}

// ExpiresWithin reports whether the token expires less than d after now.
// A session with unknown expiry never reports true.
func (s *Session) ExpiresWithin(
	now time.Time,
	d time.Duration,
) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}

	return exp.Sub(now) < d
}

// TokenExpiry reads the exp claim of an access token.
func TokenExpiry(
	token string,
) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}

	return claims.ExpiresAt.Time, nil
}

// APIError is a failed auth call. Status is 0 for synthetic outcomes
// (missing_config, network_timeout, network_error).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth: %s (status %d)", e.Code, e.Status)
	}

	return fmt.Sprintf("auth: %s (status %d): %s", e.Code, e.Status, e.Message)
}

// Synthetic reports whether the request never reached the backend.
func (e *APIError) Synthetic() bool {
	return e.Status == 0
}

// Event is an auth state transition.
type Event string

// Auth state events.
const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener observes auth state transitions. session is nil on sign-out.
type Listener func(event Event, session *Session)
