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

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/retr0h/tether/internal/storage"
	"github.com/retr0h/tether/internal/timeout"
	"github.com/retr0h/tether/internal/transport"
)

// SessionKey is the storage key of the persisted session.
const SessionKey = "session"

// Options configures a Client.
type Options struct {
	BaseURL string
	// HTTPClient must use the timeout-bounded transport.
	HTTPClient *http.Client
	// Store persists the session. Expected to be time-boxed.
	Store storage.Store
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Client is the auth-capable backend client. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	store   storage.Store
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	session *Session
	loaded  bool

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	opts Options,
) *Client {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		store:     opts.Store,
		logger:    logger,
		now:       opts.Clock,
		listeners: make(map[int]Listener),
	}
}

// OnAuthStateChange registers l and returns a function that removes it.
func (c *Client) OnAuthStateChange(
	l Listener,
) func() {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Client) emit(
	event Event,
	session *Session,
) {
	c.listenersMu.RLock()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.listenersMu.RUnlock()

	for _, l := range ls {
		l(event, session)
	}
}

// GetSession returns the current session, loading the persisted copy on
// first use. It returns nil and no error when signed out.
func (c *Client) GetSession(
	ctx context.Context,
) (*Session, error) {
	c.mu.RLock()
	if c.loaded {
		s := c.session
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	stored, settled := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A sign-in or refresh may have landed while the store was read.
	if c.loaded {
		return c.session, nil
	}
	// A timed-out read yields no session now; the next call reads again.
	if !settled {
		return nil, nil
	}

	c.session = stored
	c.loaded = true

	return c.session, nil
}

// load reads the persisted session. settled is false when the read timed
// out and the result says nothing about what is stored.
func (c *Client) load(
	ctx context.Context,
) (stored *Session, settled bool) {
	if c.store == nil {
		return nil, true
	}

	data, err := c.store.Get(ctx, SessionKey)
	switch {
	case errors.Is(err, timeout.ErrTimeout):
		return nil, false
	case errors.Is(err, storage.ErrNotFound):
		return nil, true
	case err != nil:
		c.logger.Warn(
			"failed to load session",
			slog.String("error", err.Error()),
		)
		return nil, true
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.AccessToken == "" {
		c.logger.Warn("discarding unreadable session")
		return nil, true
	}

	return &s, true
}

func (c *Client) setSession(
	ctx context.Context,
	s *Session,
) {
	c.mu.Lock()
	c.session = s
	c.loaded = true
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	if s == nil {
		if err := c.store.Remove(ctx, SessionKey); err != nil {
			c.logger.Warn("failed to remove session", slog.String("error", err.Error()))
		}
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, SessionKey, data); err != nil {
		c.logger.Warn("failed to persist session", slog.String("error", err.Error()))
	}
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(
	ctx context.Context,
	email string,
	password string,
) (*Session, error) {
	s, err := c.token(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	c.setSession(ctx, s)
	c.emit(EventSignedIn, s)

	return s, nil
}

// RefreshSession exchanges the refresh token for a new session. A
// refresh token the backend rejects ends the session; synthetic
// failures leave it in place.
func (c *Client) RefreshSession(
	ctx context.Context,
) (*Session, error) {
	current, _ := c.GetSession(ctx)
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}

	s, err := c.token(ctx, "refresh_token", map[string]string{
		"refresh_token": current.RefreshToken,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && rejectsRefreshToken(apiErr.Status) {
			c.setSession(ctx, nil)
			c.emit(EventSignedOut, nil)
		}
		return nil, err
	}

	c.setSession(ctx, s)
	c.emit(EventTokenRefreshed, s)

	return s, nil
}

func rejectsRefreshToken(
	status int,
) bool {
	return status == http.StatusBadRequest ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden
}

// SignOut revokes the session on the backend and always clears it
// locally. The backend error, if any, is returned.
func (c *Client) SignOut(
	ctx context.Context,
) error {
	current, _ := c.GetSession(ctx)

	var err error
	if current != nil {
		var resp *http.Response
		resp, err = c.do(ctx, http.MethodPost, "/auth/v1/logout", current.AccessToken, nil)
		if err == nil {
			err = decodeError(resp)
		}
	}

	c.setSession(ctx, nil)
	c.emit(EventSignedOut, nil)

	return err
}

// GetUser fetches the user behind the current access token.
func (c *Client) GetUser(
	ctx context.Context,
) (*User, error) {
	current, _ := c.GetSession(ctx)
	if current == nil {
		return nil, ErrNoSession
	}

	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", current.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	if err := decodeError(resp); err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return &u, nil
}

func (c *Client) token(
	ctx context.Context,
	grant string,
	body map[string]string,
) (*Session, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type="+grant, "", body)
	if err != nil {
		return nil, err
	}
	if err := decodeError(resp); err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, &APIError{Status: resp.StatusCode, Code: "invalid_session", Message: "no access token in response"}
	}
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}

	return &s, nil
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	bearer string,
	body any,
) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.http.Do(req)
}

// authErrorBody covers the error shapes the auth endpoints return,
// including the transport's synthetic body.
type authErrorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
}

// decodeError returns nil for 2xx responses. Otherwise it consumes and
// closes the body and returns an *APIError.
func decodeError(
	resp *http.Response,
) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	var body authErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	apiErr := &APIError{Status: resp.StatusCode}
	if code := transport.SyntheticCode(resp); code != "" {
		apiErr.Code = code
	}

	for _, code := range []string{apiErr.Code, body.ErrorCode, body.Error, stringCode(body.Code)} {
		if code != "" {
			apiErr.Code = code
			break
		}
	}
	if apiErr.Code == "" {
		apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	}

	for _, msg := range []string{body.ErrorDescription, body.Message, body.Msg} {
		if msg != "" {
			apiErr.Message = msg
			break
		}
	}

	return apiErr
}

func stringCode(
	v any,
) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return fmt.Sprintf("%d", int(c))
	default:
		return ""
	}
}
