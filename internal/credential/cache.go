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

// Package credential caches the current access token for the data path.
package credential

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/timeout"
)

// AuthSink receives the token whenever it changes. An empty token means
// anonymous.
type AuthSink interface {
	SetAuth(token string)
}

// SessionSource is the fallback used when the cache is empty.
type SessionSource interface {
	GetSession(ctx context.Context) (*auth.Session, error)
}

// Cache holds the most recent access token. Writes are last-write-wins.
// Safe for concurrent use.
type Cache struct {
	logger *slog.Logger
	source SessionSource
	budget time.Duration

	mu    sync.RWMutex
	token string
	set   bool
	sinks []AuthSink
}

// New factory to create a new instance. source may be nil, in which case
// Resolve only consults the cache.
func New(
	logger *slog.Logger,
	source SessionSource,
	budget time.Duration,
) *Cache {
	return &Cache{
		logger: logger,
		source: source,
		budget: budget,
	}
}

// AddSink registers a receiver for token changes. The current token, if
// any, is applied immediately.
func (c *Cache) AddSink(
	sink AuthSink,
) {
	c.mu.Lock()
	c.sinks = append(c.sinks, sink)
	token, set := c.token, c.set
	c.mu.Unlock()

	if set {
		sink.SetAuth(token)
	}
}

// Get returns the cached token, if any.
func (c *Cache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token, c.set && c.token != ""
}

// Set replaces the cached token. An empty token clears it. Sinks are
// notified only when the value changes.
func (c *Cache) Set(
	token string,
) {
	c.mu.Lock()
	changed := !c.set || c.token != token
	c.token = token
	c.set = true
	sinks := append([]AuthSink(nil), c.sinks...)
	c.mu.Unlock()

	if !changed {
		return
	}

	for _, sink := range sinks {
		sink.SetAuth(token)
	}
}

// Resolve returns the cached token or, when empty, asks the session
// source under a short budget and caches what it finds. It returns false
// when no token is available in time.
func (c *Cache) Resolve(
	ctx context.Context,
) (string, bool) {
	if token, ok := c.Get(); ok {
		return token, true
	}
	if c.source == nil {
		return "", false
	}

	sess, err := timeout.Do(ctx, c.budget, c.source.GetSession)
	if err != nil {
		c.logger.Debug(
			"credential fallback failed",
			slog.String("error", err.Error()),
		)
		return "", false
	}
	if sess == nil || sess.AccessToken == "" {
		return "", false
	}

	// A concurrent Set wins over the fallback.
	c.mu.Lock()
	if c.set && c.token != "" {
		token := c.token
		c.mu.Unlock()
		return token, true
	}
	c.mu.Unlock()

	c.Set(sess.AccessToken)

	return sess.AccessToken, true
}
