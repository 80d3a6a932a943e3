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

// Package realtime is the push channel of the data client, carried over
// NATS. The access token travels out of band in auth frames so that the
// gateway can authorise subscriptions without a reconnect.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/retr0h/tether/internal/telemetry"
	"github.com/retr0h/tether/internal/validation"
)

// DefaultPrefix is prepended to every realtime subject.
const DefaultPrefix = "realtime"

// ErrNotConnected is returned by Subscribe before Connect succeeds.
var ErrNotConnected = errors.New("realtime: not connected")

// Frame is a control message sent to the gateway.
type Frame struct {
	Topic       string            `json:"topic,omitempty"`
	AccessToken string            `json:"access_token"`
	Trace       map[string]string `json:"trace,omitempty"`
}

// Message is a payload delivered on a topic.
type Message struct {
	Topic string
	Data  []byte
	// Trace carries W3C trace headers sent by the publisher, if any.
	Trace map[string]string
}

// Options configures a Client.
type Options struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string
	// ClientName identifies the connection on the server.
	ClientName string
	// Prefix defaults to DefaultPrefix.
	Prefix string
}

// Client is the realtime channel. Safe for concurrent use.
type Client struct {
	url    string
	name   string
	prefix string
	logger *slog.Logger

	mu    sync.RWMutex
	nc    *nats.Conn
	token string
}

// New factory to create a new instance. No connection is made until
// Connect.
func New(
	logger *slog.Logger,
	opts Options,
) *Client {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	return &Client{
		url:    opts.URL,
		name:   opts.ClientName,
		prefix: opts.Prefix,
		logger: logger,
	}
}

// Connect dials the NATS server and announces the current token.
func (c *Client) Connect(
	ctx context.Context,
) error {
	nc, err := nats.Connect(
		c.url,
		nats.Name(c.name),
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.logger.Debug("realtime reconnected")
			c.publishAuth(context.Background())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Debug("realtime disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connect realtime: %w", err)
	}

	c.mu.Lock()
	c.nc = nc
	c.mu.Unlock()

	c.publishAuth(ctx)

	return nil
}

// SetAuth replaces the token used by the channel and pushes it to the
// gateway when connected. An empty token reverts to anonymous access.
func (c *Client) SetAuth(
	token string,
) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.publishAuth(context.Background())
}

// Token returns the token currently applied to the channel.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

func (c *Client) conn() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.nc
}

func (c *Client) publishAuth(
	ctx context.Context,
) {
	nc := c.conn()
	if nc == nil {
		return
	}

	if err := c.publishFrame(ctx, nc, "auth", Frame{AccessToken: c.Token()}); err != nil {
		c.logger.Warn("failed to push realtime auth", slog.String("error", err.Error()))
	}
}

func (c *Client) publishFrame(
	ctx context.Context,
	nc *nats.Conn,
	kind string,
	frame Frame,
) error {
	frame.Trace = map[string]string{}
	telemetry.InjectTraceContext(ctx, frame.Trace)

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal %s frame: %w", kind, err)
	}

	return nc.Publish(c.prefix+"."+kind, data)
}

// Subscription is an open topic subscription.
type Subscription struct {
	client *Client
	topic  string
	sub    *nats.Subscription
}

// Subscribe joins topic with the current token and delivers its
// messages to handler.
func (c *Client) Subscribe(
	ctx context.Context,
	topic string,
	handler func(Message),
) (*Subscription, error) {
	if msg, ok := validation.Var(topic, "required,identifier"); !ok {
		return nil, fmt.Errorf("invalid topic: %s", msg)
	}

	nc := c.conn()
	if nc == nil {
		return nil, ErrNotConnected
	}

	if err := c.publishFrame(ctx, nc, "join", Frame{Topic: topic, AccessToken: c.Token()}); err != nil {
		return nil, fmt.Errorf("join %s: %w", topic, err)
	}

	sub, err := nc.Subscribe(c.prefix+".topic."+topic, func(m *nats.Msg) {
		handler(Message{Topic: topic, Data: m.Data, Trace: traceHeaders(m.Header)})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return &Subscription{client: c, topic: topic, sub: sub}, nil
}

// Unsubscribe leaves the topic.
func (s *Subscription) Unsubscribe() error {
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", s.topic, err)
	}

	if nc := s.client.conn(); nc != nil {
		_ = s.client.publishFrame(context.Background(), nc, "leave", Frame{Topic: s.topic})
	}

	return nil
}

// Close drains and closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	nc := c.nc
	c.nc = nil
	c.mu.Unlock()

	if nc == nil {
		return
	}
	if err := nc.Drain(); err != nil {
		nc.Close()
	}
}

func traceHeaders(
	h nats.Header,
) map[string]string {
	if len(h) == 0 {
		return nil
	}

	out := map[string]string{}
	for _, key := range []string{"traceparent", "tracestate"} {
		if v := h.Get(key); v != "" {
			out[key] = v
		}
	}

	return out
}
