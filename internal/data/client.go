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

// Package data is the data-path client: resource queries, remote
// procedures, object storage and realtime subscriptions. It never
// performs its own session lookup; credentials come from a resolver.
package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/realtime"
	"github.com/retr0h/tether/internal/timeout"
	"github.com/retr0h/tether/internal/transport"
)

const (
	restPrefix    = "/rest/v1/"
	rpcPrefix     = "/rest/v1/rpc/"
	storagePrefix = "/storage/v1/object/"

	singleObjectMediaType = "application/vnd.pgrst.object+json"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// APIKey is sent as the bearer when no session token resolves.
	APIKey string
	// HTTPClient should use a transport.Transport.
	HTTPClient *http.Client
	// Credentials resolves the session token. Optional.
	Credentials CredentialResolver
	// RPCTimeout bounds Call from credential resolution to response.
	RPCTimeout time.Duration
	// Recorder receives one event per RPC completion. Optional.
	Recorder EventRecorder
	// Prober is poked after a client_timeout. Optional.
	Prober Prober
	// Realtime serves Subscribe. Optional.
	Realtime Subscriber
}

// Client is the data-path client. Safe for concurrent use.
type Client struct {
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	http       *http.Client
	creds      CredentialResolver
	rpcTimeout time.Duration
	recorder   EventRecorder
	prober     Prober
	realtime   Subscriber
	now        func() time.Time
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	opts Options,
) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{
		logger:     logger,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		http:       hc,
		creds:      opts.Credentials,
		rpcTimeout: opts.RPCTimeout,
		recorder:   opts.Recorder,
		prober:     opts.Prober,
		realtime:   opts.Realtime,
		now:        time.Now,
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
}

func jsonBody(
	v any,
) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	return b, nil
}

func (c *Client) bearer(
	ctx context.Context,
) string {
	if c.creds != nil {
		if token, ok := c.creds.Resolve(ctx); ok {
			return token
		}
	}

	return c.apiKey
}

// do performs one exchange and folds every outcome into a Result.
func (c *Client) do(
	ctx context.Context,
	r request,
) Result {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return exception(fmt.Errorf("build request: %w", err))
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.body != nil {
		ct := r.contentType
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failure(diag.CodeNetworkError, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if errors.Is(err, timeout.ErrTimeout) {
		return failure(diag.CodeNetworkTimeout, err.Error())
	}
	if err != nil {
		return Result{
			Status: resp.StatusCode,
			Error:  &ResultError{Code: diag.CodeNetworkError, Message: err.Error()},
		}
	}

	if code := transport.SyntheticCode(resp); code != "" {
		return Result{Status: 0, Error: decodeError(payload, code, code)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{
			Status: resp.StatusCode,
			Error:  decodeError(payload, "", http.StatusText(resp.StatusCode)),
		}
	}

	if len(payload) == 0 {
		payload = nil
	}

	return Result{Status: resp.StatusCode, Data: payload}
}

func decodeError(
	payload []byte,
	fallbackCode string,
	fallbackMessage string,
) *ResultError {
	var eb transport.ErrorBody
	_ = json.Unmarshal(payload, &eb)

	re := &ResultError{
		Code:    eb.Code,
		Message: eb.Message,
		Details: eb.Details,
		Hint:    eb.Hint,
	}
	if re.Code == "" {
		re.Code = fallbackCode
	}
	if re.Message == "" {
		re.Message = fallbackMessage
	}

	return re
}

// Subscribe opens a realtime subscription. The session token is
// resolved first so the channel carries the caller's privileges.
func (c *Client) Subscribe(
	ctx context.Context,
	topic string,
	handler func(realtime.Message),
) (*realtime.Subscription, error) {
	if c.realtime == nil {
		return nil, ErrRealtimeDisabled
	}

	if c.creds != nil {
		if _, ok := c.creds.Resolve(ctx); !ok {
			c.logger.Debug("subscribing without a session", slog.String("topic", topic))
		}
	}

	return c.realtime.Subscribe(ctx, topic, handler)
}
