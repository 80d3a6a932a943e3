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

// Package session builds the single client session of the process: one
// auth client, one data client, and the cache, guard, probe and
// lifecycle that tie them together.
package session

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/spf13/afero"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/config"
	"github.com/retr0h/tether/internal/credential"
	"github.com/retr0h/tether/internal/data"
	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/freshness"
	"github.com/retr0h/tether/internal/lifecycle"
	"github.com/retr0h/tether/internal/probe"
	"github.com/retr0h/tether/internal/realtime"
	"github.com/retr0h/tether/internal/storage"
	"github.com/retr0h/tether/internal/transport"
)

// ensure Service implements the facade interfaces at compile time.
var (
	_ AuthOperations      = (*Service)(nil)
	_ DataOperations      = (*Service)(nil)
	_ DiagnosticsProvider = (*Service)(nil)
)

// memSessionDir holds the session when no directory is configured.
const memSessionDir = "/session"

// Options configures a Service.
type Options struct {
	Config config.Config
	// Fs holds the persisted session. Defaults to the OS filesystem, or
	// to memory when Config.Session.Dir is empty.
	Fs afero.Fs
	// AppState drives auto-refresh pausing. Optional.
	AppState lifecycle.AppStateSource
	// Base is the RoundTripper under every transport. Optional.
	Base http.RoundTripper
}

// Service is the client session. Construct it once per process.
type Service struct {
	cfg    config.Config
	logger *slog.Logger

	recorder  *diag.Recorder
	auth      *auth.Client
	cache     *credential.Cache
	guard     *freshness.Guard
	prober    *probe.Prober
	data      *data.Client
	realtime  *realtime.Client
	lifecycle *lifecycle.Manager

	unsubscribeAuth func()

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New factory to create a new instance. It performs no I/O.
func New(
	logger *slog.Logger,
	opts Options,
) *Service {
	cfg := opts.Config
	budgets := cfg.Budgets()
	backend := cfg.Backend

	recorder := diag.New(logger, diag.Options{
		Capacity:       cfg.Diagnostics.Capacity,
		ThrottleWindow: cfg.Diagnostics.ThrottleWindow,
		StartupGrace:   cfg.Diagnostics.StartupGrace,
	})

	fs, dir := opts.Fs, cfg.Session.Dir
	if dir == "" {
		fs, dir = afero.NewMemMapFs(), memSessionDir
	} else if fs == nil {
		fs = afero.NewOsFs()
	}
	store := storage.NewBounded(logger, storage.NewFileStore(fs, dir), budgets.Storage, recorder)

	newTransport := func(via string, observer transport.Observer) *transport.Transport {
		return transport.New(logger, transport.Options{
			BaseURL:  backend.URL,
			APIKey:   backend.APIKey,
			Timeout:  budgets.Transport,
			Via:      via,
			Observer: observer,
			Base:     opts.Base,
		})
	}

	authClient := auth.New(logger, auth.Options{
		BaseURL:    backend.URL,
		HTTPClient: newTransport("auth", transport.ObserverFunc(recorder.Record)).Client(),
		Store:      store,
	})

	cache := credential.New(logger, authClient, budgets.CredentialResolve)

	guard := freshness.New(logger, authClient, cache, recorder, freshness.Options{
		RefreshTimeout: budgets.Refresh,
	})

	prober := probe.New(logger, probe.Options{
		BaseURL:    backend.URL,
		HTTPClient: newTransport("probe", nil).Client(),
		Recorder:   recorder,
	})

	dataTransport := newTransport("data", transport.ObserverFunc(
		func(ctx context.Context, ev diag.NetEvent) {
			recorder.Record(ctx, ev)
			guard.Signal(ev.Status)
		},
	))

	s := &Service{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		auth:     authClient,
		cache:    cache,
		guard:    guard,
		prober:   prober,
	}

	dataOpts := data.Options{
		BaseURL:     backend.URL,
		APIKey:      backend.APIKey,
		HTTPClient:  dataTransport.Client(),
		Credentials: cache,
		RPCTimeout:  budgets.RPC,
		Recorder:    recorder,
		Prober:      prober,
	}
	if cfg.Realtime.Enabled {
		s.realtime = realtime.New(logger, realtime.Options{
			URL: "nats://" + net.JoinHostPort(
				cfg.Realtime.Host,
				strconv.Itoa(cfg.Realtime.Port),
			),
			ClientName: cfg.Realtime.ClientName,
			Prefix:     cfg.Realtime.Prefix,
		})
		cache.AddSink(s.realtime)
		dataOpts.Realtime = s.realtime
	}
	s.data = data.New(logger, dataOpts)

	s.lifecycle = lifecycle.New(logger, guard, lifecycle.Options{
		Interval: cfg.Session.AutoRefreshInterval,
		Source:   opts.AppState,
	})

	s.unsubscribeAuth = authClient.OnAuthStateChange(func(event auth.Event, sess *auth.Session) {
		token := ""
		if sess != nil {
			token = sess.AccessToken
		}
		cache.Set(token)
		logger.Debug("auth state changed", slog.String("event", string(event)))
	})

	return s
}

// Start runs the guard loop, seeds the credential cache from the
// persisted session and connects the realtime channel. A realtime
// failure is reported but does not fail Start.
func (s *Service) Start(
	ctx context.Context,
) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.mu.Unlock()

	if presence := s.cfg.Backend.Presence(); !presence.Complete() {
		s.recorder.Report(
			ctx,
			diag.KindMissingConfig,
			"config",
			slog.Bool("url_present", presence.URL),
			slog.Bool("api_key_present", presence.APIKey),
		)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.guard.Run(runCtx)
	}()

	if _, ok := s.cache.Resolve(ctx); ok {
		s.logger.Debug("restored persisted session")
	}

	if s.realtime != nil {
		if err := s.realtime.Connect(ctx); err != nil {
			s.logger.Warn("realtime unavailable", slog.String("error", err.Error()))
		}
	}

	return nil
}

// Close stops background work and releases connections.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	s.unsubscribeAuth()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if s.realtime != nil {
		s.realtime.Close()
	}
}

// AcquireAutoRefresh keeps background session refresh running until the
// returned release is called.
func (s *Service) AcquireAutoRefresh() (release func()) {
	return s.lifecycle.Acquire()
}

// EnsureFresh runs one freshness check now.
func (s *Service) EnsureFresh(
	ctx context.Context,
) freshness.State {
	return s.guard.Check(ctx)
}

// SignInWithPassword implements AuthOperations.
func (s *Service) SignInWithPassword(
	ctx context.Context,
	email string,
	password string,
) (*auth.Session, error) {
	return s.auth.SignInWithPassword(ctx, email, password)
}

// SignOut implements AuthOperations.
func (s *Service) SignOut(
	ctx context.Context,
) error {
	return s.auth.SignOut(ctx)
}

// GetSession implements AuthOperations.
func (s *Service) GetSession(
	ctx context.Context,
) (*auth.Session, error) {
	return s.auth.GetSession(ctx)
}

// RefreshSession implements AuthOperations.
func (s *Service) RefreshSession(
	ctx context.Context,
) (*auth.Session, error) {
	return s.auth.RefreshSession(ctx)
}

// GetUser implements AuthOperations.
func (s *Service) GetUser(
	ctx context.Context,
) (*auth.User, error) {
	return s.auth.GetUser(ctx)
}

// OnAuthStateChange implements AuthOperations.
func (s *Service) OnAuthStateChange(
	l auth.Listener,
) func() {
	return s.auth.OnAuthStateChange(l)
}

// From implements DataOperations.
func (s *Service) From(
	table string,
) *data.Query {
	return s.data.From(table)
}

// Call implements DataOperations.
func (s *Service) Call(
	ctx context.Context,
	name string,
	args any,
) data.Result {
	return s.data.Call(ctx, name, args)
}

// Storage implements DataOperations.
func (s *Service) Storage(
	bucket string,
) *data.Bucket {
	return s.data.Storage(bucket)
}

// Subscribe implements DataOperations.
func (s *Service) Subscribe(
	ctx context.Context,
	topic string,
	handler func(realtime.Message),
) (*realtime.Subscription, error) {
	return s.data.Subscribe(ctx, topic, handler)
}

// Probe implements DiagnosticsProvider.
func (s *Service) Probe(
	ctx context.Context,
	reason string,
) bool {
	return s.prober.Probe(ctx, reason)
}

// Diagnostics implements DiagnosticsProvider.
func (s *Service) Diagnostics() Diagnostics {
	d := Diagnostics{
		Snapshot: s.recorder.Snapshot(s.cfg),
		Refresh:  s.guard.State(),
		Lifecycle: LifecycleStatus{
			Acquisitions: s.lifecycle.Refs(),
			Running:      s.lifecycle.Running(),
		},
		Realtime: s.realtime != nil,
	}
	if out, ok := s.prober.Last(); ok {
		d.Probe = &out
	}

	return d
}
