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

package config

import "time"

const (
	// EnvDevelopment selects the development budgets.
	EnvDevelopment = "development"
	// EnvRelease selects the release budgets.
	EnvRelease = "release"

	// CredentialResolveTimeout bounds the fallback session lookup.
	CredentialResolveTimeout = 1200 * time.Millisecond
	// DefaultRefreshTimeout bounds a single refresh attempt.
	DefaultRefreshTimeout = 8 * time.Second
	// DefaultAutoRefreshInterval is the foreground auto-refresh tick.
	DefaultAutoRefreshInterval = 30 * time.Second
)

// Budgets holds the resolved time budgets for the current environment.
type Budgets struct {
	// Transport bounds every HTTP exchange, including body headers.
	Transport time.Duration
	// RPC bounds a remote procedure call end to end. Always tighter
	// than Transport so that the RPC wrapper fires first.
	RPC time.Duration
	// Storage bounds local storage reads and writes.
	Storage time.Duration
	// CredentialResolve bounds the fallback session lookup.
	CredentialResolve time.Duration
	// Refresh bounds a single session refresh.
	Refresh time.Duration
}

var environmentBudgets = map[string]Budgets{
	EnvDevelopment: {
		Transport:         10 * time.Second,
		RPC:               8 * time.Second,
		Storage:           1500 * time.Millisecond,
		CredentialResolve: CredentialResolveTimeout,
		Refresh:           DefaultRefreshTimeout,
	},
	EnvRelease: {
		Transport:         20 * time.Second,
		RPC:               15 * time.Second,
		Storage:           2500 * time.Millisecond,
		CredentialResolve: CredentialResolveTimeout,
		Refresh:           DefaultRefreshTimeout,
	},
}

// IsRelease reports whether the release budgets apply. Anything other
// than an explicit "development" is treated as release.
func (c Config) IsRelease() bool {
	return c.Environment != EnvDevelopment
}

// Budgets returns the environment budgets with any configured overrides
// applied.
func (c Config) Budgets() Budgets {
	env := EnvRelease
	if !c.IsRelease() {
		env = EnvDevelopment
	}

	b := environmentBudgets[env]

	if c.Timeouts.Transport > 0 {
		b.Transport = c.Timeouts.Transport
	}
	if c.Timeouts.RPC > 0 {
		b.RPC = c.Timeouts.RPC
	}
	if c.Timeouts.Storage > 0 {
		b.Storage = c.Timeouts.Storage
	}
	if c.Timeouts.Refresh > 0 {
		b.Refresh = c.Timeouts.Refresh
	}

	// A lowered Transport pulls the default RPC budget down with it,
	// keeping the environment's ratio.
	if b.RPC >= b.Transport {
		def := environmentBudgets[env]
		b.RPC = time.Duration(float64(b.Transport) * float64(def.RPC) / float64(def.Transport))
	}

	return b
}

// Presence reports which backend settings are configured.
type Presence struct {
	URL    bool `json:"url"`
	APIKey bool `json:"api_key"`
}

// Complete reports whether both backend settings are present.
func (p Presence) Complete() bool {
	return p.URL && p.APIKey
}

// Presence returns the presence status of the backend settings.
func (b Backend) Presence() Presence {
	return Presence{
		URL:    b.URL != "",
		APIKey: b.APIKey != "",
	}
}
