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

package diag

import (
	"time"

	masker "github.com/ggwhite/go-masker/v2"

	"github.com/retr0h/tether/internal/config"
)

// ConfigStatus describes the backend configuration without exposing the
// credential itself.
type ConfigStatus struct {
	Environment   string `json:"environment"`
	URL           string `json:"url"`
	URLPresent    bool   `json:"url_present"`
	APIKey        string `json:"api_key"         mask:"password"`
	APIKeyPresent bool   `json:"api_key_present"`
}

// Snapshot is the diagnostics accessor payload.
type Snapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Config      ConfigStatus `json:"config"`
	Stats       Stats        `json:"stats"`
	Events      []NetEvent   `json:"events"`
}

// NewConfigStatus builds a masked ConfigStatus from cfg.
func NewConfigStatus(
	cfg config.Config,
) ConfigStatus {
	presence := cfg.Backend.Presence()
	status := ConfigStatus{
		Environment:   config.EnvRelease,
		URL:           cfg.Backend.URL,
		URLPresent:    presence.URL,
		APIKey:        cfg.Backend.APIKey,
		APIKeyPresent: presence.APIKey,
	}
	if !cfg.IsRelease() {
		status.Environment = config.EnvDevelopment
	}

	return maskStatus(status)
}

func maskStatus(
	status ConfigStatus,
) ConfigStatus {
	if status.APIKey == "" {
		return status
	}

	masked, err := masker.NewMaskerMarshaler().Struct(&status)
	if err == nil {
		if m, ok := masked.(*ConfigStatus); ok && m.APIKey != status.APIKey {
			return *m
		}
	}

	status.APIKey = "********"

	return status
}

// Snapshot returns the retained events together with the configuration
// presence status.
func (r *Recorder) Snapshot(
	cfg config.Config,
) Snapshot {
	return Snapshot{
		GeneratedAt: r.now(),
		Config:      NewConfigStatus(cfg),
		Stats:       r.Stats(),
		Events:      r.Events(),
	}
}
