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

// Package diagnostics serves the client session's diagnostics snapshot.
package diagnostics

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retr0h/tether/internal/probe"
	"github.com/retr0h/tether/internal/session"
)

// Provider is the read-only surface of the client session.
type Provider = session.DiagnosticsProvider

// ProbeResponse is returned by POST /diagnostics/probe.
type ProbeResponse struct {
	Probed  bool           `json:"probed"`
	Outcome *probe.Outcome `json:"outcome,omitempty"`
}

// Diagnostics implementation of the diagnostics endpoints.
type Diagnostics struct {
	provider Provider
	logger   *slog.Logger
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	provider Provider,
) *Diagnostics {
	return &Diagnostics{
		provider: provider,
		logger:   logger,
	}
}

// RegisterHandler returns a function that registers the routes.
func (d *Diagnostics) RegisterHandler() func(e *echo.Echo) {
	return func(e *echo.Echo) {
		e.GET("/diagnostics", d.GetDiagnostics)
		e.GET("/diagnostics/events", d.GetEvents)
		e.POST("/diagnostics/probe", d.PostProbe)
	}
}

// GetDiagnostics returns the full snapshot.
func (d *Diagnostics) GetDiagnostics(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, d.provider.Diagnostics())
}

// GetEvents returns only the retained network events.
func (d *Diagnostics) GetEvents(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, d.provider.Diagnostics().Events)
}

// PostProbe runs a connectivity probe unless one ran recently.
func (d *Diagnostics) PostProbe(
	c echo.Context,
) error {
	reason := c.QueryParam("reason")
	if reason == "" {
		reason = "manual"
	}

	probed := d.provider.Probe(c.Request().Context(), reason)
	d.logger.Debug("probe requested", slog.String("reason", reason), slog.Bool("probed", probed))

	return c.JSON(http.StatusOK, ProbeResponse{
		Probed:  probed,
		Outcome: d.provider.Diagnostics().Probe,
	})
}
