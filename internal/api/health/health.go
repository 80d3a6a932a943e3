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

// Package health provides health check API handlers.
package health

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	checker Checker,
	startTime time.Time,
	version string,
) *Health {
	return &Health{
		Checker:   checker,
		StartTime: startTime,
		Version:   version,
		logger:    logger,
	}
}

// RegisterHandler returns a function that registers the health routes.
func (h *Health) RegisterHandler() func(e *echo.Echo) {
	return func(e *echo.Echo) {
		e.GET("/health", h.GetHealth)
		e.GET("/health/ready", h.GetHealthReady)
		e.GET("/health/status", h.GetHealthStatus)
	}
}

// GetHealth is the liveness probe.
func (h *Health) GetHealth(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, Response{Status: "ok"})
}

// GetHealthReady reports whether the client session can serve requests.
func (h *Health) GetHealthReady(
	c echo.Context,
) error {
	if h.Checker != nil {
		if err := h.Checker.CheckHealth(c.Request().Context()); err != nil {
			h.logger.Debug("readiness check failed", slog.String("error", err.Error()))
			return c.JSON(http.StatusServiceUnavailable, Response{
				Status: "not_ready",
				Error:  err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, Response{Status: "ready"})
}

// GetHealthStatus returns the version and uptime.
func (h *Health) GetHealthStatus(
	c echo.Context,
) error {
	status := "ok"
	resp := Response{
		Version: h.Version,
		Uptime:  time.Since(h.StartTime).Round(time.Second).String(),
	}
	if h.Checker != nil {
		if err := h.Checker.CheckHealth(c.Request().Context()); err != nil {
			status = "degraded"
			resp.Error = err.Error()
		}
	}
	resp.Status = status

	return c.JSON(http.StatusOK, resp)
}
