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

package cmd

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/retr0h/tether/internal/api"
	"github.com/retr0h/tether/internal/api/diagnostics"
	"github.com/retr0h/tether/internal/api/health"
	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/session"
	"github.com/retr0h/tether/internal/telemetry"
)

// ServerManager responsible for Server operations.
type ServerManager interface {
	cli.Lifecycle
	// GetHealthHandler returns health handler for registration.
	GetHealthHandler(
		checker health.Checker,
		startTime time.Time,
		version string,
	) []func(e *echo.Echo)
	// GetDiagnosticsHandler returns diagnostics handler for registration.
	GetDiagnosticsHandler(provider diagnostics.Provider) []func(e *echo.Echo)
	// GetMetricsHandler returns Prometheus metrics handler for registration.
	GetMetricsHandler(metricsHandler http.Handler, path string) []func(e *echo.Echo)
	// RegisterHandlers registers a list of handlers with the Echo instance.
	RegisterHandlers(handlers []func(e *echo.Echo))
}

// clientDiagServeCmd represents the clientDiagServe command.
var clientDiagServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve diagnostics over HTTP",
	Long: `Serve health, diagnostics and Prometheus metrics endpoints for the
running session. The session keeps itself fresh while serving.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		metricsHandler, metricsPath, meterShutdown, err := telemetry.InitMeter(
			ctx,
			telemetryService(),
			appConfig.Telemetry.Metrics,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize metrics", err)
		}

		release := svc.AcquireAutoRefresh()

		var sm ServerManager = api.New(appConfig, logger)
		registerDiagHandlers(sm, svc, metricsHandler, metricsPath)

		sm.Start()
		cli.RunServer(
			ctx,
			logger,
			sm,
			appConfig.Diagnostics.Server.ShutdownTimeout,
			cli.Release(release),
			meterShutdown,
		)
	},
}

func registerDiagHandlers(
	sm ServerManager,
	provider session.DiagnosticsProvider,
	metricsHandler http.Handler,
	metricsPath string,
) {
	checker := &health.BackendChecker{
		ConfigCheck: func() error {
			if !appConfig.Backend.Presence().Complete() {
				return errors.New("backend url or api key missing")
			}

			return nil
		},
		ReachabilityCheck: func() error {
			if out := provider.Diagnostics().Probe; out != nil && !out.Reachable() {
				return errors.New("backend unreachable: " + out.SyntheticCode)
			}

			return nil
		},
	}

	handlers := make([]func(e *echo.Echo), 0, 5)
	handlers = append(handlers, sm.GetHealthHandler(checker, time.Now(), buildVersion().GitVersion)...)
	handlers = append(handlers, sm.GetDiagnosticsHandler(provider)...)
	handlers = append(handlers, sm.GetMetricsHandler(metricsHandler, metricsPath)...)
	sm.RegisterHandlers(handlers)
}

func init() {
	clientDiagCmd.AddCommand(clientDiagServeCmd)

	clientDiagServeCmd.PersistentFlags().
		IntP("port", "p", 8090, "Port the diagnostics server will bind to")

	_ = viper.BindPFlag(
		"diagnostics.server.port",
		clientDiagServeCmd.PersistentFlags().Lookup("port"),
	)
}
