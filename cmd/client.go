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
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/lifecycle"
	"github.com/retr0h/tether/internal/session"
	"github.com/retr0h/tether/internal/telemetry"
)

var (
	svc            *session.Service
	appState       *lifecycle.Notifier
	tracerShutdown func(context.Context) error
)

// clientCmd represents the client command.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "The client subcommand",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		var err error
		tracerShutdown, err = telemetry.InitTracer(
			cmd.Context(),
			telemetryService(),
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize tracer", err)
		}

		logger.Debug(
			"client configuration",
			slog.String("config_file", viper.ConfigFileUsed()),
			slog.Bool("debug", appConfig.Debug),
			slog.String("environment", appConfig.Environment),
			slog.String("backend.url", appConfig.Backend.URL),
			slog.Bool("realtime.enabled", appConfig.Realtime.Enabled),
		)

		appState = lifecycle.NewNotifier()
		svc = session.New(logger, session.Options{
			Config:   appConfig,
			Fs:       appFs,
			AppState: appState,
		})

		if err := svc.Start(cmd.Context()); err != nil {
			cli.LogFatal(logger, "failed to start session", err)
		}
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if svc != nil {
			svc.Close()
		}
		if tracerShutdown != nil {
			_ = tracerShutdown(context.Background())
		}
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.PersistentFlags().
		StringP("url", "u", "", "Backend base URL")
	clientCmd.PersistentFlags().
		StringP("session-dir", "", "", "Directory holding the persisted session")

	_ = viper.BindPFlag("backend.url", clientCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("session.dir", clientCmd.PersistentFlags().Lookup("session-dir"))
}

func telemetryService() telemetry.Service {
	return telemetry.Service{
		Name:        "tether-cli",
		Version:     buildVersion().GitVersion,
		Environment: appConfig.Environment,
	}
}
