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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/lifecycle"
	"github.com/retr0h/tether/internal/realtime"
	"github.com/retr0h/tether/internal/telemetry"
)

// clientWatchCmd represents the clientWatch command.
var clientWatchCmd = &cobra.Command{
	Use:   "watch [topic...]",
	Short: "Keep the session fresh and stream realtime topics",
	Long: `Run in the foreground, refreshing the session on a schedule and
printing messages from the given realtime topics.

Send SIGUSR1 to pause the schedule (background) and SIGUSR2 to resume it
(foreground).
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		lifecycle.WatchSignals(ctx, appState)
		release := svc.AcquireAutoRefresh()
		defer release()

		subs := make([]*realtime.Subscription, 0, len(args))
		for _, topic := range args {
			sub, err := svc.Subscribe(ctx, topic, func(m realtime.Message) {
				logger.DebugContext(
					telemetry.ExtractTraceContext(ctx, m.Trace),
					"realtime message",
					slog.String("topic", m.Topic),
					slog.Int("bytes", len(m.Data)),
				)

				if jsonOutput {
					out, _ := json.Marshal(struct {
						Topic string `json:"topic"`
						Data  string `json:"data"`
					}{m.Topic, string(m.Data)})
					fmt.Println(string(out))
					return
				}
				fmt.Printf("%s  %s  %s\n",
					time.Now().Format(time.TimeOnly),
					cli.DimStyle.Render(m.Topic),
					string(m.Data),
				)
			})
			if err != nil {
				cli.LogFatal(logger, "failed to subscribe", err, "topic", topic)
			}
			subs = append(subs, sub)
		}

		logger.Info(
			"watching",
			slog.Int("topics", len(subs)),
			slog.Int("pid", os.Getpid()),
		)

		<-ctx.Done()

		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil {
				logger.Warn("unsubscribe failed", slog.String("error", err.Error()))
			}
		}
	},
}

func init() {
	clientCmd.AddCommand(clientWatchCmd)
}
