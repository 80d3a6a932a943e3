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
	"time"

	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/diag"
)

// clientDiagCmd represents the clientDiag command.
var clientDiagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Show client diagnostics",
	Long: `Show the configuration status, refresh state and recent network
events. With --export the snapshot is also pushed to the NATS KV bucket
configured under diagnostics.export.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		runProbe, _ := cmd.Flags().GetBool("probe")
		export, _ := cmd.Flags().GetBool("export")

		if runProbe {
			svc.Probe(ctx, "diag")
		}

		d := svc.Diagnostics()

		if export {
			exporter, closeFn := openExporter()
			key, err := exporter.Export(ctx, d.Snapshot)
			closeFn()
			if err != nil {
				cli.LogFatal(logger, "failed to export diagnostics", err)
			}
			logger.Info("exported diagnostics", slog.String("key", key))
		}

		if jsonOutput {
			out, _ := json.Marshal(d)
			fmt.Println(string(out))
			return
		}

		cli.DisplayDiagnostics(d, time.Now())
	},
}

// openExporter binds the diagnostics export bucket or exits.
func openExporter() (*diag.KVExporter, func()) {
	kv, closeFn, err := cli.OpenExportBucket(
		cli.NATSURL(appConfig.Realtime),
		"tether-diag",
		appConfig.Diagnostics.Export,
	)
	if err != nil {
		cli.LogFatal(logger, "failed to open export bucket", err)
	}

	return diag.NewKVExporter(logger, kv), closeFn
}

func init() {
	clientCmd.AddCommand(clientDiagCmd)

	clientDiagCmd.Flags().Bool("probe", false, "Probe the backend before reporting")
	clientDiagCmd.Flags().Bool("export", false, "Push the snapshot to NATS KV")
}
