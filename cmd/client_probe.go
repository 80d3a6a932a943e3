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
	"time"

	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/diag"
)

// clientProbeCmd represents the clientProbe command.
var clientProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the backend is reachable",
	Long: `Issue one connectivity probe against the backend health endpoint
and print the outcome.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		reason, _ := cmd.Flags().GetString("reason")

		svc.Probe(cmd.Context(), reason)
		outcome := svc.Diagnostics().Probe
		if outcome == nil {
			cli.LogFatal(logger, "probe did not run", nil)
		}

		if jsonOutput {
			out, _ := json.Marshal(outcome)
			fmt.Println(string(out))
			return
		}

		reachable := "yes"
		if !outcome.Reachable() {
			reachable = "no"
		}

		fmt.Println()
		cli.PrintKV(
			"Reachable", reachable,
			"Status", cli.FormatStatus(outcome.Status, outcome.SyntheticCode),
			"Duration", (time.Duration(outcome.DurationMs) * time.Millisecond).String(),
		)
		if outcome.SyntheticCode == diag.CodeMissingConfig {
			fmt.Println()
			fmt.Println("  " + cli.DimStyle.Render("Hint: "+cli.MissingConfigHint))
		}
	},
}

func init() {
	clientCmd.AddCommand(clientProbeCmd)

	clientProbeCmd.Flags().String("reason", "manual", "Reason recorded with the probe")
}
