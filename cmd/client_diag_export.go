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
	"github.com/retr0h/tether/internal/session"
)

// clientDiagListCmd represents the clientDiagList command.
var clientDiagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exported snapshots",
	Run: func(cmd *cobra.Command, _ []string) {
		exporter, closeFn := openExporter()
		defer closeFn()

		keys, err := exporter.List(cmd.Context())
		if err != nil {
			cli.LogFatal(logger, "failed to list snapshots", err)
		}

		if jsonOutput {
			out, _ := json.Marshal(keys)
			fmt.Println(string(out))
			return
		}

		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k})
		}
		cli.PrintCompactTable([]cli.Section{{
			Title:   "Snapshots",
			Headers: []string{"KEY"},
			Rows:    rows,
		}})
	},
}

// clientDiagGetCmd represents the clientDiagGet command.
var clientDiagGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show an exported snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exporter, closeFn := openExporter()
		defer closeFn()

		snap, err := exporter.Get(cmd.Context(), args[0])
		if err != nil {
			cli.LogFatal(logger, "failed to get snapshot", err, "key", args[0])
		}

		if jsonOutput {
			out, _ := json.Marshal(snap)
			fmt.Println(string(out))
			return
		}

		cli.DisplayDiagnostics(session.Diagnostics{Snapshot: *snap}, time.Now())
	},
}

func init() {
	clientDiagCmd.AddCommand(clientDiagListCmd)
	clientDiagCmd.AddCommand(clientDiagGetCmd)
}
