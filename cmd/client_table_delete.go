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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
)

// clientTableDeleteCmd represents the clientTableDelete command.
var clientTableDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete filtered rows",
	Long: `Delete the rows matching the filters. At least one filter is
required.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		table, _ := cmd.Flags().GetString("name")

		filtered := false
		for _, name := range []string{"eq", "neq", "gt", "lt"} {
			if cmd.Flags().Changed(name) {
				filtered = true
			}
		}
		if !filtered {
			cli.LogFatal(logger, "refusing to delete", fmt.Errorf("no filter given"), "table", table)
		}

		q := svc.From(table).Delete()
		applyFilters(cmd, q)

		printResult(q.Execute(cmd.Context()))
	},
}

func init() {
	clientTableCmd.AddCommand(clientTableDeleteCmd)

	addFilterFlags(clientTableDeleteCmd)
}
