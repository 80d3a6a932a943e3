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
	"strings"

	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/data"
)

// clientTableCmd represents the clientTable command.
var clientTableCmd = &cobra.Command{
	Use:   "table",
	Short: "Table operations",
	Long: `Select, insert, update and delete rows of a backend table.

Filters take the form column=value and may be repeated.
`,
}

// applyFilters adds the --eq, --neq, --gt and --lt filters to q.
func applyFilters(
	cmd *cobra.Command,
	q *data.Query,
) *data.Query {
	ops := []struct {
		flag  string
		apply func(column, value string) *data.Query
	}{
		{"eq", q.Eq},
		{"neq", q.Neq},
		{"gt", q.Gt},
		{"lt", q.Lt},
	}

	for _, op := range ops {
		filters, _ := cmd.Flags().GetStringArray(op.flag)
		for _, f := range filters {
			column, value, ok := strings.Cut(f, "=")
			if !ok {
				cli.LogFatal(logger, "invalid filter", fmt.Errorf("expected column=value, got %q", f))
			}
			op.apply(column, value)
		}
	}

	return q
}

// parseRow decodes a --data argument into a JSON value.
func parseRow(
	raw string,
) json.RawMessage {
	if !json.Valid([]byte(raw)) {
		cli.LogFatal(logger, "invalid --data", fmt.Errorf("not valid JSON: %q", raw))
	}

	return json.RawMessage(raw)
}

// printResult renders res or exits when it failed.
func printResult(
	res data.Result,
) {
	if !res.OK() {
		cli.HandleResultError(res, logger)
		if jsonOutput {
			out, _ := json.Marshal(res)
			fmt.Println(string(out))
		}
		cli.LogFatal(logger, "request failed", nil, "status", res.Status)
	}

	if jsonOutput {
		fmt.Println(string(res.Data))
		return
	}

	cli.DisplayResult(res)
}

func addFilterFlags(
	cmd *cobra.Command,
) {
	cmd.Flags().StringArray("eq", nil, "Filter column=value (equal)")
	cmd.Flags().StringArray("neq", nil, "Filter column=value (not equal)")
	cmd.Flags().StringArray("gt", nil, "Filter column=value (greater than)")
	cmd.Flags().StringArray("lt", nil, "Filter column=value (less than)")
}

func init() {
	clientCmd.AddCommand(clientTableCmd)

	clientTableCmd.PersistentFlags().
		StringP("name", "n", "", "Table name")

	_ = clientTableCmd.MarkPersistentFlagRequired("name")
}
