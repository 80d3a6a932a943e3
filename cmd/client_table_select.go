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
	"github.com/spf13/cobra"
)

// clientTableSelectCmd represents the clientTableSelect command.
var clientTableSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select rows",
	Run: func(cmd *cobra.Command, _ []string) {
		table, _ := cmd.Flags().GetString("name")
		columns, _ := cmd.Flags().GetString("columns")
		order, _ := cmd.Flags().GetString("order")
		desc, _ := cmd.Flags().GetBool("desc")
		limit, _ := cmd.Flags().GetInt("limit")
		single, _ := cmd.Flags().GetBool("single")

		q := svc.From(table).Select(columns)
		applyFilters(cmd, q)
		if order != "" {
			q.Order(order, !desc)
		}
		if limit > 0 {
			q.Limit(limit)
		}
		if single {
			q.Single()
		}

		printResult(q.Execute(cmd.Context()))
	},
}

func init() {
	clientTableCmd.AddCommand(clientTableSelectCmd)

	clientTableSelectCmd.Flags().String("columns", "*", "Columns to return")
	clientTableSelectCmd.Flags().String("order", "", "Column to sort by")
	clientTableSelectCmd.Flags().Bool("desc", false, "Sort descending")
	clientTableSelectCmd.Flags().Int("limit", 0, "Maximum number of rows")
	clientTableSelectCmd.Flags().Bool("single", false, "Expect exactly one row")
	addFilterFlags(clientTableSelectCmd)
}
