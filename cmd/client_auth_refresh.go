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
	"github.com/retr0h/tether/internal/freshness"
)

// clientAuthRefreshCmd represents the clientAuthRefresh command.
var clientAuthRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the session",
	Long: `Refresh the session. Without --force the refresh only happens when
the access token is close to expiry or the backend recently rejected it.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			state := svc.EnsureFresh(ctx)
			if jsonOutput {
				fmt.Printf("{\"state\":%q}\n", state)
				return
			}

			fmt.Println()
			cli.PrintKV("State", string(state))
			if state == freshness.StateFailed {
				cli.LogFatal(logger, "refresh failed", nil)
			}
			return
		}

		sess, err := svc.RefreshSession(ctx)
		if err != nil {
			cli.LogFatal(logger, "refresh failed", err)
		}

		if jsonOutput {
			out, _ := json.Marshal(sess.User)
			fmt.Println(string(out))
			return
		}

		cli.DisplaySession(sess, time.Now())
	},
}

func init() {
	clientAuthCmd.AddCommand(clientAuthRefreshCmd)

	clientAuthRefreshCmd.PersistentFlags().
		BoolP("force", "", false, "Refresh regardless of token expiry")
}
