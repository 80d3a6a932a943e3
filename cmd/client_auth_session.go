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
)

// clientAuthSessionCmd represents the clientAuthSession command.
var clientAuthSessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the current session",
	Long: `Show the persisted session. With --verify the access token is
checked against the backend.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		verify, _ := cmd.Flags().GetBool("verify")

		sess, err := svc.GetSession(ctx)
		if err != nil {
			cli.LogFatal(logger, "failed to load session", err)
		}

		if verify && sess != nil {
			user, err := svc.GetUser(ctx)
			if err != nil {
				cli.LogFatal(logger, "session rejected", err)
			}
			verified := *sess
			verified.User = *user
			sess = &verified
		}

		if jsonOutput {
			if sess == nil {
				fmt.Println("null")
				return
			}
			out, _ := json.Marshal(struct {
				User      any   `json:"user"`
				ExpiresAt int64 `json:"expires_at"`
			}{sess.User, sess.Expiry().Unix()})
			fmt.Println(string(out))
			return
		}

		cli.DisplaySession(sess, time.Now())
	},
}

func init() {
	clientAuthCmd.AddCommand(clientAuthSessionCmd)

	clientAuthSessionCmd.PersistentFlags().
		BoolP("verify", "", false, "Verify the token with the backend")
}
