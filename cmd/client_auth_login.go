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
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/retr0h/tether/internal/cli"
)

// clientAuthLoginCmd represents the clientAuthLogin command.
var clientAuthLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in with email and password. The session is persisted so later
commands reuse it. The password is prompted for when not given.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				cli.LogFatal(logger, "failed to read password", err)
			}
			password = string(raw)
		}

		sess, err := svc.SignInWithPassword(ctx, email, password)
		if err != nil {
			cli.LogFatal(logger, "sign in failed", err, "email", email)
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
	clientAuthCmd.AddCommand(clientAuthLoginCmd)

	clientAuthLoginCmd.PersistentFlags().
		StringP("email", "", "", "Account email")
	clientAuthLoginCmd.PersistentFlags().
		StringP("password", "", "", "Account password")

	_ = clientAuthLoginCmd.MarkPersistentFlagRequired("email")
}
