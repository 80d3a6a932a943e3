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
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
)

// clientStorageDownloadCmd represents the clientStorageDownload command.
var clientStorageDownloadCmd = &cobra.Command{
	Use:   "download [object]",
	Short: "Download an object",
	Long: `Download an object. The bytes go to --output, or to stdout when no
output file is given.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bucket, _ := cmd.Flags().GetString("bucket")
		output, _ := cmd.Flags().GetString("output")

		res := svc.Storage(bucket).Download(cmd.Context(), args[0])
		if !res.OK() {
			printResult(res)
			return
		}

		if output == "" {
			_, _ = os.Stdout.Write(res.Data)
			return
		}

		if err := afero.WriteFile(appFs, output, res.Data, 0o644); err != nil {
			cli.LogFatal(logger, "failed to write file", err, "file", output)
		}

		if jsonOutput {
			fmt.Printf("{\"file\":%q,\"bytes\":%d}\n", output, len(res.Data))
			return
		}

		fmt.Println()
		cli.PrintKV("File", output, "Size", cli.FormatBytes(len(res.Data)))
	},
}

func init() {
	clientStorageCmd.AddCommand(clientStorageDownloadCmd)

	clientStorageDownloadCmd.Flags().StringP("output", "o", "", "Write to this file")
}
