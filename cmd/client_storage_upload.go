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
	"mime"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/retr0h/tether/internal/cli"
)

// clientStorageUploadCmd represents the clientStorageUpload command.
var clientStorageUploadCmd = &cobra.Command{
	Use:   "upload [file] [object]",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		bucket, _ := cmd.Flags().GetString("bucket")
		contentType, _ := cmd.Flags().GetString("content-type")
		file, object := args[0], args[1]

		body, err := afero.ReadFile(appFs, file)
		if err != nil {
			cli.LogFatal(logger, "failed to read file", err, "file", file)
		}
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(file))
		}

		res := svc.Storage(bucket).Upload(cmd.Context(), object, body, contentType)
		if !res.OK() {
			printResult(res)
			return
		}

		if jsonOutput {
			fmt.Println(string(res.Data))
			return
		}

		fmt.Println()
		cli.PrintKV("Object", object, "Size", cli.FormatBytes(len(body)))
	},
}

func init() {
	clientStorageCmd.AddCommand(clientStorageUploadCmd)

	clientStorageUploadCmd.Flags().String("content-type", "", "Content type (guessed from the extension when empty)")
}
