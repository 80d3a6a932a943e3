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

package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/retr0h/tether/internal/auth"
	"github.com/retr0h/tether/internal/diag"
)

// MissingConfigHint tells the user how to supply backend settings.
const MissingConfigHint = "set backend.url and backend.api_key (or TETHER_BACKEND_URL and TETHER_BACKEND_API_KEY)"

var osExit = os.Exit

// LogFatal logs the message at error level and exits with status 1.
// Backend auth errors are expanded into status and code attributes.
func LogFatal(
	logger *slog.Logger,
	message string,
	err error,
	kvPairs ...any,
) {
	attrs := make([]any, 0, len(kvPairs)+8)
	if err != nil {
		attrs = append(attrs, "error", err)
	}

	var apiErr *auth.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs,
			slog.Int("status", apiErr.Status),
			slog.String("code", apiErr.Code),
		)
		if apiErr.Synthetic() {
			attrs = append(attrs, slog.Bool("synthetic", true))
		}
		if apiErr.Code == diag.CodeMissingConfig {
			attrs = append(attrs, slog.String("hint", MissingConfigHint))
		}
	}
	attrs = append(attrs, kvPairs...)

	logger.Error(message, attrs...)
	osExit(1)
}
