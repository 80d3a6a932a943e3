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

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/retr0h/tether/internal/validation"
)

func init() {
	validation.Instance().RegisterStructValidation(validateTimeouts, Config{})
}

// validateTimeouts rejects an explicit RPC budget that would not fire
// before the transport budget.
func validateTimeouts(
	sl validator.StructLevel,
) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok || cfg.Timeouts.RPC <= 0 {
		return
	}

	if transport := cfg.Budgets().Transport; cfg.Timeouts.RPC >= transport {
		sl.ReportError(
			cfg.Timeouts.RPC,
			"Timeouts.RPC",
			"RPC",
			"ltfield",
			transport.String(),
		)
	}
}

// Validate checks the configuration against its struct tags. A missing
// backend URL or API key is not an error here; requests report it as
// missing_config at call time.
func Validate(
	cfg *Config,
) error {
	if msg, ok := validation.Struct(cfg); !ok {
		return fmt.Errorf("invalid config: %s", msg)
	}

	return nil
}
