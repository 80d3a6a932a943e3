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

package cli_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/cli"
	"github.com/retr0h/tether/internal/config"
	"github.com/retr0h/tether/internal/natstest"
)

type NATSTestSuite struct {
	suite.Suite
}

func TestNATSTestSuite(t *testing.T) {
	suite.Run(t, new(NATSTestSuite))
}

func (suite *NATSTestSuite) TestNATSURL() {
	tests := []struct {
		name string
		cfg  config.Realtime
		want string
	}{
		{
			name: "when empty uses defaults",
			want: "nats://localhost:4222",
		},
		{
			name: "when host and port set",
			cfg:  config.Realtime{Host: "10.0.0.5", Port: 4333},
			want: "nats://10.0.0.5:4333",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.want, cli.NATSURL(tc.cfg))
		})
	}
}

func (suite *NATSTestSuite) TestBuildExportKVConfig() {
	tests := []struct {
		name       string
		cfg        config.DiagnosticsExport
		wantBucket string
		wantTTL    time.Duration
	}{
		{
			name:       "when bucket empty uses default",
			wantBucket: cli.DefaultExportBucket,
		},
		{
			name:       "when bucket and ttl set",
			cfg:        config.DiagnosticsExport{Bucket: "snaps", TTL: 24 * time.Hour},
			wantBucket: "snaps",
			wantTTL:    24 * time.Hour,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			got := cli.BuildExportKVConfig(tc.cfg)

			suite.Equal(tc.wantBucket, got.Bucket)
			suite.Equal(tc.wantTTL, got.TTL)
		})
	}
}

func (suite *NATSTestSuite) TestOpenExportBucket() {
	srv := natstest.RunServer(suite.T(), true)

	suite.Run("when bucket missing creates it", func() {
		kv, closeFn, err := cli.OpenExportBucket(
			srv.ClientURL(),
			"test",
			config.DiagnosticsExport{Bucket: "diag-test"},
		)
		suite.Require().NoError(err)
		defer closeFn()

		suite.Equal("diag-test", kv.Bucket())
	})

	suite.Run("when bucket exists binds it", func() {
		kv, closeFn, err := cli.OpenExportBucket(
			srv.ClientURL(),
			"test",
			config.DiagnosticsExport{Bucket: "diag-test"},
		)
		suite.Require().NoError(err)
		defer closeFn()

		suite.Equal("diag-test", kv.Bucket())
	})

	suite.Run("when server unreachable returns error", func() {
		_, _, err := cli.OpenExportBucket(
			"nats://127.0.0.1:1",
			"test",
			config.DiagnosticsExport{},
		)
		suite.Error(err)
		suite.Contains(err.Error(), "connect nats")
	})
}
