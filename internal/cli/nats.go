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

// Package cli provides shared utilities for CLI commands.
package cli

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/retr0h/tether/internal/config"
)

// DefaultExportBucket is used when no export bucket is configured.
const DefaultExportBucket = "tether-diagnostics"

// NATSURL builds the server URL from the realtime settings.
func NATSURL(
	cfg config.Realtime,
) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = nats.DefaultPort
	}

	return fmt.Sprintf("nats://%s:%d", host, port)
}

// BuildExportKVConfig builds the KeyValue bucket config for diagnostics
// snapshots.
func BuildExportKVConfig(
	cfg config.DiagnosticsExport,
) *nats.KeyValueConfig {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultExportBucket
	}

	return &nats.KeyValueConfig{
		Bucket:      bucket,
		Description: "tether diagnostics snapshots",
		TTL:         cfg.TTL,
		Storage:     nats.FileStorage,
	}
}

// OpenExportBucket connects to url and binds the diagnostics bucket,
// creating it when missing. The returned close function drains the
// connection.
func OpenExportBucket(
	url string,
	name string,
	cfg config.DiagnosticsExport,
) (nats.KeyValue, func(), error) {
	nc, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream context: %w", err)
	}

	kvCfg := BuildExportKVConfig(cfg)
	kv, err := js.KeyValue(kvCfg.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(kvCfg)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("create kv bucket %q: %w", kvCfg.Bucket, err)
		}
	}

	return kv, func() { _ = nc.Drain() }, nil
}
