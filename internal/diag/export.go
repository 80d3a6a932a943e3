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

package diag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// KVExporter pushes diagnostics snapshots into a NATS KeyValue bucket so
// they can be pulled for remote debugging.
type KVExporter struct {
	kv     nats.KeyValue
	logger *slog.Logger
}

// NewKVExporter creates a new KVExporter.
func NewKVExporter(
	logger *slog.Logger,
	kv nats.KeyValue,
) *KVExporter {
	return &KVExporter{
		kv:     kv,
		logger: logger,
	}
}

// Export writes snap under a new key and returns that key. Keys are
// version 7 UUIDs, so lexical order is chronological.
func (e *KVExporter) Export(
	_ context.Context,
	snap Snapshot,
) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate snapshot key: %w", err)
	}
	key := id.String()

	if _, err := e.kv.Put(key, data); err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}

	e.logger.Debug(
		"exported diagnostics snapshot",
		slog.String("key", key),
		slog.Int("events", len(snap.Events)),
	)

	return key, nil
}

// Get retrieves a single snapshot by key.
func (e *KVExporter) Get(
	_ context.Context,
	key string,
) (*Snapshot, error) {
	kve, err := e.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(kve.Value(), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// List returns the stored snapshot keys, newest first.
func (e *KVExporter) List(
	_ context.Context,
) ([]string, error) {
	keys, err := e.kv.Keys()
	if err != nil {
		// nats.ErrNoKeysFound means the bucket is empty
		if errors.Is(err, nats.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	return keys, nil
}
