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

package storage_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/diag"
	"github.com/retr0h/tether/internal/storage"
	"github.com/retr0h/tether/internal/timeout"
)

// slowStore blocks every call for delay.
type slowStore struct {
	delay time.Duration
	err   error
}

func (s *slowStore) Get(
	_ context.Context,
	_ string,
) ([]byte, error) {
	time.Sleep(s.delay)
	return []byte("late"), s.err
}

func (s *slowStore) Set(
	_ context.Context,
	_ string,
	_ []byte,
) error {
	time.Sleep(s.delay)
	return s.err
}

func (s *slowStore) Remove(
	_ context.Context,
	_ string,
) error {
	time.Sleep(s.delay)
	return s.err
}

type crumbSink struct {
	mu    sync.Mutex
	kinds []diag.Kind
}

func (c *crumbSink) Breadcrumb(
	_ context.Context,
	kind diag.Kind,
	_ ...slog.Attr,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kinds = append(c.kinds, kind)
}

type StoragePublicTestSuite struct {
	suite.Suite

	ctx    context.Context
	logger *slog.Logger
}

func (s *StoragePublicTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.DiscardHandler)
}

func (s *StoragePublicTestSuite) TestFileStore() {
	fs := afero.NewMemMapFs()
	store := storage.NewFileStore(fs, "/var/lib/tether")

	_, err := store.Get(s.ctx, "session")
	s.ErrorIs(err, storage.ErrNotFound)

	s.Require().NoError(store.Set(s.ctx, "session", []byte(`{"a":1}`)))
	got, err := store.Get(s.ctx, "session")
	s.Require().NoError(err)
	s.JSONEq(`{"a":1}`, string(got))

	s.Require().NoError(store.Set(s.ctx, "session", []byte(`{"a":2}`)))
	got, err = store.Get(s.ctx, "session")
	s.Require().NoError(err)
	s.JSONEq(`{"a":2}`, string(got))

	exists, err := afero.Exists(fs, "/var/lib/tether/session.json.tmp")
	s.NoError(err)
	s.False(exists)

	s.NoError(store.Remove(s.ctx, "session"))
	s.NoError(store.Remove(s.ctx, "session"))
	_, err = store.Get(s.ctx, "session")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StoragePublicTestSuite) TestFileStoreRejectsBadKeys() {
	store := storage.NewFileStore(afero.NewMemMapFs(), "/tmp")

	tests := []struct {
		name string
		key  string
	}{
		{name: "when empty", key: ""},
		{name: "when traversal", key: "../etc/passwd"},
		{name: "when nested", key: "a/b"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Error(store.Set(s.ctx, tt.key, []byte("x")))
			_, err := store.Get(s.ctx, tt.key)
			s.Error(err)
		})
	}
}

func (s *StoragePublicTestSuite) TestBounded() {
	errDisk := errors.New("disk full")

	tests := []struct {
		name        string
		inner       *slowStore
		wantGet     []byte
		wantGetErr  error
		wantSetErr  error
		wantCrumbs  int
		wantTimeout bool
	}{
		{
			name:    "when inner store is fast",
			inner:   &slowStore{},
			wantGet: []byte("late"),
		},
		{
			name:        "when inner store hangs degrades to empty and no-op",
			inner:       &slowStore{delay: 200 * time.Millisecond},
			wantGetErr:  storage.ErrNotFound,
			wantCrumbs:  3,
			wantTimeout: true,
		},
		{
			name:       "when inner store fails passes the error through",
			inner:      &slowStore{err: errDisk},
			wantGet:    []byte("late"),
			wantGetErr: errDisk,
			wantSetErr: errDisk,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			crumbs := &crumbSink{}
			b := storage.NewBounded(s.logger, tt.inner, 20*time.Millisecond, crumbs)

			got, err := b.Get(s.ctx, "session")
			if tt.wantGetErr != nil {
				s.ErrorIs(err, tt.wantGetErr)
				s.Equal(tt.wantTimeout, errors.Is(err, timeout.ErrTimeout))
			} else {
				s.NoError(err)
				s.Equal(tt.wantGet, got)
			}

			err = b.Set(s.ctx, "session", []byte("v"))
			if tt.wantSetErr != nil {
				s.ErrorIs(err, tt.wantSetErr)
			} else {
				s.NoError(err)
			}

			err = b.Remove(s.ctx, "session")
			if tt.wantSetErr != nil {
				s.ErrorIs(err, tt.wantSetErr)
			} else {
				s.NoError(err)
			}

			s.Len(crumbs.kinds, tt.wantCrumbs)
			for _, k := range crumbs.kinds {
				s.Equal(diag.KindStorageTimeout, k)
			}
		})
	}
}

func TestStoragePublicTestSuite(t *testing.T) {
	suite.Run(t, new(StoragePublicTestSuite))
}
