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

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/retr0h/tether/internal/validation"
)

// ensure FileStore implements Store at compile time.
var _ Store = (*FileStore)(nil)

// FileStore keeps one file per key inside a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates a new FileStore rooted at dir.
func NewFileStore(
	fs afero.Fs,
	dir string,
) *FileStore {
	return &FileStore{
		fs:  fs,
		dir: dir,
	}
}

func (s *FileStore) path(
	key string,
) (string, error) {
	if msg, ok := validation.Var(key, "required,identifier"); !ok {
		return "", fmt.Errorf("invalid storage key: %s", msg)
	}

	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the file for key.
func (s *FileStore) Get(
	_ context.Context,
	key string,
) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Set writes value atomically by renaming a temp file over the target.
func (s *FileStore) Set(
	_ context.Context,
	key string,
	value []byte,
) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp := p + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, value, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	if err := s.fs.Rename(tmp, p); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}

	return nil
}

// Remove deletes the file for key.
func (s *FileStore) Remove(
	_ context.Context,
	key string,
) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}
