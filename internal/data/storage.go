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

package data

import (
	"context"
	"fmt"
	"net/http"

	"github.com/retr0h/tether/internal/validation"
)

// Bucket addresses objects in one storage bucket.
type Bucket struct {
	client *Client
	name   string
	err    error
}

// Storage returns a handle on bucket.
func (c *Client) Storage(
	bucket string,
) *Bucket {
	b := &Bucket{client: c, name: bucket}
	if msg, ok := validation.Var(bucket, "required,identifier"); !ok {
		b.err = fmt.Errorf("invalid bucket: %s", msg)
	}

	return b
}

func (b *Bucket) object(
	path string,
) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if msg, ok := validation.Var(path, "required,object_path"); !ok {
		return "", fmt.Errorf("invalid object path: %s", msg)
	}

	return storagePrefix + b.name + "/" + path, nil
}

// Upload stores body at path, replacing any existing object.
func (b *Bucket) Upload(
	ctx context.Context,
	path string,
	body []byte,
	contentType string,
) Result {
	target, err := b.object(path)
	if err != nil {
		return exception(err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if body == nil {
		body = []byte{}
	}

	header := http.Header{}
	header.Set("x-upsert", "true")

	return b.client.do(ctx, request{
		method:      http.MethodPost,
		path:        target,
		header:      header,
		body:        body,
		contentType: contentType,
	})
}

// Download fetches the object at path. Data holds the raw bytes.
func (b *Bucket) Download(
	ctx context.Context,
	path string,
) Result {
	target, err := b.object(path)
	if err != nil {
		return exception(err)
	}

	header := http.Header{}
	header.Set("Accept", "*/*")

	return b.client.do(ctx, request{
		method: http.MethodGet,
		path:   target,
		header: header,
	})
}

// Remove deletes the object at path.
func (b *Bucket) Remove(
	ctx context.Context,
	path string,
) Result {
	target, err := b.object(path)
	if err != nil {
		return exception(err)
	}

	return b.client.do(ctx, request{
		method: http.MethodDelete,
		path:   target,
	})
}
