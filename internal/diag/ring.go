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

import "sync"

// RingBuffer is a fixed-capacity circular buffer. Entries are evicted in
// FIFO order once capacity is reached.
type RingBuffer[T any] struct {
	mu sync.RWMutex

	entries  []T
	capacity int

	// totalAdded counts every entry ever written, evicted or not.
	totalAdded int64
	// head is the index where the next write goes.
	head int
}

// NewRingBuffer creates a new ring buffer with the given capacity. A
// capacity below one is raised to one.
func NewRingBuffer[T any](
	capacity int,
) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}

	return &RingBuffer[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// WriteOne appends a single entry, evicting the oldest when full.
func (rb *RingBuffer[T]) WriteOne(
	entry T,
) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(rb.entries) < rb.capacity {
		rb.entries = append(rb.entries, entry)
	} else {
		rb.entries[rb.head] = entry
	}
	rb.head = (rb.head + 1) % rb.capacity
	rb.totalAdded++
}

// ReadAll returns all entries currently in the buffer, oldest first.
func (rb *RingBuffer[T]) ReadAll() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]T, len(rb.entries))
	if len(rb.entries) < rb.capacity {
		copy(result, rb.entries)
		return result
	}

	// Full: head points at the oldest entry.
	n := copy(result, rb.entries[rb.head:])
	copy(result[n:], rb.entries[:rb.head])

	return result
}

// ReadLast returns the last n entries, oldest first.
func (rb *RingBuffer[T]) ReadLast(
	n int,
) []T {
	all := rb.ReadAll()
	if n <= 0 {
		return nil
	}
	if n > len(all) {
		n = len(all)
	}

	return all[len(all)-n:]
}

// Len returns the number of entries currently held.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return len(rb.entries)
}

// Capacity returns the maximum number of entries held.
func (rb *RingBuffer[T]) Capacity() int {
	return rb.capacity
}

// TotalAdded returns the number of entries ever written.
func (rb *RingBuffer[T]) TotalAdded() int64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return rb.totalAdded
}
