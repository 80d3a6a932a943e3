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

package lifecycle

import (
	"sync"
)

// AppState is the foreground/background state of the host application.
type AppState int

// Application states.
const (
	Foreground AppState = iota
	Background
)

// String returns the state name.
func (s AppState) String() string {
	if s == Background {
		return "background"
	}

	return "foreground"
}

// AppStateSource delivers application state transitions.
type AppStateSource interface {
	// Subscribe registers fn and returns a function removing it.
	Subscribe(fn func(AppState)) (unsubscribe func())
	// State returns the current state.
	State() AppState
}

// Notifier is an in-memory AppStateSource. The zero state is Foreground.
type Notifier struct {
	mu        sync.Mutex
	state     AppState
	next      int
	listeners map[int]func(AppState)
}

// NewNotifier factory to create a new instance.
func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]func(AppState))}
}

// Subscribe implements AppStateSource.
func (n *Notifier) Subscribe(
	fn func(AppState),
) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// State implements AppStateSource.
func (n *Notifier) State() AppState {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.state
}

// Set moves to state and notifies listeners when it changed.
func (n *Notifier) Set(
	state AppState,
) {
	n.mu.Lock()
	if n.state == state {
		n.mu.Unlock()
		return
	}
	n.state = state
	fns := make([]func(AppState), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Listeners returns the number of subscribers.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.listeners)
}
