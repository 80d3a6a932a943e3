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

package diag_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/retr0h/tether/internal/diag"
)

type RingPublicTestSuite struct {
	suite.Suite
}

func (s *RingPublicTestSuite) TestWriteAndRead() {
	tests := []struct {
		name      string
		capacity  int
		writes    []int
		wantAll   []int
		wantLast2 []int
		wantTotal int64
	}{
		{
			name:      "when empty",
			capacity:  3,
			wantAll:   []int{},
			wantLast2: []int{},
		},
		{
			name:      "when below capacity",
			capacity:  3,
			writes:    []int{1, 2},
			wantAll:   []int{1, 2},
			wantLast2: []int{1, 2},
			wantTotal: 2,
		},
		{
			name:      "when exactly at capacity",
			capacity:  3,
			writes:    []int{1, 2, 3},
			wantAll:   []int{1, 2, 3},
			wantLast2: []int{2, 3},
			wantTotal: 3,
		},
		{
			name:      "when wrapped evicts oldest first",
			capacity:  3,
			writes:    []int{1, 2, 3, 4, 5},
			wantAll:   []int{3, 4, 5},
			wantLast2: []int{4, 5},
			wantTotal: 5,
		},
		{
			name:      "when capacity is zero holds one",
			capacity:  0,
			writes:    []int{1, 2},
			wantAll:   []int{2},
			wantLast2: []int{2},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rb := diag.NewRingBuffer[int](tt.capacity)
			for _, w := range tt.writes {
				rb.WriteOne(w)
			}

			s.Equal(tt.wantAll, rb.ReadAll())
			s.Equal(tt.wantLast2, rb.ReadLast(2))
			s.Equal(tt.wantTotal, rb.TotalAdded())
			s.Equal(len(tt.wantAll), rb.Len())
		})
	}
}

func (s *RingPublicTestSuite) TestReadLastNonPositive() {
	rb := diag.NewRingBuffer[int](2)
	rb.WriteOne(1)

	s.Nil(rb.ReadLast(0))
}

func (s *RingPublicTestSuite) TestConcurrentWrites() {
	rb := diag.NewRingBuffer[int](40)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := range 100 {
				rb.WriteOne(base*100 + j)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(40, rb.Len())
	s.Equal(int64(1000), rb.TotalAdded())
}

func TestRingPublicTestSuite(t *testing.T) {
	suite.Run(t, new(RingPublicTestSuite))
}
