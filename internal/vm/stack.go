// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/holiman/uint256"
)

// Word is the EVM's 256-bit machine word.
type Word = uint256.Int

// Stack is the EVM's 1024-deep word stack. Index 0 is the top. All mutating
// operations are all-or-nothing: a failed push or pop leaves the stack
// exactly as it was.
type Stack struct {
	data  []Word
	limit int
}

// NewStack creates an empty stack bounded to limit words.
func NewStack(limit int) *Stack {
	return &Stack{data: make([]Word, 0, 16), limit: limit}
}

// Len returns the number of words currently on the stack.
func (s *Stack) Len() int { return len(s.data) }

// Push appends v to the top of the stack. It fails without side effect if
// the stack is already at its limit.
func (s *Stack) Push(v *Word) error {
	if len(s.data) >= s.limit {
		return ErrStackOverflow
	}
	s.data = append(s.data, *v)
	return nil
}

// Pop removes and returns the top of the stack.
//
// The source this package is modeled on has a well-known bug here: it builds
// the underflow error but forgets to return it, and guards against underflow
// by comparing an unsigned length against zero in a way that itself
// underflows when the stack is empty. Both are fixed below: Len() == 0 is
// checked first, and the error is actually returned.
func (s *Stack) Pop() (Word, error) {
	if len(s.data) == 0 {
		return Word{}, ErrStackUnderflow
	}
	last := len(s.data) - 1
	v := s.data[last]
	s.data = s.data[:last]
	return v, nil
}

// Peek returns the value n words below the top (Peek(0) is the top) without
// removing it.
func (s *Stack) Peek(n int) (*Word, error) {
	if n >= len(s.data) {
		return nil, ErrStackUnderflow
	}
	return &s.data[len(s.data)-1-n], nil
}

// Set overwrites the value n words below the top.
func (s *Stack) Set(n int, v *Word) error {
	if n >= len(s.data) {
		return ErrStackUnderflow
	}
	s.data[len(s.data)-1-n] = *v
	return nil
}

// Dup duplicates the value at depth n-1 onto the top of the stack
// (DUP1..DUP16 semantics, n in [1,16]).
func (s *Stack) Dup(n int) error {
	v, err := s.Peek(n - 1)
	if err != nil {
		return err
	}
	return s.Push(v)
}

// Swap exchanges the top of the stack with the value at depth n
// (SWAP1..SWAP16 semantics, n in [1,16]).
func (s *Stack) Swap(n int) error {
	if n >= len(s.data) {
		return ErrStackUnderflow
	}
	top := len(s.data) - 1
	s.data[top], s.data[top-n] = s.data[top-n], s.data[top]
	return nil
}

// Reset empties the stack so it can be reused for a new frame.
func (s *Stack) Reset() {
	s.data = s.data[:0]
}

// Data returns the stack's backing slice, top-last (index 0 is the bottom).
// Intended for tracing/debugging; callers must not retain or mutate it
// beyond the current step.
func (s *Stack) Data() []Word { return s.data }
