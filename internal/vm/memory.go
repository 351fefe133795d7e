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

// Memory is the EVM's byte-addressable, word-granular scratch space. Its
// logical length only ever grows, is always a multiple of 32, and any byte
// that has never been written reads back as zero.
type Memory struct {
	store []byte
	limit uint64
}

// NewMemory creates an empty memory bounded to limit bytes.
func NewMemory(limit uint64) *Memory {
	return &Memory{limit: limit}
}

// Len returns the current logical length in bytes.
func (m *Memory) Len() uint64 { return uint64(len(m.store)) }

// wordsFor returns the number of 32-byte words needed to cover size bytes.
func wordsFor(size uint64) uint64 {
	return (size + 31) / 32
}

// resizeTo grows the logical length to the next multiple of 32 covering
// size bytes, if it doesn't already. It never shrinks. Charging for the
// growth is the gasometer's concern, not Memory's; resizeTo itself only
// enforces the hard memory_limit ceiling.
func (m *Memory) resizeTo(size uint64) error {
	if size == 0 {
		return nil
	}
	if size > m.limit {
		return ErrOutOfOffset
	}
	newLen := wordsFor(size) * 32
	if newLen <= uint64(len(m.store)) {
		return nil
	}
	grown := make([]byte, newLen)
	copy(grown, m.store)
	m.store = grown
	return nil
}

// Get returns a zero-extended copy of length bytes starting at offset,
// growing the logical length to cover the request.
func (m *Memory) Get(offset, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	end, overflow := addUint64(offset, length)
	if overflow {
		return nil, ErrOutOfOffset
	}
	if err := m.resizeTo(end); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.store[offset:end])
	return out, nil
}

// GetPtr returns a slice backed directly by memory's storage, valid until
// the next mutating call, for readers that don't need an isolated copy.
func (m *Memory) GetPtr(offset, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	end, overflow := addUint64(offset, length)
	if overflow {
		return nil, ErrOutOfOffset
	}
	if err := m.resizeTo(end); err != nil {
		return nil, err
	}
	return m.store[offset:end], nil
}

// Set writes min(len(data), length) bytes from data at offset, zero-filling
// the remainder up to length.
func (m *Memory) Set(offset, length uint64, data []byte) error {
	if length == 0 {
		return nil
	}
	end, overflow := addUint64(offset, length)
	if overflow {
		return ErrOutOfOffset
	}
	if err := m.resizeTo(end); err != nil {
		return err
	}
	n := copy(m.store[offset:end], data)
	for i := offset + uint64(n); i < end; i++ {
		m.store[i] = 0
	}
	return nil
}

// Set32 writes a single 256-bit word at offset, used by MSTORE.
func (m *Memory) Set32(offset uint64, val *Word) error {
	end, overflow := addUint64(offset, 32)
	if overflow {
		return ErrOutOfOffset
	}
	if err := m.resizeTo(end); err != nil {
		return err
	}
	b := val.Bytes32()
	copy(m.store[offset:end], b[:])
	return nil
}

// CopyLarge performs a memory-safe bulk copy from an arbitrary source byte
// string into memory at dstOffset, reading length bytes starting at
// srcOffset from src and zero-filling whatever lies beyond src's bounds.
func (m *Memory) CopyLarge(dstOffset, srcOffset, length uint64, src []byte) error {
	if length == 0 {
		return nil
	}
	end, overflow := addUint64(dstOffset, length)
	if overflow {
		return ErrOutOfOffset
	}
	if err := m.resizeTo(end); err != nil {
		return err
	}
	dst := m.store[dstOffset:end]
	if srcOffset >= uint64(len(src)) {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	n := copy(dst, src[srcOffset:])
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

func addUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}
