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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemoryZeroExtension(t *testing.T) {
	m := NewMemory(1024)
	out, err := m.Get(0, 64)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 64), out)
	require.Equal(t, uint64(64), m.Len())
}

func TestMemoryLengthGrowsToMultipleOf32(t *testing.T) {
	m := NewMemory(1024)
	_, err := m.Get(0, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(32), m.Len())

	_, err = m.Get(0, 33)
	require.NoError(t, err)
	require.Equal(t, uint64(64), m.Len())
}

func TestMemoryLengthNeverShrinks(t *testing.T) {
	m := NewMemory(1024)
	_, err := m.Get(0, 128)
	require.NoError(t, err)
	require.Equal(t, uint64(128), m.Len())

	_, err = m.Get(0, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(128), m.Len(), "a later, smaller access must not shrink memory")
}

func TestMemorySetWritesAndZeroFills(t *testing.T) {
	m := NewMemory(1024)
	require.NoError(t, m.Set(0, 8, []byte{1, 2, 3}))
	out, err := m.Get(0, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, out)
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory(1024)
	v := uint256.NewInt(0x42)
	require.NoError(t, m.Set32(0, v))
	out, err := m.Get(0, 32)
	require.NoError(t, err)
	want := v.Bytes32()
	require.Equal(t, want[:], out)
}

func TestMemoryCopyLargeZeroFillsOutOfBoundsSource(t *testing.T) {
	m := NewMemory(1024)
	src := []byte{0xaa, 0xbb}
	require.NoError(t, m.CopyLarge(0, 0, 4, src))
	out, err := m.Get(0, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb, 0, 0}, out)
}

func TestMemoryOutOfOffsetBeyondLimit(t *testing.T) {
	m := NewMemory(64)
	_, err := m.Get(0, 128)
	require.ErrorIs(t, err, ErrOutOfOffset)
}

func TestMemoryOffsetOverflow(t *testing.T) {
	m := NewMemory(1 << 20)
	_, err := m.Get(^uint64(0), 2)
	require.ErrorIs(t, err, ErrOutOfOffset)
}
