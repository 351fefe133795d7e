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

	"github.com/stretchr/testify/require"
)

func TestValidsAcceptsBareJumpdest(t *testing.T) {
	code := []byte{byte(JUMPDEST), byte(STOP)}
	v := NewValids(code)
	require.True(t, v.IsValid(0))
	require.False(t, v.IsValid(1))
}

func TestValidsRejectsJumpdestInsidePushPayload(t *testing.T) {
	// PUSH1 0x5b: the JUMPDEST byte value here is push *data*, not an
	// instruction, and must not be a valid jump target.
	code := []byte{byte(PUSH1), byte(JUMPDEST), byte(JUMPDEST)}
	v := NewValids(code)
	require.False(t, v.IsValid(1), "JUMPDEST byte inside PUSH1's payload must not validate")
	require.True(t, v.IsValid(2), "the real JUMPDEST instruction after the payload must validate")
}

func TestValidsRejectsJumpdestInsideLongPushPayload(t *testing.T) {
	payload := make([]byte, 32)
	payload[31] = byte(JUMPDEST)
	code := append([]byte{byte(PUSH32)}, payload...)
	code = append(code, byte(JUMPDEST))
	v := NewValids(code)
	for i := uint64(1); i <= 32; i++ {
		require.False(t, v.IsValid(i), "offset %d falls inside PUSH32's payload", i)
	}
	require.True(t, v.IsValid(33))
}

func TestValidsOutOfRangeIsInvalid(t *testing.T) {
	code := []byte{byte(JUMPDEST)}
	v := NewValids(code)
	require.False(t, v.IsValid(1000))
	require.False(t, v.IsValid(0xffffffff+1))
}
