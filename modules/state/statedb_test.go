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

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethforge/evmcore/internal/vm"
	"github.com/ethforge/evmcore/types"
)

func TestStateDBAddBalanceRevertsOnJournalExitRevert(t *testing.T) {
	s := New()
	addr := types.Address{1}

	s.JournalEnter()
	s.AddBalance(addr, uint256.NewInt(100))
	require.Equal(t, uint64(100), s.Basic(addr).Balance.Uint64())

	s.JournalExitRevert()
	require.Equal(t, uint64(0), s.Basic(addr).Balance.Uint64())
}

func TestStateDBJournalExitCommitKeepsChanges(t *testing.T) {
	s := New()
	addr := types.Address{1}

	s.JournalEnter()
	s.AddBalance(addr, uint256.NewInt(100))
	s.JournalExitCommit()

	require.Equal(t, uint64(100), s.Basic(addr).Balance.Uint64())
}

func TestStateDBNestedRevertOnlyUnwindsInnerFrame(t *testing.T) {
	s := New()
	addr := types.Address{1}

	s.JournalEnter() // outer
	s.AddBalance(addr, uint256.NewInt(10))

	s.JournalEnter() // inner
	s.AddBalance(addr, uint256.NewInt(90))
	require.Equal(t, uint64(100), s.Basic(addr).Balance.Uint64())

	s.JournalExitRevert() // undo inner only
	require.Equal(t, uint64(10), s.Basic(addr).Balance.Uint64())

	s.JournalExitCommit() // keep outer
	require.Equal(t, uint64(10), s.Basic(addr).Balance.Uint64())
}

func TestStateDBRevertOfOnlyTouchRemovesGhostAccount(t *testing.T) {
	s := New()
	addr := types.Address{9}
	require.False(t, s.Exists(addr))

	s.JournalEnter()
	s.IncNonce(addr) // auto-vivifies addr
	require.True(t, s.Exists(addr))

	s.JournalExitRevert()
	require.False(t, s.Exists(addr), "reverting the only frame that touched addr must remove it entirely")
}

func TestStateDBStorageSetAndRevert(t *testing.T) {
	s := New()
	addr := types.Address{1}
	key := types.Hash{1}
	val := types.Hash{0xff}

	s.JournalEnter()
	s.SetStorage(addr, key, val)
	require.Equal(t, val, s.Storage(addr, key))
	require.Equal(t, types.Hash{}, s.OriginalStorage(addr, key))

	s.JournalExitRevert()
	require.Equal(t, types.Hash{}, s.Storage(addr, key))
}

func TestStateDBTransferInsufficientBalance(t *testing.T) {
	s := New()
	from, to := types.Address{1}, types.Address{2}
	s.SetBalance(from, uint256.NewInt(5))

	err := s.Transfer(from, to, uint256.NewInt(10))
	require.ErrorIs(t, err, vm.ErrOutOfFund)
	require.Equal(t, uint64(5), s.Basic(from).Balance.Uint64())
	require.Equal(t, uint64(0), s.Basic(to).Balance.Uint64())
}

func TestStateDBTransferMovesBalance(t *testing.T) {
	s := New()
	from, to := types.Address{1}, types.Address{2}
	s.SetBalance(from, uint256.NewInt(100))

	require.NoError(t, s.Transfer(from, to, uint256.NewInt(40)))
	require.Equal(t, uint64(60), s.Basic(from).Balance.Uint64())
	require.Equal(t, uint64(40), s.Basic(to).Balance.Uint64())
}

func TestStateDBTransferZeroValueStillTouchesRecipient(t *testing.T) {
	s := New()
	from, to := types.Address{1}, types.Address{2}
	require.False(t, s.Exists(to))

	require.NoError(t, s.Transfer(from, to, uint256.NewInt(0)))
	require.True(t, s.Exists(to), "EIP-161 touch must create the recipient even for a zero-value transfer")
}

func TestStateDBColdWarmTrackingIsJournaled(t *testing.T) {
	s := New()
	addr := types.Address{3}
	require.True(t, s.IsAddressCold(addr))

	s.JournalEnter()
	s.MarkAddressWarm(addr)
	require.False(t, s.IsAddressCold(addr))

	s.JournalExitRevert()
	require.True(t, s.IsAddressCold(addr), "warm-address marking must unwind with the rest of the frame")
}

func TestStateDBStorageColdWarmTracking(t *testing.T) {
	s := New()
	addr := types.Address{3}
	key := types.Hash{1}
	require.True(t, s.IsStorageCold(addr, key))

	s.MarkStorageWarm(addr, key)
	require.False(t, s.IsStorageCold(addr, key))

	other := types.Hash{2}
	require.True(t, s.IsStorageCold(addr, other), "marking one slot warm must not warm a sibling slot")
}

func TestStateDBSetCodeUpdatesHash(t *testing.T) {
	s := New()
	addr := types.Address{4}
	code := []byte{0x60, 0x01}

	s.SetCode(addr, code)
	require.Equal(t, code, s.Code(addr))
	require.NotEqual(t, types.Hash{}, s.CodeHash(addr))
}

func TestStateDBIsEmptyPerEIP161(t *testing.T) {
	s := New()
	addr := types.Address{5}
	require.True(t, s.IsEmpty(addr), "a never-touched address is considered empty")

	s.IncNonce(addr)
	require.False(t, s.IsEmpty(addr))
}

var _ vm.Backend = (*StateDB)(nil)
