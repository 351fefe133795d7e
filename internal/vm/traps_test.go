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

	"github.com/ethforge/evmcore/types"
)

// A CALL that tries to move value must be rejected as soon as the calling
// frame is static, before the callee ever runs.
func TestTrapsCallWithValueRejectedInStaticFrame(t *testing.T) {
	b := newFakeBackend()
	caller, callerCode, callee := addr(0x01), addr(0x0a), addr(0x0b)
	b.SetCode(callee, []byte{byte(STOP)})
	b.setBalance(callerCode, 10)

	code := []byte{
		byte(PUSH1), 0, // retLen
		byte(PUSH1), 0, // retOff
		byte(PUSH1), 0, // argsLen
		byte(PUSH1), 0, // argsOff
		byte(PUSH1), 1, // value, nonzero
		byte(PUSH20),
	}
	code = append(code, callee.Bytes()...)
	code = append(code, byte(GAS), byte(CALL), byte(STOP))
	b.SetCode(callerCode, code)

	ex := newTestExecutor(t, b)
	parent := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	callCtx := CallContext{Address: callerCode, StorageOwner: callerCode, Caller: caller, Value: new(uint256.Int)}

	reason, _ := ex.callInner(parent, callCtx, callerCode, nil, 100_000, true)

	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrModifierDisabled)
	require.True(t, b.account(callee).balance.IsZero(), "value must not have moved into the callee")
	require.Equal(t, uint64(10), b.account(callerCode).balance.Uint64())
}

// A child frame entered with isStatic set (as opCall passes for STATICCALL)
// must be static even when the parent substate isn't. The frame is entered
// through callInner directly rather than through a STATICCALL opcode.
func TestTrapsStaticCallForcesStaticOnChildFrame(t *testing.T) {
	b := newFakeBackend()
	caller, target := addr(0x01), addr(0x0b)

	// target: SSTORE(0, 1), which must never take effect.
	b.SetCode(target, []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(SSTORE),
	})

	ex := newTestExecutor(t, b)
	parent := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	require.False(t, parent.IsStatic)
	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: new(uint256.Int)}

	reason, _ := ex.callInner(parent, callCtx, target, nil, 100_000, true)

	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrModifierDisabled)
	require.Equal(t, types.Hash{}, b.Storage(target, hashOf(0)), "the forced-static child must not have written storage")
}

// SSTORE, LOG0, and SELFDESTRUCT all reject a static frame before popping
// anything off the stack, so none of these need any stack setup at all.
func TestTrapsSstoreRejectedInStaticFrame(t *testing.T) {
	b := newFakeBackend()
	caller, target := addr(0x01), addr(0x0b)
	b.SetCode(target, []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(SSTORE),
	})
	ex := newTestExecutor(t, b)
	parent := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: new(uint256.Int)}

	reason, _ := ex.callInner(parent, callCtx, target, nil, 100_000, true)

	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrModifierDisabled)
}

func TestTrapsLogRejectedInStaticFrame(t *testing.T) {
	b := newFakeBackend()
	caller, target := addr(0x01), addr(0x0b)
	b.SetCode(target, []byte{
		byte(PUSH1), 0, // length
		byte(PUSH1), 0, // offset
		byte(LOG0),
	})
	ex := newTestExecutor(t, b)
	parent := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: new(uint256.Int)}

	reason, _ := ex.callInner(parent, callCtx, target, nil, 100_000, true)

	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrModifierDisabled)
	require.Empty(t, b.logs)
}

func TestTrapsSelfdestructRejectedInStaticFrame(t *testing.T) {
	b := newFakeBackend()
	caller, target, beneficiary := addr(0x01), addr(0x0b), addr(0x0c)
	code := []byte{byte(PUSH20)}
	code = append(code, beneficiary.Bytes()...)
	code = append(code, byte(SELFDESTRUCT))
	b.SetCode(target, code)

	ex := newTestExecutor(t, b)
	parent := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: new(uint256.Int)}

	reason, _ := ex.callInner(parent, callCtx, target, nil, 100_000, true)

	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrModifierDisabled)
	require.False(t, b.account(target).deleted)
}

// DELEGATECALL must run the callee's code against the caller's own storage
// and identity, not the callee's.
func TestTrapsDelegateCallPreservesCallerStorageContext(t *testing.T) {
	b := newFakeBackend()
	caller, a, bContract := addr(0x01), addr(0x0a), addr(0x0b)

	// a owns storage slot 0 = 42, pre-populated directly (no constructor).
	b.SetStorage(a, hashOf(0), hashOf(42))

	// b: SLOAD(0), MSTORE(0, result), RETURN(0, 32).
	b.SetCode(bContract, []byte{
		byte(PUSH1), 0,
		byte(SLOAD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	})

	// a: DELEGATECALL(gas, b, 0, 0, 0, 32), RETURNDATACOPY(0, 0, 32), RETURN(0, 32).
	codeA := []byte{
		byte(PUSH1), 32, // retLen
		byte(PUSH1), 0, // retOff
		byte(PUSH1), 0, // argsLen
		byte(PUSH1), 0, // argsOff
		byte(PUSH20),
	}
	codeA = append(codeA, bContract.Bytes()...)
	codeA = append(codeA,
		byte(GAS),
		byte(DELEGATECALL),
		byte(POP),
		byte(PUSH1), 32, // length
		byte(PUSH1), 0, // srcOff
		byte(PUSH1), 0, // destOff
		byte(RETURNDATACOPY),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	)
	b.SetCode(a, codeA)

	ex := newTestExecutor(t, b)
	reason, output, _ := ex.TransactCall(caller, a, new(uint256.Int), nil, 1_000_000, nil)

	require.True(t, reason.IsSucceed())
	want := make([]byte, 32)
	want[31] = 42
	require.Equal(t, want, output, "b's SLOAD(0) under DELEGATECALL must read a's storage, not b's")
	require.Equal(t, types.Hash{}, b.Storage(bContract, hashOf(0)), "b's own storage slot 0 must remain untouched")
}
