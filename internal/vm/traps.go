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

	"github.com/ethforge/evmcore/types"
)

// HandleTrap resolves every opcode the jump table surrenders to the host.
// It implements TrapHandler, driving Runtime.Run. A non-nil return forces
// the frame to exit with that reason; a nil return means the handler
// already pushed its result and the frame keeps stepping.
func (ex *Executor) HandleTrap(rt *Runtime, op OpCode) *ExitReason {
	switch op {
	case ADDRESS:
		return ex.pushAddress(rt, rt.Env.Call.StorageOwner)
	case BALANCE:
		return ex.opBalance(rt)
	case ORIGIN:
		return ex.pushAddress(rt, rt.Env.Tx.Origin)
	case CALLER:
		return ex.pushAddress(rt, rt.Env.Call.Caller)
	case CALLVALUE:
		return ex.pushWord(rt, callValueOrZero(rt.Env.Call.Value))
	case CALLDATALOAD:
		return ex.opCalldataload(rt)
	case CALLDATASIZE:
		return ex.pushUint64(rt, uint64(len(rt.Machine.CallData)))
	case CALLDATACOPY:
		return ex.opDataCopy(rt, rt.Machine.CallData, false)
	case CODESIZE:
		return ex.pushUint64(rt, uint64(len(rt.Machine.Code)))
	case CODECOPY:
		return ex.opDataCopy(rt, rt.Machine.Code, false)
	case GASPRICE:
		return ex.pushWord(rt, rt.Env.Tx.GasPrice)
	case EXTCODESIZE:
		return ex.opExtcodesize(rt)
	case EXTCODECOPY:
		return ex.opExtcodecopy(rt)
	case EXTCODEHASH:
		return ex.opExtcodehash(rt)
	case RETURNDATASIZE:
		return ex.pushUint64(rt, uint64(len(rt.LastReturnData)))
	case RETURNDATACOPY:
		return ex.opDataCopy(rt, rt.LastReturnData, true)
	case BLOCKHASH:
		return ex.opBlockhash(rt)
	case COINBASE:
		return ex.pushAddress(rt, rt.Env.Block.Coinbase)
	case TIMESTAMP:
		return ex.pushUint64(rt, rt.Env.Block.Timestamp)
	case NUMBER:
		return ex.pushUint64(rt, rt.Env.Block.BlockNumber)
	case DIFFICULTY:
		return ex.pushWord(rt, rt.Env.Block.Difficulty)
	case GASLIMIT:
		return ex.pushUint64(rt, rt.Env.Block.GasLimit)
	case CHAINID:
		return ex.pushUint64(rt, rt.Env.Block.ChainID)
	case SELFBALANCE:
		return ex.pushWord(rt, ex.Backend.Basic(rt.Env.Call.StorageOwner).Balance)
	case BASEFEE:
		return ex.pushWord(rt, rt.Env.Block.BaseFee)
	case SLOAD:
		return ex.opSload(rt)
	case SSTORE:
		return ex.opSstore(rt)
	case LOG0, LOG1, LOG2, LOG3, LOG4:
		return ex.opLog(rt, int(op-LOG0))
	case CREATE:
		return ex.opCreate(rt, false)
	case CREATE2:
		return ex.opCreate(rt, true)
	case CALL:
		return ex.opCall(rt, callKindCall)
	case CALLCODE:
		return ex.opCall(rt, callKindCallCode)
	case DELEGATECALL:
		return ex.opCall(rt, callKindDelegateCall)
	case STATICCALL:
		return ex.opCall(rt, callKindStaticCall)
	case SELFDESTRUCT:
		return ex.opSelfdestruct(rt)
	case GAS:
		return ex.pushUint64(rt, rt.Substate.Gasometer.Gas())
	default:
		reason := ExitFatal(ErrUnhandledInterrupt)
		return &reason
	}
}

func callValueOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// --- small stack helpers ---

func (ex *Executor) pop(rt *Runtime) (Word, *ExitReason) {
	v, err := rt.Machine.Stack.Pop()
	if err != nil {
		reason := ExitError(err)
		return Word{}, &reason
	}
	return v, nil
}

func (ex *Executor) push(rt *Runtime, v *Word) *ExitReason {
	if err := rt.Machine.Stack.Push(v); err != nil {
		reason := ExitError(err)
		return &reason
	}
	return nil
}

func (ex *Executor) pushWord(rt *Runtime, v *uint256.Int) *ExitReason {
	w := *v
	return ex.push(rt, &w)
}

func (ex *Executor) pushUint64(rt *Runtime, v uint64) *ExitReason {
	var w Word
	w.SetUint64(v)
	return ex.push(rt, &w)
}

func (ex *Executor) pushAddress(rt *Runtime, addr types.Address) *ExitReason {
	var w Word
	w.SetBytes(addr.Bytes())
	return ex.push(rt, &w)
}

func (ex *Executor) pushBool(rt *Runtime, b bool) *ExitReason {
	var w Word
	if b {
		w.SetOne()
	}
	return ex.push(rt, &w)
}

func addUint64Checked(a, b uint64) (uint64, bool) {
	c := a + b
	return c, c >= a
}

// chargeMemoryExpansion grows and charges for memory to cover [offset,
// offset+length), mirroring the gasometer's quadratic expansion cost.
func (ex *Executor) chargeMemoryExpansion(rt *Runtime, offset, length uint64) *ExitReason {
	if length == 0 {
		return nil
	}
	end, ok := addUint64Checked(offset, length)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	cost := MemoryExpansionCost(rt.Machine.Memory.Len(), end)
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}
	return nil
}

// requireNotStatic raises ModifierDisabled if this frame (or an ancestor)
// is static, used by every state-mutating trap.
func (ex *Executor) requireNotStatic(rt *Runtime) *ExitReason {
	if rt.Substate.IsStatic {
		reason := ExitError(ErrModifierDisabled)
		return &reason
	}
	return nil
}

// --- environmental opcodes ---

func (ex *Executor) opBalance(rt *Runtime) *ExitReason {
	addrWord, reason := ex.pop(rt)
	if reason != nil {
		return reason
	}
	addr := wordToAddress(&addrWord)
	if r := ex.chargeAccountAccess(rt, addr); r != nil {
		return r
	}
	return ex.pushWord(rt, ex.Backend.Basic(addr).Balance)
}

func (ex *Executor) opCalldataload(rt *Runtime) *ExitReason {
	offW, reason := ex.pop(rt)
	if reason != nil {
		return reason
	}
	var buf [32]byte
	if offW.IsUint64() {
		off := offW.Uint64()
		for i := 0; i < 32; i++ {
			pos := off + uint64(i)
			if pos < uint64(len(rt.Machine.CallData)) {
				buf[i] = rt.Machine.CallData[pos]
			}
		}
	}
	var w Word
	w.SetBytes(buf[:])
	return ex.push(rt, &w)
}

// opDataCopy implements CALLDATACOPY/CODECOPY/RETURNDATACOPY: pop
// (destOffset, srcOffset, length), copy from src with out-of-range
// zero-fill, charging memory expansion plus 3 gas/word. strictBounds
// additionally fails RETURNDATACOPY whose range runs past the source
// rather than silently zero-filling it.
func (ex *Executor) opDataCopy(rt *Runtime, src []byte, strictBounds bool) *ExitReason {
	destOffW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	srcOffW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	lengthW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	destOff, ok := SafeUint256ToUint64(&destOffW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	srcOff, ok := SafeUint256ToUint64(&srcOffW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	length, ok := SafeUint256ToUint64(&lengthW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}

	if strictBounds {
		end, ok := addUint64Checked(srcOff, length)
		if !ok || end > uint64(len(src)) {
			reason := ExitError(ErrInvalidRange)
			return &reason
		}
	}

	if reason := ex.chargeMemoryExpansion(rt, destOff, length); reason != nil {
		return reason
	}
	words := (length + 31) / 32
	if err := rt.Substate.Gasometer.RecordCost(words * 3); err != nil {
		reason := ExitError(err)
		return &reason
	}

	if err := rt.Machine.Memory.CopyLarge(destOff, srcOff, length, src); err != nil {
		reason := ExitError(err)
		return &reason
	}
	return nil
}

func (ex *Executor) opExtcodesize(rt *Runtime) *ExitReason {
	addrW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	addr := wordToAddress(&addrW)
	if reason := ex.chargeAccountAccess(rt, addr); reason != nil {
		return reason
	}
	return ex.pushUint64(rt, uint64(ex.Backend.CodeSize(addr)))
}

func (ex *Executor) opExtcodehash(rt *Runtime) *ExitReason {
	addrW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	addr := wordToAddress(&addrW)
	if reason := ex.chargeAccountAccess(rt, addr); reason != nil {
		return reason
	}
	if !ex.Backend.Exists(addr) {
		return ex.pushUint64(rt, 0)
	}
	var w Word
	w.SetBytes(ex.Backend.CodeHash(addr).Bytes())
	return ex.push(rt, &w)
}

func (ex *Executor) opExtcodecopy(rt *Runtime) *ExitReason {
	addrW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	addr := wordToAddress(&addrW)
	if reason := ex.chargeAccountAccess(rt, addr); reason != nil {
		return reason
	}
	return ex.opDataCopy(rt, ex.Backend.Code(addr), false)
}

func (ex *Executor) opBlockhash(rt *Runtime) *ExitReason {
	nW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	if !nW.IsUint64() || rt.Env.Block.GetHash == nil {
		return ex.pushUint64(rt, 0)
	}
	hash := rt.Env.Block.GetHash(nW.Uint64())
	var w Word
	w.SetBytes(hash.Bytes())
	return ex.push(rt, &w)
}

// chargeAccountAccess applies EIP-2929 cold/warm account-access pricing
// when active, or the flat legacy cost otherwise.
func (ex *Executor) chargeAccountAccess(rt *Runtime, addr types.Address) *ExitReason {
	var cost uint64
	if ex.Config.IncreaseStateAccessGas {
		if rt.Substate.TouchAddress(addr) {
			cost = 2600
		} else {
			cost = 100
		}
	} else {
		cost = 700
	}
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}
	return nil
}

// --- storage opcodes ---

func (ex *Executor) opSload(rt *Runtime) *ExitReason {
	keyW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	keyBytes := keyW.Bytes32()
	key := types.BytesToHash(keyBytes[:])
	addr := rt.Env.Call.StorageOwner

	var cost uint64
	if ex.Config.IncreaseStateAccessGas {
		if rt.Substate.TouchSlot(addr, key) {
			cost = 2100
		} else {
			cost = 100
		}
	} else {
		cost = 200
	}
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}

	val := ex.Backend.Storage(addr, key)
	var w Word
	w.SetBytes(val.Bytes())
	return ex.push(rt, &w)
}

const sstoreSentryGas = 2300

// opSstore implements EIP-2200 net-metered storage writes with the
// EIP-3529 reduced clear refund post-London, plus an EIP-2929 cold-slot
// surcharge of 2100 added on top of whichever branch's cost applies.
func (ex *Executor) opSstore(rt *Runtime) *ExitReason {
	if reason := ex.requireNotStatic(rt); reason != nil {
		return reason
	}
	if rt.Substate.Gasometer.Gas() <= sstoreSentryGas {
		reason := ExitError(ErrOutOfGas)
		return &reason
	}

	keyW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	valW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	keyBytes := keyW.Bytes32()
	valBytes := valW.Bytes32()
	key := types.BytesToHash(keyBytes[:])
	value := types.BytesToHash(valBytes[:])
	addr := rt.Env.Call.StorageOwner

	clearRefund := uint64(15000)
	if ex.Config.MaxRefundQuotient == 5 { // post-London, EIP-3529
		clearRefund = 4800
	}

	cold := false
	if ex.Config.IncreaseStateAccessGas {
		cold = rt.Substate.TouchSlot(addr, key)
	}

	current := ex.Backend.Storage(addr, key)
	original := ex.Backend.OriginalStorage(addr, key)

	var cost uint64
	switch {
	case current == value:
		cost = 100
	case original == current:
		switch {
		case original == (types.Hash{}):
			cost = 20000
		case value == (types.Hash{}):
			cost = 2900
			rt.Substate.Gasometer.RecordRefund(int64(clearRefund))
		default:
			cost = 2900
		}
	default:
		cost = 100
		if original != (types.Hash{}) {
			if current == (types.Hash{}) {
				rt.Substate.Gasometer.RecordRefund(-int64(clearRefund))
			}
			if value == (types.Hash{}) {
				rt.Substate.Gasometer.RecordRefund(int64(clearRefund))
			}
		}
		if original == value {
			if original == (types.Hash{}) {
				rt.Substate.Gasometer.RecordRefund(20000 - 100)
			} else {
				rt.Substate.Gasometer.RecordRefund(2900 - 100)
			}
		}
	}
	if cold {
		cost += 2100
	}

	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}
	ex.Backend.SetStorage(addr, key, value)
	return nil
}

// --- logging ---

func (ex *Executor) opLog(rt *Runtime, n int) *ExitReason {
	if reason := ex.requireNotStatic(rt); reason != nil {
		return reason
	}
	offW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	lenW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	topics := make([]types.Hash, n)
	for i := 0; i < n; i++ {
		tw, r := ex.pop(rt)
		if r != nil {
			return r
		}
		tb := tw.Bytes32()
		topics[i] = types.BytesToHash(tb[:])
	}
	offset, ok := SafeUint256ToUint64(&offW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	length, ok := SafeUint256ToUint64(&lenW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}

	if reason := ex.chargeMemoryExpansion(rt, offset, length); reason != nil {
		return reason
	}
	cost := uint64(375) + uint64(n)*375 + length*8
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}

	data, err := rt.Machine.Memory.Get(offset, length)
	if err != nil {
		reason := ExitError(err)
		return &reason
	}
	rt.Substate.AppendLog(types.Log{
		Address: rt.Env.Call.StorageOwner,
		Topics:  topics,
		Data:    data,
	})
	return nil
}

// --- CREATE / CREATE2 ---

func (ex *Executor) opCreate(rt *Runtime, salted bool) *ExitReason {
	if reason := ex.requireNotStatic(rt); reason != nil {
		return reason
	}
	valueW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	offW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	lenW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	var saltW Word
	if salted {
		saltW, r = ex.pop(rt)
		if r != nil {
			return r
		}
	}
	offset, ok := SafeUint256ToUint64(&offW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	length, ok := SafeUint256ToUint64(&lenW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}

	if reason := ex.chargeMemoryExpansion(rt, offset, length); reason != nil {
		return reason
	}
	if salted {
		words := (length + 31) / 32
		if err := rt.Substate.Gasometer.RecordCost(words * 6); err != nil {
			reason := ExitError(err)
			return &reason
		}
	}

	initCode, err := rt.Machine.Memory.Get(offset, length)
	if err != nil {
		reason := ExitError(err)
		return &reason
	}
	caller := rt.Env.Call.StorageOwner

	var target types.Address
	if salted {
		saltBytes := saltW.Bytes32()
		salt := types.BytesToHash(saltBytes[:])
		target = Create2Address(caller, salt, initCode)
	} else {
		target = CreateAddress(caller, ex.Backend.Basic(caller).Nonce)
	}

	value := &valueW
	reason, output := ex.createInner(rt.Substate, caller, target, value, initCode, rt.Substate.Gasometer.Gas())
	rt.LastReturnData = output

	if reason.IsSucceed() {
		return ex.pushAddress(rt, target)
	}
	return ex.pushUint64(rt, 0)
}

// --- CALL family ---

type callKind uint8

const (
	callKindCall callKind = iota
	callKindCallCode
	callKindDelegateCall
	callKindStaticCall
)

func (ex *Executor) opCall(rt *Runtime, kind callKind) *ExitReason {
	gasW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	addrW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	target := wordToAddress(&addrW)

	var value Word
	if kind == callKindCall || kind == callKindCallCode {
		value, r = ex.pop(rt)
		if r != nil {
			return r
		}
	}
	if kind == callKindCall && !value.IsZero() {
		if reason := ex.requireNotStatic(rt); reason != nil {
			return reason
		}
	}

	argsOffW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	argsLenW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	retOffW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	retLenW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	argsOff, ok := SafeUint256ToUint64(&argsOffW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	argsLen, ok := SafeUint256ToUint64(&argsLenW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	retOff, ok := SafeUint256ToUint64(&retOffW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}
	retLen, ok := SafeUint256ToUint64(&retLenW)
	if !ok {
		reason := ExitError(ErrOutOfOffset)
		return &reason
	}

	if reason := ex.chargeMemoryExpansion(rt, argsOff, argsLen); reason != nil {
		return reason
	}
	if reason := ex.chargeMemoryExpansion(rt, retOff, retLen); reason != nil {
		return reason
	}
	if reason := ex.chargeAccountAccess(rt, target); reason != nil {
		return reason
	}

	input, err := rt.Machine.Memory.Get(argsOff, argsLen)
	if err != nil {
		reason := ExitError(err)
		return &reason
	}

	var callCtx CallContext
	isStatic := rt.Substate.IsStatic
	switch kind {
	case callKindCall:
		callCtx = CallContext{Address: target, StorageOwner: target, Caller: rt.Env.Call.StorageOwner, Value: &value}
	case callKindCallCode:
		callCtx = CallContext{Address: target, StorageOwner: rt.Env.Call.StorageOwner, Caller: rt.Env.Call.StorageOwner, Value: &value}
	case callKindDelegateCall:
		callCtx = CallContext{Address: target, StorageOwner: rt.Env.Call.StorageOwner, Caller: rt.Env.Call.Caller, Value: rt.Env.Call.Value}
	case callKindStaticCall:
		callCtx = CallContext{Address: target, StorageOwner: target, Caller: rt.Env.Call.StorageOwner, Value: new(uint256.Int)}
		isStatic = true
	}

	requested := rt.Substate.Gasometer.Gas()
	if gasW.IsUint64() && gasW.Uint64() < requested {
		requested = gasW.Uint64()
	}

	reason, output := ex.callInner(rt.Substate, callCtx, target, input, requested, isStatic)
	rt.LastReturnData = output

	copyLen := retLen
	if uint64(len(output)) < copyLen {
		copyLen = uint64(len(output))
	}
	if err := rt.Machine.Memory.Set(retOff, retLen, output[:copyLen]); err != nil {
		reason := ExitError(err)
		return &reason
	}

	if reason.IsSucceed() {
		return ex.pushBool(rt, true)
	}
	return ex.pushBool(rt, false)
}

// --- SELFDESTRUCT ---

func (ex *Executor) opSelfdestruct(rt *Runtime) *ExitReason {
	if reason := ex.requireNotStatic(rt); reason != nil {
		return reason
	}
	beneficiaryW, r := ex.pop(rt)
	if r != nil {
		return r
	}
	beneficiary := wordToAddress(&beneficiaryW)

	cost := uint64(5000)
	if ex.Config.IncreaseStateAccessGas && rt.Substate.TouchAddress(beneficiary) {
		cost += 2600
	}
	self := rt.Env.Call.StorageOwner
	if !ex.Backend.Basic(self).Balance.IsZero() && !ex.Backend.Exists(beneficiary) {
		cost += 25000
	}
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}

	balance := ex.Backend.Basic(self).Balance
	_ = ex.Backend.Transfer(self, beneficiary, balance)
	ex.Backend.SetDeleted(self)

	reason := ExitSucceed(SucceedSuicided)
	return &reason
}

// wordToAddress takes the low 20 bytes of a stack word, the EVM's
// convention for any opcode that pops an address.
func wordToAddress(w *Word) types.Address {
	var addr types.Address
	b := w.Bytes32()
	copy(addr[:], b[12:])
	return addr
}
