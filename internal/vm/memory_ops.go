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

import "golang.org/x/crypto/sha3"

func opPop(m *Machine) Control {
	if _, err := m.Stack.Pop(); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opMload(m *Machine) Control {
	offset, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	off, ok := SafeUint256ToUint64(&offset)
	if !ok {
		return ControlExit(ExitError(ErrOutOfOffset))
	}
	data, err := m.Memory.Get(off, 32)
	if err != nil {
		return ControlExit(ExitError(err))
	}
	var r Word
	r.SetBytes(data)
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opMstore(m *Machine) Control {
	offset, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	val, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	off, ok := SafeUint256ToUint64(&offset)
	if !ok {
		return ControlExit(ExitError(ErrOutOfOffset))
	}
	if err := m.Memory.Set32(off, &val); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opMstore8(m *Machine) Control {
	offset, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	val, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	off, ok := SafeUint256ToUint64(&offset)
	if !ok {
		return ControlExit(ExitError(ErrOutOfOffset))
	}
	if err := m.Memory.Set(off, 1, []byte{byte(val.Uint64())}); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opMsize(m *Machine) Control {
	var r Word
	r.SetUint64(m.Memory.Len())
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

// memOffsetLen reads an (offset, length) pair off the top of the stack
// (offset on top) without mutating stack order guarantees beyond the pop.
func memOffsetLen(m *Machine) (offset, length uint64, err error) {
	o, err := m.Stack.Peek(0)
	if err != nil {
		return 0, 0, err
	}
	l, err := m.Stack.Peek(1)
	if err != nil {
		return 0, 0, err
	}
	if l.IsZero() {
		return 0, 0, nil
	}
	offset, ok := SafeUint256ToUint64(&o)
	if !ok {
		return 0, 0, ErrOutOfOffset
	}
	length, ok := SafeUint256ToUint64(&l)
	if !ok {
		return 0, 0, ErrOutOfOffset
	}
	return offset, length, nil
}

func gasMemMload(m *Machine) (uint64, error) {
	off, err := m.Stack.Peek(0)
	if err != nil {
		return 0, err
	}
	offU64, ok := SafeUint256ToUint64(&off)
	if !ok {
		return 0, ErrOutOfOffset
	}
	end, overflow := addUint64(offU64, 32)
	if overflow {
		return 0, ErrOutOfOffset
	}
	return MemoryExpansionCost(m.Memory.Len(), end), nil
}

func gasMemMstore(m *Machine) (uint64, error) { return gasMemMload(m) }

func gasMemMstore8(m *Machine) (uint64, error) {
	off, err := m.Stack.Peek(0)
	if err != nil {
		return 0, err
	}
	offU64, ok := SafeUint256ToUint64(&off)
	if !ok {
		return 0, ErrOutOfOffset
	}
	end, overflow := addUint64(offU64, 1)
	if overflow {
		return 0, ErrOutOfOffset
	}
	return MemoryExpansionCost(m.Memory.Len(), end), nil
}

func gasMemReturnRevert(m *Machine) (uint64, error) {
	offset, length, err := memOffsetLen(m)
	if err != nil {
		return 0, err
	}
	if length == 0 {
		return 0, nil
	}
	end, overflow := addUint64(offset, length)
	if overflow {
		return 0, ErrOutOfOffset
	}
	return MemoryExpansionCost(m.Memory.Len(), end), nil
}

func gasKeccak256(m *Machine) (uint64, error) {
	offset, length, err := memOffsetLen(m)
	if err != nil {
		return 0, err
	}
	if length == 0 {
		return 0, nil
	}
	end, overflow := addUint64(offset, length)
	if overflow {
		return 0, ErrOutOfOffset
	}
	expansion := MemoryExpansionCost(m.Memory.Len(), end)
	words := wordsFor(length)
	return expansion + words*6, nil
}

// opKeccak256 is KECCAK256(offset, length): a pure opcode, not a trap — it
// only touches stack and memory, so the interpreter computes it directly
// instead of surrendering to the host.
func opKeccak256(m *Machine) Control {
	offset, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	length, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	off, ok := SafeUint256ToUint64(&offset)
	if !ok {
		return ControlExit(ExitError(ErrOutOfOffset))
	}
	l, ok := SafeUint256ToUint64(&length)
	if !ok {
		return ControlExit(ExitError(ErrOutOfOffset))
	}
	data, err := m.Memory.Get(off, l)
	if err != nil {
		return ControlExit(ExitError(err))
	}
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	sum := hash.Sum(nil)
	var r Word
	r.SetBytes(sum)
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}
