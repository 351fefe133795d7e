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

import "github.com/ethforge/evmcore/types"

// Capture is what a Machine run produces when it stops stepping: either a
// terminal exit, or a trap surrendering a side-effecting opcode to the host.
type Capture struct {
	Exit    *ExitReason
	TrapOp  OpCode
	IsTrap  bool
}

// Machine is the bare fetch-decode-execute interpreter: program code, call
// data, a program counter, a return range, a valids map, memory and a
// stack. It knows nothing about gas, substates, or the outside world —
// those are the executor's concern; the machine only runs until it needs
// one of them.
type Machine struct {
	Code     []byte
	CallData []byte

	pc          uint64
	pcUnderflow bool
	exitReason  *ExitReason

	returnOffset uint64
	returnLength uint64

	valids *Valids
	Stack  *Stack
	Memory *Memory

	jumpTable *JumpTable
}

// NewMachine creates a fresh machine at PC 0 with empty stack and memory,
// ready to run code against calldata under jt. Its Valids map is always
// swept fresh; callers that know code's hash and want the cached Valids of
// a repeatedly-invoked deployed contract should use NewMachineForCode.
func NewMachine(code, calldata []byte, cfg Config, jt *JumpTable) *Machine {
	return newMachine(code, calldata, NewValids(code), cfg, jt)
}

// NewMachineForCode is NewMachine plus a codeHash used to reuse a
// previously-computed Valids bitmap across repeated CALLs into the same
// deployed contract, via ValidsForCode.
func NewMachineForCode(code, calldata []byte, codeHash types.Hash, cfg Config, jt *JumpTable) *Machine {
	return newMachine(code, calldata, ValidsForCode(codeHash, code), cfg, jt)
}

func newMachine(code, calldata []byte, valids *Valids, cfg Config, jt *JumpTable) *Machine {
	return &Machine{
		Code:      code,
		CallData:  calldata,
		valids:    valids,
		Stack:     NewStack(cfg.StackLimit),
		Memory:    NewMemory(cfg.MemoryLimit),
		jumpTable: jt,
	}
}

// PC returns the current program counter.
func (m *Machine) PC() uint64 { return m.pc }

// CurrentOp exposes the opcode about to execute, so the executor's
// pre_validate hook can look up its gas schedule before stepping the
// machine.
func (m *Machine) CurrentOp() OpCode { return m.currentOp() }

// CurrentOperation returns the dispatch-table entry for the opcode about to
// execute.
func (m *Machine) CurrentOperation() *Operation { return m.jumpTable[m.currentOp()] }

// currentOp fetches the opcode at pc, treating any position at or past the
// end of code as an implicit STOP.
func (m *Machine) currentOp() OpCode {
	if m.pc >= uint64(len(m.Code)) {
		return STOP
	}
	return OpCode(m.Code[m.pc])
}

// Step executes exactly one opcode, returning a non-nil Capture when the
// machine has stopped (terminal exit or trap) and nil while still running.
func (m *Machine) Step() *Capture {
	if m.exitReason != nil {
		r := *m.exitReason
		return &Capture{Exit: &r}
	}

	op := m.currentOp()
	operation := m.jumpTable[op]

	if sLen := m.Stack.Len(); sLen < operation.MinStack {
		reason := ExitError(ErrStackUnderflow)
		m.exitReason = &reason
		return &Capture{Exit: &reason}
	} else if sLen > operation.MaxStack {
		reason := ExitError(ErrStackOverflow)
		m.exitReason = &reason
		return &Capture{Exit: &reason}
	}

	opcodesExecuted.WithLabelValues(op.String()).Inc()
	ctl := operation.Execute(m)

	switch {
	case ctl.IsContinue():
		m.pc += uint64(ctl.ContinueBy())
		return nil
	case ctl.IsJump():
		m.pc = ctl.JumpTarget()
		return nil
	case ctl.IsExit():
		reason := ctl.ExitReason()
		m.exitReason = &reason
		return &Capture{Exit: &reason}
	default: // trap
		m.pc++
		return &Capture{TrapOp: ctl.TrapOpcode(), IsTrap: true}
	}
}

// SetExit force-terminates the machine, used by the executor after it has
// performed a trapped opcode's real effect and wants to end the frame
// (e.g. a failed precompile call, or a host-detected fatal condition).
func (m *Machine) SetExit(reason ExitReason) {
	m.exitReason = &reason
}

// SetReturnRange records the (offset, length) pair a RETURN/REVERT opcode
// set, read by the executor after the frame exits to extract the output.
func (m *Machine) SetReturnRange(offset, length uint64) {
	m.returnOffset = offset
	m.returnLength = length
}

// ReturnValue extracts the frame's output from memory according to the
// return range. Both endpoints saturate to memory's logical size: any
// portion past it is zero-filled rather than read out of bounds, so the
// returned slice always has exactly length bytes regardless of whether
// memory ever grew to cover the range.
func (m *Machine) ReturnValue() []byte {
	if m.returnLength == 0 {
		return []byte{}
	}
	out := make([]byte, m.returnLength)
	memLen := m.Memory.Len()
	if m.returnOffset >= memLen {
		return out
	}
	end := m.returnOffset + m.returnLength
	if end > memLen {
		end = memLen
	}
	copy(out, m.Memory.store[m.returnOffset:end])
	return out
}

// ValidJumpDest reports whether dest is a JUMPDEST outside any push payload.
func (m *Machine) ValidJumpDest(dest uint64) bool {
	return m.valids.IsValid(dest)
}
