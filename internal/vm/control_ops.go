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

func opStop(m *Machine) Control {
	return ControlExit(ExitSucceed(SucceedStopped))
}

func opJump(m *Machine) Control {
	dest, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	d, ok := SafeUint256ToUint64(&dest)
	if !ok || !m.ValidJumpDest(d) {
		return ControlExit(ExitError(ErrInvalidJump))
	}
	return ControlJump(d)
}

func opJumpi(m *Machine) Control {
	dest, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	cond, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	if cond.IsZero() {
		return ControlContinue(1)
	}
	d, ok := SafeUint256ToUint64(&dest)
	if !ok || !m.ValidJumpDest(d) {
		return ControlExit(ExitError(ErrInvalidJump))
	}
	return ControlJump(d)
}

func opPc(m *Machine) Control {
	var r Word
	r.SetUint64(m.PC())
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opJumpdest(m *Machine) Control {
	return ControlContinue(1)
}

// opReturn implements RETURN(offset, length): sets the frame's return range
// and exits successfully with the RETURN payload.
func opReturn(m *Machine) Control {
	offset, length, err := popReturnRange(m)
	if err != nil {
		return ControlExit(ExitError(err))
	}
	m.SetReturnRange(offset, length)
	return ControlExit(ExitSucceed(SucceedReturned))
}

// opRevert implements REVERT(offset, length): sets the return range and
// exits with Revert(Reverted), refunding the frame's remaining gas to the
// caller.
func opRevert(m *Machine) Control {
	offset, length, err := popReturnRange(m)
	if err != nil {
		return ControlExit(ExitError(err))
	}
	m.SetReturnRange(offset, length)
	return ControlExit(ExitRevert(RevertReverted))
}

func popReturnRange(m *Machine) (offset, length uint64, err error) {
	o, err := m.Stack.Pop()
	if err != nil {
		return 0, 0, err
	}
	l, err := m.Stack.Pop()
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
