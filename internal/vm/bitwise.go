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

func boolWord(b bool) Word {
	if b {
		return *new(Word).SetOne()
	}
	return Word{}
}

func opLt(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { return boolWord(top.Lt(second)) })
}

func opGt(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { return boolWord(top.Gt(second)) })
}

func opSlt(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { return boolWord(top.Slt(second)) })
}

func opSgt(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { return boolWord(top.Sgt(second)) })
}

func opEq(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { return boolWord(top.Eq(second)) })
}

func opIszero(m *Machine) Control {
	v, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	r := boolWord(v.IsZero())
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opAnd(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.And(top, second) })
}

func opOr(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.Or(top, second) })
}

func opXor(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.Xor(top, second) })
}

func opNot(m *Machine) Control {
	v, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	var r Word
	r.Not(&v)
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

// opByte implements BYTE(i, x): pop order is i (top), x. Returns byte i of
// x counting from the most significant byte, or zero if i >= 32.
func opByte(m *Machine) Control {
	return binOp(m, func(i, x *Word) Word {
		r := *x
		r.Byte(i)
		return r
	})
}

// opShl implements SHL(shift, value): pop order is shift (top), value.
func opShl(m *Machine) Control {
	return binOp(m, func(shift, value *Word) Word {
		var r Word
		if shift.GtUint64(255) {
			return r
		}
		return *r.Lsh(value, uint(shift.Uint64()))
	})
}

// opShr implements SHR(shift, value): pop order is shift (top), value.
func opShr(m *Machine) Control {
	return binOp(m, func(shift, value *Word) Word {
		var r Word
		if shift.GtUint64(255) {
			return r
		}
		return *r.Rsh(value, uint(shift.Uint64()))
	})
}

// opSar implements SAR(shift, value): pop order is shift (top), value.
// A shift amount of 256 or more yields 0 for a non-negative value and
// all-ones for a negative value.
func opSar(m *Machine) Control {
	return binOp(m, func(shift, value *Word) Word {
		var r Word
		if shift.GtUint64(255) {
			if value.Sign() < 0 {
				return *r.SetAllOne()
			}
			return r
		}
		return *r.SRsh(value, uint(shift.Uint64()))
	})
}
