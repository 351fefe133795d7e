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

// binOp pops the top of stack into `top` and the next word into `second`,
// computes op(top, second), and pushes the result. op must implement
// `top OP second` — e.g. for SUB, op should return top-second, since SUB's
// popped order is (minuend, subtrahend).
func binOp(m *Machine, op func(top, second *Word) Word) Control {
	top, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	second, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	res := op(&top, &second)
	if err := m.Stack.Push(&res); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

func opAdd(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.Add(top, second) })
}

func opMul(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.Mul(top, second) })
}

func opSub(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word { var r Word; return *r.Sub(top, second) })
}

func opDiv(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word {
		var r Word
		if second.IsZero() {
			return r
		}
		return *r.Div(top, second)
	})
}

func opSdiv(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word {
		var r Word
		if second.IsZero() {
			return r
		}
		return *r.SDiv(top, second)
	})
}

func opMod(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word {
		var r Word
		if second.IsZero() {
			return r
		}
		return *r.Mod(top, second)
	})
}

func opSmod(m *Machine) Control {
	return binOp(m, func(top, second *Word) Word {
		var r Word
		if second.IsZero() {
			return r
		}
		return *r.SMod(top, second)
	})
}

// opAddmod implements ADDMOD(a, b, N): pop order is a (top), b, N.
func opAddmod(m *Machine) Control {
	a, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	b, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	n, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	var r Word
	if !n.IsZero() {
		r.AddMod(&a, &b, &n)
	}
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

// opMulmod implements MULMOD(a, b, N): pop order is a (top), b, N.
func opMulmod(m *Machine) Control {
	a, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	b, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	n, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	var r Word
	if !n.IsZero() {
		r.MulMod(&a, &b, &n)
	}
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}

// opExp implements EXP(base, exponent): pop order is base (top), exponent.
func opExp(m *Machine) Control {
	return binOp(m, func(base, exponent *Word) Word {
		var r Word
		return *r.Exp(base, exponent)
	})
}

// gasExpDynamic charges EIP-160's 50-gas-per-byte-of-exponent cost, reading
// the exponent (second word, below the base) off the stack without popping.
func gasExpDynamic(m *Machine) (uint64, error) {
	exponent, err := m.Stack.Peek(1)
	if err != nil {
		return 0, err
	}
	byteLen := (exponent.BitLen() + 7) / 8
	return uint64(byteLen) * 50, nil
}

// opSignExtend implements SIGNEXTEND(back, x): sign-extends x treating the
// bit at byte `back` (counted from the least significant byte) as the sign
// bit. Pop order is back (top), x.
func opSignExtend(m *Machine) Control {
	back, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	x, err := m.Stack.Pop()
	if err != nil {
		return ControlExit(ExitError(err))
	}
	var r Word
	r.ExtendSign(&x, &back)
	if err := m.Stack.Push(&r); err != nil {
		return ControlExit(ExitError(err))
	}
	return ControlContinue(1)
}
