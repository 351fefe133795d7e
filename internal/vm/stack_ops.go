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

// makePush builds the Execute function for PUSHn: it reads n bytes of
// immediate literal data following the opcode byte, zero-filling any
// portion that runs past the end of code, and pushes the resulting word.
func makePush(n int) executeFunc {
	return func(m *Machine) Control {
		start := m.PC() + 1
		buf := make([]byte, n)
		for i := 0; i < n; i++ {
			pos := start + uint64(i)
			if pos < uint64(len(m.Code)) {
				buf[i] = m.Code[pos]
			}
		}
		var r Word
		r.SetBytes(buf)
		if err := m.Stack.Push(&r); err != nil {
			return ControlExit(ExitError(err))
		}
		return ControlContinue(1 + n)
	}
}

func makeDup(n int) executeFunc {
	return func(m *Machine) Control {
		if err := m.Stack.Dup(n); err != nil {
			return ControlExit(ExitError(err))
		}
		return ControlContinue(1)
	}
}

func makeSwap(n int) executeFunc {
	return func(m *Machine) Control {
		if err := m.Stack.Swap(n); err != nil {
			return ControlExit(ExitError(err))
		}
		return ControlContinue(1)
	}
}
