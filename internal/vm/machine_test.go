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

	"github.com/ethforge/evmcore/params"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return ConfigForRules(params.AllRulesEnabled)
}

// runToExit steps m until it produces an exit Capture (no trap expected) or
// fails the test after too many steps, guarding against an infinite loop in
// a broken opcode implementation.
func runToExit(t *testing.T, m *Machine) *ExitReason {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		c := m.Step()
		if c == nil {
			continue
		}
		require.False(t, c.IsTrap, "unexpected trap on opcode %s", c.TrapOp)
		return c.Exit
	}
	t.Fatal("machine did not halt within step budget")
	return nil
}

// TestMachineAddAndReturn runs PUSH1 1 PUSH1 1 ADD PUSH1 0 MSTORE PUSH1 32
// PUSH1 0 RETURN and checks the returned word equals 2.
func TestMachineAddAndReturn(t *testing.T) {
	code := []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 1,
		byte(ADD),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsSucceed())

	out := m.ReturnValue()
	require.Len(t, out, 32)
	want := make([]byte, 32)
	want[31] = 2
	require.Equal(t, want, out)
}

// TestMachineRevertPreservesOutput runs PUSH1 0xff PUSH1 0 MSTORE8 PUSH1 1
// PUSH1 0 REVERT and checks the REVERT payload is surfaced even though the
// frame did not succeed.
func TestMachineRevertPreservesOutput(t *testing.T) {
	code := []byte{
		byte(PUSH1), 0xff,
		byte(PUSH1), 0,
		byte(MSTORE8),
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(REVERT),
	}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsRevert())
	require.Equal(t, []byte{0xff}, m.ReturnValue())
}

// TestMachineJumpToNonJumpdestIsInvalid runs PUSH1 5 JUMP where offset 5 is
// not a JUMPDEST and expects ErrInvalidJump.
func TestMachineJumpToNonJumpdestIsInvalid(t *testing.T) {
	code := []byte{
		byte(PUSH1), 5,
		byte(JUMP),
		byte(STOP),
		byte(STOP),
		byte(STOP), // offset 5: not a JUMPDEST
	}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsError())
	require.ErrorIs(t, exit.Error(), ErrInvalidJump)
}

// TestMachineJumpToPushPayloadIsInvalid confirms a JUMPDEST-valued byte that
// only exists as PUSH1's immediate operand is rejected as a jump target.
func TestMachineJumpToPushPayloadIsInvalid(t *testing.T) {
	code := []byte{
		byte(PUSH1), 4,
		byte(JUMP),
		byte(PUSH1), byte(JUMPDEST), // offset 3 is PUSH1's opcode byte, offset 4 is its payload
	}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsError())
	require.ErrorIs(t, exit.Error(), ErrInvalidJump)
}

// TestMachineConditionalJumpTaken runs a loop body: PUSH1 1 PUSH1 6 JUMPI
// STOP JUMPDEST PUSH1 7 PUSH1 0 MSTORE8 PUSH1 1 PUSH1 0 RETURN, where the
// JUMPI condition is nonzero so control lands on JUMPDEST and returns 7.
func TestMachineConditionalJumpTaken(t *testing.T) {
	code := []byte{
		byte(PUSH1), 1, // cond
		byte(PUSH1), 6, // dest
		byte(JUMPI),
		byte(STOP), // skipped
		byte(JUMPDEST),
		byte(PUSH1), 7,
		byte(PUSH1), 0,
		byte(MSTORE8),
		byte(PUSH1), 1,
		byte(PUSH1), 0,
		byte(RETURN),
	}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsSucceed())
	require.Equal(t, []byte{7}, m.ReturnValue())
}

// TestMachineDesignatedInvalid runs the INVALID opcode and expects
// ErrDesignatedInvalid.
func TestMachineDesignatedInvalid(t *testing.T) {
	code := []byte{byte(INVALID)}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsError())
	require.ErrorIs(t, exit.Error(), ErrDesignatedInvalid)
}

// TestMachineUnassignedOpcodeIsInvalid confirms an opcode byte with no
// jump-table entry (0x0c, inside the arithmetic gap) behaves identically to
// the explicit INVALID opcode.
func TestMachineUnassignedOpcodeIsInvalid(t *testing.T) {
	code := []byte{0x0c}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsError())
	require.ErrorIs(t, exit.Error(), ErrDesignatedInvalid)
}

// TestMachineRunningOffEndOfCodeImpliesStop confirms falling off the end of
// code (no explicit STOP) behaves as a successful STOP, per the Machine's
// currentOp treating any pc >= len(code) as STOP.
func TestMachineRunningOffEndOfCodeImpliesStop(t *testing.T) {
	code := []byte{byte(PUSH1), 1, byte(POP)}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	exit := runToExit(t, m)
	require.True(t, exit.IsSucceed())
}

// TestMachineTrapSurrendersOpcodeWithoutMutatingState confirms a trapped
// opcode (e.g. SLOAD) is handed to the host with its operands still on the
// stack, since the interpreter must not consume them itself.
func TestMachineTrapSurrendersOpcodeWithoutMutatingState(t *testing.T) {
	code := []byte{byte(PUSH1), 1, byte(SLOAD)}
	jt := NewJumpTable(testConfig())
	m := NewMachine(code, nil, testConfig(), jt)

	c := m.Step() // PUSH1
	require.Nil(t, c)
	c = m.Step() // SLOAD
	require.NotNil(t, c)
	require.True(t, c.IsTrap)
	require.Equal(t, SLOAD, c.TrapOp)
	require.Equal(t, 1, m.Stack.Len(), "trap must not pop the opcode's own operand")
}
