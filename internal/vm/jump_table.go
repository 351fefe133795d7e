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

// executeFunc is the pure state transformer for one opcode: it mutates the
// machine's stack/memory/PC and returns a Control signal. It never touches
// gas directly; the executor's pre_validate hook charges gas before this
// runs.
type executeFunc func(m *Machine) Control

// Operation is one entry of the dispatch table: the static gas cost, an
// optional dynamic gas function, the stack bounds Machine.Step checks
// before dispatch, and the opcode's semantics.
type Operation struct {
	Execute     executeFunc
	ConstantGas uint64
	DynamicGas  func(m *Machine) (uint64, error)
	MinStack    int
	MaxStack    int
}

// JumpTable is the 256-entry static dispatch table. Unassigned slots hold
// the designated-invalid operation.
type JumpTable [256]*Operation

var invalidOp = &Operation{
	Execute:     func(m *Machine) Control { return ControlExit(ExitError(ErrDesignatedInvalid)) },
	ConstantGas: 0,
	MinStack:    minStack(0, 0),
	MaxStack:    maxStack(0, 0),
}

// minStack and maxStack mirror go-ethereum's jump table: minStack is simply
// the number of words an opcode pops, while maxStack is the highest stack
// length that still leaves room for its net push after popping, so that
// neither a pop nor the following push can under/overflow the 1024-word
// stack.
func minStack(pops, push int) int {
	return pops
}

func maxStack(pops, push int) int {
	return stackLimitWords + pops - push
}

func minDupStack(n int) int  { return minStack(n, n+1) }
func maxDupStack(n int) int  { return maxStack(n, n+1) }
func minSwapStack(n int) int { return minStack(n+1, n+1) }
func maxSwapStack(n int) int { return maxStack(n+1, n+1) }

const stackLimitWords = 1024

// NewJumpTable builds the dispatch table for the given rule-derived
// configuration. It is built once per Config and shared read-only across
// every Machine run under that configuration.
func NewJumpTable(cfg Config) *JumpTable {
	jt := &JumpTable{}
	for i := range jt {
		jt[i] = invalidOp
	}

	set := func(op OpCode, pops, push int, o *Operation) {
		o.MinStack = minStack(pops, push)
		o.MaxStack = maxStack(pops, push)
		jt[op] = o
	}

	set(STOP, 0, 0, &Operation{Execute: opStop, ConstantGas: 0})

	set(ADD, 2, 1, &Operation{Execute: opAdd, ConstantGas: gasFastestStep})
	set(MUL, 2, 1, &Operation{Execute: opMul, ConstantGas: gasFastStep})
	set(SUB, 2, 1, &Operation{Execute: opSub, ConstantGas: gasFastestStep})
	set(DIV, 2, 1, &Operation{Execute: opDiv, ConstantGas: gasFastStep})
	set(SDIV, 2, 1, &Operation{Execute: opSdiv, ConstantGas: gasFastStep})
	set(MOD, 2, 1, &Operation{Execute: opMod, ConstantGas: gasFastStep})
	set(SMOD, 2, 1, &Operation{Execute: opSmod, ConstantGas: gasFastStep})
	set(ADDMOD, 3, 1, &Operation{Execute: opAddmod, ConstantGas: gasMidStep})
	set(MULMOD, 3, 1, &Operation{Execute: opMulmod, ConstantGas: gasMidStep})
	set(EXP, 2, 1, &Operation{Execute: opExp, ConstantGas: gasSlowStep, DynamicGas: gasExpDynamic})
	set(SIGNEXTEND, 2, 1, &Operation{Execute: opSignExtend, ConstantGas: gasFastStep})

	set(LT, 2, 1, &Operation{Execute: opLt, ConstantGas: gasFastestStep})
	set(GT, 2, 1, &Operation{Execute: opGt, ConstantGas: gasFastestStep})
	set(SLT, 2, 1, &Operation{Execute: opSlt, ConstantGas: gasFastestStep})
	set(SGT, 2, 1, &Operation{Execute: opSgt, ConstantGas: gasFastestStep})
	set(EQ, 2, 1, &Operation{Execute: opEq, ConstantGas: gasFastestStep})
	set(ISZERO, 1, 1, &Operation{Execute: opIszero, ConstantGas: gasFastestStep})
	set(AND, 2, 1, &Operation{Execute: opAnd, ConstantGas: gasFastestStep})
	set(OR, 2, 1, &Operation{Execute: opOr, ConstantGas: gasFastestStep})
	set(XOR, 2, 1, &Operation{Execute: opXor, ConstantGas: gasFastestStep})
	set(NOT, 1, 1, &Operation{Execute: opNot, ConstantGas: gasFastestStep})
	set(BYTE, 2, 1, &Operation{Execute: opByte, ConstantGas: gasFastestStep})
	set(SHL, 2, 1, &Operation{Execute: opShl, ConstantGas: gasFastestStep})
	set(SHR, 2, 1, &Operation{Execute: opShr, ConstantGas: gasFastestStep})
	set(SAR, 2, 1, &Operation{Execute: opSar, ConstantGas: gasFastestStep})

	set(KECCAK256, 2, 1, &Operation{Execute: opKeccak256, ConstantGas: 30, DynamicGas: gasKeccak256})

	trapStackEffects := map[OpCode][2]int{
		ADDRESS: {0, 1}, BALANCE: {1, 1}, ORIGIN: {0, 1}, CALLER: {0, 1},
		CALLVALUE: {0, 1}, CALLDATALOAD: {1, 1}, CALLDATASIZE: {0, 1},
		CALLDATACOPY: {3, 0}, CODESIZE: {0, 1}, CODECOPY: {3, 0},
		GASPRICE: {0, 1}, EXTCODESIZE: {1, 1}, EXTCODECOPY: {4, 0},
		RETURNDATASIZE: {0, 1}, RETURNDATACOPY: {3, 0}, EXTCODEHASH: {1, 1},
		BLOCKHASH: {1, 1}, COINBASE: {0, 1}, TIMESTAMP: {0, 1}, NUMBER: {0, 1},
		DIFFICULTY: {0, 1}, GASLIMIT: {0, 1}, CHAINID: {0, 1},
		SELFBALANCE: {0, 1}, BASEFEE: {0, 1},
		SLOAD: {1, 1}, SSTORE: {2, 0},
		LOG0: {2, 0}, LOG1: {3, 0}, LOG2: {4, 0}, LOG3: {5, 0}, LOG4: {6, 0},
		CREATE: {3, 1}, CALL: {7, 1}, CALLCODE: {7, 1}, DELEGATECALL: {6, 1},
		CREATE2: {4, 1}, STATICCALL: {6, 1}, SELFDESTRUCT: {1, 0},
	}
	for _, op := range []OpCode{
		ADDRESS, BALANCE, ORIGIN, CALLER, CALLVALUE, CALLDATALOAD, CALLDATASIZE,
		CALLDATACOPY, CODESIZE, CODECOPY, GASPRICE, EXTCODESIZE, EXTCODECOPY,
		RETURNDATASIZE, RETURNDATACOPY, EXTCODEHASH,
		BLOCKHASH, COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT, CHAINID,
		SELFBALANCE, BASEFEE,
		SLOAD, SSTORE,
		LOG0, LOG1, LOG2, LOG3, LOG4,
		CREATE, CALL, CALLCODE, DELEGATECALL, CREATE2, STATICCALL, SELFDESTRUCT,
	} {
		effect := trapStackEffects[op]
		set(op, effect[0], effect[1], &Operation{Execute: trapOp(op), ConstantGas: 0})
	}

	set(POP, 1, 0, &Operation{Execute: opPop, ConstantGas: gasQuickStep})
	set(MLOAD, 1, 1, &Operation{Execute: opMload, ConstantGas: gasFastestStep, DynamicGas: gasMemMload})
	set(MSTORE, 2, 0, &Operation{Execute: opMstore, ConstantGas: gasFastestStep, DynamicGas: gasMemMstore})
	set(MSTORE8, 2, 0, &Operation{Execute: opMstore8, ConstantGas: gasFastestStep, DynamicGas: gasMemMstore8})
	set(JUMP, 1, 0, &Operation{Execute: opJump, ConstantGas: gasMidStep})
	set(JUMPI, 2, 0, &Operation{Execute: opJumpi, ConstantGas: gasSlowStep})
	set(PC, 0, 1, &Operation{Execute: opPc, ConstantGas: gasQuickStep})
	set(MSIZE, 0, 1, &Operation{Execute: opMsize, ConstantGas: gasQuickStep})
	set(GAS, 0, 1, &Operation{Execute: trapOp(GAS), ConstantGas: gasQuickStep})
	set(JUMPDEST, 0, 0, &Operation{Execute: opJumpdest, ConstantGas: 1})

	for i := 0; i < 32; i++ {
		n := i + 1
		set(PUSH1+OpCode(i), 0, 1, &Operation{Execute: makePush(n), ConstantGas: gasFastestStep})
	}
	for i := 0; i < 16; i++ {
		n := i + 1
		dup := &Operation{Execute: makeDup(n), ConstantGas: gasFastestStep}
		dup.MinStack, dup.MaxStack = minDupStack(n), maxDupStack(n)
		jt[DUP1+OpCode(i)] = dup

		swap := &Operation{Execute: makeSwap(n), ConstantGas: gasFastestStep}
		swap.MinStack, swap.MaxStack = minSwapStack(n), maxSwapStack(n)
		jt[SWAP1+OpCode(i)] = swap
	}

	set(RETURN, 2, 0, &Operation{Execute: opReturn, ConstantGas: 0, DynamicGas: gasMemReturnRevert})
	set(REVERT, 2, 0, &Operation{Execute: opRevert, ConstantGas: 0, DynamicGas: gasMemReturnRevert})
	set(INVALID, 0, 0, &Operation{Execute: func(m *Machine) Control { return ControlExit(ExitError(ErrDesignatedInvalid)) }})

	return jt
}

// trapOp builds an Execute function that surrenders op to the host without
// touching the machine's stack or memory itself; the executor performs the
// opcode's real effect and pushes whatever result word the opcode defines.
func trapOp(op OpCode) executeFunc {
	return func(m *Machine) Control { return ControlTrap(op) }
}

const (
	gasQuickStep    = 2
	gasFastestStep  = 3
	gasFastStep     = 5
	gasMidStep      = 8
	gasSlowStep     = 10
	gasExtStep      = 20
)
