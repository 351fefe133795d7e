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

// Gasometer tracks one frame's gas account: what it started with, what's
// been spent, and what refunds it has accrued. The interpreter never calls
// it directly; the executor's pre_validate hook does, once per opcode,
// before handing control to the opcode's semantics.
type Gasometer struct {
	limit   uint64
	usedGas uint64
	refund  uint64
	maxRefundQuotient uint64
}

// NewGasometer creates a gasometer for a frame with the given gas limit.
func NewGasometer(limit uint64, maxRefundQuotient uint64) *Gasometer {
	return &Gasometer{limit: limit, maxRefundQuotient: maxRefundQuotient}
}

// Gas returns the gas remaining in the frame.
func (g *Gasometer) Gas() uint64 { return g.limit - g.usedGas }

// UsedGas returns the gas spent so far in the frame, before refund.
func (g *Gasometer) UsedGas() uint64 { return g.usedGas }

// RefundedGas returns the refund accrued so far, uncapped.
func (g *Gasometer) RefundedGas() uint64 { return g.refund }

// RecordCost charges a static, opcode-level cost. Returns ErrOutOfGas
// without mutating state if cost exceeds what remains.
func (g *Gasometer) RecordCost(cost uint64) error {
	if cost > g.Gas() {
		return ErrOutOfGas
	}
	g.usedGas += cost
	return nil
}

// RecordDynamicCost charges a dynamic cost computed by an opcode's gas
// function (memory expansion, storage net-metering, call/create carve-outs).
// Identical mechanics to RecordCost; kept as a distinct method so callers
// read clearly at the call site which kind of charge is happening.
func (g *Gasometer) RecordDynamicCost(cost uint64) error {
	return g.RecordCost(cost)
}

// RecordRefund adds (or, if negative in effect, removes) delta from the
// frame's accrued refund. SSTORE writing a nonzero value into a slot whose
// original value was nonzero but which an earlier write cleared is the only
// case that removes a previously granted refund.
func (g *Gasometer) RecordRefund(delta int64) {
	if delta >= 0 {
		g.refund += uint64(delta)
		return
	}
	sub := uint64(-delta)
	if sub > g.refund {
		g.refund = 0
		return
	}
	g.refund -= sub
}

// RecordStipend credits additional gas to the frame, used when a child
// frame exits and its unused gas (and/or the fixed CALL stipend) is handed
// back to the parent.
func (g *Gasometer) RecordStipend(amount uint64) {
	g.limit += amount
}

// RecordTransaction charges the upfront, transaction-level intrinsic cost
// (base fee, calldata cost, access-list cost). No per-word init-code cost
// is part of it for contract-creating transactions.
func (g *Gasometer) RecordTransaction(cost uint64) error {
	return g.RecordCost(cost)
}

// RecordDeposit charges the per-byte code-deposit cost for a successful
// CREATE/CREATE2, 200 gas per byte of the code the init code returns.
func (g *Gasometer) RecordDeposit(codeLen int) error {
	return g.RecordCost(uint64(codeLen) * 200)
}

// Fail consumes all remaining gas in the frame, the Error-class exit
// convention: a recoverable error loses the whole frame's gas budget.
func (g *Gasometer) Fail() {
	g.usedGas = g.limit
}

// FinalRefund returns the refund actually applied on transaction exit,
// capped at usedGas/maxRefundQuotient per EIP-3529 (post-London) or the
// pre-London quotient of 2.
func (g *Gasometer) FinalRefund() uint64 {
	cap := g.usedGas / g.maxRefundQuotient
	if g.refund < cap {
		return g.refund
	}
	return cap
}

// memoryGasCost computes the quadratic memory-expansion cost for growing
// memory to cover newWords 32-byte words, per 3·w + w²/512.
func memoryGasCost(words uint64) uint64 {
	return 3*words + (words*words)/512
}

// MemoryExpansionCost returns the incremental cost of growing memory's
// logical length from currentLen bytes to cover newEnd bytes, or zero if
// newEnd does not require growth.
func MemoryExpansionCost(currentLen, newEnd uint64) uint64 {
	if newEnd <= currentLen {
		return 0
	}
	currentWords := wordsFor(currentLen)
	newWords := wordsFor(newEnd)
	return memoryGasCost(newWords) - memoryGasCost(currentWords)
}

// CallGasL64 applies the EIP-150 63/64 rule: the child frame may receive at
// most floor(available*63/64) gas regardless of the amount requested.
func CallGasL64(available uint64) uint64 {
	return available - available/64
}
