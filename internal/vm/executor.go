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
	"github.com/pkg/errors"

	"github.com/ethforge/evmcore/params"
	"github.com/ethforge/evmcore/types"
)

// Executor is the stack executor (§4.6): it owns the backend handle for a
// transaction, drives one Runtime at a time, and implements the host
// contract opcode traps call into. Nested calls are realized by recursion
// — a trapped CALL/CREATE constructs a child Runtime and runs it to
// completion before the parent resumes.
type Executor struct {
	Backend     Backend
	Rules       params.Rules
	Config      Config
	JumpTable   *JumpTable
	Precompiles PrecompileSet
	Block       BlockContext
	Tx          TxContext
}

// NewExecutor builds an executor for one transaction against backend under
// the given rules, block and transaction context.
func NewExecutor(backend Backend, rules params.Rules, precompiles PrecompileSet, block BlockContext, tx TxContext) (*Executor, error) {
	if backend == nil {
		return nil, errors.New("vm: NewExecutor: backend must not be nil")
	}
	if rules.IsLondon && !rules.IsBerlin {
		return nil, errors.Errorf("vm: NewExecutor: bad rule set: London requires Berlin (got %+v)", rules)
	}

	cfg := ConfigForRules(rules)
	return &Executor{
		Backend:     backend,
		Rules:       rules,
		Config:      cfg,
		JumpTable:   NewJumpTable(cfg),
		Precompiles: precompiles,
		Block:       block,
		Tx:          tx,
	}, nil
}

// environment builds the Environment a Runtime executes under, threading
// this executor's fixed per-transaction Block/Tx context together with the
// frame-specific call context.
func (ex *Executor) environment(callCtx CallContext) *Environment {
	return &Environment{
		Block:   ex.Block,
		Tx:      ex.Tx,
		Call:    callCtx,
		Rules:   ex.Rules,
		Config:  ex.Config,
		Backend: ex.Backend,
	}
}

const txGas = 21000

// intrinsicGas computes the upfront, transaction-level gas cost: the base
// fee, calldata cost (4 gas per zero byte, 16 post-Istanbul else 68 per
// nonzero byte), and EIP-2930 access-list cost. Init code passed by
// TransactCreate/TransactCreate2 is priced as calldata only; no per-word
// init-code charge is added.
func (ex *Executor) intrinsicGas(data []byte, accessList types.AccessList) uint64 {
	gas := uint64(txGas)

	var zero, nonzero uint64
	for _, b := range data {
		if b == 0 {
			zero++
		} else {
			nonzero++
		}
	}
	nonzeroCost := uint64(68)
	if ex.Rules.IsIstanbul {
		nonzeroCost = 16
	}
	gas += zero*4 + nonzero*nonzeroCost

	if ex.Rules.IsBerlin {
		for _, tuple := range accessList {
			gas += 2400
			gas += uint64(len(tuple.StorageKeys)) * 1900
		}
	}
	return gas
}

// seedAccessList pre-warms the caller, the call target, and every entry of
// an EIP-2930 access list, per step 2 of the transaction entry algorithm.
// It is a no-op before Berlin, where cold/warm accounting doesn't exist.
func (ex *Executor) seedAccessList(sub *Substate, caller types.Address, target *types.Address, accessList types.AccessList) {
	if !ex.Rules.IsBerlin {
		return
	}
	sub.TouchAddress(caller)
	if target != nil {
		sub.TouchAddress(*target)
	}
	for _, tuple := range accessList {
		sub.TouchAddress(tuple.Address)
		for _, slot := range tuple.StorageKeys {
			sub.TouchSlot(tuple.Address, slot)
		}
	}
}

// TransactCall is the transact_call entry point: a top-level message call
// from caller to to, carrying value and data under gasLimit.
func (ex *Executor) TransactCall(caller, to types.Address, value *uint256.Int, data []byte, gasLimit uint64, accessList types.AccessList) (ExitReason, []byte, uint64) {
	gasometer := NewGasometer(gasLimit, ex.Config.MaxRefundQuotient)
	if err := gasometer.RecordTransaction(ex.intrinsicGas(data, accessList)); err != nil {
		return ExitError(err), nil, gasLimit
	}

	root := NewSubstate(gasometer, false)
	ex.seedAccessList(root, caller, &to, accessList)
	ex.Backend.IncNonce(caller)

	callCtx := CallContext{Address: to, StorageOwner: to, Caller: caller, Value: value}
	reason, output := ex.callInner(root, callCtx, to, data, gasometer.Gas(), false)
	return reason, output, ex.finalGas(gasometer)
}

// TransactCreate is the transact_create entry point (legacy CREATE address
// derivation from caller's current nonce).
func (ex *Executor) TransactCreate(caller types.Address, value *uint256.Int, initCode []byte, gasLimit uint64, accessList types.AccessList) (ExitReason, []byte, uint64) {
	gasometer := NewGasometer(gasLimit, ex.Config.MaxRefundQuotient)
	if err := gasometer.RecordTransaction(ex.intrinsicGas(initCode, accessList)); err != nil {
		return ExitError(err), nil, gasLimit
	}

	root := NewSubstate(gasometer, false)
	nonce := ex.Backend.Basic(caller).Nonce
	target := CreateAddress(caller, nonce)
	ex.seedAccessList(root, caller, &target, accessList)
	ex.Backend.IncNonce(caller)

	reason, output := ex.createInner(root, caller, target, value, initCode, gasometer.Gas())
	return reason, output, ex.finalGas(gasometer)
}

// TransactCreate2 is the transact_create2 entry point (EIP-1014 salted
// address derivation).
func (ex *Executor) TransactCreate2(caller types.Address, value *uint256.Int, initCode []byte, salt types.Hash, gasLimit uint64, accessList types.AccessList) (ExitReason, []byte, uint64) {
	gasometer := NewGasometer(gasLimit, ex.Config.MaxRefundQuotient)
	if err := gasometer.RecordTransaction(ex.intrinsicGas(initCode, accessList)); err != nil {
		return ExitError(err), nil, gasLimit
	}

	root := NewSubstate(gasometer, false)
	target := Create2Address(caller, salt, initCode)
	ex.seedAccessList(root, caller, &target, accessList)
	ex.Backend.IncNonce(caller)

	reason, output := ex.createInner(root, caller, target, value, initCode, gasometer.Gas())
	return reason, output, ex.finalGas(gasometer)
}

// finalGas returns the gas actually charged to the sender: gross used gas
// less the capped refund. Every Transact* entry point that gets past the
// intrinsic-gas charge routes through here exactly once, making it the
// natural place to record the per-transaction gas metric; a transaction
// rejected for insufficient intrinsic gas returns before reaching it.
func (ex *Executor) finalGas(g *Gasometer) uint64 {
	used := g.UsedGas() - g.FinalRefund()
	gasUsedPerTx.Observe(float64(used))
	return used
}

// childGasLimit applies the EIP-150 63/64 rule (when active) and caps the
// request at what the parent actually has left.
func (ex *Executor) childGasLimit(parent *Gasometer, requested uint64) uint64 {
	available := parent.Gas()
	if ex.Config.CallL64AfterGas {
		capped := CallGasL64(available)
		if requested > capped {
			return capped
		}
		return requested
	}
	if requested > available {
		return available
	}
	return requested
}

// createInner implements the create_inner algorithm (§4.6).
func (ex *Executor) createInner(parent *Substate, caller, target types.Address, value *uint256.Int, initCode []byte, requestedGas uint64) (ExitReason, []byte) {
	parent.TouchAddress(caller)
	parent.TouchAddress(target)

	if parent.Depth > ex.Config.CallStackLimit {
		return ExitError(ErrCallTooDeep), nil
	}
	callDepth.Observe(float64(parent.Depth + 1))

	if ex.Backend.Basic(caller).Balance.Cmp(value) < 0 {
		return ExitError(ErrOutOfFund), nil
	}

	if ex.Config.MaxInitCodeSize > 0 && len(initCode) > ex.Config.MaxInitCodeSize {
		return ExitError(ErrCreateContractLimit), nil
	}

	childLimit := ex.childGasLimit(parent.Gasometer, requestedGas)
	if err := parent.Gasometer.RecordCost(childLimit); err != nil {
		return ExitError(err), nil
	}

	ex.Backend.IncNonce(caller)

	childGas := NewGasometer(childLimit, ex.Config.MaxRefundQuotient)
	child := parent.Enter(childGas, false)
	ex.Backend.JournalEnter()

	if ex.Backend.CodeSize(target) != 0 || ex.Backend.Basic(target).Nonce > 0 {
		ex.Backend.JournalExitDiscard()
		parent.DiscardChild(child)
		return ExitError(ErrCreateCollision), nil
	}

	ex.Backend.ResetStorage(target)

	if err := ex.Backend.Transfer(caller, target, value); err != nil {
		ex.Backend.JournalExitRevert()
		parent.RevertChild(child)
		return ExitError(ErrOutOfFund), nil
	}

	if ex.Config.CreateIncreaseNonce {
		ex.Backend.IncNonce(target)
	}

	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: value}
	env := ex.environment(callCtx)
	rt := NewRuntime(initCode, nil, types.Hash{}, env, child, ex.JumpTable)
	reason, output := rt.Run(ex)

	switch {
	case reason.IsSucceed():
		if len(output) > 0 && output[0] == 0xef && ex.Config.DisallowExecutableFormat {
			ex.Backend.JournalExitDiscard()
			parent.DiscardChild(child)
			return ExitError(ErrInvalidCode), nil
		}
		if len(output) > ex.Config.CreateContractLimit {
			ex.Backend.JournalExitDiscard()
			parent.DiscardChild(child)
			return ExitError(ErrCreateContractLimit), nil
		}
		if err := childGas.RecordDeposit(len(output)); err != nil {
			ex.Backend.JournalExitDiscard()
			parent.DiscardChild(child)
			return ExitError(err), nil
		}
		ex.Backend.SetCode(target, output)
		ex.Backend.JournalExitCommit()
		parent.CommitChild(child)
		return reason, target.Bytes()

	case reason.IsRevert():
		ex.Backend.JournalExitRevert()
		parent.RevertChild(child)
		return reason, output

	default: // Error or Fatal
		childGas.Fail()
		ex.Backend.JournalExitDiscard()
		parent.DiscardChild(child)
		return reason, nil
	}
}

// callInner implements the call_inner algorithm (§4.6). callCtx.Address is
// the code's own address (what CODESIZE/CODECOPY and recursion see);
// callCtx.StorageOwner is the account whose balance/storage is addressed
// (differs from Address for DELEGATECALL/CALLCODE, which execute target's
// code against the caller's own storage).
func (ex *Executor) callInner(parent *Substate, callCtx CallContext, codeAddr types.Address, input []byte, requestedGas uint64, isStatic bool) (ExitReason, []byte) {
	parent.TouchAddress(callCtx.StorageOwner)

	if parent.Depth > ex.Config.CallStackLimit {
		return ExitError(ErrCallTooDeep), nil
	}
	callDepth.Observe(float64(parent.Depth + 1))

	baseChildLimit := ex.childGasLimit(parent.Gasometer, requestedGas)
	if err := parent.Gasometer.RecordCost(baseChildLimit); err != nil {
		return ExitError(err), nil
	}

	childLimit := baseChildLimit
	hasValue := callCtx.Value != nil && !callCtx.Value.IsZero()
	if hasValue && !isStatic {
		childLimit += ex.Config.CallStipend
	}

	childGas := NewGasometer(childLimit, ex.Config.MaxRefundQuotient)
	child := parent.Enter(childGas, isStatic)
	ex.Backend.JournalEnter()

	if hasValue {
		if err := ex.Backend.Transfer(callCtx.Caller, callCtx.StorageOwner, callCtx.Value); err != nil {
			ex.Backend.JournalExitRevert()
			parent.RevertChild(child)
			return ExitError(ErrOutOfFund), nil
		}
	}

	if ex.Precompiles != nil && ex.Precompiles.Has(codeAddr) {
		output, remaining, err := ex.Precompiles.Run(codeAddr, input, childGas.Gas())
		if err != nil {
			var failure *PrecompileFailure
			if errors.As(err, &failure) && failure.Kind == PrecompileRevert {
				_ = childGas.RecordCost(childGas.Gas() - remaining)
				ex.Backend.JournalExitRevert()
				parent.RevertChild(child)
				return ExitRevert(RevertReverted), failure.Output
			}
			childGas.Fail()
			ex.Backend.JournalExitDiscard()
			parent.DiscardChild(child)
			if failure != nil && failure.Kind == PrecompileFatal {
				return ExitFatal(failure.Err), nil
			}
			return ExitError(err), nil
		}
		_ = childGas.RecordCost(childGas.Gas() - remaining)
		ex.Backend.JournalExitCommit()
		parent.CommitChild(child)
		return ExitSucceed(SucceedReturned), output
	}

	code := ex.Backend.Code(codeAddr)
	codeHash := ex.Backend.CodeHash(codeAddr)
	env := ex.environment(callCtx)
	rt := NewRuntime(code, input, codeHash, env, child, ex.JumpTable)
	reason, output := rt.Run(ex)

	switch {
	case reason.IsSucceed():
		ex.Backend.JournalExitCommit()
		parent.CommitChild(child)
	case reason.IsRevert():
		ex.Backend.JournalExitRevert()
		parent.RevertChild(child)
	default:
		childGas.Fail()
		ex.Backend.JournalExitDiscard()
		parent.DiscardChild(child)
	}
	return reason, output
}
