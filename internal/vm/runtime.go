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

// Runtime owns exactly one Machine for the lifetime of a single call or
// create frame, together with the context (Environment, CallContext) and
// Substate that frame runs under. It is the "component I" glue: the
// Machine itself knows nothing about gas or the host, so Runtime's Run
// loop is what charges gas before every step and hands traps to the
// executor.
type Runtime struct {
	Machine  *Machine
	Env      *Environment
	Substate *Substate

	// LastReturnData holds the output of the most recently completed child
	// call made from this frame, read by RETURNDATASIZE/RETURNDATACOPY.
	LastReturnData []byte
}

// NewRuntime builds a fresh frame over code, running against input under
// env and substate. codeHash identifies a deployed contract's Valids map
// for caching (ValidsForCode); pass the zero hash for transient init code.
func NewRuntime(code, input []byte, codeHash types.Hash, env *Environment, substate *Substate, jt *JumpTable) *Runtime {
	return &Runtime{
		Machine:  NewMachineForCode(code, input, codeHash, env.Config, jt),
		Env:      env,
		Substate: substate,
	}
}

// TrapHandler resolves a trapped opcode into its real side effect against
// the host. A non-nil ExitReason forces the frame to terminate immediately
// (used for OutOfGas during the trap's own gas charging, or a Fatal
// condition); otherwise the handler is expected to have pushed whatever
// result word the opcode's semantics define and the frame keeps running.
type TrapHandler interface {
	HandleTrap(rt *Runtime, op OpCode) *ExitReason
}

// preValidate charges the static and dynamic gas cost of the opcode about
// to execute, mirroring the Gasometer-external contract the Machine itself
// never touches: exactly one charge per opcode, before its semantics run.
func (rt *Runtime) preValidate() *ExitReason {
	operation := rt.Machine.CurrentOperation()
	cost := operation.ConstantGas
	if operation.DynamicGas != nil {
		dyn, err := operation.DynamicGas(rt.Machine)
		if err != nil {
			reason := ExitError(err)
			return &reason
		}
		cost += dyn
	}
	if err := rt.Substate.Gasometer.RecordCost(cost); err != nil {
		reason := ExitError(err)
		return &reason
	}
	return nil
}

// Run drives the Machine to completion: charging gas before each opcode,
// resolving every trap through h, and returning the frame's terminal exit
// reason plus its output bytes.
func (rt *Runtime) Run(h TrapHandler) (ExitReason, []byte) {
	for {
		if reason := rt.preValidate(); reason != nil {
			rt.Machine.SetExit(*reason)
			return *reason, nil
		}

		capture := rt.Machine.Step()
		if capture == nil {
			continue
		}
		if capture.IsTrap {
			if reason := h.HandleTrap(rt, capture.TrapOp); reason != nil {
				rt.Machine.SetExit(*reason)
				return *reason, rt.Machine.ReturnValue()
			}
			continue
		}
		return *capture.Exit, rt.Machine.ReturnValue()
	}
}
