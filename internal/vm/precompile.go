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

// PrecompileFailureKind classifies why a precompile invocation failed.
type PrecompileFailureKind uint8

const (
	// PrecompileError consumes all of the gas given to the precompile.
	PrecompileError PrecompileFailureKind = iota
	// PrecompileRevert returns the precompile's remaining gas and payload.
	PrecompileRevert
	// PrecompileFatal propagates upward as an unrecoverable condition.
	PrecompileFatal
)

// PrecompileFailure reports why Run did not produce output.
type PrecompileFailure struct {
	Kind   PrecompileFailureKind
	Output []byte // only meaningful for PrecompileRevert
	Err    error
}

func (f *PrecompileFailure) Error() string { return f.Err.Error() }

// PrecompileHandle is the capability a richer precompile is given instead
// of a full Backend: enough to record extra cost beyond RequiredGas,
// perform further subcalls, emit logs, and read its own invocation
// context. None of the nine standard precompiles need it — ecrecover,
// sha256, ripemd160, identity, modexp and the bn256/blake2f set are pure
// functions of their input — but it is the extension point a custom
// precompile would implement PrecompiledContractWithHandle against.
type PrecompileHandle interface {
	RecordCost(cost uint64) error
	Input() []byte
	GasLimit() uint64
	IsStatic() bool
	CodeAddress() types.Address
	Caller() types.Address
	Call(to types.Address, input []byte, gas uint64, value *Word) ([]byte, uint64, error)
	Log(log types.Log)
}

// PrecompiledContract is the standard precompile shape: a pure function of
// its input, charged a gas cost computed from the input alone.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// PrecompiledContractWithHandle is implemented by precompiles that need
// more than RequiredGas/Run — access to the call context, the ability to
// perform further subcalls, or to emit logs.
type PrecompiledContractWithHandle interface {
	RunWithHandle(handle PrecompileHandle) ([]byte, error)
}

// PrecompileSet is the capability the executor needs from a precompile
// registry: address membership and synchronous, gas-metered execution. It
// is declared here rather than imported from the precompiles package so
// that package can depend on vm (for PrecompiledContract) without a cycle;
// *precompiles.Registry satisfies this interface structurally.
type PrecompileSet interface {
	Has(addr types.Address) bool
	Run(addr types.Address, input []byte, suppliedGas uint64) ([]byte, uint64, error)
}
