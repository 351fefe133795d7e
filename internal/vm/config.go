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

import "github.com/ethforge/evmcore/params"

// Config selects hard-fork-dependent interpreter and executor behavior.
// One Config is built per Rules and shared read-only across a transaction.
type Config struct {
	CallStackLimit int
	StackLimit     int
	MemoryLimit    uint64

	CreateContractLimit int
	MaxInitCodeSize     int

	MaxRefundQuotient uint64
	CallStipend       uint64
	CallL64AfterGas   bool

	CreateIncreaseNonce    bool
	IncreaseStateAccessGas bool // EIP-2929
	DisallowExecutableFormat bool // EIP-3541

	EmptyConsideredExists bool

	// Estimate marks a gas-estimation run. It is carried in Config but
	// nothing in the executor reads it: child gas allowances are computed
	// the same way whether or not it is set.
	Estimate bool
}

// ConfigForRules derives the Config driving opcode gas costs and executor
// behavior for the given hard-fork rule set.
func ConfigForRules(r params.Rules) Config {
	cfg := Config{
		CallStackLimit:       int(params.CallStackLimit),
		StackLimit:           int(params.StackLimit),
		MemoryLimit:          32 * 1024 * 1024,
		CreateContractLimit:  params.MaxCodeSize,
		MaxInitCodeSize:      params.MaxInitCodeSize,
		MaxRefundQuotient:    2,
		CallStipend:          2300,
		CallL64AfterGas:      false,
		CreateIncreaseNonce:  false,
		EmptyConsideredExists: true,
	}

	if r.IsTangerineWhistle {
		cfg.CallL64AfterGas = true // EIP-150
	}
	if r.IsSpuriousDragon {
		cfg.CreateIncreaseNonce = true
		cfg.EmptyConsideredExists = false
	}
	if r.IsByzantium {
		// Revert semantics and precompiles 6-8 activate; no Config field
		// changes beyond what's already modeled.
	}
	if r.IsBerlin {
		cfg.IncreaseStateAccessGas = true // EIP-2929
	}
	if r.IsLondon {
		cfg.MaxRefundQuotient = 5 // EIP-3529
		cfg.DisallowExecutableFormat = true // EIP-3541
	}
	return cfg
}
