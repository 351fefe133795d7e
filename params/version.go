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

package params

import "fmt"

// Following vars are injected through build flags.
var (
	GitCommit string
	GitBranch string
	GitTag    string
)

const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Version is the semantic version string of this module.
func Version() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// EVM protocol constants that don't vary across the forks tracked by Rules.
const (
	// GasQuickStep through GasExtStep are the legacy per-opcode gas tiers
	// used by the base instruction set before EIP-150's repricing.
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	// MaxCodeSize is the maximum length, in bytes, of deployed contract code
	// (EIP-170, Spurious Dragon).
	MaxCodeSize = 24576

	// MaxInitCodeSize is the maximum length of CREATE/CREATE2 init code
	// (EIP-3860). Config.CreateContractLimit governs deployed-code size;
	// this is a separate, input-side bound, copied into
	// Config.MaxInitCodeSize and enforced by the executor on every fork.
	MaxInitCodeSize = 2 * MaxCodeSize

	// CallStackLimit is the default maximum nested call/create depth.
	CallStackLimit = 1024

	// StackLimit is the default maximum depth of the EVM word stack.
	StackLimit = 1024
)
