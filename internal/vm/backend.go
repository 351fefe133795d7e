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

	"github.com/ethforge/evmcore/params"
	"github.com/ethforge/evmcore/types"
)

// BasicAccount is the minimal account data the executor reads through the
// Backend: balance and nonce.
type BasicAccount struct {
	Balance *uint256.Int
	Nonce   uint64
}

// BlockContext carries the per-block data opcodes like COINBASE, TIMESTAMP
// and BLOCKHASH read. It is immutable for the lifetime of a transaction.
type BlockContext struct {
	Coinbase    types.Address
	BlockNumber uint64
	Timestamp   uint64
	Difficulty  *uint256.Int
	GasLimit    uint64
	BaseFee     *uint256.Int
	ChainID     uint64

	// GetHash resolves BLOCKHASH(n) to the hash of block n, or the zero
	// hash if n is outside the 256-block window the chain keeps available.
	GetHash func(n uint64) types.Hash
}

// TxContext carries the per-transaction data ORIGIN and GASPRICE read.
type TxContext struct {
	Origin   types.Address
	GasPrice *uint256.Int
}

// Backend is the capability interface the executor uses to read and
// mutate world state. Everything the EVM core needs from the outside
// world — balances, code, storage, logs, substate journaling — goes
// through this one seam.
type Backend interface {
	Basic(addr types.Address) BasicAccount
	Code(addr types.Address) []byte
	CodeSize(addr types.Address) int
	CodeHash(addr types.Address) types.Hash
	Storage(addr types.Address, key types.Hash) types.Hash
	OriginalStorage(addr types.Address, key types.Hash) types.Hash
	Exists(addr types.Address) bool
	IsEmpty(addr types.Address) bool

	IncNonce(addr types.Address)
	SetStorage(addr types.Address, key, value types.Hash)
	ResetStorage(addr types.Address)
	Log(log types.Log)
	SetDeleted(addr types.Address)
	SetCode(addr types.Address, code []byte)
	Transfer(from, to types.Address, value *uint256.Int) error
	ResetBalance(addr types.Address, value *uint256.Int)
	Touch(addr types.Address)
	AddBalance(addr types.Address, value *uint256.Int)
	SubBalance(addr types.Address, value *uint256.Int)

	// Substate journal: every executor-level Enter must be paired with
	// exactly one of ExitCommit, ExitRevert or ExitDiscard.
	JournalEnter()
	JournalExitCommit()
	JournalExitRevert()
	JournalExitDiscard()

	// EIP-2929 cold/warm bookkeeping lives in the journal too, since warm
	// status must revert along with everything else a child frame touched.
	IsAddressCold(addr types.Address) bool
	IsStorageCold(addr types.Address, key types.Hash) bool
	MarkAddressWarm(addr types.Address)
	MarkStorageWarm(addr types.Address, key types.Hash)
}

// CallContext is the address-related context a Runtime executes under:
// the code's own address, the account whose storage/balance is addressed
// by that code (differs from Address for DELEGATECALL/CALLCODE), the
// caller, and the value apparently transferred.
type CallContext struct {
	Address      types.Address
	StorageOwner types.Address
	Caller       types.Address
	Value        *uint256.Int
}

// Environment bundles everything a Runtime needs beyond the bare Machine:
// block/tx context, call context, rule set and the backend it traps to.
type Environment struct {
	Block   BlockContext
	Tx      TxContext
	Call    CallContext
	Rules   params.Rules
	Config  Config
	Backend Backend
}
