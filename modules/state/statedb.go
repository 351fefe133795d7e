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

// Package state is a journaled, in-memory implementation of vm.Backend: the
// world-state seam the executor reads and mutates through. It keeps its own
// undo log rather than relying on the executor's Substate tree, since the
// same StateDB must also be usable standalone (tests, tracers) against a
// Backend-shaped caller that never builds a Substate at all.
package state

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/ethforge/evmcore/internal/vm"
	"github.com/ethforge/evmcore/types"
)

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Storage is one account's key/value slot set.
type Storage map[types.Hash]types.Hash

// Copy returns an independent copy of s.
func (s Storage) Copy() Storage {
	cp := make(Storage, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// account is the StateDB's internal record for one address. Storage holds
// the slots as currently written; original holds the value each touched
// slot had when the transaction began, read by OriginalStorage for SSTORE's
// EIP-2200 net-gas comparison.
type account struct {
	nonce    uint64
	balance  *uint256.Int
	code     []byte
	codeHash types.Hash
	storage  Storage
	original Storage
	deleted  bool
}

func newAccount() *account {
	return &account{balance: new(uint256.Int), storage: make(Storage), original: make(Storage)}
}

// journalEntry is one undoable mutation. Every vm.Backend mutator on
// StateDB pushes the entry that reverses it before applying the change; the
// seeding helpers (SetBalance, SetNonce, SetCodeDirect, SetStorageDirect)
// write without a journal entry of their own.
type journalEntry interface {
	revert(s *StateDB)
}

type (
	balanceChange struct {
		addr types.Address
		prev *uint256.Int
	}
	nonceChange struct {
		addr types.Address
		prev uint64
	}
	codeChange struct {
		addr         types.Address
		prevCode     []byte
		prevCodeHash types.Hash
	}
	storageChange struct {
		addr     types.Address
		key      types.Hash
		prev     types.Hash
		prevSet  bool
	}
	createChange struct {
		addr types.Address
	}
	resetChange struct {
		addr    types.Address
		prev    *account
	}
	deleteChange struct {
		addr types.Address
		prev bool
	}
	touchChange struct {
		addr types.Address
		prev bool
	}
	warmAddressChange struct{ addr types.Address }
	warmSlotChange    struct {
		addr types.Address
		key  types.Hash
	}
	logChange struct{}
)

func (c balanceChange) revert(s *StateDB)     { s.account(c.addr).balance = c.prev }
func (c nonceChange) revert(s *StateDB)       { s.account(c.addr).nonce = c.prev }
func (c codeChange) revert(s *StateDB) {
	a := s.account(c.addr)
	a.code, a.codeHash = c.prevCode, c.prevCodeHash
}
func (c storageChange) revert(s *StateDB) {
	a := s.account(c.addr)
	if c.prevSet {
		a.storage[c.key] = c.prev
	} else {
		delete(a.storage, c.key)
	}
}
func (c createChange) revert(s *StateDB) { delete(s.accounts, c.addr) }
func (c resetChange) revert(s *StateDB) {
	if c.prev == nil {
		delete(s.accounts, c.addr)
		return
	}
	s.accounts[c.addr] = c.prev
}
func (c deleteChange) revert(s *StateDB) { s.account(c.addr).deleted = c.prev }
func (c touchChange) revert(s *StateDB) {
	if c.prev {
		return
	}
	delete(s.touched, c.addr)
}
func (c warmAddressChange) revert(s *StateDB) { delete(s.warmAddresses, c.addr) }
func (c warmSlotChange) revert(s *StateDB) {
	delete(s.warmSlots, types.StorageKey{Address: c.addr, Slot: c.key})
}
func (logChange) revert(s *StateDB) {
	s.logs = s.logs[:len(s.logs)-1]
}

// StateDB is a journaled in-memory world state satisfying vm.Backend. A
// snapshot is simply the journal's length at the time JournalEnter was
// called; reverting replays entries back to front down to that length.
type StateDB struct {
	accounts map[types.Address]*account
	touched  map[types.Address]bool

	warmAddresses map[types.Address]bool
	warmSlots     map[types.StorageKey]bool

	journal   []journalEntry
	snapshots []int

	logs []types.Log
}

// New creates an empty StateDB.
func New() *StateDB {
	return &StateDB{
		accounts:      make(map[types.Address]*account),
		touched:       make(map[types.Address]bool),
		warmAddresses: make(map[types.Address]bool),
		warmSlots:     make(map[types.StorageKey]bool),
	}
}

func (s *StateDB) account(addr types.Address) *account {
	a, ok := s.accounts[addr]
	if !ok {
		a = newAccount()
		s.accounts[addr] = a
		s.append(createChange{addr: addr})
	}
	return a
}

func (s *StateDB) append(e journalEntry) {
	s.journal = append(s.journal, e)
}

// SetBalance seeds addr's balance outside of any frame, used by tests and
// by whatever constructs the genesis/pre-state before a transaction runs.
func (s *StateDB) SetBalance(addr types.Address, value *uint256.Int) {
	s.account(addr).balance = new(uint256.Int).Set(value)
}

// SetNonce seeds addr's nonce outside of any frame.
func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	s.account(addr).nonce = nonce
}

// SetCodeDirect seeds addr's code outside of any frame.
func (s *StateDB) SetCodeDirect(addr types.Address, code []byte) {
	a := s.account(addr)
	a.code = code
	a.codeHash = types.BytesToHash(keccak256(code))
}

// SetStorageDirect seeds a slot outside of any frame, snapshotting it as
// the slot's original value for subsequent OriginalStorage reads.
func (s *StateDB) SetStorageDirect(addr types.Address, key, value types.Hash) {
	a := s.account(addr)
	a.storage[key] = value
	a.original[key] = value
}

// Logs returns every log recorded so far, in emission order.
func (s *StateDB) Logs() []types.Log { return s.logs }

// --- vm.Backend ---

func (s *StateDB) Basic(addr types.Address) vm.BasicAccount {
	a, ok := s.accounts[addr]
	if !ok {
		return vm.BasicAccount{Balance: new(uint256.Int)}
	}
	return vm.BasicAccount{Balance: a.balance, Nonce: a.nonce}
}

func (s *StateDB) Code(addr types.Address) []byte {
	if a, ok := s.accounts[addr]; ok {
		return a.code
	}
	return nil
}

func (s *StateDB) CodeSize(addr types.Address) int { return len(s.Code(addr)) }

func (s *StateDB) CodeHash(addr types.Address) types.Hash {
	if a, ok := s.accounts[addr]; ok {
		return a.codeHash
	}
	return types.Hash{}
}

func (s *StateDB) Storage(addr types.Address, key types.Hash) types.Hash {
	if a, ok := s.accounts[addr]; ok {
		return a.storage[key]
	}
	return types.Hash{}
}

func (s *StateDB) OriginalStorage(addr types.Address, key types.Hash) types.Hash {
	if a, ok := s.accounts[addr]; ok {
		return a.original[key]
	}
	return types.Hash{}
}

func (s *StateDB) Exists(addr types.Address) bool {
	a, ok := s.accounts[addr]
	if !ok {
		return false
	}
	return !a.deleted
}

func (s *StateDB) IsEmpty(addr types.Address) bool {
	a, ok := s.accounts[addr]
	if !ok {
		return true
	}
	return a.nonce == 0 && a.balance.IsZero() && len(a.code) == 0
}

func (s *StateDB) IncNonce(addr types.Address) {
	a := s.account(addr)
	s.append(nonceChange{addr: addr, prev: a.nonce})
	a.nonce++
}

func (s *StateDB) SetStorage(addr types.Address, key, value types.Hash) {
	a := s.account(addr)
	prev, had := a.storage[key]
	s.append(storageChange{addr: addr, key: key, prev: prev, prevSet: had})
	if _, seen := a.original[key]; !seen {
		a.original[key] = prev
	}
	a.storage[key] = value
}

func (s *StateDB) ResetStorage(addr types.Address) {
	prev := s.accounts[addr]
	s.append(resetChange{addr: addr, prev: prev})
	fresh := newAccount()
	if prev != nil {
		fresh.balance = prev.balance
		fresh.nonce = prev.nonce
	}
	s.accounts[addr] = fresh
}

func (s *StateDB) Log(log types.Log) {
	s.append(logChange{})
	s.logs = append(s.logs, log)
}

func (s *StateDB) SetDeleted(addr types.Address) {
	a := s.account(addr)
	s.append(deleteChange{addr: addr, prev: a.deleted})
	a.deleted = true
}

func (s *StateDB) SetCode(addr types.Address, code []byte) {
	a := s.account(addr)
	s.append(codeChange{addr: addr, prevCode: a.code, prevCodeHash: a.codeHash})
	a.code = code
	a.codeHash = types.BytesToHash(keccak256(code))
}

func (s *StateDB) Transfer(from, to types.Address, value *uint256.Int) error {
	if value.IsZero() {
		s.Touch(to)
		return nil
	}
	fromAcc := s.account(from)
	if fromAcc.balance.Cmp(value) < 0 {
		return vm.ErrOutOfFund
	}
	s.SubBalance(from, value)
	s.AddBalance(to, value)
	return nil
}

func (s *StateDB) ResetBalance(addr types.Address, value *uint256.Int) {
	a := s.account(addr)
	s.append(balanceChange{addr: addr, prev: a.balance})
	a.balance = new(uint256.Int).Set(value)
}

func (s *StateDB) Touch(addr types.Address) {
	if s.touched[addr] {
		return
	}
	s.append(touchChange{addr: addr, prev: false})
	s.touched[addr] = true
	s.account(addr)
}

func (s *StateDB) AddBalance(addr types.Address, value *uint256.Int) {
	a := s.account(addr)
	s.append(balanceChange{addr: addr, prev: a.balance})
	a.balance = new(uint256.Int).Add(a.balance, value)
}

func (s *StateDB) SubBalance(addr types.Address, value *uint256.Int) {
	a := s.account(addr)
	s.append(balanceChange{addr: addr, prev: a.balance})
	a.balance = new(uint256.Int).Sub(a.balance, value)
}

// JournalEnter records a snapshot point a later ExitCommit/ExitRevert/
// ExitDiscard resolves against.
func (s *StateDB) JournalEnter() {
	s.snapshots = append(s.snapshots, len(s.journal))
}

// JournalExitCommit drops the most recent snapshot, keeping every change
// made since it was taken.
func (s *StateDB) JournalExitCommit() {
	s.snapshots = s.snapshots[:len(s.snapshots)-1]
}

// JournalExitRevert and JournalExitDiscard both unwind every change made
// since the most recent snapshot; they are distinct methods because the
// Backend interface lets Discard (Error/Fatal exits) and Revert (explicit
// REVERT) diverge in the future without changing the call sites.
func (s *StateDB) JournalExitRevert()  { s.unwind() }
func (s *StateDB) JournalExitDiscard() { s.unwind() }

func (s *StateDB) unwind() {
	mark := s.snapshots[len(s.snapshots)-1]
	s.snapshots = s.snapshots[:len(s.snapshots)-1]
	for i := len(s.journal) - 1; i >= mark; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:mark]
}

func (s *StateDB) IsAddressCold(addr types.Address) bool { return !s.warmAddresses[addr] }

func (s *StateDB) IsStorageCold(addr types.Address, key types.Hash) bool {
	return !s.warmSlots[types.StorageKey{Address: addr, Slot: key}]
}

func (s *StateDB) MarkAddressWarm(addr types.Address) {
	if s.warmAddresses[addr] {
		return
	}
	s.append(warmAddressChange{addr: addr})
	s.warmAddresses[addr] = true
}

func (s *StateDB) MarkStorageWarm(addr types.Address, key types.Hash) {
	k := types.StorageKey{Address: addr, Slot: key}
	if s.warmSlots[k] {
		return
	}
	s.append(warmSlotChange{addr: addr, key: key})
	s.warmSlots[k] = true
}

var _ vm.Backend = (*StateDB)(nil)
