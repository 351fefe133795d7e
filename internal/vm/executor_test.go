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

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/ethforge/evmcore/params"
	"github.com/ethforge/evmcore/types"
)

// --- fake Backend, just enough to drive Executor end to end ---

type fakeAccount struct {
	balance  *uint256.Int
	nonce    uint64
	code     []byte
	codeHash types.Hash
	storage  map[types.Hash]types.Hash
	original map[types.Hash]types.Hash
	deleted  bool
}

func newFakeAccount() *fakeAccount {
	return &fakeAccount{
		balance:  new(uint256.Int),
		storage:  map[types.Hash]types.Hash{},
		original: map[types.Hash]types.Hash{},
	}
}

func (a *fakeAccount) clone() *fakeAccount {
	c := &fakeAccount{
		balance:  a.balance.Clone(),
		nonce:    a.nonce,
		code:     a.code,
		codeHash: a.codeHash,
		deleted:  a.deleted,
		storage:  make(map[types.Hash]types.Hash, len(a.storage)),
		original: make(map[types.Hash]types.Hash, len(a.original)),
	}
	for k, v := range a.storage {
		c.storage[k] = v
	}
	for k, v := range a.original {
		c.original[k] = v
	}
	return c
}

// fakeBackend is a minimal snapshot-journaled vm.Backend: no trie, no
// persistence, just enough account bookkeeping to observe what the
// executor does across nested frames. JournalEnter snapshots the whole
// account set; commit drops the snapshot, revert/discard restore it.
type fakeBackend struct {
	accounts  map[types.Address]*fakeAccount
	logs      []types.Log
	snapshots []fakeBackendSnapshot
	warmAddr  map[types.Address]bool
	warmSlot  map[types.StorageKey]bool
}

type fakeBackendSnapshot struct {
	accounts map[types.Address]*fakeAccount
	logsLen  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts: map[types.Address]*fakeAccount{},
		warmAddr: map[types.Address]bool{},
		warmSlot: map[types.StorageKey]bool{},
	}
}

func (b *fakeBackend) account(addr types.Address) *fakeAccount {
	a, ok := b.accounts[addr]
	if !ok {
		a = newFakeAccount()
		b.accounts[addr] = a
	}
	return a
}

func (b *fakeBackend) setBalance(addr types.Address, v uint64) {
	b.account(addr).balance = uint256.NewInt(v)
}

func (b *fakeBackend) Basic(addr types.Address) BasicAccount {
	a := b.account(addr)
	return BasicAccount{Balance: a.balance.Clone(), Nonce: a.nonce}
}
func (b *fakeBackend) Code(addr types.Address) []byte { return b.account(addr).code }
func (b *fakeBackend) CodeSize(addr types.Address) int { return len(b.account(addr).code) }
func (b *fakeBackend) CodeHash(addr types.Address) types.Hash {
	a := b.account(addr)
	if len(a.code) == 0 {
		return types.Hash{}
	}
	return a.codeHash
}
func (b *fakeBackend) Storage(addr types.Address, key types.Hash) types.Hash {
	return b.account(addr).storage[key]
}
func (b *fakeBackend) OriginalStorage(addr types.Address, key types.Hash) types.Hash {
	return b.account(addr).original[key]
}
func (b *fakeBackend) Exists(addr types.Address) bool {
	_, ok := b.accounts[addr]
	return ok
}
func (b *fakeBackend) IsEmpty(addr types.Address) bool {
	a := b.account(addr)
	return a.nonce == 0 && a.balance.IsZero() && len(a.code) == 0
}
func (b *fakeBackend) IncNonce(addr types.Address) { b.account(addr).nonce++ }
func (b *fakeBackend) SetStorage(addr types.Address, key, value types.Hash) {
	a := b.account(addr)
	if _, ok := a.original[key]; !ok {
		a.original[key] = a.storage[key]
	}
	a.storage[key] = value
}
func (b *fakeBackend) ResetStorage(addr types.Address) {
	a := b.account(addr)
	a.storage = map[types.Hash]types.Hash{}
	a.original = map[types.Hash]types.Hash{}
}
func (b *fakeBackend) Log(log types.Log)             { b.logs = append(b.logs, log) }
func (b *fakeBackend) SetDeleted(addr types.Address) { b.account(addr).deleted = true }
func (b *fakeBackend) SetCode(addr types.Address, code []byte) {
	a := b.account(addr)
	a.code = code
	h := sha3.NewLegacyKeccak256()
	h.Write(code)
	a.codeHash = types.BytesToHash(h.Sum(nil))
}
func (b *fakeBackend) Transfer(from, to types.Address, value *uint256.Int) error {
	fa := b.account(from)
	if fa.balance.Cmp(value) < 0 {
		return ErrOutOfFund
	}
	tb := b.account(to)
	fa.balance = new(uint256.Int).Sub(fa.balance, value)
	tb.balance = new(uint256.Int).Add(tb.balance, value)
	return nil
}
func (b *fakeBackend) ResetBalance(addr types.Address, value *uint256.Int) {
	b.account(addr).balance = value.Clone()
}
func (b *fakeBackend) Touch(addr types.Address) { b.account(addr) }
func (b *fakeBackend) AddBalance(addr types.Address, value *uint256.Int) {
	a := b.account(addr)
	a.balance = new(uint256.Int).Add(a.balance, value)
}
func (b *fakeBackend) SubBalance(addr types.Address, value *uint256.Int) {
	a := b.account(addr)
	a.balance = new(uint256.Int).Sub(a.balance, value)
}

func (b *fakeBackend) JournalEnter() {
	snap := fakeBackendSnapshot{
		accounts: make(map[types.Address]*fakeAccount, len(b.accounts)),
		logsLen:  len(b.logs),
	}
	for addr, a := range b.accounts {
		snap.accounts[addr] = a.clone()
	}
	b.snapshots = append(b.snapshots, snap)
}
func (b *fakeBackend) JournalExitCommit() {
	b.snapshots = b.snapshots[:len(b.snapshots)-1]
}
func (b *fakeBackend) JournalExitRevert()  { b.restore() }
func (b *fakeBackend) JournalExitDiscard() { b.restore() }
func (b *fakeBackend) restore() {
	last := len(b.snapshots) - 1
	snap := b.snapshots[last]
	b.snapshots = b.snapshots[:last]
	b.accounts = snap.accounts
	b.logs = b.logs[:snap.logsLen]
}

func (b *fakeBackend) IsAddressCold(addr types.Address) bool { return !b.warmAddr[addr] }
func (b *fakeBackend) IsStorageCold(addr types.Address, key types.Hash) bool {
	return !b.warmSlot[types.StorageKey{Address: addr, Slot: key}]
}
func (b *fakeBackend) MarkAddressWarm(addr types.Address) { b.warmAddr[addr] = true }
func (b *fakeBackend) MarkStorageWarm(addr types.Address, key types.Hash) {
	b.warmSlot[types.StorageKey{Address: addr, Slot: key}] = true
}

var _ Backend = (*fakeBackend)(nil)

func newTestExecutor(t *testing.T, b Backend) *Executor {
	t.Helper()
	ex, err := NewExecutor(b, params.AllRulesEnabled, nil, BlockContext{}, TxContext{GasPrice: new(uint256.Int)})
	require.NoError(t, err)
	return ex
}

func addr(b byte) types.Address {
	return types.BytesToAddress([]byte{b})
}

func hashOf(b byte) types.Hash {
	return types.BytesToHash([]byte{b})
}

// --- NewExecutor validation (comment 2's pkg/errors wiring) ---

func TestNewExecutorRejectsNilBackend(t *testing.T) {
	_, err := NewExecutor(nil, params.AllRulesEnabled, nil, BlockContext{}, TxContext{})
	require.Error(t, err)
}

func TestNewExecutorRejectsLondonWithoutBerlin(t *testing.T) {
	rules := params.AllRulesEnabled
	rules.IsBerlin = false
	_, err := NewExecutor(newFakeBackend(), rules, nil, BlockContext{}, TxContext{})
	require.Error(t, err)
}

// --- S1: a top-level value transfer between two accounts ---

func TestExecutorTransactCallValueTransfer(t *testing.T) {
	b := newFakeBackend()
	caller, to := addr(0x01), addr(0x02)
	b.setBalance(caller, 100)

	ex := newTestExecutor(t, b)
	reason, output, _ := ex.TransactCall(caller, to, uint256.NewInt(30), nil, 200_000, nil)

	require.True(t, reason.IsSucceed())
	require.Empty(t, output)
	require.Equal(t, uint64(70), b.account(caller).balance.Uint64())
	require.Equal(t, uint64(30), b.account(to).balance.Uint64())
	require.Equal(t, uint64(1), b.account(caller).nonce)
}

// --- S2: a CALL into a deployed contract that itself CALLs a third ---

func TestExecutorNestedCallChain(t *testing.T) {
	b := newFakeBackend()
	caller, a, bb := addr(0x01), addr(0x0a), addr(0x0b)

	// b: just STOP, so the inner CALL trivially succeeds.
	b.SetCode(bb, []byte{byte(STOP)})

	// a: CALL(b, gas=GAS, value=0, no args, no return capture), then MSTORE
	// the bool result and RETURN it, so the top-level caller can observe
	// whether the nested CALL succeeded.
	codeA := []byte{
		byte(PUSH1), 0, // retLen
		byte(PUSH1), 0, // retOff
		byte(PUSH1), 0, // argsLen
		byte(PUSH1), 0, // argsOff
		byte(PUSH1), 0, // value
		byte(PUSH20),
	}
	codeA = append(codeA, bb.Bytes()...)
	codeA = append(codeA,
		byte(GAS),
		byte(CALL),
		byte(PUSH1), 0, // MSTORE offset
		byte(MSTORE),
		byte(PUSH1), 32, // RETURN length
		byte(PUSH1), 0, // RETURN offset
		byte(RETURN),
	)
	b.SetCode(a, codeA)

	ex := newTestExecutor(t, b)
	reason, output, _ := ex.TransactCall(caller, a, new(uint256.Int), nil, 1_000_000, nil)

	require.True(t, reason.IsSucceed())
	want := make([]byte, 32)
	want[31] = 1
	require.Equal(t, want, output, "the nested CALL into b must have succeeded")
}

// --- S3: a REVERT unwinds exactly the reverting frame's storage writes ---

func TestExecutorRevertUnwindsOnlyChildFrame(t *testing.T) {
	b := newFakeBackend()
	caller, parentAddr, childAddr := addr(0x01), addr(0x0a), addr(0x0c)

	// child: SSTORE(1, 99) then REVERT(0, 0).
	codeChild := []byte{
		byte(PUSH1), 99,
		byte(PUSH1), 1,
		byte(SSTORE),
		byte(PUSH1), 0,
		byte(PUSH1), 0,
		byte(REVERT),
	}
	b.SetCode(childAddr, codeChild)

	// parent: SSTORE(2, 7), then CALL(child, value=0), discard the bool,
	// STOP.
	codeParent := []byte{
		byte(PUSH1), 7,
		byte(PUSH1), 2,
		byte(SSTORE),
		byte(PUSH1), 0, // retLen
		byte(PUSH1), 0, // retOff
		byte(PUSH1), 0, // argsLen
		byte(PUSH1), 0, // argsOff
		byte(PUSH1), 0, // value
		byte(PUSH20),
	}
	codeParent = append(codeParent, childAddr.Bytes()...)
	codeParent = append(codeParent,
		byte(GAS),
		byte(CALL),
		byte(POP),
		byte(STOP),
	)
	b.SetCode(parentAddr, codeParent)

	ex := newTestExecutor(t, b)
	reason, _, _ := ex.TransactCall(caller, parentAddr, new(uint256.Int), nil, 1_000_000, nil)

	require.True(t, reason.IsSucceed())
	require.Equal(t, hashOf(7), b.Storage(parentAddr, hashOf(2)), "the parent's own write must survive")
	require.Equal(t, types.Hash{}, b.Storage(childAddr, hashOf(1)), "the reverted child's write must not survive")
}

// --- S5/S6: CREATE and CREATE2 address derivation ---

func TestExecutorTransactCreateDerivesLegacyAddress(t *testing.T) {
	b := newFakeBackend()
	caller := addr(0x01)
	initCode := []byte{byte(STOP)}

	ex := newTestExecutor(t, b)
	want := CreateAddress(caller, 0)
	reason, output, _ := ex.TransactCreate(caller, new(uint256.Int), initCode, 200_000, nil)

	require.True(t, reason.IsSucceed())
	require.Equal(t, want.Bytes(), output)
	require.Equal(t, 0, b.CodeSize(want))

	// A second CREATE from the same caller must land at a different
	// address, since the nonce has advanced.
	want2 := CreateAddress(caller, b.account(caller).nonce)
	require.NotEqual(t, want, want2)
	reason, output, _ = ex.TransactCreate(caller, new(uint256.Int), initCode, 200_000, nil)
	require.True(t, reason.IsSucceed())
	require.Equal(t, want2.Bytes(), output)
}

func TestExecutorTransactCreate2DerivesSaltedAddress(t *testing.T) {
	b := newFakeBackend()
	caller := addr(0x01)
	initCode := []byte{byte(STOP)}
	salt := hashOf(0x42)

	ex := newTestExecutor(t, b)
	want := Create2Address(caller, salt, initCode)
	reason, output, _ := ex.TransactCreate2(caller, new(uint256.Int), initCode, salt, 200_000, nil)

	require.True(t, reason.IsSucceed())
	require.Equal(t, want.Bytes(), output)

	// Changing the salt must change the derived address even though
	// sender and init code are identical.
	otherSalt := hashOf(0x43)
	wantOther := Create2Address(caller, otherSalt, initCode)
	require.NotEqual(t, want, wantOther)
}

// --- depth-limit boundary: pins the createInner/callInner off-by-one fix ---

func TestExecutorCallDepthBoundary(t *testing.T) {
	b := newFakeBackend()
	caller, target := addr(0x01), addr(0x02)
	ex := newTestExecutor(t, b)
	callCtx := CallContext{Address: target, StorageOwner: target, Caller: caller, Value: new(uint256.Int)}

	atLimit := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	atLimit.Depth = ex.Config.CallStackLimit
	reason, _ := ex.callInner(atLimit, callCtx, target, nil, 1000, false)
	require.True(t, reason.IsSucceed(), "the 1024th nested call must still be allowed")

	oneTooDeep := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	oneTooDeep.Depth = ex.Config.CallStackLimit + 1
	reason, _ = ex.callInner(oneTooDeep, callCtx, target, nil, 1000, false)
	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrCallTooDeep)
}

func TestExecutorCreateDepthBoundary(t *testing.T) {
	b := newFakeBackend()
	caller := addr(0x01)
	ex := newTestExecutor(t, b)

	atLimit := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	atLimit.Depth = ex.Config.CallStackLimit
	target1 := CreateAddress(caller, 0)
	reason, _ := ex.createInner(atLimit, caller, target1, new(uint256.Int), []byte{byte(STOP)}, 1000)
	require.True(t, reason.IsSucceed(), "the 1024th nested create must still be allowed")

	oneTooDeep := NewSubstate(NewGasometer(1_000_000, ex.Config.MaxRefundQuotient), false)
	oneTooDeep.Depth = ex.Config.CallStackLimit + 1
	target2 := CreateAddress(caller, 1)
	reason, _ = ex.createInner(oneTooDeep, caller, target2, new(uint256.Int), []byte{byte(STOP)}, 1000)
	require.True(t, reason.IsError())
	require.ErrorIs(t, reason.Error(), ErrCallTooDeep)
}
