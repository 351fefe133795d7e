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

package state

import (
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethforge/evmcore/internal/vm"
	"github.com/ethforge/evmcore/log"
	"github.com/ethforge/evmcore/types"
)

// InstrumentedBackend wraps a vm.Backend with per-call-kind counters and
// timing, for profiling how a transaction's execution spends its host-call
// time. The wrapped Backend is exercised as-is; this adds no semantics of
// its own.
//
// Usage:
//
//	backend := NewInstrumentedBackend(New(), true)
//	executor, err := vm.NewExecutor(backend, rules, precompiles, block, tx)
//	// ... run transaction ...
//	backend.LogStats()
type InstrumentedBackend struct {
	inner   vm.Backend
	enabled bool

	readCount  uint64
	writeCount uint64
	readTime   uint64
	writeTime  uint64

	storageReadCount  uint64
	storageWriteCount uint64
	storageReadTime   uint64
	storageWriteTime  uint64
}

// NewInstrumentedBackend creates a new instrumented wrapper around inner.
// Set enabled=false to skip the timing overhead entirely.
func NewInstrumentedBackend(inner vm.Backend, enabled bool) *InstrumentedBackend {
	return &InstrumentedBackend{inner: inner, enabled: enabled}
}

func (b *InstrumentedBackend) timeRead(f func()) {
	if !b.enabled {
		f()
		return
	}
	start := time.Now()
	f()
	atomic.AddUint64(&b.readCount, 1)
	atomic.AddUint64(&b.readTime, uint64(time.Since(start).Nanoseconds()))
}

func (b *InstrumentedBackend) timeWrite(f func()) {
	if !b.enabled {
		f()
		return
	}
	start := time.Now()
	f()
	atomic.AddUint64(&b.writeCount, 1)
	atomic.AddUint64(&b.writeTime, uint64(time.Since(start).Nanoseconds()))
}

func (b *InstrumentedBackend) timeStorageRead(f func()) {
	if !b.enabled {
		f()
		return
	}
	start := time.Now()
	f()
	atomic.AddUint64(&b.storageReadCount, 1)
	atomic.AddUint64(&b.storageReadTime, uint64(time.Since(start).Nanoseconds()))
}

func (b *InstrumentedBackend) timeStorageWrite(f func()) {
	if !b.enabled {
		f()
		return
	}
	start := time.Now()
	f()
	atomic.AddUint64(&b.storageWriteCount, 1)
	atomic.AddUint64(&b.storageWriteTime, uint64(time.Since(start).Nanoseconds()))
}

func (b *InstrumentedBackend) Basic(addr types.Address) (out vm.BasicAccount) {
	b.timeRead(func() { out = b.inner.Basic(addr) })
	return
}

func (b *InstrumentedBackend) Code(addr types.Address) (out []byte) {
	b.timeRead(func() { out = b.inner.Code(addr) })
	return
}

func (b *InstrumentedBackend) CodeSize(addr types.Address) (out int) {
	b.timeRead(func() { out = b.inner.CodeSize(addr) })
	return
}

func (b *InstrumentedBackend) CodeHash(addr types.Address) (out types.Hash) {
	b.timeRead(func() { out = b.inner.CodeHash(addr) })
	return
}

func (b *InstrumentedBackend) Storage(addr types.Address, key types.Hash) (out types.Hash) {
	b.timeStorageRead(func() { out = b.inner.Storage(addr, key) })
	return
}

func (b *InstrumentedBackend) OriginalStorage(addr types.Address, key types.Hash) (out types.Hash) {
	b.timeStorageRead(func() { out = b.inner.OriginalStorage(addr, key) })
	return
}

func (b *InstrumentedBackend) Exists(addr types.Address) (out bool) {
	b.timeRead(func() { out = b.inner.Exists(addr) })
	return
}

func (b *InstrumentedBackend) IsEmpty(addr types.Address) (out bool) {
	b.timeRead(func() { out = b.inner.IsEmpty(addr) })
	return
}

func (b *InstrumentedBackend) IncNonce(addr types.Address) {
	b.timeWrite(func() { b.inner.IncNonce(addr) })
}

func (b *InstrumentedBackend) SetStorage(addr types.Address, key, value types.Hash) {
	b.timeStorageWrite(func() { b.inner.SetStorage(addr, key, value) })
}

func (b *InstrumentedBackend) ResetStorage(addr types.Address) {
	b.timeStorageWrite(func() { b.inner.ResetStorage(addr) })
}

func (b *InstrumentedBackend) Log(l types.Log) {
	b.timeWrite(func() { b.inner.Log(l) })
}

func (b *InstrumentedBackend) SetDeleted(addr types.Address) {
	b.timeWrite(func() { b.inner.SetDeleted(addr) })
}

func (b *InstrumentedBackend) SetCode(addr types.Address, code []byte) {
	b.timeWrite(func() { b.inner.SetCode(addr, code) })
}

func (b *InstrumentedBackend) Transfer(from, to types.Address, value *uint256.Int) (err error) {
	b.timeWrite(func() { err = b.inner.Transfer(from, to, value) })
	return
}

func (b *InstrumentedBackend) ResetBalance(addr types.Address, value *uint256.Int) {
	b.timeWrite(func() { b.inner.ResetBalance(addr, value) })
}

func (b *InstrumentedBackend) Touch(addr types.Address) {
	b.timeWrite(func() { b.inner.Touch(addr) })
}

func (b *InstrumentedBackend) AddBalance(addr types.Address, value *uint256.Int) {
	b.timeWrite(func() { b.inner.AddBalance(addr, value) })
}

func (b *InstrumentedBackend) SubBalance(addr types.Address, value *uint256.Int) {
	b.timeWrite(func() { b.inner.SubBalance(addr, value) })
}

func (b *InstrumentedBackend) JournalEnter()       { b.inner.JournalEnter() }
func (b *InstrumentedBackend) JournalExitCommit()  { b.inner.JournalExitCommit() }
func (b *InstrumentedBackend) JournalExitRevert()  { b.inner.JournalExitRevert() }
func (b *InstrumentedBackend) JournalExitDiscard() { b.inner.JournalExitDiscard() }

func (b *InstrumentedBackend) IsAddressCold(addr types.Address) bool { return b.inner.IsAddressCold(addr) }
func (b *InstrumentedBackend) IsStorageCold(addr types.Address, key types.Hash) bool {
	return b.inner.IsStorageCold(addr, key)
}
func (b *InstrumentedBackend) MarkAddressWarm(addr types.Address) { b.inner.MarkAddressWarm(addr) }
func (b *InstrumentedBackend) MarkStorageWarm(addr types.Address, key types.Hash) {
	b.inner.MarkStorageWarm(addr, key)
}

// BackendStats holds accumulated call counts and timings for an
// InstrumentedBackend.
type BackendStats struct {
	ReadCount  uint64
	WriteCount uint64
	ReadTime   time.Duration
	WriteTime  time.Duration

	StorageReadCount  uint64
	StorageWriteCount uint64
	StorageReadTime   time.Duration
	StorageWriteTime  time.Duration
}

// TotalCalls returns the total number of instrumented calls.
func (s BackendStats) TotalCalls() uint64 {
	return s.ReadCount + s.WriteCount + s.StorageReadCount + s.StorageWriteCount
}

// TotalTime returns the total time spent across every instrumented call.
func (s BackendStats) TotalTime() time.Duration {
	return s.ReadTime + s.WriteTime + s.StorageReadTime + s.StorageWriteTime
}

// Stats returns the accumulated statistics.
func (b *InstrumentedBackend) Stats() BackendStats {
	return BackendStats{
		ReadCount:         atomic.LoadUint64(&b.readCount),
		WriteCount:        atomic.LoadUint64(&b.writeCount),
		ReadTime:          time.Duration(atomic.LoadUint64(&b.readTime)),
		WriteTime:         time.Duration(atomic.LoadUint64(&b.writeTime)),
		StorageReadCount:  atomic.LoadUint64(&b.storageReadCount),
		StorageWriteCount: atomic.LoadUint64(&b.storageWriteCount),
		StorageReadTime:   time.Duration(atomic.LoadUint64(&b.storageReadTime)),
		StorageWriteTime:  time.Duration(atomic.LoadUint64(&b.storageWriteTime)),
	}
}

// LogStats logs the accumulated statistics at debug level.
func (b *InstrumentedBackend) LogStats() {
	stats := b.Stats()
	log.Debug("backend stats",
		"reads", stats.ReadCount, "read_time", stats.ReadTime,
		"writes", stats.WriteCount, "write_time", stats.WriteTime,
		"storage_reads", stats.StorageReadCount, "storage_read_time", stats.StorageReadTime,
		"storage_writes", stats.StorageWriteCount, "storage_write_time", stats.StorageWriteTime,
	)
}

// Reset clears all counters.
func (b *InstrumentedBackend) Reset() {
	atomic.StoreUint64(&b.readCount, 0)
	atomic.StoreUint64(&b.writeCount, 0)
	atomic.StoreUint64(&b.readTime, 0)
	atomic.StoreUint64(&b.writeTime, 0)
	atomic.StoreUint64(&b.storageReadCount, 0)
	atomic.StoreUint64(&b.storageWriteCount, 0)
	atomic.StoreUint64(&b.storageReadTime, 0)
	atomic.StoreUint64(&b.storageWriteTime, 0)
}

var _ vm.Backend = (*InstrumentedBackend)(nil)
