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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ethforge/evmcore/types"
)

// Substate is the per-frame metadata pushed on entry to a call or create
// and popped, committed or discarded, on exit. It owns the frame's gas
// account, its static-context flag, and (on forks where EIP-2929 applies)
// the warm-access bookkeeping.
type Substate struct {
	Gasometer *Gasometer
	IsStatic  bool
	Depth     int

	warmAddresses mapset.Set[types.Address]
	warmSlots     mapset.Set[types.StorageKey]

	logs []types.Log
}

// NewSubstate creates the root substate for a transaction with an empty
// access set (access lists are seeded by the executor before the first
// frame runs).
func NewSubstate(gas *Gasometer, isStatic bool) *Substate {
	return &Substate{
		Gasometer:     gas,
		IsStatic:      isStatic,
		Depth:         0,
		warmAddresses: mapset.NewThreadUnsafeSet[types.Address](),
		warmSlots:     mapset.NewThreadUnsafeSet[types.StorageKey](),
	}
}

// Enter pushes a child substate for a nested call/create. is_static is
// inherited by logical OR: once set on any ancestor it stays set on every
// descendant.
func (s *Substate) Enter(gas *Gasometer, staticCall bool) *Substate {
	return &Substate{
		Gasometer:     gas,
		IsStatic:      s.IsStatic || staticCall,
		Depth:         s.Depth + 1,
		warmAddresses: s.warmAddresses.Clone(),
		warmSlots:     s.warmSlots.Clone(),
	}
}

// TouchAddress marks addr as warm, returning whether it was cold before
// this call (the caller uses this to charge EIP-2929 cold-access gas).
func (s *Substate) TouchAddress(addr types.Address) (wasCold bool) {
	wasCold = !s.warmAddresses.Contains(addr)
	s.warmAddresses.Add(addr)
	return wasCold
}

// IsAddressWarm reports whether addr has already been accessed in this
// transaction.
func (s *Substate) IsAddressWarm(addr types.Address) bool {
	return s.warmAddresses.Contains(addr)
}

// TouchSlot marks (address, slot) as warm, returning whether it was cold.
func (s *Substate) TouchSlot(addr types.Address, slot types.Hash) (wasCold bool) {
	key := types.StorageKey{Address: addr, Slot: slot}
	wasCold = !s.warmSlots.Contains(key)
	s.warmSlots.Add(key)
	return wasCold
}

// IsSlotWarm reports whether (address, slot) has already been accessed.
func (s *Substate) IsSlotWarm(addr types.Address, slot types.Hash) bool {
	return s.warmSlots.Contains(types.StorageKey{Address: addr, Slot: slot})
}

// AppendLog records a LOG0..LOG4 emission for this frame.
func (s *Substate) AppendLog(l types.Log) {
	s.logs = append(s.logs, l)
}

// Logs returns the logs accumulated directly in this frame (not including
// children; CommitChild folds a child's logs up into the parent).
func (s *Substate) Logs() []types.Log { return s.logs }

// CommitChild folds a successfully-completed child substate into s: the
// child's remaining gas becomes a stipend, its refund is inherited, its
// warm-access set is unioned in, and its logs are appended in order.
func (s *Substate) CommitChild(child *Substate) {
	s.Gasometer.RecordStipend(child.Gasometer.Gas())
	s.Gasometer.RecordRefund(int64(child.Gasometer.RefundedGas()))
	s.warmAddresses = s.warmAddresses.Union(child.warmAddresses)
	s.warmSlots = s.warmSlots.Union(child.warmSlots)
	s.logs = append(s.logs, child.logs...)
}

// RevertChild folds back only what a Revert exit preserves: the child's
// unused gas returns to the parent, but its access-set growth and logs do
// not survive the revert.
func (s *Substate) RevertChild(child *Substate) {
	s.Gasometer.RecordStipend(child.Gasometer.Gas())
}

// DiscardChild handles an Error/Fatal child exit: the child consumed its
// entire gas budget already (via Gasometer.Fail), so nothing is returned to
// the parent, and neither access-set growth nor logs survive.
func (s *Substate) DiscardChild(child *Substate) {
	_ = child
}
