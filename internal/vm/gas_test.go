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

	"github.com/stretchr/testify/require"
)

func TestGasometerRecordCostOutOfGas(t *testing.T) {
	g := NewGasometer(10, 2)
	require.NoError(t, g.RecordCost(10))
	require.Equal(t, uint64(0), g.Gas())

	err := g.RecordCost(1)
	require.ErrorIs(t, err, ErrOutOfGas)
	require.Equal(t, uint64(0), g.Gas(), "a rejected charge must not mutate used gas")
}

func TestGasometerRefundClampsAtZero(t *testing.T) {
	g := NewGasometer(100, 2)
	g.RecordRefund(5)
	require.Equal(t, uint64(5), g.RefundedGas())

	g.RecordRefund(-10)
	require.Equal(t, uint64(0), g.RefundedGas(), "refund must clamp at zero rather than wrap")
}

func TestGasometerStipendIncreasesAvailableGas(t *testing.T) {
	g := NewGasometer(10, 2)
	require.NoError(t, g.RecordCost(10))
	require.Equal(t, uint64(0), g.Gas())

	g.RecordStipend(50)
	require.Equal(t, uint64(50), g.Gas())
}

func TestGasometerFailConsumesRemainingGas(t *testing.T) {
	g := NewGasometer(1000, 2)
	require.NoError(t, g.RecordCost(100))
	g.Fail()
	require.Equal(t, uint64(0), g.Gas())
	require.Equal(t, uint64(1000), g.UsedGas())
}

func TestGasometerFinalRefundCapsAtQuotient(t *testing.T) {
	g := NewGasometer(1000, 2) // pre-London: cap = usedGas/2
	require.NoError(t, g.RecordCost(100))
	g.RecordRefund(1000)
	require.Equal(t, uint64(50), g.FinalRefund())
}

func TestGasometerFinalRefundBelowCapIsUnchanged(t *testing.T) {
	g := NewGasometer(1000, 5) // post-London: cap = usedGas/5
	require.NoError(t, g.RecordCost(100))
	g.RecordRefund(5)
	require.Equal(t, uint64(5), g.FinalRefund())
}

func TestMemoryExpansionCostIsZeroWhenNoGrowthNeeded(t *testing.T) {
	require.Equal(t, uint64(0), MemoryExpansionCost(64, 32))
	require.Equal(t, uint64(0), MemoryExpansionCost(64, 64))
}

func TestMemoryExpansionCostIsIncremental(t *testing.T) {
	first := MemoryExpansionCost(0, 32)
	grownOnce := MemoryExpansionCost(32, 64)
	total := MemoryExpansionCost(0, 64)
	require.Equal(t, total, first+grownOnce)
}

func TestCallGasL64AppliesEIP150Rule(t *testing.T) {
	require.Equal(t, uint64(63), CallGasL64(64))
	require.Equal(t, uint64(6300), CallGasL64(6400))
}
