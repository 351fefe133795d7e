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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Execution metrics, registered once per process against the default
// registry. The executor and machine update these as a side effect of
// normal operation; nothing in this package ever reads them back, they
// exist purely for an operator's /metrics scrape.
var (
	opcodesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evmcore",
		Name:      "opcodes_executed_total",
		Help:      "Number of opcodes executed by the interpreter, by mnemonic.",
	}, []string{"opcode"})

	gasUsedPerTx = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evmcore",
		Name:      "gas_used_per_transaction",
		Help:      "Gas charged to the sender per top-level transaction.",
		Buckets:   prometheus.ExponentialBuckets(21000, 2, 16),
	})

	callDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evmcore",
		Name:      "call_depth",
		Help:      "Depth reached by each nested CALL/CREATE frame.",
		Buckets:   prometheus.LinearBuckets(0, 64, 17), // 0..1024 in steps of 64
	})
)
