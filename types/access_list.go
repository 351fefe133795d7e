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

package types

// AccessTuple is one entry of an EIP-2930 access list: an address together
// with the storage slots within it that should be pre-warmed.
type AccessTuple struct {
	Address     Address
	StorageKeys []Hash
}

// AccessList is a transaction-declared list of (address, [slots]) pairs
// pre-warmed under EIP-2929/2930.
type AccessList []AccessTuple

// Log is a single EVM log entry, produced by the LOG0..LOG4 opcodes.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte

	// BlockNumber, TxHash, TxIndex, Index and Removed are derived metadata
	// that the backend attaches once the log is appended to the chain; the
	// EVM core itself only ever populates Address, Topics and Data.
	BlockNumber uint64
	TxHash      Hash
	TxIndex     uint
	Index       uint
	Removed     bool
}
