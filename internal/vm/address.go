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
	"golang.org/x/crypto/sha3"

	"github.com/ethforge/evmcore/types"
)

// rlpUint encodes n as a canonical RLP unsigned integer: zero is the
// single byte 0x80 (an empty string), otherwise the minimal big-endian
// byte representation prefixed per the short/long string rules.
func rlpUint(n uint64) []byte {
	if n == 0 {
		return []byte{0x80}
	}
	var b [8]byte
	b[0] = byte(n >> 56)
	b[1] = byte(n >> 48)
	b[2] = byte(n >> 40)
	b[3] = byte(n >> 32)
	b[4] = byte(n >> 24)
	b[5] = byte(n >> 16)
	b[6] = byte(n >> 8)
	b[7] = byte(n)
	i := 0
	for i < 7 && b[i] == 0 {
		i++
	}
	content := b[i:]
	if len(content) == 1 && content[0] < 0x80 {
		return content
	}
	return append([]byte{0x80 + byte(len(content))}, content...)
}

// rlpBytes encodes an arbitrary byte string under the same short-string
// rule; a 20-byte address is always encoded as a "long enough" short
// string (length 20 ≤ 55), so the single-length-byte case always applies.
func rlpBytes(data []byte) []byte {
	if len(data) == 1 && data[0] < 0x80 {
		return data
	}
	return append([]byte{0x80 + byte(len(data))}, data...)
}

// rlpList wraps already-encoded items in an RLP list header. Every caller
// here stays well under the 56-byte long-list threshold.
func rlpList(items ...[]byte) []byte {
	var total int
	for _, it := range items {
		total += len(it)
	}
	out := make([]byte, 0, total+1)
	out = append(out, 0xc0+byte(total))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// CreateAddress derives the address of a contract created via CREATE:
// keccak256(rlp([sender, sender_nonce]))[12:].
func CreateAddress(sender types.Address, nonce uint64) types.Address {
	encoded := rlpList(rlpBytes(sender.Bytes()), rlpUint(nonce))
	hash := sha3.NewLegacyKeccak256()
	hash.Write(encoded)
	sum := hash.Sum(nil)
	var addr types.Address
	copy(addr[:], sum[12:])
	return addr
}

// Create2Address derives the address of a contract created via CREATE2:
// keccak256(0xff ‖ sender ‖ salt ‖ keccak256(init_code))[12:].
func Create2Address(sender types.Address, salt types.Hash, initCode []byte) types.Address {
	initHash := sha3.NewLegacyKeccak256()
	initHash.Write(initCode)
	initSum := initHash.Sum(nil)

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte{0xff})
	hash.Write(sender.Bytes())
	hash.Write(salt.Bytes())
	hash.Write(initSum)
	sum := hash.Sum(nil)

	var addr types.Address
	copy(addr[:], sum[12:])
	return addr
}
