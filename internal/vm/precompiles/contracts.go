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

// Package precompiles implements the addresses 0x01..0x09 standard
// precompiled contracts: pure functions of their input, priced by
// RequiredGas and executed by Run, with no access to world state.
package precompiles

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	bn256 "github.com/umbracle/go-eth-bn256"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for the RIPEMD160 precompile

	"github.com/ethforge/evmcore/internal/vm"
)

var (
	errBadPairingInputSize = errors.New("bad elliptic curve pairing size")
	errInvalidCurvePoint   = errors.New("invalid elliptic curve point")
)

// secp256k1Order is the order of the secp256k1 base point; valid ECDSA
// signature components must fall strictly between zero and this value.
var secp256k1Order, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// --- address 0x01: ECRECOVER ---

type ecrecover struct{}

func NewEcrecover() vm.PrecompiledContract { return ecrecover{} }

func (ecrecover) RequiredGas(_ []byte) uint64 { return 3000 }

// Run recovers the 20-byte address from a (hash, v, r, s) quadruple, each
// padded to 32 bytes; malformed or out-of-range input yields empty output
// rather than an error, matching on-chain ECRECOVER's fail-soft behavior.
func (ecrecover) Run(input []byte) ([]byte, error) {
	const inputLen = 128
	padded := make([]byte, inputLen)
	copy(padded, input)

	hash := padded[:32]
	v := new(big.Int).SetBytes(padded[32:64])
	r := padded[64:96]
	s := padded[96:128]

	if !v.IsUint64() || (v.Uint64() != 27 && v.Uint64() != 28) {
		return nil, nil
	}
	recID := byte(v.Uint64() - 27)

	if !validSignatureValues(r, s) {
		return nil, nil
	}

	compact := make([]byte, 65)
	compact[0] = 27 + recID
	copy(compact[1:33], r)
	copy(compact[33:65], s)

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, nil
	}

	out := make([]byte, 32)
	addr := pubkeyToAddress(pub.SerializeUncompressed())
	copy(out[12:], addr[:])
	return out, nil
}

// validSignatureValues rejects r, s outside (0, secp256k1 order).
func validSignatureValues(r, s []byte) bool {
	rInt := new(big.Int).SetBytes(r)
	sInt := new(big.Int).SetBytes(s)
	if rInt.Sign() == 0 || sInt.Sign() == 0 {
		return false
	}
	return rInt.Cmp(secp256k1Order) < 0 && sInt.Cmp(secp256k1Order) < 0
}

// pubkeyToAddress derives the low 20 bytes of keccak256 over the
// uncompressed public key's X||Y coordinates (dropping the leading 0x04
// format byte), the standard Ethereum address derivation.
func pubkeyToAddress(uncompressed []byte) [20]byte {
	h := keccak256(uncompressed[1:])
	var addr [20]byte
	copy(addr[:], h[12:])
	return addr
}

// --- address 0x02: SHA256 ---

type sha256hash struct{}

func NewSha256() vm.PrecompiledContract { return sha256hash{} }

func (sha256hash) RequiredGas(input []byte) uint64 {
	return 60 + 12*uint64(wordCount(len(input)))
}

func (sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- address 0x03: RIPEMD160 ---

type ripemd160hash struct{}

func NewRipemd160() vm.PrecompiledContract { return ripemd160hash{} }

func (ripemd160hash) RequiredGas(input []byte) uint64 {
	return 600 + 120*uint64(wordCount(len(input)))
}

func (ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	sum := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], sum)
	return out, nil
}

// --- address 0x04: IDENTITY (data copy) ---

type dataCopy struct{}

func NewDataCopy() vm.PrecompiledContract { return dataCopy{} }

func (dataCopy) RequiredGas(input []byte) uint64 {
	return 15 + 3*uint64(wordCount(len(input)))
}

func (dataCopy) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// --- address 0x05: MODEXP ---

type bigModExp struct{ eip2565 bool }

func NewBigModExp(eip2565 bool) vm.PrecompiledContract { return bigModExp{eip2565: eip2565} }

func wordCount(n int) int { return (n + 31) / 32 }

func (c bigModExp) RequiredGas(input []byte) uint64 {
	baseLen, expLen, modLen := modExpLens(input)

	var expHead *big.Int
	if baseLen+96 < uint64(len(input)) && expLen > 0 {
		start := baseLen + 96
		end := start + minUint64(expLen, 32)
		if end > uint64(len(input)) {
			end = uint64(len(input))
		}
		expHead = new(big.Int).SetBytes(input[start:end])
	} else {
		expHead = new(big.Int)
	}

	maxLen := baseLen
	if modLen > maxLen {
		maxLen = modLen
	}

	if c.eip2565 {
		return modExpGasEIP2565(maxLen, expLen, expHead)
	}
	return modExpGasByzantium(maxLen, expLen, expHead)
}

func modExpLens(input []byte) (baseLen, expLen, modLen uint64) {
	get := func(i int) *big.Int {
		padded := make([]byte, 32)
		if i < len(input) {
			copy(padded, input[i:minInt(i+32, len(input))])
		}
		return new(big.Int).SetBytes(padded)
	}
	baseLen = get(0).Uint64()
	expLen = get(32).Uint64()
	modLen = get(64).Uint64()
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// adjustedExpLen implements the "effective" exponent length used by both
// gas schedules: bitlen(expHead)-1 (zero when expHead is zero), plus
// 8*(expLen-32) when the exponent is longer than 32 bytes.
func adjustedExpLen(expLen uint64, expHead *big.Int) uint64 {
	var adjusted uint64
	if expLen > 32 {
		adjusted = 8 * (expLen - 32)
	}
	if bitLen := expHead.BitLen(); bitLen > 0 {
		adjusted += uint64(bitLen - 1)
	}
	return adjusted
}

func modExpGasByzantium(maxLen, expLen uint64, expHead *big.Int) uint64 {
	gas := new(big.Int).SetUint64(maxLen)
	gas.Mul(gas, gas)

	adjusted := adjustedExpLen(expLen, expHead)
	if adjusted < 1 {
		adjusted = 1
	}
	gas.Mul(gas, new(big.Int).SetUint64(adjusted))
	gas.Div(gas, big.NewInt(20))
	if !gas.IsUint64() {
		return ^uint64(0)
	}
	return gas.Uint64()
}

func modExpGasEIP2565(maxLen, expLen uint64, expHead *big.Int) uint64 {
	words := (maxLen + 7) / 8
	gas := new(big.Int).SetUint64(words)
	gas.Mul(gas, gas)

	adjusted := adjustedExpLen(expLen, expHead)
	if adjusted < 1 {
		adjusted = 1
	}
	gas.Mul(gas, new(big.Int).SetUint64(adjusted))
	gas.Div(gas, big.NewInt(3))
	if gas.Cmp(big.NewInt(200)) < 0 {
		return 200
	}
	if !gas.IsUint64() {
		return ^uint64(0)
	}
	return gas.Uint64()
}

func (bigModExp) Run(input []byte) ([]byte, error) {
	baseLen, expLen, modLen := modExpLens(input)
	if baseLen == 0 && modLen == 0 {
		return []byte{}, nil
	}

	field := func(start, length uint64) []byte {
		buf := make([]byte, length)
		if start < uint64(len(input)) {
			end := start + length
			if end > uint64(len(input)) {
				end = uint64(len(input))
			}
			copy(buf, input[start:end])
		}
		return buf
	}

	base := new(big.Int).SetBytes(field(96, baseLen))
	exp := new(big.Int).SetBytes(field(96+baseLen, expLen))
	mod := new(big.Int).SetBytes(field(96+baseLen+expLen, modLen))

	out := make([]byte, modLen)
	if mod.Sign() == 0 {
		return out, nil
	}
	result := new(big.Int).Exp(base, exp, mod)
	result.FillBytes(out)
	return out, nil
}

// --- addresses 0x06/0x07/0x08: BN256 (alt_bn128) ---

type bn256Add struct{ istanbul bool }

func NewBn256Add(istanbul bool) vm.PrecompiledContract { return bn256Add{istanbul: istanbul} }

func (c bn256Add) RequiredGas(_ []byte) uint64 {
	if c.istanbul {
		return 150
	}
	return 500
}

func (bn256Add) Run(input []byte) ([]byte, error) {
	padded := make([]byte, 128)
	copy(padded, input)

	p1, err := decodeBn256G1(padded[0:64])
	if err != nil {
		return nil, err
	}
	p2, err := decodeBn256G1(padded[64:128])
	if err != nil {
		return nil, err
	}
	res := new(bn256.G1).Add(p1, p2)
	return res.Marshal(), nil
}

type bn256ScalarMul struct{ istanbul bool }

func NewBn256ScalarMul(istanbul bool) vm.PrecompiledContract {
	return bn256ScalarMul{istanbul: istanbul}
}

func (c bn256ScalarMul) RequiredGas(_ []byte) uint64 {
	if c.istanbul {
		return 6000
	}
	return 40000
}

func (bn256ScalarMul) Run(input []byte) ([]byte, error) {
	padded := make([]byte, 96)
	copy(padded, input)

	p, err := decodeBn256G1(padded[0:64])
	if err != nil {
		return nil, err
	}
	scalar := new(big.Int).SetBytes(padded[64:96])
	res := new(bn256.G1).ScalarMult(p, scalar)
	return res.Marshal(), nil
}

type bn256Pairing struct{ istanbul bool }

func NewBn256Pairing(istanbul bool) vm.PrecompiledContract { return bn256Pairing{istanbul: istanbul} }

const bn256PairElementSize = 192

func (c bn256Pairing) RequiredGas(input []byte) uint64 {
	pairs := uint64(len(input) / bn256PairElementSize)
	if c.istanbul {
		return 45000 + pairs*34000
	}
	return 100000 + pairs*80000
}

// Run checks e(a1,b1)*...*e(ak,bk) == 1 over the alt_bn128 pairing,
// returning the 32-byte word 1 (true) or 0 (false). An input whose length
// isn't a multiple of 192 bytes (2 G1 coords + 4 G2 coords, 32 bytes each)
// is malformed.
func (bn256Pairing) Run(input []byte) ([]byte, error) {
	if len(input)%bn256PairElementSize != 0 {
		return nil, errBadPairingInputSize
	}

	var g1s []*bn256.G1
	var g2s []*bn256.G2
	for i := 0; i < len(input); i += bn256PairElementSize {
		chunk := input[i : i+bn256PairElementSize]
		p1, err := decodeBn256G1(chunk[0:64])
		if err != nil {
			return nil, err
		}
		p2, err := decodeBn256G2(chunk[64:192])
		if err != nil {
			return nil, err
		}
		g1s = append(g1s, p1)
		g2s = append(g2s, p2)
	}

	out := make([]byte, 32)
	if len(g1s) == 0 {
		out[31] = 1
		return out, nil
	}
	ok := bn256.PairingCheck(g1s, g2s)
	if ok {
		out[31] = 1
	}
	return out, nil
}

func decodeBn256G1(data []byte) (*bn256.G1, error) {
	p := new(bn256.G1)
	if _, err := p.Unmarshal(data); err != nil {
		return nil, errInvalidCurvePoint
	}
	return p, nil
}

func decodeBn256G2(data []byte) (*bn256.G2, error) {
	p := new(bn256.G2)
	if _, err := p.Unmarshal(data); err != nil {
		return nil, errInvalidCurvePoint
	}
	return p, nil
}

// --- address 0x09: BLAKE2F ---

type blake2F struct{}

func NewBlake2F() vm.PrecompiledContract { return blake2F{} }

const blake2FInputLength = 213

func (blake2F) RequiredGas(input []byte) uint64 {
	if len(input) != blake2FInputLength {
		return 0
	}
	return uint64(beUint32(input[0:4]))
}

// Run implements EIP-152: input is rounds(4) || h(64) || m(128) || t(16) ||
// f(1); h and m are little-endian words, output is the 64-byte updated
// state vector.
func (blake2F) Run(input []byte) ([]byte, error) {
	if len(input) != blake2FInputLength {
		return nil, errors.New("invalid blake2f input length")
	}
	if input[212] != 0 && input[212] != 1 {
		return nil, errors.New("invalid blake2f final block flag")
	}

	rounds := beUint32(input[0:4])

	var h [8]uint64
	for i := 0; i < 8; i++ {
		h[i] = leUint64(input[4+i*8 : 12+i*8])
	}
	var m [16]uint64
	for i := 0; i < 16; i++ {
		m[i] = leUint64(input[68+i*8 : 76+i*8])
	}
	t0 := leUint64(input[196:204])
	t1 := leUint64(input[204:212])
	final := input[212] == 1

	blake2fCompress(&h, m, [2]uint64{t0, t1}, final, rounds)

	out := make([]byte, 64)
	for i := 0; i < 8; i++ {
		putLeUint64(out[i*8:i*8+8], h[i])
	}
	return out, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putLeUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
