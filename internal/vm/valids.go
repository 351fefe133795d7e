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
	"github.com/RoaringBitmap/roaring"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethforge/evmcore/types"
)

// Valids is a bit-vector over a code byte string: bit i is set iff byte i
// is a JUMPDEST that does not fall inside the literal payload of a PUSHn
// instruction. JUMP/JUMPI consult it to reject jumps into push data or onto
// non-JUMPDEST bytes without re-scanning code on every check.
type Valids struct {
	bits *roaring.Bitmap
}

// NewValids sweeps code left to right once, skipping PUSHn payload bytes,
// and records every JUMPDEST found outside a payload.
func NewValids(code []byte) *Valids {
	bits := roaring.New()
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		if op == JUMPDEST {
			bits.Add(uint32(pc))
			pc++
			continue
		}
		if op.IsPush() {
			pc += 1 + op.PushBytes()
			continue
		}
		pc++
	}
	return &Valids{bits: bits}
}

// IsValid reports whether dest is an in-range JUMPDEST eligible for JUMP
// and JUMPI targets.
func (v *Valids) IsValid(dest uint64) bool {
	if dest > 0xffffffff {
		return false
	}
	return v.bits.Contains(uint32(dest))
}

// validsCacheSize bounds the number of distinct deployed-contract Valids
// bitmaps kept resident; a repeatedly-called contract is swept once and
// every subsequent CALL into it reuses the cached bitmap.
const validsCacheSize = 1024

var validsCache, _ = lru.New[types.Hash, *Valids](validsCacheSize)

// ValidsForCode returns the Valids map for code, keyed by codeHash. A zero
// codeHash (init code running inside CREATE/CREATE2, which has no stable
// identity to cache under) always sweeps fresh and is never cached.
func ValidsForCode(codeHash types.Hash, code []byte) *Valids {
	if codeHash == (types.Hash{}) {
		return NewValids(code)
	}
	if v, ok := validsCache.Get(codeHash); ok {
		return v
	}
	v := NewValids(code)
	validsCache.Add(codeHash, v)
	return v
}
