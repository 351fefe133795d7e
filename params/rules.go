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

// Package params carries the hard-fork-dependent switches that the EVM core
// consults but does not itself decide: which rule set is active for a given
// call.
package params

// Rules is the set of hard-fork activation flags relevant to the EVM core.
// It deliberately only tracks forks that change interpreter, gas or
// substate behavior; consensus-only forks (difficulty bomb delays, PoS
// transition, …) have no entry here.
type Rules struct {
	IsHomestead        bool // EIP-2: DELEGATECALL-less CALL gas repricing, contract creation OOG
	IsTangerineWhistle bool // EIP-150: gas repricing, call stipend introduction groundwork
	IsSpuriousDragon   bool // EIP-161/170: empty account pruning, max code size
	IsByzantium        bool // EIP-140/196/197/198/211/214/649/658: REVERT, STATICCALL, precompiles
	IsConstantinople   bool // EIP-145/1014/1052/1283: SHL/SHR/SAR, CREATE2, EXTCODEHASH
	IsPetersburg       bool // EIP-1283 net-metering disabled pending Istanbul
	IsIstanbul         bool // EIP-1108/1344/1884/2028/2200: gas repricing, CHAINID, SELFBALANCE
	IsBerlin           bool // EIP-2929/2930: access lists, cold/warm gas accounting
	IsLondon           bool // EIP-1559/3198/3529/3541: BASEFEE, refund cap, EOF-rejection on deploy
}

// ChainConfig selects the fork-activation block/time boundaries for a chain.
// The EVM core only needs the derived Rules for the call in question; a
// host typically derives Rules from ChainConfig and the current block
// number once per block and reuses it across the block's transactions.
type ChainConfig struct {
	ChainID uint64

	HomesteadBlock        uint64
	TangerineWhistleBlock uint64
	SpuriousDragonBlock   uint64
	ByzantiumBlock        uint64
	ConstantinopleBlock   uint64
	PetersburgBlock       uint64
	IstanbulBlock         uint64
	BerlinBlock           uint64
	LondonBlock           uint64
}

// Rules derives the rule set active at the given block number.
func (c *ChainConfig) Rules(blockNumber uint64) Rules {
	return Rules{
		IsHomestead:        blockNumber >= c.HomesteadBlock,
		IsTangerineWhistle: blockNumber >= c.TangerineWhistleBlock,
		IsSpuriousDragon:   blockNumber >= c.SpuriousDragonBlock,
		IsByzantium:        blockNumber >= c.ByzantiumBlock,
		IsConstantinople:   blockNumber >= c.ConstantinopleBlock,
		IsPetersburg:       blockNumber >= c.PetersburgBlock,
		IsIstanbul:         blockNumber >= c.IstanbulBlock,
		IsBerlin:           blockNumber >= c.BerlinBlock,
		IsLondon:           blockNumber >= c.LondonBlock,
	}
}

// MainnetChainConfig is a ChainConfig with mainnet's historical fork blocks,
// handy for tests and examples that want "current rules" without having to
// spell out every flag.
var MainnetChainConfig = &ChainConfig{
	ChainID:               1,
	HomesteadBlock:        1_150_000,
	TangerineWhistleBlock: 2_463_000,
	SpuriousDragonBlock:   2_675_000,
	ByzantiumBlock:        4_370_000,
	ConstantinopleBlock:   7_280_000,
	PetersburgBlock:       7_280_000,
	IstanbulBlock:         9_069_000,
	BerlinBlock:           12_244_000,
	LondonBlock:           12_965_000,
}

// AllRulesEnabled is every flag set, i.e. the rules in effect at and after
// London. Most unit tests that aren't specifically exercising fork-gated
// behavior should use this.
var AllRulesEnabled = Rules{
	IsHomestead:        true,
	IsTangerineWhistle: true,
	IsSpuriousDragon:   true,
	IsByzantium:        true,
	IsConstantinople:   true,
	IsPetersburg:       true,
	IsIstanbul:         true,
	IsBerlin:           true,
	IsLondon:           true,
}
