package service

import (
	"encoding/binary"
	"math/bits"

	"card-exchange/internal/core/domain"

	"golang.org/x/crypto/blake2b"
)

// Slot values follow a geometric distribution: value k is drawn with
// probability 2^-(k+1), so each step up in value halves the odds. Higher
// values are the rarer alleles.
//
// All derivation goes through blake2b over the declared inputs, so the same
// seed always yields the same mask and no hidden state leaks in.
type BlakeTraitEngine struct{}

// NewTraitEngine creates a BlakeTraitEngine.
func NewTraitEngine() *BlakeTraitEngine { return &BlakeTraitEngine{} }

const threeWaySalt = 0x9e3779b97f4a7c15

// digest hashes the given words into a 32-byte deterministic stream,
// one 2-byte draw per trait slot.
func digest(words ...uint64) [32]byte {
	buf := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return blake2b.Sum256(buf)
}

// Generate derives a fresh rarity-weighted trait mask. The result is never
// zero: a minted card always has at least one trait bit set.
func (e *BlakeTraitEngine) Generate(seed uint64, cardType domain.CardType) uint64 {
	stream := digest(seed, uint64(uint16(cardType)))

	var mask uint64
	for slot := 0; slot < domain.TraitSlots; slot++ {
		draw := uint16(stream[slot*2])<<8 | uint16(stream[slot*2+1])
		v := uint64(bits.TrailingZeros16(draw))
		if v > 0xF {
			v = 0xF
		}
		mask = domain.WithTraitSlot(mask, slot, v)
	}
	if mask == 0 {
		mask = 1
	}
	return mask
}

// Combine mixes two parents into a child mask. Per slot the child takes the
// rarer parent allele a quarter of the time, otherwise one parent's allele at
// even odds, so rare traits propagate slightly faster than a coin flip would
// allow but common traits still dominate.
func (e *BlakeTraitEngine) Combine(matron, sire, seed uint64) uint64 {
	stream := digest(matron, sire, seed)

	var mask uint64
	for slot := 0; slot < domain.TraitSlots; slot++ {
		mv := domain.TraitSlot(matron, slot)
		sv := domain.TraitSlot(sire, slot)

		var v uint64
		switch draw := stream[slot]; {
		case draw < 64:
			v = mv
			if sv > mv {
				v = sv
			}
		case draw < 160:
			v = mv
		default:
			v = sv
		}
		mask = domain.WithTraitSlot(mask, slot, v)
	}
	if mask == 0 {
		mask = 1
	}
	return mask
}

// CombineThree folds the two-parent rule left to right: the first two inputs
// are combined, then the intermediate is combined with the third under a
// salted seed so the two rounds draw independent streams.
func (e *BlakeTraitEngine) CombineThree(first, second, third, seed uint64) uint64 {
	intermediate := e.Combine(first, second, seed)
	return e.Combine(intermediate, third, seed^threeWaySalt)
}
