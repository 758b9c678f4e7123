// Package drng implements the Director's deterministic random stream.
//
// Every RNG use in the Director states its sub-stream domain explicitly
// (ambient randomness is forbidden): a sub-stream seed is derived by
// folding (world_seed, tick, domain-string) through a fixed splitmix64
// mixing function, then used to seed a ChaCha8 generator. Two instances
// constructed from the same seed produce bit-identical sequences on any
// platform, which is what the determinism contract requires.
//
// ChaCha8 has no faithful third-party Go implementation in wider use than
// the one shipped in the standard library's math/rand/v2; math/rand/v2's
// ChaCha8Source is used directly rather than reimplementing or vendoring
// the cipher.
package drng

import (
	"encoding/binary"
	"math/rand/v2"
)

// Rng wraps a ChaCha8-seeded generator with the Director's fixed value
// contract (u32/u64/f32-in-[0,1)/ranges/bool/derive_seed).
type Rng struct {
	seed uint64
	r    *rand.Rand
}

// New constructs an Rng directly from a raw 64-bit seed.
func New(seed uint64) *Rng {
	return &Rng{seed: seed, r: rand.New(rand.NewChaCha8(expandSeed(seed)))}
}

// WithDomain derives a sub-stream Rng scoped to (worldSeed, tick, domain).
// The folding function is fixed: splitmix64(worldSeed), mixed with tick,
// mixed with every byte of domain in turn.
func WithDomain(worldSeed uint64, tick uint64, domain string) *Rng {
	return New(FoldDomain(worldSeed, tick, domain))
}

// FoldDomain computes the deterministic sub-stream seed for
// (worldSeed, tick, domain) without constructing an Rng.
func FoldDomain(worldSeed uint64, tick uint64, domain string) uint64 {
	state := worldSeed
	mix := splitmix64Next(&state)
	mix ^= splitmix64Mix(tick)
	for i := 0; i < len(domain); i++ {
		mix = splitmix64Mix(mix ^ uint64(domain[i]))
	}
	return mix
}

// Seed returns the 64-bit seed this Rng was constructed from.
func (g *Rng) Seed() uint64 { return g.seed }

// U32 returns a random uint32.
func (g *Rng) U32() uint32 { return g.r.Uint32() }

// U64 returns a random uint64.
func (g *Rng) U64() uint64 { return g.r.Uint64() }

// F32 returns a random float64 in [0.0, 1.0).
func (g *Rng) F32() float64 { return g.r.Float64() }

// RangeI32 returns a random int in [min, max).
func (g *Rng) RangeI32(min, max int32) int32 {
	if max <= min {
		return min
	}
	return min + int32(g.r.Int64N(int64(max-min)))
}

// RangeF32 returns a random float64 in [min, max).
func (g *Rng) RangeF32(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.F32()*(max-min)
}

// Bool returns true with the given probability, p clamped to [0, 1].
func (g *Rng) Bool(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return g.F32() < p
}

// DeriveSeed draws a fresh value suitable for seeding a child generator.
func (g *Rng) DeriveSeed() uint64 { return g.U64() }

// MarshalBinary persists only the seed, not generator state: the
// Director never resumes a stream mid-sequence, it always re-derives a
// fresh sub-stream from (seed, tick, domain) at each point of use, so the
// seed alone is sufficient to reproduce all future behavior.
func (g *Rng) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, g.seed)
	return buf, nil
}

// UnmarshalBinary restores an Rng from a persisted seed.
func (g *Rng) UnmarshalBinary(data []byte) error {
	seed := binary.LittleEndian.Uint64(data)
	*g = *New(seed)
	return nil
}

func expandSeed(seed uint64) [32]byte {
	var out [32]byte
	state := seed
	for i := 0; i < 4; i++ {
		v := splitmix64Next(&state)
		binary.LittleEndian.PutUint64(out[i*8:(i+1)*8], v)
	}
	return out
}

func splitmix64Next(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	return splitmix64Mix(*state)
}

func splitmix64Mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
