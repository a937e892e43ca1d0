package sampler

import "math/rand/v2"

// Source is the random stream a formula draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// seededSource remembers the seed it was built from so clouds can record it.
type seededSource struct {
	*rand.Rand
	seed uint64
}

// NewSource returns a PCG-backed source. Seed 0 draws a fresh random seed,
// which is still recorded on clouds generated from the source.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	return &seededSource{
		Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// SeedOf returns the seed recorded by NewSource, or 0 for foreign sources.
func SeedOf(src Source) uint64 {
	if s, ok := src.(*seededSource); ok {
		return s.seed
	}
	return 0
}
