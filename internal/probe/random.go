package probe

import "math/rand/v2"

// pcgStream decorrelates the two PCG words derived from a single seed.
const pcgStream = 0x9e3779b97f4a7c15

// Random draws uniformly distributed integers in [0, n).
type Random interface {
	IntN(n int) int
}

// NewRandom returns a PCG generator seeded with seed. Seed 0 picks a seed
// from the runtime generator. The result is not safe for concurrent use.
func NewRandom(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}
