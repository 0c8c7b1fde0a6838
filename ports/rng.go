package ports

import (
	"math/rand"
)

// RNG provides seeded random number generation for deterministic runs
type RNG interface {
	// SeededStream returns an independent generator for a named operation.
	// The same (name, seed) pair always yields the same stream, regardless
	// of how many other streams were requested before it.
	SeededStream(name string, seed int64) *rand.Rand
}
