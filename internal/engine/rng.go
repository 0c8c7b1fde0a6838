package engine

import (
	"math/rand"
)

// DeterministicRNG derives independent, reproducible streams from a base
// seed and a stream name. The same (name, seed) pair always yields an
// identical stream, regardless of how many other streams exist or how
// workers interleave.
type DeterministicRNG struct{}

// NewDeterministicRNG returns the stream factory used for real runs
func NewDeterministicRNG() *DeterministicRNG {
	return &DeterministicRNG{}
}

// SeededStream implements ports.RNG
func (DeterministicRNG) SeededStream(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(hashString(name))))
}

// hashString creates a stable hash for stream seed derivation
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
