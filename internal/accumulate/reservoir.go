package accumulate

import (
	"math/rand"
)

// Reservoir maintains a fixed-capacity uniform random sample of a float
// stream (algorithm R). One pass, O(1) per value, no retained copy of the
// stream. The generator is owned by the caller so sampling is
// reproducible for a fixed seed.
type Reservoir struct {
	capacity int
	rng      *rand.Rand
	values   []float64
	seen     int64
}

// NewReservoir creates a reservoir with the given capacity and generator
func NewReservoir(capacity int, rng *rand.Rand) *Reservoir {
	return &Reservoir{
		capacity: capacity,
		rng:      rng,
		values:   make([]float64, 0, minInt(capacity, 1024)),
	}
}

// Add offers one value to the sample
func (r *Reservoir) Add(v float64) {
	r.seen++
	if len(r.values) < r.capacity {
		r.values = append(r.values, v)
		return
	}
	j := r.rng.Int63n(r.seen)
	if j < int64(r.capacity) {
		r.values[j] = v
	}
}

// Len returns the current sample size, always min(seen, capacity)
func (r *Reservoir) Len() int {
	return len(r.values)
}

// Seen returns how many values were offered
func (r *Reservoir) Seen() int64 {
	return r.seen
}

// Snapshot returns a copy of the sample
func (r *Reservoir) Snapshot() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
