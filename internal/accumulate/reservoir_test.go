package accumulate

import (
	"math"
	"math/rand"
	"testing"
)

func TestReservoirBelowCapacityKeepsEverything(t *testing.T) {
	r := NewReservoir(100, rand.New(rand.NewSource(1)))
	for i := 0; i < 50; i++ {
		r.Add(float64(i))
	}
	if r.Len() != 50 {
		t.Fatalf("Expected 50 values, got %d", r.Len())
	}
	for i, v := range r.Snapshot() {
		if v != float64(i) {
			t.Fatalf("Expected value %d at index %d, got %v", i, i, v)
		}
	}
}

func TestReservoirSizeIsMinSeenCapacity(t *testing.T) {
	cases := []struct {
		capacity int
		stream   int
		expected int
	}{
		{10, 3, 3},
		{10, 10, 10},
		{10, 10000, 10},
		{1, 500, 1},
	}
	for _, tc := range cases {
		r := NewReservoir(tc.capacity, rand.New(rand.NewSource(99)))
		for i := 0; i < tc.stream; i++ {
			r.Add(float64(i))
		}
		if r.Len() != tc.expected {
			t.Errorf("capacity=%d stream=%d: expected size %d, got %d",
				tc.capacity, tc.stream, tc.expected, r.Len())
		}
		if r.Seen() != int64(tc.stream) {
			t.Errorf("capacity=%d stream=%d: expected seen %d, got %d",
				tc.capacity, tc.stream, tc.stream, r.Seen())
		}
	}
}

func TestReservoirDeterminism(t *testing.T) {
	build := func() []float64 {
		r := NewReservoir(64, rand.New(rand.NewSource(12345)))
		for i := 0; i < 5000; i++ {
			r.Add(float64(i) * 0.5)
		}
		return r.Snapshot()
	}

	first := build()
	second := build()
	if len(first) != len(second) {
		t.Fatalf("Sample sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Samples diverge at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestReservoirSampleIsRepresentative(t *testing.T) {
	// Uniform stream over [0, 1000): the sample mean should sit near 500.
	r := NewReservoir(1000, rand.New(rand.NewSource(7)))
	for i := 0; i < 100000; i++ {
		r.Add(float64(i % 1000))
	}

	var sum float64
	for _, v := range r.Snapshot() {
		sum += v
	}
	mean := sum / float64(r.Len())
	if math.Abs(mean-499.5) > 50 {
		t.Fatalf("Sample mean %v too far from stream mean 499.5", mean)
	}
}

func TestReservoirSnapshotIsACopy(t *testing.T) {
	r := NewReservoir(4, rand.New(rand.NewSource(1)))
	r.Add(1)
	r.Add(2)

	snap := r.Snapshot()
	snap[0] = 99
	if r.Snapshot()[0] != 1 {
		t.Fatal("Snapshot mutation leaked into the reservoir")
	}
}
