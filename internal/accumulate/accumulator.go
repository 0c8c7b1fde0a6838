// Package accumulate implements single-pass, memory-bounded streaming
// statistics for one column: Welford mean/variance plus a seeded
// reservoir sample on the numeric path, capped exact counts on the
// categorical path. Accumulators never retain rows; memory is fixed by
// reservoir capacity and cardinality cap regardless of row count.
package accumulate

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"datacheck/domain/core"
	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

// ColumnAccumulator is the mutable running state for one column. Kind
// dispatch is a tag switch, not an interface, to keep the per-row path
// free of indirection. Not safe for concurrent use; the engine gives
// each column exclusively to one worker.
type ColumnAccumulator struct {
	spec     dataset.ColumnSpec
	rows     int64
	missing  int64
	closed   bool
	snapshot validation.ColumnStats

	// numeric state (Welford)
	count     int64
	mean      float64
	m2        float64
	min       float64
	max       float64
	reservoir *Reservoir

	// categorical state
	categories  map[string]int64
	cardinality int
	capLimit    int
	capped      bool
}

// NewColumnAccumulator creates the accumulator for one column. rng seeds
// the reservoir and is only consulted on the numeric path.
func NewColumnAccumulator(spec dataset.ColumnSpec, cfg validation.Config, rng *rand.Rand) *ColumnAccumulator {
	acc := &ColumnAccumulator{spec: spec}
	switch spec.Kind {
	case dataset.KindNumeric:
		acc.reservoir = NewReservoir(cfg.ReservoirCapacity, rng)
	default:
		acc.categories = make(map[string]int64)
		acc.capLimit = cfg.CategoryCardinalityCap
	}
	return acc
}

// Spec returns the column this accumulator is bound to
func (a *ColumnAccumulator) Spec() dataset.ColumnSpec {
	return a.spec
}

// RowsObserved returns count + missing, the number of Observe calls
func (a *ColumnAccumulator) RowsObserved() int64 {
	return a.rows
}

// Observe folds one value into the running state. O(1) amortized. It
// never rejects data: a malformed or non-finite value is recorded as
// missing. The only error is observing after Finalize.
func (a *ColumnAccumulator) Observe(v dataset.Value) error {
	if a.closed {
		return core.NewAccumulatorClosedError(a.spec.Name)
	}
	a.rows++
	switch a.spec.Kind {
	case dataset.KindNumeric:
		a.observeNumeric(v)
	default:
		a.observeCategorical(v)
	}
	return nil
}

func (a *ColumnAccumulator) observeNumeric(v dataset.Value) {
	val, ok := numericOf(v)
	if !ok {
		a.missing++
		return
	}

	a.count++
	delta := val - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (val - a.mean)

	if a.count == 1 {
		a.min, a.max = val, val
	} else {
		if val < a.min {
			a.min = val
		}
		if val > a.max {
			a.max = val
		}
	}
	a.reservoir.Add(val)
}

func (a *ColumnAccumulator) observeCategorical(v dataset.Value) {
	cat, ok := categoryOf(v)
	if !ok {
		a.missing++
		return
	}

	a.count++
	if _, seen := a.categories[cat]; seen {
		a.categories[cat]++
		return
	}
	if a.cardinality < a.capLimit {
		a.categories[cat] = 1
		a.cardinality++
		return
	}
	// Past the cap: aggregate frequency survives, identity does not.
	a.categories[validation.OverflowBucket]++
	a.capped = true
}

// Finalize freezes the accumulator into a read-only snapshot. Idempotent:
// every call returns the identical cached value. Observe is rejected
// afterwards.
func (a *ColumnAccumulator) Finalize() validation.ColumnStats {
	if a.closed {
		return a.snapshot
	}
	a.closed = true

	stats := validation.ColumnStats{
		Name:         a.spec.Name,
		Kind:         a.spec.Kind,
		Position:     a.spec.Position,
		Count:        a.count,
		MissingCount: a.missing,
	}

	switch a.spec.Kind {
	case dataset.KindNumeric:
		stats.Mean = a.mean
		if a.count >= 2 {
			variance := a.m2 / float64(a.count-1)
			if variance < 0 {
				// Rounding can push m2 a hair below zero.
				variance = 0
			}
			stats.Variance = variance
			stats.StdDev = math.Sqrt(variance)
		}
		stats.Min = a.min
		stats.Max = a.max
		stats.Sample = a.reservoir.Snapshot()
	default:
		categories := make(map[string]int64, len(a.categories))
		for k, n := range a.categories {
			categories[k] = n
		}
		stats.Categories = categories
		stats.CardinalityCapped = a.capped
	}

	a.snapshot = stats
	return a.snapshot
}

// numericOf extracts a finite float from a value, coercing parseable
// strings. Anything else counts as missing.
func numericOf(v dataset.Value) (float64, bool) {
	if v.IsMissing {
		return 0, false
	}
	if v.IsNumeric() {
		f := v.AsFloat64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if v.IsString() {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// categoryOf extracts the category label; numerics use their canonical
// decimal form so 1 and 1.0 land in the same bucket.
func categoryOf(v dataset.Value) (string, bool) {
	if v.IsMissing {
		return "", false
	}
	switch {
	case v.IsString():
		return v.AsString(), true
	case v.IsNumeric():
		return v.Canonical(), true
	}
	return "", false
}
