package validation

import (
	"sort"

	"datacheck/domain/core"
	"datacheck/domain/dataset"
)

// OverflowBucket is the synthetic category absorbing distinct values past
// the cardinality cap. Its count is the aggregate of everything evicted;
// per-category identity beyond the cap is deliberately lost.
const OverflowBucket = "__other__"

// ColumnStats is the finalized, read-only snapshot of one column's
// accumulator. Numeric fields are zero (not NaN) when Count is too small
// to define them; callers gate on Count.
//
// INVARIANTS:
// - Count + MissingCount == rows observed for the dataset
// - Variance >= 0; StdDev == sqrt(Variance)
// - len(Sample) <= reservoir capacity
type ColumnStats struct {
	Name         string             `json:"name"`
	Kind         dataset.ColumnKind `json:"kind"`
	Position     int                `json:"position"`
	Count        int64              `json:"count"`         // non-missing observations
	MissingCount int64              `json:"missing_count"` // missing or malformed observations

	// Numeric columns. Variance is the sample variance (n-1 denominator).
	Mean     float64   `json:"mean,omitempty"`
	Variance float64   `json:"variance,omitempty"`
	StdDev   float64   `json:"std_dev,omitempty"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Sample   []float64 `json:"sample,omitempty"` // seeded reservoir snapshot

	// Categorical columns. Categories includes OverflowBucket when capped.
	Categories        map[string]int64 `json:"categories,omitempty"`
	CardinalityCapped bool             `json:"cardinality_capped,omitempty"`
}

// MissingRate returns the fraction of observed rows that were missing
func (c ColumnStats) MissingRate() float64 {
	total := c.Count + c.MissingCount
	if total == 0 {
		return 0
	}
	return float64(c.MissingCount) / float64(total)
}

// RowsObserved returns the number of rows this column has seen
func (c ColumnStats) RowsObserved() int64 {
	return c.Count + c.MissingCount
}

// Cardinality returns the distinct category count retained. When
// CardinalityCapped is true this is a floor: overflow identities were
// collapsed into OverflowBucket.
func (c ColumnStats) Cardinality() int {
	n := len(c.Categories)
	if _, ok := c.Categories[OverflowBucket]; ok {
		n--
	}
	return n
}

// TopCategories returns up to limit categories by descending count,
// overflow bucket excluded, ties broken by name for stable output.
func (c ColumnStats) TopCategories(limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(c.Categories))
	for name, count := range c.Categories {
		if name == OverflowBucket {
			continue
		}
		out = append(out, CategoryCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CategoryCount pairs a category with its occurrence count
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// DatasetStats maps finalized column snapshots for one dataset plus
// dataset-level counters. Created once all rows are consumed; immutable
// thereafter and owned by the run that produced it.
type DatasetStats struct {
	DatasetID      core.DatasetID         `json:"dataset_id"`
	Schema         dataset.Schema         `json:"schema"`
	RowCount       int64                  `json:"row_count"`
	DuplicateCount int64                  `json:"duplicate_count"`
	Columns        map[string]ColumnStats `json:"columns"`
}

// ByPosition returns column snapshots in schema order
func (d DatasetStats) ByPosition() []ColumnStats {
	out := make([]ColumnStats, 0, len(d.Columns))
	for _, col := range d.Columns {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Column looks up one snapshot by name
func (d DatasetStats) Column(name string) (ColumnStats, bool) {
	c, ok := d.Columns[name]
	return c, ok
}

// DuplicateRate returns the fraction of rows that re-occurred
func (d DatasetStats) DuplicateRate() float64 {
	if d.RowCount == 0 {
		return 0
	}
	return float64(d.DuplicateCount) / float64(d.RowCount)
}
