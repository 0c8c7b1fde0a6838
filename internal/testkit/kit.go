// Package testkit provides synthetic datasets and an in-memory row
// source. Tests and the demo command build realistic inputs from it
// without touching the filesystem.
package testkit

import (
	"context"
	"io"
	"math"
	"math/rand"

	"datacheck/domain/dataset"
	"datacheck/ports"
)

// MemorySource serves a fixed row set as a ports.RowSource
type MemorySource struct {
	schema dataset.Schema
	rows   []dataset.Row
	next   int
}

var _ ports.RowSource = (*MemorySource)(nil)

// NewMemorySource wraps pre-built rows. The source does not copy them.
func NewMemorySource(schema dataset.Schema, rows []dataset.Row) *MemorySource {
	return &MemorySource{schema: schema, rows: rows}
}

// Schema returns the bound column layout
func (s *MemorySource) Schema() dataset.Schema {
	return s.schema
}

// Next yields rows in insertion order, io.EOF at the end
func (s *MemorySource) Next(ctx context.Context) (dataset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

// Close is a no-op for in-memory data
func (s *MemorySource) Close() error {
	return nil
}

// Rewind resets the cursor so the same rows can be streamed again
func (s *MemorySource) Rewind() {
	s.next = 0
}

// Column declares one column of a synthetic table. Numeric backs
// KindNumeric columns (NaN marks missing); Labels backs KindCategorical
// columns (empty string marks missing).
type Column struct {
	Name    string
	Kind    dataset.ColumnKind
	Numeric []float64
	Labels  []string
}

// Table assembles columns into a schema and row set. Row count is the
// longest column; shorter columns pad with missing values.
func Table(cols ...Column) (dataset.Schema, []dataset.Row, error) {
	specs := make([]dataset.ColumnSpec, len(cols))
	rowCount := 0
	for i, col := range cols {
		specs[i] = dataset.ColumnSpec{Name: col.Name, Kind: col.Kind}
		if len(col.Numeric) > rowCount {
			rowCount = len(col.Numeric)
		}
		if len(col.Labels) > rowCount {
			rowCount = len(col.Labels)
		}
	}
	schema, err := dataset.NewSchema(specs)
	if err != nil {
		return dataset.Schema{}, nil, err
	}

	rows := make([]dataset.Row, rowCount)
	for r := range rows {
		row := make(dataset.Row, len(cols))
		for c, col := range cols {
			row[c] = cellValue(col, r)
		}
		rows[r] = row
	}
	return schema, rows, nil
}

// MustTable is Table for test setup; invalid column sets panic
func MustTable(cols ...Column) (dataset.Schema, []dataset.Row) {
	schema, rows, err := Table(cols...)
	if err != nil {
		panic(err)
	}
	return schema, rows
}

func cellValue(col Column, row int) dataset.Value {
	if col.Kind == dataset.KindNumeric {
		if row >= len(col.Numeric) || math.IsNaN(col.Numeric[row]) {
			return dataset.NewMissingValue()
		}
		return dataset.NewNumericValue(col.Numeric[row])
	}
	if row >= len(col.Labels) || col.Labels[row] == "" {
		return dataset.NewMissingValue()
	}
	return dataset.NewStringValue(col.Labels[row])
}

// Generator produces seeded synthetic column data. The same seed always
// yields the same values.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a fixed seed
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Gaussian draws n values from N(mean, sd)
func (g *Generator) Gaussian(n int, mean, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + g.rng.NormFloat64()*sd
	}
	return out
}

// Uniform draws n values from [lo, hi)
func (g *Generator) Uniform(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + g.rng.Float64()*(hi-lo)
	}
	return out
}

// LabelWeight pairs a category with its relative draw weight
type LabelWeight struct {
	Label  string
	Weight float64
}

// WeightedLabels draws n labels with the given relative weights
func (g *Generator) WeightedLabels(n int, weights []LabelWeight) []string {
	var total float64
	for _, w := range weights {
		total += w.Weight
	}
	out := make([]string, n)
	for i := range out {
		pick := g.rng.Float64() * total
		for _, w := range weights {
			pick -= w.Weight
			if pick < 0 {
				out[i] = w.Label
				break
			}
		}
		if out[i] == "" {
			out[i] = weights[len(weights)-1].Label
		}
	}
	return out
}

// WithMissing replaces values with NaN at the given rate
func (g *Generator) WithMissing(values []float64, rate float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	for i := range out {
		if g.rng.Float64() < rate {
			out[i] = math.NaN()
		}
	}
	return out
}

// WithOutliers appends extreme members to a sample
func (g *Generator) WithOutliers(values []float64, outliers ...float64) []float64 {
	out := make([]float64, 0, len(values)+len(outliers))
	out = append(out, values...)
	out = append(out, outliers...)
	return out
}

// Demo builds a train/test pair over one schema, seeded with the issues
// the detectors look for: a drifted amount column, an outlier cluster,
// missing values, and a skewed label.
func (g *Generator) Demo(rows int) (dataset.Schema, []dataset.Row, []dataset.Row) {
	if rows < 100 {
		rows = 100
	}

	trainAmount := g.WithMissing(g.Gaussian(rows, 100, 15), 0.02)
	trainAge := g.Uniform(rows, 18, 80)
	trainLabel := g.WeightedLabels(rows, []LabelWeight{
		{Label: "ok", Weight: 94},
		{Label: "fraud", Weight: 6},
	})

	// Test side: amount shifts up by two sigma, picks up outliers and
	// heavier missingness; labels skew further.
	testAmount := g.WithOutliers(
		g.WithMissing(g.Gaussian(rows, 130, 15), 0.08),
		400, 420, -150,
	)
	testAge := g.Uniform(rows+3, 18, 80)
	testLabel := g.WeightedLabels(rows+3, []LabelWeight{
		{Label: "ok", Weight: 98},
		{Label: "fraud", Weight: 2},
	})

	schema, trainRows := MustTable(
		Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: trainAmount},
		Column{Name: "age", Kind: dataset.KindNumeric, Numeric: trainAge},
		Column{Name: "label", Kind: dataset.KindCategorical, Labels: trainLabel},
	)
	_, testRows := MustTable(
		Column{Name: "amount", Kind: dataset.KindNumeric, Numeric: testAmount},
		Column{Name: "age", Kind: dataset.KindNumeric, Numeric: testAge},
		Column{Name: "label", Kind: dataset.KindCategorical, Labels: testLabel},
	)
	return schema, trainRows, testRows
}
