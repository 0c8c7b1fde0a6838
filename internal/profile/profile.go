// Package profile derives descriptive dataset overviews from finalized
// snapshots: per-column quantiles, shape moments, a normality check, and
// a memory estimate. Everything reads post-finalize state; nothing here
// touches rows.
package profile

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

// minSampleForMoments gates skewness, kurtosis, and normality: below
// this the estimates are noise.
const minSampleForMoments = 8

// DatasetProfile is the dataset-level overview
type DatasetProfile struct {
	RowCount       int64           `json:"row_count"`
	ColumnCount    int             `json:"column_count"`
	DuplicateCount int64           `json:"duplicate_count"`
	EstimatedBytes int64           `json:"estimated_bytes"`
	Columns        []ColumnProfile `json:"columns"`
}

// ColumnProfile describes one column for humans
type ColumnProfile struct {
	Name        string             `json:"name"`
	Kind        dataset.ColumnKind `json:"kind"`
	Position    int                `json:"position"`
	Count       int64              `json:"count"`
	MissingRate float64            `json:"missing_rate"`

	// Numeric columns
	Mean      float64          `json:"mean,omitempty"`
	StdDev    float64          `json:"std_dev,omitempty"`
	Min       float64          `json:"min,omitempty"`
	Max       float64          `json:"max,omitempty"`
	Quantiles *QuantileSummary `json:"quantiles,omitempty"`
	Shape     *ShapeSummary    `json:"shape,omitempty"`

	// Categorical columns
	Cardinality       int                        `json:"cardinality,omitempty"`
	CardinalityCapped bool                       `json:"cardinality_capped,omitempty"`
	TopCategories     []validation.CategoryCount `json:"top_categories,omitempty"`
}

// QuantileSummary holds reservoir-estimated order statistics
type QuantileSummary struct {
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// ShapeSummary holds sample shape moments and a Jarque-Bera normality
// check. Gaussian is true when normality cannot be rejected at the 5%
// level.
type ShapeSummary struct {
	Skewness       float64 `json:"skewness"`
	ExcessKurtosis float64 `json:"excess_kurtosis"`
	JarqueBera     float64 `json:"jarque_bera"`
	PValue         float64 `json:"p_value"`
	Gaussian       bool    `json:"gaussian"`
}

// Profiler turns DatasetStats into a DatasetProfile
type Profiler struct {
	topCategoryLimit int
}

// NewProfiler creates a profiler reporting up to five top categories
func NewProfiler() *Profiler {
	return &Profiler{topCategoryLimit: 5}
}

// Profile summarizes one finalized dataset
func (p *Profiler) Profile(ds validation.DatasetStats) DatasetProfile {
	columns := ds.ByPosition()
	out := DatasetProfile{
		RowCount:       ds.RowCount,
		ColumnCount:    len(columns),
		DuplicateCount: ds.DuplicateCount,
		Columns:        make([]ColumnProfile, 0, len(columns)),
	}
	for _, col := range columns {
		out.EstimatedBytes += estimateColumnBytes(col)
		out.Columns = append(out.Columns, p.profileColumn(col))
	}
	return out
}

func (p *Profiler) profileColumn(col validation.ColumnStats) ColumnProfile {
	profile := ColumnProfile{
		Name:        col.Name,
		Kind:        col.Kind,
		Position:    col.Position,
		Count:       col.Count,
		MissingRate: col.MissingRate(),
	}

	switch col.Kind {
	case dataset.KindNumeric:
		profile.Mean = col.Mean
		profile.StdDev = col.StdDev
		profile.Min = col.Min
		profile.Max = col.Max
		profile.Quantiles = quantiles(col.Sample)
		profile.Shape = shape(col.Sample)
	default:
		profile.Cardinality = col.Cardinality()
		profile.CardinalityCapped = col.CardinalityCapped
		profile.TopCategories = col.TopCategories(p.topCategoryLimit)
	}
	return profile
}

// quantiles estimates order statistics from the reservoir sample
func quantiles(sample []float64) *QuantileSummary {
	if len(sample) < minSampleForMoments {
		return nil
	}
	p25, err1 := stats.Percentile(sample, 25)
	median, err2 := stats.Median(sample)
	p75, err3 := stats.Percentile(sample, 75)
	p95, err4 := stats.Percentile(sample, 95)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil
	}
	return &QuantileSummary{P25: p25, Median: median, P75: p75, P95: p95}
}

// shape computes sample skewness, excess kurtosis, and Jarque-Bera
func shape(sample []float64) *ShapeSummary {
	if len(sample) < minSampleForMoments {
		return nil
	}
	mean, err1 := stats.Mean(sample)
	stdDev, err2 := stats.StandardDeviation(sample)
	if err1 != nil || err2 != nil || stdDev == 0 {
		return nil
	}

	skew := skewness(sample, mean, stdDev)
	kurt := excessKurtosis(sample, mean, stdDev)
	n := float64(len(sample))
	jb := n / 6 * (skew*skew + kurt*kurt/4)
	pValue := distuv.ChiSquared{K: 2}.Survival(jb)

	return &ShapeSummary{
		Skewness:       skew,
		ExcessKurtosis: kurt,
		JarqueBera:     jb,
		PValue:         pValue,
		Gaussian:       pValue > 0.05,
	}
}

// skewness is the adjusted Fisher-Pearson coefficient
func skewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	var sumCubed float64
	for _, x := range data {
		d := (x - mean) / stdDev
		sumCubed += d * d * d
	}
	return sumCubed / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// excessKurtosis is the bias-corrected sample excess kurtosis (G2)
func excessKurtosis(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	var sumFourth float64
	for _, x := range data {
		d := (x - mean) / stdDev
		sumFourth += d * d * d * d
	}
	g2 := sumFourth/n - 3
	return (n - 1) / ((n - 2) * (n - 3)) * ((n+1)*g2 + 6)
}

// estimateColumnBytes models in-memory width: eight bytes per numeric
// value, weighted average label length per categorical value, one byte
// per missing marker.
func estimateColumnBytes(col validation.ColumnStats) int64 {
	switch col.Kind {
	case dataset.KindNumeric:
		return col.Count*8 + col.MissingCount
	default:
		var labelBytes, labelCount int64
		for name, count := range col.Categories {
			labelBytes += int64(len(name)) * count
			labelCount += count
		}
		if labelCount == 0 {
			return col.MissingCount
		}
		avg := labelBytes / labelCount
		if avg == 0 {
			avg = 1
		}
		return col.Count*avg + col.MissingCount
	}
}
