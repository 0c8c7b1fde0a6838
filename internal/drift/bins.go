package drift

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quantileEdges derives interior bin edges from the train sample: one
// edge per i/bins quantile, deduplicated so edges stay strictly
// increasing. A constant sample yields a single edge at the constant,
// splitting the line into below-or-at and above; that keeps disjoint
// test distributions visible instead of collapsing into one bin.
func quantileEdges(trainSample []float64, bins int) []float64 {
	sorted := make([]float64, len(trainSample))
	copy(sorted, trainSample)
	sort.Float64s(sorted)

	edges := make([]float64, 0, bins-1)
	for i := 1; i < bins; i++ {
		q := float64(i) / float64(bins)
		edge := stat.Quantile(q, stat.LinInterp, sorted, nil)
		if len(edges) == 0 || edge > edges[len(edges)-1] {
			edges = append(edges, edge)
		}
	}
	if len(edges) == 0 {
		edges = append(edges, sorted[0])
	}
	return edges
}

// binCounts histograms values into len(edges)+1 bins. Bin i covers
// (edges[i-1], edges[i]], with open first and last bins, so every value
// lands somewhere no matter how far test drifts from train.
// SearchFloat64s returns the first edge >= v, which is exactly the
// upper-inclusive bin index.
func binCounts(values []float64, edges []float64) []int64 {
	counts := make([]int64, len(edges)+1)
	for _, v := range values {
		counts[sort.SearchFloat64s(edges, v)]++
	}
	return counts
}

// proportions converts counts to fractions of total
func proportions(counts []int64) []float64 {
	var total int64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}
