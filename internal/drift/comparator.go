// Package drift scores distribution shift between a train and a test
// column with the Population Stability Index over train-derived quantile
// bins. A secondary statistic (KS for numeric, chi-square for
// categorical) rides along as context; severity is decided by PSI alone.
package drift

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"datacheck/domain/core"
	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

const (
	// epsilonProportion floors zero bin proportions so the PSI
	// logarithm stays finite.
	epsilonProportion = 1e-4

	// Conventional PSI severity bands. Below warning means no finding.
	driftWarningPSI  = 0.1
	driftCriticalPSI = 0.25
)

// DriftComparator compares two finalized snapshots of the same column
type DriftComparator struct {
	cfg validation.Config
}

// NewDriftComparator creates a comparator with the given configuration
func NewDriftComparator(cfg validation.Config) *DriftComparator {
	return &DriftComparator{cfg: cfg}
}

// Compare scores train-vs-test drift for one column. Mismatched name or
// kind is a SchemaMismatch error fatal to this comparison only. A side
// with zero valid rows yields ErrInsufficientData, which callers absorb
// as "no finding". PSI under the warning band returns (nil, nil).
func (c *DriftComparator) Compare(train, test validation.ColumnStats) (*validation.Finding, error) {
	if train.Name != test.Name {
		return nil, core.NewSchemaMismatchError(train.Name, test.Name, "column names differ")
	}
	if train.Kind != test.Kind {
		return nil, core.NewSchemaMismatchError(train.Name, test.Name,
			fmt.Sprintf("kind %s vs %s", train.Kind, test.Kind))
	}
	if train.Count == 0 || test.Count == 0 {
		return nil, core.ErrInsufficientData
	}

	var (
		psi    float64
		detail validation.DriftDetail
		err    error
	)
	switch train.Kind {
	case dataset.KindNumeric:
		psi, detail, err = c.compareNumeric(train, test)
	default:
		psi, detail, err = c.compareCategorical(train, test)
	}
	if err != nil {
		return nil, err
	}

	var severity validation.Severity
	switch {
	case psi < driftWarningPSI:
		return nil, nil
	case psi <= driftCriticalPSI:
		severity = validation.SeverityWarning
	default:
		severity = validation.SeverityCritical
	}

	detail.TrainRowCount = train.Count
	detail.TestRowCount = test.Count
	return &validation.Finding{
		Kind:           validation.FindingDrift,
		Column:         train.Name,
		ColumnPosition: train.Position,
		Severity:       severity,
		Score:          psi,
		Description: fmt.Sprintf("distribution shifted between datasets (PSI %.3f over %d bins)",
			psi, detail.Bins),
		Drift: &detail,
	}, nil
}

func (c *DriftComparator) compareNumeric(train, test validation.ColumnStats) (float64, validation.DriftDetail, error) {
	if len(train.Sample) == 0 || len(test.Sample) == 0 {
		return 0, validation.DriftDetail{}, core.ErrInsufficientData
	}

	edges := quantileEdges(train.Sample, c.cfg.DriftBinCount)
	trainPct := proportions(binCounts(train.Sample, edges))
	testPct := proportions(binCounts(test.Sample, edges))
	psi := populationStabilityIndex(trainPct, testPct)

	statistic := ksStatistic(train.Sample, test.Sample)
	pValue := ksPValue(statistic, len(train.Sample), len(test.Sample))

	return psi, validation.DriftDetail{
		PSI:          psi,
		Bins:         len(edges) + 1,
		Statistic:    "ks",
		StatisticVal: statistic,
		PValue:       pValue,
	}, nil
}

func (c *DriftComparator) compareCategorical(train, test validation.ColumnStats) (float64, validation.DriftDetail, error) {
	keys := categoryUnion(train.Categories, test.Categories)
	if len(keys) == 0 {
		return 0, validation.DriftDetail{}, core.ErrInsufficientData
	}

	trainCounts := make([]int64, len(keys))
	testCounts := make([]int64, len(keys))
	for i, k := range keys {
		trainCounts[i] = train.Categories[k]
		testCounts[i] = test.Categories[k]
	}
	psi := populationStabilityIndex(proportions(trainCounts), proportions(testCounts))

	detail := validation.DriftDetail{
		PSI:  psi,
		Bins: len(keys),
	}
	if statistic, df := chiSquareHomogeneity(trainCounts, testCounts); df >= 1 {
		detail.Statistic = "chi_square"
		detail.StatisticVal = statistic
		detail.PValue = distuv.ChiSquared{K: float64(df)}.Survival(statistic)
	}
	return psi, detail, nil
}

// populationStabilityIndex sums (test - train) * ln(test / train) per
// bin, both proportions floored at epsilon.
func populationStabilityIndex(trainPct, testPct []float64) float64 {
	var psi float64
	for i := range trainPct {
		a := math.Max(trainPct[i], epsilonProportion)
		b := math.Max(testPct[i], epsilonProportion)
		psi += (b - a) * math.Log(b/a)
	}
	return psi
}

// categoryUnion returns the sorted union of category keys so bin order
// is independent of map iteration.
func categoryUnion(a, b map[string]int64) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ksStatistic computes the two-sample Kolmogorov-Smirnov statistic, the
// supremum distance between the two empirical CDFs.
func ksStatistic(a, b []float64) float64 {
	xs := make([]float64, len(a))
	copy(xs, a)
	sort.Float64s(xs)
	ys := make([]float64, len(b))
	copy(ys, b)
	sort.Float64s(ys)

	na, nb := float64(len(xs)), float64(len(ys))
	var i, j int
	var fa, fb, d float64
	for i < len(xs) && j < len(ys) {
		va, vb := xs[i], ys[j]
		if va <= vb {
			i++
			fa = float64(i) / na
		}
		if vb <= va {
			j++
			fb = float64(j) / nb
		}
		if diff := math.Abs(fa - fb); diff > d {
			d = diff
		}
	}
	return d
}

// ksPValue approximates the two-sided p-value with the asymptotic
// Kolmogorov series. gonum carries no Kolmogorov distribution, so the
// series is evaluated directly; it converges in a handful of terms for
// any lambda of interest.
func ksPValue(d float64, n1, n2 int) float64 {
	if n1 == 0 || n2 == 0 {
		return 1
	}
	ne := float64(n1) * float64(n2) / float64(n1+n2)
	lambda := (math.Sqrt(ne) + 0.12 + 0.11/math.Sqrt(ne)) * d
	return kolmogorovQ(lambda)
}

func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * 2 * math.Exp(-2*float64(k)*float64(k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}

// chiSquareHomogeneity computes the two-sample chi-square statistic over
// category counts. Degrees of freedom is populated bins minus one; zero
// means no test was possible.
func chiSquareHomogeneity(trainCounts, testCounts []int64) (float64, int) {
	var trainTotal, testTotal int64
	for i := range trainCounts {
		trainTotal += trainCounts[i]
		testTotal += testCounts[i]
	}
	grand := float64(trainTotal + testTotal)
	if grand == 0 {
		return 0, 0
	}

	var statistic float64
	bins := 0
	for i := range trainCounts {
		rowTotal := float64(trainCounts[i] + testCounts[i])
		if rowTotal == 0 {
			continue
		}
		bins++
		expectedTrain := rowTotal * float64(trainTotal) / grand
		expectedTest := rowTotal * float64(testTotal) / grand
		if expectedTrain > 0 {
			diff := float64(trainCounts[i]) - expectedTrain
			statistic += diff * diff / expectedTrain
		}
		if expectedTest > 0 {
			diff := float64(testCounts[i]) - expectedTest
			statistic += diff * diff / expectedTest
		}
	}
	return statistic, bins - 1
}
