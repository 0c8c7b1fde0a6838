package detect

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

// criticalZScore is where a flagged value stops being a warning
const criticalZScore = 5.0

// OutlierDetector flags reservoir sample values far from the column mean
// by z-score. Recall is bounded: the reservoir is a probabilistic proxy
// for the full column, so values outside the sample are never examined.
type OutlierDetector struct{}

// NewOutlierDetector creates the z-score outlier detector
func NewOutlierDetector() *OutlierDetector {
	return &OutlierDetector{}
}

func (d *OutlierDetector) Name() string {
	return "outliers"
}

func (d *OutlierDetector) Description() string {
	return "Flags sample values whose z-score exceeds the configured threshold"
}

// Detect applies the z-score test to every sample member. Skips columns
// that are non-numeric, below the minimum row count, or variance-free;
// the statistic is undefined or unreliable there.
func (d *OutlierDetector) Detect(stats validation.ColumnStats, cfg validation.Config) []validation.Finding {
	if stats.Kind != dataset.KindNumeric {
		return nil
	}
	if stats.Count < int64(cfg.MinRowsForOutlierDetection) {
		return nil
	}
	if stats.StdDev == 0 {
		return nil
	}

	// Two-sided Gaussian tail mass beyond the threshold. Lets callers
	// compare the flagged fraction against what normality predicts.
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	expectedTail := 2 * normal.Survival(cfg.OutlierZScoreThreshold)

	var findings []validation.Finding
	for _, value := range stats.Sample {
		z := (value - stats.Mean) / stats.StdDev
		if math.Abs(z) <= cfg.OutlierZScoreThreshold {
			continue
		}

		severity := validation.SeverityWarning
		if math.Abs(z) > criticalZScore {
			severity = validation.SeverityCritical
		}

		findings = append(findings, validation.Finding{
			Kind:           validation.FindingOutlier,
			Column:         stats.Name,
			ColumnPosition: stats.Position,
			Severity:       severity,
			Score:          math.Abs(z),
			Description: fmt.Sprintf("value %.6g is %.2f standard deviations from the mean %.6g",
				value, math.Abs(z), stats.Mean),
			Outlier: &validation.OutlierDetail{
				Value:                value,
				ZScore:               z,
				Mean:                 stats.Mean,
				StdDev:               stats.StdDev,
				ExpectedTailFraction: expectedTail,
			},
		})
	}
	return findings
}
