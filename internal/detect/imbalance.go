package detect

import (
	"fmt"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

// ImbalanceDetector flags skewed class distributions on caller-designated
// label columns. The ratio compares the most and least frequent real
// categories; the overflow bucket is synthetic and never participates.
type ImbalanceDetector struct{}

// NewImbalanceDetector creates the class-imbalance detector
func NewImbalanceDetector() *ImbalanceDetector {
	return &ImbalanceDetector{}
}

func (d *ImbalanceDetector) Name() string {
	return "class_imbalance"
}

func (d *ImbalanceDetector) Description() string {
	return "Flags label columns whose majority/minority class ratio exceeds the configured thresholds"
}

// Detect computes the majority/minority ratio for one label column.
// Columns with fewer than two distinct non-empty categories are skipped.
func (d *ImbalanceDetector) Detect(stats validation.ColumnStats, cfg validation.Config) []validation.Finding {
	if stats.Kind != dataset.KindCategorical {
		return nil
	}
	if !cfg.IsLabelColumn(stats.Name) {
		return nil
	}

	majority, minority, classes := classExtremes(stats.Categories)
	if classes < 2 {
		return nil
	}

	ratio := float64(majority.Count) / float64(minority.Count)
	var severity validation.Severity
	switch {
	case ratio >= cfg.ImbalanceCriticalRatio:
		severity = validation.SeverityCritical
	case ratio >= cfg.ImbalanceWarningRatio:
		severity = validation.SeverityWarning
	default:
		return nil
	}

	return []validation.Finding{{
		Kind:           validation.FindingClassImbalance,
		Column:         stats.Name,
		ColumnPosition: stats.Position,
		Severity:       severity,
		Score:          ratio,
		Description: fmt.Sprintf("class %q outnumbers class %q %.1f:1 across %d classes",
			majority.Name, minority.Name, ratio, classes),
		Imbalance: &validation.ImbalanceDetail{
			Ratio:         ratio,
			MajorityClass: majority.Name,
			MajorityCount: majority.Count,
			MinorityClass: minority.Name,
			MinorityCount: minority.Count,
			ClassCount:    classes,
		},
	}}
}

// classExtremes finds the most and least frequent real categories. Ties
// break by name so results are deterministic across map iteration order.
func classExtremes(categories map[string]int64) (majority, minority validation.CategoryCount, classes int) {
	for name, count := range categories {
		if name == validation.OverflowBucket || count <= 0 {
			continue
		}
		classes++
		if classes == 1 {
			majority = validation.CategoryCount{Name: name, Count: count}
			minority = validation.CategoryCount{Name: name, Count: count}
			continue
		}
		if count > majority.Count || (count == majority.Count && name < majority.Name) {
			majority = validation.CategoryCount{Name: name, Count: count}
		}
		if count < minority.Count || (count == minority.Count && name < minority.Name) {
			minority = validation.CategoryCount{Name: name, Count: count}
		}
	}
	return majority, minority, classes
}
