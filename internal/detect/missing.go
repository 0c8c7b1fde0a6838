package detect

import (
	"fmt"

	"datacheck/domain/validation"
)

// MissingValueDetector reports the missing-value rate of any column.
// Any missing data is worth surfacing before training; severity scales
// with the rate.
type MissingValueDetector struct{}

// NewMissingValueDetector creates the missing-value detector
func NewMissingValueDetector() *MissingValueDetector {
	return &MissingValueDetector{}
}

func (d *MissingValueDetector) Name() string {
	return "missing_values"
}

func (d *MissingValueDetector) Description() string {
	return "Reports the fraction of missing or malformed values per column"
}

// Detect emits one finding when the column has any missing values
func (d *MissingValueDetector) Detect(stats validation.ColumnStats, cfg validation.Config) []validation.Finding {
	rows := stats.RowsObserved()
	if rows == 0 {
		return nil
	}
	rate := stats.MissingRate()
	if rate == 0 {
		return nil
	}

	severity := validation.SeverityInfo
	switch {
	case rate >= cfg.MissingCriticalRatio:
		severity = validation.SeverityCritical
	case rate >= cfg.MissingWarningRatio:
		severity = validation.SeverityWarning
	}

	return []validation.Finding{{
		Kind:           validation.FindingMissingValues,
		Column:         stats.Name,
		ColumnPosition: stats.Position,
		Severity:       severity,
		Score:          rate,
		Description: fmt.Sprintf("%d of %d values missing (%.1f%%)",
			stats.MissingCount, rows, rate*100),
		Missing: &validation.MissingDetail{
			MissingCount: stats.MissingCount,
			RowCount:     rows,
			Rate:         rate,
		},
	}}
}
