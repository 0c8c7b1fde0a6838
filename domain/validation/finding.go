package validation

import (
	"sort"

	"datacheck/domain/core"
)

// ============================================================================
// FINDINGS (immutable facts produced by detectors and the comparator)
// ============================================================================

// FindingKind tags what a finding is about
type FindingKind string

const (
	FindingMissingValues  FindingKind = "missing_values"
	FindingOutlier        FindingKind = "outlier"
	FindingClassImbalance FindingKind = "class_imbalance"
	FindingDrift          FindingKind = "drift"
	FindingDuplicateRows  FindingKind = "duplicate_rows"
)

// kindRank fixes the within-column ordering of finding kinds
var kindRank = map[FindingKind]int{
	FindingMissingValues:  0,
	FindingOutlier:        1,
	FindingClassImbalance: 2,
	FindingDrift:          3,
	FindingDuplicateRows:  4,
}

// Severity grades how actionable a finding is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for summary counts
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// Exceeds returns true if s is at least as severe as other
func (s Severity) Exceeds(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Finding is one immutable diagnostic fact. Column is empty and
// ColumnPosition is -1 for dataset-scope findings (duplicate rows).
// Exactly one detail pointer matching Kind is set.
type Finding struct {
	Kind           FindingKind `json:"kind"`
	Column         string      `json:"column,omitempty"`
	ColumnPosition int         `json:"column_position"`
	Severity       Severity    `json:"severity"`
	Score          float64     `json:"score"`
	Description    string      `json:"description"`

	Missing    *MissingDetail   `json:"missing,omitempty"`
	Outlier    *OutlierDetail   `json:"outlier,omitempty"`
	Imbalance  *ImbalanceDetail `json:"imbalance,omitempty"`
	Drift      *DriftDetail     `json:"drift,omitempty"`
	Duplicates *DuplicateDetail `json:"duplicates,omitempty"`
}

// MissingDetail carries the missing-value rate evidence
type MissingDetail struct {
	MissingCount int64   `json:"missing_count"`
	RowCount     int64   `json:"row_count"`
	Rate         float64 `json:"rate"`
}

// OutlierDetail carries one flagged sample member. ExpectedTailFraction
// is the two-sided Gaussian tail mass beyond the configured threshold,
// for judging whether flags exceed what normality predicts.
type OutlierDetail struct {
	Value                float64 `json:"value"`
	ZScore               float64 `json:"z_score"`
	Mean                 float64 `json:"mean"`
	StdDev               float64 `json:"std_dev"`
	ExpectedTailFraction float64 `json:"expected_tail_fraction"`
}

// ImbalanceDetail carries the class-ratio evidence
type ImbalanceDetail struct {
	Ratio         float64 `json:"ratio"`
	MajorityClass string  `json:"majority_class"`
	MajorityCount int64   `json:"majority_count"`
	MinorityClass string  `json:"minority_class"`
	MinorityCount int64   `json:"minority_count"`
	ClassCount    int     `json:"class_count"`
}

// DriftDetail carries the distribution-shift evidence. PSI drives
// severity; the secondary statistic and its p-value are context only
// (KS for numeric columns, chi-square for categorical).
type DriftDetail struct {
	PSI           float64 `json:"psi"`
	Bins          int     `json:"bins"`
	Statistic     string  `json:"statistic,omitempty"`
	StatisticVal  float64 `json:"statistic_value,omitempty"`
	PValue        float64 `json:"p_value,omitempty"`
	TrainRowCount int64   `json:"train_row_count"`
	TestRowCount  int64   `json:"test_row_count"`
}

// DuplicateDetail carries the duplicate-row evidence
type DuplicateDetail struct {
	DuplicateCount int64   `json:"duplicate_count"`
	RowCount       int64   `json:"row_count"`
	Rate           float64 `json:"rate"`
}

// ============================================================================
// REPORT (ordered finding sequence for one run)
// ============================================================================

// Report is the ordered outcome of one validation run. Order is dataset
// scope first, then column position, then finding kind.
type Report struct {
	RunID     core.RunID     `json:"run_id"`
	CreatedAt core.Timestamp `json:"created_at"`
	Findings  []Finding      `json:"findings"`
}

// NewReport assembles findings into canonical order
func NewReport(runID core.RunID, findings []Finding) Report {
	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ColumnPosition != ordered[j].ColumnPosition {
			return ordered[i].ColumnPosition < ordered[j].ColumnPosition
		}
		return kindRank[ordered[i].Kind] < kindRank[ordered[j].Kind]
	})
	return Report{
		RunID:     runID,
		CreatedAt: core.Now(),
		Findings:  ordered,
	}
}

// CountBySeverity tallies findings per severity
func (r Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// HasCritical returns true if any finding is critical
func (r Report) HasCritical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// ForColumn returns the findings for one column, in report order
func (r Report) ForColumn(name string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Column == name {
			out = append(out, f)
		}
	}
	return out
}
