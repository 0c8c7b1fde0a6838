package validation

import (
	"testing"

	"datacheck/domain/core"
)

func TestNewReportOrdering(t *testing.T) {
	findings := []Finding{
		{Kind: FindingDrift, Column: "b", ColumnPosition: 1, Severity: SeverityWarning},
		{Kind: FindingDuplicateRows, ColumnPosition: -1, Severity: SeverityInfo},
		{Kind: FindingOutlier, Column: "a", ColumnPosition: 0, Severity: SeverityCritical},
		{Kind: FindingMissingValues, Column: "b", ColumnPosition: 1, Severity: SeverityInfo},
		{Kind: FindingMissingValues, Column: "a", ColumnPosition: 0, Severity: SeverityWarning},
	}

	report := NewReport(core.NewRunID(), findings)

	expected := []struct {
		kind     FindingKind
		position int
	}{
		{FindingDuplicateRows, -1},
		{FindingMissingValues, 0},
		{FindingOutlier, 0},
		{FindingMissingValues, 1},
		{FindingDrift, 1},
	}
	if len(report.Findings) != len(expected) {
		t.Fatalf("Expected %d findings, got %d", len(expected), len(report.Findings))
	}
	for i, want := range expected {
		got := report.Findings[i]
		if got.Kind != want.kind || got.ColumnPosition != want.position {
			t.Errorf("Position %d: expected %s at column position %d, got %s at %d",
				i, want.kind, want.position, got.Kind, got.ColumnPosition)
		}
	}
}

func TestNewReportOrderingIsStable(t *testing.T) {
	// Two outliers on the same column keep their input order
	findings := []Finding{
		{Kind: FindingOutlier, Column: "x", ColumnPosition: 0, Score: 7.5},
		{Kind: FindingOutlier, Column: "x", ColumnPosition: 0, Score: 3.2},
	}
	report := NewReport(core.NewRunID(), findings)
	if report.Findings[0].Score != 7.5 || report.Findings[1].Score != 3.2 {
		t.Errorf("Expected stable order for equal keys, got scores %v then %v",
			report.Findings[0].Score, report.Findings[1].Score)
	}
}

func TestReportSeverityHelpers(t *testing.T) {
	report := NewReport(core.NewRunID(), []Finding{
		{Kind: FindingOutlier, Column: "x", ColumnPosition: 0, Severity: SeverityCritical},
		{Kind: FindingMissingValues, Column: "x", ColumnPosition: 0, Severity: SeverityInfo},
		{Kind: FindingMissingValues, Column: "y", ColumnPosition: 1, Severity: SeverityInfo},
	})

	counts := report.CountBySeverity()
	if counts[SeverityInfo] != 2 || counts[SeverityCritical] != 1 {
		t.Errorf("Unexpected severity counts: %v", counts)
	}
	if !report.HasCritical() {
		t.Error("Expected HasCritical to be true")
	}
	if got := len(report.ForColumn("x")); got != 2 {
		t.Errorf("Expected 2 findings for column x, got %d", got)
	}
}

func TestSeverityExceeds(t *testing.T) {
	if !SeverityCritical.Exceeds(SeverityWarning) {
		t.Error("Expected critical to exceed warning")
	}
	if !SeverityWarning.Exceeds(SeverityWarning) {
		t.Error("Expected warning to exceed itself")
	}
	if SeverityInfo.Exceeds(SeverityWarning) {
		t.Error("Expected info not to exceed warning")
	}
}
