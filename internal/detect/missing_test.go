package detect

import (
	"testing"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
)

func missingStats(count, missing int64) validation.ColumnStats {
	return validation.ColumnStats{
		Name:         "email",
		Kind:         dataset.KindCategorical,
		Position:     1,
		Count:        count,
		MissingCount: missing,
	}
}

func TestMissingValueSeverityBands(t *testing.T) {
	cases := []struct {
		name     string
		count    int64
		missing  int64
		severity validation.Severity
	}{
		{"one percent is info", 99, 1, validation.SeverityInfo},
		{"five percent warns", 95, 5, validation.SeverityWarning},
		{"half is critical", 50, 50, validation.SeverityCritical},
		{"all missing is critical", 0, 100, validation.SeverityCritical},
	}

	for _, tc := range cases {
		findings := NewMissingValueDetector().Detect(missingStats(tc.count, tc.missing), validation.DefaultConfig())
		if len(findings) != 1 {
			t.Errorf("%s: expected 1 finding, got %d", tc.name, len(findings))
			continue
		}
		f := findings[0]
		if f.Severity != tc.severity {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.severity, f.Severity)
		}
		if f.Missing == nil || f.Missing.MissingCount != tc.missing {
			t.Errorf("%s: bad payload %+v", tc.name, f.Missing)
		}
	}
}

func TestMissingValueNoFindingWhenComplete(t *testing.T) {
	findings := NewMissingValueDetector().Detect(missingStats(100, 0), validation.DefaultConfig())
	if len(findings) != 0 {
		t.Fatalf("Expected no findings for complete column, got %d", len(findings))
	}
}

func TestMissingValueSkipsEmptyColumn(t *testing.T) {
	findings := NewMissingValueDetector().Detect(missingStats(0, 0), validation.DefaultConfig())
	if len(findings) != 0 {
		t.Fatalf("Expected no findings for empty column, got %d", len(findings))
	}
}

func TestMissingValueHonorsConfiguredThresholds(t *testing.T) {
	cfg := validation.DefaultConfig()
	cfg.MissingWarningRatio = 0.5
	cfg.MissingCriticalRatio = 0.9

	findings := NewMissingValueDetector().Detect(missingStats(60, 40), cfg)
	if len(findings) != 1 || findings[0].Severity != validation.SeverityInfo {
		t.Fatalf("Expected info at 40%% with raised thresholds, got %+v", findings)
	}
}

func TestAllReturnsEveryDetector(t *testing.T) {
	detectors := All()
	if len(detectors) != 3 {
		t.Fatalf("Expected 3 detectors, got %d", len(detectors))
	}
	seen := map[string]bool{}
	for _, d := range detectors {
		if d.Name() == "" || d.Description() == "" {
			t.Errorf("Detector missing name or description: %T", d)
		}
		if seen[d.Name()] {
			t.Errorf("Duplicate detector name %q", d.Name())
		}
		seen[d.Name()] = true
	}
}
