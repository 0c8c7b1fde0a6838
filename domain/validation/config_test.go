package validation

import (
	"testing"

	"datacheck/domain/core"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig failed validation: %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero z threshold", func(c *Config) { c.OutlierZScoreThreshold = 0 }},
		{"negative z threshold", func(c *Config) { c.OutlierZScoreThreshold = -1 }},
		{"min rows below 2", func(c *Config) { c.MinRowsForOutlierDetection = 1 }},
		{"warning ratio at 1", func(c *Config) { c.ImbalanceWarningRatio = 1 }},
		{"critical below warning", func(c *Config) { c.ImbalanceCriticalRatio = 5 }},
		{"one drift bin", func(c *Config) { c.DriftBinCount = 1 }},
		{"zero cardinality cap", func(c *Config) { c.CategoryCardinalityCap = 0 }},
		{"zero reservoir", func(c *Config) { c.ReservoirCapacity = 0 }},
		{"missing warning above 1", func(c *Config) { c.MissingWarningRatio = 1.5 }},
		{"missing critical below warning", func(c *Config) {
			c.MissingWarningRatio = 0.4
			c.MissingCriticalRatio = 0.2
		}},
		{"duplicate critical below warning", func(c *Config) {
			c.DuplicateWarningRatio = 0.3
			c.DuplicateCriticalRatio = 0.1
		}},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error, got none", tc.name)
			continue
		}
		if !core.IsFatal(err) {
			t.Errorf("%s: expected fatal config error, got %v", tc.name, err)
		}
	}
}

func TestIsLabelColumn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LabelColumns = []string{"target", "label"}
	if !cfg.IsLabelColumn("target") {
		t.Error("Expected target to be a label column")
	}
	if cfg.IsLabelColumn("amount") {
		t.Error("Expected amount not to be a label column")
	}
}

func TestColumnStatsHelpers(t *testing.T) {
	col := ColumnStats{
		Name:         "city",
		Count:        80,
		MissingCount: 20,
		Categories: map[string]int64{
			"nyc":          50,
			"sf":           25,
			"la":           5,
			OverflowBucket: 20,
		},
		CardinalityCapped: true,
	}

	if got := col.MissingRate(); got != 0.2 {
		t.Errorf("Expected missing rate 0.2, got %v", got)
	}
	if got := col.RowsObserved(); got != 100 {
		t.Errorf("Expected 100 rows observed, got %d", got)
	}
	if got := col.Cardinality(); got != 3 {
		t.Errorf("Expected cardinality 3 (overflow excluded), got %d", got)
	}

	top := col.TopCategories(2)
	if len(top) != 2 || top[0].Name != "nyc" || top[1].Name != "sf" {
		t.Errorf("Unexpected top categories: %+v", top)
	}
}

func TestColumnStatsZeroRows(t *testing.T) {
	var col ColumnStats
	if col.MissingRate() != 0 {
		t.Error("Expected zero missing rate for empty column")
	}

	var ds DatasetStats
	if ds.DuplicateRate() != 0 {
		t.Error("Expected zero duplicate rate for empty dataset")
	}
}
