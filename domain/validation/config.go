package validation

import (
	"runtime"

	"datacheck/domain/core"
)

// Config carries every knob the engine and detectors recognize. Zero
// values are invalid; start from DefaultConfig and override.
type Config struct {
	OutlierZScoreThreshold     float64 `json:"outlier_zscore_threshold"`
	MinRowsForOutlierDetection int     `json:"min_rows_for_outlier_detection"`

	ImbalanceWarningRatio  float64 `json:"imbalance_warning_ratio"`
	ImbalanceCriticalRatio float64 `json:"imbalance_critical_ratio"`

	DriftBinCount int `json:"drift_bin_count"`

	CategoryCardinalityCap int `json:"category_cardinality_cap"`
	ReservoirCapacity      int `json:"reservoir_capacity"`

	// LabelColumns designates the categorical columns eligible for
	// imbalance detection.
	LabelColumns []string `json:"label_columns,omitempty"`

	MissingWarningRatio  float64 `json:"missing_warning_ratio"`
	MissingCriticalRatio float64 `json:"missing_critical_ratio"`

	// Duplicate tracking holds one hash per distinct row; disable for
	// datasets where that footprint is unacceptable.
	TrackDuplicates        bool    `json:"track_duplicates"`
	DuplicateWarningRatio  float64 `json:"duplicate_warning_ratio"`
	DuplicateCriticalRatio float64 `json:"duplicate_critical_ratio"`

	// Seed fixes reservoir sampling so identical input yields identical
	// samples.
	Seed int64 `json:"seed"`

	// Workers bounds concurrent column tasks; values <= 1 select the
	// sequential path. Always capped at column count by the engine.
	Workers int `json:"workers"`
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		OutlierZScoreThreshold:     3.0,
		MinRowsForOutlierDetection: 30,
		ImbalanceWarningRatio:      10.0,
		ImbalanceCriticalRatio:     100.0,
		DriftBinCount:              10,
		CategoryCardinalityCap:     1000,
		ReservoirCapacity:          10000,
		MissingWarningRatio:        0.05,
		MissingCriticalRatio:       0.5,
		TrackDuplicates:            true,
		DuplicateWarningRatio:      0.05,
		DuplicateCriticalRatio:     0.20,
		Seed:                       42,
		Workers:                    runtime.NumCPU(),
	}
}

// Validate rejects configurations the engine cannot honor
func (c Config) Validate() error {
	if c.OutlierZScoreThreshold <= 0 {
		return core.NewConfigError("outlier_zscore_threshold", "must be positive")
	}
	if c.MinRowsForOutlierDetection < 2 {
		return core.NewConfigError("min_rows_for_outlier_detection", "must be at least 2")
	}
	if c.ImbalanceWarningRatio <= 1 {
		return core.NewConfigError("imbalance_warning_ratio", "must exceed 1")
	}
	if c.ImbalanceCriticalRatio < c.ImbalanceWarningRatio {
		return core.NewConfigError("imbalance_critical_ratio", "must be at least the warning ratio")
	}
	if c.DriftBinCount < 2 {
		return core.NewConfigError("drift_bin_count", "must be at least 2")
	}
	if c.CategoryCardinalityCap < 1 {
		return core.NewConfigError("category_cardinality_cap", "must be positive")
	}
	if c.ReservoirCapacity < 1 {
		return core.NewConfigError("reservoir_capacity", "must be positive")
	}
	if c.MissingWarningRatio < 0 || c.MissingWarningRatio > 1 {
		return core.NewConfigError("missing_warning_ratio", "must be within [0, 1]")
	}
	if c.MissingCriticalRatio < c.MissingWarningRatio || c.MissingCriticalRatio > 1 {
		return core.NewConfigError("missing_critical_ratio", "must be within [warning, 1]")
	}
	if c.DuplicateWarningRatio < 0 || c.DuplicateWarningRatio > 1 {
		return core.NewConfigError("duplicate_warning_ratio", "must be within [0, 1]")
	}
	if c.DuplicateCriticalRatio < c.DuplicateWarningRatio || c.DuplicateCriticalRatio > 1 {
		return core.NewConfigError("duplicate_critical_ratio", "must be within [warning, 1]")
	}
	return nil
}

// IsLabelColumn reports whether name was designated a label
func (c Config) IsLabelColumn(name string) bool {
	for _, l := range c.LabelColumns {
		if l == name {
			return true
		}
	}
	return false
}
