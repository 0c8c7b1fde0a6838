// Package detect implements single-dataset detectors over finalized
// column snapshots. Detectors are pure readers: they never mutate stats,
// never fail, and express "nothing to say" as an empty finding list
// (insufficient data and not-applicable are not errors).
package detect

import (
	"datacheck/domain/validation"
)

// Detector inspects one finalized column snapshot and emits findings
type Detector interface {
	// Name returns the detector's stable identifier
	Name() string

	// Description returns what the detector looks for
	Description() string

	// Detect evaluates one column. An empty result means no finding:
	// either the column is healthy, the data is insufficient, or the
	// detector does not apply to this column kind.
	Detect(stats validation.ColumnStats, cfg validation.Config) []validation.Finding
}

// All returns the full detector set in evaluation order
func All() []Detector {
	return []Detector{
		NewMissingValueDetector(),
		NewOutlierDetector(),
		NewImbalanceDetector(),
	}
}
