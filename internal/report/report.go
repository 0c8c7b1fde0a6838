// Package report renders run results for people: a tree-style console
// view, Markdown, and a self-contained HTML page. Renderers are pure
// functions of the Document they receive and never recompute statistics.
package report

import (
	"datacheck/domain/validation"
	"datacheck/internal/profile"
)

// Document bundles one run's outputs for rendering. The app layer fills
// it from a RunResult; renderers draw from these fields only.
type Document struct {
	// Source labels the dataset in headings, usually the input path.
	Source string

	Report  validation.Report
	Stats   validation.DatasetStats
	Profile *profile.DatasetProfile

	RuntimeMs float64
}

// validated reports whether detectors ran for this document, as opposed
// to a plain inspection.
func (d Document) validated() bool {
	return d.Report.RunID.String() != ""
}

func (d Document) sourceLabel() string {
	if d.Source != "" {
		return d.Source
	}
	return "dataset"
}

func severityGlyph(s validation.Severity) string {
	switch s {
	case validation.SeverityCritical:
		return "❌"
	case validation.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// connector returns the tree branch for line i of total, closing the
// tree on the last one
func connector(i, total int) string {
	if i == total-1 {
		return "└─"
	}
	return "├─"
}

func megabytes(bytes int64) float64 {
	return float64(bytes) / 1e6
}

func percent(rate float64) float64 {
	return rate * 100
}
