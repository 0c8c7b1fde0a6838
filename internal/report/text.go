package report

import (
	"fmt"
	"strings"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
	"datacheck/internal/profile"
)

// Text renders the tree-style console report
func Text(doc Document) string {
	var b strings.Builder

	if doc.validated() {
		fmt.Fprintf(&b, "✓ Validating: %s\n\n", doc.sourceLabel())
	} else {
		fmt.Fprintf(&b, "🔍 Inspecting: %s\n\n", doc.sourceLabel())
	}

	writeOverview(&b, doc)
	if doc.Profile != nil {
		writeColumns(&b, doc.Profile)
	}
	if doc.validated() {
		writeMissing(&b, doc)
		writeDuplicates(&b, doc)
		writeFindings(&b, doc)
	}

	return b.String()
}

func writeTree(b *strings.Builder, lines []string) {
	for i, line := range lines {
		fmt.Fprintf(b, "%s %s\n", connector(i, len(lines)), line)
	}
}

func writeOverview(b *strings.Builder, doc Document) {
	b.WriteString("📊 Dataset Overview\n")
	lines := []string{
		fmt.Sprintf("Shape: %d rows × %d columns", doc.Stats.RowCount, doc.Stats.Schema.Width()),
	}
	if doc.Profile != nil {
		lines = append(lines, fmt.Sprintf("Size: %.2f MB", megabytes(doc.Profile.EstimatedBytes)))
	}
	writeTree(b, lines)
	b.WriteString("\n")
}

func writeColumns(b *strings.Builder, prof *profile.DatasetProfile) {
	b.WriteString("📋 Columns:\n")
	for i, col := range prof.Columns {
		fmt.Fprintf(b, "%s %s (%s)\n", connector(i, len(prof.Columns)), col.Name, col.Kind)

		// nested detail keeps the vertical gutter until the last column
		gutter := "│ "
		if i == len(prof.Columns)-1 {
			gutter = "  "
		}
		detail := columnDetail(col)
		for j, line := range detail {
			fmt.Fprintf(b, "%s %s %s\n", gutter, connector(j, len(detail)), line)
		}
	}
	b.WriteString("\n")
}

func columnDetail(col profile.ColumnProfile) []string {
	var lines []string
	if col.MissingRate > 0 {
		lines = append(lines, fmt.Sprintf("missing: %.1f%%", percent(col.MissingRate)))
	}
	switch col.Kind {
	case dataset.KindNumeric:
		if col.Count > 0 {
			lines = append(lines, fmt.Sprintf("mean: %.4g, stddev: %.4g, range: [%.4g, %.4g]",
				col.Mean, col.StdDev, col.Min, col.Max))
		}
		if q := col.Quantiles; q != nil {
			lines = append(lines, fmt.Sprintf("quantiles: p25=%.4g p50=%.4g p75=%.4g p95=%.4g",
				q.P25, q.Median, q.P75, q.P95))
		}
		if s := col.Shape; s != nil {
			verdict := "no"
			if s.Gaussian {
				verdict = "yes"
			}
			lines = append(lines, fmt.Sprintf("shape: skew=%.3f kurtosis=%.3f gaussian=%s",
				s.Skewness, s.ExcessKurtosis, verdict))
		}
	case dataset.KindCategorical:
		capped := ""
		if col.CardinalityCapped {
			capped = "+ (capped)"
		}
		lines = append(lines, fmt.Sprintf("categories: %d%s", col.Cardinality, capped))
		if len(col.TopCategories) > 0 {
			parts := make([]string, 0, len(col.TopCategories))
			for _, c := range col.TopCategories {
				parts = append(parts, fmt.Sprintf("%s (%d)", c.Name, c.Count))
			}
			lines = append(lines, "top: "+strings.Join(parts, ", "))
		}
	}
	return lines
}

func writeMissing(b *strings.Builder, doc Document) {
	b.WriteString("🔍 Missing Values:\n")
	var lines []string
	for _, col := range doc.Stats.ByPosition() {
		if col.MissingCount == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d (%.1f%%)",
			col.Name, col.MissingCount, percent(col.MissingRate())))
	}
	if len(lines) == 0 {
		lines = []string{"✓ No missing values"}
	}
	writeTree(b, lines)
	b.WriteString("\n")
}

func writeDuplicates(b *strings.Builder, doc Document) {
	b.WriteString("🔁 Duplicates:\n")
	if doc.Stats.DuplicateCount > 0 {
		fmt.Fprintf(b, "└─ ⚠️  %d duplicate rows (%.1f%%)\n",
			doc.Stats.DuplicateCount, percent(doc.Stats.DuplicateRate()))
	} else {
		b.WriteString("└─ ✓ No duplicates\n")
	}
	b.WriteString("\n")
}

func writeFindings(b *strings.Builder, doc Document) {
	b.WriteString("🚨 Findings:\n")
	findings := doc.Report.Findings
	if len(findings) == 0 {
		b.WriteString("└─ ✓ No issues found\n")
		return
	}
	for i, f := range findings {
		scope := f.Column
		if scope == "" {
			scope = "dataset"
		}
		fmt.Fprintf(b, "%s %s [%s] %s: %s\n",
			connector(i, len(findings)), severityGlyph(f.Severity), f.Severity, scope, f.Description)
	}

	counts := doc.Report.CountBySeverity()
	fmt.Fprintf(b, "\n%d findings (%d critical, %d warning, %d info)\n",
		len(findings),
		counts[validation.SeverityCritical],
		counts[validation.SeverityWarning],
		counts[validation.SeverityInfo])
}
