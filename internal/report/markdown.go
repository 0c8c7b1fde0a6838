package report

import (
	"fmt"
	"strings"

	"datacheck/domain/dataset"
	"datacheck/domain/validation"
	"datacheck/internal/profile"
)

// Markdown renders a tabular summary plus the findings list
func Markdown(doc Document) string {
	var b strings.Builder

	b.WriteString("# Dataset Validation Report\n\n")
	fmt.Fprintf(&b, "**Source:** %s  \n", doc.sourceLabel())
	if doc.validated() {
		fmt.Fprintf(&b, "**Run:** `%s`  \n", doc.Report.RunID.String())
	}
	fmt.Fprintf(&b, "**Shape:** %d rows × %d columns  \n", doc.Stats.RowCount, doc.Stats.Schema.Width())
	if doc.RuntimeMs > 0 {
		fmt.Fprintf(&b, "**Runtime:** %.2fms  \n", doc.RuntimeMs)
	}
	b.WriteString("\n")

	if doc.validated() {
		writeSeveritySummary(&b, doc.Report)
	}
	if doc.Profile != nil {
		writeColumnTable(&b, doc.Profile)
	}
	if doc.validated() {
		writeFindingList(&b, doc.Report)
	}

	return b.String()
}

func writeSeveritySummary(b *strings.Builder, rep validation.Report) {
	counts := rep.CountBySeverity()
	b.WriteString("## Summary\n\n")
	b.WriteString("| Severity | Findings |\n|---|---|\n")
	for _, sev := range []validation.Severity{
		validation.SeverityCritical,
		validation.SeverityWarning,
		validation.SeverityInfo,
	} {
		fmt.Fprintf(b, "| %s | %d |\n", sev, counts[sev])
	}
	b.WriteString("\n")
}

func writeColumnTable(b *strings.Builder, prof *profile.DatasetProfile) {
	b.WriteString("## Columns\n\n")
	b.WriteString("| Column | Kind | Non-missing | Missing | Detail |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, col := range prof.Columns {
		fmt.Fprintf(b, "| %s | %s | %d | %.1f%% | %s |\n",
			col.Name, col.Kind, col.Count, percent(col.MissingRate), columnSummary(col))
	}
	b.WriteString("\n")
}

func columnSummary(col profile.ColumnProfile) string {
	switch col.Kind {
	case dataset.KindNumeric:
		if col.Count == 0 {
			return "n/a"
		}
		s := fmt.Sprintf("mean %.4g, stddev %.4g", col.Mean, col.StdDev)
		if q := col.Quantiles; q != nil {
			s += fmt.Sprintf(", p50 %.4g", q.Median)
		}
		return s
	case dataset.KindCategorical:
		s := fmt.Sprintf("%d categories", col.Cardinality)
		if col.CardinalityCapped {
			s += " (capped)"
		}
		if len(col.TopCategories) > 0 {
			top := col.TopCategories[0]
			s += fmt.Sprintf(", top %s (%d)", top.Name, top.Count)
		}
		return s
	}
	return "n/a"
}

func writeFindingList(b *strings.Builder, rep validation.Report) {
	b.WriteString("## Findings\n\n")
	if len(rep.Findings) == 0 {
		b.WriteString("No issues found.\n")
		return
	}
	for _, f := range rep.Findings {
		scope := f.Column
		if scope == "" {
			scope = "dataset"
		}
		fmt.Fprintf(b, "- **%s** `%s`: %s\n", strings.ToUpper(string(f.Severity)), scope, f.Description)
	}
}
