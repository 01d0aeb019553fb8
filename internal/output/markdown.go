package output

import (
	"io"
	"strings"

	"github.com/dshills/patchguard/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	c := report.Summary.Counts

	ew.printf("## PatchGuard Review\n\n")

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Critical | %d    |\n", c.Critical)
	ew.printf("| High     | %d    |\n", c.High)
	ew.printf("| Medium   | %d    |\n", c.Medium)
	ew.printf("| Low      | %d    |\n", c.Low)
	ew.printf("| **Total** | **%d** |\n\n", c.Total())
	ew.printf("**Gate:** %s\n\n", report.Decision.Rationale)

	if c.Total() == 0 {
		ew.println("No issues found. :white_check_mark:")
		return ew.err
	}

	grouped := review.GroupBySeverity(report.Findings)
	for _, sev := range review.Severities {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n",
			mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(findings))

		review.SortFindings(findings)
		for _, f := range findings {
			ew.printf("### %s\n\n", f.Title)
			ew.printf("**`%s:%d`** | %s | `%s`\n\n", f.Path, f.Line, f.Category, f.RuleID)
			if f.Snippet != "" {
				ew.printf("```%s\n%s\n```\n\n", review.LanguageForPath(f.Path), strings.TrimRight(f.Snippet, "\n"))
			}
			ew.printf("%s\n\n", f.Description)
			if f.Suggestion != "" {
				ew.printf("**Suggestion:**\n\n> %s\n\n", strings.ReplaceAll(f.Suggestion, "\n", "\n> "))
			}
			ew.printf("---\n\n")
		}

		ew.printf("</details>\n\n")
	}

	if report.Summary.EstimatedHoursSaved > 0 {
		ew.printf("Estimated review time saved: %.1f hours\n\n", report.Summary.EstimatedHoursSaved)
	}
	ew.printf("*Reviewed in %dms (collect: %dms, analysis: %dms)*\n",
		report.Timing.TotalMs, report.Timing.CollectMs, report.Timing.AnalysisMs)

	return ew.err
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":rotating_light:"
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}
