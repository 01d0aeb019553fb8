package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/patchguard/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	c := report.Summary.Counts

	ew.printf("PatchGuard Review - %s mode\n", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", c.Total())
	if c.Total() > 0 {
		ew.printf(" (%d critical, %d high, %d medium, %d low)", c.Critical, c.High, c.Medium, c.Low)
	}
	ew.println("")
	ew.printf("Gate: %s\n", report.Decision.Rationale)
	if report.Summary.EstimatedHoursSaved > 0 {
		ew.printf("Estimated review time saved: %.1f hours\n", report.Summary.EstimatedHoursSaved)
	}
	ew.println(strings.Repeat("─", 60))
	if ew.err != nil {
		return ew.err
	}

	if len(report.Files) > 0 {
		ew.println("")
		if err := writeFileTable(w, report.Files); err != nil {
			return err
		}
	}

	if c.Total() == 0 {
		ew.println("\nNo issues found. Looks good!")
		return ew.err
	}

	grouped := review.GroupBySeverity(report.Findings)
	for _, sev := range review.Severities {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}

		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))

		review.SortFindings(findings)
		for _, f := range findings {
			ew.printf("\n  %s:%d  %s\n", f.Path, f.Line, f.Title)
			ew.printf("  Category: %s | Rule: %s | ID: %s\n", f.Category, f.RuleID, f.ID)
			if f.Snippet != "" {
				ew.printf("    > %s\n", strings.TrimSpace(f.Snippet))
			}
			for _, line := range wrapText(f.Description, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range wrapText(f.Suggestion, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (collect: %dms, analysis: %dms)\n",
		report.Timing.TotalMs, report.Timing.CollectMs, report.Timing.AnalysisMs)

	return ew.err
}

// writeFileTable renders the per-file severity rollup.
func writeFileTable(w io.Writer, files []review.FileSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("File", "Language", "Critical", "High", "Medium", "Low", "Notes")
	for _, f := range files {
		var notes []string
		if f.Cached {
			notes = append(notes, "cached")
		}
		if n := len(f.Diagnostics); n > 0 {
			notes = append(notes, fmt.Sprintf("%d diagnostics", n))
		}
		lang := f.Language
		if lang == "" {
			lang = "-"
		}
		if err := table.Append([]string{
			f.Path,
			lang,
			strconv.Itoa(f.Counts.Critical),
			strconv.Itoa(f.Counts.High),
			strconv.Itoa(f.Counts.Medium),
			strconv.Itoa(f.Counts.Low),
			strings.Join(notes, ", "),
		}); err != nil {
			return fmt.Errorf("building file table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering file table: %w", err)
	}
	return nil
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!!]"
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
