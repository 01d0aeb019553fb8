package review

import (
	"fmt"
	"strings"

	"github.com/dshills/patchguard/internal/diff"
)

// Match applies rules to each added line, lines outer and rules inner. A rule
// contributes at most one finding per line however often it matches. IDs
// count up from 1 across the whole call.
func Match(path string, lines []diff.Line, rules []Rule) []Finding {
	findings := []Finding{}
	for _, line := range lines {
		for _, rule := range rules {
			if !rule.Pattern.MatchString(line.Content) {
				continue
			}
			findings = append(findings, Finding{
				ID:          findingID(len(findings) + 1),
				RuleID:      rule.ID,
				Severity:    rule.Severity,
				Category:    rule.Category,
				Title:       rule.Title,
				Description: rule.Description,
				Suggestion:  rule.Suggestion,
				Path:        path,
				Line:        line.Number,
				Snippet:     strings.TrimSpace(line.Content),
			})
		}
	}
	return findings
}

func findingID(n int) string {
	return fmt.Sprintf("issue-%d", n)
}

// renumber reassigns run-wide sequential IDs in slice order.
func renumber(findings []Finding, start int) int {
	for i := range findings {
		findings[i].ID = findingID(start)
		start++
	}
	return start
}
