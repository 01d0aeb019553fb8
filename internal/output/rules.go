package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/patchguard/internal/review"
)

// ruleView is the serializable form of a rule.
type ruleView struct {
	ID          string          `json:"id"`
	Language    string          `json:"language"`
	Category    review.Category `json:"category"`
	Severity    review.Severity `json:"severity"`
	Pattern     string          `json:"pattern"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Suggestion  string          `json:"suggestion,omitempty"`
}

// WriteRules lists rules in the given order as a text table or JSON.
func WriteRules(w io.Writer, format string, rules []review.Rule) error {
	switch format {
	case "json":
		views := make([]ruleView, 0, len(rules))
		for _, r := range rules {
			v := ruleView{
				ID:          r.ID,
				Language:    r.Language,
				Category:    r.Category,
				Severity:    r.Severity,
				Title:       r.Title,
				Description: r.Description,
				Suggestion:  r.Suggestion,
			}
			if r.Pattern != nil {
				v.Pattern = r.Pattern.String()
			}
			views = append(views, v)
		}
		return WriteJSON(w, views)
	case "text", "":
	default:
		return fmt.Errorf("unsupported rules format: %s", format)
	}

	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, "No rules match.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Language", "Category", "Severity", "Title")
	for _, r := range rules {
		if err := table.Append([]string{r.ID, r.Language, string(r.Category), string(r.Severity), r.Title}); err != nil {
			return fmt.Errorf("building rules table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering rules table: %w", err)
	}
	return nil
}
