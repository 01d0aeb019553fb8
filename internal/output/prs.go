package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/patchguard/internal/review"
)

// PullRequestRow is one open pull request in a listing. Counts and Decision
// are set only when the PR was analyzed.
type PullRequestRow struct {
	Number   int                    `json:"number"`
	Title    string                 `json:"title"`
	Author   string                 `json:"author"`
	Branch   string                 `json:"branch"`
	URL      string                 `json:"url,omitempty"`
	Counts   *review.SeverityCounts `json:"counts,omitempty"`
	Decision *review.Decision       `json:"decision,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// WritePullRequests lists pull requests as a text table or JSON. The
// severity columns appear when analyzed is set, with a total row summed over
// the analyzed PRs when there is more than one.
func WritePullRequests(w io.Writer, format string, rows []PullRequestRow, analyzed bool) error {
	switch format {
	case "json":
		if rows == nil {
			rows = []PullRequestRow{}
		}
		return WriteJSON(w, rows)
	case "text", "":
	default:
		return fmt.Errorf("unsupported pull request format: %s", format)
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No open pull requests.")
		return err
	}

	table := tablewriter.NewWriter(w)
	if analyzed {
		table.Header("#", "Title", "Author", "Critical", "High", "Medium", "Low", "Gate")
	} else {
		table.Header("#", "Title", "Author", "Branch")
	}
	var total review.SeverityCounts
	analyzedRows := 0
	for _, r := range rows {
		row := []string{strconv.Itoa(r.Number), truncate(r.Title, 50), r.Author}
		switch {
		case !analyzed:
			row = append(row, r.Branch)
		case r.Error != "":
			row = append(row, "-", "-", "-", "-", "error: "+truncate(r.Error, 40))
		case r.Counts != nil && r.Decision != nil:
			total = total.Add(*r.Counts)
			analyzedRows++
			row = append(row,
				strconv.Itoa(r.Counts.Critical),
				strconv.Itoa(r.Counts.High),
				strconv.Itoa(r.Counts.Medium),
				strconv.Itoa(r.Counts.Low),
				gateLabel(*r.Decision),
			)
		default:
			row = append(row, "-", "-", "-", "-", "-")
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("building pull request table: %w", err)
		}
	}
	if analyzedRows > 1 {
		footer := []string{"", "Total", "",
			strconv.Itoa(total.Critical),
			strconv.Itoa(total.High),
			strconv.Itoa(total.Medium),
			strconv.Itoa(total.Low),
			gateLabel(review.Decide(total)),
		}
		if err := table.Append(footer); err != nil {
			return fmt.Errorf("building pull request table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering pull request table: %w", err)
	}
	return nil
}

func gateLabel(d review.Decision) string {
	switch {
	case d.ApproveAllowed && !d.RequestChangesAllowed:
		return "approve"
	case d.ApproveAllowed:
		return "comment"
	default:
		return "changes"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
