package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/dshills/patchguard/internal/review"
)

// Dashboard is the repository overview written by WriteDashboard.
type Dashboard struct {
	Repos []review.RepoHealth   `json:"repos"`
	Stats review.DashboardStats `json:"stats"`
}

// WriteDashboard writes the repository table and rollups as text or JSON.
func WriteDashboard(w io.Writer, format string, d Dashboard) error {
	switch format {
	case "json":
		if d.Repos == nil {
			d.Repos = []review.RepoHealth{}
		}
		return WriteJSON(w, d)
	case "text", "":
	default:
		return fmt.Errorf("unsupported dashboard format: %s", format)
	}

	ew := &errWriter{w: w}
	if len(d.Repos) == 0 {
		ew.println("No repositories found.")
		return ew.err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Repository", "Language", "Open Issues", "Health")
	for _, r := range d.Repos {
		lang := r.Language
		if lang == "" {
			lang = "-"
		}
		if err := table.Append([]string{
			r.Name,
			lang,
			strconv.Itoa(r.OpenIssues),
			strconv.FormatFloat(r.HealthScore, 'f', 0, 64),
		}); err != nil {
			return fmt.Errorf("building dashboard table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering dashboard table: %w", err)
	}

	ew.printf("\nRepositories: %d\n", d.Stats.Repositories)
	ew.printf("Open issues: %d\n", d.Stats.TotalOpenIssues)
	ew.printf("Average health: %d\n", d.Stats.AverageHealthRounded)
	ew.printf("Estimated time saved: %.1f hours\n", d.Stats.TimeSavedHours)
	return ew.err
}
