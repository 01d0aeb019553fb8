package review

import (
	"github.com/oklog/ulid/v2"
)

const (
	toolName    = "patchguard"
	toolVersion = "1.0"
)

// ReportInput carries the run metadata that does not come from analysis.
type ReportInput struct {
	Mode       string
	Range      string
	Repo       RepoInfo
	Categories CategorySet
	Include    []string
	Exclude    []string
}

// BuildReport assembles a report from per-file results. Counts and the
// decision are folded from the combined findings.
func BuildReport(in ReportInput, results []FileResult, timing Timing) *Report {
	agg := AggregateResults(results)

	summary := ComputeSummary(agg.Findings)
	summary.FilesAnalyzed = len(results)
	for _, f := range agg.Files {
		if f.Counts.Total() > 0 {
			summary.FilesWithFindings++
		}
	}

	cats := in.Categories
	if cats == nil {
		cats = DefaultCategories()
	}

	return &Report{
		Tool:    toolName,
		Version: toolVersion,
		RunID:   ulid.Make().String(),
		Repo:    in.Repo,
		Inputs: InputInfo{
			Mode:          in.Mode,
			Range:         in.Range,
			Categories:    cats.Strings(),
			PathsIncluded: in.Include,
			PathsExcluded: in.Exclude,
		},
		Summary:  summary,
		Decision: Decide(summary.Counts),
		Files:    agg.Files,
		Findings: agg.Findings,
		Timing:   timing,
	}
}
