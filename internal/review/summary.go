package review

import (
	"math"
	"sort"
)

// minutesPerIssue is the manual review time assumed per finding.
const minutesPerIssue = 15

// CountSeverities folds findings into severity counts.
func CountSeverities(findings []Finding) SeverityCounts {
	var c SeverityCounts
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	return c
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	s := Summary{Counts: CountSeverities(findings)}
	for _, f := range findings {
		if SeverityRank(f.Severity) > SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	s.EstimatedHoursSaved = TimeSavedHours(s.Counts.Total())
	return s
}

// Aggregate is the combined view over several files' results.
type Aggregate struct {
	Files    []FileSummary
	Findings []Finding
	Counts   SeverityCounts
}

// AggregateResults concatenates findings in file order and folds per-file
// and combined counts.
func AggregateResults(results []FileResult) Aggregate {
	agg := Aggregate{
		Files:    make([]FileSummary, 0, len(results)),
		Findings: []Finding{},
	}
	for _, r := range results {
		fs := FileSummary{
			Path:     r.Path,
			Language: r.Language,
			Counts:   CountSeverities(r.Findings),
			Cached:   r.Cached,
		}
		for _, d := range r.Diagnostics {
			fs.Diagnostics = append(fs.Diagnostics, d.String())
		}
		agg.Files = append(agg.Files, fs)
		agg.Findings = append(agg.Findings, r.Findings...)
	}
	agg.Counts = CountSeverities(agg.Findings)
	return agg
}

// TimeSavedHours estimates manual review time saved: 15 minutes per issue,
// rounded to one decimal hour.
func TimeSavedHours(totalIssues int) float64 {
	if totalIssues <= 0 {
		return 0
	}
	hours := float64(totalIssues*minutesPerIssue) / 60
	return math.Round(hours*10) / 10
}

// SortFindings orders findings by severity (critical first), then path, then
// line. Match order is the default; this is for presentation only.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := SeverityRank(findings[i].Severity), SeverityRank(findings[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})
}

// GroupBySeverity buckets findings by severity, keeping input order.
func GroupBySeverity(findings []Finding) map[Severity][]Finding {
	m := make(map[Severity][]Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}
