package review

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ParseSeverity validates a severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if SeverityRank(sev) == 0 {
		return "", fmt.Errorf("unknown severity %q (want critical, high, medium, or low)", s)
	}
	return sev, nil
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Category represents the type of finding.
type Category string

const (
	CategoryBug         Category = "bug"
	CategorySecurity    Category = "security"
	CategoryPerformance Category = "performance"
	CategoryStyle       Category = "style"
)

// Categories lists every known category.
var Categories = []Category{CategorySecurity, CategoryBug, CategoryPerformance, CategoryStyle}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// CategorySet is the set of enabled rule categories. A nil set means the
// defaults apply.
type CategorySet map[Category]struct{}

// DefaultCategories returns the set used when no categories are configured.
func DefaultCategories() CategorySet {
	return NewCategorySet(CategorySecurity, CategoryBug, CategoryPerformance)
}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cats ...Category) CategorySet {
	s := make(CategorySet, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// ParseCategories builds a set from configuration values. An empty list
// yields nil, which callers treat as the default set.
func ParseCategories(names []string) (CategorySet, error) {
	if len(names) == 0 {
		return nil, nil
	}
	s := make(CategorySet, len(names))
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		s[c] = struct{}{}
	}
	return s, nil
}

// Has reports whether c is enabled.
func (s CategorySet) Has(c Category) bool {
	_, ok := s[c]
	return ok
}

// Strings returns the sorted category names.
func (s CategorySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}

// Finding is one rule match on one added line.
type Finding struct {
	ID          string   `json:"id"`
	RuleID      string   `json:"ruleId"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Snippet     string   `json:"snippet"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
	Remote string `json:"remote,omitempty"`
}

// InputInfo describes what was analyzed.
type InputInfo struct {
	Mode          string   `json:"mode"`
	Range         string   `json:"range,omitempty"`
	Categories    []string `json:"categories"`
	PathsIncluded []string `json:"pathsIncluded,omitempty"`
	PathsExcluded []string `json:"pathsExcluded,omitempty"`
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the number of findings counted.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// Get returns the count for one severity.
func (c SeverityCounts) Get(s Severity) int {
	switch s {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	}
	return 0
}

// Add returns the element-wise sum of two count sets.
func (c SeverityCounts) Add(o SeverityCounts) SeverityCounts {
	return SeverityCounts{
		Critical: c.Critical + o.Critical,
		High:     c.High + o.High,
		Medium:   c.Medium + o.Medium,
		Low:      c.Low + o.Low,
	}
}

// Summary provides an overview of findings.
type Summary struct {
	Counts              SeverityCounts `json:"counts"`
	HighestSeverity     Severity       `json:"highestSeverity,omitempty"`
	FilesAnalyzed       int            `json:"filesAnalyzed"`
	FilesWithFindings   int            `json:"filesWithFindings"`
	EstimatedHoursSaved float64        `json:"estimatedHoursSaved"`
}

// Total returns the total number of findings.
func (s Summary) Total() int {
	return s.Counts.Total()
}

// FileSummary is the per-file rollup shown alongside the combined summary.
type FileSummary struct {
	Path        string         `json:"path"`
	Language    string         `json:"language,omitempty"`
	Counts      SeverityCounts `json:"counts"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Cached      bool           `json:"cached,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	CollectMs  int64 `json:"collectMs"`
	AnalysisMs int64 `json:"analysisMs"`
	TotalMs    int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool     string        `json:"tool"`
	Version  string        `json:"version"`
	RunID    string        `json:"runId"`
	Repo     RepoInfo      `json:"repo"`
	Inputs   InputInfo     `json:"inputs"`
	Summary  Summary       `json:"summary"`
	Decision Decision      `json:"decision"`
	Files    []FileSummary `json:"files"`
	Findings []Finding     `json:"findings"`
	Timing   Timing        `json:"timing"`
}
