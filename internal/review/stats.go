package review

import "math"

// RepoHealth is one repository's dashboard input. HealthScore is supplied by
// the caller and is not derived from findings.
type RepoHealth struct {
	Name        string  `json:"name"`
	Language    string  `json:"language,omitempty"`
	OpenIssues  int     `json:"openIssues"`
	HealthScore float64 `json:"healthScore"`
}

// DashboardStats are rollups over a set of repositories.
type DashboardStats struct {
	Repositories         int     `json:"repositories"`
	TotalOpenIssues      int     `json:"totalOpenIssues"`
	AverageHealth        float64 `json:"averageHealth"`
	AverageHealthRounded int     `json:"averageHealthRounded"`
	TimeSavedHours       float64 `json:"timeSavedHours"`
}

// AverageHealth returns the arithmetic mean of scores, or 0 for none.
func AverageHealth(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// SummarizeDashboard computes dashboard rollups. An empty input yields zeros.
func SummarizeDashboard(repos []RepoHealth) DashboardStats {
	scores := make([]float64, len(repos))
	var issues int
	for i, r := range repos {
		scores[i] = r.HealthScore
		issues += r.OpenIssues
	}
	avg := AverageHealth(scores)
	return DashboardStats{
		Repositories:         len(repos),
		TotalOpenIssues:      issues,
		AverageHealth:        avg,
		AverageHealthRounded: int(math.Round(avg)),
		TimeSavedHours:       TimeSavedHours(issues),
	}
}
