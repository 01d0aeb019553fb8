package output

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/patchguard/internal/review"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	return WriteJSON(w, buildSARIF(report))
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool               sarifTool           `json:"tool"`
	AutomationDetails  *sarifAutomation    `json:"automationDetails,omitempty"`
	Results            []sarifResult       `json:"results"`
	OriginalURIBaseIDs map[string]sarifURI `json:"originalUriBaseIds,omitempty"`
}

type sarifAutomation struct {
	ID string `json:"id"`
}

type sarifURI struct {
	URI string `json:"uri"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	FullDescription  *sarifMessage       `json:"fullDescription,omitempty"`
	Help             *sarifMessage       `json:"help,omitempty"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine int           `json:"startLine"`
	Snippet   *sarifMessage `json:"snippet,omitempty"`
}

func buildSARIF(report *review.Report) sarifLog {
	ruleIndex := make(map[string]int)
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, f := range report.Findings {
		idx, ok := ruleIndex[f.RuleID]
		if !ok {
			idx = len(rules)
			ruleIndex[f.RuleID] = idx
			rule := sarifRule{
				ID:               f.RuleID,
				Name:             f.Title,
				ShortDescription: sarifMessage{Text: f.Title},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(f.Severity)},
				Properties:       sarifRuleProperties{Tags: []string{string(f.Category), string(f.Severity)}},
			}
			if f.Description != "" {
				rule.FullDescription = &sarifMessage{Text: f.Description}
			}
			if f.Suggestion != "" {
				rule.Help = &sarifMessage{Text: f.Suggestion}
			}
			rules = append(rules, rule)
		}

		result := sarifResult{
			RuleID:    f.RuleID,
			RuleIndex: idx,
			Level:     severityToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Title + ": " + f.Description},
		}
		if f.Path != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: f.Path, URIBaseID: "SRCROOT"},
			}}
			if f.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: f.Line}
				if f.Snippet != "" {
					loc.PhysicalLocation.Region.Snippet = &sarifMessage{Text: f.Snippet}
				}
			}
			result.Locations = []sarifLocation{loc}
			result.PartialFingerprints = map[string]string{
				"patchguard/v1": fingerprint(f),
			}
		}
		results = append(results, result)
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           "patchguard",
				Version:        report.Version,
				InformationURI: "https://github.com/dshills/patchguard",
				Rules:          rules,
			},
		},
		Results: results,
	}
	if report.RunID != "" {
		run.AutomationDetails = &sarifAutomation{ID: "patchguard/" + report.Inputs.Mode + "/" + report.RunID}
	}
	if report.Repo.Root != "" {
		run.OriginalURIBaseIDs = map[string]sarifURI{"SRCROOT": {URI: "file://" + report.Repo.Root + "/"}}
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs:    []sarifRun{run},
	}
}

// severityToLevel maps a finding severity to a SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// fingerprint identifies a finding by rule, path and trimmed snippet so it
// survives line shifts between runs.
func fingerprint(f review.Finding) string {
	h := sha256.Sum256([]byte(f.RuleID + "\x00" + f.Path + "\x00" + strings.TrimSpace(f.Snippet)))
	return fmt.Sprintf("%x", h[:8])
}
