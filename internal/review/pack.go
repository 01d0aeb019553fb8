package review

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Pack is a user rule pack loaded from --rules. JSON packs parse too since
// JSON is valid YAML.
type Pack struct {
	ReplaceDefaults   bool              `yaml:"replaceDefaults" json:"replaceDefaults"`
	Disable           []string          `yaml:"disable" json:"disable"`
	SeverityOverrides map[string]string `yaml:"severityOverrides" json:"severityOverrides"`
	Rules             []PackRule        `yaml:"rules" json:"rules"`
}

// PackRule is the on-disk form of a Rule.
type PackRule struct {
	ID          string `yaml:"id" json:"id"`
	Language    string `yaml:"language" json:"language"`
	Category    string `yaml:"category" json:"category"`
	Severity    string `yaml:"severity" json:"severity"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	IgnoreCase  bool   `yaml:"ignoreCase" json:"ignoreCase"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Suggestion  string `yaml:"suggestion" json:"suggestion"`
}

// LoadPack loads a rules file from disk. Returns nil Pack and nil error if path is empty.
func LoadPack(path string) (*Pack, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParsePack(data)
}

// ParsePack decodes a rule pack from YAML or JSON bytes.
func ParsePack(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	return &p, nil
}

// Apply returns base with the pack's directives applied: disabled IDs are
// dropped, custom rules appended, then category severity overrides set.
func (p *Pack) Apply(base []Rule) ([]Rule, error) {
	if p == nil {
		return base, nil
	}

	disabled := make(map[string]bool, len(p.Disable))
	for _, id := range p.Disable {
		disabled[id] = true
	}

	var out []Rule
	if !p.ReplaceDefaults {
		for _, r := range base {
			if !disabled[r.ID] {
				out = append(out, r)
			}
		}
	}

	for _, pr := range p.Rules {
		if disabled[pr.ID] {
			continue
		}
		r, err := pr.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	overrides := make(map[Category]Severity, len(p.SeverityOverrides))
	for cat, sev := range p.SeverityOverrides {
		c, err := ParseCategory(cat)
		if err != nil {
			return nil, fmt.Errorf("severityOverrides: %w", err)
		}
		s, err := ParseSeverity(sev)
		if err != nil {
			return nil, fmt.Errorf("severityOverrides[%s]: %w", cat, err)
		}
		overrides[c] = s
	}
	for i := range out {
		if s, ok := overrides[out[i].Category]; ok {
			out[i].Severity = s
		}
	}

	return out, nil
}

func (pr PackRule) compile() (Rule, error) {
	if pr.ID == "" {
		return Rule{}, fmt.Errorf("rule %q: missing id", pr.Title)
	}
	if pr.Pattern == "" {
		return Rule{}, fmt.Errorf("rule %s: missing pattern", pr.ID)
	}
	cat, err := ParseCategory(pr.Category)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", pr.ID, err)
	}
	sev, err := ParseSeverity(pr.Severity)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", pr.ID, err)
	}
	src := pr.Pattern
	if pr.IgnoreCase {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: compiling pattern: %w", pr.ID, err)
	}
	lang := NormalizeLanguage(pr.Language)
	if lang == GenericLanguage {
		lang = ""
	}
	title := pr.Title
	if title == "" {
		title = pr.ID
	}
	return Rule{
		ID:          pr.ID,
		Language:    lang,
		Category:    cat,
		Severity:    sev,
		Pattern:     re,
		Title:       title,
		Description: pr.Description,
		Suggestion:  pr.Suggestion,
	}, nil
}

// LoadRegistry builds a registry from the built-in rules plus an optional
// rules file.
func LoadRegistry(rulesFile string) (*Registry, error) {
	pack, err := LoadPack(rulesFile)
	if err != nil {
		return nil, err
	}
	rules, err := pack.Apply(DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("applying rules file: %w", err)
	}
	return NewRegistry(rules)
}
