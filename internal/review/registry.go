package review

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"sort"
)

// GenericLanguage is the registry key for rules applied to every file.
const GenericLanguage = "generic"

// Rule is an immutable pattern rule. Pattern is compiled once at load time.
type Rule struct {
	ID          string
	Language    string
	Category    Category
	Severity    Severity
	Pattern     *regexp.Regexp
	Title       string
	Description string
	Suggestion  string
}

// Registry holds rules grouped by language plus the generic group. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	byLanguage  map[string][]Rule
	generic     []Rule
	fingerprint string
}

// NewRegistry validates and groups rules. Rules keep their relative order
// within each group. Rules with an empty language join the generic group.
func NewRegistry(rules []Rule) (*Registry, error) {
	r := &Registry{byLanguage: make(map[string][]Rule)}
	seen := make(map[string]bool)
	h := sha256.New()

	for _, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %q: missing id", rule.Title)
		}
		if rule.Pattern == nil {
			return nil, fmt.Errorf("rule %s: missing pattern", rule.ID)
		}
		if SeverityRank(rule.Severity) == 0 {
			return nil, fmt.Errorf("rule %s: unknown severity %q", rule.ID, rule.Severity)
		}
		if _, err := ParseCategory(string(rule.Category)); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		lang := rule.Language
		if lang == "" {
			lang = GenericLanguage
		}
		rule.Language = lang
		key := lang + "/" + rule.ID
		if seen[key] {
			return nil, fmt.Errorf("rule %s: duplicate id for language %s", rule.ID, lang)
		}
		seen[key] = true

		if lang == GenericLanguage {
			r.generic = append(r.generic, rule)
		} else {
			r.byLanguage[lang] = append(r.byLanguage[lang], rule)
		}
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\n", rule.ID, lang, rule.Category, rule.Severity, rule.Pattern.String())
	}

	r.fingerprint = fmt.Sprintf("%x", h.Sum(nil)[:12])
	return r, nil
}

// RulesFor returns the language rules followed by the generic rules, keeping
// only enabled categories. An unknown language yields the generic rules. A
// nil category set means the defaults.
func (r *Registry) RulesFor(language string, enabled CategorySet) []Rule {
	if enabled == nil {
		enabled = DefaultCategories()
	}
	var candidates []Rule
	if language != GenericLanguage {
		candidates = append(candidates, r.byLanguage[language]...)
	}
	candidates = append(candidates, r.generic...)

	out := make([]Rule, 0, len(candidates))
	for _, rule := range candidates {
		if enabled.Has(rule.Category) {
			out = append(out, rule)
		}
	}
	return out
}

// Languages returns the sorted language keys that have specific rules.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.byLanguage))
	for l := range r.byLanguage {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// All returns every rule: languages in sorted order, then the generic group.
func (r *Registry) All() []Rule {
	var out []Rule
	for _, l := range r.Languages() {
		out = append(out, r.byLanguage[l]...)
	}
	return append(out, r.generic...)
}

// Len returns the total number of rules.
func (r *Registry) Len() int {
	n := len(r.generic)
	for _, rules := range r.byLanguage {
		n += len(rules)
	}
	return n
}

// Fingerprint identifies the rule set's content for cache keys.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}
