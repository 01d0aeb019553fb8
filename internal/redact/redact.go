package redact

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/patchguard/internal/review"
)

const placeholder = "[REDACTED]"

// pathPolicyNote replaces the whole snippet of a file matched by a
// redaction path.
const pathPolicyNote = placeholder + " (file content redacted by path policy)"

// secretRule is one secret shape. group selects the submatch holding the
// secret so the surrounding key name stays readable; 0 replaces the whole
// match.
type secretRule struct {
	name  string
	re    *regexp.Regexp
	group int
}

func rule(name, pattern string, group int) secretRule {
	return secretRule{name: name, re: regexp.MustCompile(pattern), group: group}
}

// Rules run in order. Assignment rules come before the bare-token shapes so
// a key name survives when both would match.
var secretRules = []secretRule{
	rule("api-key", `(?i)\b(?:api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})`, 1),
	rule("aws-secret-access-key", `(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})`, 1),
	rule("assigned-secret", `(?i)(?:secret|token|password|passwd|credential)\w*\s*[:=]\s*["']([^"']{8,})["']`, 1),
	rule("hex-secret", `(?i)\b(?:key|secret|token)\w*\s*[:=]\s*["']?([0-9a-f]{32,})`, 1),
	rule("bearer-token", `(?i)\bBearer\s+([A-Za-z0-9._~+/-]{20,}=*)`, 1),
	rule("url-credentials", `\b[a-z][a-z0-9+.-]*://[^\s:/@]+:([^\s@/]+)@`, 1),
	rule("aws-access-key-id", `\bAKIA[0-9A-Z]{16}\b`, 0),
	rule("jwt", `\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`, 0),
	rule("private-key", `-----BEGIN\s+(?:[A-Z]+\s+)?PRIVATE KEY-----`, 0),
	rule("github-token", `\bgh[pousr]_[A-Za-z0-9_]{36,}`, 0),
	rule("slack-token", `\bxox[bporas]-[A-Za-z0-9-]{10,}`, 0),
	rule("sk-key", `\bsk-(?:ant-)?[A-Za-z0-9_-]{20,}`, 0),
}

// apply replaces every match of the rule's secret group and returns how many
// were replaced.
func (r secretRule) apply(s string) (string, int) {
	matches := r.re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, 0
	}
	var b strings.Builder
	last, n := 0, 0
	for _, m := range matches {
		start, end := m[2*r.group], m[2*r.group+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(placeholder)
		last = end
		n++
	}
	b.WriteString(s[last:])
	return b.String(), n
}

// secrets replaces detected secrets in text with [REDACTED] and returns the
// number of replacements.
func secrets(text string) (string, int) {
	total := 0
	for _, r := range secretRules {
		var n int
		text, n = r.apply(text)
		total += n
	}
	return text, total
}

// ShouldRedactPath checks if a file path matches any of the redaction path
// patterns. Patterns use doublestar syntax, so "**/.env" also matches a
// top-level .env.
func ShouldRedactPath(path string, patterns []string) bool {
	p := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

// redactContent redacts secrets from content, or all of it when path matches
// a redaction pattern.
func redactContent(content, path string, redactPaths []string) (string, int) {
	if ShouldRedactPath(path, redactPaths) {
		return pathPolicyNote, 1
	}
	return secrets(content)
}

// Findings redacts each finding's snippet in place and returns the number of
// redactions made.
func Findings(findings []review.Finding, redactPaths []string) int {
	total := 0
	for i := range findings {
		var n int
		findings[i].Snippet, n = redactContent(findings[i].Snippet, findings[i].Path, redactPaths)
		total += n
	}
	return total
}

// Report redacts snippets in a report. Counts and the decision are untouched.
func Report(r *review.Report, redactPaths []string) int {
	if r == nil {
		return 0
	}
	return Findings(r.Findings, redactPaths)
}
