// Patchguard is a diff-aware, rule-based code review CLI.
//
// It scans the added lines of unified diffs (local git changes or GitHub pull
// request patches) against a table of language-specific and generic pattern
// rules, aggregates the findings by severity, and gates approve /
// request-changes review decisions on the result.
//
// Usage:
//
//	patchguard scan unstaged              # scan working tree changes
//	patchguard scan staged                # scan staged changes
//	patchguard scan commit <sha>          # scan a specific commit
//	patchguard scan range origin/main..HEAD
//	patchguard scan snippet --path a.js   # scan code from stdin
//	patchguard github 42                  # analyze PR #42 and submit a review
//	patchguard dashboard                  # repository health overview
//	patchguard rules list --lang python   # show the effective rule list
package main
