package gitctx

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/patchguard/internal/diff"
)

// filterSections splits a diff into files, drops excluded and binary files,
// then keeps whole files until the byte budget runs out. Filtering happens
// before budgeting so excluded files don't consume it. Files are never cut
// mid-hunk.
func filterSections(unified string, opts DiffOptions) DiffResult {
	var res DiffResult
	var kept strings.Builder

	for _, section := range splitDiffSections(unified) {
		fps := diff.SplitFiles(section)
		if len(fps) == 0 {
			continue
		}
		fp := fps[0]
		if fp.Binary || !included(fp.Path, opts) {
			continue
		}
		if opts.MaxDiffBytes > 0 && kept.Len()+len(section) > opts.MaxDiffBytes {
			res.Skipped = append(res.Skipped, fp.Path)
			continue
		}
		kept.WriteString(section)
		res.Files = append(res.Files, fp.Path)
		res.Patches = append(res.Patches, fp)
	}
	res.Diff = kept.String()
	return res
}

func included(path string, opts DiffOptions) bool {
	if len(opts.Include) > 0 && !MatchesAny(path, opts.Include) {
		return false
	}
	return !MatchesAny(path, opts.Exclude)
}

// splitDiffSections cuts a unified diff at each "diff --git" header. Text
// before the first header is dropped.
func splitDiffSections(unified string) []string {
	var sections []string
	start := -1
	for i := 0; i < len(unified); {
		end := strings.IndexByte(unified[i:], '\n')
		next := len(unified)
		if end >= 0 {
			next = i + end + 1
		}
		if strings.HasPrefix(unified[i:], "diff --git ") {
			if start >= 0 {
				sections = append(sections, unified[start:i])
			}
			start = i
		}
		i = next
	}
	if start >= 0 {
		last := unified[start:]
		if !strings.HasSuffix(last, "\n") {
			last += "\n"
		}
		sections = append(sections, last)
	}
	return sections
}

// MatchesAny returns true if the path matches any of the given doublestar
// patterns. A "**/" prefix matches at any depth including the root.
func MatchesAny(path string, patterns []string) bool {
	p := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
