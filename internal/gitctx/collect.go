package gitctx

import (
	"fmt"
	"strings"

	"github.com/dshills/patchguard/internal/diff"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	ContextLines int
	// MaxDiffBytes caps the kept diff; whole files past it are skipped.
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff    string
	Files   []string
	Patches []diff.FilePatch
	// Skipped lists files left out for size: over the byte budget, too
	// large to read, or without a patch.
	Skipped []string
	// Language overrides detection for every patch when set (snippet mode).
	Language string
	Mode     string
	Range    string
	Repo     RepoMeta
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	return collect(opts, "unstaged", "")
}

// Staged returns the diff of index vs HEAD.
func Staged(opts DiffOptions) (DiffResult, error) {
	return collect(opts, "staged", "", "--cached")
}

// Commit returns the diff for a commit against parent, or against its first
// parent when parent is empty. A root commit is diffed against the empty
// tree.
func Commit(sha, parent string, opts DiffOptions) (DiffResult, error) {
	if parent == "" {
		if _, err := gitLine("rev-parse", "--verify", "--quiet", sha+"^"); err != nil {
			return collectWith(opts, "commit", sha, []string{"show", "--format=", "--patch"}, sha)
		}
		parent = sha + "^"
	}
	return collect(opts, "commit", sha, parent, sha)
}

// Range returns the combined diff for a revision range. With mergeBase, an
// "a..b" range is diffed from the merge base of a and b, which is what a pull
// request shows.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	spec := revRange
	if mergeBase && strings.Contains(spec, "..") && !strings.Contains(spec, "...") {
		spec = strings.Replace(spec, "..", "...", 1)
	}
	return collect(opts, "range", revRange, spec)
}

// FromText builds a result from an already-rendered unified diff, such as a
// pull request diff fetched from GitHub.
func FromText(unified, mode, rangeStr string, opts DiffOptions) DiffResult {
	res := filterSections(unified, opts)
	res.Mode = mode
	res.Range = rangeStr
	return res
}

func collect(opts DiffOptions, mode, rangeStr string, revs ...string) (DiffResult, error) {
	return collectWith(opts, mode, rangeStr, []string{"diff"}, revs...)
}

// collectWith runs a git diff-producing command and filters its output.
// Path filtering happens here rather than in git pathspecs so include and
// exclude always use doublestar semantics.
func collectWith(opts DiffOptions, mode, rangeStr string, command []string, revs ...string) (DiffResult, error) {
	args := append(append([]string{}, command...), buildDiffArgs(opts)...)
	args = append(args, revs...)
	out, err := gitOutput(args...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("collecting %s diff: %w", mode, err)
	}
	return buildResult(out, mode, rangeStr, opts), nil
}

func buildDiffArgs(opts DiffOptions) []string {
	args := []string{"--no-color", "--no-ext-diff"}
	if opts.ContextLines >= 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	return args
}

func buildResult(out, mode, rangeStr string, opts DiffOptions) DiffResult {
	res := FromText(out, mode, rangeStr, opts)
	// Metadata is best effort; the diff itself already succeeded.
	res.Repo, _ = GetRepoMeta()
	return res
}
