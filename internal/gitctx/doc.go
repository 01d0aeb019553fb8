// Package gitctx collects the changes to scan from a git working copy.
//
// Each scan mode (unstaged, staged, commit, range, snippet and codebase)
// produces a DiffResult: the unified diff, one patch per file, and the
// repository metadata. Include and exclude filters use doublestar globs and
// are applied to the diff output, not passed to git as pathspecs. The byte
// budget drops whole files, so a kept patch is never cut mid-hunk.
package gitctx
