package gitctx

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	// maxFileBytes is the per-file size limit for codebase scans.
	maxFileBytes = 1 << 20
	// sniffLen matches the prefix git inspects when deciding a file is binary.
	sniffLen = 8000
)

// WalkFiles returns the sorted git-tracked files matching the include and
// exclude filters.
func WalkFiles(opts DiffOptions) ([]string, error) {
	out, err := gitOutput("ls-files", "-z")
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}
	var files []string
	for _, name := range strings.Split(out, "\x00") {
		if name != "" && included(name, opts) {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

// isBinary reports whether data looks binary the way git decides it: a NUL
// byte in the leading sniffLen bytes.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0
}

// Codebase presents every tracked text file as newly added, so every line is
// scanned. Binary files are dropped; unreadable and oversized files are
// reported as skipped.
func Codebase(opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta()
	if err != nil {
		return DiffResult{}, err
	}
	files, err := WalkFiles(opts)
	if err != nil {
		return DiffResult{}, err
	}

	var combined strings.Builder
	var skipped []string
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil || info.Size() > maxFileBytes {
			skipped = append(skipped, path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		if len(data) == 0 || isBinary(data) {
			continue
		}
		combined.WriteString(syntheticSection(path, string(data)))
	}

	// Paths were already filtered by WalkFiles; only the budget applies here.
	res := filterSections(combined.String(), DiffOptions{MaxDiffBytes: opts.MaxDiffBytes})
	res.Skipped = append(skipped, res.Skipped...)
	res.Mode = "codebase"
	res.Repo = meta
	return res, nil
}
