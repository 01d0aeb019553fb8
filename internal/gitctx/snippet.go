package gitctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/patchguard/internal/diff"
)

// Snippet wraps content as a patch for path. Without a base every line is
// added; with one, the patch is a real diff of base to content computed by
// git diff --no-index, which works outside a repository.
func Snippet(content, path, lang, base string) (DiffResult, error) {
	res := DiffResult{
		Files:    []string{path},
		Language: lang,
		Mode:     "snippet",
	}
	if base == "" {
		res.Diff = syntheticSection(path, content)
		res.Patches = []diff.FilePatch{{Path: path, Status: diff.StatusAdded, Patch: syntheticHunk(content)}}
		return res, nil
	}

	out, err := diffAgainstBase(base, content)
	if err != nil {
		return DiffResult{}, err
	}
	res.Diff = out
	for _, fp := range diff.SplitFiles(out) {
		// Temp paths mean nothing to the caller.
		fp.Path, fp.OldPath, fp.Status = path, "", diff.StatusModified
		res.Patches = append(res.Patches, fp)
	}
	if len(res.Patches) == 0 {
		res.Patches = []diff.FilePatch{{Path: path, Status: diff.StatusModified}}
	}
	return res, nil
}

func diffAgainstBase(base, content string) (string, error) {
	dir, err := os.MkdirTemp("", "patchguard-snippet-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	oldPath, newPath := filepath.Join(dir, "old"), filepath.Join(dir, "new")
	if err := os.WriteFile(oldPath, []byte(base), 0o600); err != nil {
		return "", err
	}
	if err := os.WriteFile(newPath, []byte(content), 0o600); err != nil {
		return "", err
	}
	// Exit status 1 means the files differ.
	out, err := gitOutput("diff", "--no-index", "--no-color", oldPath, newPath)
	if err != nil && out == "" {
		return "", fmt.Errorf("diffing snippet against base: %w", err)
	}
	return out, nil
}

// syntheticSection renders content as a newly added file.
func syntheticSection(path, content string) string {
	return fmt.Sprintf("diff --git a/%[1]s b/%[1]s\nnew file mode 100644\n--- /dev/null\n+++ b/%[1]s\n%[2]s",
		path, syntheticHunk(content))
}

// syntheticHunk renders content as one all-added hunk.
func syntheticHunk(content string) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		b.WriteByte('+')
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
