package diff

import (
	"strings"
)

// FileStatus mirrors the status values of the GitHub pull request files API.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusRemoved  FileStatus = "removed"
	StatusRenamed  FileStatus = "renamed"
)

// FilePatch is one file's slice of a multi-file diff.
type FilePatch struct {
	Path    string     `json:"path"`
	OldPath string     `json:"oldPath,omitempty"`
	Status  FileStatus `json:"status"`
	// Patch starts at the first hunk header and is empty for binary or
	// mode-only changes.
	Patch  string `json:"patch"`
	Binary bool   `json:"binary,omitempty"`
}

// SplitFiles splits a "diff --git" formatted diff into per-file patches,
// preserving file order.
func SplitFiles(unified string) []FilePatch {
	var files []FilePatch
	for _, sec := range splitSections(unified) {
		if fp, ok := parseSection(sec); ok {
			files = append(files, fp)
		}
	}
	return files
}

func splitSections(unified string) []string {
	if strings.TrimSpace(unified) == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "diff --git ") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if s := current.String(); strings.TrimSpace(s) != "" {
		sections = append(sections, s)
	}
	return sections
}

func parseSection(section string) (FilePatch, bool) {
	fp := FilePatch{Status: StatusModified}
	var body strings.Builder
	inBody := false

	for _, line := range strings.Split(strings.TrimSuffix(section, "\n"), "\n") {
		if inBody {
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}
		switch {
		case strings.HasPrefix(line, "diff --git "):
			oldPath, newPath := pathsFromGitHeader(line)
			fp.OldPath, fp.Path = oldPath, newPath
		case strings.HasPrefix(line, "new file mode"):
			fp.Status = StatusAdded
		case strings.HasPrefix(line, "deleted file mode"):
			fp.Status = StatusRemoved
		case strings.HasPrefix(line, "rename from "):
			fp.Status = StatusRenamed
			fp.OldPath = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			fp.Path = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "Binary files "):
			fp.Binary = true
		case strings.HasPrefix(line, "--- "):
			if p := stripPrefix(strings.TrimPrefix(line, "--- ")); p != "" {
				fp.OldPath = p
			}
		case strings.HasPrefix(line, "+++ "):
			if p := stripPrefix(strings.TrimPrefix(line, "+++ ")); p != "" {
				fp.Path = p
			}
		case strings.HasPrefix(line, "@@"):
			inBody = true
			body.WriteString(line)
			body.WriteString("\n")
		}
	}

	if fp.Path == "" {
		fp.Path = fp.OldPath
	}
	if fp.Path == "" {
		return FilePatch{}, false
	}
	if fp.OldPath == fp.Path && fp.Status != StatusRenamed {
		fp.OldPath = ""
	}
	fp.Patch = body.String()
	return fp, true
}

// pathsFromGitHeader handles the common unquoted "diff --git a/x b/y" form.
func pathsFromGitHeader(line string) (string, string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	idx := strings.Index(rest, " b/")
	if idx < 0 || !strings.HasPrefix(rest, "a/") {
		return "", ""
	}
	return rest[2:idx], rest[idx+3:]
}

// stripPrefix removes the a/ or b/ marker and maps /dev/null to "".
func stripPrefix(p string) string {
	if i := strings.IndexByte(p, '\t'); i >= 0 {
		p = p[:i]
	}
	if p == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}
