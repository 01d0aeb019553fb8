package review

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".go":    "go",
	".rb":    "ruby",
	".java":  "java",
	".rs":    "rust",
	".php":   "php",
	".cs":    "csharp",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".sh":    "bash",
	".sql":   "sql",
	".yaml":  "yaml",
	".yml":   "yaml",
	".json":  "json",
	".tf":    "hcl",
	".kt":    "kotlin",
	".swift": "swift",
}

// LanguageForPath guesses the language key for a file from its extension.
// It returns "" when the extension is unknown.
func LanguageForPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}

// NormalizeLanguage maps common aliases (e.g. GitHub's "JavaScript") onto
// registry keys.
func NormalizeLanguage(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	switch l {
	case "js", "node":
		return "javascript"
	case "ts":
		return "typescript"
	case "py":
		return "python"
	case "golang":
		return "go"
	}
	return l
}
