package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// The managed block is delimited so it can coexist with other hook content.
const (
	hookMarkerStart = "# >>> patchguard pre-commit hook >>>"
	hookMarkerEnd   = "# <<< patchguard pre-commit hook <<<"
)

var (
	hookFailOn     string
	hookFormat     string
	hookCategories string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
	Long: "The pre-commit hook runs 'patchguard scan staged' and blocks the commit when a finding " +
		"reaches --fail-on. Scan errors never block a commit.",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install or update the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := installHook(); err != nil {
			fail(err)
		}
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-commit hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := uninstallHook(); err != nil {
			fail(err)
		}
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the pre-commit hook is installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, existing, err := readHook()
		if err != nil {
			fail(err)
			return nil
		}
		if _, _, ok := splitHookSection(existing); ok {
			fmt.Fprintf(os.Stdout, "Installed at %s\n", path)
		} else {
			fmt.Fprintf(os.Stdout, "Not installed (%s)\n", path)
		}
		return nil
	},
}

func installHook() error {
	path, existing, err := readHook()
	if err != nil {
		return err
	}
	section := generateHookScript(hookFailOn, hookFormat, hookCategories)

	content := "#!/bin/sh\n" + section
	if existing != "" {
		content = replaceHookSection(existing, section)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Installed pre-commit hook at %s\n", path)
	return nil
}

func uninstallHook() error {
	path, existing, err := readHook()
	if err != nil {
		return err
	}
	if _, _, ok := splitHookSection(existing); !ok {
		fmt.Fprintln(os.Stdout, "No patchguard pre-commit hook found.")
		return nil
	}

	rest := removeHookSection(existing)
	switch strings.TrimSpace(rest) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing hook: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Removed %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(rest), 0o755); err != nil {
		return fmt.Errorf("writing hook: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Removed the patchguard block from %s\n", path)
	return nil
}

// readHook returns the hook path and its content, or "" when it does not
// exist yet.
func readHook() (string, string, error) {
	path, err := getHookPath()
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("reading hook: %w", err)
	}
	return path, string(data), nil
}

// getHookPath resolves the pre-commit path through git so core.hooksPath and
// worktrees are honored.
func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks/pre-commit").Output()
	if err != nil {
		return "", errors.New("not a git repository (git rev-parse --git-path failed)")
	}
	return filepath.Clean(strings.TrimSpace(string(out))), nil
}

// generateHookScript renders the managed block. The scan's exit code 1 blocks
// the commit; anything at or above 2 is an error and lets it through.
func generateHookScript(failOn, format, categories string) string {
	args := []string{"patchguard", "scan", "staged", "--fail-on", failOn, "--format", format}
	if categories != "" {
		args = append(args, "--categories", categories)
	}
	lines := []string{
		hookMarkerStart,
		strings.Join(args, " "),
		"PATCHGUARD_EXIT=$?",
		"case $PATCHGUARD_EXIT in",
		"  0) ;;",
		`  1) echo "patchguard: findings at or above ` + failOn + `, commit blocked"; exit 1 ;;`,
		`  *) echo "patchguard: warning: scan failed (exit $PATCHGUARD_EXIT), allowing commit" ;;`,
		"esac",
		hookMarkerEnd,
	}
	return strings.Join(lines, "\n") + "\n"
}

// splitHookSection returns the content around the managed block. ok is false
// when the block is absent or its markers are out of order.
func splitHookSection(content string) (before, after string, ok bool) {
	start := strings.Index(content, hookMarkerStart)
	end := strings.Index(content, hookMarkerEnd)
	if start == -1 || end < start {
		return content, "", false
	}
	after = strings.TrimPrefix(content[end+len(hookMarkerEnd):], "\n")
	return content[:start], after, true
}

// replaceHookSection swaps the managed block for section, appending it when
// there is none.
func replaceHookSection(existing, section string) string {
	before, after, ok := splitHookSection(existing)
	if !ok {
		if existing != "" && !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}
	return before + section + after
}

func removeHookSection(existing string) string {
	before, after, ok := splitHookSection(existing)
	if !ok {
		return existing
	}
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd, hookUninstallCmd, hookStatusCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Block the commit at this severity (low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().StringVar(&hookCategories, "categories", "", "Rule categories to scan (comma-separated, default from config)")
}
