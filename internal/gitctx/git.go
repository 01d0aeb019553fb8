package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
	Remote string
}

// GetRepoMeta collects repository metadata from git. Only a missing
// repository is an error; an unborn HEAD or absent origin leaves the field
// empty.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitLine("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	meta := RepoMeta{Root: root}
	meta.Head, _ = gitLine("rev-parse", "--verify", "--quiet", "HEAD")
	meta.Branch, _ = gitLine("rev-parse", "--abbrev-ref", "HEAD")
	meta.Remote, _ = gitLine("remote", "get-url", "origin")
	return meta, nil
}

// gitOutput runs git in the working directory and returns stdout. A non-zero
// exit carries git's stderr in the error and still returns stdout, since
// some commands (diff --no-index) exit 1 on success.
func gitOutput(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	if err != nil {
		return "", fmt.Errorf("running git: %w", err)
	}
	return string(out), nil
}

func gitLine(args ...string) (string, error) {
	out, err := gitOutput(args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
