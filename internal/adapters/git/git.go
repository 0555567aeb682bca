// Package git detects branch names for image tagging.
package git

import (
	"context"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"
)

// Info carries the branch names relevant to tagging: the checked-out
// branch and the repository's canonical main branch.
type Info struct {
	Branch     string
	MainBranch string
}

// Detect reads branch information from the repository containing dir.
// Branch names are sanitized to be valid image tags.
func Detect(ctx context.Context, dir string) (Info, error) {
	branch, err := output(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Info{}, zerr.Wrap(err, "failed to detect git branch")
	}

	main, err := output(ctx, dir, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err != nil {
		// Repositories without a remote have no origin/HEAD.
		main = "main"
	}
	main = strings.TrimPrefix(main, "refs/remotes/origin/")

	return Info{
		Branch:     SanitizeBranch(branch),
		MainBranch: SanitizeBranch(main),
	}, nil
}

// SanitizeBranch makes a branch name usable as an image tag: slashes
// become dashes, spaces are removed.
func SanitizeBranch(branch string) string {
	branch = strings.ReplaceAll(branch, "/", "-")
	branch = strings.ReplaceAll(branch, " ", "")
	return branch
}

func output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "git command failed"), "args", strings.Join(args, " "))
	}
	return strings.TrimSpace(string(out)), nil
}
