// Package gitops wraps the git CLI for session branch and commit
// automation. Every helper surfaces git's own output on failure so the
// user sees what git saw.
package gitops

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/jkendrick/stint/internal/item"
)

// branchPrefix namespaces session branches.
const branchPrefix = "stint/"

// BranchName returns the session branch for a work item.
func BranchName(itemID string) string {
	return branchPrefix + itemID
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	_, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(dir string) (string, error) {
	return run(dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// IsDirty reports whether the work tree has uncommitted changes.
func IsDirty(dir string) (bool, error) {
	out, err := run(dir, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// SwitchToSessionBranch checks out the session branch for itemID,
// creating it if needed.
func SwitchToSessionBranch(dir, itemID string) (string, error) {
	branch := BranchName(itemID)

	// Reuse the branch when it already exists.
	if _, err := run(dir, "rev-parse", "--verify", "refs/heads/"+branch); err == nil {
		if _, err := run(dir, "switch", branch); err != nil {
			return "", err
		}
		return branch, nil
	}

	if _, err := run(dir, "switch", "-c", branch); err != nil {
		return "", err
	}
	return branch, nil
}

// CommitMessage builds a commit subject and body from a work item.
func CommitMessage(it *item.WorkItem) string {
	subject := fmt.Sprintf("%s: %s", it.ID, it.Title)
	body := fmt.Sprintf("Type: %s\nPriority: %s", it.Type, it.Priority)
	if it.Milestone != "" {
		body += fmt.Sprintf("\nMilestone: %s", it.Milestone)
	}
	return subject + "\n\n" + body
}

// CommitAll stages everything and commits with the given message.
// Committing with nothing staged is not an error; it reports false.
func CommitAll(dir, message string) (bool, error) {
	if _, err := run(dir, "add", "-A"); err != nil {
		return false, err
	}

	// Nothing staged means nothing to commit.
	if _, err := run(dir, "diff", "--cached", "--quiet"); err == nil {
		return false, nil
	}

	if _, err := run(dir, "commit", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}
