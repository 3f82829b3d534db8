package vcs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/runner"
	"go.uber.org/zap"
)

const stashMessage = "hybrid-catalog-builder"

// Git wraps the source control operations needed to build the operator image
// from a selected branch. Queries execute even in dry-run mode; mutations
// (checkout, stash) go through the runner and are announced only.
type Git struct {
	runner runner.Runner
}

func New(run runner.Runner) *Git {
	return &Git{runner: run}
}

func (g *Git) CurrentBranch() (string, error) {
	out, err := g.runner.Output(currentBranchCommand())
	if err != nil {
		return "", fmt.Errorf("determining current branch: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (g *Git) HasLocalChanges() (bool, error) {
	out, err := g.runner.Output(statusCommand())
	if err != nil {
		return false, fmt.Errorf("checking working tree status: %w", err)
	}

	return strings.TrimSpace(string(out)) != "", nil
}

func (g *Git) Checkout(branch string) error {
	zap.S().Infof("Checking out branch %s", branch)

	if err := g.runner.Run(checkoutCommand(branch)); err != nil {
		return fmt.Errorf("checking out branch %s: %w", branch, err)
	}

	return nil
}

func (g *Git) StashPush() error {
	zap.S().Info("Stashing uncommitted local changes")

	if err := g.runner.Run(stashPushCommand()); err != nil {
		return fmt.Errorf("stashing local changes: %w", err)
	}

	return nil
}

func (g *Git) StashPop() error {
	zap.S().Info("Restoring stashed local changes")

	if err := g.runner.Run(stashPopCommand()); err != nil {
		return fmt.Errorf("restoring stashed changes: %w", err)
	}

	return nil
}

func currentBranchCommand() *exec.Cmd {
	return exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
}

func statusCommand() *exec.Cmd {
	return exec.Command("git", "status", "--porcelain")
}

func checkoutCommand(branch string) *exec.Cmd {
	return exec.Command("git", "checkout", branch)
}

func stashPushCommand() *exec.Cmd {
	return exec.Command("git", "stash", "push", "--include-untracked", "-m", stashMessage)
}

func stashPopCommand() *exec.Cmd {
	return exec.Command("git", "stash", "pop")
}
