package operator

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/cleanup"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/config"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/runner"
	"go.uber.org/zap"
)

// Repository is the image repository freshly built operator images are pushed to.
const Repository = "opendatahub-operator"

type git interface {
	CurrentBranch() (string, error)
	HasLocalChanges() (bool, error)
	Checkout(branch string) error
	StashPush() error
	StashPop() error
}

type inspector interface {
	Inspect(image string) error
}

// Provider yields the operator image to inject into the hybrid bundle:
// either a caller-supplied reference (checked, but trusted on check failure)
// or a fresh build from the selected branch, pushed via the repository's make
// targets.
type Provider struct {
	cfg       *config.RunConfig
	git       git
	inspector inspector
	run       runner.Runner
	cleaner   *cleanup.Cleaner
}

func NewProvider(cfg *config.RunConfig, g git, insp inspector, run runner.Runner, cleaner *cleanup.Cleaner) *Provider {
	return &Provider{
		cfg:       cfg,
		git:       g,
		inspector: insp,
		run:       run,
		cleaner:   cleaner,
	}
}

func (p *Provider) Resolve() (string, error) {
	if p.cfg.NoBuild {
		return "", nil
	}

	if p.cfg.OperatorImage != "" {
		if err := p.inspector.Inspect(p.cfg.OperatorImage); err != nil {
			log.AuditWarnf("Could not inspect operator image %s: %s. Proceeding with the provided reference.",
				p.cfg.OperatorImage, err)
		}
		return p.cfg.OperatorImage, nil
	}

	return p.build()
}

func (p *Provider) build() (string, error) {
	current, err := p.git.CurrentBranch()
	if err != nil {
		return "", err
	}

	branch := p.cfg.Branch
	if branch == "" {
		branch = current
	}

	image := fmt.Sprintf("%s/%s:%s", p.cfg.Registry, Repository, BranchTag(branch))

	restore := &restore{git: p.git}
	p.cleaner.Add("restore git state", restore.run)

	if branch != current {
		if err = p.switchBranch(current, branch, restore); err != nil {
			restoreGitState(restore)
			return "", err
		}
	}

	log.AuditInfof("Building operator image %s from branch %s...", image, branch)
	buildErr := p.run.Run(buildCommand(image))

	restoreGitState(restore)

	if buildErr != nil {
		return "", fmt.Errorf("building operator image %s: %w", image, buildErr)
	}

	return image, nil
}

// switchBranch checks out the target branch, stashing uncommitted changes
// first. Stash and branch are recorded on the restore before each mutation so
// an interruption mid-switch still unwinds what already happened.
func (p *Provider) switchBranch(current, branch string, restore *restore) error {
	dirty, err := p.git.HasLocalChanges()
	if err != nil {
		return err
	}

	if dirty {
		if err = p.git.StashPush(); err != nil {
			return err
		}
		restore.stashed = true
	}

	if err = p.git.Checkout(branch); err != nil {
		return err
	}
	restore.branch = current

	return nil
}

func restoreGitState(r *restore) {
	if err := r.run(); err != nil {
		zap.S().Warnf("Restoring git state failed: %s", err)
	}
}

// BranchTag maps a branch name onto a usable image tag.
func BranchTag(branch string) string {
	return strings.ReplaceAll(branch, "/", "-")
}

func buildCommand(image string) *exec.Cmd {
	return exec.Command("make", "image-build", "image-push", "IMG="+image)
}

// restore returns the repository to its pre-build state: check the original
// branch out again and pop the stash if one was pushed. It runs at most once
// even when invoked both inline and from the cleanup handler.
type restore struct {
	git     git
	once    sync.Once
	branch  string
	stashed bool
}

func (r *restore) run() error {
	var err error

	r.once.Do(func() {
		if r.branch != "" {
			if err = r.git.Checkout(r.branch); err != nil {
				return
			}
		}

		if r.stashed {
			err = r.git.StashPop()
		}
	})

	return err
}
