package container

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/runner"
	"go.uber.org/zap"
)

// Tool drives the configured image builder CLI (podman by default, any
// docker-compatible CLI works) for the container operations the pipeline
// needs. All invocations go through the runner so that dry runs only
// announce them.
type Tool struct {
	command string
	runner  runner.Runner
}

func NewTool(command string, run runner.Runner) *Tool {
	return &Tool{
		command: command,
		runner:  run,
	}
}

// Create materializes a non-running container from the given image and
// returns its name. The container is only used as a source for CopyOut and
// must be removed by the caller.
func (t *Tool) Create(image string) (string, error) {
	name := fmt.Sprintf("bundle-extract-%s", uuid.NewString())

	if err := t.runner.Run(createCommand(t.command, name, image)); err != nil {
		return "", fmt.Errorf("creating container from image %s: %w", image, err)
	}

	return name, nil
}

// CopyOut copies a path from inside the container into the destination
// directory on the host.
func (t *Tool) CopyOut(container, src, dest string) error {
	zap.S().Infof("Copying %s from container %s to %s", src, container, dest)

	if err := t.runner.Run(copyCommand(t.command, container, src, dest)); err != nil {
		return fmt.Errorf("copying %s out of container %s: %w", src, container, err)
	}

	return nil
}

func (t *Tool) Remove(container string) error {
	if err := t.runner.Run(removeCommand(t.command, container)); err != nil {
		return fmt.Errorf("removing container %s: %w", container, err)
	}

	return nil
}

func (t *Tool) Build(dockerfile, tag, context string) error {
	zap.S().Infof("Building image %s...", tag)

	if err := t.runner.Run(buildCommand(t.command, dockerfile, tag, context)); err != nil {
		return fmt.Errorf("building image %s: %w", tag, err)
	}

	return nil
}

func (t *Tool) Push(image string) error {
	zap.S().Infof("Pushing image %s...", image)

	if err := t.runner.Run(pushCommand(t.command, image)); err != nil {
		return fmt.Errorf("pushing image %s: %w", image, err)
	}

	return nil
}

// Inspect checks that a remote image reference resolves. The manifest
// contents are not interpreted, only the tool's exit code matters.
func (t *Tool) Inspect(image string) error {
	if _, err := t.runner.Output(inspectCommand(t.command, image)); err != nil {
		return fmt.Errorf("inspecting image %s: %w", image, err)
	}

	return nil
}

// Login returns the account currently logged into the given registry host.
func (t *Tool) Login(registryHost string) (string, error) {
	out, err := t.runner.Output(loginCommand(t.command, registryHost))
	if err != nil {
		return "", fmt.Errorf("checking login for registry %s: %w", registryHost, err)
	}

	return strings.TrimSpace(string(out)), nil
}

func createCommand(tool, name, image string) *exec.Cmd {
	return exec.Command(tool, "create", "--name", name, image)
}

func copyCommand(tool, container, src, dest string) *exec.Cmd {
	return exec.Command(tool, "cp", fmt.Sprintf("%s:%s", container, src), dest)
}

func removeCommand(tool, container string) *exec.Cmd {
	return exec.Command(tool, "rm", "-f", container)
}

func buildCommand(tool, dockerfile, tag, context string) *exec.Cmd {
	return exec.Command(tool, "build", "-f", dockerfile, "-t", tag, context)
}

func pushCommand(tool, image string) *exec.Cmd {
	return exec.Command(tool, "push", image)
}

func inspectCommand(tool, image string) *exec.Cmd {
	return exec.Command(tool, "manifest", "inspect", image)
}

func loginCommand(tool, registryHost string) *exec.Cmd {
	return exec.Command(tool, "login", "--get-login", registryHost)
}
