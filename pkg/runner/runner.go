package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/fileio"
	"github.com/opendatahub-io/hybrid-catalog-builder/pkg/log"
	"go.uber.org/zap"
)

const outputFileFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// Runner executes external commands. Run is used for commands with side
// effects, Output for read-only queries whose stdout the caller consumes.
type Runner interface {
	Run(cmd *exec.Cmd) error
	Output(cmd *exec.Cmd) ([]byte, error)
	DryRun() bool
}

// ExecRunner executes commands, appending each invocation and its combined
// output to the run log file.
type ExecRunner struct {
	logFile string
}

func NewExecRunner(logFile string) *ExecRunner {
	return &ExecRunner{logFile: logFile}
}

func (r *ExecRunner) Run(cmd *exec.Cmd) error {
	file, err := r.openLog(cmd)
	if err != nil {
		return err
	}
	defer closeLog(file)

	cmd.Stdout = file
	cmd.Stderr = file

	return cmd.Run()
}

func (r *ExecRunner) Output(cmd *exec.Cmd) ([]byte, error) {
	file, err := r.openLog(cmd)
	if err != nil {
		return nil, err
	}
	defer closeLog(file)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = file

	err = cmd.Run()

	if _, writeErr := file.Write(stdout.Bytes()); writeErr != nil {
		zap.S().Warnf("Mirroring command output to %s failed: %s", r.logFile, writeErr)
	}

	return stdout.Bytes(), err
}

func (r *ExecRunner) DryRun() bool {
	return false
}

func (r *ExecRunner) openLog(cmd *exec.Cmd) (*os.File, error) {
	file, err := os.OpenFile(r.logFile, outputFileFlags, fileio.NonExecutablePerms)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	if _, err = fmt.Fprintf(file, "command: %s\n", cmd); err != nil {
		closeLog(file)
		return nil, fmt.Errorf("writing command prefix to log file: %w", err)
	}

	return file, nil
}

func closeLog(file *os.File) {
	if err := file.Close(); err != nil {
		zap.S().Warnf("Closing %s file failed: %s", file.Name(), err)
	}
}

// DryRunner announces commands with side effects instead of executing them.
// Read-only queries still execute so that decisions taken during a dry run
// (current branch, dirty worktree) reflect the actual environment.
type DryRunner struct {
	exec *ExecRunner
}

func NewDryRunner(logFile string) *DryRunner {
	return &DryRunner{exec: NewExecRunner(logFile)}
}

func (r *DryRunner) Run(cmd *exec.Cmd) error {
	log.AuditInfof("Dry run: %s", strings.Join(cmd.Args, " "))
	return nil
}

func (r *DryRunner) Output(cmd *exec.Cmd) ([]byte, error) {
	return r.exec.Output(cmd)
}

func (r *DryRunner) DryRun() bool {
	return true
}
