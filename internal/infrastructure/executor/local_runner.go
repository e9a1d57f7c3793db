// Package executor spawns fetched scripts on the host shell.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/doeshing/scriptgate/internal/domain"
	"github.com/doeshing/scriptgate/internal/ports"
)

// shellCandidates are tried in order when no shell is configured.
var shellCandidates = []string{"bash", "/bin/sh"}

// LocalRunner runs script content with "<shell> -c" and inherits stdio.
type LocalRunner struct {
	shell  string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option customises a LocalRunner.
type Option func(*LocalRunner)

// WithShell fixes the interpreter instead of looking up bash.
func WithShell(shell string) Option {
	return func(r *LocalRunner) { r.shell = shell }
}

// WithStdio replaces the process stdio, mainly for tests.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(r *LocalRunner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewLocalRunner builds a runner that defaults to bash, falling back to /bin/sh.
func NewLocalRunner(opts ...Option) *LocalRunner {
	r := &LocalRunner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Shell returns the interpreter that will be used, or an error if none is installed.
func (r *LocalRunner) Shell() (string, error) {
	if r.shell != "" {
		return exec.LookPath(r.shell)
	}
	for _, candidate := range shellCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no shell found (tried %v)", domain.ErrExecution, shellCandidates)
}

// Run implements ports.ScriptRunner. A non-zero exit is reported in the
// result with a nil error; only a failure to start the shell is an error.
func (r *LocalRunner) Run(ctx context.Context, content string) (domain.ExecutionResult, error) {
	shell, err := r.Shell()
	if err != nil {
		return domain.ExecutionResult{ExitCode: -1}, fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}

	c := exec.CommandContext(ctx, shell, "-c", content)
	c.Stdin = r.stdin
	c.Stdout = r.stdout
	c.Stderr = r.stderr

	start := time.Now()
	err = c.Run()
	result := domain.ExecutionResult{DurationMS: time.Since(start).Milliseconds()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%w: %v", domain.ErrExecution, err)
	}
	return result, nil
}

var _ ports.ScriptRunner = (*LocalRunner)(nil)
