package dispatch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/hupe1980/onchange/internal/project"
)

// Result is the outcome of running one command.
type Result struct {
	// ExitCode is the process exit status, or -1 when the process could not
	// be started or did not exit normally.
	ExitCode int

	// Err is set when the command did not succeed.
	Err error
}

// OK reports whether the command succeeded.
func (r Result) OK() bool { return r.Err == nil && r.ExitCode == 0 }

// Runner executes a single command to completion.
type Runner interface {
	Run(ctx context.Context, cmd project.Command) Result
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd project.Command) Result

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd project.Command) Result { return f(ctx, cmd) }

// ShellRunner runs commands through the system shell, inheriting the
// process environment.
type ShellRunner struct {
	// Shell and ShellFlag form the interpreter invocation, e.g. "sh -c".
	Shell     string
	ShellFlag string

	// Dir is the working directory; empty means the current one.
	Dir string

	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner returns a ShellRunner for the host platform writing to the
// process's stdout and stderr.
func NewShellRunner() *ShellRunner {
	r := &ShellRunner{
		Shell:     "/bin/sh",
		ShellFlag: "-c",
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	if runtime.GOOS == "windows" {
		r.Shell, r.ShellFlag = "cmd", "/C"
	}

	return r
}

// Run executes cmd.Shell and waits for it to exit.
func (r *ShellRunner) Run(ctx context.Context, cmd project.Command) Result {
	c := exec.CommandContext(ctx, r.Shell, r.ShellFlag, cmd.Shell) //nolint:gosec // running configured commands is the point
	c.Dir = r.Dir
	c.Stdin = os.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	if err == nil {
		return Result{}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Err: err}
	}

	return Result{ExitCode: -1, Err: err}
}
