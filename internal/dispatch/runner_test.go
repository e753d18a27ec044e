//go:build unix

package dispatch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/onchange/internal/project"
)

func newTestShellRunner(out *bytes.Buffer) *ShellRunner {
	r := NewShellRunner()
	r.Stdout = out
	r.Stderr = out

	return r
}

func TestShellRunner_Success(t *testing.T) {
	var out bytes.Buffer

	res := newTestShellRunner(&out).Run(context.Background(), project.Command{Name: "echo", Shell: "echo hello && echo world"})

	assert.True(t, res.OK())
	assert.Equal(t, "hello\nworld\n", out.String())
}

func TestShellRunner_ExitCode(t *testing.T) {
	res := newTestShellRunner(&bytes.Buffer{}).Run(context.Background(), project.Command{Name: "fail", Shell: "exit 7"})

	assert.False(t, res.OK())
	assert.Equal(t, 7, res.ExitCode)
	assert.Error(t, res.Err)
}

func TestShellRunner_Dir(t *testing.T) {
	var out bytes.Buffer

	dir := t.TempDir()
	r := newTestShellRunner(&out)
	r.Dir = dir

	res := r.Run(context.Background(), project.Command{Name: "pwd", Shell: "pwd -P"})
	assert.True(t, res.OK())
	assert.NotEmpty(t, out.String())
}

func TestShellRunner_MissingShell(t *testing.T) {
	r := newTestShellRunner(&bytes.Buffer{})
	r.Shell = "/nonexistent/shell"

	res := r.Run(context.Background(), project.Command{Name: "x", Shell: "true"})
	assert.False(t, res.OK())
	assert.Equal(t, -1, res.ExitCode)
}
