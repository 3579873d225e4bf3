// Package shell runs the external executables dryrun delegates to
// (git, gradle, adb) and renders their command lines for display.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is a single invocation of an external executable.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String renders the command as a copy-pastable shell line.
func (c Command) String() string {
	return Join(append([]string{c.Name}, c.Args...))
}

// Runner invokes external executables. Every call blocks until the
// subprocess exits.
type Runner interface {
	// Run executes cmd, streaming its output to the user.
	Run(ctx context.Context, cmd Command) error

	// Output executes cmd and returns its trimmed stdout.
	Output(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner that streams subprocess output to stdout/stderr.
func NewExecRunner(stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Stdout: stdout, Stderr: stderr}
}

// Run executes cmd and streams its output.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// Output executes cmd and captures stdout. Stderr is still streamed.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) (string, error) {
	var out bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &out
	c.Stderr = r.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Quote quotes a single word for bash, leaving plain words untouched.
func Quote(word string) string {
	if word == "" {
		return "''"
	}
	q, err := syntax.Quote(word, syntax.LangBash)
	if err != nil {
		// Only strings with NUL bytes fail to quote.
		return fmt.Sprintf("%q", word)
	}
	return q
}

// Join renders words as one shell command line.
func Join(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = Quote(w)
	}
	return strings.Join(quoted, " ")
}

// EchoRunner announces every streamed command before running it.
// Captured (Output) invocations are not announced.
type EchoRunner struct {
	Runner
	Echo func(Command)
}

// NewEchoRunner wraps inner so echo is called before each Run.
func NewEchoRunner(inner Runner, echo func(Command)) *EchoRunner {
	return &EchoRunner{Runner: inner, Echo: echo}
}

// Run echoes cmd, then runs it.
func (r *EchoRunner) Run(ctx context.Context, cmd Command) error {
	if r.Echo != nil {
		r.Echo(cmd)
	}
	return r.Runner.Run(ctx, cmd)
}
