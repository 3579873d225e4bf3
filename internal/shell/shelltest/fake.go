// Package shelltest provides a recording shell.Runner for tests.
package shelltest

import (
	"context"
	"strings"
	"sync"

	"github.com/dryrun-go/dryrun/internal/shell"
)

// HandlerFunc decides the outcome of a fake invocation. It may also mutate
// the filesystem, e.g. to simulate a clone.
type HandlerFunc func(cmd shell.Command) (string, error)

// FakeRunner records every command instead of executing it.
// A nil Handler makes every command succeed with empty output.
type FakeRunner struct {
	Handler HandlerFunc

	mu    sync.Mutex
	calls []shell.Command
}

// NewFakeRunner creates a FakeRunner with the given handler.
func NewFakeRunner(h HandlerFunc) *FakeRunner {
	return &FakeRunner{Handler: h}
}

// Run records cmd and consults the handler.
func (f *FakeRunner) Run(ctx context.Context, cmd shell.Command) error {
	_, err := f.Output(ctx, cmd)
	return err
}

// Output records cmd and returns the handler's output.
func (f *FakeRunner) Output(_ context.Context, cmd shell.Command) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	if f.Handler == nil {
		return "", nil
	}
	return f.Handler(cmd)
}

// Calls returns the recorded commands in order.
func (f *FakeRunner) Calls() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shell.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// Lines returns the recorded commands as "name arg arg" strings.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return lines
}

// Called reports whether any recorded command line contains substr.
func (f *FakeRunner) Called(substr string) bool {
	for _, l := range f.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
