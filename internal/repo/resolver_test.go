package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/shell"
	"github.com/dryrun-go/dryrun/internal/shell/shelltest"
	"github.com/dryrun-go/dryrun/internal/workspace"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/org/sample-app", "https://github.com/org/sample-app.git"},
		{"https://github.com/org/sample-app.git", "https://github.com/org/sample-app.git"},
		{"https://github.com/org/sample-app/", "https://github.com/org/sample-app.git"},
		{"https://github.com/org/sample-app?tab=readme", "https://github.com/org/sample-app.git"},
		{"http://gitlab.example.com/group/sub/app", "http://gitlab.example.com/group/sub/app.git"},
		{"git@github.com:org/sample-app", "git@github.com:org/sample-app.git"},
		{"git@bitbucket.org:org/sample-app.git", "git@bitbucket.org:org/sample-app.git"},
		{"ssh://git@host.example.com/org/app", "ssh://git@host.example.com/org/app.git"},
		{"github.com/org/sample-app", "https://github.com/org/sample-app.git"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseReference(tt.in)
			if err != nil {
				t.Fatalf("ParseReference(%q): %v", tt.in, err)
			}
			if ref.CloneURL != tt.want {
				t.Errorf("CloneURL = %q, want %q", ref.CloneURL, tt.want)
			}
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"sample-app",
		"not a url",
		"github.com/org",
		"https://github.com",
		"ftp://github.com/org/app",
		"/home/me/projects/app",
		"./app",
	} {
		_, err := ParseReference(in)
		if !errors.Is(err, core.ErrInvalidReference) {
			t.Errorf("ParseReference(%q) error = %v, want InvalidReference", in, err)
		}
	}
}

func newTestResolver(t *testing.T, runner shell.Runner) *Resolver {
	t.Helper()
	r, _ := newTestResolverIn(t, runner)
	return r
}

func newTestResolverIn(t *testing.T, runner shell.Runner) (*Resolver, string) {
	t.Helper()
	base := t.TempDir()
	store, err := workspace.NewDirStore(base)
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	return NewResolver("git", runner, store, logging.NewNop()), base
}

func TestResolve_InvalidReferenceNeverClones(t *testing.T) {
	runner := shelltest.NewFakeRunner(nil)
	r := newTestResolver(t, runner)

	_, err := r.Resolve(context.Background(), "definitely not a repo", "master", "")
	if core.KindOf(err) != core.KindInvalidReference {
		t.Fatalf("expected InvalidReference, got %v", err)
	}
	if n := len(runner.Calls()); n != 0 {
		t.Errorf("expected no git invocations, got %d: %v", n, runner.Lines())
	}
}

func TestResolve_Branch(t *testing.T) {
	runner := shelltest.NewFakeRunner(func(cmd shell.Command) (string, error) {
		if len(cmd.Args) > 2 && cmd.Args[2] == "rev-parse" {
			return "6f7dd4b", nil
		}
		return "", nil
	})
	r := newTestResolver(t, runner)

	wc, err := r.Resolve(context.Background(), "github.com/org/sample-app", "develop", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wc.ResolvedRef != "develop" {
		t.Errorf("ResolvedRef = %q, want develop", wc.ResolvedRef)
	}
	if wc.Commit != "6f7dd4b" {
		t.Errorf("Commit = %q", wc.Commit)
	}

	lines := runner.Lines()
	want := "git clone --depth 1 --branch develop https://github.com/org/sample-app.git " + wc.LocalPath
	if len(lines) == 0 || lines[0] != want {
		t.Errorf("first command = %v, want %q", lines, want)
	}
}

func TestResolve_TagChecksOutAfterFullClone(t *testing.T) {
	runner := shelltest.NewFakeRunner(nil)
	r := newTestResolver(t, runner)

	wc, err := r.Resolve(context.Background(), "git@github.com:org/app", "master", "v0.4.5")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wc.ResolvedRef != "v0.4.5" {
		t.Errorf("ResolvedRef = %q", wc.ResolvedRef)
	}

	lines := runner.Lines()
	if len(lines) < 2 {
		t.Fatalf("expected clone and checkout, got %v", lines)
	}
	if strings.Contains(lines[0], "--depth") || strings.Contains(lines[0], "--branch") {
		t.Errorf("tag checkout should use a full clone: %q", lines[0])
	}
	if lines[1] != "git -C "+wc.LocalPath+" checkout v0.4.5" {
		t.Errorf("second command = %q", lines[1])
	}
}

func TestResolve_CloneFailure(t *testing.T) {
	runner := shelltest.NewFakeRunner(func(cmd shell.Command) (string, error) {
		return "", errors.New("exit status 128")
	})
	r := newTestResolver(t, runner)

	wc, err := r.Resolve(context.Background(), "https://github.com/org/missing", "master", "")
	if !errors.Is(err, core.ErrResolutionFailed) {
		t.Fatalf("expected ResolutionFailed, got %v", err)
	}
	if wc.LocalPath != "" {
		t.Errorf("failed resolution should not return a working copy: %+v", wc)
	}
}

func TestResolve_FailureRemovesPartialClone(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		failing string
	}{
		{"clone", "", "clone"},
		{"checkout", "v0.4.5", "checkout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := shelltest.NewFakeRunner(func(cmd shell.Command) (string, error) {
				if cmd.Args[0] == "clone" {
					dir := cmd.Args[len(cmd.Args)-1]
					if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("partial"), 0o644); err != nil {
						return "", err
					}
				}
				for _, a := range cmd.Args {
					if a == tt.failing {
						return "", errors.New("exit status 128")
					}
				}
				return "", nil
			})
			r, base := newTestResolverIn(t, runner)

			_, err := r.Resolve(context.Background(), "https://github.com/org/app", "master", tt.tag)
			if !errors.Is(err, core.ErrResolutionFailed) {
				t.Fatalf("expected ResolutionFailed, got %v", err)
			}
			entries, err := os.ReadDir(base)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("expected the allocated directory to be removed, found %d entries", len(entries))
			}
		})
	}
}
