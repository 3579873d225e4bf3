package pipeline

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/state"
	"github.com/dryrun-go/dryrun/internal/ui"
)

type fakeResolver struct {
	err      error
	calls    int
	released []core.WorkingCopy
}

func (f *fakeResolver) Resolve(_ context.Context, reference, branch, tag string) (core.WorkingCopy, error) {
	f.calls++
	if f.err != nil {
		return core.WorkingCopy{}, f.err
	}
	ref := branch
	if tag != "" {
		ref = tag
	}
	return core.WorkingCopy{LocalPath: "/work/" + reference, ResolvedRef: ref}, nil
}

func (f *fakeResolver) Release(_ context.Context, wc core.WorkingCopy) {
	f.released = append(f.released, wc)
}

type fakeLocator struct {
	module core.ProjectModule
	err    error
	calls  int
}

func (f *fakeLocator) Locate(wc core.WorkingCopy, _, _ string) (core.ProjectModule, error) {
	f.calls++
	if f.err != nil {
		return core.ProjectModule{}, f.err
	}
	m := f.module
	m.RootPath = wc.LocalPath
	return m, nil
}

type fakeInstaller struct {
	err     error
	devices []string
	flavour string
	calls   int

	// wrapper makes the uninstall command run the project's own gradlew.
	wrapper bool
}

func (f *fakeInstaller) BuildAndInstall(_ context.Context, module core.ProjectModule, flavour string) (core.InstallOutcome, error) {
	f.calls++
	f.flavour = flavour
	if f.err != nil {
		return core.InstallOutcome{UninstallCommand: "stale"}, f.err
	}
	builder := "gradle"
	if f.wrapper {
		builder = module.RootPath + "/gradlew -p " + module.RootPath
	}
	return core.InstallOutcome{Success: true, UninstallCommand: builder + " :" + module.ModuleName + ":uninstall" + flavour + "Debug"}, nil
}

func (f *fakeInstaller) ConnectedDevices(context.Context) ([]string, error) {
	return f.devices, nil
}

func newTestPipeline(r *fakeResolver, l *fakeLocator, i *fakeInstaller) (*Pipeline, *bytes.Buffer) {
	var out bytes.Buffer
	return New(r, l, i, ui.NewPrinter(&out), logging.NewNop()), &out
}

func TestRun_Success(t *testing.T) {
	r := &fakeResolver{}
	l := &fakeLocator{module: core.ProjectModule{ModuleName: "app", AvailableFlavours: []string{"dev", "qa"}}}
	i := &fakeInstaller{devices: []string{"emulator-5554"}}
	p, out := newTestPipeline(r, l, i)

	req := core.NewRunRequest("github.com/org/sample-app", "develop", "", "", "", "qa")
	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []state.Stage{state.Idle, state.Resolving, state.Locating, state.Building, state.Done}
	if !reflect.DeepEqual(res.Stages, want) {
		t.Errorf("Stages = %v, want %v", res.Stages, want)
	}
	if res.WorkingCopy.ResolvedRef != "develop" {
		t.Errorf("ResolvedRef = %q", res.WorkingCopy.ResolvedRef)
	}
	if i.flavour != "Qa" {
		t.Errorf("flavour passed to installer = %q, want Qa", i.flavour)
	}
	if !strings.Contains(out.String(), "gradle :app:uninstallQaDebug") {
		t.Errorf("uninstall command not printed:\n%s", out.String())
	}
	if strings.Contains(out.String(), "no device") {
		t.Errorf("unexpected device warning:\n%s", out.String())
	}
	if len(r.released) != 0 {
		t.Error("working copy should be kept unless cleanup is enabled")
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	resolveErr := core.NewError(core.KindInvalidReference, "bogus", nil)
	locateErr := core.NewError(core.KindNoInstallableModuleFound, "/work", nil)
	buildErr := core.NewError(core.KindBuildFailed, "app", errors.New("exit status 1"))

	tests := []struct {
		name        string
		r           *fakeResolver
		l           *fakeLocator
		i           *fakeInstaller
		wantErr     error
		wantStages  []state.Stage
		wantLocates int
		wantBuilds  int
	}{
		{
			name:       "resolve",
			r:          &fakeResolver{err: resolveErr},
			l:          &fakeLocator{},
			i:          &fakeInstaller{},
			wantErr:    core.ErrInvalidReference,
			wantStages: []state.Stage{state.Idle, state.Resolving, state.Failed},
		},
		{
			name:        "locate",
			r:           &fakeResolver{},
			l:           &fakeLocator{err: locateErr},
			i:           &fakeInstaller{},
			wantErr:     core.ErrNoInstallableModuleFound,
			wantStages:  []state.Stage{state.Idle, state.Resolving, state.Locating, state.Failed},
			wantLocates: 1,
		},
		{
			name:        "build",
			r:           &fakeResolver{},
			l:           &fakeLocator{module: core.ProjectModule{ModuleName: "app"}},
			i:           &fakeInstaller{err: buildErr},
			wantErr:     core.ErrBuildFailed,
			wantStages:  []state.Stage{state.Idle, state.Resolving, state.Locating, state.Building, state.Failed},
			wantLocates: 1,
			wantBuilds:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestPipeline(tt.r, tt.l, tt.i)
			res, err := p.Run(context.Background(), core.NewRunRequest("github.com/org/app", "", "", "", "", ""))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(res.Stages, tt.wantStages) {
				t.Errorf("Stages = %v, want %v", res.Stages, tt.wantStages)
			}
			if tt.l.calls != tt.wantLocates || tt.i.calls != tt.wantBuilds {
				t.Errorf("locate calls = %d, build calls = %d", tt.l.calls, tt.i.calls)
			}
			if res.Outcome.UninstallCommand != "" {
				t.Errorf("failed run reported uninstall command %q", res.Outcome.UninstallCommand)
			}
			if strings.Contains(out.String(), "remove the app") {
				t.Errorf("failed run printed uninstall hint:\n%s", out.String())
			}
		})
	}
}

func TestRun_WarnsWithoutDevices(t *testing.T) {
	r := &fakeResolver{}
	p, out := newTestPipeline(r, &fakeLocator{module: core.ProjectModule{ModuleName: "app"}}, &fakeInstaller{})
	p.Cleanup = true

	if _, err := p.Run(context.Background(), core.NewRunRequest("github.com/org/app", "", "", "", "app", "")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "no device or emulator attached") {
		t.Errorf("expected device warning:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Using custom module:") {
		t.Errorf("expected explicit module notice:\n%s", out.String())
	}
	if len(r.released) != 1 {
		t.Errorf("cleanup should release the working copy once, got %d", len(r.released))
	}
}

func TestRun_CleanupKeepsWorkingCopyNeededForUninstall(t *testing.T) {
	tests := []struct {
		name         string
		i            *fakeInstaller
		wantReleased int
		wantKept     bool
	}{
		{"wrapper in working copy", &fakeInstaller{wrapper: true}, 0, true},
		{"system gradle", &fakeInstaller{}, 1, false},
		{"failed build", &fakeInstaller{wrapper: true, err: core.NewError(core.KindBuildFailed, "app", nil)}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{}
			p, out := newTestPipeline(r, &fakeLocator{module: core.ProjectModule{ModuleName: "app"}}, tt.i)
			p.Cleanup = true

			_, _ = p.Run(context.Background(), core.NewRunRequest("github.com/org/app", "", "", "", "", ""))
			if len(r.released) != tt.wantReleased {
				t.Errorf("released %d working copies, want %d", len(r.released), tt.wantReleased)
			}
			if kept := strings.Contains(out.String(), "Keeping working copy"); kept != tt.wantKept {
				t.Errorf("keep notice printed = %v, want %v:\n%s", kept, tt.wantKept, out.String())
			}
		})
	}
}
