// Package pipeline sequences one dryrun: resolve the reference, locate the
// module, then build and install it.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/state"
	"github.com/dryrun-go/dryrun/internal/ui"
)

// ReferenceResolver produces working copies.
type ReferenceResolver interface {
	Resolve(ctx context.Context, reference, branch, tag string) (core.WorkingCopy, error)
	Release(ctx context.Context, wc core.WorkingCopy)
}

// ModuleLocator finds the module to install inside a working copy.
type ModuleLocator interface {
	Locate(wc core.WorkingCopy, explicitPath, explicitModule string) (core.ProjectModule, error)
}

// Installer builds and installs a module.
type Installer interface {
	BuildAndInstall(ctx context.Context, module core.ProjectModule, flavour string) (core.InstallOutcome, error)
	ConnectedDevices(ctx context.Context) ([]string, error)
}

// Pipeline runs the three stages in order. Nothing runs concurrently.
type Pipeline struct {
	resolver  ReferenceResolver
	locator   ModuleLocator
	installer Installer
	printer   *ui.Printer
	logger    logging.Logger

	// Cleanup removes the working copy when the run ends, unless the printed
	// uninstall command still runs from it.
	Cleanup bool
}

// New creates a Pipeline.
func New(resolver ReferenceResolver, locator ModuleLocator, installer Installer, printer *ui.Printer, logger logging.Logger) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		locator:   locator,
		installer: installer,
		printer:   printer,
		logger:    logger,
	}
}

// Result describes a finished run, successful or not.
type Result struct {
	WorkingCopy core.WorkingCopy
	Module      core.ProjectModule
	Outcome     core.InstallOutcome
	Stages      []state.Stage
}

// Run executes req. The first failing stage ends the run; its error is
// returned unchanged so callers can classify it with core.KindOf.
func (p *Pipeline) Run(ctx context.Context, req core.RunRequest) (Result, error) {
	entered := time.Now()
	machine := state.NewMachine(func(from, to state.Stage) {
		now := time.Now()
		p.logger.Debug("stage transition",
			logging.String("from", from.String()),
			logging.String("to", to.String()),
			logging.Duration("elapsed", now.Sub(entered)),
		)
		entered = now
	})

	var res Result
	err := p.run(ctx, req, machine, &res)
	if err != nil {
		if ferr := machine.Fail(); ferr != nil {
			p.logger.Error("state machine", logging.ErrorField(ferr))
		}
		p.logger.Info("run failed",
			logging.String("kind", core.KindOf(err).String()),
			logging.ErrorField(err),
		)
	}
	res.Stages = machine.History()

	if p.Cleanup {
		p.cleanup(ctx, res)
	}
	return res, err
}

// cleanup releases the working copy. A successful run whose uninstall command
// points into the working copy keeps it, otherwise the command would be dead
// on arrival.
func (p *Pipeline) cleanup(ctx context.Context, res Result) {
	dir := res.WorkingCopy.LocalPath
	if dir != "" && strings.Contains(res.Outcome.UninstallCommand, dir) {
		p.logger.Info("keeping working copy for the uninstall command", logging.String("dir", dir))
		p.printer.Step("Keeping working copy for the uninstall command:", dir)
		return
	}
	p.resolver.Release(ctx, res.WorkingCopy)
}

func (p *Pipeline) run(ctx context.Context, req core.RunRequest, m *state.Machine, res *Result) error {
	if err := m.Advance(state.Resolving); err != nil {
		return err
	}
	p.printer.Step(fmt.Sprintf("Cloning %s at", req.Reference), req.Ref())
	wc, err := p.resolver.Resolve(ctx, req.Reference, req.Branch, req.Tag)
	if err != nil {
		return err
	}
	res.WorkingCopy = wc

	if err := m.Advance(state.Locating); err != nil {
		return err
	}
	if req.ExplicitPath != "" {
		p.printer.Step("Using custom app folder:", req.ExplicitPath)
	}
	if req.ExplicitModule != "" {
		p.printer.Step("Using custom module:", req.ExplicitModule)
	}
	module, err := p.locator.Locate(wc, req.ExplicitPath, req.ExplicitModule)
	if err != nil {
		return err
	}
	res.Module = module
	if req.ExplicitModule == "" {
		p.printer.Step("Found module:", module.ModuleName)
	}
	if len(module.AvailableFlavours) > 0 {
		p.printer.Step("Available flavours:", strings.Join(module.AvailableFlavours, ", "))
	}

	if err := m.Advance(state.Building); err != nil {
		return err
	}
	p.checkDevices(ctx)
	outcome, err := p.installer.BuildAndInstall(ctx, module, req.Flavour)
	res.Outcome = outcome
	if err != nil {
		res.Outcome.UninstallCommand = ""
		return err
	}

	if err := m.Advance(state.Done); err != nil {
		return err
	}
	p.printer.Uninstall(outcome.UninstallCommand)
	return nil
}

// checkDevices warns when adb sees no device. The install step reports the
// real failure, so nothing here stops the run.
func (p *Pipeline) checkDevices(ctx context.Context) {
	devices, err := p.installer.ConnectedDevices(ctx)
	switch {
	case err != nil:
		p.logger.Warn("could not list devices", logging.ErrorField(err))
	case len(devices) == 0:
		p.printer.Warn("no device or emulator attached, the install step will likely fail")
	default:
		p.logger.Debug("devices attached", logging.Strings("serials", devices))
	}
}
