// Package repo turns a repository reference into a local working copy.
package repo

import (
	"context"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/shell"
	"github.com/dryrun-go/dryrun/internal/workspace"
)

// Resolver clones repositories with git.
type Resolver struct {
	git    string
	runner shell.Runner
	store  workspace.Store
	logger logging.Logger
}

// NewResolver creates a resolver that invokes the given git binary.
func NewResolver(git string, runner shell.Runner, store workspace.Store, logger logging.Logger) *Resolver {
	return &Resolver{git: git, runner: runner, store: store, logger: logger}
}

// Resolve validates reference, clones it into a fresh directory and checks
// out tag when given, else branch. Nothing is cloned for an invalid reference.
func (r *Resolver) Resolve(ctx context.Context, reference, branch, tag string) (core.WorkingCopy, error) {
	ref, err := ParseReference(reference)
	if err != nil {
		return core.WorkingCopy{}, err
	}

	dir, err := r.store.Allocate(ctx, ref.CloneURL)
	if err != nil {
		return core.WorkingCopy{}, core.NewError(core.KindResolutionFailed, reference, err)
	}

	log := r.logger.With(
		logging.String("url", ref.CloneURL),
		logging.String("dir", dir),
	)

	wanted := branch
	var steps []shell.Command
	if tag != "" {
		// Tags and commit hashes may not be reachable from a shallow clone.
		wanted = tag
		steps = []shell.Command{
			{Name: r.git, Args: []string{"clone", ref.CloneURL, dir}},
			{Name: r.git, Args: []string{"-C", dir, "checkout", tag}},
		}
	} else {
		steps = []shell.Command{
			{Name: r.git, Args: []string{"clone", "--depth", "1", "--branch", branch, ref.CloneURL, dir}},
		}
	}

	for _, step := range steps {
		log.Debug("running git", logging.String("command", step.String()))
		if err := r.runner.Run(ctx, step); err != nil {
			log.Warn("git failed", logging.ErrorField(err))
			r.Release(ctx, core.WorkingCopy{LocalPath: dir})
			return core.WorkingCopy{}, core.NewError(core.KindResolutionFailed, reference+"@"+wanted, err)
		}
	}

	wc := core.WorkingCopy{LocalPath: dir, ResolvedRef: wanted}

	head, err := r.runner.Output(ctx, shell.Command{Name: r.git, Args: []string{"-C", dir, "rev-parse", "HEAD"}})
	if err != nil {
		log.Debug("could not read HEAD", logging.ErrorField(err))
	} else {
		wc.Commit = head
	}

	log.Info("working copy ready",
		logging.String("ref", wc.ResolvedRef),
		logging.String("commit", wc.Commit),
	)
	return wc, nil
}

// Release removes the working copy. Failures are logged, never returned:
// cleanup is best-effort.
func (r *Resolver) Release(ctx context.Context, wc core.WorkingCopy) {
	if wc.LocalPath == "" {
		return
	}
	if err := r.store.Release(ctx, wc.LocalPath); err != nil {
		r.logger.Warn("could not remove working copy",
			logging.String("dir", wc.LocalPath),
			logging.ErrorField(err),
		)
	}
}
