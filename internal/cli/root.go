package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dryrun-go/dryrun/internal/android"
	"github.com/dryrun-go/dryrun/internal/build"
	"github.com/dryrun-go/dryrun/internal/config"
	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/pipeline"
	"github.com/dryrun-go/dryrun/internal/repo"
	"github.com/dryrun-go/dryrun/internal/shell"
	"github.com/dryrun-go/dryrun/internal/ui"
	"github.com/dryrun-go/dryrun/internal/workspace"
)

var (
	// Version is set at build time via ldflags.
	// Example: go build -ldflags "-X github.com/dryrun-go/dryrun/internal/cli.Version=1.0.0"
	Version = "dev"
)

// Dependencies are the injection points of the front end. Zero fields get
// production defaults.
type Dependencies struct {
	Stdout io.Writer
	Stderr io.Writer

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// Runner executes git, gradle and adb. Defaults to an os/exec runner.
	Runner shell.Runner
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
	if d.Stderr == nil {
		d.Stderr = os.Stderr
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	if d.Runner == nil {
		d.Runner = shell.NewExecRunner(d.Stdout, d.Stderr)
	}
	return d
}

// options are the raw flag values.
type options struct {
	module  string
	branch  string
	flavour string
	path    string
	tag     string
	version bool
}

// newRootCommand builds the dryrun command.
func newRootCommand(deps Dependencies) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "dryrun GIT_URL",
		Short: "Run an Android project straight from its git repository",
		Long: `dryrun clones an Android project, finds its application module,
then builds and installs the debug package on the connected device or emulator.

Examples:
  dryrun https://github.com/org/sample-app
  dryrun github.com/org/sample-app -b develop -f qa
  dryrun git@github.com:org/sample-app.git -t v0.4.5 -m sample`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return &usageError{err: fmt.Errorf("expected a single GIT_URL, got %d arguments", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Informational flags and a missing URL end here, before any
			// environment check.
			if opts.version {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}

			req := core.NewRunRequest(args[0], opts.branch, opts.tag, opts.path, opts.module, opts.flavour)
			return runDryrun(cmd.Context(), req, deps)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.module, "module", "m", "", "custom module to run")
	flags.StringVarP(&opts.branch, "branch", "b", core.DefaultBranch, "checkout custom branch to run")
	flags.StringVarP(&opts.flavour, "flavour", "f", "", "custom flavour (e.g. dev, qa, prod)")
	flags.StringVarP(&opts.path, "path", "p", "", "custom path to the android project")
	flags.StringVarP(&opts.tag, "tag", "t", "", `checkout tag/commit hash to clone (e.g. "v0.4.5", "6f7dd4b")`)
	flags.BoolVarP(&opts.version, "version", "v", false, "display the version")
	flags.BoolP("help", "h", false, "display help")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	return cmd
}

// runDryrun checks the environment, then runs the pipeline for req.
func runDryrun(ctx context.Context, req core.RunRequest, deps Dependencies) error {
	// The SDK check comes before anything else, config file included.
	if !config.HasSDK(deps.Getenv) {
		return &ExitError{
			Code: 1,
			Err:  core.NewError(core.KindMissingEnvironment, config.SDKEnvVar, nil),
		}
	}

	cfg, err := config.Load(config.Options{Getenv: deps.Getenv})
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLoggerTo(deps.Stderr, cfg.LogLevel).With(
		logging.String("run_id", uuid.NewString()),
	)
	defer func() { _ = logger.Sync() }()

	store, err := workspace.NewDirStore(cfg.WorkDir)
	if err != nil {
		return err
	}

	logger.Info("starting dryrun",
		logging.String("version", Version),
		logging.String("reference", req.Reference),
		logging.String("ref", req.Ref()),
		logging.String("flavour", req.Flavour),
		logging.String("workdir", store.BaseDir()),
		logging.Bool("cleanup", cfg.Cleanup),
		logging.Bool("launch", cfg.Launch),
	)

	printer := ui.NewPrinter(deps.Stdout)
	runner := shell.NewEchoRunner(deps.Runner, printer.Command)
	p := pipeline.New(
		repo.NewResolver(cfg.GitBinary, runner, store, logger),
		android.NewLocator(logger),
		build.NewOrchestrator(build.Options{
			GradleBinary: cfg.GradleBinary,
			AdbBinary:    cfg.AdbBinary,
			Launch:       cfg.Launch,
		}, runner, logger),
		printer,
		logger,
	)
	p.Cleanup = cfg.Cleanup

	_, err = p.Run(ctx, req)
	return err
}

// Run executes dryrun with args (without the program name) and returns the
// process exit code: 0 on success or when help/version was shown, 1 otherwise.
func Run(ctx context.Context, args []string, deps Dependencies) int {
	deps = deps.withDefaults()
	cmd := newRootCommand(deps)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	printer := ui.NewPrinter(deps.Stdout)

	var usage *usageError
	if errors.As(err, &usage) {
		printer.Error(err)
		fmt.Fprint(deps.Stdout, cmd.UsageString())
		return 1
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if errors.Is(exitErr, core.ErrMissingEnvironment) {
			printer.MissingSDK(config.SDKEnvVar)
		} else {
			printer.Error(exitErr.Err)
		}
		return exitErr.Code
	}

	printer.Error(err)
	return 1
}

// Execute is the entry point for the CLI. It should be called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Run(ctx, os.Args[1:], Dependencies{})
	stop()
	os.Exit(code)
}
