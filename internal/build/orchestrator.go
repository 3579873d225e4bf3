// Package build drives Gradle and adb to install a located module.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
	"github.com/dryrun-go/dryrun/internal/shell"
)

// Options configures an Orchestrator.
type Options struct {
	// GradleBinary is used when the project has no gradlew wrapper.
	GradleBinary string

	// AdbBinary is used to probe devices and launch the app.
	AdbBinary string

	// Launch starts the app after installing it.
	Launch bool
}

// Orchestrator builds and installs debug packages.
type Orchestrator struct {
	opts   Options
	runner shell.Runner
	logger logging.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options, runner shell.Runner, logger logging.Logger) *Orchestrator {
	if opts.GradleBinary == "" {
		opts.GradleBinary = "gradle"
	}
	if opts.AdbBinary == "" {
		opts.AdbBinary = "adb"
	}
	return &Orchestrator{opts: opts, runner: runner, logger: logger}
}

// TaskPath returns the fully qualified Gradle task for module,
// e.g. TaskPath("app", "install", "Qa") == ":app:installQaDebug".
func TaskPath(module, verb, flavour string) string {
	module = strings.Trim(strings.ReplaceAll(module, "/", ":"), ":")
	buildType := strings.ToUpper(core.BuildTypeDebug[:1]) + core.BuildTypeDebug[1:]
	return ":" + module + ":" + verb + flavour + buildType
}

// Builder returns the Gradle executable for root: the project's wrapper
// when present, the configured binary otherwise.
func (o *Orchestrator) Builder(root string) string {
	wrapper := filepath.Join(root, "gradlew")
	if info, err := os.Stat(wrapper); err == nil && !info.IsDir() {
		return wrapper
	}
	return o.opts.GradleBinary
}

// UninstallCommand renders the command that removes what BuildAndInstall installed.
func (o *Orchestrator) UninstallCommand(module core.ProjectModule, flavour string) string {
	return shell.Command{
		Name: o.Builder(module.RootPath),
		Args: []string{"-p", module.RootPath, TaskPath(module.ModuleName, "uninstall", flavour)},
	}.String()
}

// BuildAndInstall runs clean, then the module's install task for flavour and
// the debug build type. Any failure is a BuildFailed error and the outcome's
// UninstallCommand stays empty.
func (o *Orchestrator) BuildAndInstall(ctx context.Context, module core.ProjectModule, flavour string) (core.InstallOutcome, error) {
	root := module.RootPath
	installTask := TaskPath(module.ModuleName, "install", flavour)
	log := o.logger.With(
		logging.String("module", module.ModuleName),
		logging.String("task", installTask),
	)

	if flavour != "" && len(module.AvailableFlavours) > 0 && !module.HasFlavour(flavour) {
		log.Warn("flavour not declared by module", logging.Strings("declared", module.AvailableFlavours))
	}

	o.removeLocalProperties(root)

	builder := o.Builder(root)
	if builder != o.opts.GradleBinary {
		if err := os.Chmod(builder, 0o755); err != nil {
			log.Warn("could not make gradle wrapper executable", logging.ErrorField(err))
		}
	}

	for _, task := range []string{"clean", installTask} {
		cmd := shell.Command{Name: builder, Args: []string{"-p", root, task}, Dir: root}
		log.Debug("running gradle", logging.String("command", cmd.String()))
		if err := o.runner.Run(ctx, cmd); err != nil {
			return core.InstallOutcome{InstallTask: installTask}, core.NewError(core.KindBuildFailed, module.ModuleName,
				fmt.Errorf("%s: %w", task, err))
		}
	}

	outcome := core.InstallOutcome{
		Success:          true,
		InstallTask:      installTask,
		UninstallCommand: o.UninstallCommand(module, flavour),
	}

	if o.opts.Launch {
		if err := o.Launch(ctx, module); err != nil {
			log.Warn("could not launch app", logging.ErrorField(err))
		} else {
			outcome.Launched = true
		}
	}

	return outcome, nil
}

// ErrNotLaunchable is returned by Launch when the module has no known
// package or launcher activity.
var ErrNotLaunchable = errors.New("no launcher activity found")

// Launch starts the module's launcher activity on the connected device.
func (o *Orchestrator) Launch(ctx context.Context, module core.ProjectModule) error {
	if !module.Launchable() {
		return ErrNotLaunchable
	}
	return o.runner.Run(ctx, shell.Command{
		Name: o.opts.AdbBinary,
		Args: []string{
			"shell", "am", "start",
			"-n", module.PackageName + "/" + module.LauncherActivity,
			"-a", "android.intent.action.MAIN",
			"-c", "android.intent.category.LAUNCHER",
		},
	})
}

// ConnectedDevices lists the serials adb reports in the "device" state.
func (o *Orchestrator) ConnectedDevices(ctx context.Context) ([]string, error) {
	out, err := o.runner.Output(ctx, shell.Command{Name: o.opts.AdbBinary, Args: []string{"devices"}})
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

func parseDevices(out string) []string {
	var serials []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials
}

// removeLocalProperties deletes a committed local.properties, whose sdk.dir
// points at another machine's SDK.
func (o *Orchestrator) removeLocalProperties(root string) {
	p := filepath.Join(root, "local.properties")
	if err := os.Remove(p); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			o.logger.Warn("could not remove local.properties", logging.ErrorField(err))
		}
		return
	}
	o.logger.Debug("removed local.properties", logging.String("path", p))
}
