// Package android finds the installable module of a Gradle Android project.
package android

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/logging"
)

// Locator inspects a working copy for its application module.
type Locator struct {
	logger logging.Logger
}

// NewLocator creates a Locator.
func NewLocator(logger logging.Logger) *Locator {
	return &Locator{logger: logger}
}

// Locate resolves the project root and application module inside wc.
//
// The root is explicitPath under the working copy when given, else the
// working copy itself, and must hold a build descriptor. An explicit module
// is used as-is and must have its own descriptor; otherwise the first
// subdirectory, in lexicographic order, whose descriptor applies the
// application plugin wins. Multiple candidates are not an error.
func (l *Locator) Locate(wc core.WorkingCopy, explicitPath, explicitModule string) (core.ProjectModule, error) {
	root, err := projectRoot(wc.LocalPath, explicitPath)
	if err != nil {
		return core.ProjectModule{}, err
	}

	if _, ok := findDescriptor(root, rootDescriptors); !ok {
		return core.ProjectModule{}, core.NewError(core.KindNotABuildableProject, root,
			fmt.Errorf("no build.gradle or settings.gradle found"))
	}

	var (
		name string
		desc *Descriptor
	)
	if explicitModule != "" {
		name = explicitModule
		desc, err = explicitDescriptor(root, explicitModule)
	} else {
		name, desc, err = l.scan(root)
	}
	if err != nil {
		return core.ProjectModule{}, err
	}

	module := core.ProjectModule{
		RootPath:          root,
		ModuleName:        name,
		AvailableFlavours: desc.Flavours(),
	}
	l.readIdentity(&module, desc)

	l.logger.Info("located module",
		logging.String("root", module.RootPath),
		logging.String("module", module.ModuleName),
		logging.Strings("flavours", module.AvailableFlavours),
		logging.String("package", module.PackageName),
	)
	return module, nil
}

func projectRoot(base, explicitPath string) (string, error) {
	if explicitPath == "" {
		return base, nil
	}
	root := filepath.Join(base, explicitPath)
	if !within(base, root) {
		return "", core.NewError(core.KindNotABuildableProject, explicitPath,
			fmt.Errorf("path escapes the working copy"))
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return "", core.NewError(core.KindNotABuildableProject, explicitPath,
			fmt.Errorf("no such directory in the repository"))
	}
	return root, nil
}

// within reports whether path is base itself or lies below it.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ModuleDir maps a Gradle module path ("app", "feature:app") to its directory.
func ModuleDir(root, module string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(module, ":", "/")))
}

func explicitDescriptor(root, module string) (*Descriptor, error) {
	dir := ModuleDir(root, module)
	if dir == root || !within(root, dir) {
		return nil, core.NewError(core.KindNotABuildableProject, module,
			fmt.Errorf("module must be a subdirectory of %s", root))
	}
	path, ok := findDescriptor(dir, moduleDescriptors)
	if !ok {
		return nil, core.NewError(core.KindNotABuildableProject, module,
			fmt.Errorf("module has no build.gradle in %s", dir))
	}
	desc, err := ReadDescriptor(path)
	if err != nil {
		return nil, core.NewError(core.KindNotABuildableProject, module, err)
	}
	return desc, nil
}

func (l *Locator) scan(root string) (string, *Descriptor, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", nil, core.NewError(core.KindNotABuildableProject, root, err)
	}

	// os.ReadDir sorts by name, which keeps the choice reproducible.
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path, ok := findDescriptor(filepath.Join(root, e.Name()), moduleDescriptors)
		if !ok {
			continue
		}
		desc, err := ReadDescriptor(path)
		if err != nil {
			l.logger.Warn("skipping unreadable descriptor", logging.String("path", path), logging.ErrorField(err))
			continue
		}
		if desc.IsApplication() {
			return e.Name(), desc, nil
		}
		l.logger.Debug("skipping non-application module", logging.String("module", e.Name()))
	}

	return "", nil, core.NewError(core.KindNoInstallableModuleFound, root,
		fmt.Errorf("no module applies the com.android.application plugin"))
}

// readIdentity fills in the package name and launcher activity. Missing
// information only disables launching after install.
func (l *Locator) readIdentity(module *core.ProjectModule, desc *Descriptor) {
	appID := desc.ApplicationID()
	namespace := desc.Namespace()

	manifestPath := filepath.Join(filepath.Dir(desc.Path), "src", "main", "AndroidManifest.xml")
	manifest, err := ParseManifest(manifestPath)
	if err != nil {
		l.logger.Debug("no usable manifest", logging.String("path", manifestPath), logging.ErrorField(err))
	}

	classBase := namespace
	if manifest != nil && manifest.Package != "" {
		classBase = manifest.Package
	}
	if classBase == "" {
		classBase = appID
	}

	module.PackageName = appID
	if module.PackageName == "" {
		module.PackageName = classBase
	}
	if manifest != nil {
		module.LauncherActivity = manifest.LauncherActivity(classBase)
	}
}
