package core

import "strings"

// WorkingCopy is a local checkout produced by the reference resolver.
type WorkingCopy struct {
	// LocalPath is the directory the repository was cloned into.
	LocalPath string

	// ResolvedRef is the branch or tag that was checked out.
	ResolvedRef string

	// Commit is the checked out commit hash, when git reported one.
	Commit string
}

// ProjectModule is the buildable unit found inside a working copy.
// RootPath holds a build descriptor and ModuleName names a subdirectory of
// RootPath with its own descriptor.
type ProjectModule struct {
	RootPath   string
	ModuleName string

	// AvailableFlavours lists the product flavours declared by the module,
	// sorted. Informational only: the requested flavour is not checked
	// against it.
	AvailableFlavours []string

	// PackageName is the application id, if one could be found.
	PackageName string

	// LauncherActivity is the fully qualified MAIN/LAUNCHER activity, if any.
	LauncherActivity string
}

// HasFlavour reports whether name is among the declared flavours, ignoring case.
func (m ProjectModule) HasFlavour(name string) bool {
	for _, f := range m.AvailableFlavours {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// Launchable reports whether enough is known to start the app after install.
func (m ProjectModule) Launchable() bool {
	return m.PackageName != "" && m.LauncherActivity != ""
}

// InstallOutcome is what the build orchestrator reports back to the front end.
// UninstallCommand is only set when Success is true.
type InstallOutcome struct {
	Success          bool
	UninstallCommand string

	// InstallTask is the build tool task that installed the package.
	InstallTask string

	// Launched is true when the app was started on the device afterwards.
	Launched bool
}
