package android

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

const (
	actionMain       = "android.intent.action.MAIN"
	categoryLauncher = "android.intent.category.LAUNCHER"
)

// Manifest is the subset of AndroidManifest.xml dryrun cares about.
type Manifest struct {
	XMLName     xml.Name `xml:"manifest"`
	Package     string   `xml:"package,attr"`
	Application struct {
		Activities []manifestActivity `xml:"activity"`
		Aliases    []manifestActivity `xml:"activity-alias"`
	} `xml:"application"`
}

type manifestActivity struct {
	Name          string                 `xml:"name,attr"`
	Enabled       string                 `xml:"enabled,attr"`
	IntentFilters []manifestIntentFilter `xml:"intent-filter"`
}

type manifestIntentFilter struct {
	Actions []struct {
		Name string `xml:"name,attr"`
	} `xml:"action"`
	Categories []struct {
		Name string `xml:"name,attr"`
	} `xml:"category"`
}

// ParseManifest reads an AndroidManifest.xml file.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// LauncherActivity returns the class name of the first enabled activity (or
// alias) handling MAIN/LAUNCHER, resolved against pkg. Empty if none.
func (m *Manifest) LauncherActivity(pkg string) string {
	if pkg == "" {
		pkg = m.Package
	}
	candidates := append(append([]manifestActivity{}, m.Application.Activities...), m.Application.Aliases...)
	for _, a := range candidates {
		if a.Enabled == "false" || !a.isLauncher() {
			continue
		}
		return qualifyClass(pkg, a.Name)
	}
	return ""
}

func (a manifestActivity) isLauncher() bool {
	for _, f := range a.IntentFilters {
		var main, launcher bool
		for _, act := range f.Actions {
			main = main || act.Name == actionMain
		}
		for _, cat := range f.Categories {
			launcher = launcher || cat.Name == categoryLauncher
		}
		if main && launcher {
			return true
		}
	}
	return false
}

// qualifyClass expands ".MainActivity" and "MainActivity" against pkg.
func qualifyClass(pkg, name string) string {
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, "."):
		return pkg + name
	case !strings.Contains(name, ".") && pkg != "":
		return pkg + "." + name
	default:
		return name
	}
}
