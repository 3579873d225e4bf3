package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultBranch is checked out when neither a branch nor a tag is requested.
const DefaultBranch = "master"

// BuildTypeDebug is the only build type dryrun installs.
const BuildTypeDebug = "debug"

// RunRequest is everything the pipeline needs for a single run.
// It is built once from command-line input and never modified afterwards.
type RunRequest struct {
	// Reference is the repository URL or shorthand (e.g. github.com/org/app).
	Reference string

	// Branch is checked out when Tag is empty.
	Branch string

	// Tag is a tag or commit hash to check out instead of Branch.
	Tag string

	// ExplicitPath is a project root relative to the working copy.
	ExplicitPath string

	// ExplicitModule overrides module discovery.
	ExplicitModule string

	// Flavour is the product flavour, already case-normalized.
	Flavour string
}

// NewRunRequest builds a RunRequest, applying defaults and normalizing the
// flavour name so later stages can splice it straight into task names.
func NewRunRequest(reference, branch, tag, path, module, flavour string) RunRequest {
	if strings.TrimSpace(branch) == "" {
		branch = DefaultBranch
	}
	return RunRequest{
		Reference:      strings.TrimSpace(reference),
		Branch:         branch,
		Tag:            tag,
		ExplicitPath:   path,
		ExplicitModule: strings.Trim(module, ":/ "),
		Flavour:        NormalizeFlavour(flavour),
	}
}

// Ref returns the ref that will be checked out: the tag when set, otherwise the branch.
func (r RunRequest) Ref() string {
	if r.Tag != "" {
		return r.Tag
	}
	return r.Branch
}

// NormalizeFlavour upper-cases the first letter of a flavour name ("qa" -> "Qa").
// The rest is left alone so camel-cased flavours like "freeDev" keep the
// casing Gradle uses in its generated task names.
func NormalizeFlavour(flavour string) string {
	flavour = strings.TrimSpace(flavour)
	if flavour == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(flavour)
	return string(unicode.ToUpper(r)) + flavour[size:]
}
