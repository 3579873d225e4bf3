package repo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dryrun-go/dryrun/internal/core"
)

var (
	// git@github.com:org/app(.git)
	scpLikePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^/\s][^\s]*$`)
	// https://github.com/org/app, ssh://git@host/org/app, git://host/org/app
	urlPattern = regexp.MustCompile(`^(?:https?|ssh|git)://[^\s/]+/[^\s]+$`)
	// github.com/org/app
	shorthandPattern = regexp.MustCompile(`^[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)+/[^\s/]+/[^\s]+$`)
)

// Reference is a validated repository locator.
type Reference struct {
	// Raw is the reference as the user typed it.
	Raw string

	// CloneURL is what gets passed to git clone. It always ends in .git.
	CloneURL string
}

// ParseReference validates raw and derives its clone URL.
// Query strings and trailing slashes are ignored; shorthand references
// without a scheme are cloned over https.
func ParseReference(raw string) (Reference, error) {
	ref := strings.TrimSpace(raw)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")

	var url string
	switch {
	case ref == "":
		return Reference{}, core.NewError(core.KindInvalidReference, raw, fmt.Errorf("empty reference"))
	case urlPattern.MatchString(ref), scpLikePattern.MatchString(ref):
		url = ref
	case shorthandPattern.MatchString(ref):
		url = "https://" + ref
	default:
		return Reference{}, core.NewError(core.KindInvalidReference, raw, fmt.Errorf("not a git url"))
	}

	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}
	return Reference{Raw: raw, CloneURL: url}, nil
}
