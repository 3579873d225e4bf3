package core

import (
	"errors"
	"fmt"
)

// Kind classifies why a run stopped. Every kind is terminal.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidReference
	KindResolutionFailed
	KindNotABuildableProject
	KindNoInstallableModuleFound
	KindBuildFailed
	KindMissingEnvironment
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindInvalidReference:
		return "InvalidReference"
	case KindResolutionFailed:
		return "ResolutionFailed"
	case KindNotABuildableProject:
		return "NotABuildableProject"
	case KindNoInstallableModuleFound:
		return "NoInstallableModuleFound"
	case KindBuildFailed:
		return "BuildFailed"
	case KindMissingEnvironment:
		return "MissingEnvironment"
	default:
		return "Unknown"
	}
}

// Error is a classified failure. Subject names the offending input
// (a URL, a path, a module name) so the front end can highlight it.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

// NewError creates a classified error.
func NewError(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// Error returns the error message.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Subject)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel comparisons
// like errors.Is(err, core.ErrBuildFailed) work regardless of subject.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Subject == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidReference         = &Error{Kind: KindInvalidReference}
	ErrResolutionFailed         = &Error{Kind: KindResolutionFailed}
	ErrNotABuildableProject     = &Error{Kind: KindNotABuildableProject}
	ErrNoInstallableModuleFound = &Error{Kind: KindNoInstallableModuleFound}
	ErrBuildFailed              = &Error{Kind: KindBuildFailed}
	ErrMissingEnvironment       = &Error{Kind: KindMissingEnvironment}
)

// KindOf extracts the kind of err, or KindUnknown if it was never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
