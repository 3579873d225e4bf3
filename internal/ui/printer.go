package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dryrun-go/dryrun/internal/core"
	"github.com/dryrun-go/dryrun/internal/shell"
)

// Printer writes progress, warnings and errors for the user.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Step reports progress, highlighting value.
func (p *Printer) Step(msg, value string) {
	if value == "" {
		fmt.Fprintln(p.w, msg)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", msg, SuccessStyle.Render(value))
}

// Warn prints a warning line.
func (p *Printer) Warn(msg string) {
	fmt.Fprintln(p.w, WarningStyle.Render("warning: ")+msg)
}

// Command echoes a subprocess invocation.
func (p *Printer) Command(cmd shell.Command) {
	fmt.Fprintln(p.w, MutedStyle.Render("$ "+cmd.String()))
}

// MissingSDK prints the warning shown when the SDK variable is unset.
func (p *Printer) MissingSDK(envVar string) {
	fmt.Fprintf(p.w, "\nWARNING: your %s is not defined\n", WarningStyle.Render("$"+envVar))
	fmt.Fprintf(p.w, "\nhint: in your %s or %s add:\n  %s\n",
		WarningStyle.Render("~/.bashrc"),
		WarningStyle.Render("~/.bash_profile"),
		WarningStyle.Render(`export `+envVar+`="$HOME/Library/Android/sdk"`),
	)
	fmt.Fprintf(p.w, "\nNow type %s\n\n", WarningStyle.Render("source ~/.bashrc"))
}

// Uninstall prints how to remove the installed app.
func (p *Printer) Uninstall(command string) {
	fmt.Fprintf(p.w, "\n> If you want to remove the app you just installed, execute:\n%s\n\n", CmdStyle.Render(command))
}

// Error renders err as a single line naming the offending input.
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.w, ErrorLine(err))
}

// ErrorLine formats err for display.
func ErrorLine(err error) string {
	var ce *core.Error
	if !errors.As(err, &ce) {
		return ErrorStyle.Render("error:") + " " + err.Error()
	}

	subject := ErrorStyle.Render(ce.Subject)
	cause := ""
	if ce.Err != nil {
		cause = " (" + firstLine(ce.Err.Error()) + ")"
	}

	switch ce.Kind {
	case core.KindInvalidReference:
		return subject + " is not a valid git url"
	case core.KindResolutionFailed:
		return "could not check out " + subject + cause
	case core.KindNotABuildableProject:
		return subject + " is not a valid android project" + cause
	case core.KindNoInstallableModuleFound:
		return "no installable module found in " + subject
	case core.KindBuildFailed:
		return "build failed for module " + subject + cause
	case core.KindMissingEnvironment:
		return "$" + subject + " is not defined"
	default:
		return ErrorStyle.Render("error:") + " " + err.Error()
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
