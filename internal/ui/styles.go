// Package ui renders dryrun's human-readable output.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output.
const (
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// SuccessStyle is for completed steps and user-supplied values that were accepted.
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	// ErrorStyle is for the offending input in error lines.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)

	// WarningStyle is for warnings and environment hints.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	// CmdStyle is for command lines the user can copy.
	CmdStyle = lipgloss.NewStyle().Foreground(ColorHighlight)

	// MutedStyle is for echoed subprocess invocations.
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)
