// Package ui renders terminal output for the cv command.
package ui

import (
	"fmt"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// ANSI 256 palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorAdded   = 114 // green
	colorRemoved = 203 // red
)

var noColor bool

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent color, used for headers.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderMuted returns s in the muted color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderAdded returns s styled as the new side of a diff.
func RenderAdded(s string) string { return render(colorAdded, s) }

// RenderRemoved returns s styled as the old side of a diff.
func RenderRemoved(s string) string { return render(colorRemoved, s) }

// RenderTestStatus colors a test result status.
func RenderTestStatus(s model.TestStatus) string {
	if s == model.TestSuccess {
		return RenderAdded(string(s))
	}
	return RenderRemoved(string(s))
}
