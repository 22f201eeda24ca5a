package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorEnabled reports whether ANSI colors should be written to f. NO_COLOR
// wins, then CLICOLOR_FORCE=1, then CLICOLOR=0; otherwise colors are used
// only when f is a terminal.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR_FORCE")) == "1" {
		return true
	}
	if strings.TrimSpace(os.Getenv("CLICOLOR")) == "0" {
		return false
	}
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// ShouldUseColor reports whether stdout gets colors and noColor has not
// been forced.
func ShouldUseColor() bool {
	return !noColor && ColorEnabled(os.Stdout)
}
