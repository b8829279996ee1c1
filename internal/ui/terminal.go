// Package ui provides terminal capability detection for the so client.
package ui

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal returns true if stdout is connected to a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor determines if ANSI color codes should be used.
// Respects NO_COLOR (https://no-color.org/) and CLICOLOR conventions.
func ShouldUseColor() bool {
	// NO_COLOR / CLICOLOR=0 take precedence - any value disables color
	if termenv.EnvNoColor() {
		return false
	}

	// default: use color only if stdout is a TTY
	return IsTerminal()
}
