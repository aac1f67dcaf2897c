// Package display renders the adhan calendar for a terminal: ANSI styling
// helpers and an aligned table with day headings and separators.
//
// Colors follow NO_COLOR (https://no-color.org/) and FORCE_COLOR, and are off
// when stdout is not a terminal.
package display

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// ANSI escape codes for styling.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	fgGray  = "\033[90m"
)

// enabled reports whether color output is active. Set once at init.
var enabled bool

func init() {
	enabled = shouldEnable()
}

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetEnabled overrides the detected color state (tests, --json).
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

func Bold(text string) string    { return wrap(bold, text) }
func Dim(text string) string     { return wrap(dim, text) }
func Red(text string) string     { return wrap(red, text) }
func Green(text string) string   { return wrap(green, text) }
func Yellow(text string) string  { return wrap(yellow, text) }
func Magenta(text string) string { return wrap(magenta, text) }
func Cyan(text string) string    { return wrap(cyan, text) }
func Gray(text string) string    { return wrap(fgGray, text) }

// Accent marks the next adhan (bold cyan).
func Accent(text string) string {
	if !enabled {
		return text
	}
	return bold + cyan + text + reset
}

// Heading is used for the weekday line above each day (bold magenta).
func Heading(text string) string {
	if !enabled {
		return text
	}
	return bold + magenta + text + reset
}

// Errorf formats an error line in red.
func Errorf(format string, a ...interface{}) string {
	return Red(fmt.Sprintf(format, a...))
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...interface{}) string {
	return Bold(fmt.Sprintf(format, a...))
}
