// Package color names the ANSI colours used for terminal output.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps a raw ANSI code or hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Base ANSI colours, available on every terminal.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

// Bright variants, used for headers.
var (
	HiRed    = New("9")
	HiBlue   = New("12")
	HiPurple = New("13")
)
