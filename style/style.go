// Package style wraps lipgloss into small render functions.
package style

import (
	"github.com/anigrab/anigrab/color"
	"github.com/charmbracelet/lipgloss"
)

// New returns a blank style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored returns a style with both colours set. An empty colour leaves that side unset.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a renderer painting text in c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return Colored(c, "").Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a padded banner, as used above the harvest summary.
func Title(s string) string {
	return Colored(color.New("230"), color.New("62")).Padding(0, 1).Render(s)
}
