// Package style provides a functional API for composing and applying lipgloss-based terminal styles.
package style

import "github.com/charmbracelet/lipgloss"

// Harvest reporter palette, one colour per stage of a run.
var (
	Text = lipgloss.Color("#cdd6f4")

	Start    = lipgloss.Color("#FF8A65")
	Stage    = lipgloss.Color("#80D8FF")
	Progress = lipgloss.Color("#B9F6CA")
	Done     = lipgloss.Color("#69F0AE")
	Good     = lipgloss.Color("#00C853")
	Handoff  = lipgloss.Color("#00E676")
	Bad      = lipgloss.Color("#DD2C00")

	AccentColor = lipgloss.Color("#cba6f7")
	HiRed       = lipgloss.Color("#f38ba8")
)
