package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/anigrab/anigrab/constant"
	"github.com/anigrab/anigrab/downloader"
	"github.com/anigrab/anigrab/icon"
	"github.com/anigrab/anigrab/key"
	"github.com/anigrab/anigrab/style"
	"github.com/charmbracelet/lipgloss"
)

// CheckDownloader verifies that the configured download manager can be started.
// An empty command only disables the hand-off; a command that cannot be found aborts.
func CheckDownloader(c *downloader.Command) {
	if len(c.Argv) == 0 {
		return
	}

	if err := c.Available(); err != nil {
		printMissingDependencyError(c.Argv[0])
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install " + dep
	case constant.Linux:
		installCmd = "sudo apt install " + dep
	case constant.Windows:
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Downloader", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The download manager '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}
	suggestion += fmt.Sprintf(
		"\n\nSet another command with:\n  %s\nor skip the hand-off with %s",
		style.New().Foreground(style.AccentColor).Bold(true).Render("anigrab config set "+key.DownloaderCommand+" <program> <args...>"),
		style.New().Foreground(style.AccentColor).Bold(true).Render("--no-download"),
	)

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
