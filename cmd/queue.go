package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/anigrab/anigrab/checkpoint"
	"github.com/anigrab/anigrab/color"
	"github.com/anigrab/anigrab/icon"
	"github.com/anigrab/anigrab/queue"
	"github.com/anigrab/anigrab/style"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(queueCmd)
}

// queueCmd is the parent command for the pending-downloads queue.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and edit the pending-downloads queue",
}

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueListCmd.Flags().BoolP("pending", "p", false, "Only show series that are not downloaded yet")
	queueListCmd.SetOut(os.Stdout)
}

// queueListCmd renders the queue as a table.
var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued series",
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := queue.Default().List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("pending")) {
			entries = lo.Reject(entries, func(e queue.Entry, _ int) bool { return e.Downloaded })
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("queue is empty"))
			return
		}

		cmd.Println(renderQueue(entries))
	},
}

func renderQueue(entries []queue.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Series", "Downloaded", "Queued"})

	for i, e := range entries {
		tw.AppendRow(table.Row{
			i + 1,
			e.Name,
			lo.Ternary(e.Downloaded, "yes", "no"),
			e.Time().Format(time.DateTime),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignCenter},
	})
	return tw.Render()
}

func init() {
	queueCmd.AddCommand(queueRemoveCmd)
}

// queueRemoveCmd drops series from the queue.
var queueRemoveCmd = &cobra.Command{
	Use:     "remove [series...]",
	Short:   "Remove series from the queue",
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		entries, err := queue.Default().List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return lo.Map(entries, func(e queue.Entry, _ int) string { return e.Name }), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		q := queue.Default()
		for _, name := range args {
			// accept the series title as well as its queued file name
			removed, err := q.Remove(checkpoint.Default().Key(name))
			handleErr(err)

			if removed {
				fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(name))
			} else {
				fmt.Printf("%s %s is not queued\n", icon.Get(icon.Warn), style.Fg(color.Yellow)(name))
			}
		}
	},
}

func init() {
	queueCmd.AddCommand(queueClearCmd)
}

// queueClearCmd empties the queue.
var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every series from the queue",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(queue.Default().Clear())
		fmt.Printf("%s queue cleared\n", icon.Get(icon.Success))
	},
}
