package cmd

import (
	"os"

	"github.com/anigrab/anigrab/color"
	"github.com/anigrab/anigrab/key"
	"github.com/anigrab/anigrab/provider"
	"github.com/anigrab/anigrab/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(sitesCmd)

	sitesCmd.Flags().BoolP("raw", "r", false, "Only print provider IDs")
	sitesCmd.SetOut(os.Stdout)
}

// sitesCmd lists the built-in site providers.
var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Display the available site providers",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, id := range provider.IDs() {
				cmd.Println(id)
			}
			return
		}

		current := viper.GetString(key.HarvestSite)
		for _, p := range provider.Builtins() {
			marker := lo.Ternary(p.ID == current, style.Fg(color.Green)(" (default)"), "")
			cmd.Printf("%s %s%s\n", style.New().Bold(true).Foreground(color.HiBlue).Render(p.ID), style.Faint(p.Host), marker)
		}
	},
}
