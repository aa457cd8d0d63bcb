// Package cmd implements the command-line interface for anigrab.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/anigrab/anigrab/checkpoint"
	"github.com/anigrab/anigrab/color"
	"github.com/anigrab/anigrab/constant"
	"github.com/anigrab/anigrab/downloader"
	"github.com/anigrab/anigrab/grab"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/icon"
	"github.com/anigrab/anigrab/key"
	"github.com/anigrab/anigrab/log"
	"github.com/anigrab/anigrab/provider"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/queue"
	"github.com/anigrab/anigrab/session"
	"github.com/anigrab/anigrab/style"
	"github.com/anigrab/anigrab/util"
	"github.com/anigrab/anigrab/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().IntP("tabs", "t", 0, "Maximum number of browser tabs open at the same time")
	lo.Must0(viper.BindPFlag(key.HarvestTabs, rootCmd.Flags().Lookup("tabs")))

	rootCmd.Flags().StringSliceP("quality", "q", []string{}, "Accepted quality tiers, e.g. 1080,720,HD")
	lo.Must0(viper.BindPFlag(key.HarvestQualities, rootCmd.Flags().Lookup("quality")))

	rootCmd.Flags().StringP("site", "s", "", "Site provider, detected from the URL when not set")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("site", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return provider.IDs(), cobra.ShellCompDirectiveNoFileComp
	}))

	rootCmd.Flags().BoolP("fresh", "f", false, "Ignore the saved checkpoint and harvest every episode")
	rootCmd.Flags().BoolP("no-download", "n", false, "Do not start the download manager after a complete harvest")

	rootCmd.Flags().Bool("headless", true, "Run the browser without a visible window")
	lo.Must0(viper.BindPFlag(key.BrowserHeadless, rootCmd.Flags().Lookup("headless")))
}

// rootCmd harvests the download links of one series.
var rootCmd = &cobra.Command{
	Use:   constant.App + " [series url]",
	Short: "Harvest episode download links of a series",
	Long: style.Title(constant.App) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Harvest episode download links and resume where the last run failed"),
	Args: cobra.MaximumNArgs(1),
	Example: strings.Join([]string{
		"  " + constant.App + " https://animekisa.tv/mushishi",
		"  " + constant.App + " -t 3 -q 720,480 https://animekisa.tv/mushishi",
	}, "\n"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		url := ""
		if len(args) == 1 {
			url = args[0]
		} else {
			handleErr(survey.AskOne(&survey.Input{
				Message: "Series URL:",
				Help:    "Address of the series landing page, e.g. https://animekisa.tv/mushishi",
			}, &url, survey.WithValidator(survey.Required)))
		}
		url = strings.TrimSpace(url)

		site, err := resolveSite(lo.Must(cmd.Flags().GetString("site")), url)
		handleErr(err)

		qualities, invalid := quality.NormalizeAll(viper.GetStringSlice(key.HarvestQualities))
		if len(invalid) > 0 {
			handleErr(fmt.Errorf("invalid quality tiers: %s", strings.Join(invalid, ", ")))
		}

		trigger := &downloader.Command{
			Argv:   viper.GetStringSlice(key.DownloaderCommand),
			Dir:    where.Data(),
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		}
		download := viper.GetBool(key.DownloaderAuto) && !lo.Must(cmd.Flags().GetBool("no-download"))
		if download {
			CheckDownloader(trigger)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := grab.Options{
			URL:       url,
			Tabs:      viper.GetInt(key.HarvestTabs),
			Qualities: qualities,
			Fresh:     lo.Must(cmd.Flags().GetBool("fresh")) || !viper.GetBool(key.HarvestResume),
			Download:  download && len(trigger.Argv) > 0,
		}

		index := provider.DefaultCached(site)
		if opts.Fresh {
			// new episodes may have aired since the listing was cached
			handleErr(index.Forget(url))
		}

		deps := grab.Deps{
			Launch:   launchBrowser,
			Site:     site,
			Index:    index,
			Store:    checkpoint.Default(),
			Queue:    queue.Default(),
			Trigger:  trigger,
			Reporter: harvest.NewTerminal(os.Stdout),
		}

		fmt.Println(style.Fg(style.Start)("Starting..."))
		result, err := grab.Run(ctx, opts, deps)
		if result != nil {
			printResult(result)
		}
		handleErr(err)
	},
}

func resolveSite(name, url string) (provider.Site, error) {
	if name == "" {
		if p, ok := provider.ForURL(url); ok {
			return p.New(), nil
		}
		name = viper.GetString(key.HarvestSite)
	}

	p, err := provider.Get(name)
	if err != nil {
		return nil, err
	}
	return p.New(), nil
}

func launchBrowser(ctx context.Context) (session.Browser, error) {
	return session.Launch(ctx, session.Options{
		Headless:  viper.GetBool(key.BrowserHeadless),
		Bin:       viper.GetString(key.BrowserBin),
		Timeout:   time.Duration(viper.GetInt(key.BrowserTimeout)) * time.Second,
		UserAgent: constant.UserAgent,
	})
}

func printResult(r *grab.Result) {
	switch {
	case r.Skipped:
		fmt.Printf(
			"%s %s already has every link, use %s to harvest again\n",
			icon.Get(icon.Success),
			style.Fg(style.Done)(r.Series.Name),
			style.Fg(color.Yellow)("--fresh"),
		)
		return
	case r.Checkpoint == nil:
		return
	}

	fmt.Printf("%s Links written to %s\n", icon.Get(icon.Link), style.Fg(style.Stage)(r.Path))

	failed := r.Checkpoint.Failed()
	if len(failed) > 0 {
		fmt.Printf(
			"%s %s without link, run again to retry them\n",
			icon.Get(icon.Warn),
			style.Fg(style.Bad)(util.Quantify(len(failed), "episode", "episodes")),
		)
		return
	}

	if entry, ok := r.Queued.Get(); ok {
		fmt.Printf("%s %s queued for download\n", icon.Get(icon.Queue), style.Fg(style.Handoff)(entry.Name))
	}
	if r.Triggered {
		fmt.Printf("%s %s\n", icon.Get(icon.Success), style.Fg(style.Handoff)("Download manager finished"))
	}
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err == nil {
		return
	}

	log.Error(err)
	msg := strings.Trim(err.Error(), " \n")
	if errors.Is(err, session.ErrLaunch) {
		msg += "\n" + style.Faint("set "+key.BrowserBin+" to a local Chromium if the managed one cannot be downloaded")
	}
	if errors.Is(err, session.ErrBackend) {
		msg += "\n" + style.Faint("the browser went away mid-run; the saved checkpoint was left as it was")
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), msg)
	os.Exit(1)
}
