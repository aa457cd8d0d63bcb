package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/anigrab/anigrab/color"
	"github.com/anigrab/anigrab/config"
	"github.com/anigrab/anigrab/constant"
	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/icon"
	"github.com/anigrab/anigrab/key"
	"github.com/anigrab/anigrab/provider"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/style"
	"github.com/anigrab/anigrab/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func configPath() string {
	return filepath.Join(where.Config(), constant.App+".toml")
}

// writeConfig saves viper's state, creating the file on first use.
func writeConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

// lookupField returns the field for k or an error suggesting the nearest known key.
func lookupField(k string) (config.Field, error) {
	if field, ok := config.Default[k]; ok {
		return field, nil
	}

	closest := lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})
	return config.Field{}, fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(k),
		style.Fg(color.Yellow)(closest),
	)
}

// keyArg takes the key from the first argument, falling back to --key.
func keyArg(cmd *cobra.Command, args []string) (config.Field, error) {
	k := lo.Must(cmd.Flags().GetString("key"))
	if len(args) > 0 {
		k = args[0]
	}
	if k == "" {
		return config.Field{}, errors.New("key is required as an argument or --key flag")
	}
	return lookupField(k)
}

// parseValue converts command line words to the type of the field's default.
func parseValue(field config.Field, words []string) (any, error) {
	switch field.Value.(type) {
	case string:
		return words[0], nil
	case int:
		n, err := strconv.Atoi(words[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", words[0])
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(words[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", words[0])
		}
		return b, nil
	case []string:
		if field.Key != key.HarvestQualities {
			return words, nil
		}
		return lo.FlatMap(words, func(w string, _ int) []string {
			return lo.Compact(lo.Map(strings.Split(w, ","), func(s string, _ int) string { return strings.TrimSpace(s) }))
		}), nil
	default:
		return nil, fmt.Errorf("unsupported type of %s", field.Key)
	}
}

// validateValue rejects values the harvest cannot run with.
func validateValue(k string, v any) error {
	switch k {
	case key.HarvestTabs:
		if n, _ := v.(int); n < 1 {
			return fmt.Errorf("%s must be at least 1", k)
		}
	case key.BrowserTimeout:
		if n, _ := v.(int); n < 0 {
			return fmt.Errorf("%s must not be negative", k)
		}
	case key.HarvestQualities:
		if _, invalid := quality.NormalizeAll(v.([]string)); len(invalid) > 0 {
			return fmt.Errorf("invalid quality tiers: %s", strings.Join(invalid, ", "))
		}
	case key.HarvestSite:
		_, err := provider.Get(v.(string))
		return err
	}
	return nil
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func printDone(cmd *cobra.Command, format string, args ...any) {
	cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, args...))
}

func showKey(k string) string { return style.Fg(color.Purple)(k) }
func showValue(v any) string  { return style.Fg(color.Yellow)(fmt.Sprint(v)) }

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings, their defaults and current values",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		fields := lo.Values(config.Default)

		if len(keys) > 0 {
			fields = lo.Map(keys, func(k string, _ int) config.Field {
				field, err := lookupField(k)
				handleErr(err)
				return field
			})
		}

		sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		cmd.Println(strings.Join(lo.Map(fields, func(f config.Field, _ int) string { return f.Pretty() }), "\n\n"))
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value...]",
	Short:             "Change a setting and save it to the config file",
	Example:           "  anigrab config set harvest.qualities 1080p,720p\n  anigrab config set harvest.tabs 3",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := keyArg(cmd, args)
		handleErr(err)

		words := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) > 1 {
			words = args[1:]
		}
		if len(words) == 0 {
			handleErr(errors.New("value is required as an argument or --value flag"))
		}

		v, err := parseValue(field, words)
		handleErr(err)
		handleErr(validateValue(field.Key, v))

		viper.Set(field.Key, v)
		handleErr(writeConfig())
		printDone(cmd, "set %s to %s", showKey(field.Key), showValue(v))
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a setting",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field, err := keyArg(cmd, args)
		handleErr(err)
		cmd.Println(viper.Get(field.Key))
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current settings to " + constant.App + ".toml",
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath()
		if lo.Must(cmd.Flags().GetBool("force")) {
			handleErr(filesystem.API().Remove(path))
		}

		handleErr(viper.SafeWriteConfig())
		printDone(cmd, "wrote config to %s", path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete the config file",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configPath()))
		printDone(cmd, "deleted config")
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore a setting, or all of them, to the default",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for k, field := range config.Default {
				viper.Set(k, field.Value)
			}
			handleErr(writeConfig())
			printDone(cmd, "reset all config values")
			return
		}

		field, err := keyArg(cmd, args)
		handleErr(err)

		viper.Set(field.Key, field.Value)
		handleErr(writeConfig())
		printDone(cmd, "reset %s to default value %s", showKey(field.Key), showValue(field.Value))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configSetCmd, configGetCmd, configWriteCmd, configDeleteCmd, configResetCmd)

	configInfoCmd.Flags().StringSliceP("key", "k", nil, "only describe these keys")
	configInfoCmd.Flags().BoolP("json", "j", false, "print as json")

	configSetCmd.Flags().StringP("key", "k", "", "key to set")
	configSetCmd.Flags().StringSliceP("value", "v", nil, "value to set")

	configGetCmd.Flags().StringP("key", "k", "", "key to print")

	configWriteCmd.Flags().BoolP("force", "f", false, "overwrite an existing config file")

	configResetCmd.Flags().StringP("key", "k", "", "key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")

	for _, c := range []*cobra.Command{configInfoCmd, configSetCmd, configGetCmd, configResetCmd} {
		_ = c.RegisterFlagCompletionFunc("key", completionConfigKeys)
	}
}
