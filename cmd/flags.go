package cmd

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/muesli/reflow/padding"
	"github.com/spf13/cobra"

	"github.com/zjrosen/modkit/internal/config"
	"github.com/zjrosen/modkit/internal/flags"
	"github.com/zjrosen/modkit/internal/ui/styles"
)

var flagsCmd = &cobra.Command{
	Use:   "flags [name=true|false]...",
	Short: "Show or set feature flags",
	Long: `Without arguments, list every feature flag with its resolved value.
With name=value arguments, set those flags in the config file in use.

Examples:
  modkit flags
  modkit flags strict-hosting=true`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printFlags(cmd, flags.New(cfg.Flags))
		}

		updated := maps.Clone(cfg.Flags)
		if updated == nil {
			updated = make(map[string]bool)
		}
		for _, arg := range args {
			name, on, err := parseFlagArg(arg)
			if err != nil {
				return err
			}
			updated[name] = on
		}
		if err := config.SaveFlags(configPath(), updated); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		cfg.Flags = updated
		return printFlags(cmd, flags.New(updated))
	},
}

func init() {
	rootCmd.AddCommand(flagsCmd)
}

// parseFlagArg splits name=value and rejects names outside flags.Known.
func parseFlagArg(arg string) (string, bool, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", false, fmt.Errorf("expected name=true|false, got %q", arg)
	}
	if !flags.IsKnown(name) {
		return "", false, fmt.Errorf("unknown flag %q", name)
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		return "", false, fmt.Errorf("flag %s: %w", name, err)
	}
	return name, on, nil
}

// printFlags writes one "name  value  help" row per known flag, then the
// unknown configured names.
func printFlags(cmd *cobra.Command, reg *flags.Registry) error {
	unknown := reg.Unknown()
	width := 0
	for _, d := range flags.Known {
		width = max(width, len(d.Name))
	}
	for _, name := range unknown {
		width = max(width, len(name))
	}

	out := cmd.OutOrStdout()
	for _, d := range flags.Known {
		value := strconv.FormatBool(reg.Enabled(d.Name))
		if _, err := fmt.Fprintf(out, "%s  %s  %s\n", padding.String(d.Name, uint(width)), padding.String(value, 5), d.Help); err != nil {
			return err
		}
	}
	for _, name := range unknown {
		if _, err := fmt.Fprintf(out, "%s  %s  %s\n", padding.String(name, uint(width)), padding.String("-", 5), styles.MutedStyle.Render("unknown, ignored")); err != nil {
			return err
		}
	}
	return nil
}
