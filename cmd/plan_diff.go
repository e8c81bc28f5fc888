package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modkit/internal/application/manifest"
	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/presentation"
)

var diffBuiltin bool

var planDiffCmd = &cobra.Command{
	Use:   "plan:diff <old-manifest> <new-manifest>",
	Short: "Compare the construction plans of two manifests",
	Long: `Render the construction plan of each manifest and print a line diff.

Lines starting with "-" are only in the old plan, lines with "+" only in the
new one. Exits with an error when either manifest cannot be parsed.

Examples:
  modkit plan:diff modules/game.yaml modules/game.next.yaml
  modkit plan:diff --builtin old.hcl new.hcl`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := newLoader(cfg)
		oldText, err := planTextOf(cmd, loader, args[0])
		if err != nil {
			return err
		}
		newText, err := planTextOf(cmd, loader, args[1])
		if err != nil {
			return err
		}

		lines := presentation.DiffLines(oldText, newText)
		if !presentation.Changed(lines) {
			fmt.Fprintln(cmd.OutOrStdout(), "plans are identical")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), presentation.RenderDiff(lines))
		return nil
	},
}

func init() {
	planDiffCmd.Flags().BoolVar(&diffBuiltin, "builtin", false, "Include the built-in components in both plans")
	rootCmd.AddCommand(planDiffCmd)
}

// planTextOf renders the plan discovered from one manifest.
func planTextOf(cmd *cobra.Command, loader *manifest.Loader, path string) (string, error) {
	src, err := loader.Open(path)
	if err != nil {
		return "", err
	}
	sources := []component.Source{src}
	if diffBuiltin {
		sources, _ = openSources(cfg, loader, nil)
		sources = append(sources, src)
	}
	plan, errs := discoverPlan(cmd.Context(), sources)
	if len(errs) > 0 {
		return "", fmt.Errorf("%s: %w", path, errs[0])
	}
	return presentation.PlanText(presentation.FromPlan(plan)), nil
}
