package cmd

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modkit/internal/application/manifest"
	"github.com/zjrosen/modkit/internal/config"
)

var manifestAddCmd = &cobra.Command{
	Use:   "manifest:add <path>...",
	Short: "Add manifests to the config file",
	Long: `Validate each manifest and append it to the manifests list in the
config file in use. Manifests already listed are skipped.

Example:
  modkit manifest:add modules/audio.hcl`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := newLoader(cfg)
		manifests := slices.Clone(cfg.Manifests)
		for _, p := range args {
			p = filepath.Clean(p)
			if slices.Contains(manifests, p) {
				fmt.Fprintln(cmd.OutOrStdout(), "already listed:", p)
				continue
			}
			if err := checkManifest(cmd, loader, p); err != nil {
				return err
			}
			manifests = append(manifests, p)
			fmt.Fprintln(cmd.OutOrStdout(), "added:", p)
		}

		if err := config.SaveManifests(configPath(), manifests); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		cfg.Manifests = manifests
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestAddCmd)
}

// checkManifest opens and fully parses the manifest at path.
func checkManifest(cmd *cobra.Command, loader *manifest.Loader, path string) error {
	src, err := loader.Open(path)
	if err != nil {
		return err
	}
	if _, err := src.Modules(cmd.Context()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
