package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/presentation"
)

var (
	listKind      string
	listLabels    []string
	listFormat    string
	listManifests []string
)

var registryListCmd = &cobra.Command{
	Use:   "registry:list",
	Short: "List all discovered component declarations",
	Long: `List every module and submodule declaration found in the built-in
catalog and the configured manifests, in construction order.

Use --kind to show only modules or submodules.
Use --label to filter by labels (repeatable, AND logic).

Examples:
  # List all declarations as JSON
  modkit registry:list

  # Only submodules, as a table
  modkit registry:list --kind submodule --format table

  # YAML, in the same shape as a manifest listing
  modkit registry:list -f yaml

  # Filter by multiple labels (AND logic - must match ALL)
  modkit registry:list -l core -l gameplay

  # Include an extra manifest
  modkit registry:list -m ./modules/audio.hcl

  # Parse specific fields with jq
  modkit registry:list | jq '.[].type'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(listKind)
		if err != nil {
			return err
		}
		var enc presentation.Encoding
		if listFormat != "table" {
			if enc, err = presentation.ParseEncoding(listFormat); err != nil {
				return fmt.Errorf("unknown format %q (want json, yaml or table)", listFormat)
			}
		}

		sources, errs := openSources(cfg, newLoader(cfg), manifestPaths(cfg, listManifests))
		plan, scanErrs := discoverPlan(cmd.Context(), sources)
		for _, err := range append(errs, scanErrs...) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		}

		dtos := presentation.FromDescriptors(filterDescriptors(plan.All(), kind, listLabels))
		if listFormat == "table" {
			return presentation.RenderDescriptorTable(cmd.OutOrStdout(), dtos)
		}
		return presentation.NewFormatterFor(cmd.OutOrStdout(), enc).FormatDescriptors(dtos)
	},
}

func init() {
	registryListCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Filter by kind (module or submodule)")
	registryListCmd.Flags().StringArrayVarP(&listLabels, "label", "l", nil, "Filter by label (can be repeated, e.g., --label core)")
	registryListCmd.Flags().StringVarP(&listFormat, "format", "f", "json", "Output format: json, yaml or table")
	registryListCmd.Flags().StringArrayVarP(&listManifests, "manifest", "m", nil, "Additional manifest to scan (can be repeated)")
	rootCmd.AddCommand(registryListCmd)
}

func parseKind(s string) (component.Kind, error) {
	switch k := component.Kind(s); k {
	case "", component.KindModule, component.KindSubmodule:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want module or submodule)", s)
	}
}

// filterDescriptors keeps descriptors of kind (any when empty) carrying all labels.
func filterDescriptors(descs []component.Descriptor, kind component.Kind, labels []string) []component.Descriptor {
	result := make([]component.Descriptor, 0, len(descs))
	for _, d := range descs {
		if kind != "" && d.Kind() != kind {
			continue
		}
		if !d.HasLabels(labels...) {
			continue
		}
		result = append(result, d)
	}
	return result
}
