package cmd

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modkit/internal/application/manifest"
	"github.com/zjrosen/modkit/internal/config"
	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/flags"
	"github.com/zjrosen/modkit/internal/hosttree"
	"github.com/zjrosen/modkit/internal/lifecycle"
	"github.com/zjrosen/modkit/internal/locator"
	"github.com/zjrosen/modkit/internal/sample"
)

// newLoader creates the manifest loader for c.
func newLoader(c config.Config) *manifest.Loader {
	return manifest.NewLoader(manifest.LoaderOptions{
		TTL:       c.Cache.TTL,
		SkipCache: c.Cache.Disabled,
	})
}

// manifestPaths joins the configured manifests with extra ones, dropping repeats.
func manifestPaths(c config.Config, extra []string) []string {
	var paths []string
	for _, p := range append(slices.Clone(c.Manifests), extra...) {
		if !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// openSources returns the built-in source (when enabled) followed by one
// source per manifest. Unreadable manifests are returned as errors.
func openSources(c config.Config, loader *manifest.Loader, paths []string) ([]component.Source, []error) {
	var sources []component.Source
	if c.Builtin {
		sources = append(sources, sample.Source())
	}
	opened, errs := loader.OpenAll(paths...)
	return append(sources, opened...), errs
}

// discoverPlan runs one discovery pass over sources with a fresh registry.
func discoverPlan(ctx context.Context, sources []component.Source) (*component.Plan, []error) {
	return component.NewRegistry().Discover(ctx, sources...)
}

// runner is a coordinator wired with the sample catalog and a host tree.
type runner struct {
	coordinator *lifecycle.Coordinator
	root        *hosttree.Node
	flags       *flags.Registry
}

func newRunner(c config.Config, tracer trace.Tracer) (*runner, error) {
	root := hosttree.NewRoot(c.Root)
	loc := locator.New()
	fl := flags.New(c.Flags)
	coord, err := lifecycle.New(lifecycle.Config{
		Factory:  sample.Catalog(),
		Locator:  loc,
		Root:     root,
		Injector: sample.Injector(loc),
		Tracer:   tracer,
		Flags:    fl,
	})
	if err != nil {
		return nil, err
	}
	return &runner{coordinator: coord, root: root, flags: fl}, nil
}
