package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/modkit/internal/application/manifest"
	"github.com/zjrosen/modkit/internal/hosttree"
	"github.com/zjrosen/modkit/internal/lifecycle"
	"github.com/zjrosen/modkit/internal/log"
	"github.com/zjrosen/modkit/internal/presentation"
	"github.com/zjrosen/modkit/internal/tracing"
	"github.com/zjrosen/modkit/internal/ui/inspector"
	"github.com/zjrosen/modkit/internal/watcher"
)

var (
	runManifests []string
	runWatch     bool
	runInspect   bool
	runJSON      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start every discovered component and run until interrupted",
	Long: `Discover components from the built-in catalog and manifests, construct,
attach and initialize them, then wait for Ctrl+C and shut everything down.

With --watch, edited manifests are scanned again while running and only
components new to the coordinator are started. With --inspect, a live view
of the host tree and lifecycle events replaces the plain output.

Examples:
  modkit run
  modkit run -m modules/audio.hcl --watch
  modkit run --inspect`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runManifests, "manifest", "m", nil, "Additional manifest to scan (can be repeated)")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Rescan manifests when they change (overrides watch.enabled)")
	runCmd.Flags().BoolVarP(&runInspect, "inspect", "i", false, "Open the live inspector")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print reports as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	provider, err := tracing.NewProvider(cfg.Tracing, tracing.WithServiceVersion(version))
	if err != nil {
		return fmt.Errorf("creating tracing provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatTrace, "Tracing shutdown failed", err)
		}
	}()

	loader := newLoader(cfg)
	paths := manifestPaths(cfg, runManifests)

	// The watcher must be running before the runner claims the canonical slot.
	var changes <-chan watcher.Change
	if (runWatch || cfg.Watch.Enabled) && len(paths) > 0 {
		w, err := watcher.New(watcher.Config{Paths: paths, Debounce: cfg.Watch.Debounce})
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer func() { _ = w.Stop() }()
		if changes, err = w.Start(); err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
	}

	r, err := newRunner(cfg, provider.Tracer())
	if err != nil {
		return err
	}
	for _, name := range r.flags.Unknown() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: unknown flag", name)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sources, errs := openSources(cfg, loader, paths)
	for _, err := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
	}
	report, err := r.coordinator.Start(ctx, sources...)
	if err != nil {
		// Shutdown of a coordinator that never left Empty only releases its claim.
		_, _ = r.coordinator.Shutdown(context.WithoutCancel(ctx))
		return err
	}

	if runInspect {
		err = inspect(ctx, r, loader, paths, changes)
	} else {
		printReport(out, "start", report)
		printTree(out, r)
		if !runJSON {
			fmt.Fprintln(out, "Press Ctrl+C to stop")
		}
		err = wait(ctx, out, r, loader, paths, changes)
	}

	report, shutdownErr := r.coordinator.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	if !runInspect {
		printReport(out, "shutdown", report)
	}
	return err
}

// wait blocks until ctx is done, rescanning whenever the watcher fires.
func wait(ctx context.Context, out io.Writer, r *runner, loader *manifest.Loader, paths []string, changes <-chan watcher.Change) error {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nShutting down...")
			return nil
		case change := <-changes:
			if !runJSON {
				for _, p := range change.Paths {
					fmt.Fprintln(out, "changed:", p)
				}
			}
			report, err := rescan(ctx, r, loader, paths)
			if err != nil {
				return err
			}
			printReport(out, "rescan", report)
			printTree(out, r)
		}
	}
}

// rescan reopens every manifest and runs an additive pass. Unchanged
// manifests keep their source ID and are skipped by the registry.
func rescan(ctx context.Context, r *runner, loader *manifest.Loader, paths []string) (*lifecycle.Report, error) {
	sources, errs := loader.OpenAll(paths...)
	for _, err := range errs {
		log.ErrorErr(log.CatWatcher, "Manifest reopen failed", err)
	}
	log.Info(log.CatWatcher, "Manifests changed, rescanning", "sources", len(sources))
	return r.coordinator.Rescan(ctx, sources...)
}

// inspect runs the inspector until the user quits or ctx is done. Rescans run
// on a separate goroutine that is joined before returning, so the caller owns
// the coordinator again for Shutdown.
func inspect(ctx context.Context, r *runner, loader *manifest.Loader, paths []string, changes <-chan watcher.Change) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(inspector.New(ctx, r.coordinator, r.root), tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case change := <-changes:
				log.Debug(log.CatWatcher, "Rescan requested", "changed", change.Paths)
				if _, err := rescan(ctx, r, loader, paths); err != nil {
					log.ErrorErr(log.CatWatcher, "Rescan failed", err)
				}
			}
		}
	}()

	_, err := p.Run()
	interrupted := ctx.Err() != nil
	cancel()
	<-done
	if err != nil && !interrupted {
		return fmt.Errorf("running inspector: %w", err)
	}
	return nil
}

// printTree writes the host tree, or the instance list in --json mode.
func printTree(w io.Writer, r *runner) {
	if runJSON {
		_ = presentation.NewFormatter(w).FormatInstances(presentation.FromStore(r.coordinator.Store()))
		return
	}
	_ = hosttree.Write(w, r.root)
}

func printReport(w io.Writer, phase string, report *lifecycle.Report) {
	if runJSON {
		_ = presentation.NewFormatter(w).FormatReport(presentation.FromReport(report))
		return
	}
	fmt.Fprintf(w, "%s: %d constructed, %d initialized, %d cleaned up, %d failures, %d warnings\n",
		phase, len(report.Constructed), len(report.Initialized), len(report.CleanedUp),
		len(report.Failures), len(report.Warnings))
	for _, err := range report.Failures {
		fmt.Fprintln(w, "  failure:", err)
	}
	for _, err := range report.Warnings {
		fmt.Fprintln(w, "  warning:", err)
	}
}
