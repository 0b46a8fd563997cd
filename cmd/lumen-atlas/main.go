package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/lumen-atlas/pkg/analysis"
	"github.com/ritzau/lumen-atlas/pkg/atlas"
	"github.com/ritzau/lumen-atlas/pkg/config"
	"github.com/ritzau/lumen-atlas/pkg/logging"
	"github.com/ritzau/lumen-atlas/pkg/metrics"
	"github.com/ritzau/lumen-atlas/pkg/output"
	"github.com/ritzau/lumen-atlas/pkg/pubsub"
	"github.com/ritzau/lumen-atlas/pkg/snapshot"
	"github.com/ritzau/lumen-atlas/pkg/watcher"
	"github.com/ritzau/lumen-atlas/pkg/web"
)

const (
	quietPeriod = 200 * time.Millisecond
	maxWait     = 2 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("lumen-atlas", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(os.Stderr, level, cfg.JSONLogs)

	if err := run(cfg); err != nil {
		logging.Fatal("lumen-atlas failed", "error", err)
	}
}

func run(cfg *config.Config) error {
	exportOpts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}

	g, err := loadSnapshot(cfg.Snapshot)
	if err != nil {
		return err
	}
	logging.Info("loaded atlas", "path", cfg.Snapshot, "nodes", g.Len(), "edgeSets", g.EdgeSetNames())

	if cfg.Out != "" {
		if err := export(cfg.Out, g, exportOpts); err != nil {
			return err
		}
	}

	if !cfg.WebMode {
		output.PrintSummary(os.Stdout, output.Summarize(cfg.Snapshot, g))
		return nil
	}
	return serve(cfg, g, exportOpts)
}

func loadSnapshot(path string) (*atlas.Graph, error) {
	g, err := snapshot.Load(path)
	if err != nil {
		metrics.SnapshotLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SnapshotLoads.WithLabelValues("ok").Inc()
	return g, nil
}

func export(path string, g *atlas.Graph, opts atlas.ExportOptions) error {
	if opts.Source == atlas.ExportAuthored {
		if drift := analysis.Drift(g); len(drift) > 0 {
			logging.Warn("authored export drops adjacency-only edges", "count", len(drift), "path", path)
		}
	}
	if err := snapshot.Save(path, g, opts); err != nil {
		return err
	}
	logging.Info("exported atlas", "path", path, "source", string(opts.Source))
	return nil
}

func serve(cfg *config.Config, g *atlas.Graph, exportOpts atlas.ExportOptions) error {
	missing, err := cfg.MissingPolicy()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(atlas.NewGuarded(nil),
		web.WithExportOptions(exportOpts),
		web.WithMissingPolicy(missing),
	)
	server.SetGraph(g, "loaded", cfg.Snapshot)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Start(ctx, cfg.Port)
	})
	if cfg.Watch {
		group.Go(func() error {
			return watchSnapshot(ctx, server, cfg.Snapshot)
		})
	}
	return group.Wait()
}

// watchSnapshot reloads the snapshot after each debounced change until ctx
// is done. A snapshot that fails to load leaves the served atlas untouched.
func watchSnapshot(ctx context.Context, server *web.Server, path string) error {
	fw, err := watcher.NewFileWatcher(path)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		change := watcher.AnalyzeChanges(event)
		logging.Debug("snapshot changed", "type", event.Type.String(), "reason", change.Reason)

		if change.Action == watcher.ActionKeep {
			logging.Warn("keeping current atlas", "path", path, "reason", change.Reason)
			continue
		}

		g, err := loadSnapshot(path)
		if err != nil {
			logging.Error("reload failed, keeping current atlas", "path", path, "error", err)
			status := pubsub.AtlasStatus{State: "reload_failed", Path: path, Message: err.Error()}
			if err := server.PublishStatus(status); err != nil {
				logging.Warn("failed to publish atlas status", "error", err)
			}
			continue
		}

		server.SetGraph(g, "reloaded", path)
		logging.Info("reloaded atlas", "path", path, "nodes", g.Len())
	}
	return nil
}
