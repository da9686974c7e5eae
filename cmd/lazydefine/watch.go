package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/lazydefine/internal/inspect"
	"github.com/vango-dev/lazydefine/internal/watch"
	"github.com/vango-dev/lazydefine/pkg/lazydef"
)

func watchCmd() *cobra.Command {
	var inspectAddr string

	cmd := &cobra.Command{
		Use:   "watch <file.html>",
		Short: "Keep a live document in sync with a file and define elements as they appear",
		Long: `Load an HTML document, define the custom elements it contains and keep
watching the file. Each save is diffed against the previous version and
applied as ordinary insertions, removals and attribute changes, so new
elements are defined the moment they are added.

With --inspect (or inspect.addr in the configuration) an HTTP server
exposes the registry, recent outcomes, Prometheus metrics and a WebSocket
feed of definitions.

Examples:
  lazydefine watch index.html
  lazydefine watch --inspect localhost:7070 index.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], inspectAddr)
		},
	}

	cmd.Flags().StringVar(&inspectAddr, "inspect", "", "Serve the inspection API on this address (default from config)")

	return cmd
}

func runWatch(path, inspectAddr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if inspectAddr != "" {
		cfg.Inspect.Addr = inspectAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)
	file, err := watch.Open(path, logger)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, cfg, file.Document())
	if err != nil {
		return err
	}
	defer eng.observer.Disconnect()

	w, err := watch.NewWatcher(watch.Config{Path: path, Debounce: cfg.Watch.Debounce})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Inspect.Addr != "" {
		ln, err := net.Listen("tcp", cfg.Inspect.Addr)
		if err != nil {
			return err
		}
		srv := inspect.New(inspect.Config{
			Registry: eng.registry,
			Observer: eng.observer,
			Gatherer: eng.metrics,
			Logger:   logger,
		})
		g.Go(func() error { return srv.Run(ctx, ln) })
	}

	if err := eng.observer.Observe(file.Document().Node(), lazydef.DefaultObserveOptions()); err != nil {
		return err
	}

	// Records produced outside a reload, such as template content mounted
	// during an upgrade, are delivered by the document's own loop.
	g.Go(func() error { return file.Document().Run(ctx) })
	g.Go(func() error { return watch.Run(ctx, file, w) })

	success("Watching %s", path)
	if cfg.Inspect.Addr != "" {
		info("Inspect: http://%s/definitions", cfg.Inspect.Addr)
	}

	err = g.Wait()
	eng.observer.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}
