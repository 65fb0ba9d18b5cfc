package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/recera/relgraph/internal/cache"
	"github.com/recera/relgraph/internal/httpapi"
	"github.com/recera/relgraph/internal/watch"
	"github.com/recera/relgraph/pkg/dataset"
	"github.com/recera/relgraph/pkg/graphviewer"
	"github.com/recera/relgraph/pkg/live"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(g *globals) *cobra.Command {
	var addr string
	var watchFile bool

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve the graph over HTTP and WebSocket",
		Long: `Runs the layout continuously and serves the scene as JSON, rendered
PNG/SVG frames, view commands and a live WebSocket stream at /live/new.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.datasetPath(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				g.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				g.cfg.Dataset.Watch = watchFile
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, g, path)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	cmd.Flags().BoolVar(&watchFile, "watch", false, "Reload the dataset when the file changes")

	return cmd
}

func runServe(ctx context.Context, g *globals, path string) error {
	cfg := g.cfg
	logger := slog.Default()

	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}

	onSelect := func(evt graphviewer.SelectionEvent) {
		logger.Info("node selected", "node", evt.NodeID, "kind", evt.Kind.Name())
	}
	vp := graphviewer.Viewport{Width: float64(cfg.Render.Width), Height: float64(cfg.Render.Height)}
	v, err := newViewer(cfg, ds, vp, nil, onSelect)
	if err != nil {
		return err
	}
	if err := v.Start(); err != nil {
		return err
	}
	defer v.Stop()

	frames := cache.New(cfg.CacheConfig())
	defer frames.Close()

	liveServer := live.NewServer(v, live.Options{
		Logger:          logger,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
	})
	defer liveServer.Close()

	if cfg.Dataset.Watch {
		w, err := watch.New(path, func(ds *dataset.Dataset) {
			v.SetDataset(ds)
			frames.Clear()
		}, watch.Options{Debounce: cfg.Dataset.Debounce.Duration, Logger: logger})
		if err != nil {
			return err
		}
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("dataset watcher stopped", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(v, httpapi.Options{
		Cache:           frames,
		Live:            liveServer,
		AllowAllOrigins: cfg.Server.AllowAllOrigins,
		AllowOrigins:    cfg.Server.AllowOrigins,
		FitPadding:      cfg.Render.FitPadding,
		Version:         version,
		Logger:          logger,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	bold := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s http://%s (%d nodes, %d edges)\n", bold("relgraph serving"), cfg.Server.Addr, len(v.Frame().Nodes), len(v.Frame().Edges))
	logger.Info("server started", "addr", cfg.Server.Addr, "dataset", path, "watch", cfg.Dataset.Watch)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
