// Package internal provides the main application initialization and runtime logic.
package internal

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

	"golang.org/x/sync/errgroup"

	"github.com/tferro/esmcat/internal/builder"
	"github.com/tferro/esmcat/internal/catalog"
	"github.com/tferro/esmcat/internal/parsers"
	"github.com/tferro/esmcat/internal/server"
	"github.com/tferro/esmcat/internal/sse"
	"github.com/tferro/esmcat/internal/storage"
	"github.com/tferro/esmcat/internal/walk"
)

// NewLogger builds the structured JSON logger and installs it as the default.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// pipeline bundles the resolved crawl roots, builder, writer, and their
// shared storage backend.
type pipeline struct {
	roots  []*walk.Root
	b      *builder.Builder
	writer *catalog.Writer
	store  storage.Provider
}

// newPipeline resolves the configuration into a pipeline. All parts share
// one storage backend.
func newPipeline(cfg *Config, logger *slog.Logger) (*pipeline, error) {
	fn, err := parsers.Lookup(cfg.Parse.Parser)
	if err != nil {
		return nil, err
	}

	roots := make([]*walk.Root, 0, len(cfg.Sources.Roots))
	for _, src := range cfg.Sources.Roots {
		root, err := walk.NewRoot(src.Path, src.Depth, src.Include, src.Exclude, nil)
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}

	store := storage.NewFS()
	b, err := builder.New(builder.Config{
		Roots:  roots,
		Parser: parsers.Wrap(fn),
		Parse:  cfg.Parse.Options(),
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return &pipeline{
		roots:  roots,
		b:      b,
		writer: catalog.NewWriter(store, logger),
		store:  store,
	}, nil
}

// RunBuild executes one build-and-save cycle and returns the persisted file
// paths with the aggregated table. When incremental is true and a previous
// catalog exists at the configured location, only new assets are parsed.
func RunBuild(ctx context.Context, cfg *Config, logger *slog.Logger, incremental bool) (string, string, *catalog.Table, error) {
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return "", "", nil, err
	}

	prev := cfg.Output.CatalogFile()

	var tbl *catalog.Table
	if incremental {
		exists, err := p.store.Exists(prev)
		if err != nil {
			return "", "", nil, err
		}
		if !exists {
			logger.Info("no previous catalog, running full build", slog.String("catalog", prev))
			incremental = false
		}
	}
	if incremental {
		tbl, err = p.b.Update(ctx, prev, cfg.Output.PathColumn)
	} else {
		tbl, err = p.b.Build(ctx)
	}
	if err != nil {
		return "", "", nil, err
	}

	csvPath, jsonPath, err := p.writer.Save(tbl, cfg.Output.SaveOptions())
	if err != nil {
		return "", "", nil, err
	}
	return csvPath, jsonPath, tbl, nil
}

// Run starts serve mode with the given options: an initial build, an HTTP
// read surface for the persisted catalog, and optionally a filesystem watcher
// that keeps the catalog current.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := app.logger
	if logger == nil {
		logger = NewLogger(cfg.App.LogLevel)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Int("roots", len(cfg.Sources.Roots)),
		slog.String("parser", cfg.Parse.Parser),
		slog.String("catalog", cfg.Output.CatalogFile()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	state := &server.State{}

	refresh := func(ctx context.Context, incremental bool) {
		broker.PublishBuildEvent("started", sse.BuildSummary{})
		csvPath, jsonPath, tbl, err := RunBuild(ctx, cfg, logger, incremental)
		if err != nil {
			logger.Error("catalog build failed", slog.String("error", err.Error()))
			broker.PublishBuildEvent("failed", sse.BuildSummary{Error: err.Error()})
			return
		}
		state.Set(server.Snapshot{
			CSVPath:  csvPath,
			JSONPath: jsonPath,
			Rows:     len(tbl.Rows),
			Invalid:  len(tbl.Invalid),
			BuiltAt:  time.Now().UTC(),
		})
		broker.PublishBuildEvent("completed", sse.BuildSummary{
			Rows:    len(tbl.Rows),
			Invalid: len(tbl.Invalid),
		})
	}

	// Initial catalog before the server reports ready.
	refresh(ctx, true)

	router := server.NewRouter(state, p.store, broker)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			return builder.Watch(gCtx, p.roots, cfg.Watch.Debounce(), logger, func(ctx context.Context) {
				refresh(ctx, true)
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
