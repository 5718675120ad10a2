// Package builder composes asset discovery, parallel parsing, and result
// aggregation into the catalog build pipeline, including incremental update
// against a previously persisted catalog.
package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/catalog"
	"github.com/tferro/esmcat/internal/parse"
	"github.com/tferro/esmcat/internal/storage"
	"github.com/tferro/esmcat/internal/walk"
)

// Config assembles a Builder. Roots and Parser are required.
type Config struct {
	Roots  []*walk.Root
	Parser parse.Func
	Parse  parse.Options
	// Store is the backend previous catalogs are read from; defaults to the
	// local filesystem.
	Store  storage.Provider
	Logger *slog.Logger
}

// Builder runs the build pipeline. Each stage takes values and returns
// values; there is no staged mutable state, so stages cannot be invoked out
// of order.
type Builder struct {
	roots  []*walk.Root
	parser parse.Func
	opts   parse.Options
	walker *walk.Walker
	store  storage.Provider
	logger *slog.Logger
}

// New validates the configuration and returns a ready Builder.
func New(cfg Config) (*Builder, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("builder: at least one root is required: %w", apperr.ErrInvalidConfig)
	}
	if cfg.Parser == nil {
		return nil, fmt.Errorf("builder: parser function is required: %w", apperr.ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewFS()
	}
	return &Builder{
		roots:  cfg.Roots,
		parser: cfg.Parser,
		opts:   cfg.Parse,
		walker: walk.NewWalker(logger),
		store:  store,
		logger: logger,
	}, nil
}

// Discover enumerates the current asset set across all roots: deduplicated,
// lexicographically sorted.
func (b *Builder) Discover(ctx context.Context) ([]string, error) {
	return b.walker.WalkAll(ctx, b.roots)
}

// Build walks the roots, parses every asset, and aggregates the results.
// Row order equals discovery order regardless of parse parallelism.
func (b *Builder) Build(ctx context.Context) (*catalog.Table, error) {
	assets, err := b.Discover(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Info("discovered assets", slog.Int("count", len(assets)))

	records, err := parse.Run(ctx, assets, b.parser, b.opts)
	if err != nil {
		return nil, err
	}
	return catalog.FromRecords(records, b.logger), nil
}

// Update diffs the current asset set against a previously persisted catalog:
// only assets absent from the previous table are parsed, and rows whose
// assets no longer exist are dropped. Assets present in both are never
// re-parsed; in-place content changes require a full Build.
func (b *Builder) Update(ctx context.Context, prevCatalog, pathColumn string) (*catalog.Table, error) {
	prev, err := catalog.ReadCSV(b.store, prevCatalog)
	if err != nil {
		return nil, err
	}
	if !prev.HasColumn(pathColumn) {
		return nil, fmt.Errorf("builder: column %q not in previous catalog %s: %w",
			pathColumn, prevCatalog, apperr.ErrInvalidConfig)
	}

	assets, err := b.Discover(ctx)
	if err != nil {
		return nil, err
	}
	current := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		current[a] = struct{}{}
	}

	prevPaths := prev.Paths(pathColumn)
	known := make(map[string]struct{}, len(prevPaths))
	for _, p := range prevPaths {
		known[p] = struct{}{}
	}

	var toParse []string
	for _, a := range assets {
		if _, ok := known[a]; !ok {
			toParse = append(toParse, a)
		}
	}

	fresh, err := parse.Run(ctx, toParse, b.parser, b.opts)
	if err != nil {
		return nil, err
	}

	merged := make([]catalog.Record, 0, len(prev.Rows)+len(fresh))
	for i, row := range prev.Rows {
		if _, ok := current[prevPaths[i]]; ok {
			merged = append(merged, row)
		}
	}
	merged = append(merged, fresh...)

	b.logger.Info("incremental update",
		slog.Int("parsed", len(toParse)),
		slog.Int("dropped", len(prev.Rows)-(len(merged)-len(fresh))),
		slog.Int("kept", len(merged)-len(fresh)))

	return catalog.FromRecords(merged, b.logger), nil
}
