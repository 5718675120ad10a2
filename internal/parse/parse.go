// Package parse runs a user-supplied parser over an asset list with bounded
// worker parallelism, producing exactly one record per asset.
package parse

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/catalog"
)

// Func parses one asset into a record.
//
// Contract: implementations must be safe for concurrent use (no shared
// mutable state across invocations) and must never panic; all failures are
// converted into failure records (catalog.Invalid). A panicking Func is a
// programming error in the caller's parser; the executor does not recover
// it. parsers.Wrap gives parser authors this conversion for free.
type Func func(path string) catalog.Record

// DefaultBatchSize is the number of assets handed to a single scheduled
// worker invocation when the caller does not choose one. Batching bounds the
// number of scheduled units on very large archives.
const DefaultBatchSize = 25

// Options configures executor parallelism.
type Options struct {
	// Jobs bounds worker parallelism: 1 runs sequentially on the calling
	// goroutine, 0 or negative uses one worker per available CPU.
	Jobs int
	// BatchSize is the number of assets per scheduled unit of work;
	// 0 means DefaultBatchSize.
	BatchSize int
}

func (o Options) jobs() int {
	if o.Jobs == 1 {
		return 1
	}
	if o.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Jobs
}

func (o Options) batch() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

// Run invokes fn once per asset and returns one record per asset, with
// result[i] corresponding to assets[i] regardless of worker completion
// order: every worker writes only its own indices of the shared result
// slice, so row order never depends on scheduling.
func Run(ctx context.Context, assets []string, fn Func, opts Options) ([]catalog.Record, error) {
	if fn == nil {
		return nil, fmt.Errorf("parse: parser function is required: %w", apperr.ErrInvalidConfig)
	}

	results := make([]catalog.Record, len(assets))

	if opts.jobs() == 1 {
		for i, asset := range assets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = fn(asset)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs())

	batch := opts.batch()
	for start := 0; start < len(assets); start += batch {
		start, end := start, min(start+batch, len(assets))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = fn(assets[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
