package walk

import (
	"context"
	"log/slog"
	"path"
	"sort"

	"github.com/tferro/esmcat/internal/storage"
)

// ConsolidatedMarker is the reserved entry name whose presence marks a
// directory as the root of a consolidated-metadata store. Such a directory is
// emitted as a single asset and never descended into.
const ConsolidatedMarker = ".zmetadata"

// Walker enumerates candidate asset paths under crawl roots.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a walker that reports sub-path access problems on logger.
func NewWalker(logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{logger: logger}
}

// Walk enumerates assets under a single root. Results are lexicographically
// sorted so two runs over an unchanged tree produce identical lists.
//
// Directories down to root.Depth levels are descent levels: their files are
// not considered, only their subdirectories. From the listing level on, every
// file below is a candidate. Excluded directories are pruned, not
// post-filtered, so their subtrees are never listed. Any directory carrying
// the consolidated-metadata marker becomes a single asset.
func (w *Walker) Walk(ctx context.Context, root *Root) ([]string, error) {
	var assets []string
	if err := w.walkDir(ctx, root, root.raw, root.Depth, true, &assets); err != nil {
		return nil, err
	}
	sort.Strings(assets)
	return assets, nil
}

// WalkAll merges the walks of several roots into one deduplicated, sorted
// asset list.
func (w *Walker) WalkAll(ctx context.Context, roots []*Root) ([]string, error) {
	seen := make(map[string]struct{})
	var merged []string
	for _, root := range roots {
		assets, err := w.Walk(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			merged = append(merged, a)
		}
	}
	sort.Strings(merged)
	return merged, nil
}

// walkDir visits one directory. remaining counts descent levels left before
// files are considered; isRoot marks the crawl root, whose listing errors are
// fatal while sub-path errors only cost that subtree.
func (w *Walker) walkDir(ctx context.Context, root *Root, dir string, remaining int, isRoot bool, assets *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := root.provider.ListDir(dir)
	if err != nil {
		if isRoot {
			return err
		}
		w.logger.Warn("walk: listing failed, skipping subtree",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil
	}

	qualified := storage.Qualify(root.provider.Protocol(), dir)
	for _, e := range entries {
		if e.Name == ConsolidatedMarker {
			*assets = append(*assets, qualified)
			return nil
		}
	}

	for _, e := range entries {
		child := path.Join(dir, e.Name)
		q := storage.Qualify(root.provider.Protocol(), child)
		if e.IsDir {
			if root.matcher.Excluded(q) {
				continue
			}
			next := remaining - 1
			if next < 0 {
				next = 0
			}
			if err := w.walkDir(ctx, root, child, next, false, assets); err != nil {
				return err
			}
			continue
		}
		if remaining == 0 && root.matcher.Keep(q) {
			*assets = append(*assets, q)
		}
	}
	return nil
}
