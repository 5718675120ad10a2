package builder

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tferro/esmcat/internal/apperr"
	"github.com/tferro/esmcat/internal/walk"
)

// Watch monitors all root subtrees and invokes onChange after filesystem
// activity settles for the debounce interval. Bursts of events collapse into
// a single invocation. Only local roots can be watched.
//
// onChange typically runs an incremental update followed by a save; the
// update contract applies, so writes to already-cataloged assets do not
// refresh their rows.
func Watch(ctx context.Context, roots []*walk.Root, debounce time.Duration, logger *slog.Logger, onChange func(context.Context)) error {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if root.Protocol() != "file" {
			return fmt.Errorf("builder: cannot watch %s root %q: %w",
				root.Protocol(), root.Location, apperr.ErrInvalidConfig)
		}
		if err := addDirsRecursive(w, root.RawPath()); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.Int("roots", len(roots)))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			onChange(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// New directories join the watch list so their contents keep
			// triggering rebuilds.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
