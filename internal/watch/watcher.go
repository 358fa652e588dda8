// Package watch re-runs extraction when source files change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/doctavious/snippext/internal/storage"
)

// Debounce is the quiet period after the last relevant event before a run.
const Debounce = 200 * time.Millisecond

// RunFunc is called once per debounced batch with the changed paths,
// relative to the root and sorted.
type RunFunc func(ctx context.Context, changed []string) error

// Matcher reports whether a change to the relative slash path rel
// should trigger a run.
type Matcher func(rel string) bool

// NewMatcher matches paths selected by sources and not by ignored. The
// ignored list usually holds the output directory and the targets, which
// extraction itself writes.
func NewMatcher(sources, ignored []string) Matcher {
	return func(rel string) bool {
		if strings.HasPrefix(path.Base(rel), ".snippext-tmp-") {
			return false
		}
		return storage.Match(sources, rel) && !storage.Match(ignored, rel)
	}
}

// Run watches root recursively until ctx is cancelled and calls fn after
// each burst of changes to matching files. Errors from fn are logged and
// watching continues.
func Run(ctx context.Context, root string, match Matcher, logger *slog.Logger, fn RunFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := make(map[string]bool)

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(Debounce)
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
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			logger.Debug("watcher: running", slog.Int("changed", len(changed)))
			if runErr := fn(ctx, changed); runErr != nil {
				logger.Error("watcher: run failed", slog.String("error", runErr.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !match(rel) {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			pending[rel] = true
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
