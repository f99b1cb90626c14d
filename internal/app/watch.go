package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"smartrouter/internal/infra/inventory"
	"smartrouter/internal/infra/telemetry"
)

const (
	defaultRebuildDebounce = 300 * time.Millisecond
	defaultWatchDepth      = 8
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce collapses bursts of file events into one rebuild.
	Debounce time.Duration
	// MaxDepth bounds how far below each root directories are watched.
	MaxDepth int
	// OnBuild receives the initial build and every rebuild.
	OnBuild func(inventory.BuildResult, error)
}

// Watch builds once, then rebuilds whenever the scanned trees change, until ctx ends.
// Rebuilds go through the normal fingerprint check, so events that do not change the
// tool tree end in a cache hit.
func (a *Application) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultRebuildDebounce
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultWatchDepth
	}
	onBuild := opts.OnBuild
	if onBuild == nil {
		onBuild = func(inventory.BuildResult, error) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	w := &treeWatcher{
		logger:   a.logger.Named("watch"),
		watcher:  watcher,
		maxDepth: opts.MaxDepth,
		ignore:   a.storeDir(),
		trees:    a.watchTrees(),
		files:    a.watchFiles(),
	}
	for _, root := range w.trees {
		w.addTree(root, root)
	}
	for _, file := range w.files {
		dir := filepath.Dir(file)
		if err := watcher.Add(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("watch add failed", telemetry.PathField(dir), zap.Error(err))
		}
	}

	onBuild(a.builder.Build(ctx, false))

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected",
				telemetry.EventField(telemetry.EventWatchTrigger),
				telemetry.PathField(event.Name),
				zap.String("op", event.Op.String()),
			)
			if event.Has(fsnotify.Create) {
				if root, ok := w.treeOf(event.Name); ok {
					w.addTree(root, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(opts.Debounce)
		case <-timerChan(timer):
			timer = nil
			onBuild(a.builder.Build(ctx, false))
		}
	}
}

// watchTrees lists the scanned trees, watched recursively.
func (a *Application) watchTrees() []string {
	var trees []string
	for _, root := range []string{a.cfg.ExternalRoot, a.cfg.LocalRoot} {
		if root != "" && !containsPath(trees, root) {
			trees = append(trees, root)
		}
	}
	return trees
}

// watchFiles lists the service config files. Their directories are watched flat.
func (a *Application) watchFiles() []string {
	var files []string
	if a.cfg.ProjectServices != "" {
		files = append(files, filepath.Clean(a.cfg.ProjectServices))
	}
	for _, path := range a.cfg.ServiceConfigs {
		files = append(files, filepath.Clean(path))
	}
	return files
}

func (a *Application) storeDir() string {
	if a.cfg.Store.Path == "" {
		return ""
	}
	return filepath.Dir(a.cfg.Store.Path)
}

type treeWatcher struct {
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	maxDepth int
	ignore   string
	trees    []string
	files    []string
}

// addTree watches dir and its subdirectories down to maxDepth, measured from base.
// Symlinked directories are not followed.
func (w *treeWatcher) addTree(base, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("watch skipped", telemetry.PathField(dir), zap.Error(err))
		}
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if depthBelow(base, path) > w.maxDepth {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("watch add failed", telemetry.PathField(path), zap.Error(err))
		}
		return nil
	})
}

// relevant keeps changes inside a scanned tree or to a service config file.
func (w *treeWatcher) relevant(event fsnotify.Event) bool {
	if event.Name == "" || event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return false
	}
	if _, ok := w.treeOf(event.Name); ok {
		return true
	}
	return containsPath(w.files, event.Name)
}

func (w *treeWatcher) treeOf(path string) (string, bool) {
	for _, root := range w.trees {
		if within(root, path) {
			return root, true
		}
	}
	return "", false
}

func (w *treeWatcher) ignored(path string) bool {
	if w.ignore == "" {
		return false
	}
	return within(w.ignore, path)
}

func within(root, path string) bool {
	root, path = filepath.Clean(root), filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func containsPath(paths []string, target string) bool {
	target = filepath.Clean(target)
	for _, path := range paths {
		if filepath.Clean(path) == target {
			return true
		}
	}
	return false
}

func depthBelow(base, path string) int {
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
