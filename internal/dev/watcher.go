package dev

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/fileset"
)

// Binding ties a set of source globs to an action.
type Binding struct {
	// Name labels log lines (usually the bound task name).
	Name string

	// Sources selects the paths that trigger the binding.
	Sources *fileset.Set

	// Delay is how long the binding waits for further events before firing.
	// Zero fires on every event.
	Delay time.Duration

	// Action runs in its own goroutine with the changed paths. Executions
	// are never queued, so a slow action may overlap the next one.
	Action func(ctx context.Context, paths []string)
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Root is the project directory. Ignore patterns are matched against
	// paths relative to it.
	Root string

	// Ignore patterns to skip (names, path segments or globs).
	Ignore []string

	Logger *slog.Logger
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".sitepipe",
	"*.tmp",
	"*.swp",
	"*~",
}

type binding struct {
	Binding

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

// Watcher monitors the base directories of its bindings with fsnotify.
type Watcher struct {
	config   WatcherConfig
	bindings []*binding
	logger   *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	watched map[string]bool
	roots   []string
	running bool
	ready   chan struct{}
	stopCh  chan struct{}
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig, bindings ...Binding) *Watcher {
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	w := &Watcher{
		config:  config,
		logger:  config.Logger,
		watched: make(map[string]bool),
		ready:   make(chan struct{}),
	}
	seen := make(map[string]bool)
	for _, b := range bindings {
		if b.Sources == nil || b.Action == nil {
			continue
		}
		w.bindings = append(w.bindings, &binding{Binding: b, pending: make(map[string]struct{})})
		for _, r := range b.Sources.Bases() {
			if !seen[r] {
				seen[r] = true
				w.roots = append(w.roots, r)
			}
		}
	}
	sort.Strings(w.roots)
	return w
}

// Ready is closed once the initial watches are in place.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return errors.New("E502").Wrap(err)
	}
	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer fsw.Close()

	w.refreshRoots()
	close(w.ready)
	w.logger.Debug("watching", "roots", w.roots, "bindings", len(w.bindings))

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return nil
		case <-stopCh:
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
	for _, b := range w.bindings {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.shouldIgnore(ev.Name) {
		return
	}
	if (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) && w.forget(ev.Name) {
		// A removed root (dist after clean) is watched for again through
		// its nearest ancestor.
		for _, p := range w.refreshRoots() {
			w.dispatch(ctx, p)
		}
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// A directory appeared, possibly a root recreated after clean.
			// Files written into it before the watch existed are replayed.
			for _, p := range w.refreshRoots() {
				w.dispatch(ctx, p)
			}
			return
		}
	}
	w.dispatch(ctx, ev.Name)
}

func (w *Watcher) dispatch(ctx context.Context, p string) {
	for _, b := range w.bindings {
		if b.Sources.Match(p) {
			w.trigger(ctx, b, p)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, b *binding, p string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[p] = struct{}{}
	if b.Delay <= 0 {
		w.fire(ctx, b)
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.Delay, func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			w.fire(ctx, b)
		})
		return
	}
	b.timer.Reset(b.Delay)
}

// fire runs the action with the pending paths. b.mu must be held.
func (w *Watcher) fire(ctx context.Context, b *binding) {
	if len(b.pending) == 0 || ctx.Err() != nil {
		return
	}
	paths := make([]string, 0, len(b.pending))
	for p := range b.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	clear(b.pending)

	w.logger.Info("changed", "binding", b.Name, "files", len(paths))
	go b.Action(ctx, paths)
}

// refreshRoots watches every root that exists and, for a missing root, its
// nearest existing ancestor so the root's creation is seen. It returns the
// files found in newly watched directories.
func (w *Watcher) refreshRoots() []string {
	var found []string
	for _, root := range w.roots {
		if isDir(root) {
			found = append(found, w.addRecursive(root)...)
			continue
		}
		if anc := nearestExisting(root); anc != "" {
			w.add(anc)
		}
	}
	return found
}

func (w *Watcher) addRecursive(dir string) []string {
	var files []string
	added := make(map[string]bool)
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p != dir && w.shouldIgnore(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if w.add(p) {
				added[p] = true
			}
			return nil
		}
		if added[filepath.Dir(p)] {
			files = append(files, p)
		}
		return nil
	})
	return files
}

// add watches dir and reports whether it was newly added.
func (w *Watcher) add(dir string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil || w.watched[dir] {
		return false
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("watch failed", "dir", dir, "err", err)
		return false
	}
	w.watched[dir] = true
	return true
}

// forget drops watches under a removed path and reports whether there
// were any. fsnotify has already released them.
func (w *Watcher) forget(p string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	found := false
	for dir := range w.watched {
		if isWithinDir(dir, p) {
			delete(w.watched, dir)
			found = true
		}
	}
	return found
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	rel := fullPath
	if w.config.Root != "" {
		if r, err := filepath.Rel(w.config.Root, fullPath); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	normalized := filepath.ToSlash(rel)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/") || strings.Contains(pattern, "\\")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(filepath.ToSlash(pattern), normalized); matched {
					return true
				}
			} else {
				if matched, _ := filepath.Match(pattern, name); matched {
					return true
				}
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}
