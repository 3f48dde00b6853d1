// Package watch triggers rebuilds when book sources or the configuration
// change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/booktypst/internal/logfields"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Tree is watched recursively; directories created later are added.
	Tree string
	// Files are watched individually, e.g. book.toml and the config file.
	Files []string
	// Ignore lists files whose changes never trigger a rebuild, e.g. the
	// output file when it lives inside the watched tree.
	Ignore []string
	// Debounce collapses bursts of events into one rebuild.
	Debounce time.Duration
	// OnChange runs after a burst settles. Calls never overlap.
	OnChange func(ctx context.Context)
}

// Watcher monitors a source tree and a set of files.
type Watcher struct {
	tree     string
	files    map[string]struct{}
	ignore   map[string]struct{}
	debounce time.Duration
	onChange func(ctx context.Context)
	fs       *fsnotify.Watcher
}

// New creates a watcher. Nothing is watched until Run.
func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("watch: OnChange is required")
	}
	tree, err := filepath.Abs(opts.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", opts.Tree, err)
	}

	w := &Watcher{
		tree:     tree,
		files:    make(map[string]struct{}, len(opts.Files)),
		ignore:   make(map[string]struct{}, len(opts.Ignore)),
		debounce: opts.Debounce,
		onChange: opts.OnChange,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
	}
	for _, f := range opts.Ignore {
		if abs, err := filepath.Abs(f); err == nil {
			w.ignore[abs] = struct{}{}
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fs = fw
	return w, nil
}

// Run watches until ctx is done. Single files are watched through their
// directory, which survives editors that replace files on save.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fs.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if err := w.addTree(w.tree); err != nil {
		return err
	}
	for f := range w.files {
		dir := filepath.Dir(f)
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	slog.Info("Watching for changes", logfields.Path(w.tree), slog.Int("files", len(w.files)))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create && w.inTree(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))

		case <-fire:
			fire = nil
			w.onChange(ctx)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) inTree(name string) bool {
	rel, err := filepath.Rel(w.tree, name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// relevant reports whether event should schedule a rebuild.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.ignore[name]; ok {
		return false
	}
	if _, ok := w.files[name]; ok {
		return true
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return w.inTree(name)
}
