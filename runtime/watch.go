package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Pusher is the subset of Engine the watch adapter depends on, kept as an
// interface so the adapter can be exercised against a fake in tests.
type Pusher interface {
	Push(ctx context.Context, c *Context)
}

// Watcher translates OS-level filesystem events into engine Push calls and
// performs the initial recursive scan.
type Watcher struct {
	l      *slog.Logger
	engine Pusher
	fsw    *fsnotify.Watcher
}

// NewWatcher creates the underlying fsnotify watcher and recursively adds
// every directory under each root (fsnotify watches non-recursively per
// directory, so every subdirectory needs its own Add call).
func NewWatcher(l *slog.Logger, engine Pusher, roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{l: l, engine: engine, fsw: fsw}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// InitialScan performs the startup recursive scan: one `initialize` event
// per file and one per directory under each root, issued before the main
// event loop starts.
func (w *Watcher) InitialScan(ctx context.Context, roots []string) error {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			c := NewContext()
			c.Set(FieldSource, abs)
			c.Set(FieldEvent, EventInitialize)
			c.Set(FieldIsDir, d.IsDir())
			w.engine.Push(ctx, c)
			return nil
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return nil
}

// Run drains fsnotify events into engine.Push until ctx is cancelled,
// translating OS-level events into `modified`/`moved` context events.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.l.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	var kind string
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		kind = EventModified
	case event.Has(fsnotify.Rename):
		kind = EventMoved
	default:
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		w.l.Error("resolve event path", "path", event.Name, "error", err)
		return
	}

	isDir := false
	if info, err := os.Stat(abs); err == nil {
		isDir = info.IsDir()
		if isDir && kind == EventModified {
			if err := w.fsw.Add(abs); err != nil {
				w.l.Error("watch new directory", "path", abs, "error", err)
			}
		}
	}

	c := NewContext()
	c.Set(FieldSource, abs)
	c.Set(FieldEvent, kind)
	c.Set(FieldIsDir, isDir)
	w.engine.Push(ctx, c)
}

// Close releases the underlying fsnotify watcher's resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
