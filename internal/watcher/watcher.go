package watcher

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event represents a change to a watched source file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors source files for changes using OS-level notifications.
// It watches each file's parent directory so sources replaced by rename keep
// being tracked.
type Watcher struct {
	fsw     *fsnotify.Watcher
	Events  chan Event
	paths   []string
	tracked map[string]bool
	log     *zap.Logger
}

// New creates a Watcher for the given glob patterns.
// Patterns are expanded at startup. A pattern without glob metacharacters is
// tracked as a literal path even if the file does not exist yet.
func New(patterns []string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		Events:  make(chan Event, 256),
		tracked: make(map[string]bool),
		log:     log,
	}

	dirs := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			log.Warn("failed to expand pattern", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				log.Warn("cannot resolve path", zap.String("path", m), zap.Error(err))
				continue
			}
			if w.tracked[abs] {
				continue
			}
			dir := filepath.Dir(abs)
			if !dirs[dir] {
				if err := fsw.Add(dir); err != nil {
					log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
					continue
				}
				dirs[dir] = true
			}
			w.tracked[abs] = true
			w.paths = append(w.paths, abs)
		}
	}

	return w, nil
}

// Start forwards events for tracked files. It blocks until the context is
// cancelled, then closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.tracked[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- Event{Path: filepath.Clean(ev.Name), Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close releases the underlying notifier. It is for watchers that will never
// be started; Start closes it itself. Safe to call more than once.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Paths returns the absolute paths of the tracked sources.
func (w *Watcher) Paths() []string {
	return w.paths
}

// expandGlob resolves a pattern to file paths. Recursive patterns like
// site/**/index.html are supported via doublestar.
func expandGlob(pattern string) ([]string, error) {
	if !hasMeta(pattern) {
		return []string{pattern}, nil
	}
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
