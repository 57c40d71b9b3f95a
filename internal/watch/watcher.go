// Package watch re-runs a callback when suite files under a root change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codewithboateng/champlint/internal/parser"
)

const DefaultDebounce = 200 * time.Millisecond

type Config struct {
	// Root is a suite directory or a single suite file.
	Root string
	// Debounce is the quiet period after the last change before the
	// callback fires.
	Debounce time.Duration
	// Parser selects which files count as suite files.
	Parser parser.Options
	Logger *slog.Logger
}

// ChangeFunc receives the changed paths, relative to the root and sorted.
type ChangeFunc func(ctx context.Context, changed []string)

type Watcher struct {
	cfg     Config
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	dirRoot string
	file    string // set when Root is a single file

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		logger:  logger,
		dirRoot: cfg.Root,
		pending: make(map[string]fsnotify.Op),
	}
	if !info.IsDir() {
		w.dirRoot = filepath.Dir(cfg.Root)
		w.file = filepath.Base(cfg.Root)
		err = fsw.Add(w.dirRoot)
	} else {
		err = w.addRecursive(w.dirRoot)
	}
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Close() error { return w.fsw.Close() }

// Run blocks until ctx is done or the watcher is closed. The callback runs on
// Run's goroutine, so changes arriving while it runs are batched for the next
// call.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	w.logger.Info("watching suite", "root", w.cfg.Root, "debounce", w.cfg.Debounce)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			if changed := w.drain(); len(changed) > 0 {
				onChange(ctx, changed)
			}
		}
	}
}

// handle records a relevant event and reports whether it was relevant.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 && w.file == "" {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
			}
			return false
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, ok := w.relevant(ev.Name)
	if !ok {
		return false
	}
	w.pendingMu.Lock()
	w.pending[rel] |= ev.Op
	w.pendingMu.Unlock()
	w.logger.Debug("suite file changed", "path", rel, "op", ev.Op.String())
	return true
}

func (w *Watcher) relevant(path string) (string, bool) {
	if w.file != "" {
		return w.file, filepath.Base(path) == w.file
	}
	rel, err := filepath.Rel(w.dirRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	return rel, w.cfg.Parser.Selects(rel)
}

func (w *Watcher) drain() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	sort.Strings(out)
	return out
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := d.Name()
		if path != root && (base == "node_modules" || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}
