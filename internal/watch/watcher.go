// Package watch re-runs a callback whenever the tagging state below a set of roots changes.
//
// Sidecar files are relevant on every kind of event. Other paths are only relevant when they appear,
// disappear or are renamed, since that changes which files directives can match. Events within the
// debounce window are coalesced into a single callback.
package watch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/n2code/tagger/internal/sidecar"
)

const defaultDebounce = 300 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/.tagger.yaml.wip-*",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type Config struct {
	Roots    []string      //absolute directories, watched recursively
	Ignore   []string      //doublestar patterns relative to the root an event belongs to, merged with the defaults
	Debounce time.Duration //zero means the default
	OnChange func(ctx context.Context, changed []string) error
	Logger   *log.Logger //nil discards
}

// Watcher must be started exactly once with Run.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool
}

func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: no roots")
	}
	for _, pattern := range cfg.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.New("watch: invalid ignore pattern " + pattern)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	for _, root := range cfg.Roots {
		w.addTree(root)
	}
	if len(w.fsw.WatchList()) == 0 {
		_ = fsw.Close()
		return nil, errors.New("watch: none of the roots can be watched")
	}
	return w, nil
}

// Run blocks until ctx is cancelled. Callbacks never overlap: changes arriving during a callback are delivered afterwards.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("change handling failed", "err", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher failed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed unexpectedly")
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				w.addTree(event.Name)
			}
			w.logger.Debug("change", "path", event.Name, "op", event.Op)

			mu.Lock()
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return err
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if w.isIgnored(event.Name) {
		return false
	}
	if sidecar.IsSidecarName(filepath.Base(event.Name)) {
		return event.Op != fsnotify.Chmod
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) isIgnored(path string) bool {
	for _, root := range w.cfg.Roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		normalized := filepath.ToSlash(rel)
		for _, pattern := range w.ignores {
			if matched, _ := doublestar.Match(pattern, normalized); matched {
				return true
			}
		}
	}
	return false
}

// addTree registers dir and every directory below it. Unreadable directories are logged and skipped.
func (w *Watcher) addTree(dir string) {
	stat, err := os.Stat(dir)
	if err != nil || !stat.IsDir() {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("not watching", "path", path, "err", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if w.isIgnored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("not watching", "path", path, "err", err)
		}
		return nil
	})
}
