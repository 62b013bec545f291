// Package watch hot-reloads units when their artifacts change on disk.
//
// Filesystem events are coalesced per path during a debounce window. When the window closes,
// every changed artifact is applied to the target: edited artifacts of cached units are
// reloaded, new artifacts are loaded and removed ones unloaded.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/loader"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/unit"
)

const DefaultDebounce = 300 * time.Millisecond

// Target is the side of the manager the watcher drives. *manager.Manager implements it.
type Target interface {
	FindByLocation(path string) (unit.Unit, bool)
	LoadPath(ctx context.Context, path string) (unit.Unit, error)
	Reload(ctx context.Context, kind unit.Kind, name string) (unit.Unit, error)
	Unload(ctx context.Context, kind unit.Kind, name string) error
}

type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Target
	roots    []string
	debounce time.Duration
	started  atomic.Bool
}

// New watches every directory below roots. Empty roots are skipped.
func New(target Target, roots []string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{fsw: fsw, target: target, debounce: debounce}
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		w.roots = append(w.roots, abs)
		if err = w.addTree(abs); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func hidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path", slog.String("type", "sys"), slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		if err = w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is done. It must be called once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watcher already running")
	}
	defer w.fsw.Close()

	var (
		mu      sync.Mutex
		pending = make(map[string]fsnotify.Op)
		timer   *time.Timer
	)
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		batch := pending
		pending = make(map[string]fsnotify.Op)
		mu.Unlock()
		w.Apply(ctx, batch)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	logger.LogSystem("Watching unit artifacts", slog.Any("roots", w.roots), slog.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			if hidden(evt.Name) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err = w.addTree(evt.Name); err != nil {
						logger.LogError("Failed to watch new directory", err, slog.String("path", evt.Name))
					}
					continue
				}
			}
			if !loader.IsArtifact(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] |= evt.Op
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			logger.LogError("fsnotify error", err)
		}
	}
}

// Apply reconciles the target with a batch of changed artifact paths. The current state of
// each file decides what happens, the accumulated ops are only logged.
func (w *Watcher) Apply(ctx context.Context, batch map[string]fsnotify.Op) {
	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := w.apply(ctx, path); err != nil {
			logger.LogError("Hot reload failed", err,
				slog.String("path", path),
				slog.String("op", batch[path].String()),
			)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, path string) error {
	_, statErr := os.Stat(path)
	exists := statErr == nil
	cached, ok := w.target.FindByLocation(path)

	switch {
	case ok && !exists:
		return w.target.Unload(ctx, cached.Kind(), cached.Name())
	case ok:
		_, err := w.target.Reload(ctx, cached.Kind(), cached.Name())
		var verr *errs.ValidationError
		if errors.As(err, &verr) {
			// the unit is unloaded now; the artifact may declare a new name
			if _, lerr := w.target.LoadPath(ctx, path); lerr == nil {
				return nil
			}
		}
		return err
	case exists:
		_, err := w.target.LoadPath(ctx, path)
		return err
	}
	return nil
}
