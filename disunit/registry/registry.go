package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/unit"
)

const DefaultConcurrency = 8

// Loader is the artifact side of the registry. *loader.Loader implements it.
type Loader interface {
	Load(ctx context.Context, path string) (unit.Definition, error)
	Invalidate(path string)
	Discover(ctx context.Context, root string) ([]string, error)
}

// Builder turns a definition read from location into a unit instance.
type Builder[U unit.Unit] func(def unit.Definition, location string) (U, error)

type Config[U unit.Unit] struct {
	Kind        unit.Kind
	Root        string
	Loader      Loader
	Build       Builder[U]
	Concurrency int
}

// Registry owns the live units of one kind.
type Registry[U unit.Unit] struct {
	kind        unit.Kind
	root        string
	loader      Loader
	build       Builder[U]
	concurrency int

	cache *xsync.MapOf[string, U]
	locks *keyedMutex

	listenersMu  sync.RWMutex
	listeners    map[int]Listener[U]
	nextListener int
}

func New[U unit.Unit](cfg Config[U]) *Registry[U] {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Registry[U]{
		kind:        cfg.Kind,
		root:        cfg.Root,
		loader:      cfg.Loader,
		build:       cfg.Build,
		concurrency: cfg.Concurrency,
		cache:       xsync.NewMapOf[string, U](),
		locks:       newKeyedMutex(),
		listeners:   make(map[int]Listener[U]),
	}
}

func (r *Registry[U]) Kind() unit.Kind { return r.kind }
func (r *Registry[U]) Root() string    { return r.root }
func (r *Registry[U]) Len() int        { return r.cache.Size() }

func (r *Registry[U]) Get(name string) (U, bool) {
	return r.cache.Load(name)
}

// Names returns the cached names in sorted order.
func (r *Registry[U]) Names() []string {
	names := make([]string, 0, r.cache.Size())
	r.cache.Range(func(name string, _ U) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// All returns a snapshot of the cached units sorted by name.
func (r *Registry[U]) All() []U {
	units := make([]U, 0, r.cache.Size())
	r.cache.Range(func(_ string, u U) bool {
		units = append(units, u)
		return true
	})
	sort.Slice(units, func(i, j int) bool { return units[i].Name() < units[j].Name() })
	return units
}

// Suggest returns up to three cached names close to name.
func (r *Registry[U]) Suggest(name string) []string {
	matches := fuzzy.Find(name, r.Names())
	out := make([]string, 0, 3)
	for i := 0; i < len(matches) && i < 3; i++ {
		out = append(out, matches[i].Str)
	}
	return out
}

func (r *Registry[U]) notFound(name string) error {
	return &errs.NotFoundError{Kind: string(r.kind), Name: name, Suggestions: r.Suggest(name)}
}

// read loads and builds the unit at path. Any failure invalidates the artifact so a fixed
// file is read fresh on the next attempt.
func (r *Registry[U]) read(ctx context.Context, path string) (U, error) {
	var zero U
	def, err := r.loader.Load(ctx, path)
	if err != nil {
		r.loader.Invalidate(path)
		var ve *errs.ValidationError
		if errors.As(err, &ve) {
			return zero, &errs.ValidationError{Kind: string(r.kind), Path: path, Reason: ve.Reason}
		}
		return zero, err
	}
	if def.DefinitionKind() != r.kind {
		r.loader.Invalidate(path)
		return zero, &errs.ValidationError{
			Kind:   string(r.kind),
			Name:   def.DefinitionName(),
			Path:   path,
			Reason: fmt.Sprintf("artifact declares kind %q", def.DefinitionKind()),
		}
	}
	u, err := r.build(def, path)
	if err != nil {
		r.loader.Invalidate(path)
		return zero, &errs.ValidationError{Kind: string(r.kind), Name: def.DefinitionName(), Path: path, Reason: err.Error()}
	}
	return u, nil
}

// Load reads the artifact at path and caches the unit it defines.
func (r *Registry[U]) Load(ctx context.Context, path string) (U, error) {
	var zero U
	u, err := r.read(ctx, path)
	if err != nil {
		logger.LogUnit("load", string(r.kind), path, err)
		return zero, err
	}

	name := u.Name()
	unlock := r.locks.Lock(name)
	if existing, exists := r.cache.Load(name); exists {
		unlock()
		if existing.Location() != path {
			r.loader.Invalidate(path)
		}
		err = &errs.ValidationError{
			Kind:   string(r.kind),
			Name:   name,
			Path:   path,
			Reason: fmt.Sprintf("already loaded from %s", existing.Location()),
		}
		logger.LogUnit("load", string(r.kind), name, err)
		return zero, err
	}
	r.cache.Store(name, u)
	unlock()

	logger.LogUnit("load", string(r.kind), name, nil)
	r.emit(Event[U]{Kind: r.kind, Type: EventLoad, Name: name, Unit: u})
	return u, nil
}

// LoadAll loads every artifact under the registry root. Individual failures do not stop the
// walk and are returned together as an *errs.BatchError keyed by path.
func (r *Registry[U]) LoadAll(ctx context.Context) error {
	if r.root == "" {
		slog.Debug("No root configured, skipping", slog.String("type", "unit"), slog.String("kind", string(r.kind)))
		return nil
	}
	paths, err := r.loader.Discover(ctx, r.root)
	if err != nil {
		return &errs.ImportError{Path: r.root, Err: err}
	}

	failures := r.fanOut(paths, func(path string) error {
		_, err := r.Load(ctx, path)
		return err
	})

	logger.LogSystem("Units loaded",
		slog.String("kind", string(r.kind)),
		slog.Int("loaded", len(paths)-len(failures)),
		slog.Int("failed", len(failures)),
	)
	return errs.Batch(string(r.kind)+" loadAll", failures)
}

// Unload removes name from the cache and invalidates its artifact.
func (r *Registry[U]) Unload(_ context.Context, name string) error {
	unlock := r.locks.Lock(name)
	u, ok := r.cache.LoadAndDelete(name)
	if ok {
		r.loader.Invalidate(u.Location())
	}
	unlock()

	if !ok {
		err := r.notFound(name)
		logger.LogUnit("unload", string(r.kind), name, err)
		return err
	}

	logger.LogUnit("unload", string(r.kind), name, nil)
	r.emit(Event[U]{Kind: r.kind, Type: EventUnload, Name: name})
	return nil
}

// UnloadAll unloads every cached unit and returns how many were removed.
func (r *Registry[U]) UnloadAll(ctx context.Context) int {
	names := r.Names()
	var (
		mu       sync.Mutex
		unloaded int
	)
	r.fanOut(names, func(name string) error {
		if err := r.Unload(ctx, name); err != nil {
			// a concurrent unload got there first
			return nil
		}
		mu.Lock()
		unloaded++
		mu.Unlock()
		return nil
	})
	return unloaded
}

// Reload re-reads the artifact name was loaded from. If that fails the unit stays unloaded.
func (r *Registry[U]) Reload(ctx context.Context, name string) (U, error) {
	var zero U
	unlock := r.locks.Lock(name)
	old, ok := r.cache.Load(name)
	if !ok {
		unlock()
		err := r.notFound(name)
		logger.LogUnit("reload", string(r.kind), name, err)
		return zero, err
	}

	location := old.Location()
	r.cache.Delete(name)
	r.loader.Invalidate(location)

	u, err := r.read(ctx, location)
	if err == nil && u.Name() != name {
		r.loader.Invalidate(location)
		err = &errs.ValidationError{
			Kind:   string(r.kind),
			Name:   name,
			Path:   location,
			Reason: fmt.Sprintf("artifact now declares name %q, load it instead", u.Name()),
		}
	}
	if err != nil {
		unlock()
		logger.LogUnit("reload", string(r.kind), name, err)
		r.emit(Event[U]{Kind: r.kind, Type: EventUnload, Name: name})
		return zero, err
	}

	r.cache.Store(name, u)
	unlock()

	logger.LogUnit("reload", string(r.kind), name, nil)
	r.emit(Event[U]{Kind: r.kind, Type: EventReload, Name: name, Unit: u})
	return u, nil
}

// ReloadAll reloads every cached unit and aggregates failures keyed by name.
func (r *Registry[U]) ReloadAll(ctx context.Context) error {
	names := r.Names()
	failures := r.fanOut(names, func(name string) error {
		_, err := r.Reload(ctx, name)
		return err
	})
	return errs.Batch(string(r.kind)+" reloadAll", failures)
}

// NotifyDeploy raises the deploy notification for u.
func (r *Registry[U]) NotifyDeploy(u U) {
	r.emit(Event[U]{Kind: r.kind, Type: EventDeploy, Name: u.Name(), Unit: u})
}

// fanOut runs fn for every key with bounded concurrency and collects the failures.
func (r *Registry[U]) fanOut(keys []string, fn func(key string) error) map[string]error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures = make(map[string]error)
	)
	g.SetLimit(r.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			if err := fn(key); err != nil {
				mu.Lock()
				failures[key] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}
