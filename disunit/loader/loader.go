package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

const DefaultCacheSize = 1024

type cachedDefinition struct {
	def      unit.Definition
	loadedAt time.Time
}

// generation identifies a path's cache state. A Load only caches what it read if the
// generation it started under is still current.
type generation struct {
	epoch uint64
	path  uint64
}

// Loader reads unit artifacts through a Source and caches the decoded definitions by path.
// A cached definition is served until Invalidate is called for its path.
type Loader struct {
	source Source
	cache  *lru.Cache

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

func New(source Source, cacheSize int) *Loader {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New(cacheSize)
	return &Loader{
		source: source,
		cache:  cache,
		gens:   make(map[string]uint64),
	}
}

func (l *Loader) generation(path string) generation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return generation{epoch: l.epoch, path: l.gens[path]}
}

// Load returns the definition at path, reading and decoding it on a cache miss.
// Read failures are reported as *errs.ImportError, decode failures as *errs.ValidationError.
func (l *Loader) Load(ctx context.Context, path string) (unit.Definition, error) {
	if v, ok := l.cache.Get(path); ok {
		return v.(cachedDefinition).def, nil
	}

	gen := l.generation(path)
	data, err := l.source.Read(ctx, path)
	if err != nil {
		return nil, &errs.ImportError{Path: path, Err: err}
	}
	def, err := Decode(path, data)
	if err != nil {
		return nil, &errs.ValidationError{Kind: "unit", Path: path, Reason: err.Error()}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != (generation{epoch: l.epoch, path: l.gens[path]}) {
		// invalidated while reading, the next Load reads it again
		return def, nil
	}
	l.cache.Add(path, cachedDefinition{def: def, loadedAt: time.Now()})
	slog.Debug("Definition cached",
		slog.String("type", "unit"),
		slog.String("path", path),
		slog.String("kind", string(def.DefinitionKind())),
	)
	return def, nil
}

// Invalidate drops the cached definition for path so the next Load reads it again.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gens[path]++
	l.cache.Remove(path)
}

// Discover lists every artifact under root.
func (l *Loader) Discover(ctx context.Context, root string) ([]string, error) {
	return l.source.List(ctx, root)
}

func (l *Loader) Cached(path string) bool {
	return l.cache.Contains(path)
}

func (l *Loader) Len() int {
	return l.cache.Len()
}

func (l *Loader) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	clear(l.gens)
	l.cache.Purge()
}
