package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

type stubUnit struct {
	unit.Unit
	name     string
	location string
}

func (s stubUnit) Kind() unit.Kind        { return unit.KindSlash }
func (s stubUnit) Name() string           { return s.name }
func (s stubUnit) Location() string       { return s.location }
func (s stubUnit) Serialize() unit.Record { return nil }

type fakeTarget struct {
	mu        sync.Mutex
	cached    map[string]stubUnit
	calls     []string
	reloadErr error
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{cached: map[string]stubUnit{}}
}

func (f *fakeTarget) log(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeTarget) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTarget) FindByLocation(path string) (unit.Unit, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.cached[path]
	return u, ok
}

func (f *fakeTarget) LoadPath(_ context.Context, path string) (unit.Unit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("load " + filepath.Base(path))
	u := stubUnit{name: filepath.Base(path), location: path}
	f.cached[path] = u
	return u, nil
}

func (f *fakeTarget) Reload(_ context.Context, _ unit.Kind, name string) (unit.Unit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("reload " + name)
	if f.reloadErr != nil {
		for path, u := range f.cached {
			if u.name == name {
				delete(f.cached, path)
			}
		}
		return nil, f.reloadErr
	}
	return nil, nil
}

func (f *fakeTarget) Unload(_ context.Context, _ unit.Kind, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("unload " + name)
	for path, u := range f.cached {
		if u.name == name {
			delete(f.cached, path)
		}
	}
	return nil
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	edited := filepath.Join(dir, "ping.toml")
	created := filepath.Join(dir, "ban.toml")
	removed := filepath.Join(dir, "old.toml")
	require.NoError(t, os.WriteFile(edited, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(created, []byte("x"), 0o644))

	target := newFakeTarget()
	target.cached[edited] = stubUnit{name: "ping", location: edited}
	target.cached[removed] = stubUnit{name: "old", location: removed}

	w := &Watcher{target: target}
	w.Apply(context.Background(), map[string]fsnotify.Op{
		edited:  fsnotify.Write,
		created: fsnotify.Create,
		removed: fsnotify.Remove,
		filepath.Join(dir, "never.toml"): fsnotify.Create | fsnotify.Remove,
	})

	assert.Equal(t, []string{"load ban.toml", "unload old", "reload ping"}, target.Calls())
}

func TestApplyRenamedUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ping.toml")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	target := newFakeTarget()
	target.cached[path] = stubUnit{name: "ping", location: path}
	target.reloadErr = &errs.ValidationError{Kind: "slash", Name: "ping", Reason: "renamed"}

	w := &Watcher{target: target}
	w.Apply(context.Background(), map[string]fsnotify.Op{path: fsnotify.Write})

	assert.Equal(t, []string{"reload ping", "load ping.toml"}, target.Calls())
}

func TestRunDebounces(t *testing.T) {
	dir := t.TempDir()
	target := newFakeTarget()
	w, err := New(target, []string{dir, dir, ""}, 50*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, w.roots, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	path := filepath.Join(dir, "ping.toml")
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		return len(target.Calls()) > 0
	}, 5*time.Second, 20*time.Millisecond)
	calls := target.Calls()
	assert.Equal(t, "load ping.toml", calls[0])
	assert.NotContains(t, calls, "load notes.txt")

	cancel()
	require.NoError(t, <-done)
	assert.Error(t, w.Run(context.Background()))
}
