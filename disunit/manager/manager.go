package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/guard"
	"github.com/disgoorg/disunit/disunit/registry"
	"github.com/disgoorg/disunit/disunit/unit"
)

var ErrDeployNotConfigured = errors.New("deployment is not configured")

type Roots struct {
	Slash       string `toml:"slash"`
	ContextMenu string `toml:"context_menu"`
	Events      string `toml:"events"`
}

type Config struct {
	Loader      registry.Loader
	Binder      unit.Binder
	Roots       Roots
	Concurrency int
	Evaluator   *guard.Evaluator
	// Coordinator may be nil, deploy operations then fail with ErrDeployNotConfigured.
	Coordinator *deploy.Coordinator
}

// Manager composes the per-kind registries with the guard evaluator and the deployment
// coordinator. It forwards every registry notification under a kind-qualified name.
type Manager struct {
	Slash       *CommandManager[*unit.SlashCommand]
	ContextMenu *CommandManager[*unit.ContextMenu]
	Events      *EventManager

	loader      registry.Loader
	evaluator   *guard.Evaluator
	coordinator *deploy.Coordinator
	mux         *handler.Mux

	listenersMu  sync.RWMutex
	listeners    map[int]Listener
	nextListener int
}

func New(cfg Config) *Manager {
	if cfg.Evaluator == nil {
		cfg.Evaluator = guard.NewEvaluator(nil, nil)
	}
	m := &Manager{
		loader:      cfg.Loader,
		evaluator:   cfg.Evaluator,
		coordinator: cfg.Coordinator,
		listeners:   make(map[int]Listener),
	}

	m.Slash = &CommandManager[*unit.SlashCommand]{
		Registry: registry.New(registry.Config[*unit.SlashCommand]{
			Kind:        unit.KindSlash,
			Root:        cfg.Roots.Slash,
			Loader:      cfg.Loader,
			Concurrency: cfg.Concurrency,
			Build: func(def unit.Definition, location string) (*unit.SlashCommand, error) {
				return unit.NewSlashCommand(def.(*unit.SlashDefinition), location, cfg.Binder)
			},
		}),
		m: m,
	}
	m.ContextMenu = &CommandManager[*unit.ContextMenu]{
		Registry: registry.New(registry.Config[*unit.ContextMenu]{
			Kind:        unit.KindContextMenu,
			Root:        cfg.Roots.ContextMenu,
			Loader:      cfg.Loader,
			Concurrency: cfg.Concurrency,
			Build: func(def unit.Definition, location string) (*unit.ContextMenu, error) {
				return unit.NewContextMenu(def.(*unit.ContextMenuDefinition), location, cfg.Binder)
			},
		}),
		m: m,
	}
	m.Events = &EventManager{
		Registry: registry.New(registry.Config[*unit.Event]{
			Kind:        unit.KindEvent,
			Root:        cfg.Roots.Events,
			Loader:      cfg.Loader,
			Concurrency: cfg.Concurrency,
			Build: func(def unit.Definition, location string) (*unit.Event, error) {
				return unit.NewEvent(def.(*unit.EventDefinition), location, cfg.Binder)
			},
		}),
	}

	forward(m, m.Slash.Registry)
	forward(m, m.ContextMenu.Registry)
	forward(m, m.Events.Registry)
	m.mux = m.newRouter()
	return m
}

// forward re-emits the notifications of r on the manager and drops the cooldowns of units
// that are replaced or gone.
func forward[U unit.Unit](m *Manager, r *registry.Registry[U]) {
	r.AddListener(registry.ListenerFunc[U](func(e registry.Event[U]) {
		if e.Type == registry.EventUnload || e.Type == registry.EventReload {
			m.evaluator.Cooldowns().ClearUnit(string(e.Kind) + ":" + e.Name)
		}
		n := Notification{
			Name:     e.QualifiedName(),
			Kind:     e.Kind,
			Type:     e.Type,
			UnitName: e.Name,
		}
		if e.Type != registry.EventUnload {
			n.Unit = e.Unit
		}
		m.emit(n)
	}))
}

func (m *Manager) Evaluator() *guard.Evaluator {
	return m.evaluator
}

func (m *Manager) Coordinator() *deploy.Coordinator {
	return m.coordinator
}

// Lookup returns the cached unit of kind named name.
func (m *Manager) Lookup(kind unit.Kind, name string) (unit.Unit, bool) {
	switch kind {
	case unit.KindSlash:
		return lookup(m.Slash.Registry, name)
	case unit.KindContextMenu:
		return lookup(m.ContextMenu.Registry, name)
	case unit.KindEvent:
		return lookup(m.Events.Registry, name)
	}
	return nil, false
}

// asUnit drops the typed nil a failed registry call returns.
func asUnit[U unit.Unit](u U, err error) (unit.Unit, error) {
	if err != nil {
		return nil, err
	}
	return u, nil
}

func lookup[U unit.Unit](r *registry.Registry[U], name string) (unit.Unit, bool) {
	u, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return u, true
}

// Units lists every cached unit ordered by kind, then name.
func (m *Manager) Units() []unit.Unit {
	out := make([]unit.Unit, 0, m.Slash.Len()+m.ContextMenu.Len()+m.Events.Len())
	for _, u := range m.Slash.All() {
		out = append(out, u)
	}
	for _, u := range m.ContextMenu.All() {
		out = append(out, u)
	}
	for _, u := range m.Events.All() {
		out = append(out, u)
	}
	return out
}

// FindByLocation returns the cached unit that was loaded from path.
func (m *Manager) FindByLocation(path string) (unit.Unit, bool) {
	for _, u := range m.Units() {
		if u.Location() == path {
			return u, true
		}
	}
	return nil, false
}

// LoadPath loads the artifact at path into the registry of the kind it declares.
func (m *Manager) LoadPath(ctx context.Context, path string) (unit.Unit, error) {
	def, err := m.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	switch def.DefinitionKind() {
	case unit.KindSlash:
		return asUnit(m.Slash.Load(ctx, path))
	case unit.KindContextMenu:
		return asUnit(m.ContextMenu.Load(ctx, path))
	case unit.KindEvent:
		return asUnit(m.Events.Load(ctx, path))
	}
	m.loader.Invalidate(path)
	return nil, &errs.ValidationError{Kind: "unit", Path: path, Reason: fmt.Sprintf("unknown kind %q", def.DefinitionKind())}
}

// Reload reloads the unit of kind named name.
func (m *Manager) Reload(ctx context.Context, kind unit.Kind, name string) (unit.Unit, error) {
	switch kind {
	case unit.KindSlash:
		return asUnit(m.Slash.Reload(ctx, name))
	case unit.KindContextMenu:
		return asUnit(m.ContextMenu.Reload(ctx, name))
	case unit.KindEvent:
		return asUnit(m.Events.Reload(ctx, name))
	}
	return nil, &errs.NotFoundError{Kind: string(kind), Name: name}
}

func (m *Manager) Unload(ctx context.Context, kind unit.Kind, name string) error {
	switch kind {
	case unit.KindSlash:
		return m.Slash.Unload(ctx, name)
	case unit.KindContextMenu:
		return m.ContextMenu.Unload(ctx, name)
	case unit.KindEvent:
		return m.Events.Unload(ctx, name)
	}
	return &errs.NotFoundError{Kind: string(kind), Name: name}
}

// LoadAll loads every kind, events first so that ready handlers exist before commands.
func (m *Manager) LoadAll(ctx context.Context) error {
	return errors.Join(
		m.Events.LoadAll(ctx),
		m.Slash.LoadAll(ctx),
		m.ContextMenu.LoadAll(ctx),
	)
}

func (m *Manager) ReloadAll(ctx context.Context) error {
	return errors.Join(
		m.Events.ReloadAll(ctx),
		m.Slash.ReloadAll(ctx),
		m.ContextMenu.ReloadAll(ctx),
	)
}

func (m *Manager) UnloadAll(ctx context.Context) int {
	return m.Slash.UnloadAll(ctx) + m.ContextMenu.UnloadAll(ctx) + m.Events.UnloadAll(ctx)
}

// Deployables returns every cached slash and context-menu unit. Both kinds share one
// remote namespace and are always reconciled together.
func (m *Manager) Deployables() []unit.Deployable {
	out := make([]unit.Deployable, 0, m.Slash.Len()+m.ContextMenu.Len())
	for _, u := range m.Slash.All() {
		out = append(out, u)
	}
	for _, u := range m.ContextMenu.All() {
		out = append(out, u)
	}
	return out
}

// DeployAll reconciles every scope with the cached command units and raises a deploy
// notification for each deployed unit once every scope succeeded.
func (m *Manager) DeployAll(ctx context.Context) ([]deploy.Report, error) {
	if m.coordinator == nil {
		return nil, ErrDeployNotConfigured
	}
	slash, menus := m.Slash.All(), m.ContextMenu.All()
	units := make([]unit.Deployable, 0, len(slash)+len(menus))
	for _, u := range slash {
		units = append(units, u)
	}
	for _, u := range menus {
		units = append(units, u)
	}

	reports, err := m.coordinator.DeployAll(ctx, units)
	if err != nil {
		return reports, err
	}
	for _, u := range slash {
		if u.DeployEnabled() {
			m.Slash.NotifyDeploy(u)
		}
	}
	for _, u := range menus {
		if u.DeployEnabled() {
			m.ContextMenu.NotifyDeploy(u)
		}
	}
	return reports, nil
}

// Plan reports what DeployAll would change.
func (m *Manager) Plan(ctx context.Context) ([]deploy.Report, error) {
	if m.coordinator == nil {
		return nil, ErrDeployNotConfigured
	}
	return m.coordinator.Plan(ctx, m.Deployables())
}

// CommandManager exposes a command registry together with its deploy operations.
type CommandManager[U unit.Deployable] struct {
	*registry.Registry[U]
	m *Manager
}

// Deploy upserts the cached unit named name into every deployment scope.
func (c *CommandManager[U]) Deploy(ctx context.Context, name string) error {
	if c.m.coordinator == nil {
		return ErrDeployNotConfigured
	}
	u, ok := c.Get(name)
	if !ok {
		return &errs.NotFoundError{Kind: string(c.Kind()), Name: name, Suggestions: c.Suggest(name)}
	}
	if err := c.m.coordinator.Deploy(ctx, u); err != nil {
		return err
	}
	c.NotifyDeploy(u)
	return nil
}

// DeployAll reconciles every command kind, not only this one.
func (c *CommandManager[U]) DeployAll(ctx context.Context) ([]deploy.Report, error) {
	return c.m.DeployAll(ctx)
}

type EventManager struct {
	*registry.Registry[*unit.Event]
}

// Bound returns the enabled event units listening to the gateway event name.
func (e *EventManager) Bound(event string) []*unit.Event {
	var out []*unit.Event
	for _, u := range e.All() {
		if u.Enabled() && u.EventName() == event {
			out = append(out, u)
		}
	}
	return out
}
