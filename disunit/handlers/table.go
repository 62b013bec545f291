package handlers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/disgoorg/disunit/disunit/unit"
)

// Table holds the compiled handlers unit definitions bind to by id. Registered handlers are
// wrapped with the logging middleware.
type Table struct {
	mu         sync.RWMutex
	commands   map[string]unit.CommandHandler
	components map[string]unit.ComponentHandler
	events     map[string]unit.EventHandler
}

var _ unit.Binder = (*Table)(nil)

func New() *Table {
	return &Table{
		commands:   make(map[string]unit.CommandHandler),
		components: make(map[string]unit.ComponentHandler),
		events:     make(map[string]unit.EventHandler),
	}
}

func register[H any](mu *sync.RWMutex, m map[string]H, what string, id string, h H) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := m[id]; ok {
		panic(fmt.Sprintf("%s handler %q registered twice", what, id))
	}
	m[id] = h
}

// HandleCommand registers a command handler under id. It panics when id is taken.
func (t *Table) HandleCommand(id string, h unit.CommandHandler) *Table {
	register(&t.mu, t.commands, "command", id, WrapWithLogging(id, h))
	return t
}

func (t *Table) HandleComponent(id string, h unit.ComponentHandler) *Table {
	register(&t.mu, t.components, "component", id, WrapComponentWithLogging(id, h))
	return t
}

func (t *Table) HandleEvent(id string, h unit.EventHandler) *Table {
	register(&t.mu, t.events, "event", id, WrapEventWithLogging(id, h))
	return t
}

func (t *Table) Command(id string) (unit.CommandHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.commands[id]
	return h, ok
}

func (t *Table) Component(id string) (unit.ComponentHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.components[id]
	return h, ok
}

func (t *Table) Event(id string) (unit.EventHandler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.events[id]
	return h, ok
}

// IDs lists every registered id per handler type, sorted.
func (t *Table) IDs() (commands, components, events []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return keys(t.commands), keys(t.components), keys(t.events)
}

func keys[H any](m map[string]H) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
