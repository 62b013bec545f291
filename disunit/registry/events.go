package registry

import (
	"log/slog"
	"slices"

	"github.com/disgoorg/disunit/disunit/unit"
)

type EventType string

const (
	EventLoad   EventType = "Load"
	EventReload EventType = "Reload"
	EventUnload EventType = "Unload"
	EventDeploy EventType = "Deploy"
)

// Event is a lifecycle notification. Unit is the zero value for EventUnload.
type Event[U unit.Unit] struct {
	Kind unit.Kind
	Type EventType
	Name string
	Unit U
}

// QualifiedName is the kind-qualified notification name, e.g. "slashCommandLoad".
func (e Event[U]) QualifiedName() string {
	return e.Kind.Prefix() + string(e.Type)
}

type Listener[U unit.Unit] interface {
	OnUnitEvent(e Event[U])
}

type ListenerFunc[U unit.Unit] func(e Event[U])

func (f ListenerFunc[U]) OnUnitEvent(e Event[U]) {
	f(e)
}

// AddListener subscribes l and returns a func that removes it again.
func (r *Registry[U]) AddListener(l Listener[U]) func() {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	id := r.nextListener
	r.nextListener++
	r.listeners[id] = l
	return func() {
		r.listenersMu.Lock()
		defer r.listenersMu.Unlock()
		delete(r.listeners, id)
	}
}

// emit delivers e to every listener. It must be called without holding a name lock.
func (r *Registry[U]) emit(e Event[U]) {
	r.listenersMu.RLock()
	ids := make([]int, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener[U], 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, r.listeners[id])
	}
	r.listenersMu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Unit listener panic",
						slog.String("type", "error"),
						slog.String("event", e.QualifiedName()),
						slog.String("unit", e.Name),
						slog.Any("panic", rec),
					)
				}
			}()
			l.OnUnitEvent(e)
		}()
	}
}
