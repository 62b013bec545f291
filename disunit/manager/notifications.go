package manager

import (
	"log/slog"
	"slices"

	"github.com/disgoorg/disunit/disunit/registry"
	"github.com/disgoorg/disunit/disunit/unit"
)

// Notification is a registry lifecycle event re-exposed by the manager. Name is kind
// qualified, e.g. "slashCommandReload" or "eventUnload". Unit is nil for unloads.
type Notification struct {
	Name     string
	Kind     unit.Kind
	Type     registry.EventType
	UnitName string
	Unit     unit.Unit
}

type Listener interface {
	OnNotification(n Notification)
}

type ListenerFunc func(n Notification)

func (f ListenerFunc) OnNotification(n Notification) {
	f(n)
}

// AddListener subscribes l to every kind and returns a func removing it again.
func (m *Manager) AddListener(l Listener) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	id := m.nextListener
	m.nextListener++
	m.listeners[id] = l
	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

// On subscribes f to the notifications with the given qualified name only.
func (m *Manager) On(name string, f func(n Notification)) func() {
	return m.AddListener(ListenerFunc(func(n Notification) {
		if n.Name == name {
			f(n)
		}
	}))
}

func (m *Manager) emit(n Notification) {
	m.listenersMu.RLock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.listenersMu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Manager listener panic",
						slog.String("type", "error"),
						slog.String("notification", n.Name),
						slog.String("unit", n.UnitName),
						slog.Any("panic", rec),
					)
				}
			}()
			l.OnNotification(n)
		}()
	}
}
