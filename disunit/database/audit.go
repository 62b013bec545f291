package database

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/disgoorg/disunit/disunit/database/models"
	"github.com/disgoorg/disunit/disunit/database/repositories"
	"github.com/disgoorg/disunit/disunit/manager"
)

const DefaultAuditQueue = 256

// AuditListener persists manager notifications as unit_events rows. Notifications are
// queued and written by Run, so OnNotification never blocks the lifecycle operation
// emitting them. When the queue is full the notification is dropped and counted.
type AuditListener struct {
	repo    repositories.UnitEventRepository
	queue   chan *models.UnitEvent
	dropped atomic.Int64
}

var _ manager.Listener = (*AuditListener)(nil)

func NewAuditListener(repo repositories.UnitEventRepository, size int) *AuditListener {
	if size <= 0 {
		size = DefaultAuditQueue
	}
	return &AuditListener{
		repo:  repo,
		queue: make(chan *models.UnitEvent, size),
	}
}

func (a *AuditListener) OnNotification(n manager.Notification) {
	ev := &models.UnitEvent{
		Notification: n.Name,
		Kind:         string(n.Kind),
		Name:         n.UnitName,
	}
	if n.Unit != nil {
		ev.Location = n.Unit.Location()
		ev.Enabled = n.Unit.Enabled()
	}

	select {
	case a.queue <- ev:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many notifications were discarded because the queue was full.
func (a *AuditListener) Dropped() int64 {
	return a.dropped.Load()
}

// Run writes queued notifications until ctx is done, then drains what is left.
func (a *AuditListener) Run(ctx context.Context) {
	for {
		select {
		case ev := <-a.queue:
			a.write(ctx, ev)
		case <-ctx.Done():
			a.drain()
			return
		}
	}
}

func (a *AuditListener) drain() {
	for {
		select {
		case ev := <-a.queue:
			a.write(context.Background(), ev)
		default:
			return
		}
	}
}

func (a *AuditListener) write(ctx context.Context, ev *models.UnitEvent) {
	if err := a.repo.Create(ctx, ev); err != nil {
		slog.Error("Failed to persist unit event",
			slog.String("type", "db"),
			slog.String("notification", ev.Notification),
			slog.String("unit", ev.Name),
			slog.Any("error", err),
		)
	}
}
