package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UnitEvent is one persisted lifecycle notification, e.g. "slashCommandReload" for "ping".
type UnitEvent struct {
	bun.BaseModel `bun:"table:unit_events,alias:ue"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Notification string    `bun:"notification,notnull"`
	Kind         string    `bun:"kind,notnull"`
	Name         string    `bun:"name,notnull"`
	Location     string    `bun:"location"`
	Enabled      bool      `bun:"enabled,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
