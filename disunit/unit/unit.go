package unit

import (
	"context"
	"path/filepath"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

type Kind string

const (
	KindSlash       Kind = "slash"
	KindContextMenu Kind = "contextMenu"
	KindEvent       Kind = "event"
)

// Prefix is the kind qualifier used for lifecycle notification names.
func (k Kind) Prefix() string {
	if k == KindSlash {
		return "slashCommand"
	}
	return string(k)
}

func (k Kind) Valid() bool {
	switch k {
	case KindSlash, KindContextMenu, KindEvent:
		return true
	}
	return false
}

// Command and component handlers are plain disgo handler funcs; the request context travels
// in the event's Ctx field.
type (
	CommandHandler   = handler.CommandHandler
	ComponentHandler = handler.ComponentHandler
	EventHandler     func(ctx context.Context, e bot.Event) error
)

// Binder resolves handler ids to compiled handlers.
type Binder interface {
	Command(id string) (CommandHandler, bool)
	Component(id string) (ComponentHandler, bool)
	Event(id string) (EventHandler, bool)
}

// Record is the plain attribute record of a unit.
type Record map[string]any

// Unit is the shape shared by every loadable kind. Units are immutable once built.
type Unit interface {
	Kind() Kind
	Name() string
	Enabled() bool
	Location() string
	Category() string
	HandlerID() string
	Serialize() Record
}

// Guarded units run through the guard evaluator before their handler.
type Guarded interface {
	Unit
	Guards() Guards
	Handle(e *handler.CommandEvent) error
	HandleComponent(e *handler.ComponentEvent) error
}

// Deployable units have a remote command record.
type Deployable interface {
	Guarded
	DeployEnabled() bool
	CommandType() discord.ApplicationCommandType
	Command() discord.ApplicationCommandCreate
}

type Experiment struct {
	Required bool
	ID       *int
}

type Guards struct {
	Cooldown          time.Duration
	ClientPermissions []string
	UserPermissions   []string
	GuildOnly         bool
	DevOnly           bool
	OwnerOnly         bool
	BetaOnly          bool
	PremiumOnly       bool
	NSFW              bool
	ChannelOnly       []discord.ChannelType
	Experiment        Experiment
	Defer             bool
	Ephemeral         bool
	CustomID          string
}

func (g Guards) record(r Record) {
	r["cooldown"] = int(g.Cooldown / time.Second)
	r["clientPermissions"] = g.ClientPermissions
	r["userPermissions"] = g.UserPermissions
	r["guildOnly"] = g.GuildOnly
	r["devOnly"] = g.DevOnly
	r["ownerOnly"] = g.OwnerOnly
	r["betaOnly"] = g.BetaOnly
	r["premiumOnly"] = g.PremiumOnly
	r["nsfw"] = g.NSFW
	channels := make([]string, 0, len(g.ChannelOnly))
	for _, c := range g.ChannelOnly {
		channels = append(channels, ChannelTypeName(c))
	}
	r["channelOnly"] = channels
	var id any
	if g.Experiment.ID != nil {
		id = *g.Experiment.ID
	}
	r["experiment"] = map[string]any{"required": g.Experiment.Required, "id": id}
	r["defer"] = g.Defer
	r["ephemeral"] = g.Ephemeral
	if g.CustomID != "" {
		r["customId"] = g.CustomID
	} else {
		r["customId"] = nil
	}
}

type base struct {
	name      string
	handlerID string
	enabled   bool
	location  string
	category  string
}

func newBase(c Common, location string) base {
	handlerID := c.Handler
	if handlerID == "" {
		handlerID = c.Name
	}
	return base{
		name:      c.Name,
		handlerID: handlerID,
		enabled:   c.Enabled == nil || *c.Enabled,
		location:  location,
		category:  CategoryOf(location),
	}
}

func (b base) Name() string      { return b.name }
func (b base) Enabled() bool     { return b.enabled }
func (b base) Location() string  { return b.location }
func (b base) Category() string  { return b.category }
func (b base) HandlerID() string { return b.handlerID }

func (b base) record(kind Kind) Record {
	return Record{
		"kind":     string(kind),
		"name":     b.name,
		"handler":  b.handlerID,
		"enabled":  b.enabled,
		"location": b.location,
		"category": b.category,
		"dirname":  filepath.Dir(b.location),
	}
}

// CategoryOf derives the category of an artifact from its containing directory.
func CategoryOf(location string) string {
	if location == "" {
		return ""
	}
	dir := filepath.Base(filepath.Dir(location))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}
