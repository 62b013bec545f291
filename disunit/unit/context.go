package unit

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
)

type ContextMenu struct {
	base
	guards            Guards
	commandType       discord.ApplicationCommandType
	nameLocalizations map[discord.Locale]string
	defaultEnabled    bool
	deployEnabled     bool

	handler   CommandHandler
	component ComponentHandler
}

var _ Deployable = (*ContextMenu)(nil)

func NewContextMenu(d *ContextMenuDefinition, location string, binder Binder) (*ContextMenu, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	guards, err := d.GuardDefinition.guards()
	if err != nil {
		return nil, err
	}
	c := &ContextMenu{
		base:              newBase(d.Common, location),
		guards:            guards,
		commandType:       discord.ApplicationCommandTypeUser,
		nameLocalizations: locales(d.NameLocalizations),
		defaultEnabled:    d.DefaultEnabled == nil || *d.DefaultEnabled,
		deployEnabled:     d.DeployEnabled == nil || *d.DeployEnabled,
	}
	if d.Type == "message" {
		c.commandType = discord.ApplicationCommandTypeMessage
	}
	if c.handler, c.component, err = bindCommand(binder, c.handlerID, guards.CustomID); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ContextMenu) Kind() Kind                                   { return KindContextMenu }
func (c *ContextMenu) Guards() Guards                               { return c.guards }
func (c *ContextMenu) DefaultEnabled() bool                         { return c.defaultEnabled }
func (c *ContextMenu) DeployEnabled() bool                          { return c.deployEnabled }
func (c *ContextMenu) CommandType() discord.ApplicationCommandType  { return c.commandType }
func (c *ContextMenu) NameLocalizations() map[discord.Locale]string { return c.nameLocalizations }

func (c *ContextMenu) Handle(e *handler.CommandEvent) error {
	return c.handler(e)
}

func (c *ContextMenu) HandleComponent(e *handler.ComponentEvent) error {
	if c.component == nil {
		return fmt.Errorf("context menu %q has no component handler", c.name)
	}
	return c.component(e)
}

func (c *ContextMenu) Command() discord.ApplicationCommandCreate {
	perms := memberPermissions(c.defaultEnabled, c.guards.UserPermissions)
	if c.commandType == discord.ApplicationCommandTypeMessage {
		return discord.MessageCommandCreate{
			Name:                     c.name,
			NameLocalizations:        c.nameLocalizations,
			DefaultMemberPermissions: perms,
			NSFW:                     json.Ptr(c.guards.NSFW),
		}
	}
	return discord.UserCommandCreate{
		Name:                     c.name,
		NameLocalizations:        c.nameLocalizations,
		DefaultMemberPermissions: perms,
		NSFW:                     json.Ptr(c.guards.NSFW),
	}
}

func (c *ContextMenu) Serialize() Record {
	r := c.record(KindContextMenu)
	c.guards.record(r)
	if c.commandType == discord.ApplicationCommandTypeMessage {
		r["type"] = "message"
	} else {
		r["type"] = "user"
	}
	r["nameLocalizations"] = c.nameLocalizations
	r["defaultEnabled"] = c.defaultEnabled
	r["deployEnabled"] = c.deployEnabled
	return r
}
