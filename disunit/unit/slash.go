package unit

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/json"
)

type SlashCommand struct {
	base
	guards                   Guards
	description              string
	usage                    string
	nameLocalizations        map[discord.Locale]string
	descriptionLocalizations map[discord.Locale]string
	options                  []discord.ApplicationCommandOption
	defaultEnabled           bool
	deployEnabled            bool
	hidden                   bool

	handler   CommandHandler
	component ComponentHandler
}

var _ Deployable = (*SlashCommand)(nil)

// NewSlashCommand builds a slash command from a validated definition. The registry is the
// only caller; location is the artifact the definition was read from.
func NewSlashCommand(d *SlashDefinition, location string, binder Binder) (*SlashCommand, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	options, err := buildOptions(d.Options)
	if err != nil {
		return nil, err
	}
	guards, err := d.GuardDefinition.guards()
	if err != nil {
		return nil, err
	}
	s := &SlashCommand{
		base:                     newBase(d.Common, location),
		guards:                   guards,
		description:              d.Description,
		usage:                    d.Usage,
		nameLocalizations:        locales(d.NameLocalizations),
		descriptionLocalizations: locales(d.DescriptionLocalizations),
		options:                  options,
		defaultEnabled:           d.DefaultEnabled == nil || *d.DefaultEnabled,
		deployEnabled:            d.DeployEnabled == nil || *d.DeployEnabled,
		hidden:                   d.Hidden,
	}
	if s.handler, s.component, err = bindCommand(binder, s.handlerID, guards.CustomID); err != nil {
		return nil, err
	}
	return s, nil
}

func bindCommand(binder Binder, id string, customID string) (CommandHandler, ComponentHandler, error) {
	h, ok := binder.Command(id)
	if !ok {
		return nil, nil, fmt.Errorf("no command handler registered as %q", id)
	}
	if customID == "" {
		return h, nil, nil
	}
	c, ok := binder.Component(id)
	if !ok {
		return nil, nil, fmt.Errorf("custom_id %q set but no component handler registered as %q", customID, id)
	}
	return h, c, nil
}

func (g GuardDefinition) guards() (Guards, error) {
	channels, err := channelTypes(g.ChannelOnly)
	if err != nil {
		return Guards{}, err
	}
	out := Guards{
		Cooldown:          time.Duration(g.Cooldown) * time.Second,
		ClientPermissions: g.ClientPermissions,
		UserPermissions:   g.UserPermissions,
		GuildOnly:         g.GuildOnly,
		DevOnly:           g.DevOnly,
		OwnerOnly:         g.OwnerOnly,
		BetaOnly:          g.BetaOnly,
		PremiumOnly:       g.PremiumOnly,
		NSFW:              g.NSFW,
		ChannelOnly:       channels,
		Defer:             g.Defer,
		Ephemeral:         g.Ephemeral,
		CustomID:          g.CustomID,
	}
	if g.Experiment != nil {
		out.Experiment = Experiment{Required: g.Experiment.Required, ID: g.Experiment.ID}
	}
	return out, nil
}

func (s *SlashCommand) Kind() Kind                                    { return KindSlash }
func (s *SlashCommand) Guards() Guards                                { return s.guards }
func (s *SlashCommand) Description() string                           { return s.description }
func (s *SlashCommand) Usage() string                                 { return s.usage }
func (s *SlashCommand) Hidden() bool                                  { return s.hidden }
func (s *SlashCommand) DefaultEnabled() bool                          { return s.defaultEnabled }
func (s *SlashCommand) DeployEnabled() bool                           { return s.deployEnabled }
func (s *SlashCommand) Options() []discord.ApplicationCommandOption   { return s.options }
func (s *SlashCommand) CommandType() discord.ApplicationCommandType   { return discord.ApplicationCommandTypeSlash }
func (s *SlashCommand) NameLocalizations() map[discord.Locale]string  { return s.nameLocalizations }
func (s *SlashCommand) DescriptionLocalizations() map[discord.Locale]string {
	return s.descriptionLocalizations
}

func (s *SlashCommand) Handle(e *handler.CommandEvent) error {
	return s.handler(e)
}

func (s *SlashCommand) HandleComponent(e *handler.ComponentEvent) error {
	if s.component == nil {
		return fmt.Errorf("slash command %q has no component handler", s.name)
	}
	return s.component(e)
}

// Command builds the remote record for this command.
func (s *SlashCommand) Command() discord.ApplicationCommandCreate {
	return discord.SlashCommandCreate{
		Name:                     s.name,
		NameLocalizations:        s.nameLocalizations,
		Description:              s.description,
		DescriptionLocalizations: s.descriptionLocalizations,
		Options:                  s.options,
		DefaultMemberPermissions: memberPermissions(s.defaultEnabled, s.guards.UserPermissions),
		NSFW:                     json.Ptr(s.guards.NSFW),
	}
}

func (s *SlashCommand) Serialize() Record {
	r := s.record(KindSlash)
	s.guards.record(r)
	r["description"] = s.description
	r["usage"] = s.usage
	r["nameLocalizations"] = s.nameLocalizations
	r["descriptionLocalizations"] = s.descriptionLocalizations
	r["options"] = s.options
	r["defaultEnabled"] = s.defaultEnabled
	r["deployEnabled"] = s.deployEnabled
	r["hidden"] = s.hidden
	return r
}

// memberPermissions maps defaultEnabled and userPermissions onto the remote default member
// permissions. A disabled default restricts the command to administrators.
func memberPermissions(defaultEnabled bool, userPermissions []string) *json.Nullable[discord.Permissions] {
	if !defaultEnabled {
		return json.NewNullablePtr(discord.Permissions(0))
	}
	if len(userPermissions) == 0 {
		return nil
	}
	set, err := PermissionSet(userPermissions)
	if err != nil {
		return nil
	}
	return json.NewNullablePtr(set)
}
