package unit

import (
	"fmt"
	"regexp"
	"strings"
)

// Definition is a decoded unit artifact. It is one of *SlashDefinition,
// *ContextMenuDefinition or *EventDefinition.
type Definition interface {
	DefinitionKind() Kind
	DefinitionName() string
	Validate() error
}

// Header is decoded first to pick the concrete definition type.
type Header struct {
	Kind string `toml:"kind" yaml:"kind"`
}

type Common struct {
	Kind    string `toml:"kind" yaml:"kind"`
	Name    string `toml:"name" yaml:"name"`
	Handler string `toml:"handler" yaml:"handler"`
	Enabled *bool  `toml:"enabled" yaml:"enabled"`
}

type ExperimentDefinition struct {
	Required bool `toml:"required" yaml:"required"`
	ID       *int `toml:"id" yaml:"id"`
}

type GuardDefinition struct {
	Cooldown          int                   `toml:"cooldown" yaml:"cooldown"`
	ClientPermissions []string              `toml:"client_permissions" yaml:"client_permissions"`
	UserPermissions   []string              `toml:"user_permissions" yaml:"user_permissions"`
	GuildOnly         bool                  `toml:"guild_only" yaml:"guild_only"`
	DevOnly           bool                  `toml:"dev_only" yaml:"dev_only"`
	OwnerOnly         bool                  `toml:"owner_only" yaml:"owner_only"`
	BetaOnly          bool                  `toml:"beta_only" yaml:"beta_only"`
	PremiumOnly       bool                  `toml:"premium_only" yaml:"premium_only"`
	NSFW              bool                  `toml:"nsfw" yaml:"nsfw"`
	ChannelOnly       []string              `toml:"channel_only" yaml:"channel_only"`
	Experiment        *ExperimentDefinition `toml:"experiment" yaml:"experiment"`
	Defer             bool                  `toml:"defer" yaml:"defer"`
	Ephemeral         bool                  `toml:"ephemeral" yaml:"ephemeral"`
	CustomID          string                `toml:"custom_id" yaml:"custom_id"`
}

type ChoiceDefinition struct {
	Name          string            `toml:"name" yaml:"name"`
	Localizations map[string]string `toml:"localizations" yaml:"localizations"`
	Value         any               `toml:"value" yaml:"value"`
}

type OptionDefinition struct {
	Type                     string             `toml:"type" yaml:"type"`
	Name                     string             `toml:"name" yaml:"name"`
	Description              string             `toml:"description" yaml:"description"`
	NameLocalizations        map[string]string  `toml:"name_localizations" yaml:"name_localizations"`
	DescriptionLocalizations map[string]string  `toml:"description_localizations" yaml:"description_localizations"`
	Required                 bool               `toml:"required" yaml:"required"`
	Autocomplete             bool               `toml:"autocomplete" yaml:"autocomplete"`
	Choices                  []ChoiceDefinition `toml:"choices" yaml:"choices"`
	MinValue                 *float64           `toml:"min_value" yaml:"min_value"`
	MaxValue                 *float64           `toml:"max_value" yaml:"max_value"`
	MinLength                *int               `toml:"min_length" yaml:"min_length"`
	MaxLength                *int               `toml:"max_length" yaml:"max_length"`
	ChannelTypes             []string           `toml:"channel_types" yaml:"channel_types"`
	Options                  []OptionDefinition `toml:"options" yaml:"options"`
}

type SlashDefinition struct {
	Common                   `yaml:",inline"`
	GuardDefinition          `yaml:",inline"`
	Description              string             `toml:"description" yaml:"description"`
	NameLocalizations        map[string]string  `toml:"name_localizations" yaml:"name_localizations"`
	DescriptionLocalizations map[string]string  `toml:"description_localizations" yaml:"description_localizations"`
	Options                  []OptionDefinition `toml:"options" yaml:"options"`
	DefaultEnabled           *bool              `toml:"default_enabled" yaml:"default_enabled"`
	DeployEnabled            *bool              `toml:"deploy_enabled" yaml:"deploy_enabled"`
	Hidden                   bool               `toml:"hidden" yaml:"hidden"`
	Usage                    string             `toml:"usage" yaml:"usage"`
}

type ContextMenuDefinition struct {
	Common            `yaml:",inline"`
	GuardDefinition   `yaml:",inline"`
	Type              string            `toml:"type" yaml:"type"`
	NameLocalizations map[string]string `toml:"name_localizations" yaml:"name_localizations"`
	DefaultEnabled    *bool             `toml:"default_enabled" yaml:"default_enabled"`
	DeployEnabled     *bool             `toml:"deploy_enabled" yaml:"deploy_enabled"`
}

type EventDefinition struct {
	Common `yaml:",inline"`
	Event  string `toml:"event" yaml:"event"`
	Once   bool   `toml:"once" yaml:"once"`
}

// NewDefinition returns an empty definition of the given kind, ready to be decoded into.
func NewDefinition(kind string) (Definition, error) {
	switch Kind(kind) {
	case KindSlash:
		return &SlashDefinition{}, nil
	case KindContextMenu:
		return &ContextMenuDefinition{}, nil
	case KindEvent:
		return &EventDefinition{}, nil
	case "":
		return nil, fmt.Errorf("missing kind")
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
}

func (d *SlashDefinition) DefinitionKind() Kind         { return KindSlash }
func (d *SlashDefinition) DefinitionName() string       { return d.Name }
func (d *ContextMenuDefinition) DefinitionKind() Kind   { return KindContextMenu }
func (d *ContextMenuDefinition) DefinitionName() string { return d.Name }
func (d *EventDefinition) DefinitionKind() Kind         { return KindEvent }
func (d *EventDefinition) DefinitionName() string       { return d.Name }

var commandNamePattern = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

func (d *SlashDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !commandNamePattern.MatchString(d.Name) || strings.ToLower(d.Name) != d.Name {
		return fmt.Errorf("name %q must be 1-32 lowercase letters, digits, dashes or underscores", d.Name)
	}
	if l := len(d.Description); l == 0 || l > 100 {
		return fmt.Errorf("description must be 1-100 characters")
	}
	if len(d.Options) > 25 {
		return fmt.Errorf("at most 25 options are allowed")
	}
	if err := d.GuardDefinition.validate(); err != nil {
		return err
	}
	_, err := buildOptions(d.Options)
	return err
}

func (d *ContextMenuDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(d.Name) > 32 {
		return fmt.Errorf("name %q exceeds 32 characters", d.Name)
	}
	if d.Type != "user" && d.Type != "message" {
		return fmt.Errorf("type must be \"user\" or \"message\", got %q", d.Type)
	}
	return d.GuardDefinition.validate()
}

func (d *EventDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// EventName is the gateway event the unit listens to.
func (d *EventDefinition) EventName() string {
	if d.Event != "" {
		return d.Event
	}
	return d.Name
}

func (g GuardDefinition) validate() error {
	if g.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	if _, err := PermissionSet(g.ClientPermissions); err != nil {
		return fmt.Errorf("client_permissions: %w", err)
	}
	if _, err := PermissionSet(g.UserPermissions); err != nil {
		return fmt.Errorf("user_permissions: %w", err)
	}
	if _, err := channelTypes(g.ChannelOnly); err != nil {
		return fmt.Errorf("channel_only: %w", err)
	}
	if g.Experiment != nil && g.Experiment.Required && g.Experiment.ID == nil {
		return fmt.Errorf("experiment.id is required when experiment.required is set")
	}
	return nil
}
