package unit

import (
	"fmt"
	"math"

	"github.com/disgoorg/disgo/discord"
)

func locales(m map[string]string) map[discord.Locale]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[discord.Locale]string, len(m))
	for k, v := range m {
		out[discord.Locale(k)] = v
	}
	return out
}

func buildOptions(defs []OptionDefinition) ([]discord.ApplicationCommandOption, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	options := make([]discord.ApplicationCommandOption, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	optional := false
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("option %d: name is required", i)
		}
		if _, ok := seen[d.Name]; ok {
			return nil, fmt.Errorf("option %q: duplicate name", d.Name)
		}
		seen[d.Name] = struct{}{}
		if d.Description == "" {
			return nil, fmt.Errorf("option %q: description is required", d.Name)
		}
		if d.Required && optional {
			return nil, fmt.Errorf("option %q: required options must precede optional ones", d.Name)
		}
		if !d.Required {
			optional = true
		}
		o, err := buildOption(d)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", d.Name, err)
		}
		options = append(options, o)
	}
	return options, nil
}

func buildOption(d OptionDefinition) (discord.ApplicationCommandOption, error) {
	nameLoc := locales(d.NameLocalizations)
	descLoc := locales(d.DescriptionLocalizations)
	if d.Type != "subcommand" && d.Type != "subcommand_group" && len(d.Options) > 0 {
		return nil, fmt.Errorf("only subcommands and groups can have nested options")
	}
	if len(d.Choices) > 0 && d.Autocomplete {
		return nil, fmt.Errorf("choices and autocomplete are mutually exclusive")
	}

	switch d.Type {
	case "string":
		choices := make([]discord.ApplicationCommandOptionChoiceString, 0, len(d.Choices))
		for _, c := range d.Choices {
			v, ok := c.Value.(string)
			if !ok {
				return nil, fmt.Errorf("choice %q: value must be a string", c.Name)
			}
			choices = append(choices, discord.ApplicationCommandOptionChoiceString{Name: c.Name, NameLocalizations: locales(c.Localizations), Value: v})
		}
		return discord.ApplicationCommandOptionString{
			Name:                     d.Name,
			NameLocalizations:        nameLoc,
			Description:              d.Description,
			DescriptionLocalizations: descLoc,
			Required:                 d.Required,
			Choices:                  choices,
			Autocomplete:             d.Autocomplete,
			MinLength:                d.MinLength,
			MaxLength:                d.MaxLength,
		}, nil
	case "integer":
		choices := make([]discord.ApplicationCommandOptionChoiceInt, 0, len(d.Choices))
		for _, c := range d.Choices {
			v, err := toInt(c.Value)
			if err != nil {
				return nil, fmt.Errorf("choice %q: %w", c.Name, err)
			}
			choices = append(choices, discord.ApplicationCommandOptionChoiceInt{Name: c.Name, NameLocalizations: locales(c.Localizations), Value: v})
		}
		return discord.ApplicationCommandOptionInt{
			Name:                     d.Name,
			NameLocalizations:        nameLoc,
			Description:              d.Description,
			DescriptionLocalizations: descLoc,
			Required:                 d.Required,
			Choices:                  choices,
			Autocomplete:             d.Autocomplete,
			MinValue:                 intPtr(d.MinValue),
			MaxValue:                 intPtr(d.MaxValue),
		}, nil
	case "number":
		choices := make([]discord.ApplicationCommandOptionChoiceFloat, 0, len(d.Choices))
		for _, c := range d.Choices {
			v, err := toFloat(c.Value)
			if err != nil {
				return nil, fmt.Errorf("choice %q: %w", c.Name, err)
			}
			choices = append(choices, discord.ApplicationCommandOptionChoiceFloat{Name: c.Name, NameLocalizations: locales(c.Localizations), Value: v})
		}
		return discord.ApplicationCommandOptionFloat{
			Name:                     d.Name,
			NameLocalizations:        nameLoc,
			Description:              d.Description,
			DescriptionLocalizations: descLoc,
			Required:                 d.Required,
			Choices:                  choices,
			Autocomplete:             d.Autocomplete,
			MinValue:                 d.MinValue,
			MaxValue:                 d.MaxValue,
		}, nil
	case "boolean":
		return discord.ApplicationCommandOptionBool{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required}, nil
	case "user":
		return discord.ApplicationCommandOptionUser{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required}, nil
	case "role":
		return discord.ApplicationCommandOptionRole{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required}, nil
	case "mentionable":
		return discord.ApplicationCommandOptionMentionable{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required}, nil
	case "attachment":
		return discord.ApplicationCommandOptionAttachment{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required}, nil
	case "channel":
		types, err := channelTypes(d.ChannelTypes)
		if err != nil {
			return nil, err
		}
		return discord.ApplicationCommandOptionChannel{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Required: d.Required, ChannelTypes: types}, nil
	case "subcommand":
		nested, err := buildOptions(d.Options)
		if err != nil {
			return nil, err
		}
		for _, n := range nested {
			switch n.(type) {
			case discord.ApplicationCommandOptionSubCommand, discord.ApplicationCommandOptionSubCommandGroup:
				return nil, fmt.Errorf("subcommands cannot nest subcommands")
			}
		}
		return discord.ApplicationCommandOptionSubCommand{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Options: nested}, nil
	case "subcommand_group":
		nested, err := buildOptions(d.Options)
		if err != nil {
			return nil, err
		}
		subs := make([]discord.ApplicationCommandOptionSubCommand, 0, len(nested))
		for _, n := range nested {
			sub, ok := n.(discord.ApplicationCommandOptionSubCommand)
			if !ok {
				return nil, fmt.Errorf("groups may only contain subcommands")
			}
			subs = append(subs, sub)
		}
		return discord.ApplicationCommandOptionSubCommandGroup{Name: d.Name, NameLocalizations: nameLoc, Description: d.Description, DescriptionLocalizations: descLoc, Options: subs}, nil
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unknown option type %q", d.Type)
	}
}

// toInt accepts the integer shapes produced by the TOML and YAML decoders.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("value must be an integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value must be a number, got %T", v)
	}
}

func intPtr(f *float64) *int {
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}
