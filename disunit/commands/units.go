package commands

import (
	"fmt"
	"math"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/unit"
)

const UnitsPerPage = 10

// UnitsHandler lists the cached units, optionally filtered by kind, in a paginated embed.
func UnitsHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		units := b.Manager.Units()
		if s, ok := e.SlashCommandInteractionData().OptString("kind"); ok {
			kind, err := parseKind(s)
			if err != nil {
				return e.CreateMessage(discord.MessageCreate{Content: err.Error(), Flags: discord.MessageFlagEphemeral})
			}
			units = filterKind(units, kind)
		}

		if len(units) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Embeds: []discord.Embed{discord.NewEmbedBuilder().
					SetDescription("No units are loaded.").
					SetColor(WarningColor).
					Build()},
			})
		}

		lines := make([]string, len(units))
		for i, u := range units {
			lines[i] = unitLine(u)
		}
		totalPages := int(math.Ceil(float64(len(lines)) / float64(UnitsPerPage)))

		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				embed.
					SetTitle("Loaded units").
					SetDescription(pageText(lines, page)).
					SetColor(DefaultColor).
					SetFooter(fmt.Sprintf("Page %d/%d • Total units: %d", page+1, totalPages, len(lines)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

func filterKind(units []unit.Unit, kind unit.Kind) []unit.Unit {
	out := units[:0:0]
	for _, u := range units {
		if u.Kind() == kind {
			out = append(out, u)
		}
	}
	return out
}

func pageText(lines []string, page int) string {
	start := page * UnitsPerPage
	if start >= len(lines) {
		return ""
	}
	end := min(start+UnitsPerPage, len(lines))
	return strings.Join(lines[start:end], "\n")
}

func unitLine(u unit.Unit) string {
	status := "✅"
	if !u.Enabled() {
		status = "⛔"
	}

	name := u.Name()
	switch v := u.(type) {
	case *unit.SlashCommand:
		name = "/" + name
		if v.Hidden() {
			name += " (hidden)"
		}
	case *unit.Event:
		if v.EventName() != v.Name() {
			name += " → " + v.EventName()
		}
		if v.Once() {
			name += " (once)"
		}
	}

	line := fmt.Sprintf("%s `%s` • %s", status, name, kindLabel(u.Kind()))
	if c := u.Category(); c != "" {
		line += " • " + c
	}
	return line
}
