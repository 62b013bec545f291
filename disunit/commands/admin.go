package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/disunit/disunit"
	"github.com/disgoorg/disunit/disunit/deploy"
	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/manager"
	"github.com/disgoorg/disunit/disunit/unit"
)

// ReloadHandler reloads one unit when the name option is given, otherwise every unit of the
// selected kind.
func ReloadHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx := e.Ctx
		data := e.SlashCommandInteractionData()
		kind, err := parseKind(data.String("kind"))
		if err != nil {
			return e.CreateMessage(discord.MessageCreate{Content: err.Error(), Flags: discord.MessageFlagEphemeral})
		}
		if err = e.DeferCreateMessage(true); err != nil {
			return err
		}

		start := time.Now()
		var embed discord.Embed
		if name, ok := data.OptString("name"); ok {
			_, err = b.Manager.Reload(ctx, kind, name)
			embed = reloadEmbed(kind, name, err, time.Since(start))
		} else {
			err = reloadKind(ctx, b.Manager, kind)
			embed = reloadEmbed(kind, "", err, time.Since(start))
		}

		_, err = e.UpdateInteractionResponse(embedUpdate(embed))
		return err
	}
}

func reloadKind(ctx context.Context, m *manager.Manager, kind unit.Kind) error {
	switch kind {
	case unit.KindSlash:
		return m.Slash.ReloadAll(ctx)
	case unit.KindContextMenu:
		return m.ContextMenu.ReloadAll(ctx)
	default:
		return m.Events.ReloadAll(ctx)
	}
}

func reloadEmbed(kind unit.Kind, name string, err error, took time.Duration) discord.Embed {
	target := "every " + kindLabel(kind)
	if name != "" {
		target = fmt.Sprintf("%s `%s`", kindLabel(kind), name)
	}

	var (
		nf    *errs.NotFoundError
		batch *errs.BatchError
	)
	switch {
	case err == nil:
		return discord.NewEmbedBuilder().
			SetDescription(fmt.Sprintf("Reloaded %s in %s.", target, took.Round(time.Millisecond))).
			SetColor(SuccessColor).
			Build()
	case errors.As(err, &nf):
		desc := fmt.Sprintf("There is no %s named `%s`.", kindLabel(kind), nf.Name)
		if len(nf.Suggestions) > 0 {
			desc += fmt.Sprintf("\nDid you mean %s?", quoteAll(nf.Suggestions))
		}
		return discord.NewEmbedBuilder().
			SetDescription(desc).
			SetColor(WarningColor).
			Build()
	case errors.As(err, &batch):
		var sb strings.Builder
		for _, key := range batch.Keys() {
			sb.WriteString(fmt.Sprintf("`%s`: %v\n", key, batch.Failures[key]))
		}
		return discord.NewEmbedBuilder().
			SetTitle(fmt.Sprintf("Failed to reload %d of %s", len(batch.Failures), target)).
			SetDescription(sb.String()).
			SetColor(ErrorColor).
			Build()
	default:
		return errorEmbed("Failed to reload "+target, err)
	}
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}

// DeployHandler reconciles the remote command registry with the cached commands. With
// dry_run set it only reports the plan, with remove set it deletes that one slash command
// from every scope instead.
func DeployHandler(b *disunit.Bot) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx := e.Ctx
		data := e.SlashCommandInteractionData()
		dryRun := data.Bool("dry_run")
		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		if name, ok := data.OptString("remove"); ok {
			_, err := e.UpdateInteractionResponse(embedUpdate(undeploy(ctx, b.Manager.Coordinator(), name)))
			return err
		}

		var (
			reports []deploy.Report
			err     error
		)
		if dryRun {
			reports, err = b.Manager.Plan(ctx)
		} else {
			reports, err = b.Manager.DeployAll(ctx)
		}

		var embed discord.Embed
		switch {
		case errors.Is(err, manager.ErrDeployNotConfigured):
			embed = discord.NewEmbedBuilder().
				SetDescription("Deployment is not configured for this bot.").
				SetColor(WarningColor).
				Build()
		case err != nil:
			embed = errorEmbed("Deployment failed", err)
		default:
			embed = reportEmbed(reports, dryRun)
		}
		_, err = e.UpdateInteractionResponse(embedUpdate(embed))
		return err
	}
}

func undeploy(ctx context.Context, c *deploy.Coordinator, name string) discord.Embed {
	if c == nil {
		return discord.NewEmbedBuilder().
			SetDescription("Deployment is not configured for this bot.").
			SetColor(WarningColor).
			Build()
	}
	n, err := c.Undeploy(ctx, name, discord.ApplicationCommandTypeSlash)
	switch {
	case err != nil:
		return errorEmbed("Failed to remove /"+name, err)
	case n == 0:
		return discord.NewEmbedBuilder().
			SetDescription(fmt.Sprintf("`/%s` is not deployed anywhere.", name)).
			SetColor(WarningColor).
			Build()
	default:
		return discord.NewEmbedBuilder().
			SetDescription(fmt.Sprintf("Removed `/%s` from %d scope(s).", name, n)).
			SetColor(SuccessColor).
			Build()
	}
}

func reportEmbed(reports []deploy.Report, dryRun bool) discord.Embed {
	title := "Deployed commands"
	if dryRun {
		title = "Deployment plan"
	}
	embed := discord.NewEmbedBuilder().
		SetTitle(title).
		SetColor(SuccessColor)

	changed := false
	for _, r := range reports {
		embed.AddField(r.Scope.String(), reportLine(r), false)
		changed = changed || r.Changed()
	}
	if !changed {
		embed.SetDescription("Everything is up to date.")
	}
	return embed.Build()
}

func reportLine(r deploy.Report) string {
	var parts []string
	add := func(sign string, names []string) {
		if len(names) > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", sign, strings.Join(names, ", ")))
		}
	}
	add("+", r.Created)
	add("~", r.Updated)
	add("-", r.Removed)
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, "\n")
}
