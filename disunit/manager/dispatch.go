package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/guard"
	"github.com/disgoorg/disunit/disunit/logger"
	"github.com/disgoorg/disunit/disunit/unit"
)

var _ bot.EventListener = (*Manager)(nil)

// newRouter mounts catch-all routes that resolve the target unit from the registries on every
// interaction, so reloaded units are picked up without touching the mux.
func (m *Manager) newRouter() *handler.Mux {
	mux := handler.New()
	mux.Command("/{name}", m.handleCommand)
	mux.Component("/{custom_id}", m.handleComponent)
	mux.Error(func(e *handler.InteractionEvent, err error) {
		logger.LogError("Failed to handle interaction", err,
			slog.String("interaction_id", e.ID().String()),
		)
	})
	return mux
}

// OnEvent routes interactions through the mux and every gateway event to the event units
// bound to it.
func (m *Manager) OnEvent(e bot.Event) {
	m.mux.OnEvent(e)
	m.dispatchEvent(context.Background(), e)
}

// EventName is the lowerCamel name of a gateway event type, e.g. "messageCreate".
func EventName(e bot.Event) string {
	t := reflect.TypeOf(e)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		return ""
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func (m *Manager) resolveCommand(t discord.ApplicationCommandType, name string) (unit.Guarded, bool) {
	switch t {
	case discord.ApplicationCommandTypeSlash:
		if u, ok := m.Slash.Get(name); ok {
			return u, true
		}
	case discord.ApplicationCommandTypeUser, discord.ApplicationCommandTypeMessage:
		if u, ok := m.ContextMenu.Get(name); ok && u.CommandType() == t {
			return u, true
		}
	}
	return nil, false
}

// resolveComponent finds the command unit whose custom id is the longest prefix of customID.
func (m *Manager) resolveComponent(customID string) (unit.Guarded, bool) {
	var (
		best    unit.Guarded
		bestLen int
	)
	for _, u := range m.Deployables() {
		prefix := u.Guards().CustomID
		if prefix == "" || !strings.HasPrefix(customID, prefix) || len(prefix) <= bestLen {
			continue
		}
		best, bestLen = u, len(prefix)
	}
	return best, best != nil
}

func ephemeral(content string) discord.MessageCreate {
	return discord.MessageCreate{Content: content, Flags: discord.MessageFlagEphemeral}
}

func eventContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (m *Manager) handleCommand(e *handler.CommandEvent) error {
	start := time.Now()
	ctx := eventContext(e.Ctx)
	name := e.Data.CommandName()
	u, ok := m.resolveCommand(e.Data.Type(), name)
	if !ok {
		slog.Warn("No unit cached for command",
			slog.String("type", "cmd"),
			slog.String("name", name),
		)
		return nil
	}

	var caches cache.Caches
	if c := e.Client(); c != nil {
		caches = c.Caches()
	}
	inv := guard.FromInteraction(e.ApplicationCommandInteraction, caches)
	if err := m.evaluator.Evaluate(ctx, u, inv); err != nil {
		m.deny(err, name, func(msg string) error {
			return e.CreateMessage(ephemeral(msg))
		})
		return nil
	}

	g := u.Guards()
	if g.Defer {
		if err := e.DeferCreateMessage(g.Ephemeral); err != nil {
			return fmt.Errorf("failed to defer %s: %w", name, err)
		}
	}
	e.Ctx = ctx
	err := u.Handle(e)
	logger.LogCommand(guard.Key(u), time.Since(start), err)
	return nil
}

// handleComponent runs the component handler of the owning unit. Components only check that
// the unit is still enabled; guards and cooldowns applied when the command ran.
func (m *Manager) handleComponent(e *handler.ComponentEvent) error {
	customID := e.Data.CustomID()
	u, ok := m.resolveComponent(customID)
	if !ok {
		// not ours, another listener (e.g. the paginator) owns it
		return nil
	}
	if !u.Enabled() {
		m.deny(&errs.GuardDenied{Unit: u.Name(), Reason: errs.ReasonDisabled}, u.Name(), func(msg string) error {
			return e.CreateMessage(ephemeral(msg))
		})
		return nil
	}
	e.Ctx = eventContext(e.Ctx)
	if err := u.HandleComponent(e); err != nil {
		logger.LogError("Component handler failed", err,
			slog.String("name", u.Name()),
			slog.String("custom_id", customID),
		)
	}
	return nil
}

func (m *Manager) dispatchEvent(ctx context.Context, e bot.Event) {
	name := EventName(e)
	for _, u := range m.Events.Bound(name) {
		if u.Once() {
			// whoever unloads it first gets to run it
			if err := m.Events.Unload(ctx, u.Name()); err != nil {
				continue
			}
		}
		if err := u.Handle(ctx, e); err != nil {
			logger.LogError("Event unit failed", err,
				slog.String("unit", u.Name()),
				slog.String("event", name),
			)
		}
	}
}

func (m *Manager) deny(err error, name string, reply func(msg string) error) {
	var (
		denied *errs.GuardDenied
		msg    string
	)
	if errors.As(err, &denied) {
		slog.Debug("Invocation denied",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("reason", string(denied.Reason)),
		)
		msg = DenialMessage(denied)
	} else {
		logger.LogError("Guard evaluation failed", err, slog.String("name", name))
		msg = "Something went wrong while checking this command, try again later."
	}
	if rerr := reply(msg); rerr != nil {
		logger.LogError("Failed to send denial", rerr, slog.String("name", name))
	}
}

// DenialMessage is the user-facing text for a denied invocation.
func DenialMessage(d *errs.GuardDenied) string {
	switch d.Reason {
	case errs.ReasonDisabled:
		return "This command is currently disabled."
	case errs.ReasonDevOnly:
		return "This command is only available to developers."
	case errs.ReasonOwnerOnly:
		return "This command is only available to the bot owners."
	case errs.ReasonBetaOnly:
		return "This command is only available to beta testers."
	case errs.ReasonPremiumOnly:
		return "This command requires premium."
	case errs.ReasonExperiment:
		return "This command is not available to you yet."
	case errs.ReasonGuildOnly:
		return "This command can only be used in a server."
	case errs.ReasonChannelOnly:
		return "This command can't be used in this channel."
	case errs.ReasonNSFW:
		return "This command can only be used in age-restricted channels."
	case errs.ReasonClientPermissions:
		return fmt.Sprintf("I'm missing permissions to run this: %s.", strings.Join(d.Missing, ", "))
	case errs.ReasonUserPermissions:
		return fmt.Sprintf("You're missing permissions to run this: %s.", strings.Join(d.Missing, ", "))
	case errs.ReasonCooldown:
		return fmt.Sprintf("Slow down! Try again in %s.", d.Remaining.Round(100*time.Millisecond))
	}
	return "You can't use this command."
}
