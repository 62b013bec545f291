package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/disunit/disunit/unit"
)

var (
	SlowThreshold = 2 * time.Second
	Timeout       = 10 * time.Second
)

func guildString(id *snowflake.ID) string {
	if id == nil {
		return "dm"
	}
	return id.String()
}

// timed runs fn with the handler timeout and logs start, completion, slowness and timeouts.
func timed(ctx context.Context, kind string, name string, attrs []any, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := time.Now()
	slog.Info(kind+" started", append([]any{slog.String("type", "cmd"), slog.String("name", name)}, attrs...)...)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s %s panicked: %v", kind, name, r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		duration := time.Since(start)
		base := []any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.Duration("took", duration),
		}
		base = append(base, attrs...)

		if err != nil {
			slog.Error(kind+" failed", append(base,
				slog.Any("error", err),
				slog.String("status", "failed"),
			)...)
		} else if duration > SlowThreshold {
			slog.Warn(kind+" executed slowly", append(base,
				slog.String("status", "slow"),
			)...)
		} else {
			slog.Info(kind+" completed", append(base,
				slog.String("status", "success"),
			)...)
		}
		return err

	case <-ctx.Done():
		slog.Error(kind+" timed out", append([]any{
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("status", "timeout"),
			slog.Duration("timeout", timeout),
		}, attrs...)...)
		return fmt.Errorf("%s %s timed out after %s", kind, name, timeout)
	}
}

func eventContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WrapWithLogging wraps a command handler with logging functionality
func WrapWithLogging(name string, h unit.CommandHandler) unit.CommandHandler {
	return func(e *handler.CommandEvent) error {
		attrs := []any{
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("guild_id", guildString(e.GuildID())),
			slog.String("channel_id", e.ChannelID().String()),
		}
		return timed(eventContext(e.Ctx), "Command", name, attrs, Timeout, func(ctx context.Context) error {
			e.Ctx = ctx
			return h(e)
		})
	}
}

// WrapComponentWithLogging wraps a component handler with logging functionality
func WrapComponentWithLogging(name string, h unit.ComponentHandler) unit.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		attrs := []any{
			slog.String("custom_id", e.Data.CustomID()),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("guild_id", guildString(e.GuildID())),
		}
		return timed(eventContext(e.Ctx), "Component interaction", name, attrs, Timeout, func(ctx context.Context) error {
			e.Ctx = ctx
			return h(e)
		})
	}
}

func WrapEventWithLogging(name string, h unit.EventHandler) unit.EventHandler {
	return func(ctx context.Context, e bot.Event) error {
		attrs := []any{slog.String("event", fmt.Sprintf("%T", e))}
		return timed(ctx, "Event", name, attrs, Timeout, func(ctx context.Context) error {
			return h(ctx, e)
		})
	}
}
