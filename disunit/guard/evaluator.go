package guard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/disunit/disunit/errs"
	"github.com/disgoorg/disunit/disunit/unit"
)

// Invocation is what the evaluator knows about one interaction.
type Invocation struct {
	UserID            snowflake.ID
	GuildID           *snowflake.ID
	ChannelID         snowflake.ID
	ChannelType       discord.ChannelType
	ChannelKnown      bool
	ChannelNSFW       bool
	MemberPermissions discord.Permissions
	AppPermissions    discord.Permissions
}

// FromInteraction builds an Invocation from an interaction payload. Channel type and NSFW flag
// come from the channel sent with the interaction, falling back to the channel cache for
// payloads without one.
func FromInteraction(i discord.Interaction, caches cache.Caches) Invocation {
	inv := Invocation{
		UserID:  i.User().ID,
		GuildID: i.GuildID(),
	}
	if m := i.Member(); m != nil {
		inv.MemberPermissions = m.Permissions
	}
	if p := i.AppPermissions(); p != nil {
		inv.AppPermissions = *p
	}

	if ch := i.Channel(); ch.MessageChannel != nil {
		inv.ChannelID = ch.ID()
		setChannel(&inv, ch.MessageChannel)
		return inv
	}

	inv.ChannelID = i.ChannelID()
	if inv.GuildID == nil {
		inv.ChannelType = discord.ChannelTypeDM
		inv.ChannelKnown = true
		return inv
	}
	if caches == nil {
		return inv
	}
	if ch, ok := caches.Channel(inv.ChannelID); ok {
		setChannel(&inv, ch)
	}
	return inv
}

func setChannel(inv *Invocation, ch discord.Channel) {
	inv.ChannelType = ch.Type()
	inv.ChannelKnown = true
	if n, ok := ch.(interface{ NSFW() bool }); ok {
		inv.ChannelNSFW = n.NSFW()
	}
}

// Evaluator decides whether an invocation may run a unit.
type Evaluator struct {
	env       Environment
	cooldowns *Cooldowns
}

func NewEvaluator(env Environment, cooldowns *Cooldowns) *Evaluator {
	if env == nil {
		env = &StaticEnvironment{}
	}
	if cooldowns == nil {
		cooldowns = NewCooldowns()
	}
	return &Evaluator{env: env, cooldowns: cooldowns}
}

func (e *Evaluator) Cooldowns() *Cooldowns {
	return e.cooldowns
}

// Key is the cooldown key of a unit.
func Key(u unit.Unit) string {
	return string(u.Kind()) + ":" + u.Name()
}

// Evaluate returns nil when inv may run u, a *errs.GuardDenied carrying the first failing
// check otherwise, or the error of the environment lookup. Checks run in a fixed order and the
// cooldown is only started when every other check passed.
func (e *Evaluator) Evaluate(ctx context.Context, u unit.Guarded, inv Invocation) error {
	g := u.Guards()
	deny := func(reason errs.Reason) error {
		return &errs.GuardDenied{Unit: u.Name(), Reason: reason}
	}

	if !u.Enabled() {
		return deny(errs.ReasonDisabled)
	}

	gates := []struct {
		required bool
		reason   errs.Reason
		check    func() (bool, error)
	}{
		{g.DevOnly, errs.ReasonDevOnly, func() (bool, error) { return e.env.IsDeveloper(ctx, inv.UserID) }},
		{g.OwnerOnly, errs.ReasonOwnerOnly, func() (bool, error) { return e.env.IsOwner(ctx, inv.UserID) }},
		{g.BetaOnly, errs.ReasonBetaOnly, func() (bool, error) { return e.env.IsBeta(ctx, inv.UserID, inv.GuildID) }},
		{g.PremiumOnly, errs.ReasonPremiumOnly, func() (bool, error) { return e.env.IsPremium(ctx, inv.UserID, inv.GuildID) }},
		{g.Experiment.Required && g.Experiment.ID != nil, errs.ReasonExperiment, func() (bool, error) {
			return e.env.InExperiment(ctx, *g.Experiment.ID, inv.UserID, inv.GuildID)
		}},
	}
	for _, gate := range gates {
		if !gate.required {
			continue
		}
		ok, err := gate.check()
		if err != nil {
			return fmt.Errorf("failed to check %s for %s: %w", gate.reason, u.Name(), err)
		}
		if !ok {
			return deny(gate.reason)
		}
	}

	if g.GuildOnly && inv.GuildID == nil {
		return deny(errs.ReasonGuildOnly)
	}
	// an unknown channel can't prove it is one of the allowed types
	if len(g.ChannelOnly) > 0 && (!inv.ChannelKnown || !slices.Contains(g.ChannelOnly, inv.ChannelType)) {
		return deny(errs.ReasonChannelOnly)
	}
	if g.NSFW && !inv.ChannelNSFW && !(inv.ChannelKnown && inv.ChannelType == discord.ChannelTypeDM) {
		return deny(errs.ReasonNSFW)
	}

	// permissions only exist inside a guild
	if inv.GuildID != nil {
		if missing := unit.MissingPermissions(inv.AppPermissions, g.ClientPermissions); len(missing) > 0 {
			return &errs.GuardDenied{Unit: u.Name(), Reason: errs.ReasonClientPermissions, Missing: missing}
		}
		if missing := unit.MissingPermissions(inv.MemberPermissions, g.UserPermissions); len(missing) > 0 {
			return &errs.GuardDenied{Unit: u.Name(), Reason: errs.ReasonUserPermissions, Missing: missing}
		}
	}

	if ok, remaining := e.cooldowns.Acquire(Key(u), inv.UserID, g.Cooldown); !ok {
		return &errs.GuardDenied{Unit: u.Name(), Reason: errs.ReasonCooldown, Remaining: remaining}
	}

	slog.Debug("Guards passed",
		slog.String("type", "cmd"),
		slog.String("unit", Key(u)),
		slog.String("user_id", inv.UserID.String()),
	)
	return nil
}
