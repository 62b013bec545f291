package guard

import (
	"context"
	"slices"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
)

// Environment answers the environment gates of the guard evaluator.
type Environment interface {
	IsDeveloper(ctx context.Context, userID snowflake.ID) (bool, error)
	IsOwner(ctx context.Context, userID snowflake.ID) (bool, error)
	IsBeta(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error)
	IsPremium(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error)
	InExperiment(ctx context.Context, experimentID int, userID snowflake.ID, guildID *snowflake.ID) (bool, error)
}

// StaticEnvironment answers from fixed id lists, usually read from the config file.
// Experiment members are keyed by the experiment id and may be user or guild ids.
type StaticEnvironment struct {
	Developers    []snowflake.ID            `toml:"developers"`
	Owners        []snowflake.ID            `toml:"owners"`
	BetaUsers     []snowflake.ID            `toml:"beta_users"`
	BetaGuilds    []snowflake.ID            `toml:"beta_guilds"`
	PremiumUsers  []snowflake.ID            `toml:"premium_users"`
	PremiumGuilds []snowflake.ID            `toml:"premium_guilds"`
	Experiments   map[string][]snowflake.ID `toml:"experiments"`
}

var _ Environment = (*StaticEnvironment)(nil)

func (s *StaticEnvironment) IsDeveloper(_ context.Context, userID snowflake.ID) (bool, error) {
	return slices.Contains(s.Developers, userID), nil
}

// IsOwner treats developers as owners when no owner is configured.
func (s *StaticEnvironment) IsOwner(ctx context.Context, userID snowflake.ID) (bool, error) {
	if len(s.Owners) == 0 {
		return s.IsDeveloper(ctx, userID)
	}
	return slices.Contains(s.Owners, userID), nil
}

func (s *StaticEnvironment) IsBeta(_ context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	return memberOf(s.BetaUsers, s.BetaGuilds, userID, guildID), nil
}

func (s *StaticEnvironment) IsPremium(_ context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	return memberOf(s.PremiumUsers, s.PremiumGuilds, userID, guildID), nil
}

func (s *StaticEnvironment) InExperiment(_ context.Context, experimentID int, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	ids := s.Experiments[strconv.Itoa(experimentID)]
	return memberOf(ids, ids, userID, guildID), nil
}

func memberOf(users, guilds []snowflake.ID, userID snowflake.ID, guildID *snowflake.ID) bool {
	if slices.Contains(users, userID) {
		return true
	}
	return guildID != nil && slices.Contains(guilds, *guildID)
}
