package database

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"

	"github.com/disgoorg/disunit/disunit/database/models"
	"github.com/disgoorg/disunit/disunit/database/repositories"
	"github.com/disgoorg/disunit/disunit/guard"
)

const (
	DefaultEntitlementCacheSize = 1024
	DefaultEntitlementTTL       = time.Minute
)

type cachedAnswer struct {
	ok      bool
	expires time.Time
}

// Entitlements answers guard environment checks from the static config first and falls back
// to the entitlement table for beta, premium and experiment gates. Database answers are
// cached for ttl.
type Entitlements struct {
	static *guard.StaticEnvironment
	repo   repositories.EntitlementRepository
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

var _ guard.Environment = (*Entitlements)(nil)

func NewEntitlements(static *guard.StaticEnvironment, repo repositories.EntitlementRepository, size int, ttl time.Duration) *Entitlements {
	if static == nil {
		static = &guard.StaticEnvironment{}
	}
	if size <= 0 {
		size = DefaultEntitlementCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultEntitlementTTL
	}
	cache, _ := lru.New(size)
	return &Entitlements{
		static: static,
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (e *Entitlements) IsDeveloper(ctx context.Context, userID snowflake.ID) (bool, error) {
	return e.static.IsDeveloper(ctx, userID)
}

func (e *Entitlements) IsOwner(ctx context.Context, userID snowflake.ID) (bool, error) {
	return e.static.IsOwner(ctx, userID)
}

func (e *Entitlements) IsBeta(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	if ok, _ := e.static.IsBeta(ctx, userID, guildID); ok {
		return true, nil
	}
	return e.lookup(ctx, models.TierBeta, 0, userID, guildID)
}

func (e *Entitlements) IsPremium(ctx context.Context, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	if ok, _ := e.static.IsPremium(ctx, userID, guildID); ok {
		return true, nil
	}
	return e.lookup(ctx, models.TierPremium, 0, userID, guildID)
}

func (e *Entitlements) InExperiment(ctx context.Context, experimentID int, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	if ok, _ := e.static.InExperiment(ctx, experimentID, userID, guildID); ok {
		return true, nil
	}
	return e.lookup(ctx, models.TierExperiment, experimentID, userID, guildID)
}

// Invalidate drops every cached answer, e.g. after granting or revoking an entitlement.
func (e *Entitlements) Invalidate() {
	e.cache.Purge()
}

func (e *Entitlements) lookup(ctx context.Context, tier models.Tier, experimentID int, userID snowflake.ID, guildID *snowflake.ID) (bool, error) {
	if e.repo == nil {
		return false, nil
	}

	key := fmt.Sprintf("%s:%d:%s", tier, experimentID, userID)
	subjects := []repositories.Subject{{Type: models.SubjectUser, ID: userID.String()}}
	if guildID != nil {
		key += ":" + guildID.String()
		subjects = append(subjects, repositories.Subject{Type: models.SubjectGuild, ID: guildID.String()})
	}

	if v, ok := e.cache.Get(key); ok {
		answer := v.(cachedAnswer)
		if e.now().Before(answer.expires) {
			return answer.ok, nil
		}
		e.cache.Remove(key)
	}

	ok, err := e.repo.Has(ctx, tier, experimentID, subjects...)
	if err != nil {
		return false, err
	}
	e.cache.Add(key, cachedAnswer{ok: ok, expires: e.now().Add(e.ttl)})
	return ok, nil
}
