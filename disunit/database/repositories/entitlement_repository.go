package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/disgoorg/disunit/disunit/database/models"
)

// Subject is a user or guild an entitlement can be granted to.
type Subject struct {
	Type models.SubjectType
	ID   string
}

type EntitlementRepository interface {
	// Has reports whether any of subjects holds an unexpired entitlement of tier. experimentID
	// is ignored unless tier is models.TierExperiment.
	Has(ctx context.Context, tier models.Tier, experimentID int, subjects ...Subject) (bool, error)
	Grant(ctx context.Context, e *models.Entitlement) error
	Revoke(ctx context.Context, tier models.Tier, experimentID int, subject Subject) (int64, error)
	List(ctx context.Context, tier models.Tier) ([]*models.Entitlement, error)
}

type entitlementRepository struct {
	*BaseRepository
	now func() time.Time
}

func NewEntitlementRepository(db *bun.DB) EntitlementRepository {
	return &entitlementRepository{
		BaseRepository: NewBaseRepository(db),
		now:            time.Now,
	}
}

func (r *entitlementRepository) Has(ctx context.Context, tier models.Tier, experimentID int, subjects ...Subject) (bool, error) {
	if len(subjects) == 0 {
		return false, nil
	}
	if tier != models.TierExperiment {
		experimentID = 0
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ok, err := r.db.NewSelect().
		Model((*models.Entitlement)(nil)).
		Where("tier = ?", tier).
		Where("experiment_id = ?", experimentID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, s := range subjects {
				q = q.WhereOr("(subject_type = ? AND subject_id = ?)", s.Type, s.ID)
			}
			return q
		}).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("expires_at IS NULL").WhereOr("expires_at > ?", r.now())
		}).
		Exists(ctx)
	return ok, r.HandleError("has", "entitlement", err)
}

func (r *entitlementRepository) Grant(ctx context.Context, e *models.Entitlement) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(e).Exec(ctx)
	return r.HandleError("grant", "entitlement", err)
}

func (r *entitlementRepository) Revoke(ctx context.Context, tier models.Tier, experimentID int, subject Subject) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Entitlement)(nil)).
		Where("tier = ?", tier).
		Where("experiment_id = ?", experimentID).
		Where("subject_type = ?", subject.Type).
		Where("subject_id = ?", subject.ID).
		Exec(ctx)
	if err != nil {
		return 0, r.HandleError("revoke", "entitlement", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *entitlementRepository) List(ctx context.Context, tier models.Tier) ([]*models.Entitlement, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var out []*models.Entitlement
	err := r.db.NewSelect().
		Model(&out).
		Where("tier = ?", tier).
		Order("created_at DESC").
		Scan(ctx)
	return out, r.HandleError("list", "entitlement", err)
}
