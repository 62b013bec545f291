package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/disgoorg/disunit/disunit/database/models"
)

type UnitEventRepository interface {
	Create(ctx context.Context, e *models.UnitEvent) error
	Recent(ctx context.Context, limit int) ([]*models.UnitEvent, error)
}

type unitEventRepository struct {
	*BaseRepository
}

func NewUnitEventRepository(db *bun.DB) UnitEventRepository {
	return &unitEventRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *unitEventRepository) Create(ctx context.Context, e *models.UnitEvent) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(e).Exec(ctx)
	return r.HandleError("create", "unit_event", err)
}

func (r *unitEventRepository) Recent(ctx context.Context, limit int) ([]*models.UnitEvent, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var out []*models.UnitEvent
	err := r.db.NewSelect().
		Model(&out).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return out, r.HandleError("recent", "unit_event", err)
}
