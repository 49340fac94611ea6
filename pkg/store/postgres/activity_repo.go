package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clientflow/clientflow/pkg/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Record(ctx context.Context, entry *model.ActivityEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ActivityRepository) List(ctx context.Context, approvalID uuid.UUID, limit int) ([]model.ActivityEntry, error) {
	var entries []model.ActivityEntry
	query := r.db.WithContext(ctx).
		Where("approval_id = ?", approvalID).
		Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&entries).Error
	return entries, err
}

func (r *ActivityRepository) Close() error {
	// GORM owns the shared connection pool; nothing to release here.
	return nil
}
