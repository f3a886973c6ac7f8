package repository

import (
	"context"

	"github.com/bimflow/engine/internal/models"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SnapshotRepository interface {
	Append(ctx context.Context, s *models.Snapshot) error
	ListByMIDP(ctx context.Context, midpID uuid.UUID) ([]models.Snapshot, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Append(ctx context.Context, s *models.Snapshot) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "append snapshot failed")
	}
	return nil
}

// ListByMIDP returns snapshots oldest first, the order trend projection
// consumes them in.
func (r *snapshotRepository) ListByMIDP(ctx context.Context, midpID uuid.UUID) ([]models.Snapshot, error) {
	var out []models.Snapshot
	if err := r.db.WithContext(ctx).Where("midp_id = ?", midpID).
		Order("taken_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list snapshots failed")
	}
	return out, nil
}
