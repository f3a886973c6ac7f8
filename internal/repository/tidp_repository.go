package repository

import (
	"context"

	"github.com/bimflow/engine/internal/models"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TIDPRepository interface {
	BaseRepository[models.TIDP]
	GetWithContainers(ctx context.Context, id uuid.UUID) (*models.TIDP, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.TIDP, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.TIDP, error)
	ReplaceContainers(ctx context.Context, tidpID uuid.UUID, containers []models.Container) error
}

type tidpRepository struct {
	BaseRepository[models.TIDP]
	db *gorm.DB
}

func NewTIDPRepository(db *gorm.DB) TIDPRepository {
	return &tidpRepository{BaseRepository: NewBaseRepository[models.TIDP](db), db: db}
}

// containerOrder keeps aggregation input stable: authoring order within a
// TIDP, never due-date order.
func containerOrder(db *gorm.DB) *gorm.DB {
	return db.Order("containers.position ASC, containers.created_at ASC")
}

func (r *tidpRepository) GetWithContainers(ctx context.Context, id uuid.UUID) (*models.TIDP, error) {
	var t models.TIDP
	if err := r.db.WithContext(ctx).Preload("Containers", containerOrder).First(&t, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.New(appErr.CodeNotFound, "tidp not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get tidp failed")
	}
	return &t, nil
}

func (r *tidpRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.TIDP, error) {
	var out []models.TIDP
	if err := r.db.WithContext(ctx).Preload("Containers", containerOrder).
		Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list tidps by project failed")
	}
	return out, nil
}

func (r *tidpRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.TIDP, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.TIDP
	if err := r.db.WithContext(ctx).Preload("Containers", containerOrder).
		Where("id IN ?", ids).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list tidps by ids failed")
	}
	return out, nil
}

// ReplaceContainers swaps a TIDP's container set in one transaction,
// mirroring how plan edits arrive: the client sends the full list.
func (r *tidpRepository) ReplaceContainers(ctx context.Context, tidpID uuid.UUID, containers []models.Container) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tidp_id = ?", tidpID).Delete(&models.Container{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "delete old containers failed")
		}
		if len(containers) == 0 {
			return nil
		}
		for i := range containers {
			containers[i].TIDPID = tidpID
			containers[i].Position = i
		}
		if err := tx.Create(&containers).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "insert containers failed")
		}
		return nil
	})
}
