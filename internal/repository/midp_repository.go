package repository

import (
	"context"
	"time"

	"github.com/bimflow/engine/internal/models"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MIDPRepository interface {
	BaseRepository[models.MIDP]
	GetByProject(ctx context.Context, projectID uuid.UUID) (*models.MIDP, error)
	ReplaceAggregatedData(ctx context.Context, id uuid.UUID, upd MIDPDataUpdate) error
}

// MIDPDataUpdate carries every derived column of a regeneration so they
// land in a single UPDATE. Readers never see a MIDP whose risk register
// belongs to a different aggregation than its aggregated data.
type MIDPDataUpdate struct {
	IncludedTIDPs  datatypes.JSON
	AggregatedData datatypes.JSON
	QualityGates   datatypes.JSON
	RiskRegister   datatypes.JSON
	Status         string
}

type midpRepository struct {
	BaseRepository[models.MIDP]
	db *gorm.DB
}

func NewMIDPRepository(db *gorm.DB) MIDPRepository {
	return &midpRepository{BaseRepository: NewBaseRepository[models.MIDP](db), db: db}
}

func (r *midpRepository) GetByProject(ctx context.Context, projectID uuid.UUID) (*models.MIDP, error) {
	var m models.MIDP
	if err := r.db.WithContext(ctx).First(&m, "project_id = ?", projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.New(appErr.CodeNotFound, "no midp exists for this project")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get midp by project failed")
	}
	return &m, nil
}

func (r *midpRepository) ReplaceAggregatedData(ctx context.Context, id uuid.UUID, upd MIDPDataUpdate) error {
	res := r.db.WithContext(ctx).Model(&models.MIDP{}).Where("id = ?", id).
		Updates(map[string]any{
			"included_tidps":  upd.IncludedTIDPs,
			"aggregated_data": upd.AggregatedData,
			"quality_gates":   upd.QualityGates,
			"risk_register":   upd.RiskRegister,
			"status":          upd.Status,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "replace midp data failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "midp not found")
	}
	return nil
}
