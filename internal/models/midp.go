package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MIDP is the project-wide master plan aggregated from a set of TIDPs.
// AggregatedData, QualityGates and RiskRegister are computed by the
// planning engine and replaced wholesale on every regeneration.
type MIDP struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"project_id" validate:"required"`
	ProjectName   string         `gorm:"not null" json:"project_name"`
	Version       string         `gorm:"type:varchar(16);not null;default:'1.0'" json:"version"`
	Status        string         `gorm:"type:varchar(32);index;not null" json:"status" validate:"required,oneof=Active Archived"`
	IncludedTIDPs datatypes.JSON `gorm:"type:jsonb" json:"included_tidps"`
	AggregatedData datatypes.JSON `gorm:"type:jsonb" json:"aggregated_data"`
	QualityGates  datatypes.JSON `gorm:"type:jsonb" json:"quality_gates"`
	RiskRegister  datatypes.JSON `gorm:"type:jsonb" json:"risk_register"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Snapshot is an immutable record of a MIDP's aggregated totals at a point
// in time. Rows are append-only; there is no UpdatedAt on purpose.
type Snapshot struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MIDPID              uuid.UUID `gorm:"type:uuid;index:idx_snapshots_midp_taken;not null" json:"midp_id"`
	TakenAt             time.Time `gorm:"index:idx_snapshots_midp_taken;not null" json:"taken_at"`
	TotalContainers     int       `gorm:"not null" json:"total_containers"`
	TotalEstimatedHours float64   `gorm:"not null" json:"total_estimated_hours"`
	CompletedContainers int       `gorm:"not null;default:0" json:"completed_containers"`
	CreatedAt           time.Time `json:"created_at"`
}
