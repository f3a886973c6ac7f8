package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TIDP is one task team's information delivery plan.
type TIDP struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	TeamName    string         `gorm:"not null" json:"team_name" validate:"required,min=2"`
	Discipline  string         `gorm:"type:varchar(64);index;not null" json:"discipline" validate:"required"`
	Leader      string         `json:"leader"`
	Description string         `gorm:"type:text" json:"description"`
	Version     string         `gorm:"type:varchar(16);not null;default:'1.0'" json:"version"`
	Status      string         `gorm:"type:varchar(32);not null;default:'Draft'" json:"status"`
	Containers  []Container    `gorm:"foreignKey:TIDPID;constraint:OnDelete:CASCADE" json:"containers"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Container is a single scheduled information deliverable within a TIDP.
// TeamName and Discipline are copied from the parent TIDP when the
// container is written; they are snapshots, not live references, so a MIDP
// aggregated from this container stays stable if the TIDP is later edited.
type Container struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TIDPID uuid.UUID `gorm:"type:uuid;index;not null" json:"tidp_id"`

	// ContainerID is the user-authored business identifier (e.g. "ARC-ZZ-001")
	// that predecessor references point at.
	ContainerID string `gorm:"type:varchar(128);index;not null" json:"container_id" validate:"required"`

	Name               string         `gorm:"not null" json:"name" validate:"required"`
	Author             string         `json:"author"`
	LOIN               string         `gorm:"type:varchar(64)" json:"loin"`
	Format             string         `gorm:"type:varchar(32)" json:"format"`
	Milestone          string         `gorm:"type:varchar(128)" json:"milestone"`
	DueDate            string         `gorm:"type:varchar(64)" json:"due_date"`
	EstimatedTime      string         `gorm:"type:varchar(64)" json:"estimated_time"`
	AcceptanceCriteria string         `gorm:"type:text" json:"acceptance_criteria"`
	Status             string         `gorm:"type:varchar(32);not null;default:'Planned'" json:"status" validate:"omitempty,oneof=Planned 'In Progress' 'Under Review' Approved Completed Delayed"`
	Dependencies       datatypes.JSON `gorm:"type:jsonb" json:"dependencies"`

	// Denormalized from the parent TIDP at write time.
	TeamName   string `gorm:"not null" json:"team_name"`
	Discipline string `gorm:"type:varchar(64);not null" json:"discipline"`

	// Position preserves authoring order inside the TIDP; aggregation order
	// depends on it being stable.
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
