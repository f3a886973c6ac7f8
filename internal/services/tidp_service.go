package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bimflow/engine/internal/models"
	"github.com/bimflow/engine/internal/planning"
	"github.com/bimflow/engine/internal/repository"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/bimflow/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type TIDPService interface {
	CreateTIDP(ctx context.Context, input *TIDPInput) (*models.TIDP, error)
	GetTIDP(ctx context.Context, id uuid.UUID) (*models.TIDP, error)
	ListTIDPs(ctx context.Context, projectID uuid.UUID) ([]models.TIDP, error)
	UpdateTIDP(ctx context.Context, id uuid.UUID, input *TIDPInput) (*models.TIDP, error)
	DeleteTIDP(ctx context.Context, id uuid.UUID) error
	Summary(ctx context.Context, id uuid.UUID) (*TIDPSummary, error)
	ValidateDependencies(ctx context.Context, projectID uuid.UUID) (*DependencyValidation, error)
}

type TIDPInput struct {
	ProjectID   uuid.UUID        `json:"project_id" validate:"required"`
	TeamName    string           `json:"team_name" validate:"required,min=2"`
	Discipline  string           `json:"discipline" validate:"required"`
	Leader      string           `json:"leader"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Containers  []ContainerInput `json:"containers"`
}

type ContainerInput struct {
	ContainerID        string   `json:"container_id" validate:"required"`
	Name               string   `json:"name" validate:"required"`
	Author             string   `json:"author"`
	LOIN               string   `json:"loin"`
	Format             string   `json:"format"`
	Milestone          string   `json:"milestone"`
	DueDate            string   `json:"due_date"`
	EstimatedTime      string   `json:"estimated_time"`
	AcceptanceCriteria string   `json:"acceptance_criteria"`
	Status             string   `json:"status"`
	Dependencies       []string `json:"dependencies"`
}

// TIDPSummary is the per-team rollup shown on plan listings.
type TIDPSummary struct {
	TIDPID              uuid.UUID      `json:"tidpId"`
	TeamName            string         `json:"teamName"`
	Discipline          string         `json:"discipline"`
	ContainerCount      int            `json:"containerCount"`
	TotalEstimatedHours float64        `json:"totalEstimatedHours"`
	ByStatus            map[string]int `json:"byStatus"`
	Milestones          []string       `json:"milestones"`
}

// DependencyValidation reports predecessor references that do not resolve
// inside a project's TIDP set. Warnings, not failures; authors reference
// containers that other teams have not written yet.
type DependencyValidation struct {
	Valid    bool                `json:"valid"`
	Warnings []DanglingReference `json:"warnings"`
}

type DanglingReference struct {
	ContainerID string `json:"containerId"`
	TeamName    string `json:"teamName"`
	MissingRef  string `json:"missingRef"`
}

type tidpService struct {
	tidpRepo    repository.TIDPRepository
	projectRepo repository.ProjectRepository
}

func NewTIDPService(tidpRepo repository.TIDPRepository, projectRepo repository.ProjectRepository) TIDPService {
	return &tidpService{tidpRepo: tidpRepo, projectRepo: projectRepo}
}

var _ TIDPService = (*tidpService)(nil)

func (s *tidpService) CreateTIDP(ctx context.Context, input *TIDPInput) (*models.TIDP, error) {
	if _, err := s.projectRepo.GetByID(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	t := &models.TIDP{
		ProjectID:   input.ProjectID,
		TeamName:    input.TeamName,
		Discipline:  input.Discipline,
		Leader:      input.Leader,
		Description: input.Description,
		Status:      statusOrDefault(input.Status, "Draft"),
	}
	containers, err := buildContainers(input, input.Containers)
	if err != nil {
		return nil, err
	}
	t.Containers = containers

	if err := s.tidpRepo.Create(ctx, t); err != nil {
		return nil, err
	}
	logger.L().Info("tidp created",
		zap.String("tidp_id", t.ID.String()),
		zap.String("project_id", t.ProjectID.String()),
		zap.Int("containers", len(t.Containers)))
	return s.tidpRepo.GetWithContainers(ctx, t.ID)
}

func (s *tidpService) GetTIDP(ctx context.Context, id uuid.UUID) (*models.TIDP, error) {
	return s.tidpRepo.GetWithContainers(ctx, id)
}

func (s *tidpService) ListTIDPs(ctx context.Context, projectID uuid.UUID) ([]models.TIDP, error) {
	return s.tidpRepo.ListByProject(ctx, projectID)
}

func (s *tidpService) UpdateTIDP(ctx context.Context, id uuid.UUID, input *TIDPInput) (*models.TIDP, error) {
	t, err := s.tidpRepo.GetWithContainers(ctx, id)
	if err != nil {
		return nil, err
	}

	t.TeamName = input.TeamName
	t.Discipline = input.Discipline
	t.Leader = input.Leader
	t.Description = input.Description
	if input.Status != "" {
		t.Status = input.Status
	}
	t.Containers = nil
	if err := s.tidpRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	containers, err := buildContainers(input, input.Containers)
	if err != nil {
		return nil, err
	}
	if err := s.tidpRepo.ReplaceContainers(ctx, id, containers); err != nil {
		return nil, err
	}
	logger.L().Info("tidp updated", zap.String("tidp_id", id.String()), zap.Int("containers", len(containers)))
	return s.tidpRepo.GetWithContainers(ctx, id)
}

func (s *tidpService) DeleteTIDP(ctx context.Context, id uuid.UUID) error {
	if err := s.tidpRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.L().Info("tidp deleted", zap.String("tidp_id", id.String()))
	return nil
}

func (s *tidpService) Summary(ctx context.Context, id uuid.UUID) (*TIDPSummary, error) {
	t, err := s.tidpRepo.GetWithContainers(ctx, id)
	if err != nil {
		return nil, err
	}

	sum := &TIDPSummary{
		TIDPID:     t.ID,
		TeamName:   t.TeamName,
		Discipline: t.Discipline,
		ByStatus:   map[string]int{},
		Milestones: []string{},
	}
	seen := map[string]bool{}
	for _, c := range t.Containers {
		sum.ContainerCount++
		hours, _ := planning.ParseHours(c.EstimatedTime)
		sum.TotalEstimatedHours += hours
		sum.ByStatus[c.Status]++
		if !seen[c.Milestone] {
			seen[c.Milestone] = true
			sum.Milestones = append(sum.Milestones, c.Milestone)
		}
	}
	return sum, nil
}

func (s *tidpService) ValidateDependencies(ctx context.Context, projectID uuid.UUID) (*DependencyValidation, error) {
	tidps, err := s.tidpRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	known := map[string]bool{}
	for _, t := range tidps {
		for _, c := range t.Containers {
			known[c.ContainerID] = true
		}
	}

	v := &DependencyValidation{Valid: true, Warnings: []DanglingReference{}}
	for _, t := range tidps {
		for _, c := range t.Containers {
			for _, ref := range decodeDependencies(c.Dependencies) {
				if !known[ref] {
					v.Valid = false
					v.Warnings = append(v.Warnings, DanglingReference{
						ContainerID: c.ContainerID,
						TeamName:    t.TeamName,
						MissingRef:  ref,
					})
				}
			}
		}
	}
	return v, nil
}

// buildContainers maps container input onto rows, stamping the parent
// team and discipline plus the authoring position.
func buildContainers(t *TIDPInput, inputs []ContainerInput) ([]models.Container, error) {
	out := make([]models.Container, 0, len(inputs))
	for i, in := range inputs {
		if in.ContainerID == "" || in.Name == "" {
			return nil, appErr.New(appErr.CodeInvalid, fmt.Sprintf("container %d is missing its id or name", i))
		}
		deps, err := json.Marshal(append([]string{}, in.Dependencies...))
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "marshal dependencies failed")
		}
		out = append(out, models.Container{
			ContainerID:        in.ContainerID,
			Name:               in.Name,
			Author:             in.Author,
			LOIN:               in.LOIN,
			Format:             in.Format,
			Milestone:          in.Milestone,
			DueDate:            in.DueDate,
			EstimatedTime:      in.EstimatedTime,
			AcceptanceCriteria: in.AcceptanceCriteria,
			Status:             statusOrDefault(in.Status, "Planned"),
			Dependencies:       datatypes.JSON(deps),
			TeamName:           t.TeamName,
			Discipline:         t.Discipline,
			Position:           i,
		})
	}
	return out, nil
}

func decodeDependencies(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var deps []string
	if err := json.Unmarshal(raw, &deps); err != nil {
		return nil
	}
	return deps
}

func statusOrDefault(status, fallback string) string {
	if status == "" {
		return fallback
	}
	return status
}
