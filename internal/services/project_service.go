package services

import (
	"context"

	"github.com/bimflow/engine/internal/models"
	"github.com/bimflow/engine/internal/repository"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/bimflow/engine/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectService interface {
	CreateProject(ctx context.Context, input *CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

type projectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{projectRepo: projectRepo}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) CreateProject(ctx context.Context, input *CreateProjectInput) (*models.Project, error) {
	if input.Name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "project name is required")
	}
	p := &models.Project{Name: input.Name, Description: input.Description}
	if err := s.projectRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.L().Info("project created", zap.String("project_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

func (s *projectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.projectRepo.List(ctx)
}

func (s *projectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.L().Info("project deleted", zap.String("project_id", id.String()))
	return nil
}
