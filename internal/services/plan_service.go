package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bimflow/engine/internal/models"
	"github.com/bimflow/engine/internal/planning"
	"github.com/bimflow/engine/internal/repository"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/bimflow/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// TaskMIDPRefresh is the queue task type for background re-aggregation.
const TaskMIDPRefresh = "midp:refresh"

// MIDPRefreshPayload is the task payload for TaskMIDPRefresh.
type MIDPRefreshPayload struct {
	MIDPID string `json:"midp_id"`
}

type PlanService interface {
	// Aggregation lifecycle
	GenerateMIDP(ctx context.Context, input *GenerateMIDPInput) (*models.MIDP, error)
	RefreshMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error)
	RequestRefresh(ctx context.Context, midpID uuid.UUID) error
	GetMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error)
	GetMIDPByProject(ctx context.Context, projectID uuid.UUID) (*models.MIDP, error)

	// Derived analyses; all read the persisted aggregated dataset.
	DependencyMatrix(ctx context.Context, midpID uuid.UUID) (*planning.DependencyMatrix, error)
	CascadingImpact(ctx context.Context, midpID uuid.UUID, now time.Time) (*planning.ImpactAnalysis, error)
	ResourcePlan(ctx context.Context, midpID uuid.UUID, granularity planning.Granularity) (*planning.ResourcePlan, error)
	Trends(ctx context.Context, midpID uuid.UUID) (*planning.TrendReport, error)
	Compliance(ctx context.Context, midpID uuid.UUID) (*planning.ComplianceReport, error)
}

type GenerateMIDPInput struct {
	ProjectID uuid.UUID   `json:"project_id" validate:"required"`
	TIDPIDs   []uuid.UUID `json:"tidp_ids"`
}

type planService struct {
	projectRepo  repository.ProjectRepository
	tidpRepo     repository.TIDPRepository
	midpRepo     repository.MIDPRepository
	snapshotRepo repository.SnapshotRepository
	asynqClient  *asynq.Client
}

func NewPlanService(
	projectRepo repository.ProjectRepository,
	tidpRepo repository.TIDPRepository,
	midpRepo repository.MIDPRepository,
	snapshotRepo repository.SnapshotRepository,
	client *asynq.Client,
) PlanService {
	return &planService{
		projectRepo:  projectRepo,
		tidpRepo:     tidpRepo,
		midpRepo:     midpRepo,
		snapshotRepo: snapshotRepo,
		asynqClient:  client,
	}
}

var _ PlanService = (*planService)(nil)

// GenerateMIDP aggregates the selected TIDPs into the project's MIDP,
// creating it on first run and replacing its derived data on every run
// after. An empty TIDPIDs list means every TIDP in the project.
func (s *planService) GenerateMIDP(ctx context.Context, input *GenerateMIDPInput) (*models.MIDP, error) {
	logger.L().Info("generate midp", zap.String("project_id", input.ProjectID.String()), zap.Int("tidp_ids", len(input.TIDPIDs)))

	project, err := s.projectRepo.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	tidps, err := s.resolveTIDPs(ctx, input)
	if err != nil {
		return nil, err
	}

	agg, err := planning.Aggregate(mapTIDPs(tidps))
	if err != nil {
		return nil, err
	}

	upd, includedIDs, err := deriveUpdate(agg, tidps)
	if err != nil {
		return nil, err
	}

	midp, err := s.midpRepo.GetByProject(ctx, input.ProjectID)
	switch {
	case err == nil:
		if err := s.midpRepo.ReplaceAggregatedData(ctx, midp.ID, upd); err != nil {
			return nil, err
		}
	case appErr.IsCode(err, appErr.CodeNotFound):
		midp = &models.MIDP{
			ProjectID:      input.ProjectID,
			ProjectName:    project.Name,
			Status:         "Active",
			IncludedTIDPs:  upd.IncludedTIDPs,
			AggregatedData: upd.AggregatedData,
			QualityGates:   upd.QualityGates,
			RiskRegister:   upd.RiskRegister,
		}
		if err := s.midpRepo.Create(ctx, midp); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.appendSnapshot(ctx, midp.ID, agg); err != nil {
		return nil, err
	}

	logger.L().Info("midp generated",
		zap.String("midp_id", midp.ID.String()),
		zap.Int("tidps", len(includedIDs)),
		zap.Int("containers", agg.TotalContainers),
		zap.Float64("estimated_hours", agg.TotalEstimatedHours))
	return s.midpRepo.GetByID(ctx, midp.ID)
}

// RefreshMIDP re-aggregates a MIDP from its recorded TIDP set, picking up
// edits made since the last generation. Run by the worker.
func (s *planService) RefreshMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error) {
	logger.L().Info("refresh midp", zap.String("midp_id", midpID.String()))

	midp, err := s.midpRepo.GetByID(ctx, midpID)
	if err != nil {
		return nil, err
	}

	ids, err := decodeIncludedTIDPs(midp.IncludedTIDPs)
	if err != nil {
		return nil, err
	}
	tidps, err := s.tidpRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	agg, err := planning.Aggregate(mapTIDPs(tidps))
	if err != nil {
		return nil, err
	}
	upd, _, err := deriveUpdate(agg, tidps)
	if err != nil {
		return nil, err
	}
	if err := s.midpRepo.ReplaceAggregatedData(ctx, midp.ID, upd); err != nil {
		return nil, err
	}
	if err := s.appendSnapshot(ctx, midp.ID, agg); err != nil {
		return nil, err
	}

	logger.L().Info("midp refreshed", zap.String("midp_id", midp.ID.String()), zap.Int("containers", agg.TotalContainers))
	return s.midpRepo.GetByID(ctx, midp.ID)
}

// RequestRefresh enqueues a background refresh. With no queue client
// configured it refreshes inline instead of dropping the request.
func (s *planService) RequestRefresh(ctx context.Context, midpID uuid.UUID) error {
	if _, err := s.midpRepo.GetByID(ctx, midpID); err != nil {
		return err
	}
	if s.asynqClient == nil {
		logger.L().Warn("asynq client not configured, refreshing inline", zap.String("midp_id", midpID.String()))
		_, err := s.RefreshMIDP(ctx, midpID)
		return err
	}

	pb, _ := json.Marshal(MIDPRefreshPayload{MIDPID: midpID.String()})
	task := asynq.NewTask(TaskMIDPRefresh, pb)
	if _, err := s.asynqClient.EnqueueContext(ctx, task); err != nil {
		logger.L().Error("enqueue refresh task failed", zap.Error(err), zap.String("midp_id", midpID.String()))
		return appErr.Wrap(err, appErr.CodeInternal, "enqueue refresh task failed")
	}
	logger.L().Info("refresh enqueued", zap.String("midp_id", midpID.String()))
	return nil
}

func (s *planService) GetMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error) {
	return s.midpRepo.GetByID(ctx, midpID)
}

func (s *planService) GetMIDPByProject(ctx context.Context, projectID uuid.UUID) (*models.MIDP, error) {
	return s.midpRepo.GetByProject(ctx, projectID)
}

func (s *planService) DependencyMatrix(ctx context.Context, midpID uuid.UUID) (*planning.DependencyMatrix, error) {
	agg, _, err := s.loadAggregated(ctx, midpID)
	if err != nil {
		return nil, err
	}
	return planning.BuildDependencyMatrix(agg), nil
}

func (s *planService) CascadingImpact(ctx context.Context, midpID uuid.UUID, now time.Time) (*planning.ImpactAnalysis, error) {
	agg, _, err := s.loadAggregated(ctx, midpID)
	if err != nil {
		return nil, err
	}
	return planning.AnalyzeCascadingImpact(agg, now), nil
}

func (s *planService) ResourcePlan(ctx context.Context, midpID uuid.UUID, granularity planning.Granularity) (*planning.ResourcePlan, error) {
	agg, _, err := s.loadAggregated(ctx, midpID)
	if err != nil {
		return nil, err
	}
	return planning.PlanResources(agg, granularity), nil
}

func (s *planService) Trends(ctx context.Context, midpID uuid.UUID) (*planning.TrendReport, error) {
	if _, err := s.midpRepo.GetByID(ctx, midpID); err != nil {
		return nil, err
	}
	rows, err := s.snapshotRepo.ListByMIDP(ctx, midpID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]planning.Snapshot, 0, len(rows))
	for _, r := range rows {
		snapshots = append(snapshots, planning.Snapshot{
			TakenAt:             r.TakenAt,
			TotalContainers:     r.TotalContainers,
			TotalEstimatedHours: r.TotalEstimatedHours,
			CompletedContainers: r.CompletedContainers,
		})
	}
	return planning.ProjectTrends(snapshots), nil
}

func (s *planService) Compliance(ctx context.Context, midpID uuid.UUID) (*planning.ComplianceReport, error) {
	agg, midp, err := s.loadAggregated(ctx, midpID)
	if err != nil {
		return nil, err
	}
	ids, err := decodeIncludedTIDPs(midp.IncludedTIDPs)
	if err != nil {
		return nil, err
	}
	return planning.CheckCompliance(agg, len(ids)), nil
}

// resolveTIDPs loads the requested TIDP set and rejects ids that belong
// to another project or do not exist.
func (s *planService) resolveTIDPs(ctx context.Context, input *GenerateMIDPInput) ([]models.TIDP, error) {
	if len(input.TIDPIDs) == 0 {
		return s.tidpRepo.ListByProject(ctx, input.ProjectID)
	}

	tidps, err := s.tidpRepo.ListByIDs(ctx, input.TIDPIDs)
	if err != nil {
		return nil, err
	}
	if len(tidps) != len(input.TIDPIDs) {
		return nil, appErr.New(appErr.CodeNotFound, "one or more requested tidps do not exist")
	}
	for _, t := range tidps {
		if t.ProjectID != input.ProjectID {
			return nil, appErr.New(appErr.CodeInvalid, "tidp does not belong to this project")
		}
	}
	return tidps, nil
}

// loadAggregated reads a MIDP and decodes its persisted aggregated
// dataset; every analysis endpoint goes through here so they all see the
// same generation.
func (s *planService) loadAggregated(ctx context.Context, midpID uuid.UUID) (*planning.AggregatedData, *models.MIDP, error) {
	midp, err := s.midpRepo.GetByID(ctx, midpID)
	if err != nil {
		return nil, nil, err
	}
	if len(midp.AggregatedData) == 0 {
		return nil, nil, appErr.New(appErr.CodeConflict, "midp has no aggregated data; generate it first")
	}
	var agg planning.AggregatedData
	if err := json.Unmarshal(midp.AggregatedData, &agg); err != nil {
		return nil, nil, appErr.Wrap(err, appErr.CodeInternal, "unmarshal aggregated data failed")
	}
	return &agg, midp, nil
}

func (s *planService) appendSnapshot(ctx context.Context, midpID uuid.UUID, agg *planning.AggregatedData) error {
	return s.snapshotRepo.Append(ctx, &models.Snapshot{
		MIDPID:              midpID,
		TakenAt:             time.Now().UTC(),
		TotalContainers:     agg.TotalContainers,
		TotalEstimatedHours: agg.TotalEstimatedHours,
		CompletedContainers: agg.CompletedContainers,
	})
}

// deriveUpdate computes every persisted derived column for one
// aggregation pass.
func deriveUpdate(agg *planning.AggregatedData, tidps []models.TIDP) (repository.MIDPDataUpdate, []uuid.UUID, error) {
	includedIDs := make([]uuid.UUID, 0, len(tidps))
	for _, t := range tidps {
		includedIDs = append(includedIDs, t.ID)
	}

	aggJSON, err := json.Marshal(agg)
	if err != nil {
		return repository.MIDPDataUpdate{}, nil, appErr.Wrap(err, appErr.CodeInternal, "marshal aggregated data failed")
	}
	gatesJSON, err := json.Marshal(planning.DeriveQualityGates(agg))
	if err != nil {
		return repository.MIDPDataUpdate{}, nil, appErr.Wrap(err, appErr.CodeInternal, "marshal quality gates failed")
	}
	risksJSON, err := json.Marshal(planning.DeriveRiskRegister(agg))
	if err != nil {
		return repository.MIDPDataUpdate{}, nil, appErr.Wrap(err, appErr.CodeInternal, "marshal risk register failed")
	}
	idsJSON, err := json.Marshal(includedIDs)
	if err != nil {
		return repository.MIDPDataUpdate{}, nil, appErr.Wrap(err, appErr.CodeInternal, "marshal included tidps failed")
	}

	return repository.MIDPDataUpdate{
		IncludedTIDPs:  datatypes.JSON(idsJSON),
		AggregatedData: datatypes.JSON(aggJSON),
		QualityGates:   datatypes.JSON(gatesJSON),
		RiskRegister:   datatypes.JSON(risksJSON),
		Status:         "Active",
	}, includedIDs, nil
}

// mapTIDPs converts stored rows into the planning engine's input types.
// The engine never touches gorm models.
func mapTIDPs(tidps []models.TIDP) []planning.TIDP {
	out := make([]planning.TIDP, 0, len(tidps))
	for _, t := range tidps {
		pt := planning.TIDP{
			ID:         t.ID.String(),
			TeamName:   t.TeamName,
			Discipline: t.Discipline,
			Leader:     t.Leader,
			Containers: make([]planning.Container, 0, len(t.Containers)),
		}
		for _, c := range t.Containers {
			pt.Containers = append(pt.Containers, planning.Container{
				ID:                 c.ContainerID,
				Name:               c.Name,
				Author:             c.Author,
				LOIN:               c.LOIN,
				Format:             c.Format,
				Milestone:          c.Milestone,
				DueDate:            c.DueDate,
				EstimatedTime:      c.EstimatedTime,
				AcceptanceCriteria: c.AcceptanceCriteria,
				Status:             c.Status,
				Dependencies:       decodeDependencies(c.Dependencies),
				TeamName:           c.TeamName,
				Discipline:         c.Discipline,
			})
		}
		out = append(out, pt)
	}
	return out
}

func decodeIncludedTIDPs(raw datatypes.JSON) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "unmarshal included tidps failed")
	}
	return ids, nil
}
