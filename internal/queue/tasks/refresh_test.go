package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bimflow/engine/internal/models"
	"github.com/bimflow/engine/internal/planning"
	"github.com/bimflow/engine/internal/services"
	appErr "github.com/bimflow/engine/pkg/errors"
	"github.com/bimflow/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

// Mock implementations
type mockPlanService struct {
	mock.Mock
}

func (m *mockPlanService) GenerateMIDP(ctx context.Context, input *services.GenerateMIDPInput) (*models.MIDP, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*models.MIDP), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) RefreshMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error) {
	args := m.Called(ctx, midpID)
	if v := args.Get(0); v != nil {
		return v.(*models.MIDP), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) RequestRefresh(ctx context.Context, midpID uuid.UUID) error {
	args := m.Called(ctx, midpID)
	return args.Error(0)
}

func (m *mockPlanService) GetMIDP(ctx context.Context, midpID uuid.UUID) (*models.MIDP, error) {
	args := m.Called(ctx, midpID)
	if v := args.Get(0); v != nil {
		return v.(*models.MIDP), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) GetMIDPByProject(ctx context.Context, projectID uuid.UUID) (*models.MIDP, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.(*models.MIDP), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) DependencyMatrix(ctx context.Context, midpID uuid.UUID) (*planning.DependencyMatrix, error) {
	args := m.Called(ctx, midpID)
	if v := args.Get(0); v != nil {
		return v.(*planning.DependencyMatrix), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) CascadingImpact(ctx context.Context, midpID uuid.UUID, now time.Time) (*planning.ImpactAnalysis, error) {
	args := m.Called(ctx, midpID, now)
	if v := args.Get(0); v != nil {
		return v.(*planning.ImpactAnalysis), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) ResourcePlan(ctx context.Context, midpID uuid.UUID, granularity planning.Granularity) (*planning.ResourcePlan, error) {
	args := m.Called(ctx, midpID, granularity)
	if v := args.Get(0); v != nil {
		return v.(*planning.ResourcePlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) Trends(ctx context.Context, midpID uuid.UUID) (*planning.TrendReport, error) {
	args := m.Called(ctx, midpID)
	if v := args.Get(0); v != nil {
		return v.(*planning.TrendReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlanService) Compliance(ctx context.Context, midpID uuid.UUID) (*planning.ComplianceReport, error) {
	args := m.Called(ctx, midpID)
	if v := args.Get(0); v != nil {
		return v.(*planning.ComplianceReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRefreshTaskHandler_HandleRefresh(t *testing.T) {
	midpID := uuid.New()
	projectID := uuid.New()

	t.Run("successful refresh", func(t *testing.T) {
		planSvc := &mockPlanService{}
		handler := NewRefreshTaskHandler(planSvc)

		payload := services.MIDPRefreshPayload{MIDPID: midpID.String()}
		payloadBytes, _ := json.Marshal(payload)
		task := asynq.NewTask(services.TaskMIDPRefresh, payloadBytes)

		planSvc.On("RefreshMIDP", mock.Anything, midpID).
			Return(&models.MIDP{ID: midpID, ProjectID: projectID}, nil).Once()

		err := handler.HandleRefresh(context.Background(), task)
		require.NoError(t, err)
		mock.AssertExpectationsForObjects(t, planSvc)
	})

	t.Run("refresh failure propagates for retry", func(t *testing.T) {
		planSvc := &mockPlanService{}
		handler := NewRefreshTaskHandler(planSvc)

		payload := services.MIDPRefreshPayload{MIDPID: midpID.String()}
		payloadBytes, _ := json.Marshal(payload)
		task := asynq.NewTask(services.TaskMIDPRefresh, payloadBytes)

		wantErr := appErr.New(appErr.CodeNotFound, "midp not found")
		planSvc.On("RefreshMIDP", mock.Anything, midpID).Return(nil, wantErr).Once()

		err := handler.HandleRefresh(context.Background(), task)
		require.Error(t, err)
		require.Equal(t, wantErr, err)
		mock.AssertExpectationsForObjects(t, planSvc)
	})

	t.Run("invalid payload", func(t *testing.T) {
		planSvc := &mockPlanService{}
		handler := NewRefreshTaskHandler(planSvc)

		task := asynq.NewTask(services.TaskMIDPRefresh, []byte("not json"))
		require.Error(t, handler.HandleRefresh(context.Background(), task))

		bad, _ := json.Marshal(services.MIDPRefreshPayload{MIDPID: "not-a-uuid"})
		task = asynq.NewTask(services.TaskMIDPRefresh, bad)
		require.Error(t, handler.HandleRefresh(context.Background(), task))
	})
}
