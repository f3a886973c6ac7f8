package tasks

import (
	"context"
	"encoding/json"

	"github.com/bimflow/engine/internal/services"
	"github.com/bimflow/engine/pkg/logger"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RefreshTaskHandler re-aggregates MIDPs in the background so TIDP edits
// do not block the request path.
type RefreshTaskHandler struct {
	planSvc services.PlanService
}

func NewRefreshTaskHandler(planSvc services.PlanService) *RefreshTaskHandler {
	return &RefreshTaskHandler{planSvc: planSvc}
}

func (h *RefreshTaskHandler) HandleRefresh(ctx context.Context, t *asynq.Task) error {
	var p services.MIDPRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid refresh task payload", zap.Error(err))
		return err
	}
	id, err := uuid.Parse(p.MIDPID)
	if err != nil {
		logger.L().Error("invalid midp id in task", zap.Error(err))
		return err
	}

	logger.L().Info("handling refresh task", zap.String("midp_id", id.String()))

	midp, err := h.planSvc.RefreshMIDP(ctx, id)
	if err != nil {
		logger.L().Error("midp refresh failed", zap.Error(err), zap.String("midp_id", id.String()))
		return err
	}

	logger.L().Info("refresh task completed",
		zap.String("midp_id", midp.ID.String()),
		zap.String("project_id", midp.ProjectID.String()))
	return nil
}
