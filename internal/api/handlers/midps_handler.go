package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bimflow/engine/internal/api/types"
	"github.com/bimflow/engine/internal/api/validators"
	"github.com/bimflow/engine/internal/planning"
	"github.com/bimflow/engine/internal/services"
	"github.com/bimflow/engine/pkg/config"
)

type MIDPsHandler struct {
	svc services.PlanService
}

func NewMIDPsHandler(svc services.PlanService) *MIDPsHandler {
	return &MIDPsHandler{svc: svc}
}

func (h *MIDPsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateMIDPInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	midp, err := h.svc.GenerateMIDP(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: midp})
}

func (h *MIDPsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	midp, err := h.svc.GetMIDP(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: midp})
}

func (h *MIDPsHandler) GetByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	midp, err := h.svc.GetMIDPByProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: midp})
}

// Refresh enqueues a background re-aggregation and returns immediately.
func (h *MIDPsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.RequestRefresh(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: map[string]string{"status": "refresh requested"}})
}

func (h *MIDPsHandler) DependencyMatrix(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.svc.DependencyMatrix(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: m})
}

// CascadingImpact analyzes lateness as of now, or as of ?at= (RFC 3339)
// for what-if queries.
func (h *MIDPsHandler) CascadingImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	now := time.Now().UTC()
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			writeErrorStr(w, http.StatusBadRequest, "invalid at parameter, expected RFC 3339")
			return
		}
		now = t
	}
	a, err := h.svc.CascadingImpact(r.Context(), id, now)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: a})
}

func (h *MIDPsHandler) ResourcePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	granularity := planning.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = planning.Granularity(config.Get().DefaultGranularity)
	}
	p, err := h.svc.ResourcePlan(r.Context(), id, granularity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: p})
}

func (h *MIDPsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.Trends(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: t})
}

func (h *MIDPsHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.svc.Compliance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: c})
}
