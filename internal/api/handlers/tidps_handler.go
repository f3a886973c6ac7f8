package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/bimflow/engine/internal/api/types"
	"github.com/bimflow/engine/internal/api/validators"
	"github.com/bimflow/engine/internal/services"
	"github.com/google/uuid"
)

type TIDPsHandler struct {
	svc services.TIDPService
}

func NewTIDPsHandler(svc services.TIDPService) *TIDPsHandler {
	return &TIDPsHandler{svc: svc}
}

func (h *TIDPsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTIDPInput(w, r)
	if !ok {
		return
	}
	t, err := h.svc.CreateTIDP(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: t})
}

// List returns the TIDPs of one project; project_id is required because
// a flat listing across projects has no consumer.
func (h *TIDPsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.URL.Query().Get("project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "project_id query parameter is required")
		return
	}
	items, err := h.svc.ListTIDPs(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items})
}

func (h *TIDPsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetTIDP(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: t})
}

func (h *TIDPsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeTIDPInput(w, r)
	if !ok {
		return
	}
	t, err := h.svc.UpdateTIDP(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: t})
}

func (h *TIDPsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTIDP(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

func (h *TIDPsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sum, err := h.svc.Summary(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: sum})
}

func (h *TIDPsHandler) ValidateDependencies(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	v, err := h.svc.ValidateDependencies(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: v})
}

func decodeTIDPInput(w http.ResponseWriter, r *http.Request) (*services.TIDPInput, bool) {
	var req services.TIDPInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return nil, false
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}
