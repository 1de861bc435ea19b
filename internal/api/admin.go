package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

// AdminHandler handles the administrator endpoints.
type AdminHandler struct {
	Svc *service.Service
}

type approveRequest struct {
	Action      string `json:"action"`
	InventoryID string `json:"inventoryId"`
}

type createInventoryRequest struct {
	InventoryID string `json:"inventoryId"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type requestResponse struct {
	Message string         `json:"message"`
	Request *model.Request `json:"request"`
}

// PendingApprovals handles GET /api/admin/pending-approvals.
func (h *AdminHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	users, err := h.Svc.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// ApproveUser handles POST /api/admin/approve-user/{id}.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Svc.Approve(r.Context(), CurrentUser(r.Context()), id, req.Action, req.InventoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, userResponse{Message: "User " + req.Action + " successfully", User: user})
}

// ListInventories handles GET /api/admin/inventories.
func (h *AdminHandler) ListInventories(w http.ResponseWriter, r *http.Request) {
	invs, err := h.Svc.ListInventories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, invs)
}

// CreateInventory handles POST /api/admin/inventories.
func (h *AdminHandler) CreateInventory(w http.ResponseWriter, r *http.Request) {
	var req createInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	inv, err := h.Svc.CreateInventory(r.Context(), CurrentUser(r.Context()), req.InventoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, inv)
}

// DeleteInventory handles DELETE /api/admin/inventories/{inventoryId}.
func (h *AdminHandler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	inventoryID := chi.URLParam(r, "inventoryId")
	if err := h.Svc.DeleteInventory(r.Context(), CurrentUser(r.Context()), inventoryID); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, messageBody{Message: "Inventory deleted successfully"})
}

// ListRequests handles GET /api/admin/requests.
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.ListRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Logs handles GET /api/admin/logs.
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.Svc.Logs(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, logs)
}

// actOnRequest is shared by the holder and admin action routes.
func actOnRequest(svc *service.Service, w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := svc.ActOnRequest(r.Context(), CurrentUser(r.Context()), id, req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, requestResponse{Message: "Request " + req.Action + " successfully", Request: updated})
}

// ActOnRequest handles POST /api/admin/requests/{id}/action.
func (h *AdminHandler) ActOnRequest(w http.ResponseWriter, r *http.Request) {
	actOnRequest(h.Svc, w, r)
}
