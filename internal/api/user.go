package api

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/erazemk/zaloga/internal/service"
)

// UserHandler handles the end-user endpoints.
type UserHandler struct {
	Svc *service.Service
}

type createRequestRequest struct {
	InventoryID string   `json:"inventoryId"`
	ItemCode    string   `json:"itemCode"`
	Quantity    quantity `json:"quantity"`
}

// Inventories handles GET /api/user/inventories.
func (h *UserHandler) Inventories(w http.ResponseWriter, r *http.Request) {
	sums, err := h.Svc.ListInventorySummaries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sums)
}

// Inventory handles GET /api/user/inventory/{id}.
func (h *UserHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Svc.GetInventory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, inv)
}

// CreateRequest handles POST /api/user/request.
func (h *UserHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.Svc.CreateRequest(r.Context(), CurrentUser(r.Context()), req.InventoryID, req.ItemCode, req.Quantity.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, requestResponse{Message: "Request submitted successfully", Request: created})
}

// Requests handles GET /api/user/requests.
func (h *UserHandler) Requests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.UserRequests(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}
