package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

// multipartMemory is the in-memory share of a parsed multipart form; larger
// parts spill to temporary files.
const multipartMemory = 8 << 20

// HolderHandler handles the inventory holder endpoints.
type HolderHandler struct {
	Svc            *service.Service
	MaxUploadBytes int64
}

type itemRequest struct {
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	Quantity        quantity `json:"quantity"`
	CalibrationInfo string   `json:"calibrationInfo"`
	ExpiryInfo      string   `json:"expiryInfo"`
}

type itemPatchRequest struct {
	Name            *string  `json:"name"`
	Quantity        quantity `json:"quantity"`
	CalibrationInfo *string  `json:"calibrationInfo"`
	ExpiryInfo      *string  `json:"expiryInfo"`
}

type itemResponse struct {
	Message string      `json:"message"`
	Item    *model.Item `json:"item"`
}

// Inventory handles GET /api/holder/inventory.
func (h *HolderHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Svc.HolderInventory(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, inv)
}

// AddItem handles POST /api/holder/items. Accepts JSON or a multipart form
// with an optional "image" file.
func (h *HolderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in service.NewItem

	if isMultipart(r) {
		if err := h.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := parseQuantity(r.FormValue("quantity"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		img, err := readImage(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in = service.NewItem{
			Name:            r.FormValue("name"),
			Code:            r.FormValue("code"),
			Quantity:        q.Value,
			CalibrationInfo: r.FormValue("calibrationInfo"),
			ExpiryInfo:      r.FormValue("expiryInfo"),
			Image:           img,
		}
	} else {
		var req itemRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		in = service.NewItem{
			Name:            req.Name,
			Code:            req.Code,
			Quantity:        req.Quantity.Value,
			CalibrationInfo: req.CalibrationInfo,
			ExpiryInfo:      req.ExpiryInfo,
		}
	}

	item, err := h.Svc.AddItem(r.Context(), CurrentUser(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, itemResponse{Message: "Item added successfully", Item: item})
}

// UpdateItem handles PUT /api/holder/items/{code}. Only supplied fields are
// changed; blank fields keep their stored value.
func (h *HolderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var in service.ItemUpdate

	if isMultipart(r) {
		if err := h.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		if v, ok := formValue(r, "name"); ok {
			in.Name = &v
		}
		if v, ok := formValue(r, "quantity"); ok {
			q, err := parseQuantity(v)
			if err != nil {
				writeError(w, r, err)
				return
			}
			in.Quantity = &q.Value
		}
		if v, ok := formValue(r, "calibrationInfo"); ok {
			in.CalibrationInfo = &v
		}
		if v, ok := formValue(r, "expiryInfo"); ok {
			in.ExpiryInfo = &v
		}
		img, err := readImage(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.Image = img
	} else {
		var req itemPatchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		in.Name = supplied(req.Name)
		in.CalibrationInfo = supplied(req.CalibrationInfo)
		in.ExpiryInfo = supplied(req.ExpiryInfo)
		if req.Quantity.Set {
			in.Quantity = &req.Quantity.Value
		}
	}

	item, err := h.Svc.UpdateItem(r.Context(), CurrentUser(r.Context()), code, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, itemResponse{Message: "Item updated successfully", Item: item})
}

// DeleteItem handles DELETE /api/holder/items/{code}.
func (h *HolderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteItem(r.Context(), CurrentUser(r.Context()), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, messageBody{Message: "Item deleted successfully"})
}

// Requests handles GET /api/holder/requests.
func (h *HolderHandler) Requests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.HolderRequests(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// ActOnRequest handles POST /api/holder/requests/{id}/action.
func (h *HolderHandler) ActOnRequest(w http.ResponseWriter, r *http.Request) {
	actOnRequest(h.Svc, w, r)
}

// parseForm parses a size-limited multipart body.
func (h *HolderHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("upload exceeds %d bytes", h.MaxUploadBytes)
		}
		return apperr.Validation("invalid multipart form")
	}
	return nil
}
