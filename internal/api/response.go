package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/logging"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

type errorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, kind apperr.Kind, message string) {
	jsonResponse(w, status, errorBody{Error: message, Kind: kind})
}

// writeError maps err onto its status code. Internal causes are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.KindInternal {
		logging.From(r.Context()).Error("request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, e.Kind, "internal error")
		return
	}
	jsonError(w, e.StatusCode(), e.Kind, e.Message)
}

type messageBody struct {
	Message string `json:"message"`
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
