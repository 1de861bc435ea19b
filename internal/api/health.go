package api

import (
	"context"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/apperr"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Health handles GET /api/health.
func Health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			jsonError(w, http.StatusServiceUnavailable, apperr.KindInternal, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
	}
}
