package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

// Options configures NewRouter.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	// Uploads serves stored item photos under /uploads/. Optional.
	Uploads http.Handler
}

// NewRouter creates the HTTP router with all endpoints registered.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}

	authHandler := &AuthHandler{Svc: svc}
	adminHandler := &AdminHandler{Svc: svc}
	holderHandler := &HolderHandler{Svc: svc, MaxUploadBytes: opts.MaxUploadBytes}
	userHandler := &UserHandler{Svc: svc}

	authMW := AuthMiddleware(svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(CORS(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, apperr.KindNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, apperr.KindValidation, "method not allowed")
	})

	if opts.Uploads != nil {
		r.Handle("/uploads/*", opts.Uploads)
	}

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Get("/health", Health(svc))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/admin/register", authHandler.RegisterAdmin)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRoles(model.RoleAdmin))
				r.Get("/pending-approvals", adminHandler.PendingApprovals)
				r.Post("/approve-user/{id}", adminHandler.ApproveUser)
				r.Get("/inventories", adminHandler.ListInventories)
				r.Post("/inventories", adminHandler.CreateInventory)
				r.Delete("/inventories/{inventoryId}", adminHandler.DeleteInventory)
				r.Get("/requests", adminHandler.ListRequests)
				r.Post("/requests/{id}/action", adminHandler.ActOnRequest)
				r.Get("/stats", adminHandler.Stats)
				r.Get("/logs", adminHandler.Logs)
			})

			r.Route("/holder", func(r chi.Router) {
				r.Use(RequireRoles(model.RoleHolder))
				r.Get("/inventory", holderHandler.Inventory)
				r.Post("/items", holderHandler.AddItem)
				r.Put("/items/{code}", holderHandler.UpdateItem)
				r.Delete("/items/{code}", holderHandler.DeleteItem)
				r.Get("/requests", holderHandler.Requests)
				r.Post("/requests/{id}/action", holderHandler.ActOnRequest)
			})

			r.Route("/user", func(r chi.Router) {
				r.Use(RequireRoles(model.RoleUser))
				r.Get("/inventories", userHandler.Inventories)
				r.Get("/inventory/{id}", userHandler.Inventory)
				r.Post("/request", userHandler.CreateRequest)
				r.Get("/requests", userHandler.Requests)
			})
		})
	})

	return r
}
