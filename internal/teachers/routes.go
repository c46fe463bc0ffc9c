package teachers

import (
	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/shared"
)

// MountRoutes registers teacher routes. The faculty roster is admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireRole(shared.RoleAdmin))
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/delete", h.delete)
	r.Post("/{id}/status", h.toggleStatus)
}
