package activities

import (
	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/shared"
)

// MountRoutes registers daily activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleTeacher))
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/edit", h.update)
	r.Post("/{id}/attachments", h.attach)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin))
		r.Post("/{id}/delete", h.delete)
		r.Post("/{id}/approve", h.approve)
	})
}
