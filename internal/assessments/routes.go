package assessments

import (
	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/shared"
)

// MountRoutes registers assessment routes. Every role can read; the API scopes students
// to their own batch.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleTeacher))
		r.Post("/", h.create)
		r.Post("/{id}/edit", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin))
		r.Post("/{id}/delete", h.delete)
		r.Post("/{id}/approve", h.approve)
	})
}
