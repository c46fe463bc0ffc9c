package attendance

import (
	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/shared"
)

// MountRoutes registers attendance routes. Students only see their own marks; the API scopes
// the collection by token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleTeacher))
		r.Post("/", h.mark)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin))
		r.Post("/{id}/delete", h.delete)
	})
}
