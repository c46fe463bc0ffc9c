package fees

import (
	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/shared"
)

// MountRoutes registers fee routes. Students see their own fees; the API scopes the list.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin, shared.RoleStudent))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(shared.RoleAdmin))
		r.Get("/{id}/receipt", h.receipt)
		r.Post("/", h.create)
		r.Post("/{id}/edit", h.update)
		r.Post("/{id}/delete", h.delete)
		r.Post("/{id}/pay", h.pay)
	})
}
