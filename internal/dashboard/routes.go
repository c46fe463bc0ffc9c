package dashboard

import "github.com/go-chi/chi/v5"

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
}
