package clients

import "github.com/go-chi/chi/v5"

// MountRoutes registers the client pages. Callers mount them behind
// auth.RequireUser.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.list)
	r.Get("/clients/new", h.showNew)
	r.Post("/clients", h.create)
	r.Get("/clients/{id}/edit", h.showEdit)
	r.Post("/clients/{id}", h.update)
	r.Post("/clients/{id}/delete", h.delete)
}
