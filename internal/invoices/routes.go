package invoices

import "github.com/go-chi/chi/v5"

// MountRoutes registers the invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/export.csv", h.exportCSV)
		r.Get("/new", h.showNew)
		r.Post("/", h.create)
		r.Post("/preview", h.preview)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.show)
			r.Post("/", h.update)
			r.Get("/edit", h.showEdit)
			r.Post("/status", h.setStatus)
			r.Post("/delete", h.delete)
			r.Get("/pdf", h.download)
			r.Post("/items", h.replaceItems)
		})
	})
}
