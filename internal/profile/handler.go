package profile

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoicedesk/invoicedesk/internal/money"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

// Handler serves the settings page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers the settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.show)
	r.Post("/settings", h.save)
}

type settingsPage struct {
	Input      Input
	Errors     shared.FormErrors
	Currencies []string
	Saved      bool
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	p, err := h.service.Get(r.Context(), owner)
	if err != nil {
		h.logger.Error("load profile", slog.Any("error", err))
		http.Error(w, "Settings are unavailable right now. Please try again.", http.StatusServiceUnavailable)
		return
	}
	h.render(w, r, http.StatusOK, settingsPage{
		Input:      InputFromProfile(p),
		Errors:     shared.FormErrors{},
		Currencies: money.Supported(),
		Saved:      p.Saved,
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := InputFromForm(r.PostForm)
	if _, err := h.service.Save(r.Context(), owner, in); err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, settingsPage{Input: in, Errors: fields, Currencies: money.Supported()})
			return
		}
		h.logger.Error("save profile", slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/settings", shared.FlashError, "Settings could not be saved. Please try again.")
		return
	}
	shared.RedirectWithFlash(w, r, "/settings", shared.FlashSuccess, "Settings saved")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page settingsPage) {
	if err := h.templates.Render(w, status, "pages/settings/index.html", view.NewPageData(r, h.csrf, "Settings", page)); err != nil {
		h.logger.Error("render settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
