package clients

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

// Handler serves the client pages.
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

type listPage struct {
	Clients []Client
	Query   string
	Total   int
}

type formPage struct {
	Client *Client
	Input  Input
	Errors shared.FormErrors
	Action string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	all, err := h.service.List(r.Context(), owner)
	if err != nil {
		h.unavailable(w, "list clients", err)
		return
	}
	query := r.URL.Query().Get("q")
	page := listPage{Clients: all, Query: query, Total: len(all)}
	if strings.TrimSpace(query) != "" {
		page.Clients, err = h.service.Search(r.Context(), owner, query)
		if err != nil {
			h.unavailable(w, "search clients", err)
			return
		}
	}
	h.render(w, r, http.StatusOK, "pages/clients/index.html", "Clients", page)
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/clients/form.html", "New client", formPage{
		Errors: shared.FormErrors{},
		Action: "/clients",
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
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
	client, err := h.service.Create(r.Context(), owner, in)
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "pages/clients/form.html", "New client", formPage{
				Input: in, Errors: fields, Action: "/clients",
			})
			return
		}
		h.logger.Error("create client", slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/clients", shared.FlashError, "Client could not be saved. Please try again.")
		return
	}
	shared.RedirectWithFlash(w, r, "/clients", shared.FlashSuccess, "Client "+client.DisplayName()+" added")
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	client, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "get client", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/clients/form.html", "Edit client", formPage{
		Client: client,
		Input:  InputFromClient(*client),
		Errors: shared.FormErrors{},
		Action: "/clients/" + client.ID.String(),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := InputFromForm(r.PostForm)
	client, err := h.service.Update(r.Context(), owner, id, in)
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "pages/clients/form.html", "Edit client", formPage{
				Client: &Client{ID: id}, Input: in, Errors: fields, Action: "/clients/" + id.String(),
			})
			return
		}
		h.fail(w, r, "update client", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/clients", shared.FlashSuccess, "Client "+client.DisplayName()+" updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, "delete client", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/clients", shared.FlashSuccess, "Client deleted")
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.notFound(w, r)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

// fail reports err: missing rows get the not found page, anything else a
// flash and a redirect to the list.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	shared.RedirectWithFlash(w, r, "/clients", shared.FlashError, "Something went wrong. Please try again.")
}

func (h *Handler) unavailable(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, "Clients are unavailable right now. Please try again.", http.StatusServiceUnavailable)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.NotFound(w, r, h.csrf, "/clients", "Back to clients"); err != nil {
		h.logger.Error("render not found", slog.Any("error", err))
		http.NotFound(w, r)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	if err := h.templates.Render(w, status, tmpl, view.NewPageData(r, h.csrf, title, data)); err != nil {
		h.logger.Error("render", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
