package invoices

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/money"
	"github.com/invoicedesk/invoicedesk/internal/pdf"
	"github.com/invoicedesk/invoicedesk/internal/platform/httpx"
	"github.com/invoicedesk/invoicedesk/internal/profile"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

// ClientOptions lists the clients offered in the invoice form.
type ClientOptions interface {
	List(ctx context.Context, owner uuid.UUID) ([]clients.Client, error)
}

// ProfileSource resolves the business profile of an owner.
type ProfileSource interface {
	Get(ctx context.Context, owner uuid.UUID) (profile.Profile, error)
}

// Handler serves the invoice pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	clients   ClientOptions
	profiles  ProfileSource
	renderer  pdf.Renderer
	templates *view.Engine
	csrf      *shared.CSRFManager
	now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, clientOptions ClientOptions, profiles ProfileSource, renderer pdf.Renderer, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		clients:   clientOptions,
		profiles:  profiles,
		renderer:  renderer,
		templates: templates,
		csrf:      csrf,
		now:       time.Now,
	}
}

// WithNow overrides the clock used for new invoice dates.
func (h *Handler) WithNow(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

// Tab is one status filter of the invoice list.
type Tab struct {
	Value  string
	Label  string
	Count  int
	Active bool
}

type listPage struct {
	ListView
	Tabs     []Tab
	Currency string
}

type formPage struct {
	Invoice        *Invoice
	Draft          Draft
	Totals         Totals
	Errors         shared.FormErrors
	Action         string
	Clients        []clients.Client
	Statuses       []Status
	Currency       string
	HasBankDetails bool
}

type showPage struct {
	Invoice  *Invoice
	Actions  []StatusAction
	Currency string
	Profile  profile.Profile
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lv, err := h.service.Browse(r.Context(), owner, q.Get("q"), q.Get("status"))
	if err != nil {
		h.unavailable(w, "list invoices", err)
		return
	}
	p := h.profile(r.Context(), owner)
	h.render(w, r, http.StatusOK, "pages/invoices/index.html", "Invoices", listPage{
		ListView: lv,
		Tabs:     tabs(lv),
		Currency: p.Currency,
	})
}

func tabs(lv ListView) []Tab {
	out := []Tab{{Value: "all", Label: "All", Count: lv.All, Active: lv.Status == "all"}}
	for _, st := range Statuses {
		out = append(out, Tab{Value: string(st), Label: st.Label(), Count: lv.Counts[st], Active: lv.Status == string(st)})
	}
	return out
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	lv, err := h.service.Browse(r.Context(), owner, q.Get("q"), q.Get("status"))
	if err != nil {
		h.unavailable(w, "export invoices", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"invoices-%s.csv\"", h.now().Format("20060102")))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"invoice_number", "client", "invoice_date", "due_date", "status", "subtotal", "total"})
	for _, inv := range lv.Invoices {
		due := ""
		if inv.DueDate != nil {
			due = inv.DueDate.Format(dateLayout)
		}
		_ = cw.Write([]string{
			inv.Number,
			inv.ClientName,
			inv.InvoiceDate.Format(dateLayout),
			due,
			string(inv.Status),
			inv.Subtotal.StringFixed(2),
			inv.Total.StringFixed(2),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("write invoice csv", slog.Any("error", err))
	}
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	p := h.profile(r.Context(), owner)
	draft := NewDraft(Defaults{
		Number:  h.service.NextNumber(r.Context(), owner, p.Prefix()),
		Date:    h.now(),
		DueDays: p.DefaultDueDays,
		Notes:   p.DefaultNotes,
	})
	if id := r.URL.Query().Get("client_id"); id != "" {
		draft.ClientID = id
	}
	h.renderForm(w, r, http.StatusOK, owner, p, formPage{Draft: draft, Errors: shared.FormErrors{}, Action: "/invoices"})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	draft := DraftFromForm(r.PostForm)
	p := h.profile(r.Context(), owner)
	page := formPage{Draft: draft, Errors: shared.FormErrors{}, Action: "/invoices"}

	action, index := ParseAction(r.PostFormValue("action"))
	if action != ActionSave {
		page.Draft.Apply(action, index)
		h.renderForm(w, r, http.StatusOK, owner, p, page)
		return
	}

	inv, err := h.service.Create(r.Context(), owner, draft, p.HasBankDetails())
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			page.Errors = fields
			h.renderForm(w, r, http.StatusUnprocessableEntity, owner, p, page)
			return
		}
		h.logger.Error("create invoice", slog.Any("error", err))
		page.Errors.Add("general", "Invoice could not be saved. Please try again.")
		h.renderForm(w, r, http.StatusServiceUnavailable, owner, p, page)
		return
	}
	shared.RedirectWithFlash(w, r, "/invoices/"+inv.ID.String(), shared.FlashSuccess, "Invoice "+inv.Number+" created")
}

// previewResponse carries live totals for the invoice editor script.
type previewResponse struct {
	Totals    Totals          `json:"totals"`
	Formatted formattedTotals `json:"formatted"`
}

type formattedTotals struct {
	Items        []string `json:"items"`
	Subtotal     string   `json:"subtotal"`
	ChargesTotal string   `json:"charges_total"`
	Total        string   `json:"total"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		httpx.Problem(w, r, http.StatusUnauthorized, httpx.ErrUnauthorized.Error())
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, r, http.StatusBadRequest, "malformed form")
		return
	}
	totals := DraftFromForm(r.PostForm).Totals()
	f := money.NewFormatter(h.profile(r.Context(), owner).Currency)
	res := previewResponse{
		Totals: totals,
		Formatted: formattedTotals{
			Items:        make([]string, len(totals.Items)),
			Subtotal:     f.Format(totals.Subtotal),
			ChargesTotal: f.Format(totals.ChargesTotal),
			Total:        f.Format(totals.Total),
		},
	}
	for i, amount := range totals.Items {
		res.Formatted.Items[i] = f.Format(amount)
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	p := h.profile(r.Context(), owner)
	h.render(w, r, http.StatusOK, "pages/invoices/show.html", "Invoice "+inv.Number, showPage{
		Invoice:  inv,
		Actions:  inv.Status.NextActions(),
		Currency: p.Currency,
		Profile:  p,
	})
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	p := h.profile(r.Context(), owner)
	h.renderForm(w, r, http.StatusOK, owner, p, formPage{
		Invoice: inv,
		Draft:   DraftFromInvoice(*inv),
		Errors:  shared.FormErrors{},
		Action:  "/invoices/" + inv.ID.String(),
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
	draft := DraftFromForm(r.PostForm)
	p := h.profile(r.Context(), owner)
	page := formPage{Invoice: &Invoice{ID: id, Number: draft.Number}, Draft: draft, Errors: shared.FormErrors{}, Action: "/invoices/" + id.String()}

	action, index := ParseAction(r.PostFormValue("action"))
	if action != ActionSave {
		page.Draft.Apply(action, index)
		h.renderForm(w, r, http.StatusOK, owner, p, page)
		return
	}

	inv, err := h.service.Update(r.Context(), owner, id, draft, p.HasBankDetails())
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			page.Errors = fields
			h.renderForm(w, r, http.StatusUnprocessableEntity, owner, p, page)
			return
		}
		h.fail(w, r, "update invoice", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/invoices/"+inv.ID.String(), shared.FlashSuccess, "Invoice "+inv.Number+" updated")
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	back := "/invoices/" + id.String()
	st, err := h.service.SetStatus(r.Context(), owner, id, r.PostFormValue("status"))
	if err != nil {
		if _, ok := shared.AsValidation(err); ok {
			shared.RedirectWithFlash(w, r, back, shared.FlashError, "Unknown status")
			return
		}
		h.fail(w, r, "update invoice status", err)
		return
	}
	shared.RedirectWithFlash(w, r, back, shared.FlashSuccess, "Invoice marked as "+st.Label())
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, id); err != nil {
		h.fail(w, r, "delete invoice", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/invoices", shared.FlashSuccess, "Invoice deleted")
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.target(w, r)
	if !ok {
		return
	}
	inv, err := h.service.Get(r.Context(), owner, id)
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	doc := Document(*inv, h.profile(r.Context(), owner))
	out, err := h.renderer.Render(r.Context(), doc)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.String("invoice_id", id.String()), slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/invoices/"+id.String(), shared.FlashError, "Failed to generate PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

type itemsRequest struct {
	Items []ItemInput `json:"items"`
}

func (h *Handler) replaceItems(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		httpx.Problem(w, r, http.StatusUnauthorized, httpx.ErrUnauthorized.Error())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, httpx.ErrNotFound)
		return
	}
	var req itemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	inv, err := h.service.ReplaceItems(r.Context(), owner, id, req.Items)
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			httpx.ValidationProblem(w, r, fields)
			return
		}
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, r, httpx.ErrNotFound)
			return
		}
		h.logger.Error("replace invoice items", slog.String("invoice_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, owner uuid.UUID, p profile.Profile, page formPage) {
	options, err := h.clients.List(r.Context(), owner)
	if err != nil {
		h.logger.Warn("list clients for invoice form", slog.Any("error", err))
		page.Errors.Add("client_id", "Clients could not be loaded")
	}
	page.Clients = options
	page.Totals = page.Draft.Totals()
	page.Statuses = Statuses
	page.Currency = p.Currency
	page.HasBankDetails = p.HasBankDetails()
	title := "New invoice"
	if page.Invoice != nil {
		title = "Edit invoice"
	}
	h.render(w, r, status, "pages/invoices/form.html", title, page)
}

// profile returns the owner's profile, or the defaults when it cannot be
// loaded.
func (h *Handler) profile(ctx context.Context, owner uuid.UUID) profile.Profile {
	p, err := h.profiles.Get(ctx, owner)
	if err != nil {
		h.logger.Warn("load profile", slog.String("owner_id", owner.String()), slog.Any("error", err))
		return profile.Defaults(owner)
	}
	return p
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return uuid.Nil, false
	}
	return owner, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := h.owner(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.notFound(w, r)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	shared.RedirectWithFlash(w, r, "/invoices", shared.FlashError, "Something went wrong. Please try again.")
}

func (h *Handler) unavailable(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, "Invoices are unavailable right now. Please try again.", http.StatusServiceUnavailable)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.NotFound(w, r, h.csrf, "/invoices", "Back to invoices"); err != nil {
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
