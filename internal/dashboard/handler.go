package dashboard

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/invoicedesk/invoicedesk/internal/dashboard/svg"
	"github.com/invoicedesk/invoicedesk/internal/platform/httpx"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

// Handler serves the dashboard.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	profiles  ProfileSource
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, profiles: service.profiles, templates: templates, csrf: csrf}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.show)
	r.Get("/dashboard/revenue", h.revenue)
}

// PeriodTab is one chart period toggle.
type PeriodTab struct {
	Value  Period
	Label  string
	Active bool
}

type page struct {
	Overview
	Chart    template.HTML
	Currency string
	Periods  []PeriodTab
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		period = PeriodMonthly
	}
	ov, err := h.service.Overview(r.Context(), owner, period)
	if err != nil {
		h.logger.Error("load dashboard", slog.String("owner_id", owner.String()), slog.Any("error", err))
		http.Error(w, "The dashboard is unavailable right now. Please try again.", http.StatusServiceUnavailable)
		return
	}

	data := page{Overview: ov, Currency: ov.Profile.Currency}
	for _, p := range Periods {
		data.Periods = append(data.Periods, PeriodTab{Value: p, Label: p.Label(), Active: p == period})
	}
	data.Chart, err = chart(ov)
	if err != nil {
		h.logger.Warn("render revenue chart", slog.Any("error", err))
	}
	if err := h.templates.Render(w, http.StatusOK, "pages/dashboard/index.html", view.NewPageData(r, h.csrf, "Dashboard", data)); err != nil {
		h.logger.Error("render", slog.String("template", "pages/dashboard/index.html"), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func chart(ov Overview) (template.HTML, error) {
	f := ov.Profile.Formatter()
	values := make([]float64, len(ov.Buckets))
	labels := make([]string, len(ov.Buckets))
	for i, b := range ov.Buckets {
		values[i] = b.Revenue.InexactFloat64()
		labels[i] = b.Label
	}
	title, unit := "Revenue by year", "year"
	if ov.Period == PeriodMonthly && len(ov.Buckets) > 0 {
		title, unit = "Revenue "+strconv.Itoa(ov.Buckets[0].Start.Year()), "month"
	}
	return svg.Bars(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.BarOpts{
		Title:       title,
		Description: "Paid invoice totals per " + unit,
		Format: func(v float64) string {
			return f.Format(decimal.NewFromFloat(v))
		},
	})
}

type revenueResponse struct {
	Period   Period   `json:"period"`
	Currency string   `json:"currency"`
	Buckets  []Bucket `json:"buckets"`
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	owner, err := shared.OwnerID(r.Context())
	if err != nil {
		httpx.Problem(w, r, http.StatusUnauthorized, httpx.ErrUnauthorized.Error())
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		fields, _ := shared.AsValidation(err)
		httpx.ValidationProblem(w, r, fields)
		return
	}
	buckets, err := h.service.Revenue(r.Context(), owner, period)
	if err != nil {
		h.logger.Error("load revenue", slog.String("owner_id", owner.String()), slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	currency := ""
	if p, err := h.profiles.Get(r.Context(), owner); err == nil {
		currency = p.Currency
	}
	httpx.JSON(w, http.StatusOK, revenueResponse{Period: period, Currency: currency, Buckets: buckets})
}
