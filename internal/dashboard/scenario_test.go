package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/dashboard"
	"github.com/invoicedesk/invoicedesk/internal/invoices"
	"github.com/invoicedesk/invoicedesk/internal/profile"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/testing/memstore"
	"github.com/invoicedesk/invoicedesk/internal/testing/webtest"
	"github.com/invoicedesk/invoicedesk/internal/view"
	_ "github.com/invoicedesk/invoicedesk/testing"
)

var now = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

type defaultProfiles struct{}

func (defaultProfiles) Get(_ context.Context, owner uuid.UUID) (profile.Profile, error) {
	return profile.Defaults(owner), nil
}

type stack struct {
	clients   *clients.Service
	invoices  *invoices.Service
	dashboard *dashboard.Service
}

func newStack() stack {
	clientRepo := memstore.NewClients()
	clientSvc := clients.NewService(clientRepo, nil, nil)
	clock := func() time.Time { return now }
	invoiceSvc := invoices.NewService(memstore.NewInvoices(clientRepo), clientSvc, nil, nil).WithNow(clock)
	return stack{
		clients:   clientSvc,
		invoices:  invoiceSvc,
		dashboard: dashboard.NewService(invoiceSvc, defaultProfiles{}).WithNow(clock),
	}
}

// createAcmeInvoice bills Acme for two units at 500 plus a 100 delivery
// charge.
func createAcmeInvoice(t *testing.T, s stack, owner uuid.UUID) *invoices.Invoice {
	t.Helper()
	ctx := context.Background()
	acme, err := s.clients.Create(ctx, owner, clients.Input{Name: "Acme"})
	require.NoError(t, err)

	inv, err := s.invoices.Create(ctx, owner, invoices.Draft{
		ClientID:    acme.ID.String(),
		Number:      s.invoices.NextNumber(ctx, owner, "INV"),
		InvoiceDate: now.Format("2006-01-02"),
		Status:      "pending",
		Items:       []invoices.ItemInput{{Description: "Brochures", Quantity: "2", UnitPrice: "500"}},
		Charges:     []invoices.ChargeInput{{Label: "Delivery", Amount: "100"}},
	}, false)
	require.NoError(t, err)
	return inv
}

func TestAcmeInvoiceReachesRevenueChart(t *testing.T) {
	s := newStack()
	ctx := context.Background()
	owner := uuid.New()

	inv := createAcmeInvoice(t, s, owner)
	assert.Equal(t, "INV-20240615-001", inv.Number)
	assert.Equal(t, "Acme", inv.ClientName)
	assert.True(t, decimal.NewFromInt(1000).Equal(inv.Subtotal))
	assert.True(t, decimal.NewFromInt(1100).Equal(inv.Total))

	buckets, err := s.dashboard.Revenue(ctx, owner, dashboard.PeriodMonthly)
	require.NoError(t, err)
	assert.True(t, buckets[now.Month()-1].Revenue.IsZero(), "pending invoices are not revenue")

	_, err = s.invoices.SetStatus(ctx, owner, inv.ID, "paid")
	require.NoError(t, err)

	buckets, err = s.dashboard.Revenue(ctx, owner, dashboard.PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, buckets, 12)
	assert.True(t, decimal.NewFromInt(1100).Equal(buckets[now.Month()-1].Revenue))

	ov, err := s.dashboard.Overview(ctx, owner, dashboard.PeriodYearly)
	require.NoError(t, err)
	assert.Equal(t, 1, ov.Stats.Paid.Count)
	assert.True(t, decimal.NewFromInt(1100).Equal(ov.Buckets[4].Revenue))
	require.Len(t, ov.Recent, 1)
	assert.Equal(t, "NGN", ov.Profile.Currency)
}

func newDashboardWeb(t *testing.T) (*webtest.Client, stack) {
	t.Helper()
	s := newStack()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	h := dashboard.NewHandler(nil, s.dashboard, templates, shared.NewCSRFManager("secret"))
	return webtest.New(t, uuid.New(), func(r chi.Router) { h.MountRoutes(r) }), s
}

func TestDashboardPage(t *testing.T) {
	web, s := newDashboardWeb(t)
	inv := createAcmeInvoice(t, s, web.Owner)
	_, err := s.invoices.SetStatus(context.Background(), web.Owner, inv.ID, "paid")
	require.NoError(t, err)

	res := web.Do(http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "₦1,100")
	assert.Contains(t, body, inv.Number)
	assert.Contains(t, body, "Revenue 2024")

	res = web.Do(http.MethodGet, "/dashboard?period=yearly", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Revenue by year")
}

func TestRevenueJSON(t *testing.T) {
	web, s := newDashboardWeb(t)
	inv := createAcmeInvoice(t, s, web.Owner)
	_, err := s.invoices.SetStatus(context.Background(), web.Owner, inv.ID, "paid")
	require.NoError(t, err)

	res := web.Do(http.MethodGet, "/dashboard/revenue?period=yearly", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Period   string `json:"period"`
		Currency string `json:"currency"`
		Buckets  []struct {
			Label   string          `json:"label"`
			Revenue decimal.Decimal `json:"revenue"`
		} `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, "yearly", body.Period)
	assert.Equal(t, "NGN", body.Currency)
	require.Len(t, body.Buckets, 5)
	assert.Equal(t, "2024", body.Buckets[4].Label)
	assert.True(t, decimal.NewFromInt(1100).Equal(body.Buckets[4].Revenue))

	res = web.Do(http.MethodGet, "/dashboard/revenue?period=weekly", nil)
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Period must be monthly or yearly")
}
