package clients_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicedesk/invoicedesk/internal/clients"
	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/testing/webtest"
	"github.com/invoicedesk/invoicedesk/internal/view"
	_ "github.com/invoicedesk/invoicedesk/testing"
)

func newClientsWeb(t *testing.T) (*webtest.Client, *clients.Service) {
	t.Helper()
	svc, _, _ := newCachedService(t)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	h := clients.NewHandler(nil, svc, templates, shared.NewCSRFManager("secret"))
	web := webtest.New(t, uuid.New(), func(r chi.Router) { h.MountRoutes(r) })
	return web, svc
}

func TestClientCreateFlow(t *testing.T) {
	web, svc := newClientsWeb(t)

	res := web.Do(http.MethodGet, "/clients/new", nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = web.Do(http.MethodPost, "/clients", url.Values{"name": {""}, "email": {"bad"}})
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Name is required")

	res = web.Do(http.MethodPost, "/clients", url.Values{"name": {"Acme"}, "email": {"hello@acme.ng"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/clients", res.Header().Get("Location"))

	list := web.Follow(res)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Client Acme added")
	assert.Contains(t, list.Body.String(), "hello@acme.ng")

	all, err := svc.List(context.Background(), web.Owner)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestClientListSearch(t *testing.T) {
	web, svc := newClientsWeb(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, web.Owner, clients.Input{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, web.Owner, clients.Input{Name: "Globex"})
	require.NoError(t, err)

	res := web.Do(http.MethodGet, "/clients?q=glob", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Globex")
	assert.NotContains(t, res.Body.String(), "Acme")
}

func TestClientEditAndDelete(t *testing.T) {
	web, svc := newClientsWeb(t)
	ctx := context.Background()
	c, err := svc.Create(ctx, web.Owner, clients.Input{Name: "Acme"})
	require.NoError(t, err)

	res := web.Do(http.MethodGet, "/clients/"+c.ID.String()+"/edit", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `value="Acme"`)

	res = web.Do(http.MethodPost, "/clients/"+c.ID.String(), url.Values{"name": {"Acme Ltd"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	got, err := svc.Get(ctx, web.Owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", got.Name)

	res = web.Do(http.MethodPost, "/clients/"+c.ID.String()+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, res.Code)
	_, err = svc.Get(ctx, web.Owner, c.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClientNotFound(t *testing.T) {
	web, _ := newClientsWeb(t)

	res := web.Do(http.MethodGet, "/clients/"+uuid.NewString()+"/edit", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), `href="/clients"`)

	res = web.Do(http.MethodGet, "/clients/not-a-uuid/edit", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}
