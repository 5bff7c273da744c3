// Package webtest drives routers in handler tests with a signed-in user and
// a Redis backed session that survives across requests.
package webtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/invoicedesk/invoicedesk/internal/shared"
)

const cookieName = "test_session"

// Client sends requests to a router and carries the session cookie along.
type Client struct {
	Owner  uuid.UUID
	router http.Handler
	cookie *http.Cookie
}

// New builds a router for owner and lets mount register the routes under
// test. A zero owner leaves requests anonymous.
func New(t *testing.T, owner uuid.UUID, mount func(chi.Router)) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, cookieName, time.Hour, false)
	r := chi.NewRouter()
	r.Use(sessions.Middleware(nil))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if owner != uuid.Nil {
				req = req.WithContext(shared.ContextWithUser(req.Context(), shared.CurrentUser{ID: owner, Email: "owner@example.com"}))
			}
			next.ServeHTTP(w, req)
		})
	})
	mount(r)
	return &Client{Owner: owner, router: r}
}

// Do sends a request. A non-nil form is posted url encoded.
func (c *Client) Do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return c.Send(req)
}

// Send serves req, attaching and then refreshing the session cookie.
func (c *Client) Send(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	res := httptest.NewRecorder()
	c.router.ServeHTTP(res, req)
	for _, ck := range res.Result().Cookies() {
		if ck.Name == cookieName {
			c.cookie = ck
		}
	}
	return res
}

// Follow issues a GET to the Location of a redirect response.
func (c *Client) Follow(res *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	return c.Do(http.MethodGet, res.Header().Get("Location"), nil)
}
