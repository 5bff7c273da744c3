package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/invoicedesk/invoicedesk/internal/platform/httpx"
	"github.com/invoicedesk/invoicedesk/internal/shared"
)

// LoadUser resolves the signed-in user of the request session and stores it
// in the request context.
func (s *Store) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		user, err := s.Current(r.Context(), sess)
		if err != nil {
			s.logger.Error("resolve session user", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		if user != nil {
			ctx := shared.ContextWithUser(r.Context(), shared.CurrentUser{ID: user.ID, Email: user.Email})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects anonymous requests. Pages redirect to the login form,
// JSON callers get a 401 problem.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			httpx.RespondError(w, r, httpx.ErrUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}
