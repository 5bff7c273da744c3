package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/invoicedesk/invoicedesk/internal/shared"
	"github.com/invoicedesk/invoicedesk/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
	}
}

const (
	credentialRateLimit  = 10
	credentialRateWindow = time.Minute
)

// MountRoutes registers the public auth routes. Credential submissions are
// rate limited per client IP.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(credentialRateLimit, credentialRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/login", h.showLogin)
	r.Get("/signup", h.showSignup)
	r.Post("/logout", h.handleLogout)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/login", h.handleLogin)
		gr.Post("/signup", h.handleSignup)
	})
}

// MountAccountRoutes registers routes that need a signed-in user.
func (h *Handler) MountAccountRoutes(r chi.Router) {
	r.Get("/settings/password", h.showPassword)
	r.Post("/settings/password", h.handlePassword)
}

type credentialsPage struct {
	Email  string
	Errors shared.FormErrors
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/auth/login.html", "Sign in", credentialsPage{Errors: shared.FormErrors{}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	page := credentialsPage{Email: email, Errors: shared.FormErrors{}}
	if email == "" {
		page.Errors.Add("email", "Email is required")
	}
	if password == "" {
		page.Errors.Add("password", "Password is required")
	}
	if page.Errors.Any() {
		h.render(w, r, http.StatusUnprocessableEntity, "pages/auth/login.html", "Sign in", page)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if _, err := h.service.SignIn(r.Context(), sess, email, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			page.Errors.Add("general", "Invalid email or password")
			h.render(w, r, http.StatusUnauthorized, "pages/auth/login.html", "Sign in", page)
			return
		}
		h.logger.Error("sign in", slog.Any("error", err))
		page.Errors.Add("general", "We could not sign you in right now. Please try again.")
		h.render(w, r, http.StatusServiceUnavailable, "pages/auth/login.html", "Sign in", page)
		return
	}
	shared.RedirectWithFlash(w, r, "/dashboard", shared.FlashSuccess, "Welcome back!")
}

func (h *Handler) showSignup(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/auth/signup.html", "Create account", credentialsPage{Errors: shared.FormErrors{}})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	page := credentialsPage{Email: email, Errors: shared.FormErrors{}}

	sess := shared.SessionFromContext(r.Context())
	_, err := h.service.SignUp(r.Context(), sess, email, r.PostFormValue("password"))
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			page.Errors = fields
			h.render(w, r, http.StatusUnprocessableEntity, "pages/auth/signup.html", "Create account", page)
			return
		}
		if errors.Is(err, ErrEmailTaken) {
			page.Errors.Add("email", "An account with this email already exists")
			h.render(w, r, http.StatusConflict, "pages/auth/signup.html", "Create account", page)
			return
		}
		h.logger.Error("sign up", slog.Any("error", err))
		page.Errors.Add("general", "We could not create your account right now. Please try again.")
		h.render(w, r, http.StatusServiceUnavailable, "pages/auth/signup.html", "Create account", page)
		return
	}
	shared.RedirectWithFlash(w, r, "/settings", shared.FlashSuccess, "Account created. Add your business details to get started.")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.service.SignOut(r.Context(), shared.SessionFromContext(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type passwordPage struct {
	Errors shared.FormErrors
}

func (h *Handler) showPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/auth/password.html", "Change password", passwordPage{Errors: shared.FormErrors{}})
}

func (h *Handler) handlePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	user, ok := shared.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	err := h.service.UpdatePassword(r.Context(), sess, user.ID, r.PostFormValue("password"), r.PostFormValue("confirm_password"))
	if err != nil {
		if fields, ok := shared.AsValidation(err); ok {
			h.render(w, r, http.StatusUnprocessableEntity, "pages/auth/password.html", "Change password", passwordPage{Errors: fields})
			return
		}
		h.logger.Error("update password", slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/settings/password", shared.FlashError, "Password could not be updated. Please try again.")
		return
	}
	shared.RedirectWithFlash(w, r, "/settings", shared.FlashSuccess, "Password updated")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, tmpl, title string, data any) {
	if err := h.templates.Render(w, status, tmpl, view.NewPageData(r, h.csrf, title, data)); err != nil {
		h.logger.Error("render", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
