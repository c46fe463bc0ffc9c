package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// HomePath is where a successful sign-in lands without a next parameter.
const HomePath = "/dashboard"

// WarmupQueue schedules dashboard precomputation for a fresh session.
type WarmupQueue interface {
	EnqueueDashboardWarmup(ctx context.Context, sessionID string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	base     *pages.Base
	service  *Service
	sessions *shared.SessionManager
	active   *shared.ActiveSessions
	warmup   WarmupQueue
}

// NewHandler constructs a Handler instance. active and warmup may be nil.
func NewHandler(base *pages.Base, service *Service, sessions *shared.SessionManager, active *shared.ActiveSessions, warmup WarmupQueue) *Handler {
	return &Handler{base: base, service: service, sessions: sessions, active: active, warmup: warmup}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Email  string
	Next   string
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if sess := shared.SessionFromContext(r.Context()); sess.SignedIn() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.base.Render(w, r, "pages/login.html", "Sign in", loginPageData{Next: r.URL.Query().Get("next")}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := loginPageData{Email: form.Email, Next: r.PostFormValue("next"), Errors: map[string]string{}}

	if err := h.base.ValidateForm(form); err != nil {
		var formErr *pages.FormError
		if errors.As(err, &formErr) {
			data.Errors = formErr.Fields
		} else {
			data.Errors["general"] = err.Error()
		}
		h.base.Render(w, r, "pages/login.html", "Sign in", data, http.StatusUnprocessableEntity)
		return
	}

	token, user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		status := http.StatusBadGateway
		data.Errors["general"] = "Unable to reach the server. Please try again."
		if errors.Is(err, shared.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			data.Errors["general"] = "Invalid email or password."
		} else if errors.Is(err, apiclient.ErrMalformedResponse) {
			data.Errors["general"] = "The server returned an unexpected response. Please try again."
		}
		h.base.Logger.Warn("sign-in failed", slog.String("email", form.Email), slog.Any("error", err))
		h.base.Render(w, r, "pages/login.html", "Sign in", data, status)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.base.Logger.Error("session missing during sign-in")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	old, err := h.sessions.Renew(r.Context(), sess)
	if err != nil {
		h.base.Logger.Warn("renew session", slog.Any("error", err))
	}
	h.base.Registry.Drop(old)
	if err := sess.SignIn(token, user); err != nil {
		h.base.Logger.Error("store credential", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := h.base.CSRF.Rotate(r.Context(), sess); err != nil {
		h.base.Logger.Warn("rotate csrf token", slog.Any("error", err))
	}
	if err := h.active.Touch(r.Context(), sess.ID, time.Now()); err != nil {
		h.base.Logger.Warn("track active session", slog.Any("error", err))
	}
	if h.warmup != nil {
		if err := h.warmup.EnqueueDashboardWarmup(r.Context(), sess.ID); err != nil {
			h.base.Logger.Warn("enqueue dashboard warmup", slog.Any("error", err))
		}
	}
	h.base.Logger.Info("signed in", slog.Int64("user_id", user.ID), slog.String("role", user.Role), slog.Int64("institute_id", user.InstituteID))
	h.base.RedirectWithFlash(w, r, safeNext(data.Next), shared.FlashSuccess, "Welcome back, "+user.Name+".")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.base.Registry.Drop(sess.ID)
		if err := h.active.Forget(r.Context(), sess.ID); err != nil {
			h.base.Logger.Warn("forget active session", slog.Any("error", err))
		}
		sess.SignOut()
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, pages.LoginPath, http.StatusSeeOther)
}

// safeNext keeps redirects on this host and away from the auth pages.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return HomePath
	}
	if strings.HasPrefix(next, "/auth/") {
		return HomePath
	}
	return next
}
