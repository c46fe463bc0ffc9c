// Package pages holds the plumbing every dashboard page shares: rendering with the session's
// user, flash redirects, mounting the session's list views and running mutations against them.
package pages

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/internal/view"
)

// LoginPath is where signed-out users are sent.
const LoginPath = "/auth/login"

// Invalidator drops cached dashboard statistics after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, user shared.AuthUser)
}

// Base carries the dependencies of page handlers.
type Base struct {
	Logger      *slog.Logger
	Templates   *view.Engine
	CSRF        *shared.CSRFManager
	Registry    *collection.Registry
	API         collection.API
	Submissions *shared.IdempotencyStore
	Stats       Invalidator

	validate *validator.Validate
}

// NewBase constructs a Base.
func NewBase(
	logger *slog.Logger,
	templates *view.Engine,
	csrf *shared.CSRFManager,
	registry *collection.Registry,
	api collection.API,
	submissions *shared.IdempotencyStore,
	stats Invalidator,
) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		Logger:      logger,
		Templates:   templates,
		CSRF:        csrf,
		Registry:    registry,
		API:         api,
		Submissions: submissions,
		Stats:       stats,
		validate:    validator.New(),
	}
}

// Render writes tmpl inside the shared layout.
func (b *Base) Render(w http.ResponseWriter, r *http.Request, tmpl, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := b.CSRF.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	var user *shared.AuthUser
	if u, ok := sess.AuthUser(); ok {
		user = &u
	}

	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        user,
		Nav:         view.Navigation(user, r.URL.Path),
		Data:        data,
	}
	if err := b.Templates.RenderStatus(w, tmpl, viewData, status); err != nil {
		b.Logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RedirectWithFlash queues a flash and redirects with 303.
func (b *Base) RedirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Credential returns the bearer credential of the request session.
func (b *Base) Credential(r *http.Request) apiclient.Credential {
	return shared.SessionFromContext(r.Context()).Credential()
}

// User returns the signed-in user of the request.
func (b *Base) User(r *http.Request) shared.AuthUser {
	user, _ := shared.UserFromContext(r.Context())
	return user
}

// ReturnTo reads the form's return_to value, accepting only local paths under prefix.
func (b *Base) ReturnTo(r *http.Request, prefix string) string {
	target := r.FormValue("return_to")
	if target == "" || !strings.HasPrefix(target, prefix) || strings.HasPrefix(target, "//") {
		return prefix
	}
	rest := strings.TrimPrefix(target, prefix)
	if rest != "" && rest[0] != '?' && rest[0] != '/' {
		return prefix
	}
	return target
}

// Fail reports a failed write. JSON clients get a problem document; browsers are redirected
// back with a blocking alert. A rejected credential ends the session's sign-in instead.
func (b *Base) Fail(w http.ResponseWriter, r *http.Request, returnTo string, err error) {
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	if errors.Is(err, collection.ErrSignInRequired) {
		sess := shared.SessionFromContext(r.Context())
		if sess != nil {
			if b.Registry != nil {
				b.Registry.Drop(sess.ID)
			}
			sess.SignOut()
		}
		b.RedirectWithFlash(w, r, LoginPath, shared.FlashInfo, collection.SignInMessage)
		return
	}
	var formErr *FormError
	if errors.As(err, &formErr) {
		b.RedirectWithFlash(w, r, returnTo, shared.FlashError, formErr.Error())
		return
	}
	b.Logger.Warn("mutation failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	b.RedirectWithFlash(w, r, returnTo, shared.FlashAlert, shared.UserSafeMessage(err))
}

// Succeed reports a completed write and drops cached statistics.
func (b *Base) Succeed(w http.ResponseWriter, r *http.Request, returnTo, message string, record any) {
	if b.Stats != nil {
		b.Stats.Invalidate(r.Context(), b.User(r))
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "message": message, "data": record})
		return
	}
	b.RedirectWithFlash(w, r, returnTo, shared.FlashSuccess, message)
}
