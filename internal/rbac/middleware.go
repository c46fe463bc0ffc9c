package rbac

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// LoginPath is where RequireSignIn sends browsers without a usable credential.
const LoginPath = "/auth/login"

// Middleware wires role based authorization helpers for HTTP handlers. Roles come from the
// profile cached in the session at sign-in; the API enforces them again on every call.
type Middleware struct {
	Logger *slog.Logger
	Now    func() time.Time
}

func (m Middleware) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// RequireSignIn lets the request through only when the session holds an unexpired credential.
func (m Middleware) RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		cred := sess.Credential()
		if sess != nil && cred.Valid() && !cred.Expired(m.now()) {
			next.ServeHTTP(w, r)
			return
		}
		if sess != nil && cred.Valid() {
			// Expired token: forget it so the login page starts clean.
			sess.SignOut()
		}
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: shared.FlashInfo, Message: "Please sign in to continue."})
		}
		target := LoginPath
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// RequireRole ensures the signed-in user holds one of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, ok := shared.UserFromContext(r.Context())
			if !ok {
				if m.Logger != nil {
					m.Logger.Warn("rbac missing cached user", slog.String("path", r.URL.Path))
				}
				m.forbid(w, r)
				return
			}
			if user.HasRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}
			m.forbid(w, r)
		})
	}
}

func (m Middleware) forbid(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
