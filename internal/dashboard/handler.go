package dashboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// Handler serves the home page.
type Handler struct {
	base *pages.Base
	svc  *Service
}

// NewHandler builds Handler instance.
func NewHandler(base *pages.Base, svc *Service) *Handler {
	return &Handler{base: base, svc: svc}
}

// PageData is the template payload of the dashboard.
type PageData struct {
	Stats  Stats
	User   shared.AuthUser
	Error  string
	Loaded bool
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	user := h.base.User(r)
	if r.URL.Query().Has("refresh") {
		h.svc.Invalidate(r.Context(), user)
	}
	stats, err := h.svc.Load(r.Context(), h.base.Credential(r), user)
	if errors.Is(err, collection.ErrSignInRequired) {
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			h.base.Registry.Drop(sess.ID)
			sess.SignOut()
		}
		h.base.RedirectWithFlash(w, r, pages.LoginPath, shared.FlashInfo, collection.SignInMessage)
		return
	}

	data := PageData{Stats: stats, User: user, Loaded: err == nil}
	if err != nil {
		h.base.Logger.Warn("dashboard load failed", slog.Any("error", err))
		data.Error = "Unable to load dashboard statistics."
	}
	if httpx.WantsJSON(r) {
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, stats)
		return
	}
	h.base.Render(w, r, "pages/dashboard.html", "Dashboard", data, http.StatusOK)
}
