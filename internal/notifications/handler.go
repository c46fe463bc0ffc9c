package notifications

import (
	"net/http"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/notifications"

// Handler manages the notification log.
type Handler struct {
	base *pages.Base
	rbac rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(base *pages.Base, rbac rbac.Middleware) *Handler {
	return &Handler{base: base, rbac: rbac}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pages.ServeList(h.base, w, r, ListConfig, pages.ListOptions{
		Template: "pages/notifications.html",
		Title:    "Notifications",
		Options: map[string][]pages.Option{
			"status":  statusOptions,
			"channel": channelOptions,
		},
	})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind: collection.Action,
		Path: pages.ItemPath(ListConfig.Endpoint, id, "read"),
		ID:   id,
	}, pages.Outcome{Module: "notifications", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Marked as read."})
}

// retry queues delivery again. The status moves to queued, so the page is always re-fetched.
func (h *Handler) retry(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:    collection.Action,
		Method:  http.MethodPost,
		Path:    pages.ItemPath(ListConfig.Endpoint, id, "retry"),
		ID:      id,
		Refetch: true,
	}, pages.Outcome{Module: "notifications", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Delivery queued again."})
}
