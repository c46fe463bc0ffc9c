package notifications_test

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/notifications"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	_ "github.com/coachdesk/coachdesk/testing"
)

type fakeAPI struct {
	mu      sync.Mutex
	gets    int
	retried bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/notifications":
		f.gets++
		status := "failed"
		if f.retried {
			status = "queued"
		}
		items := []map[string]any{
			{"id": 40, "title": "Fee reminder", "body": "Your **October** fee is due.", "channel": "sms", "status": status, "error": "DLT template rejected"},
		}
		if r.URL.Query().Get("status") == "failed" && f.retried {
			items = items[:0]
		}
		pagestest.Respond(w, http.StatusOK, pagestest.Page("notifications", items, 1, 20, len(items)))
	case r.Method == http.MethodPatch && r.URL.Path == "/notifications/40/read":
		pagestest.Respond(w, http.StatusOK, map[string]any{"id": 40, "title": "Fee reminder", "channel": "sms", "status": "failed", "read_at": "2026-10-16T09:00:00Z"})
	case r.Method == http.MethodPost && r.URL.Path == "/notifications/40/retry":
		f.retried = true
		pagestest.Respond(w, http.StatusOK, map[string]any{"id": 40, "title": "Fee reminder", "channel": "sms", "status": "queued"})
	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T, role string) (*pagestest.Harness, *fakeAPI, http.Handler) {
	t.Helper()
	api := &fakeAPI{}
	h := pagestest.New(t, api)
	h.SignIn(role)
	return h, api, h.Router("/notifications", notifications.NewHandler(h.Base, h.RBAC).MountRoutes)
}

func TestBodiesRenderAsMarkdown(t *testing.T) {
	h, _, router := setup(t, shared.RoleStudent)

	body := h.Get(router, "/notifications").Body.String()
	assert.Contains(t, body, "<strong>October</strong>")
	assert.NotContains(t, body, "/notifications/40/retry")
}

func TestRetryRefetchesFailedFilter(t *testing.T) {
	h, api, router := setup(t, shared.RoleAdmin)

	require.Contains(t, h.Get(router, "/notifications?status=failed").Body.String(), "DLT template rejected")
	res := h.Post(router, "/notifications/40/retry", url.Values{"return_to": {"/notifications?status=failed"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, 2, api.gets)

	body := h.Get(router, "/notifications?status=failed").Body.String()
	assert.NotContains(t, body, "Fee reminder")
}

func TestMarkReadReplacesRow(t *testing.T) {
	h, api, router := setup(t, shared.RoleStudent)
	h.Get(router, "/notifications")

	require.Equal(t, http.StatusSeeOther, h.Post(router, "/notifications/40/read", nil).Code)
	body := h.Get(router, "/notifications").Body.String()
	assert.NotContains(t, body, "/notifications/40/read")
	assert.Equal(t, 1, api.gets)
}

func TestStudentsCannotRetry(t *testing.T) {
	h, api, router := setup(t, shared.RoleStudent)
	assert.Equal(t, http.StatusForbidden, h.Post(router, "/notifications/40/retry", nil).Code)
	assert.False(t, api.retried)
}
