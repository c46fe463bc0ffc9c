package dashboard_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
)

func mountDashboard(h *pagestest.Harness) http.Handler {
	svc := dashboard.NewService(apiclient.New(h.APIServer.URL, 5*time.Second), dashboard.NewCache(h.Redis, time.Minute), nil)
	return h.Router("/dashboard", dashboard.NewHandler(h.Base, svc).MountRoutes)
}

func TestDashboardRendersAdminCounters(t *testing.T) {
	api := newStatsAPI()
	h := pagestest.New(t, api)
	h.SignIn(shared.RoleAdmin)
	router := mountDashboard(h)

	res := h.Get(router, "/dashboard")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "₹240,000.00")
	assert.Contains(t, body, "Thermodynamics")
	assert.Contains(t, body, "Ishaan")

	res = h.Get(router, "/dashboard?refresh=1", "Accept", "application/json")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"total_students":120`)
	assert.Equal(t, int32(2), api.stats.Load())
}

func TestDashboardUpstreamFailureShowsInlineError(t *testing.T) {
	h := pagestest.New(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagestest.Reject(w, http.StatusInternalServerError, "boom", nil)
	}))
	h.SignIn(shared.RoleStudent)

	res := h.Get(mountDashboard(h), "/dashboard")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Unable to load dashboard statistics.")
}
