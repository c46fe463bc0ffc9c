package dashboard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	_ "github.com/coachdesk/coachdesk/testing"
)

type statsAPI struct {
	mu    sync.Mutex
	calls map[string]int
	stats atomic.Int32
	delay time.Duration
}

func newStatsAPI() *statsAPI {
	return &statsAPI{calls: map[string]int{}}
}

func (a *statsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.calls[r.URL.Path]++
	a.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer test-token" {
		pagestest.Reject(w, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}
	switch r.URL.Path {
	case dashboard.StatsEndpoint:
		a.stats.Add(1)
		time.Sleep(a.delay)
		pagestest.Respond(w, http.StatusOK, map[string]any{"total_students": 120, "active_students": 112, "fees_collected": 240000, "expenses_this_month": 90000, "pending_approvals": 4})
	case "/daily-activities":
		pagestest.Respond(w, http.StatusOK, pagestest.Page("activities", []map[string]any{{"id": 1, "date": "2026-10-16", "topic": "Thermodynamics", "approval": "pending"}}, 1, 5, 4))
	case "/fees":
		pagestest.Respond(w, http.StatusOK, pagestest.Page("fees", []map[string]any{{"id": 2, "student_id": 7, "student_name": "Ishaan", "month": "2026-10", "amount": 5000, "status": "pending"}}, 1, 5, 1))
	case "/notifications":
		pagestest.Respond(w, http.StatusOK, pagestest.Page("notifications", []map[string]any{}, 1, 5, 0))
	default:
		http.NotFound(w, r)
	}
}

func (a *statsAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func newService(t *testing.T, api http.Handler) *dashboard.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return dashboard.NewService(apiclient.New(server.URL, 5*time.Second), dashboard.NewCache(client, time.Minute), nil)
}

var (
	cred  = apiclient.Credential{Token: "test-token"}
	admin = shared.AuthUser{ID: 1, Role: shared.RoleAdmin, InstituteID: 3}
)

func TestAdminStatsAreCachedUntilInvalidated(t *testing.T) {
	api := newStatsAPI()
	svc := newService(t, api)
	ctx := context.Background()

	stats, err := svc.Load(ctx, cred, admin)
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Overview.TotalStudents)
	assert.Equal(t, 150000.0, stats.Overview.Net())
	require.Len(t, stats.PendingActivities, 1)
	assert.Equal(t, "Thermodynamics", stats.PendingActivities[0].Topic)
	require.Len(t, stats.PendingFees, 1)
	assert.Equal(t, 1, api.count("/notifications"))

	_, err = svc.Load(ctx, cred, admin)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.stats.Load())

	svc.Invalidate(ctx, shared.AuthUser{InstituteID: 3})
	_, err = svc.Load(ctx, cred, admin)
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.stats.Load())
}

func TestInvalidationIsScopedToInstitute(t *testing.T) {
	api := newStatsAPI()
	svc := newService(t, api)
	ctx := context.Background()

	_, err := svc.Load(ctx, cred, admin)
	require.NoError(t, err)
	svc.Invalidate(ctx, shared.AuthUser{InstituteID: 99})
	_, err = svc.Load(ctx, cred, admin)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.stats.Load())
}

func TestConcurrentLoadsShareUpstreamCalls(t *testing.T) {
	api := newStatsAPI()
	api.delay = 50 * time.Millisecond
	svc := newService(t, api)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Load(context.Background(), cred, admin)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), api.stats.Load())
}

func TestTeacherSkipsAdminSections(t *testing.T) {
	api := newStatsAPI()
	svc := newService(t, api)

	stats, err := svc.Load(context.Background(), cred, shared.AuthUser{ID: 5, Role: shared.RoleTeacher, InstituteID: 3})
	require.NoError(t, err)
	assert.Len(t, stats.PendingActivities, 1)
	assert.Zero(t, api.count("/fees"))
	assert.Zero(t, api.count("/notifications"))
}

func TestInvalidSectionRecordIsRejected(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case dashboard.StatsEndpoint:
			pagestest.Respond(w, http.StatusOK, map[string]any{"pending_approvals": 1})
		case "/daily-activities":
			pagestest.Respond(w, http.StatusOK, pagestest.Page("activities", []map[string]any{{"id": 1, "date": "2026-10-16", "topic": "Thermodynamics", "approval": "archived"}}, 1, 5, 1))
		default:
			http.NotFound(w, r)
		}
	})
	svc := newService(t, api)

	_, err := svc.Load(context.Background(), cred, shared.AuthUser{ID: 5, Role: shared.RoleTeacher, InstituteID: 3})
	require.ErrorIs(t, err, apiclient.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "Approval")
}

func TestMissingCredentialSkipsNetwork(t *testing.T) {
	api := newStatsAPI()
	svc := newService(t, api)

	_, err := svc.Load(context.Background(), apiclient.Credential{}, admin)
	require.ErrorIs(t, err, collection.ErrSignInRequired)
	assert.Zero(t, api.stats.Load())
}

func TestRejectedCredentialRequiresSignIn(t *testing.T) {
	api := newStatsAPI()
	svc := newService(t, api)

	_, err := svc.Load(context.Background(), apiclient.Credential{Token: "stale"}, admin)
	require.ErrorIs(t, err, collection.ErrSignInRequired)
}
