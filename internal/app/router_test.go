package app

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/activities"
	"github.com/coachdesk/coachdesk/internal/assessments"
	"github.com/coachdesk/coachdesk/internal/attendance"
	"github.com/coachdesk/coachdesk/internal/auth"
	"github.com/coachdesk/coachdesk/internal/dashboard"
	"github.com/coachdesk/coachdesk/internal/enquiries"
	"github.com/coachdesk/coachdesk/internal/expenses"
	"github.com/coachdesk/coachdesk/internal/fees"
	"github.com/coachdesk/coachdesk/internal/notifications"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/internal/students"
	"github.com/coachdesk/coachdesk/internal/teachers"
	_ "github.com/coachdesk/coachdesk/testing"
)

func newTestRouter(t *testing.T, h *pagestest.Harness) http.Handler {
	t.Helper()
	svc := dashboard.NewService(h.Base.API, dashboard.NewCache(h.Redis, time.Minute), h.Base.Logger)
	return NewRouter(RouterParams{
		Logger:         h.Base.Logger,
		Config:         &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second},
		SessionManager: h.Sessions,
		CSRFManager:    h.Base.CSRF,
		RBACMiddleware: h.RBAC,

		AuthHandler:          auth.NewHandler(h.Base, auth.NewService(h.Base.API), h.Sessions, nil, nil),
		DashboardHandler:     dashboard.NewHandler(h.Base, svc),
		StudentsHandler:      students.NewHandler(h.Base, h.RBAC),
		TeachersHandler:      teachers.NewHandler(h.Base, h.RBAC),
		AttendanceHandler:    attendance.NewHandler(h.Base, h.RBAC),
		FeesHandler:          fees.NewHandler(h.Base, h.RBAC, nil),
		ExpensesHandler:      expenses.NewHandler(h.Base, h.RBAC),
		EnquiriesHandler:     enquiries.NewHandler(h.Base, h.RBAC),
		AssessmentsHandler:   assessments.NewHandler(h.Base, h.RBAC),
		ActivitiesHandler:    activities.NewHandler(h.Base, h.RBAC),
		NotificationsHandler: notifications.NewHandler(h.Base, h.RBAC),
	})
}

func studentsAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			pagestest.Reject(w, http.StatusUnauthorized, "Unauthenticated.", nil)
			return
		}
		if r.URL.Path == "/students" {
			pagestest.Respond(w, http.StatusOK, pagestest.Page("students", []map[string]any{
				{"id": 1, "name": "Arjun", "batch": "JEE-2027", "status": "active"},
			}, 1, 20, 1))
			return
		}
		pagestest.Reject(w, http.StatusNotFound, "Not found.", nil)
	})
}

func withSession(h *pagestest.Harness, req *http.Request) *http.Request {
	if h.Session != nil {
		req.AddCookie(&http.Cookie{Name: h.Sessions.CookieName(), Value: h.Session.ID})
	}
	return req
}

func TestHealthz(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRootRedirectsBySignInState(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

	h.SignIn(shared.RoleAdmin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(h, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, auth.HomePath, rec.Header().Get("Location"))
}

func TestProtectedPagesRequireSignIn(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students?status=active", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fstudents%3Fstatus%3Dactive", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie carries the flash")
}

func TestSignedInPageRendersThroughStack(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)
	h.SignIn(shared.RoleAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(h, httptest.NewRequest(http.MethodGet, "/students", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Arjun")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)
	h.SignIn(shared.RoleAdmin)

	req := withSession(h, httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader("")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := h.Base.CSRF.EnsureToken(req.Context(), h.Session)
	require.NoError(t, err)
	require.NoError(t, h.Sessions.Commit(req.Context(), httptest.NewRecorder(), h.Session))

	req = withSession(h, httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader("csrf_token="+token)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
}

func uploadRequest(t *testing.T, h *pagestest.Harness, target string, size int, formToken string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if formToken != "" {
		require.NoError(t, mw.WriteField(shared.CSRFFormField, formToken))
	}
	part, err := mw.CreateFormFile("attachment", "scan.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := withSession(h, httptest.NewRequest(http.MethodPost, target, &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestOversizedAttachmentShowsSizeAlert(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)
	h.SignIn(shared.RoleAdmin)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	token, err := h.Base.CSRF.EnsureToken(ctx, h.Session)
	require.NoError(t, err)
	require.NoError(t, h.Sessions.Commit(ctx, httptest.NewRecorder(), h.Session))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, h, "/activities/21/attachments?csrf_token="+token, 17<<20, ""))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/activities", rec.Header().Get("Location"))

	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashError, flash.Kind)
	assert.Equal(t, "Attachment must be smaller than 10 MB.", flash.Message)
}

func TestUploadTokenIsReadFromQueryNotBody(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)
	h.SignIn(shared.RoleAdmin)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	token, err := h.Base.CSRF.EnsureToken(ctx, h.Session)
	require.NoError(t, err)
	require.NoError(t, h.Sessions.Commit(ctx, httptest.NewRecorder(), h.Session))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, h, "/activities/21/attachments", 1024, token))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStaticAssetsAreCached(t *testing.T) {
	h := pagestest.New(t, studentsAPI())
	router := newTestRouter(t, h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestLoadConfigRequiresCSRFSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CSRF_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("CSRF_SECRET", "s3cret")
	t.Setenv("API_BASE_URL", "https://api.example.com/api")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.ViewIdleTTL)

	t.Setenv("API_BASE_URL", "not a url")
	_, err = LoadConfig()
	require.Error(t, err)
}
