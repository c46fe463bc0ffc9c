package assessments_test

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/assessments"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	_ "github.com/coachdesk/coachdesk/testing"
)

type fakeAPI struct {
	mu       sync.Mutex
	gets     []url.Values
	approved bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/assessments":
		f.gets = append(f.gets, r.URL.Query())
		items := []map[string]any{}
		if !f.approved || r.URL.Query().Get("approval") != "pending" {
			items = append(items, map[string]any{"id": 8, "title": "Kinematics unit test", "subject": "physics", "batch": "JEE-2027", "max_marks": 50, "approval": "pending"})
		}
		pagestest.Respond(w, http.StatusOK, pagestest.Page("assessments", items, 1, 20, len(items)))
	case r.Method == http.MethodPatch && r.URL.Path == "/assessments/8/approve":
		f.approved = pagestest.DecodeBody(r)["approval"] == "approved"
		pagestest.Respond(w, http.StatusOK, map[string]any{"id": 8, "title": "Kinematics unit test", "subject": "physics", "max_marks": 50, "approval": "approved"})
	case r.Method == http.MethodPost && r.URL.Path == "/assessments":
		body := pagestest.DecodeBody(r)
		pagestest.Respond(w, http.StatusCreated, map[string]any{"id": 9, "title": body["title"], "subject": body["subject"], "max_marks": body["max_marks"], "approval": "pending"})
	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T, role string) (*pagestest.Harness, *fakeAPI, http.Handler) {
	t.Helper()
	api := &fakeAPI{}
	h := pagestest.New(t, api)
	h.SignIn(role)
	return h, api, h.Router("/assessments", assessments.NewHandler(h.Base, h.RBAC).MountRoutes)
}

func TestApproveUnderPendingFilterRefetches(t *testing.T) {
	h, api, router := setup(t, shared.RoleAdmin)

	body := h.Get(router, "/assessments?approval=pending").Body.String()
	assert.Contains(t, body, "Kinematics unit test")

	res := h.Post(router, "/assessments/8/approve", url.Values{"approval": {"approved"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Assessment approved.", flash.Message)
	assert.Len(t, api.gets, 2)

	body = h.Get(router, "/assessments?approval=pending").Body.String()
	assert.NotContains(t, body, "Kinematics unit test")
}

func TestCreateForAnotherSubjectRefetches(t *testing.T) {
	h, api, router := setup(t, shared.RoleTeacher)
	h.Get(router, "/assessments?subject=physics")

	form := url.Values{"title": {"Organic chemistry quiz"}, "subject": {"chemistry"}, "batch": {"NEET-2026"}, "date": {"2026-10-20"}, "max_marks": {"25"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/assessments", form).Code)
	require.Len(t, api.gets, 2)
	assert.Equal(t, "physics", api.gets[1].Get("subject"))
}

func TestCreateUnderApprovedFilterRefetches(t *testing.T) {
	h, api, router := setup(t, shared.RoleAdmin)
	h.Get(router, "/assessments?approval=approved")

	form := url.Values{"title": {"Optics drill"}, "subject": {"physics"}, "batch": {"JEE-2027"}, "date": {"2026-10-21"}, "max_marks": {"30"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/assessments", form).Code)
	assert.Len(t, api.gets, 2)
}

func TestTeacherCreatesButCannotApprove(t *testing.T) {
	h, api, router := setup(t, shared.RoleTeacher)
	h.Get(router, "/assessments")

	form := url.Values{"title": {"Organic chemistry quiz"}, "subject": {"chemistry"}, "batch": {"NEET-2026"}, "date": {"2026-10-20"}, "max_marks": {"25"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/assessments", form).Code)
	body := h.Get(router, "/assessments").Body.String()
	assert.Contains(t, body, "Organic chemistry quiz")

	assert.Equal(t, http.StatusForbidden, h.Post(router, "/assessments/8/approve", url.Values{"approval": {"approved"}}).Code)
	assert.False(t, api.approved)
}

func TestStudentsReadOnly(t *testing.T) {
	h, _, router := setup(t, shared.RoleStudent)
	assert.Equal(t, http.StatusOK, h.Get(router, "/assessments").Code)
	assert.Equal(t, http.StatusForbidden, h.Post(router, "/assessments", url.Values{}).Code)
}
