package enquiries_test

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/enquiries"
	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	_ "github.com/coachdesk/coachdesk/testing"
)

type fakeAPI struct {
	mu      sync.Mutex
	lists   int
	queries []url.Values
	note    any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/enquiries":
		f.lists++
		f.queries = append(f.queries, r.URL.Query())
		items := []map[string]any{
			{"id": 5, "name": "Meera Iyer", "phone": "9800000001", "type": "student", "status": "new", "interest": "JEE crash course"},
			{"id": 6, "name": "Rahul Das", "phone": "9800000002", "type": "teacher", "status": "contacted", "interest": "Physics"},
		}
		pagestest.Respond(w, http.StatusOK, pagestest.Page("enquiries", items, 1, 20, 2))
	case r.Method == http.MethodPost && r.URL.Path == "/enquiries/5/communications":
		body := pagestest.DecodeBody(r)
		f.note = body["note"]
		pagestest.Respond(w, http.StatusCreated, map[string]any{"enquiry": map[string]any{
			"id": 5, "name": "Meera Iyer", "type": "student", "status": "contacted",
			"communications": []map[string]any{{"id": 1, "channel": body["channel"], "note": body["note"], "logged_at": "2026-10-16"}},
		}})
	case r.Method == http.MethodPost && r.URL.Path == "/enquiries":
		body := pagestest.DecodeBody(r)
		pagestest.Respond(w, http.StatusCreated, map[string]any{"id": 7, "name": body["name"], "phone": body["phone"], "type": body["type"], "status": body["status"]})
	case r.Method == http.MethodPut && r.URL.Path == "/enquiries/6":
		pagestest.Respond(w, http.StatusOK, map[string]any{"id": 6, "name": "Rahul Das", "type": "teacher", "status": "closed"})
	default:
		http.NotFound(w, r)
	}
}

func newFixture(t *testing.T) (*pagestest.Harness, *fakeAPI, http.Handler) {
	t.Helper()
	api := &fakeAPI{}
	h := pagestest.New(t, api)
	h.SignIn(shared.RoleAdmin)
	return h, api, h.Router("/enquiries", enquiries.NewHandler(h.Base, h.RBAC).MountRoutes)
}

func TestCommunicationReplacesEnquiry(t *testing.T) {
	h, api, router := newFixture(t)

	require.Equal(t, http.StatusOK, h.Get(router, "/enquiries").Code)
	res := h.Post(router, "/enquiries/5/communications", url.Values{"channel": {"call"}, "note": {"Asked for the fee structure"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "Asked for the fee structure", api.note)

	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashSuccess, flash.Kind)
	assert.Equal(t, 1, h.Stats.Count())

	body := h.Get(router, "/enquiries").Body.String()
	assert.Contains(t, body, "Asked for the fee structure")
	assert.Contains(t, body, "Rahul Das")
	assert.Equal(t, 1, api.lists)
}

func TestUpdateUnderStatusFilterRefetches(t *testing.T) {
	h, api, router := newFixture(t)

	h.Get(router, "/enquiries?status=contacted")
	assert.Equal(t, "contacted", api.queries[0].Get("status"))

	form := url.Values{"name": {"Rahul Das"}, "phone": {"9800000002"}, "type": {"teacher"}, "status": {"closed"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/enquiries/6/edit", form).Code)
	assert.Equal(t, 2, api.lists)
}

func TestCreateOfAnotherTypeRefetches(t *testing.T) {
	h, api, router := newFixture(t)
	h.Get(router, "/enquiries?type=student")

	form := url.Values{"name": {"Kavya Nair"}, "phone": {"9800000003"}, "type": {"teacher"}, "status": {"new"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/enquiries", form).Code)
	assert.Equal(t, 2, api.lists)
	assert.Equal(t, "student", api.queries[1].Get("type"))
}

func TestCreateMatchingFiltersMerges(t *testing.T) {
	h, api, router := newFixture(t)
	h.Get(router, "/enquiries?type=student&status=new")

	form := url.Values{"name": {"Kavya Nair"}, "phone": {"9800000003"}, "type": {"student"}, "status": {"new"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/enquiries", form).Code)
	assert.Contains(t, h.Get(router, "/enquiries?type=student&status=new").Body.String(), "Kavya Nair")
	assert.Equal(t, 1, api.lists)
}

func TestCreateUnderSearchRefetches(t *testing.T) {
	h, api, router := newFixture(t)
	h.Get(router, "/enquiries?search=Meera")

	form := url.Values{"name": {"Kavya Nair"}, "phone": {"9800000003"}, "type": {"student"}, "status": {"new"}}
	require.Equal(t, http.StatusSeeOther, h.Post(router, "/enquiries", form).Code)
	assert.Equal(t, 2, api.lists)
}

func TestCommunicationRequiresNote(t *testing.T) {
	h, api, router := newFixture(t)

	h.Post(router, "/enquiries/5/communications", url.Values{"channel": {"call"}})
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, shared.FlashError, flash.Kind)
	assert.Equal(t, "Note is required.", flash.Message)
	assert.Nil(t, api.note)
}

func TestTeachersCannotOpenEnquiries(t *testing.T) {
	api := &fakeAPI{}
	h := pagestest.New(t, api)
	h.SignIn(shared.RoleTeacher)
	router := h.Router("/enquiries", enquiries.NewHandler(h.Base, h.RBAC).MountRoutes)

	assert.Equal(t, http.StatusForbidden, h.Get(router, "/enquiries").Code)
	assert.Zero(t, api.lists)
}
