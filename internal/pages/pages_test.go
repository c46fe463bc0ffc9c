package pages

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
)

type row struct{ ID int64 }

func (r row) RecordID() int64 { return r.ID }

func TestReturnToOnlyAcceptsLocalPrefix(t *testing.T) {
	b := NewBase(nil, nil, nil, nil, nil, nil, nil)
	cases := map[string]string{
		"/fees?month=2026-10&page=2": "/fees?month=2026-10&page=2",
		"":                           "/fees",
		"https://evil.example/fees":  "/fees",
		"//evil.example/fees":        "/fees",
		"/feesxyz":                   "/fees",
		"/students":                  "/fees",
	}
	for in, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/fees/1/pay", strings.NewReader(url.Values{"return_to": {in}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, want, b.ReturnTo(req, "/fees"), in)
	}
}

func TestFiltersFromQueryIgnoresUnknownNames(t *testing.T) {
	defaults := collection.Filters{"status": "all", "search": ""}
	q := url.Values{"status": {"paid"}, "page": {"2"}, "evil": {"1"}}
	got := FiltersFromQuery(defaults, q)
	assert.Equal(t, collection.Filters{"status": "paid", "search": ""}, got)
	assert.Equal(t, "all", defaults["status"])
}

func TestListDataLinks(t *testing.T) {
	d := ListData[row]{Path: "/fees", Query: stateQuery(collection.Filters{"status": "all", "month": "2026-10"}, 2, 25)}
	d.Page = 2
	assert.Equal(t, "/fees?month=2026-10&page=3&per_page=25&status=all", d.PageURL(3))
	assert.Equal(t, "/fees?month=2026-10&page=2&per_page=25&status=all&refresh=1", d.RefreshURL())
	assert.Equal(t, "/fees?month=2026-10&page=2&per_page=25&status=all", d.ReturnTo())
}

type enrolForm struct {
	FullName string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Status   string `validate:"oneof=active inactive"`
}

func TestValidateFormMessages(t *testing.T) {
	b := NewBase(nil, nil, nil, nil, nil, nil, nil)
	err := b.ValidateForm(enrolForm{Email: "nope", Status: "x"})
	require.Error(t, err)

	var formErr *FormError
	require.True(t, errors.As(err, &formErr))
	assert.Equal(t, "Email must be a valid email address. Full name is required. Status must be one of active, inactive.", err.Error())
	assert.ErrorIs(t, err, httpx.ErrValidation)

	assert.NoError(t, b.ValidateForm(enrolForm{FullName: "A", Status: "active"}))
}

func TestItemPath(t *testing.T) {
	assert.Equal(t, "/fees/7/pay", ItemPath("/fees", 7, "pay"))
}
