package fees

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachdesk/coachdesk/internal/pages/pagestest"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/report"
	_ "github.com/coachdesk/coachdesk/testing"
)

type fakeAPI struct {
	mu   sync.Mutex
	gets []url.Values
	fees []map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/fees":
		f.gets = append(f.gets, r.URL.Query())
		var items []map[string]any
		for _, fee := range f.fees {
			if s := r.URL.Query().Get("status"); s == "" || fee["status"] == s {
				items = append(items, fee)
			}
		}
		pagestest.Respond(w, http.StatusOK, pagestest.Page("fees", items, 1, 20, len(items)))
	case r.Method == http.MethodGet && r.URL.Path == "/fees/1":
		pagestest.Respond(w, http.StatusOK, f.fees[0])
	case r.Method == http.MethodGet && r.URL.Path == "/fees/2":
		pagestest.Respond(w, http.StatusOK, f.fees[1])
	case r.Method == http.MethodGet:
		pagestest.Reject(w, http.StatusNotFound, "Fee not found.", nil)
	case r.Method == http.MethodPatch && r.URL.Path == "/fees/2/pay":
		body := pagestest.DecodeBody(r)
		f.fees[1]["status"] = "paid"
		f.fees[1]["paid_amount"] = body["amount"]
		f.fees[1]["payment_mode"] = body["payment_mode"]
		f.fees[1]["paid_on"] = body["paid_on"]
		pagestest.Respond(w, http.StatusOK, f.fees[1])
	case r.Method == http.MethodPost && r.URL.Path == "/fees":
		body := pagestest.DecodeBody(r)
		fee := map[string]any{"id": 3, "student_id": body["student_id"], "student_name": "Chitra", "month": body["month"], "amount": body["amount"], "paid_amount": 0, "status": "pending"}
		f.fees = append(f.fees, fee)
		pagestest.Respond(w, http.StatusCreated, fee)
	default:
		http.NotFound(w, r)
	}
}

type fakeRenderer struct {
	got report.Receipt
}

func (f *fakeRenderer) RenderReceipt(_ context.Context, rc report.Receipt) ([]byte, error) {
	f.got = rc
	return []byte("%PDF"), nil
}

func setup(t *testing.T, role string) (*pagestest.Harness, *fakeAPI, *fakeRenderer, http.Handler) {
	t.Helper()
	api := &fakeAPI{fees: []map[string]any{
		{"id": 1, "student_id": 7, "student_name": "Arjun", "month": "2026-10", "amount": 12500, "paid_amount": 12500, "status": "paid", "paid_on": "2026-10-03", "payment_mode": "upi"},
		{"id": 2, "student_id": 8, "student_name": "Bhavna", "month": "2026-10", "amount": 9000, "paid_amount": 0, "status": "pending"},
	}}
	h := pagestest.New(t, api)
	h.SignIn(role)
	renderer := &fakeRenderer{}
	handler := NewHandler(h.Base, h.RBAC, renderer)
	handler.now = func() time.Time { return time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC) }
	return h, api, renderer, h.Router("/fees", handler.MountRoutes)
}

func TestMonthDefaultsToCurrent(t *testing.T) {
	h, api, _, router := setup(t, shared.RoleStudent)
	require.Equal(t, http.StatusOK, h.Get(router, "/fees").Code)
	assert.Equal(t, time.Now().Format(MonthLayout), api.gets[0].Get("month"))
}

func TestPayUnderPendingFilterRefetches(t *testing.T) {
	h, api, _, router := setup(t, shared.RoleAdmin)
	body := h.Get(router, "/fees?status=pending").Body.String()
	assert.Contains(t, body, "Bhavna")

	res := h.Post(router, "/fees/2/pay", url.Values{"amount": {"9000"}, "payment_mode": {"cash"}, "return_to": {"/fees?status=pending"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Payment recorded.", flash.Message)

	require.Len(t, api.gets, 2)
	assert.Equal(t, "2026-10-16", api.fees[1]["paid_on"])
	assert.NotContains(t, h.Get(router, "/fees?status=pending").Body.String(), "Bhavna")
}

func TestCreateForAnotherMonthRefetches(t *testing.T) {
	h, api, _, router := setup(t, shared.RoleAdmin)
	h.Get(router, "/fees?month=2026-10")

	res := h.Post(router, "/fees", url.Values{"student_id": {"9"}, "month": {"2026-11"}, "amount": {"9000"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Fee added.", flash.Message)
	assert.Len(t, api.gets, 2)
}

func TestCreateForShownMonthMerges(t *testing.T) {
	h, api, _, router := setup(t, shared.RoleAdmin)
	h.Get(router, "/fees?month=2026-10&status=pending")

	res := h.Post(router, "/fees", url.Values{"student_id": {"9"}, "month": {"2026-10"}, "amount": {"9000"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Contains(t, h.Get(router, "/fees?month=2026-10&status=pending").Body.String(), "Chitra")
	assert.Len(t, api.gets, 1)
}

func TestCreateUnderPaidFilterRefetches(t *testing.T) {
	h, api, _, router := setup(t, shared.RoleAdmin)
	h.Get(router, "/fees?month=2026-10&status=paid")

	require.Equal(t, http.StatusSeeOther, h.Post(router, "/fees", url.Values{"student_id": {"9"}, "month": {"2026-10"}, "amount": {"9000"}}).Code)
	require.Len(t, api.gets, 2)
	assert.NotContains(t, h.Get(router, "/fees?month=2026-10&status=paid").Body.String(), "Chitra")
}

func TestPayRejectsBadAmount(t *testing.T) {
	h, _, _, router := setup(t, shared.RoleAdmin)
	h.Post(router, "/fees/2/pay", url.Values{"amount": {"ten"}, "payment_mode": {"cash"}})
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.Equal(t, "Amount must be a number.", flash.Message)
}

func TestReceiptRendersSettledFee(t *testing.T) {
	h, _, renderer, router := setup(t, shared.RoleAdmin)

	res := h.Get(router, "/fees/1/receipt")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/pdf", res.Header().Get("Content-Type"))
	assert.Equal(t, "FEE-000001", renderer.got.Number)
	assert.Equal(t, "Bright Minds", renderer.got.Institute)
	assert.Equal(t, 12500.0, renderer.got.PaidAmount)
}

func TestReceiptRefusedForPendingFee(t *testing.T) {
	h, _, _, router := setup(t, shared.RoleAdmin)
	res := h.Get(router, "/fees/2/receipt")
	assert.Equal(t, http.StatusSeeOther, res.Code)
	flash := h.Flash()
	require.NotNil(t, flash)
	assert.True(t, flash.Blocking())
}

func TestReceiptUnknownFee(t *testing.T) {
	h, _, _, router := setup(t, shared.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, h.Get(router, "/fees/77/receipt").Code)
}

func TestBalance(t *testing.T) {
	assert.Equal(t, 4000.0, Fee{Amount: 9000, PaidAmount: 5000}.Balance())
	assert.Zero(t, Fee{Amount: 9000, PaidAmount: 9500}.Balance())
}
