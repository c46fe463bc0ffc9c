package fees

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/rbac"
	"github.com/coachdesk/coachdesk/internal/shared"
	"github.com/coachdesk/coachdesk/report"
)

const basePath = "/fees"

// ReceiptRenderer turns a receipt into a PDF.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, rc report.Receipt) ([]byte, error)
}

// Handler manages fee pages.
type Handler struct {
	base     *pages.Base
	rbac     rbac.Middleware
	receipts ReceiptRenderer
	now      func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(base *pages.Base, rbac rbac.Middleware, receipts ReceiptRenderer) *Handler {
	return &Handler{base: base, rbac: rbac, receipts: receipts, now: time.Now}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pages.ServeList(h.base, w, r, ListConfig, pages.ListOptions{
		Template: "pages/fees.html",
		Title:    "Fees",
		Options: map[string][]pages.Option{
			"status":       statusOptions,
			"payment_mode": paymentModes,
		},
		Extra: func(*http.Request) any {
			return map[string]string{"Today": h.now().Format(collection.DateLayout)}
		},
	})
}

func parseAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &pages.FormError{Fields: map[string]string{"Amount": "Amount must be a number."}}
	}
	return amount, nil
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	studentID, _ := strconv.ParseInt(r.PostFormValue("student_id"), 10, 64)
	amount, err := parseAmount(r.PostFormValue("amount"))
	form := feeForm{
		StudentID: studentID,
		Month:     r.PostFormValue("month"),
		Amount:    amount,
		DueDate:   r.PostFormValue("due_date"),
	}
	if err == nil {
		err = h.base.ValidateForm(form)
	}
	if err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m.Body = form
	fields := map[string]string{"month": form.Month}
	if m.Kind == collection.Create {
		fields["status"] = "pending"
	}
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{Fields: fields})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "fees", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Fee added.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid fee ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Fee updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid fee ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "fees", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Fee removed."})
}

// pay records a payment. A status filter other than "all" may no longer match the fee, in which
// case the page is re-fetched.
func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid fee ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	amount, err := parseAmount(r.PostFormValue("amount"))
	form := paymentForm{
		Amount:      amount,
		PaymentMode: r.PostFormValue("payment_mode"),
		PaidOn:      r.PostFormValue("paid_on"),
		Reference:   strings.TrimSpace(r.PostFormValue("reference")),
	}
	if form.PaidOn == "" {
		form.PaidOn = h.now().Format(collection.DateLayout)
	}
	if err == nil {
		err = h.base.ValidateForm(form)
	}
	if err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:    collection.Action,
		Path:    pages.ItemPath(ListConfig.Endpoint, id, "pay"),
		ID:      id,
		Body:    form,
		Refetch: pages.FilterActive(h.base, r, ListConfig, "status"),
	}, pages.Outcome{Module: "fees", ReturnTo: returnTo, Success: "Payment recorded."})
}

// receipt streams the PDF receipt of a settled fee.
func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid fee ID", http.StatusBadRequest)
		return
	}
	var fee Fee
	err := h.base.API.Do(r.Context(), h.base.Credential(r), apiclient.Request{
		Method: http.MethodGet,
		Path:   ListConfig.Endpoint + "/" + strconv.FormatInt(id, 10),
	}, &fee)
	if err == nil {
		err = h.base.API.Validate(&fee)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !fee.Settled() {
		h.base.RedirectWithFlash(w, r, basePath, shared.FlashAlert, "No payment has been recorded for this fee yet.")
		return
	}

	user := h.base.User(r)
	pdf, err := h.receipts.RenderReceipt(r.Context(), report.Receipt{
		Number:      fee.ReceiptNumber(),
		Institute:   user.InstituteName,
		StudentName: fee.StudentName,
		Batch:       fee.Batch,
		Month:       fee.Month,
		Amount:      fee.Amount,
		PaidAmount:  fee.PaidAmount,
		PaidOn:      fee.PaidOn,
		PaymentMode: fee.PaymentMode,
		IssuedAt:    h.now(),
	})
	if err != nil {
		h.base.Logger.Error("render receipt", slog.Any("error", err), slog.Int64("fee_id", id))
		if errors.Is(err, report.ErrUnavailable) {
			http.Error(w, "Receipts are not available right now.", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+fee.ReceiptNumber()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apiclient.StatusOf(err) == http.StatusNotFound {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if apiclient.IsUnauthorized(err) {
		err = collection.ErrSignInRequired
	}
	h.base.Fail(w, r, basePath, err)
}
