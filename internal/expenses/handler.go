package expenses

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/expenses"

// Handler manages expense pages.
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
		Template: "pages/expenses.html",
		Title:    "Expenses",
		Options:  map[string][]pages.Option{"category": categoryOptions},
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := expenseForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Category: r.PostFormValue("category"),
		Date:     r.PostFormValue("date"),
		PaidTo:   strings.TrimSpace(r.PostFormValue("paid_to")),
		Notes:    strings.TrimSpace(r.PostFormValue("notes")),
	}
	var err error
	if form.Amount, err = strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("amount")), 64); err != nil {
		err = &pages.FormError{Fields: map[string]string{"Amount": "Amount must be a number."}}
	} else {
		err = h.base.ValidateForm(form)
	}
	if err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m.Body = form
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{
		Fields: map[string]string{"category": form.Category},
		Date:   form.Date,
	})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "expenses", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Expense recorded.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid expense ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Expense updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid expense ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "expenses", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Expense removed."})
}
