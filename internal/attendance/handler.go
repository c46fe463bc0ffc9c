package attendance

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/attendance"

// Handler manages attendance pages.
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
		Template: "pages/attendance.html",
		Title:    "Attendance",
		Options: map[string][]pages.Option{
			"role":   roleOptions,
			"status": statusOptions,
		},
	})
}

// mark records attendance. The API upserts one mark per person and date, so the page is
// re-fetched rather than prepended.
func (h *Handler) mark(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	personID, _ := strconv.ParseInt(r.PostFormValue("person_id"), 10, 64)
	form := markForm{
		PersonID: personID,
		Role:     r.PostFormValue("role"),
		Date:     r.PostFormValue("date"),
		Status:   r.PostFormValue("status"),
		Remarks:  strings.TrimSpace(r.PostFormValue("remarks")),
	}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Create, Body: form, Refetch: true},
		pages.Outcome{Module: "attendance", ReturnTo: returnTo, Success: "Attendance saved."})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid attendance ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "attendance", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Attendance mark removed."})
}
