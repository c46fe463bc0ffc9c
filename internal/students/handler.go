package students

import (
	"net/http"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/students"

// Handler manages the student roster pages.
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
		Template: "pages/students.html",
		Title:    "Students",
		Options: map[string][]pages.Option{
			"status": statusOptions,
			"batch":  batchOptions,
		},
	})
}

func parseForm(r *http.Request) studentForm {
	return studentForm{
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Email:         strings.TrimSpace(r.PostFormValue("email")),
		Phone:         strings.TrimSpace(r.PostFormValue("phone")),
		Batch:         r.PostFormValue("batch"),
		Course:        strings.TrimSpace(r.PostFormValue("course")),
		GuardianName:  strings.TrimSpace(r.PostFormValue("guardian_name")),
		GuardianPhone: strings.TrimSpace(r.PostFormValue("guardian_phone")),
		EnrolledOn:    r.PostFormValue("enrolled_on"),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := parseForm(r)
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	refetch := pages.LeavesView(h.base, r, ListConfig, pages.Placement{
		Fields: map[string]string{"batch": form.Batch, "status": "active"},
	})
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Create, Body: form, Refetch: refetch},
		pages.Outcome{Module: "students", ReturnTo: returnTo, Success: "Student " + form.Name + " added."})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := parseForm(r)
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	refetch := pages.LeavesView(h.base, r, ListConfig, pages.Placement{
		Fields: map[string]string{"batch": form.Batch},
	})
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Update, ID: id, Body: form, Refetch: refetch},
		pages.Outcome{Module: "students", ReturnTo: returnTo, Success: "Student updated."})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "students", ReturnTo: returnTo, Success: "Student removed."})
}

// toggleStatus flips a student between active and inactive. Under an active status filter the
// student leaves the page, so the page is re-fetched instead of patched in place.
func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid student ID", http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := statusForm{Status: r.FormValue("status")}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m := collection.Mutation{
		Kind:      collection.Action,
		Path:      pages.ItemPath(ListConfig.Endpoint, id, "status"),
		ID:        id,
		Body:      form,
		RecordKey: "student",
		Refetch:   pages.FilterActive(h.base, r, ListConfig, "status"),
	}
	pages.Mutate(h.base, w, r, ListConfig, m,
		pages.Outcome{Module: "students", ReturnTo: returnTo, Success: "Student marked " + form.Status + "."})
}
