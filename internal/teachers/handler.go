package teachers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/teachers"

// Handler manages the faculty pages.
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
		Template: "pages/teachers.html",
		Title:    "Teachers",
		Options: map[string][]pages.Option{
			"subject": subjectOptions,
			"status":  statusOptions,
		},
	})
}

func parseForm(r *http.Request) (teacherForm, error) {
	form := teacherForm{
		Name:          strings.TrimSpace(r.PostFormValue("name")),
		Email:         strings.TrimSpace(r.PostFormValue("email")),
		Phone:         strings.TrimSpace(r.PostFormValue("phone")),
		Subject:       r.PostFormValue("subject"),
		Qualification: strings.TrimSpace(r.PostFormValue("qualification")),
		JoinedOn:      r.PostFormValue("joined_on"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("salary")); raw != "" {
		salary, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return form, &pages.FormError{Fields: map[string]string{"Salary": "Salary must be a number."}}
		}
		form.Salary = salary
	}
	return form, nil
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form, err := parseForm(r)
	if err == nil {
		err = h.base.ValidateForm(form)
	}
	if err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m.Body = form
	fields := map[string]string{"subject": form.Subject}
	if m.Kind == collection.Create {
		fields["status"] = "active"
	}
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{Fields: fields})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "teachers", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Teacher added.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Teacher updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "teachers", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Teacher removed."})
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid teacher ID", http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := statusForm{Status: r.FormValue("status")}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:      collection.Action,
		Path:      pages.ItemPath(ListConfig.Endpoint, id, "status"),
		ID:        id,
		Body:      form,
		RecordKey: "teacher",
		Refetch:   pages.FilterActive(h.base, r, ListConfig, "status"),
	}, pages.Outcome{Module: "teachers", ReturnTo: returnTo, Success: "Teacher marked " + form.Status + "."})
}
