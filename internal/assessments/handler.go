package assessments

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/assessments"

// Handler manages assessment pages.
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
		Template: "pages/assessments.html",
		Title:    "Assessments",
		Options: map[string][]pages.Option{
			"subject":  subjectOptions,
			"approval": approvalOptions,
		},
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := assessmentForm{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Subject: r.PostFormValue("subject"),
		Batch:   r.PostFormValue("batch"),
		Date:    r.PostFormValue("date"),
		Remarks: strings.TrimSpace(r.PostFormValue("remarks")),
	}
	var err error
	if form.MaxMarks, err = strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("max_marks")), 64); err != nil {
		err = &pages.FormError{Fields: map[string]string{"MaxMarks": "Max marks must be a number."}}
	} else {
		err = h.base.ValidateForm(form)
	}
	if err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m.Body = form
	fields := map[string]string{"subject": form.Subject}
	if m.Kind == collection.Create {
		fields["approval"] = "pending"
	}
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{Fields: fields})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "assessments", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Assessment submitted for approval.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid assessment ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Assessment updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid assessment ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "assessments", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Assessment removed."})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid assessment ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := approvalForm{Approval: r.PostFormValue("approval"), Remarks: strings.TrimSpace(r.PostFormValue("remarks"))}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:    collection.Action,
		Path:    pages.ItemPath(ListConfig.Endpoint, id, "approve"),
		ID:      id,
		Body:    form,
		Refetch: pages.FilterActive(h.base, r, ListConfig, "approval"),
	}, pages.Outcome{Module: "assessments", ReturnTo: returnTo, Success: "Assessment " + form.Approval + "."})
}
