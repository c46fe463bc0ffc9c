package enquiries

import (
	"net/http"
	"strings"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const basePath = "/enquiries"

// Handler manages enquiry pages.
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
		Template: "pages/enquiries.html",
		Title:    "Enquiries",
		Options: map[string][]pages.Option{
			"status":  statusOptions,
			"type":    typeOptions,
			"channel": channelOptions,
		},
	})
}

func parseForm(r *http.Request) enquiryForm {
	form := enquiryForm{
		Name:       strings.TrimSpace(r.PostFormValue("name")),
		Phone:      strings.TrimSpace(r.PostFormValue("phone")),
		Email:      strings.TrimSpace(r.PostFormValue("email")),
		Type:       r.PostFormValue("type"),
		Status:     r.PostFormValue("status"),
		Source:     strings.TrimSpace(r.PostFormValue("source")),
		Interest:   strings.TrimSpace(r.PostFormValue("interest")),
		FollowUpOn: r.PostFormValue("follow_up_on"),
	}
	if form.Status == "" {
		form.Status = "new"
	}
	return form
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
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
	m.Body = form
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{
		Fields: map[string]string{"status": form.Status, "type": form.Type},
	})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "enquiries", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Enquiry added.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid enquiry ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Enquiry updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid enquiry ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "enquiries", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Enquiry removed."})
}

// communicate logs a follow-up; the API answers with the whole enquiry.
func (h *Handler) communicate(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid enquiry ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := communicationForm{Channel: r.PostFormValue("channel"), Note: strings.TrimSpace(r.PostFormValue("note"))}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:      collection.Action,
		Method:    http.MethodPost,
		Path:      pages.ItemPath(ListConfig.Endpoint, id, "communications"),
		ID:        id,
		Body:      form,
		RecordKey: "enquiry",
	}, pages.Outcome{Module: "enquiries", ReturnTo: returnTo, Success: "Follow-up logged."})
}
