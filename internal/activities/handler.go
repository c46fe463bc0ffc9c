package activities

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coachdesk/coachdesk/internal/apiclient"
	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/pages"
	"github.com/coachdesk/coachdesk/internal/rbac"
)

const (
	basePath = "/activities"
	// maxUpload caps attachment size; larger bodies are refused before reaching the API.
	maxUpload = 10 << 20
	// formOverhead leaves room for the multipart framing and the caption.
	formOverhead = 64 << 10
)

// Handler manages the daily activity log.
type Handler struct {
	base *pages.Base
	rbac rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(base *pages.Base, rbac rbac.Middleware) *Handler {
	return &Handler{base: base, rbac: rbac}
}

// list serves the log. mode=review opens the pending queue unless an approval filter is given.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("mode") == "review" && !q.Has("approval") {
		q.Set("approval", "pending")
		r.URL.RawQuery = q.Encode()
	}
	pages.ServeList(h.base, w, r, ListConfig, pages.ListOptions{
		Template: "pages/activities.html",
		Title:    "Daily activities",
		Options:  map[string][]pages.Option{"approval": approvalOptions},
	})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, m collection.Mutation, success string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := activityForm{
		Date:        r.PostFormValue("date"),
		Batch:       r.PostFormValue("batch"),
		Subject:     strings.TrimSpace(r.PostFormValue("subject")),
		Topic:       strings.TrimSpace(r.PostFormValue("topic")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Homework:    strings.TrimSpace(r.PostFormValue("homework")),
	}
	if err := h.base.ValidateForm(form); err != nil {
		h.base.Fail(w, r, returnTo, err)
		return
	}
	m.Body = form
	fields := map[string]string{"date": form.Date}
	if m.Kind == collection.Create {
		fields["approval"] = "pending"
	}
	m.Refetch = pages.LeavesView(h.base, r, ListConfig, pages.Placement{Fields: fields})
	pages.Mutate(h.base, w, r, ListConfig, m, pages.Outcome{Module: "activities", ReturnTo: returnTo, Success: success})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, collection.Mutation{Kind: collection.Create}, "Activity logged.")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}
	h.save(w, r, collection.Mutation{Kind: collection.Update, ID: id}, "Activity updated.")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}
	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{Kind: collection.Delete, ID: id},
		pages.Outcome{Module: "activities", ReturnTo: h.base.ReturnTo(r, basePath), Success: "Activity removed."})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	form := approvalForm{Approval: r.PostFormValue("approval")}
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
	}, pages.Outcome{Module: "activities", ReturnTo: returnTo, Success: "Activity " + form.Approval + "."})
}

// attach forwards one uploaded file to the API; the response is the activity with its new
// attachment list.
func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	id, ok := pages.IDParam(r)
	if !ok {
		http.Error(w, "Invalid activity ID", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.base.Fail(w, r, basePath, &pages.FormError{Fields: map[string]string{"Attachment": "Attachment must be smaller than 10 MB."}})
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	returnTo := h.base.ReturnTo(r, basePath)
	file, header, err := r.FormFile("attachment")
	if err != nil {
		h.base.Fail(w, r, returnTo, &pages.FormError{Fields: map[string]string{"Attachment": "Attachment is required."}})
		return
	}
	defer file.Close()
	if header.Size > maxUpload {
		h.base.Fail(w, r, returnTo, &pages.FormError{Fields: map[string]string{"Attachment": "Attachment must be smaller than 10 MB."}})
		return
	}

	pages.Mutate(h.base, w, r, ListConfig, collection.Mutation{
		Kind:   collection.Action,
		Method: http.MethodPost,
		Path:   pages.ItemPath(ListConfig.Endpoint, id, "attachments"),
		ID:     id,
		Upload: &apiclient.Upload{
			Field:    "attachment",
			FileName: header.Filename,
			Content:  file,
			Fields: map[string]string{
				"caption":   strings.TrimSpace(r.FormValue("caption")),
				"upload_id": uuid.NewString(),
			},
		},
	}, pages.Outcome{Module: "activities", ReturnTo: returnTo, Success: "Attachment uploaded."})
}
