package pages

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// FormError lists the invalid fields of a submitted form.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return strings.Join(msgs, " ")
}

// Unwrap classifies form errors as validation failures for problem responses.
func (e *FormError) Unwrap() error { return httpx.ErrValidation }

// ValidateForm checks form against its validate tags.
func (b *Base) ValidateForm(form any) error {
	err := b.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &FormError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	name := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required."
	case "email":
		return name + " must be a valid email address."
	case "oneof":
		return name + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "gt", "gte", "min":
		return name + " must be at least " + fe.Param() + "."
	case "datetime":
		return name + " must be a date."
	default:
		return name + " is invalid."
	}
}

func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IDParam parses the {id} route parameter.
func IDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ItemPath builds "<endpoint>/<id>/<action>" for action endpoints.
func ItemPath(endpoint string, id int64, action string) string {
	return endpoint + "/" + strconv.FormatInt(id, 10) + "/" + action
}

// Outcome tells Mutate where to go afterwards.
type Outcome struct {
	// Module scopes submission keys.
	Module   string
	ReturnTo string
	Success  string
}

// Mutate runs m against the session's view for cfg and reports the result. A form submitted
// twice with the same submission key is rejected before reaching the API.
func Mutate[T collection.Record](b *Base, w http.ResponseWriter, r *http.Request, cfg collection.Config[T], m collection.Mutation, out Outcome) {
	key := r.FormValue(shared.SubmissionField)
	if err := b.Submissions.CheckAndInsert(r.Context(), key, out.Module); err != nil {
		b.Fail(w, r, out.ReturnTo, err)
		return
	}
	record, err := Mount(b, r, cfg).Mutate(r.Context(), b.Credential(r), m)
	if err != nil {
		b.Submissions.Release(r.Context(), key, out.Module)
		b.Fail(w, r, out.ReturnTo, err)
		return
	}
	b.Succeed(w, r, out.ReturnTo, out.Success, record)
}
