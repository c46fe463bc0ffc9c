package pages

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/coachdesk/coachdesk/internal/collection"
	"github.com/coachdesk/coachdesk/internal/platform/httpx"
	"github.com/coachdesk/coachdesk/internal/shared"
)

// Option is one choice of a select filter.
type Option struct {
	Value string
	Label string
}

// RangeInput describes a pair of date inputs whose bounds follow each other.
type RangeInput struct {
	From    string
	To      string
	FromVal string
	ToVal   string
	// ToMin is the min attribute of the "to" input; FromMax the max of the "from" input.
	ToMin   string
	FromMax string
}

// ListOptions configures ServeList for one page.
type ListOptions struct {
	Template string
	Title    string
	Options  map[string][]Option
	// Extra supplies page specific template data, e.g. choices for create forms.
	Extra func(r *http.Request) any
}

// ListData is the template payload of a list page.
type ListData[T collection.Record] struct {
	collection.Snapshot[T]
	Path         string
	Query        string
	FilterError  string
	Ranges       []RangeInput
	Options      map[string][]Option
	User         shared.AuthUser
	SubmissionID string
	Extra        any
}

// PageURL links to page n of the current state.
func (d ListData[T]) PageURL(n int) string {
	q, _ := url.ParseQuery(d.Query)
	q.Set("page", strconv.Itoa(n))
	return d.Path + "?" + q.Encode()
}

// ReturnTo is the URL mutations redirect back to.
func (d ListData[T]) ReturnTo() string {
	if d.Query == "" {
		return d.Path
	}
	return d.Path + "?" + d.Query
}

// RefreshURL re-issues the current fetch; it backs the retry link of a failed load.
func (d ListData[T]) RefreshURL() string {
	return d.PageURL(d.Page) + "&refresh=1"
}

// Filter returns the current value of a filter.
func (d ListData[T]) Filter(name string) string {
	return d.Filters.Get(name)
}

// Range returns the date inputs for the range starting at from.
func (d ListData[T]) Range(from string) RangeInput {
	for _, r := range d.Ranges {
		if r.From == from {
			return r
		}
	}
	return RangeInput{From: from}
}

type listJSON[T collection.Record] struct {
	collection.Snapshot[T]
	FilterError string `json:"filter_error,omitempty"`
}

// Mount returns the request session's view for cfg.
func Mount[T collection.Record](b *Base, r *http.Request, cfg collection.Config[T]) *collection.View[T] {
	sessionID := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sessionID = sess.ID
	}
	return collection.Mount(b.Registry, sessionID, cfg, b.API)
}

// FiltersFromQuery overlays query values on defaults. Only names present in defaults are
// filters; anything else in the query is ignored.
func FiltersFromQuery(defaults collection.Filters, q url.Values) collection.Filters {
	out := defaults.Clone()
	for name := range defaults {
		if q.Has(name) {
			out[name] = q.Get(name)
		}
	}
	return out
}

func stateQuery(f collection.Filters, page, perPage int) string {
	q := url.Values{}
	for _, k := range f.Keys() {
		q.Set(k, f[k])
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return q.Encode()
}

func intParam(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ServeList drives the session's view to the state the request URL describes and renders it.
// ?reset=1 restores the default filters and ?refresh=1 re-issues the current fetch.
func ServeList[T collection.Record](b *Base, w http.ResponseWriter, r *http.Request, cfg collection.Config[T], opts ListOptions) {
	v := Mount(b, r, cfg)
	cred := b.Credential(r)
	q := r.URL.Query()

	var err error
	switch {
	case q.Has("reset"):
		err = v.ResetFilters(r.Context(), cred)
	case q.Has("refresh"):
		err = v.Refresh(r.Context(), cred)
	default:
		filters := FiltersFromQuery(v.DefaultFilters(), q)
		err = v.Sync(r.Context(), cred, filters, intParam(q, "page"), intParam(q, "per_page"))
	}

	filterErr := ""
	switch {
	case err == nil, errors.Is(err, collection.ErrSuperseded):
	case errors.Is(err, collection.ErrInvalidRange):
		filterErr = shared.UserSafeMessage(err)
	case errors.Is(err, collection.ErrSignInRequired):
		if httpx.WantsJSON(r) {
			httpx.RespondError(w, err)
			return
		}
	default:
		b.Logger.Warn("list fetch failed", slog.String("view", cfg.Name), slog.Any("error", err))
	}

	snap := v.Snapshot()
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, listJSON[T]{Snapshot: snap, FilterError: filterErr})
		return
	}

	data := ListData[T]{
		Snapshot:     snap,
		Path:         r.URL.Path,
		Query:        stateQuery(snap.Filters, snap.Page, snap.PerPage),
		FilterError:  filterErr,
		Options:      opts.Options,
		User:         b.User(r),
		SubmissionID: uuid.NewString(),
	}
	for _, rng := range cfg.Ranges {
		toMin, fromMax := rng.Bounds(snap.Filters)
		data.Ranges = append(data.Ranges, RangeInput{
			From:    rng.From,
			To:      rng.To,
			FromVal: snap.Filters.Get(rng.From),
			ToVal:   snap.Filters.Get(rng.To),
			ToMin:   toMin,
			FromMax: fromMax,
		})
	}
	if opts.Extra != nil {
		data.Extra = opts.Extra(r)
	}
	b.Render(w, r, opts.Template, opts.Title, data, http.StatusOK)
}

// Placement is what a write says about where its record will land: the values of fields that
// equality filters constrain, keyed by filter name, and the record's date for date ranges.
type Placement struct {
	Fields map[string]string
	Date   string
}

// LeavesView reports whether the record a write produces may fall outside the session view's
// current filters. Such writes re-fetch the page instead of merging the returned record.
func LeavesView[T collection.Record](b *Base, r *http.Request, cfg collection.Config[T], p Placement) bool {
	f := Mount(b, r, cfg).Snapshot().Filters
	if !f.Admits(p.Fields) {
		return true
	}
	for _, rg := range cfg.Ranges {
		if !rg.Contains(f, p.Date) {
			return true
		}
	}
	return false
}

// FilterActive reports whether the session's view for cfg narrows name to a single value.
// Writes that change that field must re-fetch, since the record may leave the page.
func FilterActive[T collection.Record](b *Base, r *http.Request, cfg collection.Config[T], name string) bool {
	v := Mount(b, r, cfg).Snapshot().Filters.Get(name)
	return v != "" && v != collection.AllValue
}
