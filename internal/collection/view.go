// Package collection implements the remote list view shared by every dashboard page: a
// filterable, paginated collection fetched from one API endpoint, with mutations reconciled
// into local state.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coachdesk/coachdesk/internal/apiclient"
)

// SignInMessage is shown when a view cannot fetch because no usable credential exists.
const SignInMessage = "Please sign in to continue."

var (
	// ErrSignInRequired means the fetch was not attempted, or the API rejected the credential.
	ErrSignInRequired = errors.New("collection: sign in required")
	// ErrSuperseded marks a fetch whose response was discarded because a newer trigger won.
	ErrSuperseded = errors.New("collection: superseded by newer fetch")
	// ErrBusy rejects a mutation while another one on the same view is still running.
	ErrBusy = errors.New("collection: mutation already in progress")
)

// Record is implemented by every collection row.
type Record interface {
	RecordID() int64
}

// API is the transport a View needs. *apiclient.Client satisfies it.
type API interface {
	Do(ctx context.Context, cred apiclient.Credential, req apiclient.Request, out any) error
	Validate(v any) error
}

// Config parameterises a View.
type Config[T Record] struct {
	// Name identifies the view inside a session registry.
	Name string
	// Label is used in user-facing messages ("Unable to load students.").
	Label string
	// Endpoint is the collection path, e.g. "/students".
	Endpoint string
	// ItemsKey selects the array inside the response data object.
	ItemsKey string
	PerPage  int
	// Defaults returns the documented default filters; evaluated on mount and on reset.
	Defaults func(now time.Time) Filters
	Ranges   []DateRange
}

func (c Config[T]) defaults(now time.Time) Filters {
	if c.Defaults == nil {
		return Filters{}
	}
	return c.Defaults(now).Clone()
}

// State is the view's data. It is only mutated by the fetch cycle and mutation reconciliation.
type State[T Record] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
	Filters    Filters    `json:"filters"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	Loading    bool       `json:"loading"`
	Err        string     `json:"error,omitempty"`
	// Loaded becomes true after the first successful fetch.
	Loaded bool `json:"loaded"`
}

// Snapshot is a rendering copy of State plus derived control flags.
type Snapshot[T Record] struct {
	State[T]
	Name    string `json:"name"`
	Label   string `json:"label"`
	CanPrev bool   `json:"can_prev"`
	CanNext bool   `json:"can_next"`
	Pages   []int  `json:"pages"`
}

// View is one mounted instance of a remote list. All methods are safe for concurrent use.
type View[T Record] struct {
	cfg Config[T]
	api API
	now func() time.Time

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	cancel context.CancelFunc
	busy   bool
}

// NewView mounts a view with its documented default filters on page 1.
func NewView[T Record](cfg Config[T], api API) *View[T] {
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	v := &View[T]{cfg: cfg, api: api, now: time.Now}
	v.state = State[T]{
		Filters: cfg.defaults(v.now()),
		Page:    1,
		PerPage: cfg.PerPage,
	}
	return v
}

// WithClock overrides the time source used for default filters and credential expiry.
func (v *View[T]) WithClock(now func() time.Time) *View[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = now
	v.state.Filters = v.cfg.defaults(now())
	return v
}

// Config returns the view configuration.
func (v *View[T]) Config() Config[T] {
	return v.cfg
}

// Snapshot copies the current state for rendering.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.state
	st.Items = append([]T(nil), v.state.Items...)
	st.Filters = v.state.Filters.Clone()
	snap := Snapshot[T]{
		State: st,
		Name:  v.cfg.Name,
		Label: v.cfg.Label,
	}
	snap.CanPrev = st.Page > 1 && !st.Loading
	snap.CanNext = st.Loaded && st.Page < st.Pagination.LastPage && !st.Loading
	snap.Pages = st.Pagination.PageNumbers()
	return snap
}

// DefaultFilters evaluates the documented defaults against the view's clock.
func (v *View[T]) DefaultFilters() Filters {
	v.mu.Lock()
	now := v.now()
	v.mu.Unlock()
	return v.cfg.defaults(now)
}

// SetFilter changes one filter, resets the page to 1 and fetches.
func (v *View[T]) SetFilter(ctx context.Context, cred apiclient.Credential, name, value string) error {
	v.mu.Lock()
	next := v.state.Filters.Clone()
	v.mu.Unlock()
	next[name] = value
	return v.SetFilters(ctx, cred, next)
}

// SetFilters replaces the filter set, resets the page to 1 and fetches. An inverted date range
// is refused before anything changes.
func (v *View[T]) SetFilters(ctx context.Context, cred apiclient.Credential, filters Filters) error {
	for _, r := range v.cfg.Ranges {
		if err := r.Check(filters); err != nil {
			return err
		}
	}
	v.mu.Lock()
	v.state.Filters = filters.Clone()
	v.state.Page = 1
	v.mu.Unlock()
	return v.fetch(ctx, cred)
}

// ResetFilters restores the documented defaults and page 1, then fetches.
func (v *View[T]) ResetFilters(ctx context.Context, cred apiclient.Credential) error {
	v.mu.Lock()
	v.state.Filters = v.cfg.defaults(v.now())
	v.state.Page = 1
	v.mu.Unlock()
	return v.fetch(ctx, cred)
}

// SetPage moves to page n. Pages outside 1..LastPage are a no-op, matching the disabled
// previous/next controls.
func (v *View[T]) SetPage(ctx context.Context, cred apiclient.Credential, n int) error {
	v.mu.Lock()
	if n < 1 || (v.state.Loaded && n > v.state.Pagination.LastPage) || n == v.state.Page && v.state.Loaded {
		v.mu.Unlock()
		return nil
	}
	v.state.Page = n
	v.mu.Unlock()
	return v.fetch(ctx, cred)
}

// SetPerPage changes the page size, resets the page to 1 and fetches.
func (v *View[T]) SetPerPage(ctx context.Context, cred apiclient.Credential, n int) error {
	if n <= 0 {
		return fmt.Errorf("collection: invalid page size %d", n)
	}
	v.mu.Lock()
	v.state.PerPage = n
	v.state.Page = 1
	v.mu.Unlock()
	return v.fetch(ctx, cred)
}

// Refresh re-issues the current fetch.
func (v *View[T]) Refresh(ctx context.Context, cred apiclient.Credential) error {
	return v.fetch(ctx, cred)
}

// Sync drives the view towards the state a request URL describes: changed filters win over a
// changed page size, which wins over a changed page. When nothing changed and data is already
// loaded, the current state is kept as is.
func (v *View[T]) Sync(ctx context.Context, cred apiclient.Credential, filters Filters, page, perPage int) error {
	v.mu.Lock()
	filtersChanged := !v.state.Filters.Equal(filters)
	perPageChanged := perPage > 0 && perPage != v.state.PerPage
	pageChanged := page > 0 && page != v.state.Page
	loaded := v.state.Loaded
	v.mu.Unlock()

	switch {
	case filtersChanged:
		return v.SetFilters(ctx, cred, filters)
	case perPageChanged:
		return v.SetPerPage(ctx, cred, perPage)
	case pageChanged && loaded:
		return v.SetPage(ctx, cred, page)
	case pageChanged:
		v.mu.Lock()
		v.state.Page = page
		v.mu.Unlock()
		return v.fetch(ctx, cred)
	case !loaded:
		return v.fetch(ctx, cred)
	}
	return nil
}

// fetch runs one generation of the fetch cycle. Any in-flight fetch is cancelled first and only
// the newest generation may write Items and Pagination.
func (v *View[T]) fetch(ctx context.Context, cred apiclient.Credential) error {
	v.mu.Lock()
	if !cred.Valid() || cred.Expired(v.now()) {
		if v.cancel != nil {
			v.cancel()
			v.cancel = nil
		}
		v.gen++
		v.state.Loading = false
		v.state.Err = SignInMessage
		v.mu.Unlock()
		return ErrSignInRequired
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.state.Loading = true
	cur := Cursor{Page: v.state.Page, PerPage: v.state.PerPage}
	query := v.state.Filters.Query(cur)
	v.mu.Unlock()
	defer cancel()

	var data map[string]json.RawMessage
	err := v.api.Do(fetchCtx, cred, apiclient.Request{Method: http.MethodGet, Path: v.cfg.Endpoint, Query: query}, &data)
	var items []T
	var pagination Pagination
	if err == nil {
		items, pagination, err = v.decode(data, cur)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		return ErrSuperseded
	}
	v.cancel = nil
	v.state.Loading = false
	switch {
	case err == nil:
		v.state.Items = items
		v.state.Pagination = pagination
		v.state.Page = pagination.CurrentPage
		v.state.Err = ""
		v.state.Loaded = true
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(fetchCtx.Err(), context.Canceled):
		return err
	case apiclient.IsUnauthorized(err):
		v.state.Err = SignInMessage
		return fmt.Errorf("%w: %v", ErrSignInRequired, err)
	default:
		v.state.Err = "Unable to load " + v.cfg.Label + "."
		return err
	}
}

func (v *View[T]) decode(data map[string]json.RawMessage, cur Cursor) ([]T, Pagination, error) {
	raw, ok := data[v.cfg.ItemsKey]
	if !ok {
		return nil, Pagination{}, fmt.Errorf("%w: %s: %q missing", apiclient.ErrMalformedResponse, v.cfg.Endpoint, v.cfg.ItemsKey)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, Pagination{}, fmt.Errorf("%w: %s: %v", apiclient.ErrMalformedResponse, v.cfg.Endpoint, err)
	}
	for i := range items {
		if err := v.api.Validate(&items[i]); err != nil {
			return nil, Pagination{}, fmt.Errorf("%s item %d: %w", v.cfg.Endpoint, i, err)
		}
	}
	if items == nil {
		items = []T{}
	}

	var pagination Pagination
	if rawPage, ok := data["pagination"]; ok && string(rawPage) != "null" {
		if err := json.Unmarshal(rawPage, &pagination); err != nil {
			return nil, Pagination{}, fmt.Errorf("%w: %s pagination: %v", apiclient.ErrMalformedResponse, v.cfg.Endpoint, err)
		}
	} else {
		pagination = Pagination{CurrentPage: cur.Page, Total: len(items), PerPage: cur.PerPage, LastPage: 1}
	}
	return items, pagination.normalize(cur), nil
}

// MutationKind selects how a successful mutation is reconciled into Items.
type MutationKind int

const (
	// Create prepends the returned record.
	Create MutationKind = iota + 1
	// Update replaces the record with the same id.
	Update
	// Delete removes the record by id.
	Delete
	// Action is a status change or approval; the returned record replaces the old one.
	Action
)

// Mutation describes one write against a companion endpoint.
type Mutation struct {
	Kind MutationKind
	// Method defaults to POST, PUT, DELETE and PATCH for the four kinds.
	Method string
	// Path defaults to the collection endpoint for creates and "<endpoint>/<id>" otherwise.
	Path   string
	ID     int64
	Body   any
	Upload *apiclient.Upload
	// RecordKey unwraps responses shaped {"data": {"<key>": {...}}}.
	RecordKey string
	// Refetch is set when the mutation may move the record to another page (a status change
	// under an active status filter); the current page is then re-fetched instead of merged.
	Refetch bool
}

func (m Mutation) method() string {
	if m.Method != "" {
		return m.Method
	}
	switch m.Kind {
	case Update:
		return http.MethodPut
	case Delete:
		return http.MethodDelete
	case Action:
		return http.MethodPatch
	default:
		return http.MethodPost
	}
}

func (m Mutation) path(endpoint string) string {
	if m.Path != "" {
		return m.Path
	}
	if m.Kind == Create {
		return endpoint
	}
	return endpoint + "/" + strconv.FormatInt(m.ID, 10)
}

// Mutate applies m against the API. Mutations run to completion even if ctx is cancelled; on
// failure Items are left untouched and the error is returned for a blocking alert.
func (v *View[T]) Mutate(ctx context.Context, cred apiclient.Credential, m Mutation) (T, error) {
	var zero T
	v.mu.Lock()
	if !cred.Valid() || cred.Expired(v.now()) {
		v.mu.Unlock()
		return zero, ErrSignInRequired
	}
	if v.busy {
		v.mu.Unlock()
		return zero, ErrBusy
	}
	v.busy = true
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.busy = false
		v.mu.Unlock()
	}()

	ctx = context.WithoutCancel(ctx)
	req := apiclient.Request{Method: m.method(), Path: m.path(v.cfg.Endpoint), Body: m.Body, Upload: m.Upload}

	var record T
	var err error
	switch {
	case m.Kind == Delete:
		err = v.api.Do(ctx, cred, req, nil)
	case m.RecordKey != "":
		var wrapped map[string]json.RawMessage
		if err = v.api.Do(ctx, cred, req, &wrapped); err == nil {
			err = v.unwrap(wrapped, m.RecordKey, &record)
		}
	default:
		err = v.api.Do(ctx, cred, req, &record)
	}
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return zero, fmt.Errorf("%w: %v", ErrSignInRequired, err)
		}
		return zero, err
	}

	if m.Refetch {
		if err := v.fetch(ctx, cred); err != nil && !errors.Is(err, ErrSuperseded) {
			return record, err
		}
		return record, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	switch m.Kind {
	case Create:
		v.state.Items = append([]T{record}, v.state.Items...)
	case Update, Action:
		id := record.RecordID()
		if id == 0 {
			id = m.ID
		}
		for i := range v.state.Items {
			if v.state.Items[i].RecordID() == id {
				v.state.Items[i] = record
				break
			}
		}
	case Delete:
		kept := v.state.Items[:0:0]
		for _, item := range v.state.Items {
			if item.RecordID() != m.ID {
				kept = append(kept, item)
			}
		}
		v.state.Items = kept
	}
	return record, nil
}

func (v *View[T]) unwrap(data map[string]json.RawMessage, key string, out *T) error {
	raw, ok := data[key]
	if !ok {
		return fmt.Errorf("%w: %q missing", apiclient.ErrMalformedResponse, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", apiclient.ErrMalformedResponse, err)
	}
	return v.api.Validate(out)
}

// Close cancels any in-flight fetch. The view may not be used afterwards.
func (v *View[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.gen++
}
