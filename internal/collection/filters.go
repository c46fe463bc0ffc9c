package collection

import (
	"errors"
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and input format of date filters.
const DateLayout = "2006-01-02"

// AllValue is the categorical "no constraint" choice.
const AllValue = "all"

// SearchFilter is the free-text filter. Only the server can tell whether a record matches it.
const SearchFilter = "search"

// ErrInvalidRange is returned when a date range would start after it ends.
var ErrInvalidRange = errors.New("collection: start date after end date")

// Filters maps filter names to values. A missing key, an empty value or "all" means no constraint.
type Filters map[string]string

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

// Equal reports whether both sets constrain the collection identically.
func (f Filters) Equal(other Filters) bool {
	keys := make(map[string]struct{}, len(f)+len(other))
	for k := range f {
		keys[k] = struct{}{}
	}
	for k := range other {
		keys[k] = struct{}{}
	}
	for k := range keys {
		if normalizeValue(f[k]) != normalizeValue(other[k]) {
			return false
		}
	}
	return true
}

// Keys returns the filter names in sorted order.
func (f Filters) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Query encodes the constraining filters plus the cursor.
func (f Filters) Query(cur Cursor) url.Values {
	q := url.Values{}
	for _, k := range f.Keys() {
		if v := normalizeValue(f[k]); v != "" {
			q.Set(k, v)
		}
	}
	q.Set("page", strconv.Itoa(cur.Page))
	q.Set("per_page", strconv.Itoa(cur.PerPage))
	return q
}

// Get returns the value for key, or "" when absent.
func (f Filters) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// Admits reports whether a record whose filterable fields hold values still matches f. Keys
// name filters; filters set to "" or "all" admit anything. An active search admits nothing,
// since matching it is the server's job.
func (f Filters) Admits(values map[string]string) bool {
	if strings.TrimSpace(f.Get(SearchFilter)) != "" {
		return false
	}
	for name, v := range values {
		want := normalizeValue(f.Get(name))
		if want != "" && !strings.EqualFold(want, strings.TrimSpace(v)) {
			return false
		}
	}
	return true
}

func normalizeValue(v string) string {
	if v == AllValue {
		return ""
	}
	return v
}

// DateRange names the pair of filters that bound a date window.
type DateRange struct {
	From string
	To   string
}

// Check rejects windows where From is after To. Either side may be empty.
func (r DateRange) Check(f Filters) error {
	from, to := f.Get(r.From), f.Get(r.To)
	if from == "" || to == "" {
		return nil
	}
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return err
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return err
	}
	if start.After(end) {
		return ErrInvalidRange
	}
	return nil
}

// Bounds returns the min attribute of the "to" input and the max attribute of the "from"
// input, so the browser never lets the user pick an inverted range.
func (r DateRange) Bounds(f Filters) (toMin, fromMax string) {
	return f.Get(r.From), f.Get(r.To)
}

// Contains reports whether date (a DateLayout date, optionally followed by a time) lies inside
// the window f describes. Unset bounds are open.
func (r DateRange) Contains(f Filters, date string) bool {
	if len(date) > len(DateLayout) {
		date = date[:len(DateLayout)]
	}
	if from := f.Get(r.From); from != "" && date < from {
		return false
	}
	if to := f.Get(r.To); to != "" && date > to {
		return false
	}
	return true
}

// TrailingWeek returns the default 7-day window ending on now's date.
func TrailingWeek(now time.Time) (from, to string) {
	return now.AddDate(0, 0, -6).Format(DateLayout), now.Format(DateLayout)
}
