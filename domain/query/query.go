// Package query resolves request query parameters into backend-neutral
// pagination and filter criteria.
package query

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/artpar/crudgate/domain/resource"
	"github.com/artpar/crudgate/domain/storage"
)

// DefaultLimit is the collection page size when the request does not set one.
const DefaultLimit = 100

// Page is the offset/size window applied after filtering, ordered by primary
// key ascending.
type Page struct {
	Skip  int
	Limit int
}

// Filters maps a field name to a single equality-match value, coerced to the
// field's declared type.
type Filters map[string]any

// reserved query keys that never name a filter field.
const (
	keySkip  = "skip"
	keyLimit = "limit"
	keyToken = "token"
)

// ParseListQuery resolves one request's query parameters into (Page, Filters).
//
// skip and limit are extracted first; malformed or out-of-range values fail
// as bad-input, with no clamping. Every remaining key must name a declared
// field: an unknown key fails as bad-input before the backend is touched,
// and a value that cannot be coerced to the field's declared type fails as
// unprocessable. The two failure kinds stay distinguishable.
func ParseListQuery(s resource.Schema, values url.Values) (Page, Filters, error) {
	page := Page{Skip: 0, Limit: DefaultLimit}

	if raw := values.Get(keySkip); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Page{}, nil, storage.Errf(storage.KindBadInput, "skip must be a non-negative integer, got %q", raw)
		}
		page.Skip = n
	}
	if raw := values.Get(keyLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Page{}, nil, storage.Errf(storage.KindBadInput, "limit must be a positive integer, got %q", raw)
		}
		page.Limit = n
	}

	filters := make(Filters)
	for key, vals := range values {
		switch key {
		case keySkip, keyLimit, keyToken:
			continue
		}
		f, ok := s.Field(key)
		if !ok {
			return Page{}, nil, storage.Errf(storage.KindBadInput, "unknown filter field %q", key)
		}
		if len(vals) == 0 {
			continue
		}
		v, err := f.Coerce(vals[0])
		if err != nil {
			var ce *resource.CoercionError
			if errors.As(err, &ce) {
				return Page{}, nil, storage.Wrap(storage.KindUnprocessable, "invalid filter value", err)
			}
			return Page{}, nil, storage.Wrap(storage.KindBadInput, "invalid filter value", err)
		}
		filters[key] = v
	}
	return page, filters, nil
}

// Window applies the page to an already-filtered, already-ordered slice
// length and returns the [lo, hi) bounds.
func (p Page) Window(n int) (lo, hi int) {
	lo = p.Skip
	if lo > n {
		lo = n
	}
	hi = lo + p.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}
