package shorturl

import (
	"fmt"
	"strings"
	"time"
)

// Filter selects rows by equality on any subset of URL fields. Each field is
// tri-state: a nil pointer omits the predicate entirely, a non-nil pointer
// matches its value. The pointer is what carries presence, so ID of 0 and
// IsGone of false are legitimate match values and are never conflated with
// "no filter on this field". String fields additionally treat the empty
// string as absent.
//
// An empty Filter matches every row. Callers of Select use that deliberately
// for list-all operations; the single-target store operations reject filters
// that end up matching more than one row instead.
type Filter struct {
	ID         *int64
	URL        *string
	ShortURL   *string
	IsGone     *bool
	Visibility *Visibility
	ClientInfo *string
	ClickedAt  *time.Time
	NClicks    *int64
}

// FilterByID returns a filter matching a single record by primary key.
func FilterByID(id int64) Filter {
	return Filter{ID: &id}
}

// FilterByShortURL returns a filter matching a record by its short alias.
func FilterByShortURL(short string) Filter {
	return Filter{ShortURL: &short}
}

// FilterByURL returns a filter matching records by their canonical URL.
func FilterByURL(url string) Filter {
	return Filter{URL: &url}
}

// IsEmpty reports whether no predicate is present, i.e. the filter would
// match every row.
func (f Filter) IsEmpty() bool {
	conds, _ := f.predicates(1)
	return len(conds) == 0
}

// predicates returns the SQL equality conditions for every present field,
// with positional placeholders starting at firstArg, and the matching
// argument values. Conditions are combined with AND by whereClause.
func (f Filter) predicates(firstArg int) ([]string, []any) {
	var conds []string
	var args []any

	next := func(column string, value any) {
		conds = append(conds, fmt.Sprintf("%s = $%d", column, firstArg+len(args)))
		args = append(args, value)
	}

	if f.ID != nil { // 0 is a valid id
		next("id", *f.ID)
	}
	if f.URL != nil && *f.URL != "" {
		next("url", *f.URL)
	}
	if f.ShortURL != nil && *f.ShortURL != "" {
		next("short_url", *f.ShortURL)
	}
	if f.IsGone != nil { // false is a valid match value
		next("is_gone", *f.IsGone)
	}
	if f.Visibility != nil {
		next("visibility", string(*f.Visibility))
	}
	if f.ClientInfo != nil && *f.ClientInfo != "" {
		next("client_info", *f.ClientInfo)
	}
	if f.ClickedAt != nil {
		next("clicked_at", *f.ClickedAt)
	}
	if f.NClicks != nil { // 0 is a valid click count
		next("nclicks", *f.NClicks)
	}

	return conds, args
}

// whereClause renders the filter as a WHERE clause with placeholders starting
// at firstArg. It returns the empty string for an empty filter, leaving the
// statement unconstrained.
func (f Filter) whereClause(firstArg int) (string, []any) {
	conds, args := f.predicates(firstArg)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
