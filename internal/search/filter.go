// Package search holds the ticket filter, its query-string encoding, and
// the debounced search and load-more paging built on it.
package search

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

// DateLayout is the day format used for date-range parameters.
const DateLayout = "2006-01-02"

// DefaultPageSize is the page size when none is configured.
const DefaultPageSize = 20

// Filter narrows the ticket list. The zero value is the default,
// unfiltered view.
type Filter struct {
	QueueID      string
	CategoryID   string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Search       string
	AssignedToID string
	Unassigned   bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ClosedFrom   *time.Time
	ClosedTo     *time.Time
	HasDocuments bool
	HasComments  bool
}

// Clear returns the default filter.
func (f Filter) Clear() Filter { return Filter{} }

// IsDefault reports whether no criterion is set.
func (f Filter) IsDefault() bool { return len(f.Values()) == 0 }

// Equal reports whether two filters select the same tickets.
func (f Filter) Equal(other Filter) bool {
	return f.Values().Encode() == other.Values().Encode()
}

// WithSearch returns a copy of f with the search term replaced.
func (f Filter) WithSearch(text string) Filter {
	f.Search = text
	f.Statuses = slices.Clone(f.Statuses)
	f.Priorities = slices.Clone(f.Priorities)
	return f
}

// Values encodes the criteria that are set. Unset criteria are omitted
// so the default filter encodes to nothing.
func (f Filter) Values() url.Values {
	v := url.Values{}
	setString(v, "queueId", f.QueueID)
	setString(v, "categoryId", f.CategoryID)
	if len(f.Statuses) > 0 {
		parts := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			parts[i] = string(s)
		}
		slices.Sort(parts)
		v.Set("status", strings.Join(slices.Compact(parts), ","))
	}
	if len(f.Priorities) > 0 {
		parts := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			parts[i] = string(p)
		}
		slices.Sort(parts)
		v.Set("priority", strings.Join(slices.Compact(parts), ","))
	}
	setString(v, "search", strings.TrimSpace(f.Search))
	setString(v, "assignedToId", f.AssignedToID)
	setBool(v, "unassigned", f.Unassigned)
	setDate(v, "createdFrom", f.CreatedFrom)
	setDate(v, "createdTo", f.CreatedTo)
	setDate(v, "closedFrom", f.ClosedFrom)
	setDate(v, "closedTo", f.ClosedTo)
	setBool(v, "hasDocuments", f.HasDocuments)
	setBool(v, "hasComments", f.HasComments)
	return v
}

// Query encodes the filter plus paging parameters for GET /v1/tickets.
func (f Filter) Query(page, limit int) url.Values {
	v := f.Values()
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	return v
}

// ParseFilter reads a filter from query parameters. Paging parameters are
// ignored.
func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		QueueID:      strings.TrimSpace(v.Get("queueId")),
		CategoryID:   strings.TrimSpace(v.Get("categoryId")),
		Search:       strings.TrimSpace(v.Get("search")),
		AssignedToID: strings.TrimSpace(v.Get("assignedToId")),
	}
	for _, raw := range splitCSV(v.Get("status")) {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return Filter{}, fmt.Errorf("invalid status %q", raw)
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, raw := range splitCSV(v.Get("priority")) {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			return Filter{}, fmt.Errorf("invalid priority %q", raw)
		}
		f.Priorities = append(f.Priorities, priority)
	}

	var err error
	for _, b := range []struct {
		key string
		dst *bool
	}{{"unassigned", &f.Unassigned}, {"hasDocuments", &f.HasDocuments}, {"hasComments", &f.HasComments}} {
		if raw := v.Get(b.key); raw != "" {
			if *b.dst, err = strconv.ParseBool(raw); err != nil {
				return Filter{}, fmt.Errorf("invalid %s %q", b.key, raw)
			}
		}
	}
	for _, d := range []struct {
		key string
		dst **time.Time
	}{{"createdFrom", &f.CreatedFrom}, {"createdTo", &f.CreatedTo}, {"closedFrom", &f.ClosedFrom}, {"closedTo", &f.ClosedTo}} {
		if raw := v.Get(d.key); raw != "" {
			parsed, err := time.Parse(DateLayout, raw)
			if err != nil {
				return Filter{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", d.key, raw)
			}
			*d.dst = &parsed
		}
	}
	if f.Unassigned && f.AssignedToID != "" {
		return Filter{}, fmt.Errorf("unassigned and assignedToId are mutually exclusive")
	}
	return f, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setBool(v url.Values, key string, value bool) {
	if value {
		v.Set(key, "true")
	}
}

func setDate(v url.Values, key string, value *time.Time) {
	if value != nil {
		v.Set(key, value.Format(DateLayout))
	}
}
