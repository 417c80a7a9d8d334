package grid

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"invoicedesk/pkg/models"
)

// Filter is a predicate bound to one column. A view keeps at most one
// filter per column, and rows must satisfy all of them.
type Filter interface {
	Column() Column
	Match(inv models.Invoice) bool
	String() string
}

// StatusFilter keeps invoices whose status equals Status.
type StatusFilter struct {
	Status models.Status
}

func (f StatusFilter) Column() Column { return ColumnStatus }

func (f StatusFilter) Match(inv models.Invoice) bool {
	return inv.Status == f.Status
}

func (f StatusFilter) String() string {
	return "status = " + f.Status.Label()
}

// DateRangeFilter keeps invoices whose date column falls within [From, To]
// by calendar day. A zero bound is open.
type DateRangeFilter struct {
	On   Column
	From time.Time
	To   time.Time
}

// NewDateRangeFilter validates the column and bounds.
func NewDateRangeFilter(on Column, from, to time.Time) (DateRangeFilter, error) {
	if on.Kind() != KindTime {
		return DateRangeFilter{}, fmt.Errorf("column %q is not a date", on)
	}
	if !from.IsZero() && !to.IsZero() && day(to).Before(day(from)) {
		return DateRangeFilter{}, fmt.Errorf("date range ends (%s) before it starts (%s)",
			to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	return DateRangeFilter{On: on, From: from, To: to}, nil
}

func (f DateRangeFilter) Column() Column { return f.On }

func (f DateRangeFilter) Match(inv models.Invoice) bool {
	value := f.On.timeOf(inv)
	if value.IsZero() {
		return false
	}
	d := day(value)
	if !f.From.IsZero() && d.Before(day(f.From)) {
		return false
	}
	if !f.To.IsZero() && d.After(day(f.To)) {
		return false
	}
	return true
}

func (f DateRangeFilter) String() string {
	from, to := "…", "…"
	if !f.From.IsZero() {
		from = f.From.Format(models.DateLayout)
	}
	if !f.To.IsZero() {
		to = f.To.Format(models.DateLayout)
	}
	return fmt.Sprintf("%s %s to %s", f.On.Title(), from, to)
}

// TextFilter keeps invoices whose text column contains Query,
// case-insensitively. An empty query matches everything.
type TextFilter struct {
	On    Column
	Query string
}

func (f TextFilter) Column() Column { return f.On }

func (f TextFilter) Match(inv models.Invoice) bool {
	if f.Query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.On.text(inv)), strings.ToLower(f.Query))
}

func (f TextFilter) String() string {
	return fmt.Sprintf("%s contains %q", f.On.Title(), f.Query)
}

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Filters is an ordered set of filters, at most one per column. Methods
// return a new set and never modify the receiver.
type Filters []Filter

// With returns the set with f added, replacing any filter on the same column.
func (fs Filters) With(f Filter) Filters {
	out := fs.Without(f.Column())
	return append(out, f)
}

// Without returns the set with the filter on col removed.
func (fs Filters) Without(col Column) Filters {
	out := make(Filters, 0, len(fs))
	for _, f := range fs {
		if f.Column() != col {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the filter on col, if any.
func (fs Filters) Get(col Column) (Filter, bool) {
	i := slices.IndexFunc(fs, func(f Filter) bool { return f.Column() == col })
	if i < 0 {
		return nil, false
	}
	return fs[i], true
}

// Match reports whether inv satisfies every filter.
func (fs Filters) Match(inv models.Invoice) bool {
	for _, f := range fs {
		if !f.Match(inv) {
			return false
		}
	}
	return true
}

// Apply returns the invoices that satisfy every filter, in collection order.
// The result never aliases the input.
func (fs Filters) Apply(invoices []models.Invoice) []models.Invoice {
	out := make([]models.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if fs.Match(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func (fs Filters) String() string {
	if len(fs) == 0 {
		return "none"
	}
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}
