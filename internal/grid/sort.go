package grid

import (
	"fmt"
	"slices"
	"strings"

	"invoicedesk/pkg/models"
)

// Direction is the sort order of a column.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Arrow returns the header indicator for the direction.
func (d Direction) Arrow() string {
	if d == Descending {
		return "▼"
	}
	return "▲"
}

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// SortSpec is a single-column sort. The zero value keeps collection order.
type SortSpec struct {
	Column    Column
	Direction Direction
}

// Active reports whether the spec sorts at all.
func (s SortSpec) Active() bool {
	return s.Column != ""
}

// Toggle returns the spec after the user asks to sort by col. Asking for the
// current column flips the direction; any other column starts ascending.
func (s SortSpec) Toggle(col Column) SortSpec {
	if s.Column == col {
		if s.Direction == Ascending {
			return SortSpec{Column: col, Direction: Descending}
		}
		return SortSpec{Column: col, Direction: Ascending}
	}
	return SortSpec{Column: col, Direction: Ascending}
}

func (s SortSpec) String() string {
	if !s.Active() {
		return "none"
	}
	return string(s.Column) + " " + s.Direction.String()
}

// Compare orders a and b according to the spec.
func (s SortSpec) Compare(a, b models.Invoice) int {
	if !s.Active() {
		return 0
	}
	cmp := s.Column.compare(a, b)
	if s.Direction == Descending {
		return -cmp
	}
	return cmp
}

// Apply stable-sorts invoices in place. Rows that compare equal keep their
// collection order in both directions.
func (s SortSpec) Apply(invoices []models.Invoice) {
	if !s.Active() {
		return
	}
	slices.SortStableFunc(invoices, s.Compare)
}
