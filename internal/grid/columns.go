// Package grid derives the sorted, filtered and paginated view of the
// invoice collection. Derivation is pure: the same collection and Query
// always produce the same View. Grid adds the owned, sequence-numbered
// authoritative collection on top.
package grid

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"invoicedesk/pkg/models"
)

// Column names a sortable or filterable invoice attribute. Values match the
// invoice JSON field names.
type Column string

const (
	ColumnInvoiceNo Column = "invoiceNo"
	ColumnCustomer  Column = "customer"
	ColumnAmount    Column = "amount"
	ColumnDate      Column = "date"
	ColumnDueDate   Column = "dueDate"
	ColumnStatus    Column = "status"
	ColumnCreatedAt Column = "createdAt"
	ColumnUpdatedAt Column = "updatedAt"
)

// Columns lists every column in display order.
var Columns = []Column{
	ColumnInvoiceNo,
	ColumnCustomer,
	ColumnAmount,
	ColumnDate,
	ColumnDueDate,
	ColumnStatus,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

// Kind is the semantic type a column is ordered by.
type Kind int

const (
	KindText Kind = iota
	KindDecimal
	KindTime
)

// ParseColumn resolves a column from its JSON name. Matching is
// case-insensitive and accepts snake_case and kebab-case spellings
// ("invoice_no", "due-date").
func ParseColumn(s string) (Column, error) {
	key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, col := range Columns {
		if strings.ToLower(string(col)) == key {
			return col, nil
		}
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// Kind returns the semantic type of the column.
func (c Column) Kind() Kind {
	switch c {
	case ColumnAmount:
		return KindDecimal
	case ColumnDate, ColumnDueDate, ColumnCreatedAt, ColumnUpdatedAt:
		return KindTime
	}
	return KindText
}

// Title returns the column header.
func (c Column) Title() string {
	switch c {
	case ColumnInvoiceNo:
		return "Invoice #"
	case ColumnCustomer:
		return "Customer"
	case ColumnAmount:
		return "Amount"
	case ColumnDate:
		return "Date"
	case ColumnDueDate:
		return "Due Date"
	case ColumnStatus:
		return "Status"
	case ColumnCreatedAt:
		return "Created"
	case ColumnUpdatedAt:
		return "Updated"
	}
	return string(c)
}

// Valid reports whether c is a known column.
func (c Column) Valid() bool {
	return slices.Contains(Columns, c)
}

// text returns the value of a text column.
func (c Column) text(inv models.Invoice) string {
	switch c {
	case ColumnInvoiceNo:
		return inv.InvoiceNo
	case ColumnCustomer:
		return inv.Customer
	case ColumnStatus:
		return string(inv.Status)
	}
	return ""
}

// timeOf returns the value of a time column.
func (c Column) timeOf(inv models.Invoice) time.Time {
	switch c {
	case ColumnDate:
		return inv.Date.Time
	case ColumnDueDate:
		return inv.DueDate.Time
	case ColumnCreatedAt:
		return inv.CreatedAt
	case ColumnUpdatedAt:
		return inv.UpdatedAt
	}
	return time.Time{}
}

// compare orders a and b by the column's semantic type: lexicographic for
// text, numeric for amount and chronological for dates. Zero times sort
// before every other time.
func (c Column) compare(a, b models.Invoice) int {
	switch c.Kind() {
	case KindDecimal:
		return a.Amount.Cmp(b.Amount)
	case KindTime:
		return c.timeOf(a).Compare(c.timeOf(b))
	}
	return strings.Compare(c.text(a), c.text(b))
}
