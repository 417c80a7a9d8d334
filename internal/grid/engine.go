package grid

import (
	"invoicedesk/pkg/models"
)

// Row is a read-only projection of an invoice with its display fields. Rows
// are rebuilt on every derivation and never written back.
type Row struct {
	Invoice models.Invoice

	InvoiceNo   string
	Customer    string
	AmountText  string
	DateText    string
	DueDateText string
	StatusLabel string
	Badge       Badge
	CreatedText string
	UpdatedText string
}

// ID returns the id of the underlying invoice.
func (r Row) ID() string {
	return r.Invoice.ID
}

// Cell returns the display text of col.
func (r Row) Cell(col Column) string {
	switch col {
	case ColumnInvoiceNo:
		return r.InvoiceNo
	case ColumnCustomer:
		return r.Customer
	case ColumnAmount:
		return r.AmountText
	case ColumnDate:
		return r.DateText
	case ColumnDueDate:
		return r.DueDateText
	case ColumnStatus:
		return r.StatusLabel
	case ColumnCreatedAt:
		return r.CreatedText
	case ColumnUpdatedAt:
		return r.UpdatedText
	}
	return ""
}

// Query is the complete set of user controls over the view.
type Query struct {
	Sort    SortSpec
	Filters Filters
	Page    Pager
}

// View is the derived page of rows.
type View struct {
	Rows []Row

	// Page is the clamped page index actually shown.
	Page      int
	PageCount int
	PageSize  int

	// Filtered counts rows passing every filter; Total counts the whole
	// collection.
	Filtered int
	Total    int

	Sort    SortSpec
	Filters Filters
}

// Empty reports whether no row passed the filters.
func (v View) Empty() bool {
	return v.Filtered == 0
}

// HasPrev reports whether a previous page exists.
func (v View) HasPrev() bool {
	return v.Page > 0
}

// HasNext reports whether a next page exists.
func (v View) HasNext() bool {
	return v.Page+1 < v.PageCount
}

// Engine derives views. It holds no state besides the formatter.
type Engine struct {
	Format Formatter
}

// NewEngine returns an engine that renders amounts with format.
func NewEngine(format Formatter) Engine {
	return Engine{Format: format}
}

// Derive filters, stable-sorts and pages invoices according to q. It never
// modifies invoices. An out-of-range page index is clamped.
func (e Engine) Derive(invoices []models.Invoice, q Query) View {
	filtered := q.Filters.Apply(invoices)
	q.Sort.Apply(filtered)

	pager := q.Page
	if pager.Size <= 0 {
		pager.Size = DefaultPageSize
	}
	pager = pager.Clamp(len(filtered))
	start, end := pager.Window(len(filtered))

	rows := make([]Row, 0, end-start)
	for _, inv := range filtered[start:end] {
		rows = append(rows, e.Row(inv))
	}

	return View{
		Rows:      rows,
		Page:      pager.Index,
		PageCount: PageCount(len(filtered), pager.Size),
		PageSize:  pager.Size,
		Filtered:  len(filtered),
		Total:     len(invoices),
		Sort:      q.Sort,
		Filters:   q.Filters,
	}
}

// Row projects a single invoice.
func (e Engine) Row(inv models.Invoice) Row {
	return Row{
		Invoice:     inv,
		InvoiceNo:   inv.InvoiceNo,
		Customer:    inv.Customer,
		AmountText:  e.Format.Amount(inv.Amount),
		DateText:    e.Format.Date(inv.Date),
		DueDateText: e.Format.Date(inv.DueDate),
		StatusLabel: inv.Status.Label(),
		Badge:       BadgeFor(inv.Status),
		CreatedText: e.Format.Timestamp(inv.CreatedAt),
		UpdatedText: e.Format.Timestamp(inv.UpdatedAt),
	}
}
