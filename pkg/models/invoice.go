package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment state of an invoice. The set is closed: only the
// three constants below are valid.
type Status string

const (
	StatusPaid    Status = "PAID"
	StatusUnpaid  Status = "UNPAID"
	StatusOverdue Status = "OVERDUE"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPaid, StatusUnpaid, StatusOverdue}

// ParseStatus converts user input into a Status. Matching is case-insensitive
// and ignores surrounding whitespace.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid invoice status %q: must be one of PAID, UNPAID, OVERDUE", s)
	}
	return status, nil
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusUnpaid, StatusOverdue:
		return true
	}
	return false
}

// Label returns the human-readable form shown in selectors and badges.
func (s Status) Label() string {
	switch s {
	case StatusPaid:
		return "Paid"
	case StatusUnpaid:
		return "Unpaid"
	case StatusOverdue:
		return "Overdue"
	}
	return string(s)
}

// UnmarshalJSON rejects any value outside the enumerated set.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invoice status: %w", err)
	}
	status := Status(raw)
	if !status.Valid() {
		return fmt.Errorf("invalid invoice status %q", raw)
	}
	*s = status
	return nil
}

// DateLayout is the calendar-date form used by the invoice dialogs.
const DateLayout = "2006-01-02"

// Date is a calendar date (or date-time) as exchanged with the invoice API.
// The API sends ISO-8601 date-times; the dialogs produce plain dates.
type Date struct {
	time.Time
}

// NewDate returns the calendar date y-m-d at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 date-time.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or an ISO-8601 date-time", s)
	}
	return Date{t}, nil
}

// String renders midnight-UTC values as a plain date and everything else as
// RFC3339. The zero Date renders as the empty string.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	u := d.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(DateLayout)
	}
	return d.Format(time.RFC3339)
}

// Day returns the calendar day of d in UTC, truncated to midnight.
func (d Date) Day() time.Time {
	u := d.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. null and "" decode to the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invoice date: %w", err)
	}
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Invoice is the canonical invoice record as returned by the invoice API.
type Invoice struct {
	// Server-assigned identity
	ID string `json:"id"`

	// User-editable fields
	InvoiceNo string          `json:"invoiceNo"`
	Date      Date            `json:"date"`
	DueDate   Date            `json:"dueDate"`
	Customer  string          `json:"customer"`
	Amount    decimal.Decimal `json:"amount"` // currency-denominated, never float
	Notes     string          `json:"notes,omitempty"`
	Status    Status          `json:"status"`

	// Server-assigned timestamps, read-only for the console
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// MarshalJSON emits amount as a JSON number.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{alias: alias(inv), Amount: json.Number(inv.Amount.String())})
}

// Fields returns the editable subset of the invoice.
func (inv Invoice) Fields() Fields {
	return Fields{
		InvoiceNo: inv.InvoiceNo,
		Customer:  inv.Customer,
		Amount:    inv.Amount,
		Date:      inv.Date,
		DueDate:   inv.DueDate,
		Status:    inv.Status,
		Notes:     inv.Notes,
	}
}

// Fields is the editable subset of an invoice, sent as the body of create and
// update requests. id, createdAt and updatedAt are server-owned and never sent.
type Fields struct {
	InvoiceNo string          `json:"invoiceNo"`
	Customer  string          `json:"customer"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	DueDate   Date            `json:"dueDate"`
	Status    Status          `json:"status"`
	Notes     string          `json:"notes"`
}

// MarshalJSON emits amount as a JSON number.
func (f Fields) MarshalJSON() ([]byte, error) {
	type alias Fields
	return json.Marshal(struct {
		alias
		Amount json.Number `json:"amount"`
	}{alias: alias(f), Amount: json.Number(f.Amount.String())})
}

// FormValues holds the raw text of the create/edit dialog inputs before
// validation. Field names follow the API's JSON names so validation errors
// can be keyed by them.
type FormValues struct {
	InvoiceNo string `json:"invoiceNo" validate:"required"`
	Customer  string `json:"customer" validate:"required"`
	Amount    string `json:"amount" validate:"required,amount"`
	Date      string `json:"date" validate:"required,calendardate"`
	DueDate   string `json:"dueDate" validate:"required,calendardate"`
	Status    string `json:"status" validate:"required,invoicestatus"`
	Notes     string `json:"notes"`
}

// FormValuesFrom prefills dialog inputs from an existing invoice. Dates keep
// their time and offset so an unchanged input submits the same instant.
func FormValuesFrom(inv Invoice) FormValues {
	return FormValues{
		InvoiceNo: inv.InvoiceNo,
		Customer:  inv.Customer,
		Amount:    inv.Amount.String(),
		Date:      inv.Date.String(),
		DueDate:   inv.DueDate.String(),
		Status:    string(inv.Status),
		Notes:     inv.Notes,
	}
}

// AttachmentRef is the server's acknowledgement of an uploaded file. The
// console only uses it to confirm success and to list uploads.
type AttachmentRef struct {
	ID        string    `json:"id,omitempty"`
	InvoiceID string    `json:"invoiceId,omitempty"`
	FileName  string    `json:"filename,omitempty"`
	URL       string    `json:"url,omitempty"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
