// Package console coordinates the invoice dialogs with the grid: which
// invoice a dialog targets, how a submission reaches the gateway, and how
// the authoritative collection is refreshed afterwards.
package console

import (
	"slices"

	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// Mode identifies which dialog, if any, is open.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreate
	ModeEdit
	ModeView
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	case ModeView:
		return "view"
	}
	return "idle"
}

// Selection is the dialog state: exactly one of Idle, Editing or Viewing.
// Every transition issues a new token; a submission captures the token it
// started under and is discarded if the token has moved on.
type Selection interface {
	Token() uint64
	Mode() Mode
	selection()
}

// Idle means no dialog is open.
type Idle struct {
	token uint64
}

func (s Idle) Token() uint64 { return s.token }
func (s Idle) Mode() Mode    { return ModeIdle }
func (Idle) selection()      {}

// Editing is the create dialog (Invoice == nil) or the edit dialog for
// Invoice. Draft keeps the user's input across failed submissions.
type Editing struct {
	token uint64

	Invoice *models.Invoice
	Draft   models.FormValues
	Errors  invoice.FieldErrors

	// Staged holds files chosen in the create dialog. They are uploaded
	// once the server has assigned an id.
	Staged []invoice.Attachment

	Submitting bool
}

func (s Editing) Token() uint64 { return s.token }

func (s Editing) Mode() Mode {
	if s.Invoice == nil {
		return ModeCreate
	}
	return ModeEdit
}

func (Editing) selection() {}

// IsCreate reports whether the dialog creates a new invoice.
func (s Editing) IsCreate() bool {
	return s.Invoice == nil
}

// TargetID returns the id of the invoice being edited, or "" when creating.
func (s Editing) TargetID() string {
	if s.Invoice == nil {
		return ""
	}
	return s.Invoice.ID
}

// clone returns a copy that shares no mutable state with s.
func (s Editing) clone() Editing {
	if s.Invoice != nil {
		inv := *s.Invoice
		s.Invoice = &inv
	}
	if s.Errors != nil {
		errs := make(invoice.FieldErrors, len(s.Errors))
		for k, v := range s.Errors {
			errs[k] = v
		}
		s.Errors = errs
	}
	s.Staged = slices.Clone(s.Staged)
	return s
}

// Viewing is the read-only dialog for Invoice.
type Viewing struct {
	token uint64

	Invoice models.Invoice
}

func (s Viewing) Token() uint64 { return s.token }
func (s Viewing) Mode() Mode    { return ModeView }
func (Viewing) selection()      {}

// copySelection detaches a selection from coordinator-owned state.
func copySelection(s Selection) Selection {
	if e, ok := s.(Editing); ok {
		return e.clone()
	}
	return s
}
