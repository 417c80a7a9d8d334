package invoice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common invoice console errors
var (
	// ErrValidation is matched by every *ValidationError, whether it was
	// produced locally before submission or returned by the server.
	ErrValidation = errors.New("invoice validation failed")

	// ErrServerRejection is matched by validation errors the server reported
	// for a request it was expected to accept.
	ErrServerRejection = errors.New("invoice rejected by server")

	// ErrNetwork is matched by every *RequestError: transport failures and
	// unexpected responses from list, create and update.
	ErrNetwork = errors.New("invoice API request failed")

	// ErrUpload is matched by every *UploadError.
	ErrUpload = errors.New("attachment upload failed")

	// ErrMissingInvoiceID is returned when an upload is attempted for an
	// invoice the server has not assigned an id to yet.
	ErrMissingInvoiceID = errors.New("attachment requires a saved invoice")

	// ErrAttachmentTooLarge is returned when a file exceeds MaxAttachmentBytes.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size limit")

	// ErrUnsupportedAttachment is returned for files that are not PDF, PNG or JPEG.
	ErrUnsupportedAttachment = errors.New("unsupported attachment format")

	// ErrEmptyAttachment is returned for zero-byte files.
	ErrEmptyAttachment = errors.New("attachment is empty")

	// ErrNoOpenDialog is returned when an operation needs an open dialog and
	// the selection is idle (or in the wrong mode).
	ErrNoOpenDialog = errors.New("no invoice dialog is open")

	// ErrSubmissionInFlight is returned when a dialog is submitted again
	// before its previous submission has completed.
	ErrSubmissionInFlight = errors.New("invoice submission already in progress")

	// ErrSubmissionSuperseded is returned when the dialog that started a
	// submission was dismissed or replaced before the response arrived. The
	// response is discarded.
	ErrSubmissionSuperseded = errors.New("invoice dialog changed before submission completed")
)

// Source identifies where a validation error was detected.
type Source int

const (
	// SourceLocal marks errors found by Validate before any request is made.
	SourceLocal Source = iota
	// SourceServer marks errors reported by the invoice API.
	SourceServer
)

func (s Source) String() string {
	if s == SourceServer {
		return "server"
	}
	return "local"
}

// FieldErrors maps an input's JSON field name to a human-readable message.
type FieldErrors map[string]string

// Fields returns the names of the failing fields in sorted order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err returns a local *ValidationError for fe, or nil when fe is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe, Source: SourceLocal}
}

// ValidationError reports per-field problems with invoice input.
type ValidationError struct {
	// Fields maps JSON field names to messages. It may be empty for server
	// rejections that only carry a general message.
	Fields FieldErrors

	// Source tells whether the console or the server found the problem.
	Source Source

	// Message is a general message, typically from the server.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	for _, name := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	if e.Message != "" {
		parts = append([]string{e.Message}, parts...)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invoice validation failed (%s)", e.Source)
	}
	return fmt.Sprintf("invoice validation failed (%s): %s", e.Source, strings.Join(parts, "; "))
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return target == ErrServerRejection && e.Source == SourceServer
}

// NewServerRejection creates a server-side ValidationError.
func NewServerRejection(message string, fields FieldErrors) *ValidationError {
	return &ValidationError{Fields: fields, Source: SourceServer, Message: message}
}

// RequestError wraps a failed list, create or update call.
type RequestError struct {
	// Op is the gateway operation that failed (e.g., "List", "Create").
	Op string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Err is the underlying error.
	Err error

	// Details provides additional context, such as a response body excerpt.
	Details string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Details != "":
		return fmt.Sprintf("invoice: %s failed (status %d): %s: %v", e.Op, e.StatusCode, e.Details, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("invoice: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	case e.Details != "":
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *RequestError) Is(target error) bool {
	return target == ErrNetwork
}

// NewRequestError creates a new RequestError for the given operation.
func NewRequestError(op string, statusCode int, err error, details string) *RequestError {
	return &RequestError{
		Op:         op,
		StatusCode: statusCode,
		Err:        err,
		Details:    details,
	}
}

// UploadError wraps a failed attachment upload. It is deliberately distinct
// from RequestError so callers can retry only the upload.
type UploadError struct {
	InvoiceID  string
	FileName   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("invoice: upload of %q to invoice %q failed (status %d): %v", e.FileName, e.InvoiceID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("invoice: upload of %q to invoice %q failed: %v", e.FileName, e.InvoiceID, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *UploadError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

// NewUploadError creates a new UploadError.
func NewUploadError(invoiceID, fileName string, statusCode int, err error) *UploadError {
	return &UploadError{
		InvoiceID:  invoiceID,
		FileName:   fileName,
		StatusCode: statusCode,
		Err:        err,
	}
}

// FieldErrorsOf extracts per-field messages from err, if it is a ValidationError.
func FieldErrorsOf(err error) FieldErrors {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// IsValidation reports whether err is a local or server-side validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetwork reports whether err is a failed list, create or update call.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsUpload reports whether err is a failed attachment upload.
func IsUpload(err error) bool {
	return errors.Is(err, ErrUpload)
}
