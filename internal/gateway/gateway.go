// Package gateway is the boundary to the remote invoice API. It is the only
// package in the console that performs network I/O.
//
// Endpoints (relative to the configured base URL):
//   - GET    /invoice               list all invoices (200)
//   - POST   /invoice               create an invoice (201)
//   - PATCH  /invoice/{id}          replace the editable fields (200)
//   - POST   /invoice/{id}/upload   multipart upload: "file" part + "invoiceId" field (200/201)
//
// Error mapping:
//   - transport failures and unexpected statuses: *invoice.RequestError (invoice.ErrNetwork)
//   - 400/422 on create/update, or a 2xx that does not confirm the change:
//     server-side *invoice.ValidationError (invoice.ErrServerRejection)
//   - any upload failure: *invoice.UploadError (invoice.ErrUpload)
//
// Only List is safe to repeat. Create, Update and UploadAttachment are never
// retried by this package; a retry is always a user-initiated resubmission.
package gateway

import (
	"context"
	"time"

	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// Gateway defines the contract the console needs from the invoice API.
type Gateway interface {
	// List fetches the full current collection. Pagination is client-side,
	// so no paging parameters are sent.
	List(ctx context.Context) ([]models.Invoice, error)

	// Create submits a new invoice and returns it with the server-assigned
	// id and timestamps.
	Create(ctx context.Context, fields models.Fields) (models.Invoice, error)

	// Update replaces the editable fields of an existing invoice.
	Update(ctx context.Context, id string, fields models.Fields) (models.Invoice, error)

	// UploadAttachment transmits a file bound to an existing invoice.
	UploadAttachment(ctx context.Context, invoiceID string, file invoice.Attachment) (models.AttachmentRef, error)
}

// Config holds configuration for the HTTP gateway.
type Config struct {
	// BaseURL is the absolute http(s) URL the invoice endpoints live under.
	BaseURL string

	// Timeout bounds each request, including reading the response.
	// Default: 15 seconds.
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second
