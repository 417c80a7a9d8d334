package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"invoicedesk/internal/gateway"
	"invoicedesk/internal/invoice"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

// DefaultUploadWorkers bounds concurrent attachment uploads.
const DefaultUploadWorkers = 4

// Coordinator owns the dialog selection and runs submissions against the
// gateway. At most one dialog is open at a time: opening a dialog replaces
// whatever was open before. Coordinator is safe for concurrent use; no lock
// is held across gateway calls.
type Coordinator struct {
	mu    sync.Mutex
	sel   Selection
	token uint64

	// pending holds uploads that failed, keyed by invoice id, until retried.
	pending map[string][]invoice.Attachment
	// uploaded records attachments confirmed during this session.
	uploaded map[string][]models.AttachmentRef

	gateway   gateway.Gateway
	refresher Refresher
	notify    Notifier
	workers   int
	now       func() time.Time
	log       zerolog.Logger
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithUploadWorkers bounds concurrent uploads after a create or retry.
func WithUploadWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithClock replaces the notification clock.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator returns an idle coordinator. refresher is asked to reload
// the collection after every successful submission.
func NewCoordinator(gw gateway.Gateway, refresher Refresher, notify Notifier, opts ...CoordinatorOption) *Coordinator {
	if notify == nil {
		notify = Notifiers()
	}
	c := &Coordinator{
		sel:       Idle{},
		pending:   make(map[string][]invoice.Attachment),
		uploaded:  make(map[string][]models.AttachmentRef),
		gateway:   gw,
		refresher: refresher,
		notify:    notify,
		workers:   DefaultUploadWorkers,
		now:       time.Now,
		log:       logger.WithComponent("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Selection returns a copy of the current selection.
func (c *Coordinator) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySelection(c.sel)
}

// transitionLocked replaces the selection under a fresh token.
func (c *Coordinator) transitionLocked(next func(token uint64) Selection) Selection {
	from := c.sel.Mode()
	c.token++
	c.sel = next(c.token)
	c.log.Debug().
		Stringer("from", from).
		Stringer("to", c.sel.Mode()).
		Uint64("token", c.token).
		Msg("Selection changed")
	return copySelection(c.sel)
}

// OpenCreate opens an empty create dialog, closing any open dialog.
func (c *Coordinator) OpenCreate() Editing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(func(token uint64) Selection {
		return Editing{token: token}
	}).(Editing)
}

// OpenEdit opens the edit dialog for a copy of inv, prefilled with its
// values, closing any open dialog.
func (c *Coordinator) OpenEdit(inv models.Invoice) Editing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(func(token uint64) Selection {
		target := inv
		return Editing{token: token, Invoice: &target, Draft: models.FormValuesFrom(inv)}
	}).(Editing)
}

// OpenView opens the view dialog for a copy of inv, closing any open dialog.
func (c *Coordinator) OpenView(inv models.Invoice) Viewing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(func(token uint64) Selection {
		return Viewing{token: token, Invoice: inv}
	}).(Viewing)
}

// Dismiss closes whatever dialog is open. A submission still in flight
// completes on the server but its result is discarded.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sel.Mode() == ModeIdle {
		return
	}
	c.transitionLocked(func(token uint64) Selection { return Idle{token: token} })
}

// UpdateDraft stores the dialog's current input without validating it.
func (c *Coordinator) UpdateDraft(values models.FormValues) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	editing, ok := c.sel.(Editing)
	if !ok {
		return invoice.ErrNoOpenDialog
	}
	editing.Draft = values
	c.sel = editing
	return nil
}

// Attach adds a file to the open dialog. In the create dialog the file is
// staged and uploaded after the invoice is created; staged is true and no
// request is made. In the edit and view dialogs it is uploaded immediately.
func (c *Coordinator) Attach(ctx context.Context, file invoice.Attachment) (ref models.AttachmentRef, staged bool, err error) {
	c.mu.Lock()
	var invoiceID string
	switch sel := c.sel.(type) {
	case Editing:
		if sel.IsCreate() {
			sel.Staged = append(sel.Staged, file)
			c.sel = sel
			c.mu.Unlock()
			c.log.Debug().
				Str("file", file.Name).
				Int("staged", len(sel.Staged)).
				Msg("Attachment staged until invoice is created")
			return models.AttachmentRef{}, true, nil
		}
		invoiceID = sel.Invoice.ID
	case Viewing:
		invoiceID = sel.Invoice.ID
	default:
		c.mu.Unlock()
		return models.AttachmentRef{}, false, invoice.ErrNoOpenDialog
	}
	c.mu.Unlock()

	refs, errs := c.uploadAll(ctx, invoiceID, []invoice.Attachment{file})
	if errs[0] != nil {
		return models.AttachmentRef{}, false, errs[0]
	}
	c.notify.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Attachment uploaded",
		Message: fmt.Sprintf("%s (%s)", file.Name, file.HumanSize()),
		At:      c.now(),
	})
	return refs[0], false, nil
}

// Unstage removes the staged file at index i from the create dialog.
func (c *Coordinator) Unstage(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	editing, ok := c.sel.(Editing)
	if !ok || !editing.IsCreate() {
		return invoice.ErrNoOpenDialog
	}
	if i < 0 || i >= len(editing.Staged) {
		return fmt.Errorf("no staged attachment at index %d", i)
	}
	staged := make([]invoice.Attachment, 0, len(editing.Staged)-1)
	staged = append(staged, editing.Staged[:i]...)
	staged = append(staged, editing.Staged[i+1:]...)
	editing.Staged = staged
	c.sel = editing
	return nil
}

// Submit validates values and, if they pass, creates or updates the invoice
// targeted by the open dialog.
//
// Local validation failures are stored on the dialog and returned as a
// *invoice.ValidationError without contacting the gateway. Gateway failures
// are notified and returned; the dialog stays open with its draft intact.
// On success the dialog closes, the collection is refreshed, and a success
// notification is sent. Staged attachments are then uploaded; their
// failures are returned joined as *invoice.UploadError values alongside the
// saved invoice and kept for RetryUploads.
//
// If the dialog is dismissed or replaced while the request is in flight,
// the result is discarded and ErrSubmissionSuperseded is returned.
func (c *Coordinator) Submit(ctx context.Context, values models.FormValues) (models.Invoice, error) {
	c.mu.Lock()
	editing, ok := c.sel.(Editing)
	if !ok {
		c.mu.Unlock()
		return models.Invoice{}, invoice.ErrNoOpenDialog
	}
	if editing.Submitting {
		c.mu.Unlock()
		return models.Invoice{}, invoice.ErrSubmissionInFlight
	}

	editing.Draft = values
	fields, fieldErrs := invoice.Validate(values)
	if fieldErrs != nil {
		editing.Errors = fieldErrs
		c.sel = editing
		c.mu.Unlock()
		c.log.Debug().
			Strs("fields", fieldErrs.Fields()).
			Msg("Submission failed local validation")
		return models.Invoice{}, fieldErrs.Err()
	}

	editing.Errors = nil
	editing.Submitting = true
	c.sel = editing
	token := editing.token
	target := editing.TargetID()
	create := editing.IsCreate()
	staged := editing.Staged
	c.mu.Unlock()

	if invoice.DueBeforeIssue(fields) {
		c.notify.Notify(Notification{
			Level:   LevelWarning,
			Title:   "Due date precedes invoice date",
			Message: fmt.Sprintf("%s is due %s, before its date %s", fields.InvoiceNo, fields.DueDate, fields.Date),
			At:      c.now(),
		})
	}

	var (
		saved models.Invoice
		err   error
	)
	if create {
		saved, err = c.gateway.Create(ctx, fields)
	} else {
		saved, err = c.gateway.Update(ctx, target, fields)
	}

	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		c.log.Warn().
			Err(err).
			Str("invoice_id", saved.ID).
			Uint64("token", token).
			Msg("Discarding result of superseded submission")
		return models.Invoice{}, invoice.ErrSubmissionSuperseded
	}

	if err != nil {
		editing = c.sel.(Editing)
		editing.Submitting = false
		if serverFields := invoice.FieldErrorsOf(err); len(serverFields) > 0 {
			editing.Errors = serverFields
		}
		c.sel = editing
		c.mu.Unlock()

		title := "Could not update invoice"
		if create {
			title = "Could not create invoice"
		}
		c.notify.Notify(Notification{
			Level:   LevelError,
			Title:   title,
			Message: err.Error(),
			Err:     err,
			At:      c.now(),
		})
		return models.Invoice{}, err
	}

	c.transitionLocked(func(token uint64) Selection { return Idle{token: token} })
	c.mu.Unlock()

	if c.refresher != nil {
		// A failed refresh is reported by the refresher; the save stands.
		if rerr := c.refresher.Refresh(ctx); rerr != nil {
			c.log.Warn().Err(rerr).Msg("Refresh after submission failed")
		}
	}

	title, verb := "Invoice updated", "updated"
	if create {
		title, verb = "Invoice created", "created"
	}
	c.notify.Notify(Notification{
		Level:   LevelSuccess,
		Title:   title,
		Message: fmt.Sprintf("Invoice %s was %s successfully", saved.InvoiceNo, verb),
		At:      c.now(),
	})

	if len(staged) == 0 {
		return saved, nil
	}
	_, errs := c.uploadAll(ctx, saved.ID, staged)
	return saved, errors.Join(errs...)
}

// PendingUploads returns the names of failed uploads per invoice id.
func (c *Coordinator) PendingUploads() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]string, len(c.pending))
	for id, files := range c.pending {
		for _, f := range files {
			out[id] = append(out[id], f.Name)
		}
	}
	return out
}

// RetryUploads retries every failed upload. Uploads that fail again stay
// pending. The invoices themselves are never resubmitted.
func (c *Coordinator) RetryUploads(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string][]invoice.Attachment)
	c.mu.Unlock()

	var all []error
	for id, files := range pending {
		_, errs := c.uploadAll(ctx, id, files)
		all = append(all, errs...)
	}
	return errors.Join(all...)
}

// Attachments returns the attachments uploaded to invoiceID during this
// session.
func (c *Coordinator) Attachments(invoiceID string) []models.AttachmentRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs := c.uploaded[invoiceID]
	out := make([]models.AttachmentRef, len(refs))
	copy(out, refs)
	return out
}

// uploadAll uploads files to invoiceID with bounded concurrency. Results are
// indexed like files. Every failure is notified and queued for retry.
func (c *Coordinator) uploadAll(ctx context.Context, invoiceID string, files []invoice.Attachment) ([]models.AttachmentRef, []error) {
	refs := make([]models.AttachmentRef, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, file := range files {
		g.Go(func() error {
			refs[i], errs[i] = c.gateway.UploadAttachment(ctx, invoiceID, file)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	for i, file := range files {
		if errs[i] != nil {
			c.pending[invoiceID] = append(c.pending[invoiceID], file)
			continue
		}
		c.uploaded[invoiceID] = append(c.uploaded[invoiceID], refs[i])
	}
	c.mu.Unlock()

	for i, file := range files {
		if errs[i] == nil {
			c.log.Info().
				Str("invoice_id", invoiceID).
				Str("file", file.Name).
				Msg("Attachment uploaded")
			continue
		}
		c.log.Error().
			Err(errs[i]).
			Str("invoice_id", invoiceID).
			Str("file", file.Name).
			Msg("Attachment upload failed")
		c.notify.Notify(Notification{
			Level:   LevelError,
			Title:   "Upload failed",
			Message: fmt.Sprintf("%s could not be uploaded; retry without resubmitting the invoice", file.Name),
			Err:     errs[i],
			At:      c.now(),
		})
	}

	return refs, errs
}
