package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoicedesk/internal/invoice"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// HTTPGateway implements Gateway over the invoice REST API.
type HTTPGateway struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	log       zerolog.Logger
}

// Option customizes an HTTPGateway.
type Option func(*HTTPGateway)

// WithHTTPClient replaces the default client. The client's own Timeout wins
// over Config.Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *HTTPGateway) {
		g.log = log
	}
}

// New creates an HTTPGateway for cfg.
func New(cfg Config, opts ...Option) (*HTTPGateway, error) {
	const op = "gateway.New"

	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &HTTPGateway{
		base:      base,
		client:    &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		log:       logger.WithComponent("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.log.Debug().
		Str("base_url", base.String()).
		Dur("timeout", timeout).
		Msg("Invoice gateway configured")

	return g, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("invoice API base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice API base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid invoice API base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid invoice API base URL %q: missing host", raw)
	}
	return u, nil
}

// BaseURL returns the resolved base URL.
func (g *HTTPGateway) BaseURL() string {
	return g.base.String()
}

// List implements Gateway.
func (g *HTTPGateway) List(ctx context.Context) ([]models.Invoice, error) {
	const op = "List"

	resp, body, err := g.do(ctx, http.MethodGet, g.endpoint("invoice"), nil, "")
	if err != nil {
		return nil, invoice.NewRequestError(op, 0, err, "")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, invoice.NewRequestError(op, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status), excerpt(body))
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return []models.Invoice{}, nil
	}

	var invoices []models.Invoice
	if err := json.Unmarshal(body, &invoices); err != nil {
		return nil, invoice.NewRequestError(op, resp.StatusCode, err, "malformed invoice list")
	}

	g.log.Debug().
		Int("count", len(invoices)).
		Msg("Fetched invoice list")

	return invoices, nil
}

// Create implements Gateway.
func (g *HTTPGateway) Create(ctx context.Context, fields models.Fields) (models.Invoice, error) {
	return g.mutate(ctx, "Create", http.MethodPost, g.endpoint("invoice"), http.StatusCreated, fields)
}

// Update implements Gateway.
func (g *HTTPGateway) Update(ctx context.Context, id string, fields models.Fields) (models.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return models.Invoice{}, invoice.NewRequestError("Update", 0, invoice.ErrMissingInvoiceID, "")
	}
	return g.mutate(ctx, "Update", http.MethodPatch, g.endpoint("invoice", id), http.StatusOK, fields)
}

func (g *HTTPGateway) mutate(ctx context.Context, op, method, endpoint string, want int, fields models.Fields) (models.Invoice, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return models.Invoice{}, invoice.NewRequestError(op, 0, err, "encode request")
	}

	resp, body, err := g.do(ctx, method, endpoint, bytes.NewReader(payload), "application/json")
	if err != nil {
		return models.Invoice{}, invoice.NewRequestError(op, 0, err, "")
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		rejection := decodeRejection(body)
		g.log.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Strs("fields", rejection.Fields.Fields()).
			Msg("Invoice rejected by server")
		return models.Invoice{}, rejection
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return models.Invoice{}, invoice.NewRequestError(op, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status), excerpt(body))
	case resp.StatusCode != want:
		// The server answered 2xx without confirming the change.
		return models.Invoice{}, invoice.NewServerRejection(
			fmt.Sprintf("expected status %d, got %d", want, resp.StatusCode), nil)
	}

	if rejection, ok := embeddedRejection(body); ok {
		return models.Invoice{}, rejection
	}

	var saved models.Invoice
	if err := json.Unmarshal(body, &saved); err != nil {
		return models.Invoice{}, invoice.NewRequestError(op, resp.StatusCode, err, "malformed invoice response")
	}
	if saved.ID == "" {
		return models.Invoice{}, invoice.NewServerRejection("response is missing the invoice id", nil)
	}

	g.log.Info().
		Str("op", op).
		Str("invoice_id", saved.ID).
		Str("invoice_no", saved.InvoiceNo).
		Msg("Invoice saved")

	return saved, nil
}

// UploadAttachment implements Gateway.
func (g *HTTPGateway) UploadAttachment(ctx context.Context, invoiceID string, file invoice.Attachment) (models.AttachmentRef, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, invoice.ErrMissingInvoiceID)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("invoiceId", invoiceID); err != nil {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := form.CreatePart(header)
	if err != nil {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, err)
	}
	if err := form.Close(); err != nil {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, err)
	}

	resp, body, err := g.do(ctx, http.MethodPost, g.endpoint("invoice", invoiceID, "upload"), &buf, form.FormDataContentType())
	if err != nil {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, 0, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return models.AttachmentRef{}, invoice.NewUploadError(invoiceID, file.Name, resp.StatusCode,
			fmt.Errorf("unexpected status %s: %s", resp.Status, excerpt(body)))
	}

	// The reference is informational; an unparseable body still confirms success.
	ref := models.AttachmentRef{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &ref); err != nil {
			g.log.Debug().Err(err).Str("invoice_id", invoiceID).Msg("Ignoring unparseable upload response")
			ref = models.AttachmentRef{}
		}
	}
	if ref.InvoiceID == "" {
		ref.InvoiceID = invoiceID
	}
	if ref.FileName == "" {
		ref.FileName = file.Name
	}
	if ref.Size == 0 {
		ref.Size = file.Size()
	}

	g.log.Info().
		Str("invoice_id", invoiceID).
		Str("file", file.Name).
		Int64("size", file.Size()).
		Msg("Attachment uploaded")

	return ref, nil
}

func (g *HTTPGateway) endpoint(elem ...string) string {
	return g.base.JoinPath(elem...).String()
}

// do performs a request and reads the (bounded) response body.
func (g *HTTPGateway) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error().
			Err(err).
			Str("method", method).
			Str("url", endpoint).
			Msg("Invoice API request failed")
		return nil, nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.log.Warn().Err(closeErr).Msg("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	g.log.Debug().
		Str("method", method).
		Str("url", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Invoice API request completed")

	return resp, data, nil
}

// rejectionBody covers the common error envelopes: {"message": "..."},
// {"message": ["..."]} and {"errors": {"field": "..."}}.
type rejectionBody struct {
	Message json.RawMessage   `json:"message"`
	Error   json.RawMessage   `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func decodeRejection(body []byte) *invoice.ValidationError {
	var rb rejectionBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return invoice.NewServerRejection(excerpt(body), nil)
	}
	message := rawMessage(rb.Message)
	if message == "" {
		message = rawMessage(rb.Error)
	}
	var fields invoice.FieldErrors
	if len(rb.Errors) > 0 {
		fields = invoice.FieldErrors(rb.Errors)
	}
	return invoice.NewServerRejection(message, fields)
}

// embeddedRejection detects a 2xx body that carries an error member instead
// of the saved invoice.
func embeddedRejection(body []byte) (*invoice.ValidationError, bool) {
	var probe struct {
		ID    string          `json:"id"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, false
	}
	if probe.ID != "" || rawMessage(probe.Error) == "" {
		return nil, false
	}
	return decodeRejection(body), true
}

// rawMessage flattens a string, list of strings or object into one message.
func rawMessage(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return strings.Join(list, "; ")
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(trimmed)
}

func excerpt(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
