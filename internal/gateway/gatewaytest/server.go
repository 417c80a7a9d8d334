// Package gatewaytest provides an in-memory invoice API for tests. It speaks
// the same REST dialect the gateway expects and records uploads.
package gatewaytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicedesk/pkg/models"
)

// Server is a fake invoice backend backed by an httptest.Server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	invoices []models.Invoice
	uploads  map[string][]models.AttachmentRef
	failures map[string][]int
	calls    map[string]int
	now      func() time.Time
}

// NewServer starts a fake backend seeded with invoices. It is closed when
// the test finishes.
func NewServer(t testing.TB, seed ...models.Invoice) *Server {
	t.Helper()

	s := &Server{
		invoices: slices.Clone(seed),
		uploads:  make(map[string][]models.AttachmentRef),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}

	r := chi.NewRouter()
	r.Get("/invoice", s.list)
	r.Post("/invoice", s.create)
	r.Patch("/invoice/{id}", s.update)
	r.Post("/invoice/{id}/upload", s.upload)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Route keys accepted by FailNext and Calls.
const (
	RouteList   = "GET /invoice"
	RouteCreate = "POST /invoice"
	RouteUpdate = "PATCH /invoice/{id}"
	RouteUpload = "POST /invoice/{id}/upload"
)

// FailNext makes the next call to route answer with status instead of being
// handled. Calls queue up in order.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], status)
}

// Calls returns how many requests route has received, including failed ones.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Invoices returns a copy of the stored collection.
func (s *Server) Invoices() []models.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.invoices)
}

// Uploads returns the attachments recorded for invoiceID.
func (s *Server) Uploads(invoiceID string) []models.AttachmentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.uploads[invoiceID])
}

// Put inserts or replaces an invoice directly, bypassing the API.
func (s *Server) Put(inv models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(inv.ID); i >= 0 {
		s.invoices[i] = inv
		return
	}
	s.invoices = append(s.invoices, inv)
}

// enter records a call and reports a queued failure status, if any.
func (s *Server) enter(route string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
	queue := s.failures[route]
	if len(queue) == 0 {
		return 0, false
	}
	s.failures[route] = queue[1:]
	return queue[0], true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.enter(RouteList); fail {
		writeJSON(w, status, map[string]any{"statusCode": status, "message": http.StatusText(status)})
		return
	}
	writeJSON(w, http.StatusOK, s.Invoices())
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.enter(RouteCreate); fail {
		writeJSON(w, status, map[string]any{"statusCode": status, "message": http.StatusText(status)})
		return
	}
	fields, problems := decodeFields(r.Body)
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": problems, "error": "Bad Request"})
		return
	}

	now := s.now()
	inv := models.Invoice{
		ID:        uuid.NewString(),
		InvoiceNo: fields.InvoiceNo,
		Date:      fields.Date,
		DueDate:   fields.DueDate,
		Customer:  fields.Customer,
		Amount:    fields.Amount,
		Notes:     fields.Notes,
		Status:    fields.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.invoices = append(s.invoices, inv)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.enter(RouteUpdate); fail {
		writeJSON(w, status, map[string]any{"statusCode": status, "message": http.StatusText(status)})
		return
	}
	id := chi.URLParam(r, "id")
	fields, problems := decodeFields(r.Body)
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": problems, "error": "Bad Request"})
		return
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "Invoice not found"})
		return
	}
	inv := s.invoices[i]
	inv.InvoiceNo = fields.InvoiceNo
	inv.Date = fields.Date
	inv.DueDate = fields.DueDate
	inv.Customer = fields.Customer
	inv.Amount = fields.Amount
	inv.Notes = fields.Notes
	inv.Status = fields.Status
	inv.UpdatedAt = s.now()
	s.invoices[i] = inv
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if status, fail := s.enter(RouteUpload); fail {
		writeJSON(w, status, map[string]any{"statusCode": status, "message": http.StatusText(status)})
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	found := s.indexLocked(id) >= 0
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "Invoice not found"})
		return
	}

	if err := r.ParseMultipartForm(4 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": err.Error()})
		return
	}
	if got := r.FormValue("invoiceId"); got != id {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": "invoiceId does not match path"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": "file part is required"})
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	ref := models.AttachmentRef{
		ID:        uuid.NewString(),
		InvoiceID: id,
		FileName:  header.Filename,
		Size:      size,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.uploads[id] = append(s.uploads[id], ref)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, ref)
}

func (s *Server) indexLocked(id string) int {
	return slices.IndexFunc(s.invoices, func(inv models.Invoice) bool { return inv.ID == id })
}

// wireFields mirrors the request body; amount must be a JSON number.
type wireFields struct {
	InvoiceNo string          `json:"invoiceNo"`
	Customer  string          `json:"customer"`
	Amount    json.RawMessage `json:"amount"`
	Date      models.Date     `json:"date"`
	DueDate   models.Date     `json:"dueDate"`
	Status    string          `json:"status"`
	Notes     string          `json:"notes"`
}

func decodeFields(body io.Reader) (models.Fields, []string) {
	var wf wireFields
	if err := json.NewDecoder(body).Decode(&wf); err != nil {
		return models.Fields{}, []string{"malformed body: " + err.Error()}
	}

	var problems []string
	if strings.TrimSpace(wf.InvoiceNo) == "" {
		problems = append(problems, "invoiceNo should not be empty")
	}
	if strings.TrimSpace(wf.Customer) == "" {
		problems = append(problems, "customer should not be empty")
	}
	amount, err := decimal.NewFromString(string(wf.Amount))
	if err != nil || strings.HasPrefix(strings.TrimSpace(string(wf.Amount)), `"`) {
		problems = append(problems, "amount must be a number")
	}
	if wf.Date.IsZero() {
		problems = append(problems, "date must be a valid ISO 8601 date string")
	}
	if wf.DueDate.IsZero() {
		problems = append(problems, "dueDate must be a valid ISO 8601 date string")
	}
	status := models.Status(wf.Status)
	if !status.Valid() {
		problems = append(problems, "status must be one of the following values: PAID, UNPAID, OVERDUE")
	}
	if len(problems) > 0 {
		return models.Fields{}, problems
	}

	return models.Fields{
		InvoiceNo: wf.InvoiceNo,
		Customer:  wf.Customer,
		Amount:    amount,
		Date:      wf.Date,
		DueDate:   wf.DueDate,
		Status:    status,
		Notes:     wf.Notes,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
