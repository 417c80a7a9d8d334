package console_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"invoicedesk/internal/console"
	"invoicedesk/internal/gateway"
	"invoicedesk/internal/gateway/gatewaytest"
	"invoicedesk/internal/grid"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

type SessionSuite struct {
	suite.Suite
	server  *gatewaytest.Server
	session *console.Session
	ctx     context.Context
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.server = gatewaytest.NewServer(s.T(), models.Invoice{
		ID:        "seed-1",
		InvoiceNo: "INV-001",
		Customer:  "Globex",
		Amount:    decimal.RequireFromString("1200"),
		Date:      models.NewDate(2024, time.February, 1),
		DueDate:   models.NewDate(2024, time.March, 1),
		Notes:     "net 30",
		Status:    models.StatusUnpaid,
		CreatedAt: time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC),
	})

	gw, err := gateway.New(gateway.Config{BaseURL: s.server.URL}, gateway.WithLogger(zerolog.Nop()))
	s.Require().NoError(err)
	s.session = console.NewSession(gw, console.SessionConfig{PageSize: 5})
	s.Require().NoError(s.session.Board.Init(s.ctx))
}

func (s *SessionSuite) TestInitLoadsCollection() {
	s.True(s.session.Grid.Loaded())
	s.NoError(s.session.Grid.Err())
	s.Len(s.session.Grid.Invoices(), 1)
	s.Equal(1, s.server.Calls(gatewaytest.RouteList))
}

func (s *SessionSuite) TestCreateRoundTrip() {
	c := s.session.Coordinator
	c.OpenCreate()

	saved, err := c.Submit(s.ctx, models.FormValues{
		InvoiceNo: "INV-100",
		Customer:  "Acme",
		Amount:    "250.50",
		Date:      "2024-01-01",
		DueDate:   "2024-01-31",
		Status:    "UNPAID",
	})
	s.Require().NoError(err)
	s.NotEmpty(saved.ID)
	s.Equal(2, s.server.Calls(gatewaytest.RouteList), "a successful create refreshes the list")

	invoices := s.session.Grid.Invoices()
	s.Require().Len(invoices, 2)

	var created []models.Invoice
	for _, inv := range invoices {
		if inv.InvoiceNo == "INV-100" {
			created = append(created, inv)
		}
	}
	s.Require().Len(created, 1)
	s.Equal(saved.ID, created[0].ID)
	s.True(decimal.RequireFromString("250.50").Equal(created[0].Amount))
	s.Equal(models.StatusUnpaid, created[0].Status)
	s.Equal(console.ModeIdle, c.Selection().Mode())
}

func (s *SessionSuite) TestEditStatusChangesOnlyStatus() {
	before, ok := s.session.Grid.Lookup("seed-1")
	s.Require().True(ok)

	c := s.session.Coordinator
	edit := c.OpenEdit(before)
	values := edit.Draft
	values.Status = "PAID"
	_, err := c.Submit(s.ctx, values)
	s.Require().NoError(err)

	s.session.Grid.SetFilter(grid.TextFilter{On: grid.ColumnInvoiceNo, Query: "INV-001"})
	view := s.session.Grid.View()
	s.Require().Len(view.Rows, 1)
	row := view.Rows[0]
	s.Equal("seed-1", row.ID())
	s.Equal("Paid", row.StatusLabel)
	s.Equal(grid.BadgeSuccess, row.Badge)

	after := row.Invoice
	s.Equal(before.InvoiceNo, after.InvoiceNo)
	s.Equal(before.Customer, after.Customer)
	s.True(before.Amount.Equal(after.Amount))
	s.Equal(before.Date.String(), after.Date.String())
	s.Equal(before.DueDate.String(), after.DueDate.String())
	s.Equal(before.Notes, after.Notes)
	s.Equal(before.CreatedAt, after.CreatedAt)
}

func (s *SessionSuite) TestEditStatusKeepsDateTimes() {
	date := models.Date{Time: time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)}
	dueDate := models.Date{Time: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.FixedZone("", 3600))}
	s.server.Put(models.Invoice{
		ID:        "seed-2",
		InvoiceNo: "INV-002",
		Customer:  "Initech",
		Amount:    decimal.RequireFromString("75.25"),
		Date:      date,
		DueDate:   dueDate,
		Status:    models.StatusUnpaid,
	})
	s.Require().NoError(s.session.Board.Refresh(s.ctx))

	before, ok := s.session.Grid.Lookup("seed-2")
	s.Require().True(ok)

	c := s.session.Coordinator
	values := c.OpenEdit(before).Draft
	values.Status = "PAID"
	_, err := c.Submit(s.ctx, values)
	s.Require().NoError(err)

	var stored models.Invoice
	for _, inv := range s.server.Invoices() {
		if inv.ID == "seed-2" {
			stored = inv
		}
	}
	s.Equal(models.StatusPaid, stored.Status)
	s.True(date.Equal(stored.Date.Time), "date changed to %s", stored.Date)
	s.True(dueDate.Equal(stored.DueDate.Time), "due date changed to %s", stored.DueDate)
	s.Equal("INV-002", stored.InvoiceNo)
	s.Equal("Initech", stored.Customer)
	s.True(decimal.RequireFromString("75.25").Equal(stored.Amount))
}

func (s *SessionSuite) TestValidationFailureLeavesCollectionUnchanged() {
	before := s.session.Grid.Invoices()

	c := s.session.Coordinator
	c.OpenCreate()
	_, err := c.Submit(s.ctx, models.FormValues{
		InvoiceNo: "INV-200",
		Amount:    "10",
		Date:      "2024-01-01",
		DueDate:   "2024-01-02",
		Status:    "PAID",
	})
	s.True(invoice.IsValidation(err))
	s.Zero(s.server.Calls(gatewaytest.RouteCreate))
	s.Equal(before, s.session.Grid.Invoices())
	s.Len(s.server.Invoices(), 1)
}

func (s *SessionSuite) TestCreateFailureNotifiesAndKeepsCollection() {
	s.server.FailNext(gatewaytest.RouteCreate, http.StatusInternalServerError)
	s.session.Inbox.Drain()

	c := s.session.Coordinator
	c.OpenCreate()
	_, err := c.Submit(s.ctx, models.FormValues{
		InvoiceNo: "INV-300",
		Customer:  "Initech",
		Amount:    "10",
		Date:      "2024-01-01",
		DueDate:   "2024-01-02",
		Status:    "PAID",
	})
	s.True(invoice.IsNetwork(err))
	s.Len(s.session.Grid.Invoices(), 1)
	s.Equal(console.ModeCreate, c.Selection().Mode())

	notes := s.session.Inbox.Drain()
	s.Require().Len(notes, 1)
	s.Equal(console.LevelError, notes[0].Level)
}

func (s *SessionSuite) TestRefreshFailureKeepsDataAndNotifies() {
	s.session.Inbox.Drain()
	s.server.FailNext(gatewaytest.RouteList, http.StatusServiceUnavailable)

	err := s.session.Board.Refresh(s.ctx)
	s.True(invoice.IsNetwork(err))
	s.Error(s.session.Grid.Err())
	s.Len(s.session.Grid.Invoices(), 1)
	s.Len(s.session.Inbox.Drain(), 1)
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func TestBoard_InitFailureDegradesToEmpty(t *testing.T) {
	server := gatewaytest.NewServer(t)
	server.FailNext(gatewaytest.RouteList, http.StatusInternalServerError)

	gw, err := gateway.New(gateway.Config{BaseURL: server.URL}, gateway.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	session := console.NewSession(gw, console.SessionConfig{})

	err = session.Board.Init(context.Background())
	require.Error(t, err)
	assert.True(t, session.Grid.Loaded())
	assert.Error(t, session.Grid.Err())
	assert.True(t, session.Grid.View().Empty())

	notes := session.Inbox.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, "Could not load invoices", notes[0].Title)
}

// scriptedGateway answers each List call with the next scripted response,
// after waiting for that response's gate.
type scriptedGateway struct {
	gateway.Gateway

	mu    sync.Mutex
	calls int
	lists [][]models.Invoice
	gates []chan struct{}
}

func (g *scriptedGateway) List(ctx context.Context) ([]models.Invoice, error) {
	g.mu.Lock()
	i := g.calls
	g.calls++
	g.mu.Unlock()
	<-g.gates[i]
	return g.lists[i], nil
}

func TestBoard_SlowRefreshCannotRollBack(t *testing.T) {
	older := []models.Invoice{{ID: "a", Status: models.StatusUnpaid}}
	newer := []models.Invoice{{ID: "a", Status: models.StatusPaid}, {ID: "b", Status: models.StatusPaid}}
	gw := &scriptedGateway{
		lists: [][]models.Invoice{older, newer},
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
	}
	board := console.NewBoard(gw, grid.New(), nil)

	first := make(chan error, 1)
	go func() { first <- board.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.calls == 1
	}, 5*time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- board.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.calls == 2
	}, 5*time.Second, time.Millisecond)

	close(gw.gates[1])
	require.NoError(t, <-second)
	close(gw.gates[0])
	require.NoError(t, <-first)

	got := board.Grid().Invoices()
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusPaid, got[0].Status)
}
