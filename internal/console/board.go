package console

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"invoicedesk/internal/gateway"
	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
)

// Refresher re-fetches the authoritative collection.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Board connects the grid to the gateway. It performs the initial fetch and
// every later refresh, tagging each list call with a sequence number so
// late responses cannot roll the grid back.
type Board struct {
	gateway gateway.Gateway
	grid    *grid.Grid
	notify  Notifier
	now     func() time.Time
	log     zerolog.Logger
}

// NewBoard returns a board for g fed by gw. A nil notifier discards
// notifications.
func NewBoard(gw gateway.Gateway, g *grid.Grid, notify Notifier) *Board {
	if notify == nil {
		notify = Notifiers()
	}
	return &Board{
		gateway: gw,
		grid:    g,
		notify:  notify,
		now:     time.Now,
		log:     logger.WithComponent("board"),
	}
}

// Grid returns the grid the board feeds.
func (b *Board) Grid() *grid.Grid {
	return b.grid
}

// Init performs the initial load. A failure leaves the grid empty with its
// error set.
func (b *Board) Init(ctx context.Context) error {
	b.log.Debug().Msg("Loading invoices")
	return b.Refresh(ctx)
}

// Refresh replaces the grid's collection with the current server list.
// The returned error is the list failure, if any; a response superseded by
// a newer one is not an error.
func (b *Board) Refresh(ctx context.Context) error {
	seq := b.grid.BeginRefresh()
	start := b.now()

	invoices, err := b.gateway.List(ctx)
	if err != nil {
		if b.grid.FailRefresh(seq, err) {
			b.notify.Notify(Notification{
				Level:   LevelError,
				Title:   "Could not load invoices",
				Message: err.Error(),
				Err:     err,
				At:      b.now(),
			})
		}
		return err
	}

	applied := b.grid.ApplyRefresh(seq, invoices)
	b.log.Debug().
		Uint64("seq", seq).
		Int("count", len(invoices)).
		Bool("applied", applied).
		Dur("duration", b.now().Sub(start)).
		Msg("Invoice refresh completed")
	return nil
}
