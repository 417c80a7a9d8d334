package console

import (
	"invoicedesk/internal/gateway"
	"invoicedesk/internal/grid"
)

// SessionConfig tunes a Session. Zero values select defaults.
type SessionConfig struct {
	PageSize      int
	Formatter     *grid.Formatter
	UploadWorkers int
	InboxSize     int

	// Notifier receives every notification in addition to the session
	// inbox and the log.
	Notifier Notifier
}

// Session wires a grid, board and coordinator around one gateway.
type Session struct {
	Gateway     gateway.Gateway
	Grid        *grid.Grid
	Board       *Board
	Coordinator *Coordinator
	Inbox       *Inbox
}

// NewSession builds a ready-to-use session. Nothing is fetched until
// Board.Init is called.
func NewSession(gw gateway.Gateway, cfg SessionConfig) *Session {
	gridOpts := []grid.Option{grid.WithPageSize(cfg.PageSize)}
	if cfg.Formatter != nil {
		gridOpts = append(gridOpts, grid.WithFormatter(*cfg.Formatter))
	}
	g := grid.New(gridOpts...)

	inbox := NewInbox(cfg.InboxSize)
	notify := Notifiers(inbox, NewLogNotifier(), cfg.Notifier)

	board := NewBoard(gw, g, notify)
	coordinator := NewCoordinator(gw, board, notify, WithUploadWorkers(cfg.UploadWorkers))

	return &Session{
		Gateway:     gw,
		Grid:        g,
		Board:       board,
		Coordinator: coordinator,
		Inbox:       inbox,
	}
}
