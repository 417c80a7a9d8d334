package grid

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

// Grid owns the authoritative invoice collection and the user's query. The
// collection is only ever replaced as a whole by ApplyRefresh; readers get
// copies. Refreshes are tagged with sequence numbers so a slow response can
// never overwrite a newer one. Grid is safe for concurrent use.
type Grid struct {
	mu       sync.RWMutex
	invoices []models.Invoice
	query    Query
	engine   Engine

	issued  uint64
	applied uint64
	settled uint64
	loaded  bool
	err     error

	log zerolog.Logger
}

// Option customizes a Grid.
type Option func(*Grid)

// WithPageSize sets the number of rows per page.
func WithPageSize(size int) Option {
	return func(g *Grid) {
		g.query.Page = NewPager(size)
	}
}

// WithFormatter sets the formatter used for row display fields.
func WithFormatter(f Formatter) Option {
	return func(g *Grid) {
		g.engine = NewEngine(f)
	}
}

// New returns an empty, not yet loaded grid.
func New(opts ...Option) *Grid {
	g := &Grid{
		invoices: []models.Invoice{},
		query:    Query{Page: NewPager(DefaultPageSize)},
		engine:   NewEngine(DefaultFormatter()),
		log:      logger.WithComponent("grid"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BeginRefresh issues the sequence number for a new list request.
func (g *Grid) BeginRefresh() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// ApplyRefresh replaces the collection with the result of request seq. It
// returns false, and changes nothing, when a newer (or the same) response
// has already been applied.
func (g *Grid) ApplyRefresh(seq uint64, invoices []models.Invoice) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seq == 0 || seq > g.issued || seq <= g.applied {
		g.log.Debug().
			Uint64("seq", seq).
			Uint64("applied", g.applied).
			Msg("Dropping stale invoice list")
		return false
	}

	g.invoices = slices.Clone(invoices)
	if g.invoices == nil {
		g.invoices = []models.Invoice{}
	}
	g.applied = seq
	g.settled = max(g.settled, seq)
	g.loaded = true
	g.err = nil
	g.query.Page = g.query.Page.Clamp(len(g.query.Filters.Apply(g.invoices)))

	g.log.Debug().
		Uint64("seq", seq).
		Int("count", len(g.invoices)).
		Msg("Applied invoice list")
	return true
}

// FailRefresh records the failure of request seq. The collection is left
// as it was, which is empty if nothing has loaded yet. A failure older than
// the applied response is ignored.
func (g *Grid) FailRefresh(seq uint64, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seq == 0 || seq > g.issued || seq <= g.applied {
		return false
	}
	g.settled = max(g.settled, seq)
	g.loaded = true
	g.err = err

	g.log.Warn().
		Err(err).
		Uint64("seq", seq).
		Msg("Invoice list refresh failed")
	return true
}

// Err returns the error of the most recent failed refresh, cleared by the
// next successful one.
func (g *Grid) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Loaded reports whether any refresh has completed, successfully or not.
func (g *Grid) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loaded
}

// Pending reports whether the latest issued refresh has not completed.
func (g *Grid) Pending() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.issued > g.settled
}

// Query returns the current query.
func (g *Grid) Query() Query {
	g.mu.RLock()
	defer g.mu.RUnlock()
	q := g.query
	q.Filters = slices.Clone(q.Filters)
	return q
}

// SortBy toggles sorting on col and returns the new spec.
func (g *Grid) SortBy(col Column) SortSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Sort = g.query.Sort.Toggle(col)
	return g.query.Sort
}

// SetSort replaces the sort spec.
func (g *Grid) SetSort(spec SortSpec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Sort = spec
}

// SetFilter adds f, replacing any filter on the same column, and returns to
// the first page.
func (g *Grid) SetFilter(f Filter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Filters = g.query.Filters.With(f)
	g.query.Page = g.query.Page.First()
}

// ClearFilter removes the filter on col and returns to the first page.
func (g *Grid) ClearFilter(col Column) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Filters = g.query.Filters.Without(col)
	g.query.Page = g.query.Page.First()
}

// ClearFilters removes every filter.
func (g *Grid) ClearFilters() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Filters = nil
	g.query.Page = g.query.Page.First()
}

// NextPage advances one page; on the last page it does nothing.
func (g *Grid) NextPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Page = g.query.Page.Next(len(g.query.Filters.Apply(g.invoices)))
	return g.query.Page.Index
}

// PrevPage goes back one page; on the first page it does nothing.
func (g *Grid) PrevPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Page = g.query.Page.Prev()
	return g.query.Page.Index
}

// SetPage jumps to page index, clamped to the available pages.
func (g *Grid) SetPage(index int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.query.Page.Index = index
	g.query.Page = g.query.Page.Clamp(len(g.query.Filters.Apply(g.invoices)))
	return g.query.Page.Index
}

// View derives the current page.
func (g *Grid) View() View {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.engine.Derive(g.invoices, g.query)
}

// Lookup returns a copy of the invoice with id.
func (g *Grid) Lookup(id string) (models.Invoice, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i := slices.IndexFunc(g.invoices, func(inv models.Invoice) bool { return inv.ID == id })
	if i < 0 {
		return models.Invoice{}, false
	}
	return g.invoices[i], true
}

// Invoices returns a copy of the authoritative collection.
func (g *Grid) Invoices() []models.Invoice {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.invoices)
}

// Formatter returns the formatter used for rows.
func (g *Grid) Formatter() Formatter {
	return g.engine.Format
}
