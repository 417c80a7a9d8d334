// Package tui is the interactive terminal console for invoicedesk. It renders
// the derived invoice view of a console.Session as a table and drives the
// create, edit and view dialogs through the session's Coordinator.
//
// All gateway work runs in tea.Cmd functions; their results come back as
// messages so Update never blocks on the network.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"invoicedesk/internal/console"
	"invoicedesk/internal/grid"
	"invoicedesk/internal/invoice"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

const (
	// DefaultToastTTL is how long a notification stays on screen.
	DefaultToastTTL = 5 * time.Second

	maxToasts    = 3
	defaultWidth = 100
)

// Messages produced by the model's commands.
type (
	refreshedMsg struct{ err error }

	submittedMsg struct {
		saved models.Invoice
		err   error
	}

	attachedMsg struct {
		name   string
		staged bool
		err    error
	}

	retriedMsg struct{ err error }

	toastTickMsg time.Time
)

// Model is the bubbletea model of the invoice console.
type Model struct {
	ctx     context.Context
	session *console.Session
	keys    KeyMap
	help    help.Model
	theme   Theme
	now     func() time.Time
	log     zerolog.Logger

	toastTTL time.Duration
	toasts   []console.Notification

	width  int
	height int
	cursor int

	// form mirrors an Editing selection; prompt is an open one-line input.
	form   *formModel
	prompt *promptModel

	refreshing bool
}

// Option configures a Model.
type Option func(*Model)

// WithTheme overrides DefaultTheme.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithKeyMap overrides DefaultKeyMap.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithClock sets the clock used for toast expiry and relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithToastTTL sets how long notifications stay on screen.
func WithToastTTL(ttl time.Duration) Option {
	return func(m *Model) {
		if ttl > 0 {
			m.toastTTL = ttl
		}
	}
}

// New creates a console model over session. ctx bounds every gateway call
// the model makes.
func New(ctx context.Context, session *console.Session, opts ...Option) Model {
	m := Model{
		ctx:      ctx,
		session:  session,
		keys:     DefaultKeyMap,
		help:     help.New(),
		theme:    DefaultTheme,
		now:      time.Now,
		log:      logger.WithComponent("tui"),
		toastTTL: DefaultToastTTL,
		width:    defaultWidth,

		refreshing: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.help.Width = m.width
	return m
}

// Init implements tea.Model. It fetches the invoice list and starts the
// toast expiry ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

func (m Model) refresh() tea.Cmd {
	board, ctx := m.session.Board, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: board.Refresh(ctx)}
	}
}

func (m Model) submit(values models.FormValues) tea.Cmd {
	coordinator, ctx := m.session.Coordinator, m.ctx
	return func() tea.Msg {
		saved, err := coordinator.Submit(ctx, values)
		return submittedMsg{saved: saved, err: err}
	}
}

func (m Model) attach(file invoice.Attachment) tea.Cmd {
	coordinator, ctx := m.session.Coordinator, m.ctx
	return func() tea.Msg {
		_, staged, err := coordinator.Attach(ctx, file)
		return attachedMsg{name: file.Name, staged: staged, err: err}
	}
}

func (m Model) retryUploads() tea.Cmd {
	coordinator, ctx := m.session.Coordinator, m.ctx
	return func() tea.Msg {
		return retriedMsg{err: coordinator.RetryUploads(ctx)}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.help.Width = message.Width

	case tea.KeyMsg:
		return m.handleKey(message)

	case refreshedMsg:
		m.refreshing = false
		if message.err != nil {
			m.log.Debug().Err(message.err).Msg("Refresh failed")
		}
		m.clampCursor()
		m.collectToasts()

	case submittedMsg:
		m.handleSubmitted(message)

	case attachedMsg:
		m.handleAttached(message)

	case retriedMsg:
		m.collectToasts()

	case toastTickMsg:
		m.pruneToasts()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if message.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.prompt != nil {
		return m.handlePromptKeys(message)
	}

	switch selection := m.session.Coordinator.Selection().(type) {
	case console.Editing:
		return m.handleFormKeys(message, selection)
	case console.Viewing:
		return m.handleDetailKeys(message, selection)
	}
	return m.handleTableKeys(message)
}

func (m Model) handleTableKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.session.Grid
	coordinator := m.session.Coordinator

	switch {
	case key.Matches(message, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(message, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(message, m.keys.Down):
		if m.cursor < len(g.View().Rows)-1 {
			m.cursor++
		}

	case key.Matches(message, m.keys.PrevPage):
		g.PrevPage()
		m.cursor = 0

	case key.Matches(message, m.keys.NextPage):
		g.NextPage()
		m.cursor = 0

	case key.Matches(message, m.keys.Create):
		form := newForm(coordinator.OpenCreate())
		m.form = &form

	case key.Matches(message, m.keys.Edit):
		if row, ok := m.selectedRow(); ok {
			form := newForm(coordinator.OpenEdit(row.Invoice))
			m.form = &form
		}

	case key.Matches(message, m.keys.View):
		if row, ok := m.selectedRow(); ok {
			coordinator.OpenView(row.Invoice)
		}

	case key.Matches(message, m.keys.SortColumn):
		g.SetSort(nextSort(g.Query().Sort))
		m.cursor = 0

	case key.Matches(message, m.keys.SortDirection):
		current := g.Query().Sort
		if !current.Active() {
			current.Column = grid.Columns[0]
			g.SetSort(current)
		} else {
			g.SortBy(current.Column)
		}
		m.cursor = 0

	case key.Matches(message, m.keys.StatusFilter):
		next, ok := nextStatus(g.Query().Filters)
		if ok {
			g.SetFilter(grid.StatusFilter{Status: next})
		} else {
			g.ClearFilter(grid.ColumnStatus)
		}
		m.cursor = 0

	case key.Matches(message, m.keys.DateFilter):
		value := ""
		if f, ok := g.Query().Filters.Get(grid.ColumnDate); ok {
			if dates, ok := f.(grid.DateRangeFilter); ok {
				value = dateRangeText(dates)
			}
		}
		prompt := newPrompt(promptDateRange, value)
		m.prompt = &prompt

	case key.Matches(message, m.keys.Search):
		value := ""
		if f, ok := g.Query().Filters.Get(grid.ColumnCustomer); ok {
			if text, ok := f.(grid.TextFilter); ok {
				value = text.Query
			}
		}
		prompt := newPrompt(promptSearch, value)
		m.prompt = &prompt

	case key.Matches(message, m.keys.ClearFilters):
		g.ClearFilters()
		m.cursor = 0

	case key.Matches(message, m.keys.Refresh):
		if !m.refreshing {
			m.refreshing = true
			return m, m.refresh()
		}

	case key.Matches(message, m.keys.RetryUploads):
		if len(coordinator.PendingUploads()) > 0 {
			return m, m.retryUploads()
		}
	}
	return m, nil
}

func (m Model) handleFormKeys(message tea.KeyMsg, editing console.Editing) (tea.Model, tea.Cmd) {
	if m.form == nil {
		form := newForm(editing)
		m.form = &form
	}

	switch {
	case key.Matches(message, m.keys.Dismiss):
		m.session.Coordinator.Dismiss()
		m.form = nil
		return m, nil

	case key.Matches(message, m.keys.Submit):
		if editing.Submitting {
			return m, nil
		}
		values := m.form.values()
		if err := m.session.Coordinator.UpdateDraft(values); err != nil {
			return m, nil
		}
		return m, m.submit(values)

	case key.Matches(message, m.keys.FormAttach):
		prompt := newPrompt(promptAttach, "")
		m.prompt = &prompt
		return m, nil
	}

	form, cmd := m.form.update(message, m.keys)
	m.form = &form
	return m, cmd
}

func (m Model) handleDetailKeys(message tea.KeyMsg, viewing console.Viewing) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Dismiss), key.Matches(message, m.keys.Quit):
		m.session.Coordinator.Dismiss()

	case key.Matches(message, m.keys.Edit):
		form := newForm(m.session.Coordinator.OpenEdit(viewing.Invoice))
		m.form = &form

	case key.Matches(message, m.keys.Attach):
		prompt := newPrompt(promptAttach, "")
		m.prompt = &prompt

	case key.Matches(message, m.keys.RetryUploads):
		if len(m.session.Coordinator.PendingUploads()) > 0 {
			return m, m.retryUploads()
		}
	}
	return m, nil
}

func (m Model) handlePromptKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyEsc:
		m.prompt = nil
		return m, nil

	case tea.KeyEnter:
		prompt := *m.prompt
		m.prompt = nil
		return m.applyPrompt(prompt)
	}

	prompt := *m.prompt
	var cmd tea.Cmd
	prompt.input, cmd = prompt.input.Update(message)
	m.prompt = &prompt
	return m, cmd
}

func (m Model) applyPrompt(prompt promptModel) (tea.Model, tea.Cmd) {
	g := m.session.Grid
	value := prompt.value()

	switch prompt.kind {
	case promptAttach:
		if value == "" {
			return m, nil
		}
		file, err := invoice.LoadAttachment(value)
		if err != nil {
			m.addToast(console.Notification{Level: console.LevelError, Title: "Cannot attach file", Message: err.Error(), Err: err})
			return m, nil
		}
		return m, m.attach(file)

	case promptDateRange:
		if value == "" {
			g.ClearFilter(grid.ColumnDate)
			break
		}
		from, to, err := parseDateRange(value)
		if err == nil {
			var filter grid.DateRangeFilter
			if filter, err = grid.NewDateRangeFilter(grid.ColumnDate, from, to); err == nil {
				g.SetFilter(filter)
			}
		}
		if err != nil {
			m.addToast(console.Notification{Level: console.LevelWarning, Title: "Invalid date range", Message: err.Error(), Err: err})
		}

	case promptSearch:
		if value == "" {
			g.ClearFilter(grid.ColumnCustomer)
			break
		}
		g.SetFilter(grid.TextFilter{On: grid.ColumnCustomer, Query: value})
	}
	m.cursor = 0
	return m, nil
}

func (m *Model) handleSubmitted(message submittedMsg) {
	defer m.collectToasts()

	switch {
	case errors.Is(message.err, invoice.ErrSubmissionSuperseded),
		errors.Is(message.err, invoice.ErrSubmissionInFlight):
		m.log.Debug().Err(message.err).Msg("Submission result ignored")
		return
	}

	if _, editing := m.session.Coordinator.Selection().(console.Editing); !editing {
		m.form = nil
		m.clampCursor()
	}
}

func (m *Model) handleAttached(message attachedMsg) {
	defer m.collectToasts()

	switch {
	case message.err == nil && message.staged:
		m.addToast(console.Notification{
			Level:   console.LevelInfo,
			Title:   "Attachment staged",
			Message: fmt.Sprintf("%s will be uploaded after the invoice is saved", message.name),
		})
	case message.err != nil && !invoice.IsUpload(message.err):
		// Upload failures are notified by the coordinator.
		m.addToast(console.Notification{Level: console.LevelError, Title: "Cannot attach file", Message: message.err.Error(), Err: message.err})
	}
}

func (m Model) selectedRow() (grid.Row, bool) {
	rows := m.session.Grid.View().Rows
	if m.cursor < 0 || m.cursor >= len(rows) {
		return grid.Row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	rows := len(m.session.Grid.View().Rows)
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// collectToasts moves pending notifications from the session inbox onto
// the screen.
func (m *Model) collectToasts() {
	for _, n := range m.session.Inbox.Drain() {
		m.addToast(n)
	}
}

func (m *Model) addToast(n console.Notification) {
	if n.At.IsZero() {
		n.At = m.now()
	}
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxToasts {
		m.toasts = slices.Clone(m.toasts[len(m.toasts)-maxToasts:])
	}
}

func (m *Model) pruneToasts() {
	now := m.now()
	m.toasts = slices.DeleteFunc(m.toasts, func(n console.Notification) bool {
		return now.Sub(n.At) >= m.toastTTL
	})
}

// nextSort cycles no sort → each column ascending → no sort.
func nextSort(current grid.SortSpec) grid.SortSpec {
	if !current.Active() {
		return grid.SortSpec{Column: grid.Columns[0]}
	}
	i := slices.Index(grid.Columns, current.Column)
	if i < 0 || i == len(grid.Columns)-1 {
		return grid.SortSpec{}
	}
	return grid.SortSpec{Column: grid.Columns[i+1]}
}

// nextStatus cycles the status filter: none → each status → none. ok is
// false when the filter should be cleared.
func nextStatus(filters grid.Filters) (models.Status, bool) {
	f, active := filters.Get(grid.ColumnStatus)
	if !active {
		return models.Statuses[0], true
	}
	status, _ := f.(grid.StatusFilter)
	i := slices.Index(models.Statuses, status.Status)
	if i < 0 || i == len(models.Statuses)-1 {
		return "", false
	}
	return models.Statuses[i+1], true
}

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{m.renderTitle()}

	var bindings []key.Binding
	switch selection := m.session.Coordinator.Selection().(type) {
	case console.Editing:
		form := m.form
		if form == nil {
			f := newForm(selection)
			form = &f
		}
		sections = append(sections, form.view(selection, m.theme))
		bindings = m.keys.formHelp()

	case console.Viewing:
		row := grid.NewEngine(m.session.Grid.Formatter()).Row(selection.Invoice)
		id := selection.Invoice.ID
		sections = append(sections, renderDetail(
			row,
			m.session.Coordinator.Attachments(id),
			m.session.Coordinator.PendingUploads()[id],
			m.now(),
			m.theme,
		))
		bindings = m.keys.detailHelp()

	default:
		sections = append(sections, renderTable(m.session.Grid.View(), m.cursor, m.width, m.theme))
		bindings = m.keys.ShortHelp()
	}

	if err := m.session.Grid.Err(); err != nil {
		sections = append(sections, m.theme.errorText().Render("Could not load invoices: "+err.Error()))
	}
	if m.prompt != nil {
		sections = append(sections, m.prompt.input.View())
	}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(m.help.ShortHelpView(bindings)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	title := m.theme.header().Render("Invoices")
	switch {
	case m.refreshing || m.session.Grid.Pending() || !m.session.Grid.Loaded():
		title += m.theme.faint().Render("  loading…")
	case len(m.session.Coordinator.PendingUploads()) > 0:
		title += m.theme.errorText().Render("  uploads pending (u to retry)")
	}
	return title
}

func (m Model) renderToasts() string {
	lines := make([]string, 0, len(m.toasts))
	for _, n := range m.toasts {
		text := n.Title
		if n.Message != "" {
			text += ": " + n.Message
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.LevelColor(n.Level)).Render(text))
	}
	return strings.Join(lines, "\n")
}
