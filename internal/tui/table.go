package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"invoicedesk/internal/grid"
)

// tableColumn is a rendered column of the invoice table. Width is the
// minimum cell width; the customer column absorbs any spare width.
type tableColumn struct {
	column grid.Column
	width  int
}

var tableColumns = []tableColumn{
	{grid.ColumnInvoiceNo, 12},
	{grid.ColumnCustomer, 20},
	{grid.ColumnAmount, 16},
	{grid.ColumnDate, 12},
	{grid.ColumnDueDate, 12},
	{grid.ColumnStatus, 9},
}

const columnGap = 2

// layoutColumns returns column widths fitted to the terminal width.
func layoutColumns(width int) []int {
	widths := make([]int, len(tableColumns))
	used := 0
	for i, col := range tableColumns {
		widths[i] = col.width
		used += col.width + columnGap
	}
	if spare := width - used; spare > 0 {
		widths[1] += spare
	}
	return widths
}

// renderTable renders the header, the rows of view and the page footer.
// cursor is the selected row index within the page, or -1.
func renderTable(view grid.View, cursor, width int, theme Theme) string {
	widths := layoutColumns(width)
	var b strings.Builder

	headers := make([]string, len(tableColumns))
	for i, col := range tableColumns {
		title := col.column.Title()
		if view.Sort.Column == col.column {
			title += " " + view.Sort.Direction.Arrow()
		}
		headers[i] = pad(title, widths[i])
	}
	b.WriteString(theme.header().Render(strings.Join(headers, strings.Repeat(" ", columnGap))))
	b.WriteString("\n")

	if view.Empty() {
		b.WriteString(theme.faint().Render("No invoices found"))
		b.WriteString("\n")
	}

	for i, row := range view.Rows {
		cells := make([]string, len(tableColumns))
		for j, col := range tableColumns {
			cell := pad(row.Cell(col.column), widths[j])
			if col.column == grid.ColumnStatus {
				cell = lipgloss.NewStyle().Foreground(theme.BadgeColor(row.Badge)).Render(cell)
			}
			cells[j] = cell
		}
		line := strings.Join(cells, strings.Repeat(" ", columnGap))
		if i == cursor {
			line = lipgloss.NewStyle().
				Background(theme.SelectedBackground).
				Foreground(theme.SelectedForeground).
				Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(theme.faint().Render(footer(view)))
	return b.String()
}

// footer summarizes the page position and active filters.
func footer(view grid.View) string {
	var parts []string
	if view.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("Page %d of %d", view.Page+1, view.PageCount))
	}
	if view.Filtered != view.Total {
		parts = append(parts, fmt.Sprintf("%d of %d invoices", view.Filtered, view.Total))
	} else {
		parts = append(parts, fmt.Sprintf("%d invoices", view.Total))
	}
	if len(view.Filters) > 0 {
		parts = append(parts, "filters: "+view.Filters.String())
	}
	if view.Sort.Active() {
		parts = append(parts, "sort: "+view.Sort.String())
	}
	return strings.Join(parts, " · ")
}

// pad truncates s to width display cells and right-pads it with spaces.
func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if gap := width - ansi.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}
