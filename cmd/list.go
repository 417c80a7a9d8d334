package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices with sorting, filtering and paging",
	Long: `Fetch the full invoice collection and print one page of it.

Sorting, filtering and paging happen locally, exactly as in the
interactive console. Filters combine: an invoice must pass all of them.`,
	Example: `  # First page, server order
  invoicedesk list

  # Unpaid invoices for customers matching "acme", largest first
  invoicedesk list --status unpaid --customer acme --sort amount --desc

  # Invoices due in March 2024, as JSON
  invoicedesk list --due-from 2024-03-01 --due-to 2024-03-31 --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// ListOutput is the JSON shape of one listed page.
type ListOutput struct {
	Invoices  []models.Invoice `json:"invoices"`
	Page      int              `json:"page"`
	PageCount int              `json:"pageCount"`
	PageSize  int              `json:"pageSize"`
	Filtered  int              `json:"filtered"`
	Total     int              `json:"total"`
	Sort      string           `json:"sort,omitempty"`
	Filters   []string         `json:"filters,omitempty"`
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("status", "", "Only invoices with this status (PAID, UNPAID, OVERDUE)")
	listCmd.Flags().String("customer", "", "Only customers containing this text (case-insensitive)")
	listCmd.Flags().String("invoice-no", "", "Only invoice numbers containing this text")
	listCmd.Flags().String("from", "", "Only invoices dated on or after YYYY-MM-DD")
	listCmd.Flags().String("to", "", "Only invoices dated on or before YYYY-MM-DD")
	listCmd.Flags().String("due-from", "", "Only invoices due on or after YYYY-MM-DD")
	listCmd.Flags().String("due-to", "", "Only invoices due on or before YYYY-MM-DD")
	listCmd.Flags().String("sort", "", "Sort column: "+columnNames())
	listCmd.Flags().Bool("desc", false, "Sort descending")
	listCmd.Flags().Int("page", 1, "Page number, starting at 1")
	listCmd.Flags().Int("page-size", 0, "Rows per page (default: INVOICE_PAGE_SIZE)")
	listCmd.Flags().Bool("json", false, "Print the page as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("list")

	statusText, _ := cmd.Flags().GetString("status")
	customer, _ := cmd.Flags().GetString("customer")
	invoiceNo, _ := cmd.Flags().GetString("invoice-no")
	sortText, _ := cmd.Flags().GetString("sort")
	descending, _ := cmd.Flags().GetBool("desc")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	asJSON, _ := cmd.Flags().GetBool("json")

	if page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", page)
	}
	if pageSize < 0 {
		return fmt.Errorf("--page-size must not be negative, got %d", pageSize)
	}

	var filters grid.Filters
	if statusText != "" {
		status, err := models.ParseStatus(statusText)
		if err != nil {
			return err
		}
		filters = filters.With(grid.StatusFilter{Status: status})
	}
	if customer = strings.TrimSpace(customer); customer != "" {
		filters = filters.With(grid.TextFilter{On: grid.ColumnCustomer, Query: customer})
	}
	if invoiceNo = strings.TrimSpace(invoiceNo); invoiceNo != "" {
		filters = filters.With(grid.TextFilter{On: grid.ColumnInvoiceNo, Query: invoiceNo})
	}
	for _, bounds := range []struct {
		column   grid.Column
		from, to string
	}{
		{grid.ColumnDate, "from", "to"},
		{grid.ColumnDueDate, "due-from", "due-to"},
	} {
		f, ok, err := dateRangeFlags(cmd, bounds.column, bounds.from, bounds.to)
		if err != nil {
			return err
		}
		if ok {
			filters = filters.With(f)
		}
	}

	var sort grid.SortSpec
	if sortText != "" {
		column, err := grid.ParseColumn(sortText)
		if err != nil {
			return err
		}
		sort.Column = column
		if descending {
			sort.Direction = grid.Descending
		}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	session, err := newSession(cfg, nil, log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(cmd.Context(), log)
	defer cancel()

	if err := session.Board.Init(ctx); err != nil {
		return fmt.Errorf("failed to load invoices: %w", err)
	}

	for _, f := range filters {
		session.Grid.SetFilter(f)
	}
	session.Grid.SetSort(sort)
	if shown := session.Grid.SetPage(page - 1); shown != page-1 {
		log.Debug().
			Int("requested", page).
			Int("shown", shown+1).
			Msg("Requested page out of range")
	}
	view := session.Grid.View()

	log.Info().
		Int("total", view.Total).
		Int("filtered", view.Filtered).
		Int("page", view.Page+1).
		Msg("Invoices listed")

	if asJSON {
		return writeListJSON(cmd.OutOrStdout(), view)
	}
	writeListTable(cmd.OutOrStdout(), view)
	return nil
}

// dateRangeFlags builds a date filter from a pair of flags. ok is false when
// neither flag is set.
func dateRangeFlags(cmd *cobra.Command, column grid.Column, fromFlag, toFlag string) (grid.DateRangeFilter, bool, error) {
	fromText, _ := cmd.Flags().GetString(fromFlag)
	toText, _ := cmd.Flags().GetString(toFlag)
	if fromText == "" && toText == "" {
		return grid.DateRangeFilter{}, false, nil
	}

	var from, to models.Date
	var err error
	if fromText != "" {
		if from, err = models.ParseDate(fromText); err != nil {
			return grid.DateRangeFilter{}, false, fmt.Errorf("--%s: %w", fromFlag, err)
		}
	}
	if toText != "" {
		if to, err = models.ParseDate(toText); err != nil {
			return grid.DateRangeFilter{}, false, fmt.Errorf("--%s: %w", toFlag, err)
		}
	}

	f, err := grid.NewDateRangeFilter(column, from.Day(), to.Day())
	if err != nil {
		return grid.DateRangeFilter{}, false, err
	}
	return f, true, nil
}

func writeListJSON(w io.Writer, view grid.View) error {
	output := ListOutput{
		Invoices:  make([]models.Invoice, 0, len(view.Rows)),
		Page:      view.Page + 1,
		PageCount: view.PageCount,
		PageSize:  view.PageSize,
		Filtered:  view.Filtered,
		Total:     view.Total,
	}
	if view.Sort.Active() {
		output.Sort = view.Sort.String()
	}
	for _, f := range view.Filters {
		output.Filters = append(output.Filters, fmt.Sprint(f))
	}
	for _, row := range view.Rows {
		output.Invoices = append(output.Invoices, row.Invoice)
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// listColumns are the columns printed by the table output.
var listColumns = []grid.Column{
	grid.ColumnInvoiceNo,
	grid.ColumnCustomer,
	grid.ColumnAmount,
	grid.ColumnDate,
	grid.ColumnDueDate,
	grid.ColumnStatus,
}

func writeListTable(w io.Writer, view grid.View) {
	if view.Empty() {
		fmt.Fprintln(w, "No invoices found")
		return
	}

	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	titles := make([]string, 0, len(listColumns)+1)
	titles = append(titles, "ID")
	for _, col := range listColumns {
		title := strings.ToUpper(col.Title())
		if view.Sort.Column == col {
			title += " " + view.Sort.Direction.Arrow()
		}
		titles = append(titles, title)
	}
	fmt.Fprintln(writer, strings.Join(titles, "\t"))

	for _, row := range view.Rows {
		cells := make([]string, 0, len(listColumns)+1)
		cells = append(cells, row.ID())
		for _, col := range listColumns {
			cells = append(cells, row.Cell(col))
		}
		fmt.Fprintln(writer, strings.Join(cells, "\t"))
	}
	writer.Flush()

	footer := fmt.Sprintf("Page %d of %d · %d of %d invoices", view.Page+1, view.PageCount, view.Filtered, view.Total)
	if len(view.Filters) > 0 {
		footer += " · filters: " + view.Filters.String()
	}
	fmt.Fprintln(w, footer)
}

func columnNames() string {
	names := make([]string, len(grid.Columns))
	for i, col := range grid.Columns {
		names[i] = string(col)
	}
	return strings.Join(names, ", ")
}
