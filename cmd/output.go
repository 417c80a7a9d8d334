package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// InvoiceOutput is the JSON shape printed by view, create, edit and attach.
type InvoiceOutput struct {
	Invoice     models.Invoice         `json:"invoice"`
	Attachments []models.AttachmentRef `json:"attachments,omitempty"`
	Failed      []string               `json:"failedUploads,omitempty"`
}

func writeInvoiceJSON(w io.Writer, output InvoiceOutput) error {
	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

// writeInvoice prints one invoice as aligned label/value lines.
func writeInvoice(w io.Writer, row grid.Row, output InvoiceOutput, now time.Time) {
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	line := func(label, value string) {
		fmt.Fprintf(writer, "%s:\t%s\n", label, value)
	}
	line("ID", row.ID())
	line("Invoice no", row.InvoiceNo)
	line("Customer", row.Customer)
	line("Amount", row.AmountText)
	line("Date", row.DateText)
	line("Due date", row.DueDateText)
	line("Status", row.StatusLabel)
	line("Created", withAge(row.Invoice.CreatedAt, row.CreatedText, now))
	line("Updated", withAge(row.Invoice.UpdatedAt, row.UpdatedText, now))
	if notes := strings.TrimSpace(row.Invoice.Notes); notes != "" {
		line("Notes", notes)
	}
	for _, ref := range output.Attachments {
		value := ref.FileName
		if ref.Size > 0 {
			value += " (" + humanize.Bytes(uint64(ref.Size)) + ")"
		}
		line("Attachment", value)
	}
	for _, name := range output.Failed {
		line("Attachment", name+" (upload failed)")
	}
	writer.Flush()
}

func withAge(t time.Time, text string, now time.Time) string {
	if t.IsZero() {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, humanize.RelTime(t, now, "ago", "from now"))
}

// printInvoice writes output to the command's stdout as text or JSON.
func printInvoice(cmd *cobra.Command, engine grid.Engine, output InvoiceOutput, asJSON bool) error {
	if asJSON {
		return writeInvoiceJSON(cmd.OutOrStdout(), output)
	}
	writeInvoice(cmd.OutOrStdout(), engine.Row(output.Invoice), output, time.Now())
	return nil
}

// reportFieldErrors prints per-field validation messages to stderr, naming
// the flag that sets each field.
func reportFieldErrors(cmd *cobra.Command, err error) {
	fieldErrs := invoice.FieldErrorsOf(err)
	for _, field := range fieldErrs.Fields() {
		name := field
		if flag, ok := fieldFlags[field]; ok {
			name = "--" + flag
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", name, fieldErrs[field])
	}
}
