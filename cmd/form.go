package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// fieldFlags maps invoice JSON field names to the flags that set them.
var fieldFlags = map[string]string{
	"invoiceNo": "invoice-no",
	"customer":  "customer",
	"amount":    "amount",
	"date":      "date",
	"dueDate":   "due-date",
	"status":    "status",
	"notes":     "notes",
}

// addFieldFlags registers one flag per editable invoice field.
func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("invoice-no", "", "Invoice number")
	cmd.Flags().String("customer", "", "Customer name")
	cmd.Flags().String("amount", "", "Amount, e.g. 1500.50 (non-negative)")
	cmd.Flags().String("date", "", "Invoice date, YYYY-MM-DD")
	cmd.Flags().String("due-date", "", "Due date, YYYY-MM-DD")
	cmd.Flags().String("status", "", "Status: PAID, UNPAID or OVERDUE")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Bool("json", false, "Print the saved invoice as JSON")
}

// formValuesFromFlags overlays the field flags the user set onto base.
// Unset flags keep base's values, so an edit only touches what was given.
func formValuesFromFlags(cmd *cobra.Command, base models.FormValues) models.FormValues {
	values := base
	targets := map[string]*string{
		"invoice-no": &values.InvoiceNo,
		"customer":   &values.Customer,
		"amount":     &values.Amount,
		"date":       &values.Date,
		"due-date":   &values.DueDate,
		"status":     &values.Status,
		"notes":      &values.Notes,
	}
	for flag, target := range targets {
		if cmd.Flags().Changed(flag) {
			*target, _ = cmd.Flags().GetString(flag)
		}
	}
	return values
}

// loadAttachments reads and checks every path before anything is sent.
func loadAttachments(paths []string) ([]invoice.Attachment, error) {
	files := make([]invoice.Attachment, 0, len(paths))
	for _, path := range paths {
		file, err := invoice.LoadAttachment(path)
		if err != nil {
			return nil, fmt.Errorf("cannot attach %s: %w", path, err)
		}
		files = append(files, file)
	}
	return files, nil
}
