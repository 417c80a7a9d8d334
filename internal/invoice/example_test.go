package invoice_test

import (
	"errors"
	"fmt"
	"log"

	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// Example demonstrates validating dialog input before submission.
func Example() {
	fields, errs := invoice.Validate(models.FormValues{
		InvoiceNo: "INV-100",
		Customer:  "Acme",
		Amount:    "250.50",
		Date:      "2024-01-01",
		DueDate:   "2024-01-31",
		Status:    "unpaid",
	})
	if errs != nil {
		log.Fatal(errs.Err())
	}

	fmt.Println(fields.InvoiceNo, fields.Customer, fields.Amount.StringFixed(2), fields.Status)
	fmt.Println(fields.Date, fields.DueDate)
	// Output:
	// INV-100 Acme 250.50 UNPAID
	// 2024-01-01 2024-01-31
}

// ExampleValidate_fieldErrors shows the per-field messages a dialog renders
// next to each input.
func ExampleValidate_fieldErrors() {
	_, errs := invoice.Validate(models.FormValues{
		InvoiceNo: "INV-101",
		Amount:    "abc",
		Date:      "2024-13-01",
		Status:    "VOID",
	})

	for _, name := range errs.Fields() {
		fmt.Printf("%s: %s\n", name, errs[name])
	}
	// Output:
	// amount: Amount must be a valid non-negative number
	// customer: Customer name is required
	// date: Date must be a valid date (YYYY-MM-DD)
	// dueDate: Due date is required
	// status: Status must be one of PAID, UNPAID, OVERDUE
}

// ExampleIsUpload demonstrates telling error classes apart.
func ExampleIsUpload() {
	errs := []error{
		invoice.FieldErrors{invoice.FieldCustomer: "Customer name is required"}.Err(),
		invoice.NewRequestError("Create", 502, errors.New("bad gateway"), ""),
		invoice.NewUploadError("inv-1", "scan.pdf", 503, errors.New("unavailable")),
	}

	for _, err := range errs {
		switch {
		case invoice.IsValidation(err):
			fmt.Println("fix the highlighted fields")
		case invoice.IsUpload(err):
			fmt.Println("retry the upload only")
		case invoice.IsNetwork(err):
			fmt.Println("resubmit when the server is reachable")
		}
	}
	// Output:
	// fix the highlighted fields
	// resubmit when the server is reachable
	// retry the upload only
}
