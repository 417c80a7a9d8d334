package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedesk/internal/config"
	"invoicedesk/internal/gateway/gatewaytest"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
}

func testInvoice(id, no, customer, amount string, date models.Date, status models.Status) models.Invoice {
	return models.Invoice{
		ID:        id,
		InvoiceNo: no,
		Customer:  customer,
		Amount:    decimal.RequireFromString(amount),
		Date:      date,
		DueDate:   models.Date{Time: date.AddDate(0, 1, 0)},
		Status:    status,
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func seedInvoices() []models.Invoice {
	return []models.Invoice{
		testInvoice("seed-1", "INV-001", "Globex", "1200", models.NewDate(2024, 2, 1), models.StatusUnpaid),
		testInvoice("seed-2", "INV-002", "Acme Ltd", "300.50", models.NewDate(2024, 3, 5), models.StatusPaid),
		testInvoice("seed-3", "INV-003", "Acme Corp", "75", models.NewDate(2024, 1, 10), models.StatusOverdue),
	}
}

// resetFlags restores every flag in the tree to its default so commands can
// run repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// runCommand executes the command tree against baseURL and captures output.
func runCommand(t *testing.T, baseURL string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	appConfig = &config.Config{
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		PageSize:      5,
		Currency:      "NGN",
		Locale:        "en-NG",
		UploadWorkers: 2,
	}
	t.Cleanup(func() { appConfig = nil })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func decodeList(t *testing.T, stdout string) ListOutput {
	t.Helper()
	var output ListOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output), stdout)
	return output
}

func invoiceNumbers(invoices []models.Invoice) []string {
	numbers := make([]string, len(invoices))
	for i, inv := range invoices {
		numbers[i] = inv.InvoiceNo
	}
	return numbers
}

func TestList_FilterAndSort(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	stdout, _, err := runCommand(t, srv.URL, "list", "--customer", "acme", "--sort", "date", "--desc", "--json")
	require.NoError(t, err)

	output := decodeList(t, stdout)
	assert.Equal(t, []string{"INV-002", "INV-003"}, invoiceNumbers(output.Invoices))
	assert.Equal(t, 2, output.Filtered)
	assert.Equal(t, 3, output.Total)
	assert.Equal(t, "date desc", output.Sort)
	assert.Len(t, output.Filters, 1)
}

func TestList_StatusAndDateFilters(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	stdout, _, err := runCommand(t, srv.URL, "list", "--status", "unpaid", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-001"}, invoiceNumbers(decodeList(t, stdout).Invoices))

	stdout, _, err = runCommand(t, srv.URL, "list", "--from", "2024-02-01", "--to", "2024-03-05", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-001", "INV-002"}, invoiceNumbers(decodeList(t, stdout).Invoices),
		"both bounds are inclusive")

	stdout, _, err = runCommand(t, srv.URL, "list", "--due-to", "2024-02-10", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"INV-003"}, invoiceNumbers(decodeList(t, stdout).Invoices))
}

func TestList_Paging(t *testing.T) {
	var seed []models.Invoice
	for i := 1; i <= 7; i++ {
		seed = append(seed, testInvoice(
			fmt.Sprintf("id-%d", i), fmt.Sprintf("INV-%03d", i), "Globex", "10",
			models.NewDate(2024, 1, i), models.StatusUnpaid))
	}
	srv := gatewaytest.NewServer(t, seed...)

	stdout, _, err := runCommand(t, srv.URL, "list", "--page", "2", "--json")
	require.NoError(t, err)
	output := decodeList(t, stdout)
	assert.Equal(t, []string{"INV-006", "INV-007"}, invoiceNumbers(output.Invoices))
	assert.Equal(t, 2, output.Page)
	assert.Equal(t, 2, output.PageCount)

	stdout, _, err = runCommand(t, srv.URL, "list", "--page", "9", "--json")
	require.NoError(t, err)
	assert.Equal(t, 2, decodeList(t, stdout).Page, "out-of-range pages clamp to the last page")

	stdout, _, err = runCommand(t, srv.URL, "list", "--page-size", "3", "--page", "3", "--json")
	require.NoError(t, err)
	output = decodeList(t, stdout)
	assert.Equal(t, []string{"INV-007"}, invoiceNumbers(output.Invoices))
	assert.Equal(t, 3, output.PageCount)
}

func TestList_Table(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	stdout, _, err := runCommand(t, srv.URL, "list", "--sort", "customer")
	require.NoError(t, err)
	assert.Contains(t, stdout, "INVOICE #")
	assert.Contains(t, stdout, "CUSTOMER ▲")
	assert.Contains(t, stdout, "Globex")
	assert.Contains(t, stdout, "Page 1 of 1 · 3 of 3 invoices")
}

func TestList_EmptyCollection(t *testing.T) {
	srv := gatewaytest.NewServer(t)

	stdout, _, err := runCommand(t, srv.URL, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No invoices found")
}

func TestList_InvalidFlagsSendNothing(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	for _, args := range [][]string{
		{"list", "--status", "settled"},
		{"list", "--sort", "colour"},
		{"list", "--from", "2024-02-30"},
		{"list", "--from", "2024-03-01", "--to", "2024-02-01"},
		{"list", "--page", "0"},
	} {
		_, _, err := runCommand(t, srv.URL, args...)
		assert.Error(t, err, args)
	}
	assert.Zero(t, srv.Calls(gatewaytest.RouteList))
}

func TestList_ServerFailure(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)
	srv.FailNext(gatewaytest.RouteList, http.StatusInternalServerError)

	_, _, err := runCommand(t, srv.URL, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load invoices")
	assert.True(t, invoice.IsNetwork(err))
}

func TestBaseURLRequired(t *testing.T) {
	_, _, err := runCommand(t, "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVOICE_API_BASE_URL")
}

func TestBaseURLFlagOverridesConfig(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	stdout, _, err := runCommand(t, "", "--base-url", srv.URL, "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, 3, decodeList(t, stdout).Total)

	_, _, err = runCommand(t, "", "--base-url", "not a url", "list")
	assert.Error(t, err)
}

func TestCreate_WithAttachment(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)
	receipt := writeFile(t, "receipt.pdf", pdfBytes)

	stdout, stderr, err := runCommand(t, srv.URL, "create",
		"--invoice-no", "INV-200", "--customer", "Initech", "--amount", "99.90",
		"--date", "2024-04-01", "--due-date", "2024-04-30", "--status", "unpaid",
		"--attach", receipt, "--json")
	require.NoError(t, err)

	var output InvoiceOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output), stdout)
	assert.Equal(t, "INV-200", output.Invoice.InvoiceNo)
	assert.Equal(t, models.StatusUnpaid, output.Invoice.Status)
	assert.NotEmpty(t, output.Invoice.ID)
	require.Len(t, output.Attachments, 1)
	assert.Equal(t, "receipt.pdf", output.Attachments[0].FileName)

	assert.Len(t, srv.Invoices(), 4)
	assert.Len(t, srv.Uploads(output.Invoice.ID), 1)
	assert.Contains(t, stderr, "Invoice created")
}

func TestCreate_LocalValidationSendsNothing(t *testing.T) {
	srv := gatewaytest.NewServer(t)

	_, stderr, err := runCommand(t, srv.URL, "create", "--invoice-no", "INV-201", "--amount", "-5")
	require.Error(t, err)
	assert.Contains(t, stderr, "--customer:")
	assert.Contains(t, stderr, "--amount:")
	assert.Contains(t, stderr, "--due-date:")
	assert.Zero(t, srv.Calls(gatewaytest.RouteCreate))
}

func TestCreate_RejectsUnsupportedAttachmentFirst(t *testing.T) {
	srv := gatewaytest.NewServer(t)
	notes := writeFile(t, "notes.txt", []byte("plain text"))

	_, _, err := runCommand(t, srv.URL, "create",
		"--invoice-no", "INV-202", "--customer", "Initech", "--amount", "1",
		"--date", "2024-04-01", "--due-date", "2024-04-30", "--status", "PAID",
		"--attach", notes)
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrUnsupportedAttachment)
	assert.Zero(t, srv.Calls(gatewaytest.RouteCreate))
}

func TestCreate_UploadFailureKeepsInvoice(t *testing.T) {
	srv := gatewaytest.NewServer(t)
	srv.FailNext(gatewaytest.RouteUpload, http.StatusInternalServerError)
	receipt := writeFile(t, "receipt.pdf", pdfBytes)

	stdout, _, err := runCommand(t, srv.URL, "create",
		"--invoice-no", "INV-203", "--customer", "Initech", "--amount", "1",
		"--date", "2024-04-01", "--due-date", "2024-04-30", "--status", "PAID",
		"--attach", receipt)
	require.Error(t, err)
	assert.True(t, invoice.IsUpload(err))
	assert.Contains(t, err.Error(), "was created")

	require.Len(t, srv.Invoices(), 1, "the invoice is not rolled back")
	assert.Contains(t, stdout, "receipt.pdf (upload failed)")
}

func TestEdit_ChangesOnlyGivenFields(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	_, stderr, err := runCommand(t, srv.URL, "edit", "seed-1", "--status", "paid")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Invoice updated")

	updated := srv.Invoices()[0]
	assert.Equal(t, models.StatusPaid, updated.Status)
	assert.Equal(t, "Globex", updated.Customer)
	assert.True(t, decimal.RequireFromString("1200").Equal(updated.Amount))
	assert.Equal(t, 1, srv.Calls(gatewaytest.RouteUpdate))
}

func TestEdit_ValidationAndNotFound(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	_, stderr, err := runCommand(t, srv.URL, "edit", "seed-1", "--date", "2024-13-01")
	require.Error(t, err)
	assert.Contains(t, stderr, "--date:")

	_, _, err = runCommand(t, srv.URL, "edit", "missing", "--status", "paid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	assert.Zero(t, srv.Calls(gatewaytest.RouteUpdate))
}

func TestEdit_ServerRejection(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)
	srv.FailNext(gatewaytest.RouteUpdate, http.StatusBadRequest)

	_, _, err := runCommand(t, srv.URL, "edit", "seed-2", "--notes", "late")
	require.Error(t, err)
	assert.ErrorIs(t, err, invoice.ErrServerRejection)
	assert.Empty(t, srv.Invoices()[1].Notes)
}

func TestView(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)

	stdout, _, err := runCommand(t, srv.URL, "view", "seed-3", "--json")
	require.NoError(t, err)
	var output InvoiceOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.Equal(t, "INV-003", output.Invoice.InvoiceNo)

	stdout, _, err = runCommand(t, srv.URL, "view", "seed-3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Acme Corp")
	assert.Contains(t, stdout, "Overdue")
	assert.Contains(t, stdout, "ago)")

	_, _, err = runCommand(t, srv.URL, "view", "nope")
	assert.Error(t, err)
}

func TestAttach(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)
	receipt := writeFile(t, "receipt.pdf", pdfBytes)
	scan := writeFile(t, "scan.png", pngBytes)

	stdout, _, err := runCommand(t, srv.URL, "attach", "seed-1", receipt, scan)
	require.NoError(t, err)
	assert.Contains(t, stdout, "receipt.pdf")
	assert.Contains(t, stdout, "scan.png")
	assert.Len(t, srv.Uploads("seed-1"), 2)
	assert.Zero(t, srv.Calls(gatewaytest.RouteUpdate), "attaching never resubmits the invoice")
}

func TestAttach_PartialFailure(t *testing.T) {
	srv := gatewaytest.NewServer(t, seedInvoices()...)
	srv.FailNext(gatewaytest.RouteUpload, http.StatusBadGateway)
	receipt := writeFile(t, "receipt.pdf", pdfBytes)
	scan := writeFile(t, "scan.png", pngBytes)

	_, _, err := runCommand(t, srv.URL, "attach", "seed-2", receipt, scan)
	require.Error(t, err)
	assert.True(t, invoice.IsUpload(err))
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Len(t, srv.Uploads("seed-2"), 1)
}
