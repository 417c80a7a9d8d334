package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedesk/pkg/models"
)

func validForm() models.FormValues {
	return models.FormValues{
		InvoiceNo: "INV-100",
		Customer:  "Acme",
		Amount:    "250.50",
		Date:      "2024-01-01",
		DueDate:   "2024-01-31",
		Status:    "UNPAID",
	}
}

func TestValidate_Valid(t *testing.T) {
	fields, errs := Validate(validForm())
	require.Nil(t, errs)
	assert.Equal(t, "INV-100", fields.InvoiceNo)
	assert.True(t, decimal.RequireFromString("250.5").Equal(fields.Amount))
	assert.Equal(t, models.NewDate(2024, time.January, 1), fields.Date)
	assert.Equal(t, models.StatusUnpaid, fields.Status)
	assert.NoError(t, errs.Err())
}

func TestValidate_RequiredFields(t *testing.T) {
	_, errs := Validate(models.FormValues{Notes: "only notes"})
	require.NotNil(t, errs)
	assert.Equal(t, []string{FieldAmount, FieldCustomer, FieldDate, FieldDueDate, FieldInvoiceNo, FieldStatus}, errs.Fields())
	assert.Equal(t, "Invoice number is required", errs[FieldInvoiceNo])
	assert.Equal(t, "Status is required", errs[FieldStatus])
	assert.NotContains(t, errs, FieldNotes, "notes are optional")
}

func TestValidate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.FormValues)
		field   string
		wantErr bool
	}{
		{"whitespace only customer", func(v *models.FormValues) { v.Customer = " \t " }, FieldCustomer, true},
		{"negative amount", func(v *models.FormValues) { v.Amount = "-1" }, FieldAmount, true},
		{"non numeric amount", func(v *models.FormValues) { v.Amount = "12abc" }, FieldAmount, true},
		{"infinite amount", func(v *models.FormValues) { v.Amount = "Inf" }, FieldAmount, true},
		{"exponent amount", func(v *models.FormValues) { v.Amount = "1e100000000" }, FieldAmount, true},
		{"upper case exponent amount", func(v *models.FormValues) { v.Amount = "1E2" }, FieldAmount, true},
		{"too many integer digits", func(v *models.FormValues) { v.Amount = "1234567890123456789" }, FieldAmount, true},
		{"large exact amount", func(v *models.FormValues) { v.Amount = "12345678901234567.89" }, FieldAmount, false},
		{"zero amount", func(v *models.FormValues) { v.Amount = "0" }, FieldAmount, false},
		{"padded amount", func(v *models.FormValues) { v.Amount = " 10.25 " }, FieldAmount, false},
		{"lower case status", func(v *models.FormValues) { v.Status = "overdue" }, FieldStatus, false},
		{"unknown status", func(v *models.FormValues) { v.Status = "DRAFT" }, FieldStatus, true},
		{"rfc3339 date", func(v *models.FormValues) { v.Date = "2024-01-01T10:00:00Z" }, FieldDate, false},
		{"impossible date", func(v *models.FormValues) { v.DueDate = "2024-02-30" }, FieldDueDate, true},
		{"slash date", func(v *models.FormValues) { v.Date = "01/02/2024" }, FieldDate, true},
		{"due before issue", func(v *models.FormValues) { v.DueDate = "2023-12-01" }, FieldDueDate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validForm()
			tt.mutate(&values)
			_, errs := Validate(values)
			if tt.wantErr {
				require.NotNil(t, errs)
				assert.Contains(t, errs, tt.field)
				assert.Len(t, errs, 1)
			} else {
				assert.Nil(t, errs)
			}
		})
	}
}

func TestValidate_ErrIsLocalValidation(t *testing.T) {
	values := validForm()
	values.Customer = ""
	_, errs := Validate(values)

	err := errs.Err()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.NotErrorIs(t, err, ErrServerRejection)
	assert.False(t, IsNetwork(err))
	assert.Equal(t, errs, FieldErrorsOf(err))
	assert.Contains(t, err.Error(), "customer: Customer name is required")
}

func TestDueBeforeIssue(t *testing.T) {
	values := validForm()
	fields, _ := Validate(values)
	assert.False(t, DueBeforeIssue(fields))

	values.DueDate = "2023-12-31"
	fields, errs := Validate(values)
	require.Nil(t, errs)
	assert.True(t, DueBeforeIssue(fields))

	values.DueDate = values.Date
	fields, _ = Validate(values)
	assert.False(t, DueBeforeIssue(fields), "same day is not before")
}

func TestErrorClassification(t *testing.T) {
	rejection := NewServerRejection("duplicate", FieldErrors{FieldInvoiceNo: "taken"})
	assert.ErrorIs(t, rejection, ErrValidation)
	assert.ErrorIs(t, rejection, ErrServerRejection)
	assert.Contains(t, rejection.Error(), "(server)")

	reqErr := NewRequestError("List", 0, ErrMissingInvoiceID, "")
	assert.True(t, IsNetwork(reqErr))
	assert.ErrorIs(t, reqErr, ErrMissingInvoiceID)
	assert.False(t, IsUpload(reqErr))

	upErr := NewUploadError("inv-1", "a.pdf", 500, ErrMissingInvoiceID)
	assert.True(t, IsUpload(upErr))
	assert.False(t, IsNetwork(upErr))
	assert.Nil(t, FieldErrorsOf(upErr))
}

func TestParseAmount_RejectsExponentNotation(t *testing.T) {
	for _, input := range []string{"1e100000000", "1E2", "2.5e-1"} {
		_, err := ParseAmount(input)
		assert.Error(t, err, input)
	}

	amount, err := ParseAmount("12345678901234567.89")
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567.89", amount.String())
}
