package invoice

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"invoicedesk/pkg/models"
)

// JSON names of the dialog inputs, used as FieldErrors keys.
const (
	FieldInvoiceNo = "invoiceNo"
	FieldCustomer  = "customer"
	FieldAmount    = "amount"
	FieldDate      = "date"
	FieldDueDate   = "dueDate"
	FieldStatus    = "status"
	FieldNotes     = "notes"
)

var requiredMessages = map[string]string{
	FieldInvoiceNo: "Invoice number is required",
	FieldCustomer:  "Customer name is required",
	FieldAmount:    "Amount is required",
	FieldDate:      "Date is required",
	FieldDueDate:   "Due date is required",
	FieldStatus:    "Status is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so errors line up with the API.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		_, err := ParseAmount(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "calendardate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "invoicestatus", func(fl validator.FieldLevel) bool {
		_, err := models.ParseStatus(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// MaxAmountDigits bounds the integer part of an amount.
const MaxAmountDigits = 18

// ParseAmount parses user input into a finite, non-negative amount written
// in plain decimal notation.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "eE") {
		return decimal.Decimal{}, errors.New("amount must not use exponent notation")
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if digits := len(amount.Abs().Truncate(0).String()); digits > MaxAmountDigits {
		return decimal.Decimal{}, fmt.Errorf("amount has %d integer digits, at most %d allowed", digits, MaxAmountDigits)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, errors.New("amount must not be negative")
	}
	return amount, nil
}

// Validate checks dialog input before any create or update submission. It is
// pure: it never touches the network and never panics on bad input. On
// success it returns the typed Fields and a nil FieldErrors; otherwise every
// failing input is reported under its JSON name.
//
// A due date before the invoice date is accepted; see DueBeforeIssue.
func Validate(values models.FormValues) (models.Fields, FieldErrors) {
	values = normalize(values)

	errs := FieldErrors{}
	if err := validate.Struct(values); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs["form"] = err.Error()
			return models.Fields{}, errs
		}
		for _, fieldErr := range fieldErrs {
			errs[fieldErr.Field()] = messageFor(fieldErr)
		}
		return models.Fields{}, errs
	}

	// The validator has already accepted every value below.
	amount, _ := ParseAmount(values.Amount)
	date, _ := models.ParseDate(values.Date)
	dueDate, _ := models.ParseDate(values.DueDate)
	status, _ := models.ParseStatus(values.Status)

	return models.Fields{
		InvoiceNo: values.InvoiceNo,
		Customer:  values.Customer,
		Amount:    amount,
		Date:      date,
		DueDate:   dueDate,
		Status:    status,
		Notes:     values.Notes,
	}, nil
}

// DueBeforeIssue reports whether the due date precedes the invoice date.
// Callers may warn about it; it is not a validation failure.
func DueBeforeIssue(fields models.Fields) bool {
	if fields.Date.IsZero() || fields.DueDate.IsZero() {
		return false
	}
	return fields.DueDate.Day().Before(fields.Date.Day())
}

func normalize(values models.FormValues) models.FormValues {
	values.InvoiceNo = strings.TrimSpace(values.InvoiceNo)
	values.Customer = strings.TrimSpace(values.Customer)
	values.Amount = strings.TrimSpace(values.Amount)
	values.Date = strings.TrimSpace(values.Date)
	values.DueDate = strings.TrimSpace(values.DueDate)
	values.Status = strings.TrimSpace(values.Status)
	return values
}

func messageFor(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		if msg, ok := requiredMessages[fieldErr.Field()]; ok {
			return msg
		}
		return fieldErr.Field() + " is required"
	case "amount":
		return "Amount must be a valid non-negative number"
	case "calendardate":
		if fieldErr.Field() == FieldDueDate {
			return "Due date must be a valid date (YYYY-MM-DD)"
		}
		return "Date must be a valid date (YYYY-MM-DD)"
	case "invoicestatus":
		return "Status must be one of PAID, UNPAID, OVERDUE"
	}
	return fieldErr.Error()
}
