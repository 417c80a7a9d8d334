package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"PAID", "paid", " Paid "} {
		s, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, StatusPaid, s)
	}
	_, err := ParseStatus("VOID")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestStatus_UnmarshalRejectsUnknown(t *testing.T) {
	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"OVERDUE"`), &s))
	assert.Equal(t, StatusOverdue, s)

	assert.Error(t, json.Unmarshal([]byte(`"overdue"`), &s), "wire values are exact")
	assert.Error(t, json.Unmarshal([]byte(`"CANCELLED"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`3`), &s))
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-31T00:00:00.000Z"`), &d))
	assert.Equal(t, "2024-01-31", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-01-31"`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-31T15:04:05+01:00"`), &d))
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), d.Day())
	assert.Equal(t, "2024-01-31T15:04:05+01:00", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	out, err = json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
}

func TestInvoice_DecodeAPIResponse(t *testing.T) {
	body := `{
		"id": "3f1c",
		"invoiceNo": "INV-100",
		"date": "2024-01-01T00:00:00.000Z",
		"dueDate": "2024-01-31T00:00:00.000Z",
		"customer": "Acme",
		"amount": "250.50",
		"status": "UNPAID",
		"createdAt": "2024-01-01T10:00:00.000Z",
		"updatedAt": "2024-01-02T11:30:00.000Z"
	}`

	var inv Invoice
	require.NoError(t, json.Unmarshal([]byte(body), &inv))
	assert.Equal(t, "3f1c", inv.ID)
	assert.True(t, decimal.RequireFromString("250.50").Equal(inv.Amount))
	assert.Equal(t, "", inv.Notes)
	assert.Equal(t, 11, inv.UpdatedAt.Hour())
}

func TestFields_MarshalAmountAsNumber(t *testing.T) {
	f := Fields{
		InvoiceNo: "INV-100",
		Customer:  "Acme",
		Amount:    decimal.RequireFromString("250.50"),
		Date:      NewDate(2024, time.January, 1),
		DueDate:   NewDate(2024, time.January, 31),
		Status:    StatusUnpaid,
	}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"invoiceNo": "INV-100",
		"customer": "Acme",
		"amount": 250.5,
		"date": "2024-01-01",
		"dueDate": "2024-01-31",
		"status": "UNPAID",
		"notes": ""
	}`, string(out))
}

func TestInvoice_MarshalOmitsUnsetTimestamps(t *testing.T) {
	inv := Invoice{ID: "a", Amount: decimal.NewFromInt(5), Status: StatusPaid}
	out, err := json.Marshal(inv)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, 5.0, m["amount"])
	assert.NotContains(t, m, "createdAt")
	assert.NotContains(t, m, "notes")
}

func TestFormValuesFrom(t *testing.T) {
	inv := Invoice{
		ID:        "a",
		InvoiceNo: "INV-7",
		Customer:  "Globex",
		Amount:    decimal.RequireFromString("12.30"),
		Date:      Date{time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)},
		Status:    StatusOverdue,
		Notes:     "call first",
	}
	v := FormValuesFrom(inv)
	assert.Equal(t, "12.3", v.Amount)
	assert.Equal(t, "2024-05-02", v.Date)
	assert.Equal(t, "", v.DueDate)
	assert.Equal(t, "OVERDUE", v.Status)
	assert.Equal(t, "call first", v.Notes)
	assert.Equal(t, inv.Fields().Customer, v.Customer)
}

func TestFormValuesFrom_KeepsDateTimes(t *testing.T) {
	date := Date{time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)}
	dueDate := Date{time.Date(2024, time.February, 15, 0, 0, 0, 0, time.FixedZone("", 3600))}
	v := FormValuesFrom(Invoice{Date: date, DueDate: dueDate})

	assert.Equal(t, "2024-01-15T10:30:00Z", v.Date)
	assert.Equal(t, "2024-02-15T00:00:00+01:00", v.DueDate)

	parsed, err := ParseDate(v.DueDate)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(dueDate.Time))
}
