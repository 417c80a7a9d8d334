package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"invoicedesk/pkg/models"
)

// Badge is the visual class of a status.
type Badge string

const (
	BadgeSuccess Badge = "success"
	BadgeWarning Badge = "warning"
	BadgeDanger  Badge = "danger"
	BadgeNeutral Badge = "neutral"
)

// BadgeFor maps a status to its badge: paid is green, unpaid yellow and
// overdue red.
func BadgeFor(s models.Status) Badge {
	switch s {
	case models.StatusPaid:
		return BadgeSuccess
	case models.StatusUnpaid:
		return BadgeWarning
	case models.StatusOverdue:
		return BadgeDanger
	}
	return BadgeNeutral
}

// Display layouts.
const (
	DisplayDateLayout      = "2 Jan 2006"
	DisplayTimestampLayout = "2 Jan 2006 15:04"
)

// Default currency settings for the console.
const (
	DefaultCurrency = "NGN"
	DefaultLocale   = "en-NG"
)

// Formatter renders amounts and dates for display.
type Formatter struct {
	code    string
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a formatter for an ISO 4217 currency code and a BCP 47
// locale, e.g. "NGN" and "en-NG".
func NewFormatter(code, locale string) (Formatter, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return Formatter{}, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return Formatter{}, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return Formatter{code: unit.String(), unit: unit, printer: message.NewPrinter(tag)}, nil
}

// DefaultFormatter formats naira amounts for the en-NG locale.
func DefaultFormatter() Formatter {
	f, err := NewFormatter(DefaultCurrency, DefaultLocale)
	if err != nil {
		// Both values are compiled in; failing here means x/text lost its tables.
		panic(err)
	}
	return f
}

// Currency returns the ISO code of the formatter's currency.
func (f Formatter) Currency() string {
	if f.code == "" {
		return DefaultCurrency
	}
	return f.code
}

// maxExactCents bounds the cent values that survive a float64 round trip.
var maxExactCents = decimal.New(1, 15)

// Amount renders a currency amount with its symbol and locale grouping,
// e.g. "₦ 1,500.50". The zero Formatter falls back to "NGN 1500.50".
// Amounts too large for x/text's float path are printed from the decimal
// with the ISO code and comma grouping.
func (f Formatter) Amount(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	switch {
	case f.printer == nil:
		return f.Currency() + " " + rounded.StringFixed(2)
	case rounded.Shift(2).Abs().GreaterThanOrEqual(maxExactCents):
		return f.Currency() + " " + groupThousands(rounded.StringFixed(2))
	}
	return f.printer.Sprint(currency.NarrowSymbol(f.unit.Amount(rounded.InexactFloat64())))
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString("." + frac)
	}
	return b.String()
}

// Date renders a calendar date, or "-" when unset.
func (f Formatter) Date(d models.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Day().Format(DisplayDateLayout)
}

// Timestamp renders a server timestamp in local time, or "-" when unset.
func (f Formatter) Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DisplayTimestampLayout)
}
