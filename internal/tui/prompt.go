package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"invoicedesk/internal/grid"
	"invoicedesk/pkg/models"
)

// promptKind identifies what a single-line prompt collects.
type promptKind int

const (
	promptAttach promptKind = iota
	promptDateRange
	promptSearch
)

// promptModel is a one-line input shown above the help bar.
type promptModel struct {
	kind  promptKind
	input textinput.Model
}

func newPrompt(kind promptKind, value string) promptModel {
	input := textinput.New()
	input.CharLimit = 1024
	switch kind {
	case promptAttach:
		input.Prompt = "Attach file: "
		input.Placeholder = "path to PDF, PNG or JPG"
	case promptDateRange:
		input.Prompt = "Date range: "
		input.Placeholder = "YYYY-MM-DD..YYYY-MM-DD (either side optional, empty clears)"
	case promptSearch:
		input.Prompt = "Customer: "
		input.Placeholder = "substring, empty clears"
	}
	input.SetValue(value)
	input.Focus()
	return promptModel{kind: kind, input: input}
}

func (p promptModel) value() string {
	return strings.TrimSpace(p.input.Value())
}

// parseDateRange parses "from..to" where either bound may be omitted. A
// single date without ".." selects that one day.
func parseDateRange(s string) (from, to time.Time, err error) {
	s = strings.TrimSpace(s)
	fromText, toText, isRange := strings.Cut(s, "..")
	if !isRange {
		toText = fromText
	}

	parse := func(text string) (time.Time, error) {
		text = strings.TrimSpace(text)
		if text == "" {
			return time.Time{}, nil
		}
		d, err := models.ParseDate(text)
		if err != nil {
			return time.Time{}, err
		}
		return d.Day(), nil
	}

	if from, err = parse(fromText); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = parse(toText); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.IsZero() && to.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("date range %q has no bounds", s)
	}
	return from, to, nil
}

// dateRangeText renders an active date filter back into prompt syntax.
func dateRangeText(f grid.DateRangeFilter) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(models.DateLayout)
	}
	return format(f.From) + ".." + format(f.To)
}
