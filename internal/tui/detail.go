package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"invoicedesk/internal/grid"
	"invoicedesk/pkg/models"
)

// renderDetail renders the read-only view dialog for row. uploaded lists
// attachments confirmed in this session; pending lists file names whose
// upload failed and can be retried.
func renderDetail(row grid.Row, uploaded []models.AttachmentRef, pending []string, now time.Time, theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.header().Render("Invoice " + row.InvoiceNo))
	b.WriteString("  ")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.BadgeColor(row.Badge)).Render(row.StatusLabel))
	b.WriteString("\n\n")

	line := func(label, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", label+":", value)
	}
	line("Customer", row.Customer)
	line("Amount", row.AmountText)
	line("Date", row.DateText)
	line("Due date", row.DueDateText)
	line("Created", relative(row.Invoice.CreatedAt, row.CreatedText, now))
	line("Updated", relative(row.Invoice.UpdatedAt, row.UpdatedText, now))

	if notes := strings.TrimSpace(row.Invoice.Notes); notes != "" {
		b.WriteString("\n" + theme.faint().Render("Notes") + "\n")
		b.WriteString(notes + "\n")
	}

	if len(uploaded) > 0 || len(pending) > 0 {
		b.WriteString("\n" + theme.faint().Render("Attachments") + "\n")
		for _, ref := range uploaded {
			size := ""
			if ref.Size > 0 {
				size = " (" + humanize.Bytes(uint64(ref.Size)) + ")"
			}
			fmt.Fprintf(&b, "  %s%s\n", ref.FileName, size)
		}
		for _, name := range pending {
			fmt.Fprintf(&b, "  %s %s\n", name, theme.errorText().Render("upload failed, press u to retry"))
		}
	}
	return theme.dialog().Render(strings.TrimRight(b.String(), "\n"))
}

// relative renders a timestamp with its distance from now, e.g.
// "2 Jan 2024 15:04 (3 days ago)".
func relative(t time.Time, text string, now time.Time) string {
	if t.IsZero() {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, humanize.RelTime(t, now, "ago", "from now"))
}
