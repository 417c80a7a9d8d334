package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"invoicedesk/internal/console"
	"invoicedesk/internal/invoice"
	"invoicedesk/pkg/models"
)

// formField is one input of the create/edit dialog.
type formField struct {
	name        string // JSON field name, matches invoice.FieldErrors keys
	label       string
	placeholder string
}

var formFields = []formField{
	{invoice.FieldInvoiceNo, "Invoice #", "INV-001"},
	{invoice.FieldCustomer, "Customer", "Customer name"},
	{invoice.FieldAmount, "Amount", "0.00"},
	{invoice.FieldDate, "Date", "YYYY-MM-DD"},
	{invoice.FieldDueDate, "Due date", "YYYY-MM-DD"},
	{invoice.FieldStatus, "Status", ""},
	{invoice.FieldNotes, "Notes", "Optional"},
}

// statusField is the index of the status selector in formFields.
const statusField = 5

// statusChoices are the selector values; "" means no status chosen yet.
var statusChoices = []string{"", string(models.StatusPaid), string(models.StatusUnpaid), string(models.StatusOverdue)}

// formModel is the create/edit dialog. Text fields use textinput; the
// status field is a selector cycled with ←/→ or space.
type formModel struct {
	title  string
	inputs []textinput.Model
	status int
	focus  int
}

func newForm(editing console.Editing) formModel {
	title := "New invoice"
	if !editing.IsCreate() {
		title = "Edit invoice " + editing.Invoice.InvoiceNo
	}

	form := formModel{title: title}
	values := fieldValues(editing.Draft)
	form.inputs = make([]textinput.Model, len(formFields))
	for i, field := range formFields {
		input := textinput.New()
		input.Prompt = ""
		input.Placeholder = field.placeholder
		input.CharLimit = 256
		input.SetValue(values[field.name])
		form.inputs[i] = input
	}
	form.status = statusIndex(editing.Draft.Status)
	form.inputs[0].Focus()
	return form
}

func fieldValues(v models.FormValues) map[string]string {
	return map[string]string{
		invoice.FieldInvoiceNo: v.InvoiceNo,
		invoice.FieldCustomer:  v.Customer,
		invoice.FieldAmount:    v.Amount,
		invoice.FieldDate:      v.Date,
		invoice.FieldDueDate:   v.DueDate,
		invoice.FieldNotes:     v.Notes,
	}
}

func statusIndex(status string) int {
	parsed, err := models.ParseStatus(status)
	if err != nil {
		return 0
	}
	for i, choice := range statusChoices {
		if choice == string(parsed) {
			return i
		}
	}
	return 0
}

// values returns the raw dialog input.
func (form formModel) values() models.FormValues {
	return models.FormValues{
		InvoiceNo: form.inputs[0].Value(),
		Customer:  form.inputs[1].Value(),
		Amount:    form.inputs[2].Value(),
		Date:      form.inputs[3].Value(),
		DueDate:   form.inputs[4].Value(),
		Status:    statusChoices[form.status],
		Notes:     form.inputs[6].Value(),
	}
}

func (form *formModel) setFocus(index int) tea.Cmd {
	n := len(formFields)
	index = ((index % n) + n) % n
	form.inputs[form.focus].Blur()
	form.focus = index
	if index == statusField {
		return nil
	}
	return form.inputs[index].Focus()
}

// update handles keys that edit the form. Submit and dismiss are handled
// by the parent model.
func (form formModel) update(message tea.KeyMsg, keys KeyMap) (formModel, tea.Cmd) {
	switch {
	case key.Matches(message, keys.NextField):
		return form, form.setFocus(form.focus + 1)
	case key.Matches(message, keys.PrevField):
		return form, form.setFocus(form.focus - 1)
	}

	if form.focus == statusField {
		switch message.String() {
		case "right", "l", " ":
			form.status = (form.status + 1) % len(statusChoices)
		case "left", "h":
			form.status = (form.status - 1 + len(statusChoices)) % len(statusChoices)
		case "p", "P":
			form.status = 1
		case "u", "U":
			form.status = 2
		case "o", "O":
			form.status = 3
		}
		return form, nil
	}

	var cmd tea.Cmd
	form.inputs[form.focus], cmd = form.inputs[form.focus].Update(message)
	return form, cmd
}

// view renders the dialog with inline field errors from editing.
func (form formModel) view(editing console.Editing, theme Theme) string {
	var b strings.Builder
	b.WriteString(theme.header().Render(form.title))
	b.WriteString("\n\n")

	for i, field := range formFields {
		marker := "  "
		if i == form.focus {
			marker = "› "
		}
		var value string
		if i == statusField {
			value = renderStatusChoice(form.status, theme)
		} else {
			value = form.inputs[i].View()
		}
		fmt.Fprintf(&b, "%s%-10s %s\n", marker, field.label+":", value)
		if msg, ok := editing.Errors[field.name]; ok {
			b.WriteString("  " + strings.Repeat(" ", 11) + theme.errorText().Render(msg) + "\n")
		}
	}

	if general, ok := editing.Errors["form"]; ok {
		b.WriteString("\n" + theme.errorText().Render(general) + "\n")
	}

	if len(editing.Staged) > 0 {
		b.WriteString("\n" + theme.faint().Render("Attachments (uploaded after save):") + "\n")
		for _, file := range editing.Staged {
			fmt.Fprintf(&b, "  %s (%s)\n", file.Name, file.HumanSize())
		}
	}

	if editing.Submitting {
		b.WriteString("\n" + theme.faint().Render("Saving…"))
	}
	return theme.dialog().Render(strings.TrimRight(b.String(), "\n"))
}

func renderStatusChoice(index int, theme Theme) string {
	if statusChoices[index] == "" {
		return theme.faint().Render("‹ Select status ›")
	}
	status := models.Status(statusChoices[index])
	return "‹ " + status.Label() + " ›"
}
