package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <invoice-id>",
	Short: "Update the fields of an existing invoice",
	Long: `Load the invoice, apply the given field flags and send the full set of
editable fields back to the server.

Fields without a flag keep their current values. The result is validated
exactly like the create dialog before anything is sent.`,
	Example: `  # Mark an invoice as paid
  invoicedesk edit 6f1c0a2e --status paid

  # Move the due date and add a note
  invoicedesk edit 6f1c0a2e --due-date 2024-04-15 --notes "extended per call"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	addFieldFlags(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	log := logger.WithInvoiceID(id).With().Str("component", "edit").Logger()

	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	session, err := newSession(cfg, cmd.ErrOrStderr(), log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(cmd.Context(), log)
	defer cancel()

	if err := session.Board.Init(ctx); err != nil {
		return fmt.Errorf("failed to load invoices: %w", err)
	}
	current, ok := session.Grid.Lookup(id)
	if !ok {
		return fmt.Errorf("invoice %q not found", id)
	}

	editing := session.Coordinator.OpenEdit(current)
	values := formValuesFromFlags(cmd, editing.Draft)
	if values == models.FormValuesFrom(current) {
		log.Info().Msg("No field flags given; sending current values")
	}

	saved, err := session.Coordinator.Submit(ctx, values)
	if err != nil {
		reportFieldErrors(cmd, err)
		return fmt.Errorf("invoice %s was not updated: %w", current.InvoiceNo, err)
	}

	return printInvoice(cmd, grid.NewEngine(session.Grid.Formatter()), InvoiceOutput{Invoice: saved}, asJSON)
}
