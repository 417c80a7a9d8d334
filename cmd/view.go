package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
)

var viewCmd = &cobra.Command{
	Use:   "view <invoice-id>",
	Short: "Show one invoice",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().Bool("json", false, "Print the invoice as JSON")
}

func runView(cmd *cobra.Command, args []string) error {
	id := args[0]
	log := logger.WithInvoiceID(id).With().Str("component", "view").Logger()

	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	session, err := newSession(cfg, nil, log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(cmd.Context(), log)
	defer cancel()

	if err := session.Board.Init(ctx); err != nil {
		return fmt.Errorf("failed to load invoices: %w", err)
	}
	inv, ok := session.Grid.Lookup(id)
	if !ok {
		return fmt.Errorf("invoice %q not found", id)
	}

	return printInvoice(cmd, grid.NewEngine(session.Grid.Formatter()), InvoiceOutput{Invoice: inv}, asJSON)
}
