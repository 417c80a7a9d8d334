package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/invoice"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an invoice",
	Long: `Validate the given fields and create an invoice on the server.

All fields except --notes are required. Input is checked locally first;
nothing is sent until every field is valid. Files given with --attach are
uploaded after the server has assigned the new invoice an id. A failed
upload does not undo the invoice.`,
	Example: `  invoicedesk create --invoice-no INV-100 --customer "Acme Ltd" \
    --amount 250.50 --date 2024-01-01 --due-date 2024-01-31 --status unpaid \
    --attach receipt.pdf`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	addFieldFlags(createCmd)
	createCmd.Flags().StringSlice("attach", nil, "File to upload after creation (PDF, PNG or JPEG); repeatable")
}

func runCreate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("create")

	asJSON, _ := cmd.Flags().GetBool("json")
	paths, _ := cmd.Flags().GetStringSlice("attach")

	values := formValuesFromFlags(cmd, models.FormValues{})
	files, err := loadAttachments(paths)
	if err != nil {
		return err
	}

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

	coordinator := session.Coordinator
	coordinator.OpenCreate()
	for _, file := range files {
		if _, _, err := coordinator.Attach(ctx, file); err != nil {
			return err
		}
	}

	log.Info().
		Str("invoice_no", values.InvoiceNo).
		Int("attachments", len(files)).
		Msg("Creating invoice")

	saved, err := coordinator.Submit(ctx, values)
	if err != nil && saved.ID == "" {
		reportFieldErrors(cmd, err)
		return fmt.Errorf("invoice was not created: %w", err)
	}

	output := InvoiceOutput{
		Invoice:     saved,
		Attachments: coordinator.Attachments(saved.ID),
		Failed:      coordinator.PendingUploads()[saved.ID],
	}
	if perr := printInvoice(cmd, grid.NewEngine(session.Grid.Formatter()), output, asJSON); perr != nil {
		return perr
	}

	if err != nil {
		log.Warn().
			Err(err).
			Str("invoice_id", saved.ID).
			Msg("Invoice created but some attachments failed")
		if invoice.IsUpload(err) {
			return fmt.Errorf("invoice %s was created but %d attachment(s) failed; retry with \"invoicedesk attach %s <file>\": %w",
				saved.InvoiceNo, len(output.Failed), saved.ID, err)
		}
		return err
	}
	return nil
}
