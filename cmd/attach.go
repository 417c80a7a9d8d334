package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
	"invoicedesk/pkg/models"
)

var attachCmd = &cobra.Command{
	Use:   "attach <invoice-id> <file>...",
	Short: "Upload files to an existing invoice",
	Long: `Upload one or more PDF, PNG or JPEG files to an invoice.

Every file is checked before the first upload starts. Uploads run
concurrently (INVOICE_UPLOAD_WORKERS at a time); a failed upload does not
stop the others, and the invoice itself is never resubmitted.`,
	Example: `  invoicedesk attach 6f1c0a2e receipt.pdf delivery-note.png`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runAttach,
}

// uploadResult is the outcome of one upload, kept at its file's index.
type uploadResult struct {
	Index int
	Ref   models.AttachmentRef
	Err   error
}

func init() {
	rootCmd.AddCommand(attachCmd)

	attachCmd.Flags().Bool("json", false, "Print the invoice and uploads as JSON")
}

func runAttach(cmd *cobra.Command, args []string) error {
	id, paths := args[0], args[1:]
	log := logger.WithInvoiceID(id).With().Str("component", "attach").Logger()

	asJSON, _ := cmd.Flags().GetBool("json")

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

	if err := session.Board.Init(ctx); err != nil {
		return fmt.Errorf("failed to load invoices: %w", err)
	}
	inv, ok := session.Grid.Lookup(id)
	if !ok {
		return fmt.Errorf("invoice %q not found", id)
	}
	session.Coordinator.OpenView(inv)

	log.Info().
		Int("files", len(files)).
		Int("workers", cfg.UploadWorkers).
		Msg("Uploading attachments")

	results := make([]uploadResult, len(files))
	var g errgroup.Group
	g.SetLimit(cfg.UploadWorkers)
	for i, file := range files {
		g.Go(func() error {
			ref, _, err := session.Coordinator.Attach(ctx, file)
			results[i] = uploadResult{Index: i, Ref: ref, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	output := InvoiceOutput{Invoice: inv}
	var errs []error
	for _, result := range results {
		if result.Err != nil {
			output.Failed = append(output.Failed, files[result.Index].Name)
			errs = append(errs, result.Err)
			continue
		}
		if result.Ref.FileName == "" {
			result.Ref.FileName = files[result.Index].Name
		}
		output.Attachments = append(output.Attachments, result.Ref)
	}

	if err := printInvoice(cmd, grid.NewEngine(session.Grid.Formatter()), output, asJSON); err != nil {
		return err
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d attachment(s) failed: %w", len(errs), len(files), errors.Join(errs...))
	}
	return nil
}
