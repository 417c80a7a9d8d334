package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicedesk/internal/config"
	"invoicedesk/internal/console"
	"invoicedesk/internal/gateway"
	"invoicedesk/internal/grid"
	"invoicedesk/internal/logger"
)

var version = "1.0.0"

// appConfig is the configuration resolved by main before Execute.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicedesk",
	Short: "invoicedesk - browse and manage invoices on a remote invoice API",
	Long: `invoicedesk is a terminal client for a remote invoice API.

Run "invoicedesk console" for the interactive invoice table with sorting,
filtering, paging and create/edit/view dialogs, or use the list, view,
create, edit and attach subcommands from scripts.

The API location comes from INVOICE_API_BASE_URL, the YAML file named by
INVOICEDESK_CONFIG, or the --base-url flag.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the command tree with cfg and returns the process exit code.
func Execute(cfg *config.Config) int {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Debug().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().String("base-url", "", "Invoice API base URL (overrides INVOICE_API_BASE_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-request timeout, e.g. 10s (overrides INVOICE_API_TIMEOUT)")
}

// resolveConfig applies the persistent flags to a copy of the loaded
// configuration and checks that the API is reachable by address.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if appConfig != nil {
		cfg = *appConfig
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		if err := cfg.SetBaseURL(baseURL); err != nil {
			return cfg, err
		}
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	if err := cfg.RequireBaseURL(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newSession builds a console session against the API named by cfg.
// Notifications are echoed to out as one line each.
func newSession(cfg config.Config, out io.Writer, log zerolog.Logger) (*console.Session, error) {
	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: "invoicedesk/" + version,
	}, gateway.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice gateway: %w", err)
	}

	formatter, err := grid.NewFormatter(cfg.Currency, cfg.Locale)
	if err != nil {
		return nil, err
	}

	sessionConfig := console.SessionConfig{
		PageSize:      cfg.PageSize,
		Formatter:     &formatter,
		UploadWorkers: cfg.UploadWorkers,
	}
	if out != nil {
		sessionConfig.Notifier = printNotifier(out)
	}

	log.Debug().
		Str("base_url", cfg.BaseURL).
		Dur("timeout", cfg.Timeout).
		Int("page_size", cfg.PageSize).
		Msg("Session configured")

	return console.NewSession(gw, sessionConfig), nil
}

// printNotifier writes warnings and successes to out. Errors are left to
// the command's returned error so they are not printed twice.
func printNotifier(out io.Writer) console.Notifier {
	return console.NotifierFunc(func(n console.Notification) {
		switch n.Level {
		case console.LevelSuccess:
			fmt.Fprintf(out, "✓ %s: %s\n", n.Title, n.Message)
		case console.LevelWarning:
			fmt.Fprintf(out, "! %s: %s\n", n.Title, n.Message)
		}
	})
}

// createCommandContext returns a context canceled on SIGINT or SIGTERM.
func createCommandContext(parent context.Context, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}
