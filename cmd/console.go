package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"invoicedesk/internal/logger"
	"invoicedesk/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive invoice console",
	Long: `Open a full-screen invoice table with sorting, filtering, paging and
create/edit/view dialogs.

Logs that would go to the terminal are written to INVOICE_CONSOLE_LOG
(default invoicedesk.log) while the console is open.

Keys:
  j/k, ↑/↓      move the selection     ←/→        previous/next page
  n             new invoice            e          edit selected
  v, enter      view selected          a          attach to selected
  s / S         sort column/direction  f          cycle status filter
  d             date range filter      /          customer search
  c             clear filters          r          refresh
  u             retry failed uploads   q          quit

In a dialog: tab/shift+tab move between fields, ctrl+s saves, ctrl+a
attaches a file, esc closes.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the console needs an interactive terminal; use \"invoicedesk list\" in scripts")
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// Components capture the global logger when they are built, so the
	// redirect must happen before the session exists.
	if err := logger.Setup(cfg.GetConsoleLoggerConfig()); err != nil {
		return fmt.Errorf("failed to redirect console logs: %w", err)
	}
	log := logger.WithComponent("console")

	session, err := newSession(cfg, nil, log)
	if err != nil {
		return err
	}

	ctx, cancel := createCommandContext(cmd.Context(), log)
	defer cancel()

	log.Info().
		Str("base_url", cfg.BaseURL).
		Msg("Opening invoice console")

	program := tea.NewProgram(tui.New(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		log.Error().Err(err).Msg("Console exited with error")
		return fmt.Errorf("console failed: %w", err)
	}

	log.Info().Msg("Invoice console closed")
	return nil
}
