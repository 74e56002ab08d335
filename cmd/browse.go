package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/app"
)

var browseCmd = &cobra.Command{
	Use:   "browse [document]",
	Short: "Open the interactive tree browser",
	Long: `Open the interactive tree browser.

Move with j/k, focus an entry with l, go back with backspace and press / to
run a query from the selected entry. Tab cycles through the configured views
and i shows the details of the selected entry.
The document is reloaded when it changes on disk unless --no-auto-refresh
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic reload when the document changes")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	path, err := documentPath(args)
	if err != nil {
		return err
	}
	doc, err := loadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}

	// Handle --no-auto-refresh flag (negated logic)
	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	model, err := app.NewWithConfig(doc, cfg, path, configPath())
	if err != nil {
		return fmt.Errorf("invalid keybindings: %w", err)
	}

	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	}
	if cfg.UI.Mouse {
		zone.NewGlobal()
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)
	_, err = p.Run()

	// Clean up watcher resources
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
