package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/internal/ui/details"
	"github.com/zjrosen/kinship/internal/ui/markdown"
)

var showWidth int

var showCmd = &cobra.Command{
	Use:   "show [document] <path>",
	Short: "Print the details of one entry",
	Long: `Print an entry's id, path, labels and attributes, followed by its
description rendered as markdown. Use "." for the root.

Examples:
  kinship show family.yaml mom/you
  kinship show --width 60 .`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showWidth, "width", "w", 80, "wrap width for the description")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	entryPath := rootPath(args[len(args)-1])
	path, err := documentPath(args[:len(args)-1])
	if err != nil {
		return err
	}
	if showWidth < 1 {
		return fmt.Errorf("--width must be positive")
	}
	doc, err := loadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}
	e, err := document.Lookup(doc, entryPath)
	if err != nil {
		return err
	}

	renderer, err := markdown.New(showWidth, cfg.UI.MarkdownStyle)
	if err != nil {
		log.ErrorErr(log.CatCLI, "Markdown renderer unavailable", err)
		renderer = nil
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n",
		details.Title(e, showWidth), details.Body(e, showWidth, renderer))
	return err
}
