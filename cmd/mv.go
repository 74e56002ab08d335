package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/ui/styles"
)

var (
	mvKey    string
	mvDryRun bool
)

var mvCmd = &cobra.Command{
	Use:   "mv <document> <from> <to>",
	Short: "Move an entry under another entry",
	Long: `Move the entry at <from> so it becomes a child of the entry at <to>,
then save the document. Use "." for the root. The entry keeps its key
unless --as is given. With --dry-run the change is printed as a diff of
the document and nothing is written.

Examples:
  kinship mv family.yaml mom/you uncle
  kinship mv family.yaml mom/you . --as cousin
  kinship mv --dry-run family.yaml house mom`,
	Args: cobra.ExactArgs(3),
	RunE: runMove,
}

func init() {
	mvCmd.Flags().StringVar(&mvKey, "as", "", "new child key")
	mvCmd.Flags().BoolVarP(&mvDryRun, "dry-run", "n", false, "print the resulting diff without saving")
	rootCmd.AddCommand(mvCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	path, from, to := args[0], rootPath(args[1]), rootPath(args[2])
	doc, err := loadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}
	before, err := document.Marshal(doc)
	if err != nil {
		return err
	}

	moved, err := document.Move(doc, from, to, mvKey)
	if err != nil {
		return err
	}

	if mvDryRun {
		after, err := document.Marshal(doc)
		if err != nil {
			return err
		}
		return printDiff(cmd.OutOrStdout(), document.DiffLines(string(before), string(after)))
	}
	if err := saveDocument(cmd.Context(), path, doc); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "moved %s to %s\n", from, moved.Path())
	return err
}

func rootPath(p string) string {
	if p == "." {
		return ""
	}
	return p
}

var (
	diffAddedStyle   = lipgloss.NewStyle().Foreground(styles.StatusSuccessColor)
	diffDeletedStyle = lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
)

// printDiff writes changed lines with unified diff markers. Context lines
// are muted.
func printDiff(out io.Writer, lines []document.DiffLine) error {
	for _, l := range lines {
		text := l.Prefix() + " " + l.Text
		switch l.Type {
		case document.LineAdded:
			text = diffAddedStyle.Render(text)
		case document.LineDeleted:
			text = diffDeletedStyle.Render(text)
		default:
			text = styles.MutedStyle.Render(text)
		}
		if _, err := fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	return nil
}
