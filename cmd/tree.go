package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/ui/tree"
)

var (
	treeFrom string
	treeIDs  bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [document]",
	Short: "Print a document as a tree",
	Long: `Print a document, or the subtree at --from, as an indented tree.

Examples:
  # Whole document
  kinship tree family.yaml

  # One branch, with entry ids
  kinship tree family.yaml --from mom/you --ids`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVarP(&treeFrom, "from", "f", "", "entry path to start from (e.g. mom/you)")
	treeCmd.Flags().BoolVar(&treeIDs, "ids", false, "show entry ids")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	path, err := documentPath(args)
	if err != nil {
		return err
	}
	doc, err := loadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}
	from, err := document.Lookup(doc, treeFrom)
	if err != nil {
		return err
	}

	opts := tree.Options{ShowKeys: cfg.UI.ShowKeys, ShowIDs: cfg.UI.ShowIDs || treeIDs}
	_, err = fmt.Fprint(cmd.OutOrStdout(), tree.Render(from, opts))
	return err
}
