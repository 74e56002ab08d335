package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/zjrosen/kinship/internal/document"
	"github.com/zjrosen/kinship/internal/kql"
	"github.com/zjrosen/kinship/internal/log"
	"github.com/zjrosen/kinship/relational"
)

var (
	queryFrom  string
	queryCount bool
)

var queryCmd = &cobra.Command{
	Use:   "query [document] <query>",
	Short: "Run a KQL query against a document",
	Long: `Run a KQL query from an entry of a document and print the matches.

Queries have the form [find|has|assert] {selector} [where filter]. A find
query prints one match per line, has prints true or false, and assert fails
when nothing matches.

Examples:
  # Every place in the document
  kinship query family.yaml 'descendants where kind = place'

  # Relatives of an entry, using the configured default document
  kinship query --from mom/you 'siblings or parents'

  # Exit non-zero unless an elder exists
  kinship query family.yaml 'assert hierarchy where label = elder'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryFrom, "from", "f", "", "entry path the query runs from (default: root)")
	queryCmd.Flags().BoolVar(&queryCount, "count", false, "print the number of matches only")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	input := args[len(args)-1]
	path, err := documentPath(args[:len(args)-1])
	if err != nil {
		return err
	}
	doc, err := loadDocument(cmd.Context(), path)
	if err != nil {
		return err
	}
	source, err := document.Lookup(doc, queryFrom)
	if err != nil {
		return err
	}

	plan, err := kql.Compile(input)
	if err != nil {
		return err
	}
	result, err := plan.RunContext(cmd.Context(), source)
	if err != nil {
		return err
	}
	log.Debug(log.CatCLI, "Query finished", "query", plan.String(), "from", source.Path(), "matches", len(result.Nodes))

	out := cmd.OutOrStdout()
	if plan.Query().Action == kql.TokenHas {
		_, err := fmt.Fprintln(out, result.Found)
		return err
	}
	if queryCount {
		_, err := fmt.Fprintln(out, len(result.Nodes))
		return err
	}
	return printEntries(out, result.Nodes)
}

// printEntries writes one "path name kind" row per entry, aligned in
// borderless columns. The root path is shown as ".".
func printEntries(out io.Writer, nodes []relational.Node) error {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowSeparator("")
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, n := range nodes {
		e, ok := n.(*document.Entry)
		if !ok {
			continue
		}
		path := e.Path()
		if path == "" {
			path = "."
		}
		table.Append([]string{path, e.String(), e.Kind})
	}
	if table.NumLines() > 0 {
		table.Render()
	}
	return nil
}
