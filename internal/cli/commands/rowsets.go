package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapxmla/internal/rowset"
	"github.com/spf13/cobra"
)

// NewRowsetsCommand creates the rowsets command.
func NewRowsetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rowsets",
		Short: "List the supported rowset kinds",
		Long:  `List every Discover request type with the columns it can be restricted by.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Request type", "Restrictions", "Description"})
			for _, d := range rowset.Definitions() {
				var cols []string
				for _, c := range d.RestrictableColumns() {
					cols = append(cols, c.Name)
				}
				t.AppendRow(table.Row{d.Name, strings.Join(cols, "\n"), d.Description})
			}
			t.Render()
		},
	}
}
