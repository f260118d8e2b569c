package cmd

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"merchingest/internal/config"
	"merchingest/internal/source"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Prints the sources the crawler knows about.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := source.Load(config.Load().SourcesFile)
		if err != nil {
			return err
		}
		renderSources(cmd.OutOrStdout(), reg)
		return nil
	},
}

func renderSources(w io.Writer, reg *source.Registry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Name", "Kind", "Enabled", "Categories", "Rate limit"})
	for _, d := range reg.All() {
		t.AppendRow(table.Row{d.Key, d.Name, d.Kind, d.Enabled, strings.Join(d.Categories, ", "), d.RateLimit})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
