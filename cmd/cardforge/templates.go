package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	tmpl "github.com/aellingwood/cardforge/internal/template"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the built-in templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos := tmpl.List()
		if category, _ := cmd.Flags().GetString("category"); category != "" {
			if !slices.Contains(tmpl.Categories, tmpl.Category(category)) {
				return fmt.Errorf("unknown category %q (want one of %v)", category, tmpl.Categories)
			}
			infos = tmpl.ByCategory(tmpl.Category(category))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, info := range infos {
			marker := ""
			if info.ID == tmpl.DefaultID {
				marker = "(default)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Category, info.Name, marker)
		}
		return tw.Flush()
	},
}

func init() {
	templatesCmd.Flags().String("category", "", "only list templates in this category")
	templatesCmd.Flags().Bool("json", false, "print JSON")

	rootCmd.AddCommand(templatesCmd)
}
