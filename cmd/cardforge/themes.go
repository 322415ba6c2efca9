package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/theme"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the available themes",
	Long:  "List the built-in theme presets together with any themes defined in the catalog configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		set := theme.NewSet(nil)
		defaultID := theme.DefaultID
		if p, err := openProject(cmd, nil); err == nil {
			set = p.cfg.ThemeSet()
			defaultID = p.cfg.DefaultTheme
			p.Close()
		}
		themes := set.All()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(themes)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, t := range themes {
			marker := ""
			if t.ID == defaultID {
				marker = "(default)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.PrimaryColor, t.AccentColor, marker)
		}
		return tw.Flush()
	},
}

func init() {
	themesCmd.Flags().Bool("json", false, "print JSON")

	rootCmd.AddCommand(themesCmd)
}
