package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/content"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog pages",
	Long:  "List catalog pages in catalog order: all pages or only drafts.",
}

var listPagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List every page, drafts included",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPages(cmd, func(*content.Page) bool { return true }, "No pages found.")
	},
}

var listDraftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List draft pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listPages(cmd, func(p *content.Page) bool { return p.Draft }, "No draft pages found.")
	},
}

func listPages(cmd *cobra.Command, keep func(*content.Page) bool, empty string) error {
	p, err := openProject(cmd, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	b := p.builder(build.Options{IncludeDrafts: true})
	pages, err := b.LoadPages()
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}

	var selected []*content.Page
	for _, page := range pages {
		if keep(page) {
			selected = append(selected, page)
		}
	}
	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), empty)
		return nil
	}
	printPageList(cmd, b, selected)
	return nil
}

// printPageList prints a table of pages with order, id, template, theme
// and label.
func printPageList(cmd *cobra.Command, b *build.Builder, pages []*content.Page) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tID\tTEMPLATE\tTHEME\tLABEL")
	for _, page := range pages {
		label := page.Label()
		if page.Draft {
			label += " (draft)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			page.Order, page.ID, page.TemplateID(b.Config().DefaultTemplate), b.ThemeID(page), label)
	}
	_ = tw.Flush()
}

func init() {
	listCmd.AddCommand(listPagesCmd)
	listCmd.AddCommand(listDraftsCmd)

	rootCmd.AddCommand(listCmd)
}
