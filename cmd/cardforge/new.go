package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create new content",
	Long:  "Create a new catalog project or a new page in the current catalog.",
}

var newCatalogCmd = &cobra.Command{
	Use:   "catalog <dir>",
	Short: "Create a new catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = filepath.Base(dir)
		}
		template, _ := cmd.Flags().GetString("template")
		theme, _ := cmd.Flags().GetString("theme")
		seed, _ := cmd.Flags().GetBool("seed")

		err := scaffold.NewCatalog(dir, scaffold.CatalogOptions{
			Title:    title,
			Template: template,
			Theme:    theme,
			Seed:     seed,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog created: %s/\n", dir)
		return nil
	},
}

var newPageCmd = &cobra.Command{
	Use:   "page <title>",
	Short: "Create a new page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentDir := pageContentDir(cmd)
		template, _ := cmd.Flags().GetString("template")
		theme, _ := cmd.Flags().GetString("theme")
		format, _ := cmd.Flags().GetString("format")
		draft, _ := cmd.Flags().GetBool("draft")
		order, _ := cmd.Flags().GetInt("order")

		path, err := scaffold.NewPage(contentDir, args[0], scaffold.PageOptions{
			Template: template,
			Theme:    theme,
			Format:   format,
			Draft:    draft,
			Order:    order,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Page created: %s\n", path)
		return nil
	},
}

// pageContentDir is the content directory of the catalog in the working
// directory, or "pages" when no configuration can be loaded.
func pageContentDir(cmd *cobra.Command) string {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "pages"
		}
		if configPath, err = config.Find(wd); err != nil {
			return "pages"
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "pages"
	}
	if filepath.IsAbs(cfg.ContentDir) {
		return cfg.ContentDir
	}
	return filepath.Join(filepath.Dir(configPath), cfg.ContentDir)
}

func init() {
	newCatalogCmd.Flags().String("title", "", "catalog title (default: the directory name)")
	newCatalogCmd.Flags().String("template", "", "default template id")
	newCatalogCmd.Flags().String("theme", "", "default theme id")
	newCatalogCmd.Flags().Bool("seed", false, "add one sample page per template")

	newPageCmd.Flags().String("template", "", "template id (default: industrial-product-alert)")
	newPageCmd.Flags().String("theme", "", "theme id for this page")
	newPageCmd.Flags().String("format", "yaml", "page file format: yaml or md")
	newPageCmd.Flags().Bool("draft", false, "mark the page as a draft")
	newPageCmd.Flags().Int("order", 0, "position of the page in the catalog")

	newCmd.AddCommand(newCatalogCmd)
	newCmd.AddCommand(newPageCmd)

	rootCmd.AddCommand(newCmd)
}
