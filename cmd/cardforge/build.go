package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/cache"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the catalog",
	Long:  "Build renders every page to HTML and writes the pages, an index listing and a search index to the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, changedFlags(cmd, map[string]string{
			"workers":       "workers",
			"inline-images": "inline_images",
		}))
		if err != nil {
			return err
		}
		defer p.Close()

		drafts, _ := cmd.Flags().GetBool("drafts")
		dest, _ := cmd.Flags().GetString("destination")
		opts := build.Options{IncludeDrafts: drafts, OutputDir: dest}
		if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
			opts.Cache = cache.None{}
		}

		result, err := p.builder(opts).Build(cmd.Context())
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		printBuildResult(cmd, result)
		return nil
	},
}

func printBuildResult(cmd *cobra.Command, result *build.Result) {
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, page := range result.Pages {
		cached := ""
		if page.Cached {
			cached = "cached"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", page.File, page.Template, page.Theme, cached)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "\nBuild complete: %d pages (%d cached) in %s\n",
		result.PagesRendered, result.CacheHits, result.Duration.Round(time.Millisecond))
	if result.ImageErrors > 0 {
		fmt.Fprintf(out, "%d images could not be inlined; see the log for details\n", result.ImageErrors)
	}
	if result.StaticSkipped > 0 {
		fmt.Fprintf(out, "%d static files skipped: their paths belong to generated pages\n", result.StaticSkipped)
	}
}

func init() {
	buildCmd.Flags().Bool("drafts", false, "include draft pages")
	buildCmd.Flags().StringP("destination", "d", "", "output directory (default: output_dir from the config)")
	buildCmd.Flags().Int("workers", 0, "parallel render workers")
	buildCmd.Flags().Bool("inline-images", false, "inline page images as data URIs")
	buildCmd.Flags().Bool("no-cache", false, "render every page without the render cache")

	rootCmd.AddCommand(buildCmd)
}
