package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pages as PDF, PNG or HTML",
	Long: `Export renders the selected pages and sends them to the rasterizer
service for every selected preset. The results are written to a ZIP
archive named after the catalog and the date.

With exactly one page and one preset and an --output that does not end in
.zip, the single file is written directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, changedFlags(cmd, map[string]string{
			"rasterizer": "rasterizer_url",
		}))
		if err != nil {
			return err
		}
		defer p.Close()

		presets, _ := cmd.Flags().GetStringSlice("preset")
		pageIDs, _ := cmd.Flags().GetStringSlice("page")
		htmlOnly, _ := cmd.Flags().GetBool("html")
		drafts, _ := cmd.Flags().GetBool("drafts")
		output, _ := cmd.Flags().GetString("output")

		b := p.builder(build.Options{IncludeDrafts: drafts})
		exporter := export.New(b, nil, p.log)

		if len(pageIDs) == 1 && len(presets) == 1 && !htmlOnly && output != "" && !strings.EqualFold(filepath.Ext(output), ".zip") {
			return exportSingle(cmd, b, exporter, pageIDs[0], presets[0], output)
		}

		if output == "" {
			output = export.FileName(p.cfg.Title, time.Now(), "export", "catalog", "zip")
		}
		var buf bytes.Buffer
		result, err := exporter.ExportCatalog(cmd.Context(), &buf, export.Options{
			Presets:  presets,
			PageIDs:  pageIDs,
			HTMLOnly: htmlOnly,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}

		out := cmd.OutOrStdout()
		for _, it := range result.Items {
			if it.Err != nil {
				fmt.Fprintf(out, "  failed  %s (%s): %v\n", it.Label, it.Preset, it.Err)
				continue
			}
			fmt.Fprintf(out, "  %s (%d bytes)\n", it.Name, it.Size)
		}
		fmt.Fprintf(out, "Export written to %s: %d files, %d failed\n", output, len(result.Items)-result.Failed, result.Failed)
		if result.Failed > 0 {
			return fmt.Errorf("%d exports failed", result.Failed)
		}
		return nil
	},
}

func exportSingle(cmd *cobra.Command, b *build.Builder, exporter *export.Exporter, pageID, presetID, output string) error {
	pages, err := b.PublishedPages()
	if err != nil {
		return err
	}
	var page *content.Page
	for _, candidate := range pages {
		if candidate.ID == pageID {
			page = candidate
			break
		}
	}
	if page == nil {
		return fmt.Errorf("page %q not found", pageID)
	}

	data, err := exporter.ExportPage(cmd.Context(), page, presetID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s) to %s\n", page.Label(), presetID, output)
	return nil
}

func init() {
	exportCmd.Flags().StringSlice("preset", nil, "export preset ids (default: a4-pdf); repeatable")
	exportCmd.Flags().StringSlice("page", nil, "page ids to export (default: all pages); repeatable")
	exportCmd.Flags().Bool("html", false, "export rendered HTML without the rasterizer")
	exportCmd.Flags().Bool("drafts", false, "include draft pages")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: {catalog}_{date}_export_catalog.zip)")
	exportCmd.Flags().String("rasterizer", "", "rasterizer service URL")

	rootCmd.AddCommand(exportCmd)
}
