package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the built catalog to S3",
	Long: `Publish uploads new and changed files from the output directory to the
configured S3 bucket, deletes objects that no longer exist locally and
invalidates the CloudFront distribution when anything changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		if p.cfg.Publish.Bucket == "" {
			return errors.New("publish: no bucket configured (set publish.bucket)")
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = p.cfg.OutputDir
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(p.root, dir)
		}

		if buildFirst, _ := cmd.Flags().GetBool("build"); buildFirst {
			result, err := p.builder(build.Options{OutputDir: dir}).Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}
			printBuildResult(cmd, result)
		}

		clients, err := publish.NewClients(cmd.Context(), p.cfg.Publish)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		result, err := publish.Publish(cmd.Context(), publish.FromConfig(p.cfg.Publish, dryRun), dir, clients.S3, clients.CloudFront, p.log)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, a := range result.Actions {
			fmt.Fprintf(out, "  %-10s %s\n", a.Op, a.Key)
		}
		prefix := ""
		if dryRun {
			prefix = "(dry run) "
		}
		fmt.Fprintf(out, "%s%d uploaded, %d deleted, %d unchanged\n", prefix, result.Uploaded, result.Deleted, result.Skipped)
		if result.Invalidated {
			fmt.Fprintf(out, "%sCloudFront invalidation created\n", prefix)
		}
		return errors.Join(result.Errors...)
	},
}

func init() {
	publishCmd.Flags().Bool("dry-run", false, "show what would change without uploading")
	publishCmd.Flags().Bool("build", false, "build the catalog before publishing")
	publishCmd.Flags().String("dir", "", "directory to publish (default: output_dir from the config)")

	rootCmd.AddCommand(publishCmd)
}
