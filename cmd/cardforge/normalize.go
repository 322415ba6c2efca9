package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aellingwood/cardforge/internal/content"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Print the normalized form of a page",
	Long: `Normalize reads a page file, or a raw content document from stdin, and
prints the canonical document every renderer consumes: legacy aliases
folded, numbers and booleans coerced, defaults applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var doc *content.Document
		if len(args) == 1 {
			page, err := content.LoadPageFile(args[0])
			if err != nil {
				return err
			}
			doc = page.Content
		} else {
			format, _ := cmd.Flags().GetString("format")
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			raw, err := content.DecodeData("."+format, data)
			if err != nil {
				return err
			}
			doc = content.Normalize(raw)
		}

		out := cmd.OutOrStdout()
		switch output, _ := cmd.Flags().GetString("output"); output {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Map())
		case "yaml", "yml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc.Map())
		default:
			return fmt.Errorf("unknown output format %q (want json or yaml)", output)
		}
	},
}

func init() {
	normalizeCmd.Flags().String("format", "yaml", "stdin format: yaml, json or toml")
	normalizeCmd.Flags().StringP("output", "o", "yaml", "output format: json or yaml")

	rootCmd.AddCommand(normalizeCmd)
}
