package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long:  "Print the fully resolved configuration after merging defaults, the config file and CARDFORGE_ environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, nil)
		if err != nil {
			return err
		}
		defer p.Close()

		cfg := *p.cfg
		if cfg.Cache.Password != "" {
			cfg.Cache.Password = "********"
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
