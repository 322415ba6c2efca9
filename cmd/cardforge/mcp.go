package main

import (
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/logger"
	"github.com/aellingwood/cardforge/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server over stdio",
	Long:  "Start an MCP (Model Context Protocol) server over stdio, letting AI clients list templates and themes, inspect pages and render them.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("source")
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	// stdout carries the protocol, so logs go to stderr only.
	level := "warn"
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log, closer := logger.New(cmd.ErrOrStderr(), logger.Options{Level: level})
	defer closer.Close()

	srv := mcpserver.New(dir, version, log)
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}

func init() {
	mcpCmd.Flags().String("source", "", "catalog root directory (default: current directory)")
	rootCmd.AddCommand(mcpCmd)
}
