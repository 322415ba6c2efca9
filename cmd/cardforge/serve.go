package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview server",
	Long:  "Start a local preview server that renders pages on request and reloads the browser when page files or templates change.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(cmd, changedFlags(cmd, map[string]string{
			"port": "port",
			"bind": "host",
		}))
		if err != nil {
			return err
		}
		defer p.Close()

		noLiveReload, _ := cmd.Flags().GetBool("no-live-reload")
		drafts, _ := cmd.Flags().GetBool("drafts")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		b := p.builder(build.Options{IncludeDrafts: drafts})
		srv := server.NewServer(b, server.ServeOptions{
			Port:         p.cfg.Server.Port,
			Bind:         p.cfg.Server.Host,
			NoLiveReload: noLiveReload || !p.cfg.Server.LiveReload,
			Debounce:     debounce,
		}, p.log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		p.log.Info().Msg("preview server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 1414, "server port")
	serveCmd.Flags().String("bind", "localhost", "bind address")
	serveCmd.Flags().Bool("no-live-reload", false, "disable live reload")
	serveCmd.Flags().Bool("drafts", false, "include draft pages")
	serveCmd.Flags().Duration("debounce", 0, "delay before a file change triggers a reload (default 150ms)")

	rootCmd.AddCommand(serveCmd)
}
