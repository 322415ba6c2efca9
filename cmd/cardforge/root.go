package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/cache"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "cardforge",
	Short:         "A catalog and card design studio",
	Long:          "Cardforge renders product catalogs, posters, data sheets and cards from structured page files.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file (default: cardforge.yaml in the current directory)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// project is a loaded catalog project: its configuration, root directory
// and logger.
type project struct {
	cfg    *config.CatalogConfig
	root   string
	log    zerolog.Logger
	closer io.Closer
	cache  cache.Cache
}

// openProject loads the configuration named by --config, or the one found
// in the working directory, and applies overrides on top.
func openProject(cmd *cobra.Command, overrides map[string]any) (*project, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining project root: %w", err)
		}
		if configPath, err = config.Find(wd); err != nil {
			return nil, err
		}
	}
	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.WithOverrides(overrides)

	root := filepath.Dir(configPath)
	log, closer := newLogger(cmd, cfg, root)
	return &project{cfg: cfg, root: root, log: log, closer: closer}, nil
}

// newLogger writes human-readable logs to stderr; --verbose forces debug
// level.
func newLogger(cmd *cobra.Command, cfg *config.CatalogConfig, root string) (zerolog.Logger, io.Closer) {
	level := cfg.Log.Level
	if verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose"); verbose {
		level = "debug"
	}
	file := cfg.Log.File
	if file != "" && !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}
	return logger.New(cmd.ErrOrStderr(), logger.Options{
		Level:      level,
		Console:    true,
		File:       file,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
}

// builder creates a Builder for the project with the configured render
// cache. A cache that cannot be opened is logged and replaced by the
// in-memory one.
func (p *project) builder(opts build.Options) *build.Builder {
	if p.cache == nil {
		c, err := cache.New(p.cfg.Cache)
		if err != nil {
			p.log.Warn().Err(err).Str("driver", p.cfg.Cache.Driver).Msg("render cache unavailable, using memory")
			c = cache.NewMemory(p.cfg.Cache.TTL)
		}
		p.cache = c
	}
	opts.ProjectRoot = p.root
	opts.Logger = p.log
	if opts.Cache == nil {
		opts.Cache = p.cache
	}
	return build.NewBuilder(p.cfg, opts)
}

// Close releases the render cache and the log file.
func (p *project) Close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.log.Warn().Err(err).Msg("closing render cache")
		}
	}
	_ = p.closer.Close()
}

// changedFlags returns the values of the named flags the user set, keyed
// by override name.
func changedFlags(cmd *cobra.Command, names map[string]string) map[string]any {
	out := make(map[string]any)
	for flag, key := range names {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			out[key] = f.Value.String()
		}
	}
	return out
}
