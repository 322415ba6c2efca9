// Package config handles loading, validating, and managing catalog
// configuration for cardforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/aellingwood/cardforge/internal/theme"
)

// CatalogConfig is the top-level configuration for a catalog project.
type CatalogConfig struct {
	Title           string                 `yaml:"title"            mapstructure:"title"`
	Description     string                 `yaml:"description"      mapstructure:"description"`
	DefaultTemplate string                 `yaml:"default_template" mapstructure:"default_template"`
	DefaultTheme    string                 `yaml:"default_theme"    mapstructure:"default_theme"`
	ContentDir      string                 `yaml:"content_dir"      mapstructure:"content_dir"`
	OutputDir       string                 `yaml:"output_dir"       mapstructure:"output_dir"`
	TemplateDir     string                 `yaml:"template_dir"     mapstructure:"template_dir"`
	Include         []string               `yaml:"include"          mapstructure:"include"`
	Exclude         []string               `yaml:"exclude"          mapstructure:"exclude"`
	Build           BuildConfig            `yaml:"build"            mapstructure:"build"`
	Server          ServerConfig           `yaml:"server"           mapstructure:"server"`
	Export          ExportConfig           `yaml:"export"           mapstructure:"export"`
	Cache           CacheConfig            `yaml:"cache"            mapstructure:"cache"`
	Publish         PublishConfig          `yaml:"publish"          mapstructure:"publish"`
	Log             LogConfig              `yaml:"log"              mapstructure:"log"`
	Security        SecurityConfig         `yaml:"security"         mapstructure:"security"`
	Themes          map[string]theme.Theme `yaml:"themes"           mapstructure:"themes"`
}

// BuildConfig controls the catalog build.
type BuildConfig struct {
	Workers       int    `yaml:"workers"         mapstructure:"workers"`
	Drafts        bool   `yaml:"drafts"          mapstructure:"drafts"`
	InlineImages  bool   `yaml:"inline_images"   mapstructure:"inline_images"`
	MaxImageWidth int    `yaml:"max_image_width" mapstructure:"max_image_width"`
	ImageFormat   string `yaml:"image_format"    mapstructure:"image_format"`
	ImageQuality  int    `yaml:"image_quality"   mapstructure:"image_quality"`
	SearchIndex   bool   `yaml:"search_index"    mapstructure:"search_index"`
}

// ServerConfig controls the local preview server.
type ServerConfig struct {
	Port       int    `yaml:"port"        mapstructure:"port"`
	Host       string `yaml:"host"        mapstructure:"host"`
	LiveReload bool   `yaml:"live_reload" mapstructure:"live_reload"`
}

// ExportConfig controls exports through the external rasterizer.
type ExportConfig struct {
	RasterizerURL string         `yaml:"rasterizer_url" mapstructure:"rasterizer_url"`
	Timeout       time.Duration  `yaml:"timeout"        mapstructure:"timeout"`
	Retries       int            `yaml:"retries"        mapstructure:"retries"`
	Concurrency   int            `yaml:"concurrency"    mapstructure:"concurrency"`
	Optimize      bool           `yaml:"optimize"       mapstructure:"optimize"`
	Presets       []ExportPreset `yaml:"presets"        mapstructure:"presets"`
}

// ExportPreset is a configured output format in addition to the built-in
// presets.
type ExportPreset struct {
	ID     string  `yaml:"id"     mapstructure:"id"`
	Name   string  `yaml:"name"   mapstructure:"name"`
	Format string  `yaml:"format" mapstructure:"format"`
	Width  float64 `yaml:"width"  mapstructure:"width"`
	Height float64 `yaml:"height" mapstructure:"height"`
	Unit   string  `yaml:"unit"   mapstructure:"unit"`
}

// CacheConfig selects the render cache.
type CacheConfig struct {
	Driver   string        `yaml:"driver"   mapstructure:"driver"`
	Addr     string        `yaml:"addr"     mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db"       mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl"      mapstructure:"ttl"`
	Prefix   string        `yaml:"prefix"   mapstructure:"prefix"`
}

// PublishConfig holds the S3 publishing target.
type PublishConfig struct {
	Bucket         string `yaml:"bucket"          mapstructure:"bucket"`
	Region         string `yaml:"region"          mapstructure:"region"`
	Prefix         string `yaml:"prefix"          mapstructure:"prefix"`
	Profile        string `yaml:"profile"         mapstructure:"profile"`
	Endpoint       string `yaml:"endpoint"        mapstructure:"endpoint"`
	DistributionID string `yaml:"distribution_id" mapstructure:"distribution_id"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `yaml:"level"       mapstructure:"level"`
	File       string `yaml:"file"        mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// SecurityConfig controls the preview server's security headers.
type SecurityConfig struct {
	CSP CSPConfig `yaml:"csp" mapstructure:"csp"`
}

// CSPConfig holds extra Content Security Policy sources.
type CSPConfig struct {
	ImgSrc     []string `yaml:"img_src"     mapstructure:"img_src"`
	ConnectSrc []string `yaml:"connect_src" mapstructure:"connect_src"`
	FontSrc    []string `yaml:"font_src"    mapstructure:"font_src"`
	StyleSrc   []string `yaml:"style_src"   mapstructure:"style_src"`
}

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

var cacheDrivers = []string{CacheMemory, CacheRedis, CacheNone}

// Default returns a CatalogConfig populated with sensible default values.
func Default() *CatalogConfig {
	return &CatalogConfig{
		DefaultTemplate: "industrial-product-alert",
		DefaultTheme:    theme.DefaultID,
		ContentDir:      "pages",
		OutputDir:       "public",
		Build: BuildConfig{
			Workers:       4,
			MaxImageWidth: 1600,
			ImageFormat:   "jpeg",
			ImageQuality:  85,
			SearchIndex:   true,
		},
		Server: ServerConfig{
			Port:       1414,
			Host:       "localhost",
			LiveReload: true,
		},
		Export: ExportConfig{
			RasterizerURL: "http://localhost:3000",
			Timeout:       60 * time.Second,
			Retries:       2,
			Concurrency:   4,
			Optimize:      true,
		},
		Cache: CacheConfig{
			Driver: CacheMemory,
			Addr:   "localhost:6379",
			TTL:    24 * time.Hour,
			Prefix: "cardforge:",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Themes: map[string]theme.Theme{},
	}
}

// FileNames are the configuration file names Find looks for, in order.
var FileNames = []string{"cardforge.yaml", "cardforge.yml", "cardforge.toml", "cardforge.json"}

// Find returns the path of the first configuration file present in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no configuration file in %s (looked for %s)", dir, strings.Join(FileNames, ", "))
}

// Load reads a configuration file from configPath (YAML, TOML or JSON) and
// returns a CatalogConfig with defaults applied first and file values
// overlaid on top.
func Load(configPath string) (*CatalogConfig, error) {
	cfg := Default()

	v := viper.New()

	// Determine format from extension.
	ext := strings.TrimPrefix(filepath.Ext(configPath), ".")
	switch ext {
	case "yaml", "yml":
		v.SetConfigType("yaml")
	case "toml":
		v.SetConfigType("toml")
	case "json":
		v.SetConfigType("json")
	default:
		// Default to yaml if unrecognised.
		v.SetConfigType("yaml")
	}

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("CARDFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the CatalogConfig for common errors.
// It returns a descriptive error if:
//   - Title is empty
//   - an include or exclude pattern is not a valid glob
//   - the cache driver is unknown
//   - a numeric setting is out of range
func (c *CatalogConfig) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("config: title is required")
	}

	for _, p := range slices.Concat(c.Include, c.Exclude) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("config: invalid glob pattern %q", p)
		}
	}

	if c.Cache.Driver != "" && !slices.Contains(cacheDrivers, c.Cache.Driver) {
		return fmt.Errorf("config: unknown cache driver %q (want one of %s)", c.Cache.Driver, strings.Join(cacheDrivers, ", "))
	}

	if c.Build.Workers < 0 {
		return fmt.Errorf("config: build.workers must not be negative (got %d)", c.Build.Workers)
	}
	if c.Build.ImageQuality < 0 || c.Build.ImageQuality > 100 {
		return fmt.Errorf("config: build.image_quality must be between 0 and 100 (got %d)", c.Build.ImageQuality)
	}
	if c.Export.Retries < 0 {
		return fmt.Errorf("config: export.retries must not be negative (got %d)", c.Export.Retries)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range (got %d)", c.Server.Port)
	}

	return nil
}

// ThemeSet returns the built-in themes with the configured themes applied.
func (c *CatalogConfig) ThemeSet() *theme.Set {
	return theme.NewSet(c.Themes)
}

// WithOverrides applies CLI flag overrides to the config. Known keys are
// mapped to their corresponding struct fields; values are coerced with
// cast so flag strings work as well as typed values. The modified config is
// returned for convenient chaining.
func (c *CatalogConfig) WithOverrides(overrides map[string]any) *CatalogConfig {
	for key, val := range overrides {
		switch key {
		case "title":
			c.Title = cast.ToString(val)
		case "template", "default_template":
			c.DefaultTemplate = cast.ToString(val)
		case "theme", "default_theme":
			c.DefaultTheme = cast.ToString(val)
		case "content_dir":
			c.ContentDir = cast.ToString(val)
		case "output_dir", "output":
			c.OutputDir = cast.ToString(val)
		case "port":
			if n, err := cast.ToIntE(val); err == nil {
				c.Server.Port = n
			}
		case "host":
			c.Server.Host = cast.ToString(val)
		case "livereload":
			if b, err := cast.ToBoolE(val); err == nil {
				c.Server.LiveReload = b
			}
		case "workers":
			if n, err := cast.ToIntE(val); err == nil {
				c.Build.Workers = n
			}
		case "drafts":
			if b, err := cast.ToBoolE(val); err == nil {
				c.Build.Drafts = b
			}
		case "inline_images":
			if b, err := cast.ToBoolE(val); err == nil {
				c.Build.InlineImages = b
			}
		case "rasterizer_url":
			c.Export.RasterizerURL = cast.ToString(val)
		case "cache":
			c.Cache.Driver = cast.ToString(val)
		case "log_level":
			c.Log.Level = cast.ToString(val)
		}
	}
	return c
}
