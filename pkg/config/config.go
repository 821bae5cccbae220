// Package config loads supermro settings from a TOML file.
//
// A configuration file is optional. Values missing from the file keep their
// defaults, and command-line flags override both:
//
//	[analysis]
//	root = "object"
//	skip_abstract = false
//	parallel = true
//
//	[layout]
//	max_methods = 3
//	include_private = false
//
//	[[layout.module_colors]]
//	keywords = ["api", "view"]
//	color = "#e0f7fa"
//
//	[source]
//	exclude = ["tests/**", "**/migrations"]
//	stubs = true
//
//	[render]
//	formats = ["svg"]
//	output = "mro_graph"
//
//	[cache]
//	backend = "file"   # file, redis or none
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/layout"
)

// FileName is the configuration file looked up in the user config directory.
const FileName = "config.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Formats lists the render formats accepted in [RenderConfig.Formats].
var Formats = []string{"dot", "svg", "png", "pdf", "json"}

// Config is the full supermro configuration.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Layout   LayoutConfig   `toml:"layout"`
	Source   SourceConfig   `toml:"source"`
	Render   RenderConfig   `toml:"render"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

type AnalysisConfig struct {
	// Root renames the universal root class. Empty keeps "object".
	Root string `toml:"root"`
	// RootMethods replaces the methods the root declares.
	RootMethods []string `toml:"root_methods"`
	// SkipAbstract leaves abstract-only declarations out of method traces.
	SkipAbstract bool `toml:"skip_abstract"`
	Parallel     bool `toml:"parallel"`
	// Workers bounds parallel linearization and file parsing. Zero means
	// GOMAXPROCS.
	Workers int `toml:"workers"`
}

type LayoutConfig struct {
	MaxMethods     int           `toml:"max_methods"`
	IncludePrivate bool          `toml:"include_private"`
	ModuleColors   []layout.Rule `toml:"module_colors"`
	ClassColors    []layout.Rule `toml:"class_colors"`
}

type SourceConfig struct {
	Exclude []string `toml:"exclude"`
	// Stubs adds declarations for common standard-library base classes.
	Stubs bool `toml:"stubs"`
}

type RenderConfig struct {
	Formats  []string `toml:"formats"`
	Output   string   `toml:"output"`
	FontName string   `toml:"font"`
	Detailed bool     `toml:"detailed"`
}

type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	TTL           time.Duration `toml:"ttl"`
}

type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{Parallel: true},
		Layout:   LayoutConfig{MaxMethods: layout.DefaultMaxMethods},
		Source: SourceConfig{
			Exclude: []string{"venv", ".venv", "build", "dist", "node_modules"},
			Stubs:   true,
		},
		Render: RenderConfig{
			Formats:  []string{"svg"},
			Output:   "mro_graph",
			FontName: "Arial",
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
	}
}

// DefaultPath returns the configuration file in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "supermro", FileName), nil
}

// Load reads path over the defaults. An empty path tries [DefaultPath] and
// falls back to the defaults when no file exists there; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, mroerrors.Wrap(mroerrors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, mroerrors.New(mroerrors.ErrCodeInvalidInput, "config %s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Analysis.Root != "" {
		if err := mroerrors.ValidateClassName(c.Analysis.Root); err != nil {
			return err
		}
	}
	if c.Analysis.Workers < 0 {
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "analysis.workers must not be negative")
	}
	if c.Layout.MaxMethods < 1 {
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "layout.max_methods must be at least 1")
	}
	for _, r := range slices.Concat(c.Layout.ModuleColors, c.Layout.ClassColors) {
		if !hexColor.MatchString(r.Color) {
			return mroerrors.New(mroerrors.ErrCodeInvalidInput, "invalid color %q, want #rrggbb", r.Color)
		}
	}
	for _, f := range c.Render.Formats {
		if !slices.Contains(Formats, f) {
			return mroerrors.New(mroerrors.ErrCodeInvalidFormat, "unsupported render format %q", f)
		}
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return mroerrors.New(mroerrors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// Palette returns the default palette extended with the configured rules.
func (c *Config) Palette() layout.Palette {
	return layout.DefaultPalette().Extend(c.Layout.ModuleColors, c.Layout.ClassColors)
}
