package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supermro/pkg/buildinfo"
	"github.com/matzehuels/supermro/pkg/cache"
	"github.com/matzehuels/supermro/pkg/config"
	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/pipeline"
	"github.com/matzehuels/supermro/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for key prefixes and display.
const appName = "supermro"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Config is loaded before any subcommand runs. Commands fall back to
	// the defaults when it is nil, as in tests.
	Config *config.Config

	configPath  string
	interactive bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		interactive: isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "supermro explains Python method resolution order",
		Long: `supermro computes the C3 method resolution order of every class in a Python
package, shows which ancestor each method call resolves to, and draws the
inheritance hierarchy as a graph clustered by module.

No Python code is imported or executed: classes are read from source.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) config() *config.Config {
	if c.Config == nil {
		c.Config = config.Default()
	}
	return c.Config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner using the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, nil, c.Logger)
	runner.SourceTTL = c.config().Cache.TTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the file cache directory: the configured one, or the
// per-user cache directory.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Analysis Flags
// =============================================================================

// analysisFlags are the source and analysis flags shared by every command
// that runs an analysis. Unset flags keep the configured values.
type analysisFlags struct {
	projectPath    string
	pkg            string
	manifest       string
	exclude        []string
	noStubs        bool
	root           string
	skipAbstract   bool
	sequential     bool
	workers        int
	maxMethods     int
	includePrivate bool
	refresh        bool
	noCache        bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.projectPath, "project-path", "p", ".", "directory containing the packages")
	flags.StringVar(&f.pkg, "package", "", "package to analyze (default: detect)")
	flags.StringVarP(&f.manifest, "manifest", "m", "", "read classes from a JSON, TOML or YAML manifest instead")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "glob patterns of paths to skip (added to config)")
	flags.BoolVar(&f.noStubs, "no-stubs", false, "do not add standard-library base classes")
	flags.StringVar(&f.root, "root", "", "name of the universal root class (default: object)")
	flags.BoolVar(&f.skipAbstract, "skip-abstract", false, "leave abstract-only declarations out of traces")
	flags.BoolVar(&f.sequential, "sequential", false, "linearize classes one at a time")
	flags.IntVar(&f.workers, "workers", 0, "concurrent workers (default: GOMAXPROCS)")
	flags.IntVar(&f.maxMethods, "max-methods", 0, "methods listed per graph node")
	flags.BoolVar(&f.includePrivate, "private", false, "list _private methods in graph nodes")
	flags.BoolVar(&f.refresh, "refresh", false, "re-extract classes, ignoring cached ones")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options merges the flags that were set over cfg.
func (f *analysisFlags) options(cmd *cobra.Command, cfg *config.Config) pipeline.Options {
	palette := cfg.Palette()
	opts := pipeline.Options{
		ProjectPath:    f.projectPath,
		Package:        f.pkg,
		Manifest:       f.manifest,
		Exclude:        slices.Clone(cfg.Source.Exclude),
		Stubs:          cfg.Source.Stubs,
		Root:           cfg.Analysis.Root,
		RootMethods:    cfg.Analysis.RootMethods,
		Parallel:       cfg.Analysis.Parallel,
		Workers:        cfg.Analysis.Workers,
		SkipAbstract:   cfg.Analysis.SkipAbstract,
		MaxMethods:     cfg.Layout.MaxMethods,
		IncludePrivate: cfg.Layout.IncludePrivate,
		Palette:        &palette,
		Refresh:        f.refresh,
	}

	flags := cmd.Flags()
	if flags.Changed("exclude") {
		opts.Exclude = append(opts.Exclude, f.exclude...)
	}
	if flags.Changed("no-stubs") {
		opts.Stubs = !f.noStubs
	}
	if flags.Changed("root") {
		opts.Root = f.root
	}
	if flags.Changed("skip-abstract") {
		opts.SkipAbstract = f.skipAbstract
	}
	if flags.Changed("sequential") {
		opts.Parallel = !f.sequential
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	if flags.Changed("max-methods") {
		opts.MaxMethods = f.maxMethods
	}
	if flags.Changed("private") {
		opts.IncludePrivate = f.includePrivate
	}
	return opts
}

// resolvePackage fills opts.Package when neither a package nor a manifest
// was given. A single top-level package is used as is; several are offered
// in a picker on interactive terminals.
func (c *CLI) resolvePackage(opts *pipeline.Options) error {
	if opts.Package != "" || opts.Manifest != "" {
		return nil
	}
	pkgs, err := source.Discover(opts.ProjectPath, source.Options{Exclude: opts.Exclude})
	if err != nil {
		return err
	}
	pkgs = source.TopLevel(pkgs)

	switch {
	case len(pkgs) == 0:
		return mroerrors.New(mroerrors.ErrCodePackageNotFound,
			"no Python packages found in %s (directories with an __init__.py)", opts.ProjectPath)
	case len(pkgs) == 1:
		opts.Package = pkgs[0]
		c.Logger.Debug("detected package", "package", opts.Package)
		return nil
	case !c.interactive:
		return mroerrors.New(mroerrors.ErrCodeInvalidInput,
			"found %d packages (%s); choose one with --package", len(pkgs), strings.Join(pkgs, ", "))
	}

	choice, err := pick("Select Package", pkgs)
	if err != nil {
		return err
	}
	opts.Package = choice
	return nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
