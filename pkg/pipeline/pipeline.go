// Package pipeline runs the complete analysis: load declarations, linearize,
// build chains and a layout plan, and render.
//
// The CLI, the HTTP server and the MCP server all go through a [Runner], so
// every entry point applies the same defaults, caching and hooks.
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	res, err := runner.Analyze(ctx, pipeline.Options{
//	    ProjectPath: ".",
//	    Package:     "shop",
//	    Stubs:       true,
//	})
//	if err != nil {
//	    return err
//	}
//	chain, _ := res.Chains.Get("shop.models.Book")
//	trace, err := res.Trace("Book", "save")
//	artifacts, err := runner.Render(ctx, res.Plan, pipeline.RenderOptions{Formats: []string{"svg"}})
//
// Declarations come from exactly one of three sources: a Python package on
// disk, a manifest file, or declarations supplied directly by the caller.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/layout"
	"github.com/matzehuels/supermro/pkg/source"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// DefaultFontName is the font used in rendered graphs.
const DefaultFontName = "Arial"

// =============================================================================
// Options
// =============================================================================

// Options configures an analysis.
type Options struct {
	// Source: Package (under ProjectPath), Manifest, or Declarations.
	ProjectPath  string                  `json:"project_path,omitempty"`
	Package      string                  `json:"package,omitempty"`
	Manifest     string                  `json:"manifest,omitempty"`
	Declarations []hierarchy.Declaration `json:"declarations,omitempty"`
	Exclude      []string                `json:"exclude,omitempty"`
	// Stubs adds declarations for common standard-library base classes and
	// hides their modules from the plan.
	Stubs bool `json:"stubs,omitempty"`

	// Registry options
	Root         string   `json:"root,omitempty"`
	RootMethods  []string `json:"root_methods,omitempty"`
	Parallel     bool     `json:"parallel,omitempty"`
	Workers      int      `json:"workers,omitempty"`
	SkipAbstract bool     `json:"skip_abstract,omitempty"`

	// Layout options
	MaxMethods     int             `json:"max_methods,omitempty"`
	IncludePrivate bool            `json:"include_private,omitempty"`
	Palette        *layout.Palette `json:"-"`

	// Refresh bypasses cached declarations.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks that exactly one source is set and applies
// defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	sources := 0
	for _, set := range []bool{o.Package != "", o.Manifest != "", o.Declarations != nil} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "package, manifest or declarations is required")
	case sources > 1:
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "package, manifest and declarations are mutually exclusive")
	}

	if o.Package != "" {
		if err := mroerrors.ValidateModuleName(o.Package); err != nil {
			return err
		}
		if o.ProjectPath == "" {
			o.ProjectPath = "."
		}
		if err := mroerrors.ValidatePath(o.ProjectPath); err != nil {
			return err
		}
	}
	if o.Manifest != "" {
		if err := mroerrors.ValidatePath(o.Manifest); err != nil {
			return err
		}
	}
	if o.Root != "" {
		if err := mroerrors.ValidateClassName(o.Root); err != nil {
			return err
		}
	}
	if o.Workers < 0 {
		return mroerrors.New(mroerrors.ErrCodeInvalidInput, "workers must not be negative")
	}

	if o.MaxMethods == 0 {
		o.MaxMethods = layout.DefaultMaxMethods
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SourceName names the analyzed source for plan titles and logs.
func (o *Options) SourceName() string {
	switch {
	case o.Package != "":
		return o.Package
	case o.Manifest != "":
		return o.Manifest
	default:
		return "declarations"
	}
}

// TracePolicy returns the method trace policy the options select.
func (o *Options) TracePolicy() hierarchy.TracePolicy {
	return hierarchy.TracePolicy{SkipAbstract: o.SkipAbstract}
}

func (o *Options) registryOptions() []hierarchy.Option {
	if o.Root == "" && o.RootMethods == nil {
		return nil
	}
	return []hierarchy.Option{hierarchy.WithRoot(o.Root, o.RootMethods)}
}

func (o *Options) layoutOptions() layout.Options {
	opts := layout.Options{
		Name:           o.SourceName(),
		MaxMethods:     o.MaxMethods,
		Palette:        o.Palette,
		IncludePrivate: o.IncludePrivate,
	}
	if o.Stubs {
		opts.Hidden = source.StubModules()
	}
	return opts
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Formats  []string `json:"formats,omitempty"`
	FontName string   `json:"font,omitempty"`
	// Detailed adds the inheritance depth to node labels.
	Detailed bool `json:"detailed,omitempty"`
}

// ValidateAndSetDefaults applies defaults and rejects unknown formats.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.FontName == "" {
		o.FontName = DefaultFontName
	}
	return ValidateFormats(o.Formats)
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return mroerrors.New(mroerrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of one analysis.
type Result struct {
	// ID identifies the run in logs and API responses.
	ID       uuid.UUID
	Source   string
	Registry *hierarchy.Registry
	Chains   hierarchy.Chains
	Plan     *layout.Plan
	// Failures lists classes that could not be linearized.
	Failures []hierarchy.Failure
	// LoadFailures lists modules skipped while loading a package.
	LoadFailures []source.ModuleFailure
	// Hidden lists modules left out of the plan and of reports, such as
	// the standard-library stubs.
	Hidden []string
	Stats        Stats
	CacheInfo    CacheInfo

	policy hierarchy.TracePolicy
}

// Trace resolves class and lists the ancestors declaring method, using the
// trace policy of the analysis options.
func (r *Result) Trace(class, method string) (*hierarchy.Trace, error) {
	return r.Registry.Trace(class, method, r.policy)
}

// Stats contains analysis statistics.
type Stats struct {
	Modules       int
	Classes       int
	Failed        int
	LoadTime      time.Duration
	LinearizeTime time.Duration
	LayoutTime    time.Duration
}

// CacheInfo records whether declarations came from the cache.
type CacheInfo struct {
	SourceHit bool
}

// failedClasses returns the names of classes with a failure record.
func (r *Result) failedClasses() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Class.String())
	}
	slices.Sort(out)
	return out
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %d classes in %d modules, %d failed", r.Source, r.Stats.Classes, r.Stats.Modules, r.Stats.Failed)
}
