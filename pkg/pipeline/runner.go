package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/supermro/pkg/buildinfo"
	"github.com/matzehuels/supermro/pkg/cache"
	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
	"github.com/matzehuels/supermro/pkg/layout"
	"github.com/matzehuels/supermro/pkg/observability"
	"github.com/matzehuels/supermro/pkg/source"
)

// Runner runs analyses with caching.
//
// A Runner holds no per-analysis state; one Runner may serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// SourceTTL is how long extracted declarations stay cached. Zero uses
	// [cache.TTLSource].
	SourceTTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses [cache.DefaultKeyer] and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Analyze loads declarations, linearizes every class, builds the chains and
// the layout plan. Per-class and per-module failures are reported in the
// result; only invalid options and unusable sources fail the call.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{
		ID:     uuid.New(),
		Source: opts.SourceName(),
		policy: opts.TracePolicy(),
	}
	logger := opts.Logger.With("run", res.ID.String()[:8])

	// Stage 1: Load
	loadStart := time.Now()
	decls, err := r.declarations(ctx, &opts, res)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	res.Stats.LoadTime = time.Since(loadStart)
	logger.Info("loaded declarations",
		"source", res.Source,
		"classes", len(decls),
		"skipped_modules", len(res.LoadFailures),
		"cached", res.CacheInfo.SourceHit,
		"duration", res.Stats.LoadTime)
	for _, f := range res.LoadFailures {
		logger.Warn("skipped module", "module", f.Module, "err", mroerrors.UserMessage(f.Err))
	}

	if opts.Stubs {
		decls = append(source.Stubs(), decls...)
	}

	// Stage 2: Linearize
	linStart := time.Now()
	reg := hierarchy.New(opts.registryOptions()...)
	if err := reg.Populate(decls); err != nil {
		return nil, fmt.Errorf("populate: %w", err)
	}
	observability.Pipeline().OnLinearizeStart(ctx, reg.Len())
	if opts.Parallel {
		err = reg.LinearizeAllParallel(opts.Workers)
	} else {
		err = reg.LinearizeAll()
	}
	if err != nil {
		return nil, fmt.Errorf("linearize: %w", err)
	}
	chains, err := reg.BuildDerivedViews()
	if err != nil {
		return nil, fmt.Errorf("chains: %w", err)
	}
	res.Registry = reg
	res.Chains = chains
	res.Failures = reg.Failures()
	res.Stats.Classes = reg.Len()
	res.Stats.Modules = len(reg.Modules())
	res.Stats.Failed = len(res.Failures)
	res.Stats.LinearizeTime = time.Since(linStart)
	observability.Pipeline().OnLinearizeComplete(ctx, res.Stats.Classes, res.Stats.Failed, res.Stats.LinearizeTime)

	logger.Info("linearized classes",
		"classes", res.Stats.Classes,
		"failed", res.Stats.Failed,
		"parallel", opts.Parallel,
		"duration", res.Stats.LinearizeTime)
	if res.Stats.Failed > 0 {
		logger.Debug("failed classes", "classes", res.failedClasses())
	}

	// Stage 3: Layout
	layoutStart := time.Now()
	layoutOpts := opts.layoutOptions()
	plan, err := layout.Build(reg, layoutOpts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	res.Plan = plan
	res.Hidden = layoutOpts.Hidden
	res.Stats.LayoutTime = time.Since(layoutStart)
	logger.Debug("built layout plan",
		"clusters", len(plan.Clusters),
		"edges", len(plan.Edges),
		"duration", res.Stats.LayoutTime)

	return res, nil
}

// declarations loads the declarations selected by opts, recording module
// failures and cache use on res.
func (r *Runner) declarations(ctx context.Context, opts *Options, res *Result) ([]hierarchy.Declaration, error) {
	switch {
	case opts.Declarations != nil:
		return opts.Declarations, nil
	case opts.Manifest != "":
		m, err := source.LoadManifest(opts.Manifest)
		if err != nil {
			return nil, err
		}
		return m.Declarations(), nil
	}

	observability.Pipeline().OnLoadStart(ctx, opts.Package)
	start := time.Now()
	report, hit, err := r.loadPackage(ctx, opts)
	modules, failed := 0, 0
	if report != nil {
		modules, failed = len(report.Modules), len(report.Failures)
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Package, modules, failed, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	res.LoadFailures = report.Failures
	res.CacheInfo.SourceHit = hit
	return report.Declarations, nil
}

// cachedReport is the cache encoding of a [source.LoadReport].
type cachedReport struct {
	Package      string                  `json:"package"`
	Modules      []string                `json:"modules"`
	Declarations []hierarchy.Declaration `json:"declarations"`
	Failures     []cachedFailure         `json:"failures,omitempty"`
}

type cachedFailure struct {
	Module  string `json:"module"`
	File    string `json:"file"`
	Message string `json:"message"`
}

func (r *Runner) loadPackage(ctx context.Context, opts *Options) (*source.LoadReport, bool, error) {
	srcOpts := source.Options{Exclude: opts.Exclude, Workers: opts.Workers}

	fingerprint, err := Fingerprint(opts.ProjectPath, opts.Package, srcOpts)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.SourceKey(fingerprint, cache.SourceKeyOpts{
		Package: opts.Package,
		Exclude: opts.Exclude,
		Version: buildinfo.Version,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cr cachedReport
			if err := json.Unmarshal(data, &cr); err == nil {
				observability.Cache().OnCacheHit(ctx, "source")
				return cr.report(), true, nil
			}
		} else if err != nil {
			r.Logger.Debug("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	report, err := source.LoadPackage(ctx, opts.ProjectPath, opts.Package, srcOpts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(newCachedReport(report)); err == nil {
		ttl := r.SourceTTL
		if ttl <= 0 {
			ttl = cache.TTLSource
		}
		if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
			r.Logger.Debug("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "source", len(data))
		}
	}
	return report, false, nil
}

func newCachedReport(rep *source.LoadReport) cachedReport {
	cr := cachedReport{Package: rep.Package, Modules: rep.Modules, Declarations: rep.Declarations}
	for _, f := range rep.Failures {
		cr.Failures = append(cr.Failures, cachedFailure{Module: f.Module, File: f.File, Message: mroerrors.UserMessage(f.Err)})
	}
	return cr
}

func (cr cachedReport) report() *source.LoadReport {
	rep := &source.LoadReport{Package: cr.Package, Modules: cr.Modules, Declarations: cr.Declarations}
	for _, f := range cr.Failures {
		rep.Failures = append(rep.Failures, source.ModuleFailure{
			Module: f.Module,
			File:   f.File,
			Err:    mroerrors.New(mroerrors.ErrCodeModuleLoad, "%s", f.Message),
		})
	}
	return rep
}

// Fingerprint identifies the current version of a package's files by path,
// size and modification time, without reading them.
func Fingerprint(root, pkg string, opts source.Options) (string, error) {
	files, err := source.PackageFiles(root, pkg, opts)
	if err != nil {
		return "", err
	}
	stamps := make(map[string][]byte, len(files))
	for _, rel := range files {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", mroerrors.Wrap(mroerrors.ErrCodeInvalidPath, err, "stat %s", rel)
		}
		stamps[rel] = []byte(strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10))
	}
	return cache.HashFiles(stamps), nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
