package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/supermro/pkg/cache"
	"github.com/matzehuels/supermro/pkg/layout"
	"github.com/matzehuels/supermro/pkg/observability"
	"github.com/matzehuels/supermro/pkg/render/dot"
)

// Render produces the requested formats from a plan. Artifacts are cached
// per format under the plan's content hash; hit reports whether every
// format came from the cache.
func (r *Runner) Render(ctx context.Context, plan *layout.Plan, opts RenderOptions) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	planData, err := json.Marshal(plan)
	if err != nil {
		return nil, false, fmt.Errorf("serialize plan: %w", err)
	}
	planHash := cache.Hash(planData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	hit = true
	var source string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(planHash, cache.ArtifactKeyOpts{
			Format:   format,
			Detailed: opts.Detailed,
			FontName: opts.FontName,
		})
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		hit = false

		if source == "" {
			source = dot.ToDOT(plan, dot.Options{FontName: opts.FontName, Detailed: opts.Detailed})
		}
		data, err := renderFormat(ctx, format, source, planData)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("cache write failed", "format", format, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, hit, nil
}

func renderFormat(ctx context.Context, format, source string, planJSON []byte) (data []byte, err error) {
	observability.Pipeline().OnRenderStart(ctx, format)
	start := time.Now()
	defer func() {
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
	}()

	switch format {
	case FormatDOT:
		return []byte(source), nil
	case FormatJSON:
		return planJSON, nil
	case FormatSVG:
		data, err = dot.RenderSVG(ctx, source)
	case FormatPNG:
		data, err = dot.RenderPNG(ctx, source)
	case FormatPDF:
		data, err = dot.RenderPDF(ctx, source)
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
