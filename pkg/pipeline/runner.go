package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/laneflow/laneflow/pkg/bpmn"
	"github.com/laneflow/laneflow/pkg/cache"
	"github.com/laneflow/laneflow/pkg/errors"
	"github.com/laneflow/laneflow/pkg/layout"
	"github.com/laneflow/laneflow/pkg/observability"
	"github.com/laneflow/laneflow/pkg/process"
	"github.com/laneflow/laneflow/pkg/render"
)

// Runner encapsulates pipeline execution with artifact caching.
//
// The Runner is stateless except for the cache and logger; it stores no run
// results. Multiple goroutines can safely share one Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil logger
// falls back to the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete decode → layout → serialize pipeline.
func (r *Runner) Execute(ctx context.Context, specData []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.New()}
	logger := opts.Logger.With("run", result.RunID.String())

	cacheKey := cache.Key("artifact", cache.Hash(specData), opts.cacheKeyParts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			logger.Debug("artifact served from cache", "format", opts.Format)
			result.Artifact = data
			result.CacheInfo.ArtifactHit = true
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Stage 1: Decode
	g, err := r.decode(ctx, specData, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	logger.Info("decoded spec",
		"nodes", result.Stats.NodeCount,
		"lanes", result.Stats.LaneCount,
		"duration", result.Stats.DecodeTime)

	// Stage 2: Layout
	ranks, diagram, err := r.computeLayout(ctx, g, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Layout = diagram
	logger.Info("computed layout",
		"placed", len(ranks.Positions),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Serialize
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	artifact, err := r.serialize(ctx, g, ranks, diagram, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact
	logger.Info("serialized artifact",
		"format", opts.Format,
		"bytes", len(artifact),
		"duration", result.Stats.SerializeTime)

	if err := r.Cache.Set(ctx, cacheKey, artifact, opts.CacheTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(artifact))
	}

	return result, nil
}

func (r *Runner) decode(ctx context.Context, specData []byte, opts Options, stats *Stats) (*process.Graph, error) {
	hooks := observability.Convert()
	hooks.OnDecodeStart(ctx, string(opts.SpecFormat))
	start := time.Now()

	spec, err := process.DecodeBytes(specData, opts.SpecFormat)
	var g *process.Graph
	if err == nil {
		g, err = process.BuildGraph(spec)
	}

	stats.DecodeTime = time.Since(start)
	nodeCount := 0
	if g != nil {
		nodeCount = len(g.Spec.Nodes)
		stats.NodeCount = nodeCount
		stats.EdgeCount = len(g.Transitions)
		stats.LaneCount = len(g.Lanes)
	}
	hooks.OnDecodeComplete(ctx, string(opts.SpecFormat), nodeCount, stats.DecodeTime, err)
	return g, err
}

func (r *Runner) computeLayout(ctx context.Context, g *process.Graph, opts Options, stats *Stats) (*layout.Ranks, *layout.Diagram, error) {
	hooks := observability.Convert()
	hooks.OnLayoutStart(ctx, stats.NodeCount)
	start := time.Now()

	ranks, err := layout.Discover(g)
	var diagram *layout.Diagram
	if err == nil {
		diagram = layout.BuildDiagram(g, ranks, opts.Logger)
	}

	stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, stats.NodeCount, stats.LayoutTime, err)
	return ranks, diagram, err
}

func (r *Runner) serialize(ctx context.Context, g *process.Graph, ranks *layout.Ranks, diagram *layout.Diagram, opts Options, stats *Stats) ([]byte, error) {
	hooks := observability.Convert()
	hooks.OnSerializeStart(ctx, opts.Pretty)
	start := time.Now()

	var (
		artifact []byte
		err      error
	)
	switch opts.Format {
	case FormatBPMN:
		artifact, err = bpmn.Marshal(bpmn.Build(g, diagram), opts.Pretty)
	case FormatLayout:
		if opts.Pretty {
			artifact, err = json.MarshalIndent(diagram, "", "  ")
		} else {
			artifact, err = json.Marshal(diagram)
		}
		if err != nil {
			err = errors.Wrap(errors.ErrCodeSerialize, err, "encode layout")
		}
	case FormatDOT:
		artifact = []byte(render.ToDOT(g, render.Options{Detailed: true, Ranks: ranks}))
	case FormatSVG:
		var svg []byte
		svg, err = render.RenderSVG(ctx, render.ToDOT(g, render.Options{}))
		if err != nil {
			err = errors.Wrap(errors.ErrCodeSerialize, err, "render SVG")
		}
		artifact = svg
	}

	stats.SerializeTime = time.Since(start)
	hooks.OnSerializeComplete(ctx, len(artifact), stats.SerializeTime, err)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
