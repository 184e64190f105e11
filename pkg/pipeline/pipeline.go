// Package pipeline provides the core conversion pipeline for LaneFlow.
//
// This package implements the complete decode → layout → serialize pipeline
// shared by the CLI and the HTTP service. Centralizing it here keeps the two
// entry points behaviorally identical, including caching.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: parse the spec document and resolve it into the graph model
//  2. Layout: run rank discovery and geometry over the graph
//  3. Serialize: emit the requested artifact (BPMN XML, layout JSON, DOT, SVG)
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, specData, pipeline.Options{
//	    Format: pipeline.FormatBPMN,
//	    Pretty: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.bpmn", result.Artifact, 0o644)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/laneflow/laneflow/pkg/errors"
	"github.com/laneflow/laneflow/pkg/layout"
	"github.com/laneflow/laneflow/pkg/process"
)

// Output artifact formats.
const (
	FormatBPMN   = "bpmn"
	FormatLayout = "layout"
	FormatDOT    = "dot"
	FormatSVG    = "svg"
)

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	FormatBPMN:   true,
	FormatLayout: true,
	FormatDOT:    true,
	FormatSVG:    true,
}

// DefaultCacheTTL is how long cached artifacts stay valid. Conversions are
// deterministic, so the TTL only bounds disk growth.
const DefaultCacheTTL = 7 * 24 * time.Hour

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a conversion run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Format selects the output artifact. Defaults to FormatBPMN.
	Format string `json:"format,omitempty"`

	// Pretty indents the serialized output.
	Pretty bool `json:"pretty,omitempty"`

	// SpecFormat is the input document encoding. Defaults to JSON.
	SpecFormat process.Format `json:"spec_format,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// CacheTTL overrides the artifact cache lifetime.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Format == "" {
		o.Format = FormatBPMN
	}
	if !ValidFormats[o.Format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: bpmn, layout, dot, svg)", o.Format)
	}
	if o.SpecFormat == "" {
		o.SpecFormat = process.FormatJSON
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// cacheKeyParts returns the option values that affect the artifact bytes.
func (o *Options) cacheKeyParts() []any {
	return []any{o.Format, o.Pretty, string(o.SpecFormat)}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this conversion run.
	RunID uuid.UUID

	// Artifact is the serialized output in the requested format.
	Artifact []byte

	// Layout is the computed geometry. Nil when the artifact came from cache.
	Layout *layout.Diagram

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the artifact came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int
	EdgeCount int
	LaneCount int

	DecodeTime    time.Duration
	LayoutTime    time.Duration
	SerializeTime time.Duration
}

// CacheInfo tracks cache usage for a run.
type CacheInfo struct {
	// ArtifactHit reports whether the artifact was served from cache.
	ArtifactHit bool
}
