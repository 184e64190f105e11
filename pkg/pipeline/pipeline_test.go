package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/laneflow/laneflow/pkg/cache"
	"github.com/laneflow/laneflow/pkg/errors"
)

var sampleSpec = []byte(`{
	"name": "Sample",
	"lanes": [{"id": "1", "name": "Main"}],
	"nodes": [
		{"id": "s", "type": "start", "name": "Start", "lane_id": "1", "next": "t"},
		{"id": "t", "type": "task", "name": "Work", "lane_id": "1", "next": "f"},
		{"id": "f", "type": "finish", "name": "End", "lane_id": "1"}
	]
}`)

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Format != FormatBPMN {
		t.Errorf("default format = %q, want bpmn", opts.Format)
	}
	if opts.CacheTTL != DefaultCacheTTL {
		t.Errorf("default TTL = %v, want %v", opts.CacheTTL, DefaultCacheTTL)
	}
	if opts.Logger == nil {
		t.Error("default logger not set")
	}
}

func TestOptionsRejectUnknownFormat(t *testing.T) {
	opts := Options{Format: "pdf"}
	err := opts.ValidateAndSetDefaults()
	if err == nil {
		t.Fatal("expected unknown format to be rejected")
	}
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error code = %q, want INVALID_FORMAT", errors.GetCode(err))
	}
}

func TestExecuteBPMN(t *testing.T) {
	runner := NewRunner(nil, nil)
	result, err := runner.Execute(context.Background(), sampleSpec, Options{Pretty: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out := string(result.Artifact)
	if !strings.Contains(out, "<bpmn:definitions") {
		t.Errorf("artifact is not a BPMN document:\n%s", out)
	}
	if result.Layout == nil {
		t.Error("result has no layout")
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %+v, want 3 nodes, 2 edges", result.Stats)
	}
	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("run id not assigned")
	}
}

func TestExecuteLayoutJSON(t *testing.T) {
	runner := NewRunner(nil, nil)
	result, err := runner.Execute(context.Background(), sampleSpec, Options{Format: FormatLayout})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(string(result.Artifact), `"node_bounds"`) {
		t.Errorf("layout artifact missing node bounds:\n%s", result.Artifact)
	}
}

func TestExecuteDOT(t *testing.T) {
	runner := NewRunner(nil, nil)
	result, err := runner.Execute(context.Background(), sampleSpec, Options{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(string(result.Artifact), "digraph G {") {
		t.Errorf("DOT artifact malformed:\n%s", result.Artifact)
	}
}

func TestExecuteInvalidSpec(t *testing.T) {
	runner := NewRunner(nil, nil)
	_, err := runner.Execute(context.Background(), []byte(`{"nodes": []}`), Options{})
	if err == nil {
		t.Fatal("expected invalid spec to fail")
	}
	if !errors.Is(err, errors.ErrCodeInvalidSpec) {
		t.Errorf("error code = %q, want INVALID_SPEC", errors.GetCode(err))
	}
}

func TestExecuteCachesArtifact(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil)
	ctx := context.Background()

	first, err := runner.Execute(ctx, sampleSpec, Options{Pretty: true})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.ArtifactHit {
		t.Error("first run unexpectedly hit the cache")
	}

	second, err := runner.Execute(ctx, sampleSpec, Options{Pretty: true})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.ArtifactHit {
		t.Error("second run missed the cache")
	}
	if string(first.Artifact) != string(second.Artifact) {
		t.Error("cached artifact differs from original")
	}

	// Different options must not share cache entries.
	compact, err := runner.Execute(ctx, sampleSpec, Options{Pretty: false})
	if err != nil {
		t.Fatalf("compact Execute: %v", err)
	}
	if compact.CacheInfo.ArtifactHit {
		t.Error("run with different options hit the cache")
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, sampleSpec, Options{}); err != nil {
		t.Fatalf("warm-up Execute: %v", err)
	}
	result, err := runner.Execute(ctx, sampleSpec, Options{Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if result.CacheInfo.ArtifactHit {
		t.Error("refresh run still hit the cache")
	}
}

func TestExecuteHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(nil, nil)
	if _, err := runner.Execute(ctx, sampleSpec, Options{}); err == nil {
		t.Fatal("expected canceled context to abort the run")
	}
}
