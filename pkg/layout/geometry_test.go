package layout

import (
	"testing"

	"github.com/laneflow/laneflow/pkg/layout/grid"
	"github.com/laneflow/laneflow/pkg/process"
)

func TestRouteTargetRight(t *testing.T) {
	src := Bounds{X: 0, Y: 0, Width: 100, Height: 80}
	dst := Bounds{X: 130, Y: 0, Width: 100, Height: 80}

	got := Route(src, dst)
	if len(got) != 4 {
		t.Fatalf("points = %d, want 4", len(got))
	}
	if got[0] != (Point{X: 100, Y: 40}) {
		t.Errorf("first = %+v, want (100,40)", got[0])
	}
	if got[3] != (Point{X: 130, Y: 40}) {
		t.Errorf("last = %+v, want (130,40)", got[3])
	}
}

func TestRouteZeroGapStillFourPoints(t *testing.T) {
	// Adjacent boxes with no horizontal gap: x is still strictly greater,
	// so this must not degenerate to the 2-point case.
	src := Bounds{X: 0, Y: 0, Width: 100, Height: 80}
	dst := Bounds{X: 100, Y: 0, Width: 100, Height: 80}

	if got := Route(src, dst); len(got) != 4 {
		t.Errorf("points = %d, want 4", len(got))
	}
}

func TestRouteTargetBelow(t *testing.T) {
	src := Bounds{X: 0, Y: 0, Width: 100, Height: 80}
	dst := Bounds{X: 0, Y: 160, Width: 100, Height: 80}

	got := Route(src, dst)
	if len(got) != 4 {
		t.Fatalf("points = %d, want 4", len(got))
	}
	if got[0] != (Point{X: 50, Y: 80}) {
		t.Errorf("first = %+v, want bottom-middle (50,80)", got[0])
	}
	if got[1] != (Point{X: 50, Y: 90}) {
		t.Errorf("second = %+v, want step down to (50,90)", got[1])
	}
	if got[3] != (Point{X: 50, Y: 160}) {
		t.Errorf("last = %+v, want top-middle (50,160)", got[3])
	}
}

func TestRouteTargetAbove(t *testing.T) {
	// Backward loop: enters the target from below.
	src := Bounds{X: 130, Y: 160, Width: 100, Height: 80}
	dst := Bounds{X: 0, Y: 0, Width: 100, Height: 80}

	got := Route(src, dst)
	if len(got) != 4 {
		t.Fatalf("points = %d, want 4", len(got))
	}
	if got[0] != (Point{X: 180, Y: 240}) {
		t.Errorf("first = %+v, want bottom-middle (180,240)", got[0])
	}
	if got[1] != (Point{X: 180, Y: 247.5}) {
		t.Errorf("second = %+v, want step down to (180,247.5)", got[1])
	}
	if got[3] != (Point{X: 50, Y: 80}) {
		t.Errorf("last = %+v, want bottom-middle of target (50,80)", got[3])
	}
}

func TestRouteSameCell(t *testing.T) {
	src := Bounds{X: 0, Y: 0, Width: 100, Height: 80}
	dst := Bounds{X: 0, Y: 0, Width: 36, Height: 36}

	got := Route(src, dst)
	if len(got) != 2 {
		t.Fatalf("points = %d, want 2", len(got))
	}
	if got[0] != (Point{X: 100, Y: 40}) {
		t.Errorf("first = %+v, want right-middle (100,40)", got[0])
	}
	if got[1] != (Point{X: 0, Y: 18}) {
		t.Errorf("last = %+v, want left-middle (0,18)", got[1])
	}
}

func buildDiagram(t *testing.T, input string) (*process.Graph, *Diagram) {
	t.Helper()
	spec, err := process.DecodeBytes([]byte(input), process.FormatJSON)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	g, err := process.BuildGraph(spec)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	ranks, err := Discover(g)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return g, BuildDiagram(g, ranks, nil)
}

func TestBuildDiagramLinearChain(t *testing.T) {
	_, d := buildDiagram(t, linearChain)

	tests := []struct {
		id   string
		want Bounds
	}{
		// Start marker: right-aligned 36x36 circle, vertically centered.
		{"s", Bounds{X: 50 + 64, Y: 50 + 22, Width: 36, Height: 36}},
		// Task: full 100x80 box one column over.
		{"t", Bounds{X: 50 + 130, Y: 50, Width: 100, Height: 80}},
		// Finish marker: left-aligned in the third column.
		{"f", Bounds{X: 50 + 260, Y: 50 + 22, Width: 36, Height: 36}},
	}
	for _, tt := range tests {
		got, ok := d.NodeBounds[tt.id]
		if !ok {
			t.Fatalf("%q has no bounds", tt.id)
		}
		if got != tt.want {
			t.Errorf("%q bounds = %+v, want %+v", tt.id, got, tt.want)
		}
	}

	if len(d.Lanes) != 1 {
		t.Fatalf("lanes = %d, want 1", len(d.Lanes))
	}
	wantLane := Bounds{X: 50, Y: 50, Width: 3 * ColumnSpacing, Height: RowSpacing}
	if d.Lanes[0].Bounds != wantLane {
		t.Errorf("lane bounds = %+v, want %+v", d.Lanes[0].Bounds, wantLane)
	}
	if d.Plane != wantLane {
		t.Errorf("plane = %+v, want %+v", d.Plane, wantLane)
	}
}

func TestBuildDiagramGatewayShape(t *testing.T) {
	_, d := buildDiagram(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "f"}},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`)

	got, ok := d.NodeBounds["g"]
	if !ok {
		t.Fatal("gateway has no bounds")
	}
	// 50x50 diamond centered in the (column 1, row 0) cell.
	want := Bounds{X: 50 + 130 + 25, Y: 50 + 15, Width: 50, Height: 50}
	if got != want {
		t.Errorf("gateway bounds = %+v, want %+v", got, want)
	}
}

func TestBuildDiagramLaneStacking(t *testing.T) {
	_, d := buildDiagram(t, `{
		"lanes": [{"id": "2", "name": "Lower"}, {"id": "1", "name": "Upper"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "t"},
			{"id": "t", "type": "usertask", "name": "T", "lane_id": "2", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`)

	if len(d.Lanes) != 2 {
		t.Fatalf("lanes = %d, want 2", len(d.Lanes))
	}
	// Lane "1" stacks first (ascending numeric id), lane "2" below it.
	if d.Lanes[0].LaneID != "1" || d.Lanes[1].LaneID != "2" {
		t.Fatalf("lane order = %q, %q; want 1, 2", d.Lanes[0].LaneID, d.Lanes[1].LaneID)
	}
	if d.Lanes[1].Bounds.Y != d.Lanes[0].Bounds.Y+d.Lanes[0].Bounds.Height {
		t.Errorf("lane 2 y = %v, want stacked below lane 1", d.Lanes[1].Bounds.Y)
	}

	// t lives in lane 2, so its y is offset by lane 1's full height.
	tb := d.NodeBounds["t"]
	if tb.Y != 50+RowSpacing {
		t.Errorf("t y = %v, want %v", tb.Y, 50+RowSpacing)
	}

	// Both lanes span the same column extent.
	if d.Lanes[0].Bounds.Width != d.Lanes[1].Bounds.Width {
		t.Errorf("lane widths differ: %v vs %v", d.Lanes[0].Bounds.Width, d.Lanes[1].Bounds.Width)
	}
}

func TestBuildDiagramIsolatesMissingPositions(t *testing.T) {
	spec, err := process.DecodeBytes([]byte(linearChain), process.FormatJSON)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	g, err := process.BuildGraph(spec)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	// Hand-built ranks with the middle node missing.
	ranks := &Ranks{
		Positions: map[string]grid.Position{
			"s": {Column: 0, Row: 0},
			"f": {Column: 2, Row: 0},
		},
		Depths: map[string]int{"1": 1},
	}

	d := BuildDiagram(g, ranks, nil)

	if _, ok := d.NodeBounds["t"]; ok {
		t.Error("node without position received bounds")
	}
	if _, ok := d.NodeBounds["s"]; !ok {
		t.Error("unaffected node lost its bounds")
	}

	// Both transitions touch t, so both route empty; the diagram still
	// carries entries for them.
	for _, id := range []string{"Flow_s_t", "Flow_t_f"} {
		wps, ok := d.Waypoints[id]
		if !ok {
			t.Fatalf("transition %q missing from waypoints", id)
		}
		if len(wps) != 0 {
			t.Errorf("transition %q waypoints = %d, want 0", id, len(wps))
		}
	}
}

func TestBuildDiagramWaypointsForChain(t *testing.T) {
	_, d := buildDiagram(t, linearChain)

	wps := d.Waypoints["Flow_s_t"]
	if len(wps) != 4 {
		t.Fatalf("Flow_s_t points = %d, want 4", len(wps))
	}
	// Exit at the start marker's right-middle.
	s := d.NodeBounds["s"]
	if wps[0] != (Point{X: s.X + s.Width, Y: s.CenterY()}) {
		t.Errorf("first point = %+v, want source right-middle", wps[0])
	}
	// Enter at the task's left-middle.
	tb := d.NodeBounds["t"]
	if wps[3] != (Point{X: tb.X, Y: tb.CenterY()}) {
		t.Errorf("last point = %+v, want target left-middle", wps[3])
	}
}
