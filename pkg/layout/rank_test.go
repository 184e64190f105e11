package layout

import (
	"testing"

	"github.com/laneflow/laneflow/pkg/errors"
	"github.com/laneflow/laneflow/pkg/layout/grid"
	"github.com/laneflow/laneflow/pkg/process"
)

func discover(t *testing.T, input string) *Ranks {
	t.Helper()
	ranks, err := discoverErr(t, input)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return ranks
}

func discoverErr(t *testing.T, input string) (*Ranks, error) {
	t.Helper()
	spec, err := process.DecodeBytes([]byte(input), process.FormatJSON)
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	g, err := process.BuildGraph(spec)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	return Discover(g)
}

const linearChain = `{
	"lanes": [{"id": "1", "name": "Main"}],
	"nodes": [
		{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "t"},
		{"id": "t", "type": "task", "name": "T", "lane_id": "1", "next": "f"},
		{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
	]
}`

func TestDiscoverLinearChain(t *testing.T) {
	ranks := discover(t, linearChain)

	want := map[string]grid.Position{
		"s": {Column: 0, Row: 0},
		"t": {Column: 1, Row: 0},
		"f": {Column: 2, Row: 0},
	}
	for id, pos := range want {
		if got := ranks.Positions[id]; got != pos {
			t.Errorf("%q at %+v, want %+v", id, got, pos)
		}
	}
	if got := ranks.Depths["1"]; got != 1 {
		t.Errorf("lane depth = %d, want 1", got)
	}
}

func TestDiscoverGatewayFanOut(t *testing.T) {
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"b": "y", "a": "x"}},
			{"id": "x", "type": "task", "name": "X", "lane_id": "1"},
			{"id": "y", "type": "task", "name": "Y", "lane_id": "1"}
		]
	}`)

	g := ranks.Positions["g"]

	// Branch keys decide the order: "a" before "b" regardless of document
	// order, so x takes the gateway's row and y fans out one row below.
	if got := ranks.Positions["x"]; got != (grid.Position{Column: g.Column + 1, Row: g.Row}) {
		t.Errorf("x at %+v, want (%d,%d)", got, g.Column+1, g.Row)
	}
	if got := ranks.Positions["y"]; got != (grid.Position{Column: g.Column + 1, Row: g.Row + 1}) {
		t.Errorf("y at %+v, want (%d,%d)", got, g.Column+1, g.Row+1)
	}
	if got := ranks.Depths["1"]; got != 2 {
		t.Errorf("lane depth = %d, want 2", got)
	}
}

func TestDiscoverGatewayContinuationsLast(t *testing.T) {
	// g2 is itself a gateway, so it sorts after the plain targets even though
	// its branch key comes first alphabetically.
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "g2", "z": "x"}},
			{"id": "g2", "type": "flow", "name": "G2", "lane_id": "1", "next": {"k": "f"}},
			{"id": "x", "type": "task", "name": "X", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`)

	gw := ranks.Positions["g"]
	if got := ranks.Positions["x"]; got.Row != gw.Row {
		t.Errorf("plain target x at row %d, want gateway row %d", got.Row, gw.Row)
	}
	if got := ranks.Positions["g2"]; got.Row != gw.Row+1 {
		t.Errorf("gateway continuation g2 at row %d, want %d", got.Row, gw.Row+1)
	}
}

func TestDiscoverCrossLane(t *testing.T) {
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "A"}, {"id": "2", "name": "B"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "t"},
			{"id": "t", "type": "usertask", "name": "T", "lane_id": "2", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`)

	// The child inherits rank coordinates from its parent even across lanes.
	if got := ranks.Positions["t"]; got != (grid.Position{Column: 1, Row: 0}) {
		t.Errorf("t at %+v, want (1,0)", got)
	}
	if got := ranks.Positions["f"]; got != (grid.Position{Column: 2, Row: 0}) {
		t.Errorf("f at %+v, want (2,0)", got)
	}
	if ranks.Depths["1"] != 1 || ranks.Depths["2"] != 1 {
		t.Errorf("depths = %v, want 1 for both lanes", ranks.Depths)
	}
}

func TestDiscoverSecondaryStart(t *testing.T) {
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s1", "type": "start", "name": "S1", "lane_id": "1", "next": "m"},
			{"id": "m", "type": "task", "name": "M", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"},
			{"id": "s2", "type": "start", "name": "S2", "lane_id": "1", "next": "t2"},
			{"id": "t2", "type": "task", "name": "T2", "lane_id": "1", "next": "m"}
		]
	}`)

	// The secondary chain anchors on m (placed at (1,0) by the primary walk).
	// Opening a row above the anchor and walking the chain backward, then
	// inserting a column for s2, yields:
	want := map[string]grid.Position{
		"s2": {Column: 0, Row: 0},
		"t2": {Column: 1, Row: 0},
		"s1": {Column: 1, Row: 1},
		"m":  {Column: 2, Row: 1},
		"f":  {Column: 3, Row: 1},
	}
	for id, pos := range want {
		if got := ranks.Positions[id]; got != pos {
			t.Errorf("%q at %+v, want %+v", id, got, pos)
		}
	}
	if got := ranks.Depths["1"]; got != 2 {
		t.Errorf("lane depth = %d, want 2", got)
	}
}

func TestDiscoverSecondaryStartBelowAnchor(t *testing.T) {
	// When the anchor sits below row 0, the alternate chain opens a row
	// underneath it instead of on top.
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s1", "type": "start", "name": "S1", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "x", "b": "y"}},
			{"id": "x", "type": "task", "name": "X", "lane_id": "1"},
			{"id": "y", "type": "task", "name": "Y", "lane_id": "1"},
			{"id": "s2", "type": "start", "name": "S2", "lane_id": "1", "next": "y"}
		]
	}`)

	y := ranks.Positions["y"]
	s2 := ranks.Positions["s2"]
	if s2.Row != y.Row+1 {
		t.Errorf("s2 at row %d, want anchor row + 1 = %d", s2.Row, y.Row+1)
	}
	if s2.Column != y.Column-1 {
		t.Errorf("s2 at column %d, want anchor column - 1 = %d", s2.Column, y.Column-1)
	}
}

func TestDiscoverSecondaryStartIntoBranchFails(t *testing.T) {
	_, err := discoverErr(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s1", "type": "start", "name": "S1", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"},
			{"id": "s2", "type": "start", "name": "S2", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "f", "b": "f"}}
		]
	}`)

	if err == nil {
		t.Fatal("expected error for secondary start hitting a branch node")
	}
	if !errors.Is(err, errors.ErrCodeUnsupportedTopology) {
		t.Errorf("error code = %q, want UNSUPPORTED_TOPOLOGY (%v)", errors.GetCode(err), err)
	}
}

func TestDiscoverSecondaryStartIntoCycleFails(t *testing.T) {
	// The chain from s2 never reaches a placed node: a and b point at each
	// other. The walk must detect the repeat instead of spinning.
	_, err := discoverErr(t, `{
		"lanes": [{"id": "1", "name": "Main"}],
		"nodes": [
			{"id": "s1", "type": "start", "name": "S1", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"},
			{"id": "s2", "type": "start", "name": "S2", "lane_id": "1", "next": "a"},
			{"id": "a", "type": "task", "name": "A", "lane_id": "1", "next": "b"},
			{"id": "b", "type": "task", "name": "B", "lane_id": "1", "next": "a"}
		]
	}`)

	if err == nil {
		t.Fatal("expected error for secondary start chain that cycles")
	}
	if !errors.Is(err, errors.ErrCodeUnsupportedTopology) {
		t.Errorf("error code = %q, want UNSUPPORTED_TOPOLOGY (%v)", errors.GetCode(err), err)
	}
}

func TestDiscoverCoversAllNodesExactlyOnce(t *testing.T) {
	input := `{
		"lanes": [{"id": "1", "name": "A"}, {"id": "2", "name": "B"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "x", "b": "y", "c": "z"}},
			{"id": "x", "type": "usertask", "name": "X", "lane_id": "2", "next": "f"},
			{"id": "y", "type": "systemtask", "name": "Y", "lane_id": "1", "next": "f"},
			{"id": "z", "type": "scripttask", "name": "Z", "lane_id": "2", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`
	ranks := discover(t, input)

	ids := []string{"s", "g", "x", "y", "z", "f"}
	if len(ranks.Positions) != len(ids) {
		t.Fatalf("positions = %d, want %d", len(ranks.Positions), len(ids))
	}
	for _, id := range ids {
		if _, ok := ranks.Positions[id]; !ok {
			t.Errorf("node %q missing from positions", id)
		}
	}
}

func TestDiscoverLaneInjectivity(t *testing.T) {
	spec, err := process.DecodeBytes([]byte(`{
		"lanes": [{"id": "1", "name": "A"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "g"},
			{"id": "g", "type": "flow", "name": "G", "lane_id": "1", "next": {"a": "x", "b": "y"}},
			{"id": "x", "type": "task", "name": "X", "lane_id": "1", "next": "f"},
			{"id": "y", "type": "task", "name": "Y", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`), process.FormatJSON)
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

	seen := make(map[grid.Position]string)
	for id, pos := range ranks.Positions {
		if other, dup := seen[pos]; dup {
			t.Errorf("nodes %q and %q share cell %+v", id, other, pos)
		}
		seen[pos] = id
	}
}

func TestDiscoverDeterministic(t *testing.T) {
	first := discover(t, linearChain)
	second := discover(t, linearChain)

	if len(first.Positions) != len(second.Positions) {
		t.Fatalf("position counts differ: %d vs %d", len(first.Positions), len(second.Positions))
	}
	for id, pos := range first.Positions {
		if second.Positions[id] != pos {
			t.Errorf("%q moved between runs: %+v vs %+v", id, pos, second.Positions[id])
		}
	}
}

func TestDiscoverEmptyLaneDepth(t *testing.T) {
	ranks := discover(t, `{
		"lanes": [{"id": "1", "name": "Used"}, {"id": "2", "name": "Empty"}],
		"nodes": [
			{"id": "s", "type": "start", "name": "S", "lane_id": "1", "next": "f"},
			{"id": "f", "type": "finish", "name": "F", "lane_id": "1"}
		]
	}`)

	if got := ranks.Depths["2"]; got != 1 {
		t.Errorf("empty lane depth = %d, want 1", got)
	}
}
