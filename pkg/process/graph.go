package process

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// =============================================================================
// Graph - Resolved Process Model
// =============================================================================

// Transition is a derived directed connection between two nodes. One
// transition exists per distinct ordered (source, target) pair; duplicate
// branch targets collapse into a single transition.
type Transition struct {
	Source string
	Target string
}

// ID returns the deterministic transition identifier used across the layout
// result and the output document.
func (t Transition) ID() string {
	return fmt.Sprintf("Flow_%s_%s", t.Source, t.Target)
}

// Graph is the resolved process model consumed by rank discovery and the
// document builder. It is built once per conversion and then read-only.
type Graph struct {
	Spec *Spec

	// NodesByID indexes spec nodes by ID.
	NodesByID map[string]*Node

	// Lanes holds the spec lanes sorted by ascending numeric ID. This is the
	// vertical stacking order of the diagram.
	Lanes []Lane

	// Starts holds the start nodes in declaration order. The first one seeds
	// the breadth-first traversal; the rest are secondary entry points.
	Starts []*Node

	// Transitions holds the derived transitions in declaration order of their
	// source nodes.
	Transitions []Transition

	// Incoming indexes transitions by target node ID.
	Incoming map[string][]Transition
}

// BuildGraph resolves a validated spec into the graph model.
func BuildGraph(spec *Spec) (*Graph, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		Spec:      spec,
		NodesByID: make(map[string]*Node, len(spec.Nodes)),
		Incoming:  make(map[string][]Transition),
	}

	for i := range spec.Nodes {
		n := &spec.Nodes[i]
		g.NodesByID[n.ID] = n
		if n.Kind() == KindStart {
			g.Starts = append(g.Starts, n)
		}
	}

	g.Lanes = slices.Clone(spec.Lanes)
	slices.SortStableFunc(g.Lanes, compareLaneIDs)

	seen := make(map[Transition]bool)
	for i := range spec.Nodes {
		n := &spec.Nodes[i]
		for _, target := range n.Next.Targets() {
			tr := Transition{Source: n.ID, Target: target}
			if seen[tr] {
				continue
			}
			seen[tr] = true
			g.Transitions = append(g.Transitions, tr)
			g.Incoming[target] = append(g.Incoming[target], tr)
		}
	}

	return g, nil
}

// Node returns the node with the given ID, or nil if absent.
func (g *Graph) Node(id string) *Node { return g.NodesByID[id] }

// LaneIndex returns the stacking position of a lane, or -1 if unknown.
func (g *Graph) LaneIndex(laneID string) int {
	return slices.IndexFunc(g.Lanes, func(l Lane) bool { return l.ID == laneID })
}

// compareLaneIDs orders lanes by ascending numeric ID, falling back to
// string comparison when an ID is not numeric.
func compareLaneIDs(a, b Lane) int {
	ai, aErr := strconv.Atoi(a.ID)
	bi, bErr := strconv.Atoi(b.ID)
	if aErr == nil && bErr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a.ID, b.ID)
}
