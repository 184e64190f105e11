package layout

import (
	"cmp"
	"slices"

	"github.com/laneflow/laneflow/pkg/errors"
	"github.com/laneflow/laneflow/pkg/layout/grid"
	"github.com/laneflow/laneflow/pkg/process"
)

// Discover assigns every reachable node a grid cell within its lane so that
// transitions flow left to right and parallel branches fan out into distinct
// rows.
//
// The traversal is breadth-first from the first declared start node. Each
// remaining start node is then walked forward along single-successor links
// until it meets an already-placed node, and its chain is laid out backward
// from that anchor. A secondary chain that runs into a branch map before
// reaching a placed node is an unsupported topology and fails the whole
// build.
func Discover(g *process.Graph) (*Ranks, error) {
	d := &discovery{
		graph: g,
		grids: make(map[string]*grid.Grid, len(g.Lanes)),
	}
	for _, l := range g.Lanes {
		d.grids[l.ID] = grid.New()
	}

	if len(g.Starts) > 0 {
		d.walk(g.Starts[0])
	}

	for _, s := range g.Starts {
		if d.placed(s) {
			continue
		}
		if err := d.placeSecondary(s); err != nil {
			return nil, err
		}
	}

	return d.collect(), nil
}

// discovery carries the per-call traversal state. Nothing here outlives one
// Discover invocation.
type discovery struct {
	graph *process.Graph
	grids map[string]*grid.Grid
}

func (d *discovery) placed(n *process.Node) bool {
	_, ok := d.grids[n.LaneID].PositionOf(n.ID)
	return ok
}

// walk runs the breadth-first placement from the primary start node.
func (d *discovery) walk(start *process.Node) {
	d.grids[start.LaneID].Place(start.ID, grid.Position{Column: 0, Row: 0})

	queue := []*process.Node{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for i, child := range d.orderedChildren(current) {
			if d.placed(child) {
				continue
			}
			childGrid := d.grids[child.LaneID]
			if i > 0 {
				childGrid.InsertRowAfter(i - 1)
			}
			// Re-read after the insertion: the parent itself may have
			// shifted when it shares the child's lane.
			parentPos, _ := d.grids[current.LaneID].PositionOf(current.ID)
			childGrid.Place(child.ID, grid.Position{
				Column: parentPos.Column + 1,
				Row:    parentPos.Row + i,
			})
			queue = append(queue, child)
		}
	}
}

// orderedChildren computes the child list for a node. For branch maps,
// targets that are not themselves gateways come first, sorted by branch key;
// gateway continuations follow in document order. Duplicate targets keep
// their first occurrence.
func (d *discovery) orderedChildren(n *process.Node) []*process.Node {
	next := n.Next
	if next == nil {
		return nil
	}

	if !next.IsBranch() {
		if next.Target == "" {
			return nil
		}
		return []*process.Node{d.graph.Node(next.Target)}
	}

	var plain, gateways []process.Branch
	for _, b := range next.Branches {
		if d.graph.Node(b.Target).Kind().IsGateway() {
			gateways = append(gateways, b)
		} else {
			plain = append(plain, b)
		}
	}
	slices.SortStableFunc(plain, func(a, b process.Branch) int {
		return cmp.Compare(a.Key, b.Key)
	})

	seen := make(map[string]bool, len(next.Branches))
	children := make([]*process.Node, 0, len(next.Branches))
	for _, b := range append(plain, gateways...) {
		if seen[b.Target] {
			continue
		}
		seen[b.Target] = true
		children = append(children, d.graph.Node(b.Target))
	}
	return children
}

// placeSecondary lays out an alternate start chain: walk forward to an
// already-placed anchor, open a row next to it, then place the walked nodes
// backward from the anchor column.
func (d *discovery) placeSecondary(start *process.Node) error {
	var stack []*process.Node
	var anchor *process.Node

	visited := make(map[string]bool)
	for current := start; ; {
		if d.placed(current) {
			anchor = current
			break
		}
		if visited[current.ID] {
			return errors.New(errors.ErrCodeUnsupportedTopology,
				"start node %q cycles through %q without joining the placed graph", start.ID, current.ID)
		}
		visited[current.ID] = true
		if current.Next.IsBranch() {
			return errors.New(errors.ErrCodeUnsupportedTopology,
				"start node %q reaches branching node %q before joining the placed graph", start.ID, current.ID)
		}
		if current.Next == nil || current.Next.Target == "" {
			return errors.New(errors.ErrCodeUnsupportedTopology,
				"start node %q dead-ends at %q without joining the placed graph", start.ID, current.ID)
		}
		stack = append(stack, current)
		current = d.graph.Node(current.Next.Target)
	}

	anchorGrid := d.grids[anchor.LaneID]
	anchorPos, _ := anchorGrid.PositionOf(anchor.ID)

	var row int
	if anchorPos.Row == 0 {
		anchorGrid.InsertRowBefore(0)
		row = 0
	} else {
		anchorGrid.InsertRowAfter(anchorPos.Row)
		row = anchorPos.Row + 1
	}

	column := anchorPos.Column
	for i := len(stack) - 1; i >= 0; i-- {
		n := stack[i]
		nodeGrid := d.grids[n.LaneID]
		column--
		if column < 0 {
			nodeGrid.InsertColumnBefore(0)
			column = 0
		}
		nodeGrid.Place(n.ID, grid.Position{Column: column, Row: row})
	}

	return nil
}

// collect compacts every lane grid and assembles the final rank result.
func (d *discovery) collect() *Ranks {
	ranks := &Ranks{
		Positions: make(map[string]grid.Position),
		Depths:    make(map[string]int, len(d.graph.Lanes)),
	}

	for _, lane := range d.graph.Lanes {
		laneGrid := d.grids[lane.ID]
		laneGrid.Compact()

		for _, nodeID := range laneGrid.PlacedNodes() {
			pos, _ := laneGrid.PositionOf(nodeID)
			ranks.Positions[nodeID] = pos
		}

		_, rows := laneGrid.BoundingSize()
		if rows == 0 {
			rows = 1 // empty lanes still render as a band
		}
		ranks.Depths[lane.ID] = rows
	}

	return ranks
}
