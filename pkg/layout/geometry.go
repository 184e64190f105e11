package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/laneflow/laneflow/pkg/process"
)

// =============================================================================
// Geometry Constants
// =============================================================================

// Pixel dimensions of the layout grid. A grid cell is one node box plus a
// margin on every side.
const (
	NodeWidth  = 100.0
	NodeHeight = 80.0

	MarginX = 15.0
	MarginY = 40.0

	ColumnSpacing = NodeWidth + 2*MarginX  // 130
	RowSpacing    = NodeHeight + 2*MarginY // 160

	EventSize   = 36.0 // circular start/finish marker
	GatewaySize = 50.0 // gateway diamond

	Padding = 50.0 // outer padding around the whole diagram
)

// Step distances a polyline runs straight out of a shape before its first
// bend, both derived from the horizontal margin. The backward loop uses the
// shorter drop so it hugs the shapes it passes under.
const (
	stepOffset     = MarginX / 1.5 // forward and downward routes
	loopStepOffset = MarginX / 2   // backward loop drop
)

// =============================================================================
// Diagram Building
// =============================================================================

// BuildDiagram converts grid ranks into pixel rectangles and transitions into
// routed polylines.
//
// Geometry failures are isolated per element: a node without a resolved grid
// position is left out of NodeBounds, and a transition with an unresolved
// endpoint gets an empty waypoint list. Both are logged and the rest of the
// diagram still builds.
func BuildDiagram(g *process.Graph, ranks *Ranks, logger *log.Logger) *Diagram {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	b := &builder{
		graph:  g,
		ranks:  ranks,
		logger: logger,
		diagram: &Diagram{
			NodeBounds: make(map[string]Bounds, len(g.Spec.Nodes)),
			Waypoints:  make(map[string][]Point, len(g.Transitions)),
		},
	}

	b.laneOffsets()
	b.nodeBounds()
	b.laneBounds()
	b.waypoints()

	return b.diagram
}

type builder struct {
	graph   *process.Graph
	ranks   *Ranks
	logger  *log.Logger
	diagram *Diagram

	// offsets[i] is the cumulative pixel height of lanes stacked above
	// lane i.
	offsets []float64
	total   float64
}

func (b *builder) laneOffsets() {
	b.offsets = make([]float64, len(b.graph.Lanes))
	for i, lane := range b.graph.Lanes {
		b.offsets[i] = b.total
		b.total += float64(b.ranks.Depths[lane.ID]) * RowSpacing
	}
}

// nodeBounds computes each node's shape rectangle from its grid cell and
// kind. Events are 36x36 circles pushed to the column edge facing their
// flow direction; gateways are 50x50 diamonds centered in the cell.
func (b *builder) nodeBounds() {
	for i := range b.graph.Spec.Nodes {
		n := &b.graph.Spec.Nodes[i]

		pos, ok := b.ranks.Positions[n.ID]
		if !ok {
			b.logger.Warn("node has no layout position, rendering without bounds", "node", n.ID)
			continue
		}
		laneIndex := b.graph.LaneIndex(n.LaneID)
		if laneIndex < 0 {
			b.logger.Warn("node references unknown lane, rendering without bounds", "node", n.ID, "lane", n.LaneID)
			continue
		}

		x := Padding + float64(pos.Column)*ColumnSpacing
		y := Padding + float64(pos.Row)*RowSpacing + b.offsets[laneIndex]

		switch kind := n.Kind(); {
		case kind == process.KindStart:
			b.diagram.NodeBounds[n.ID] = Bounds{
				X:      x + (NodeWidth - EventSize), // right-aligned in the cell
				Y:      y + (NodeHeight-EventSize)/2,
				Width:  EventSize,
				Height: EventSize,
			}
		case kind == process.KindFinish:
			b.diagram.NodeBounds[n.ID] = Bounds{
				X:      x, // left-aligned in the cell
				Y:      y + (NodeHeight-EventSize)/2,
				Width:  EventSize,
				Height: EventSize,
			}
		case kind.IsGateway():
			b.diagram.NodeBounds[n.ID] = Bounds{
				X:      x + (NodeWidth-GatewaySize)/2,
				Y:      y + (NodeHeight-GatewaySize)/2,
				Width:  GatewaySize,
				Height: GatewaySize,
			}
		default:
			b.diagram.NodeBounds[n.ID] = Bounds{X: x, Y: y, Width: NodeWidth, Height: NodeHeight}
		}
	}
}

// laneBounds derives one band per lane plus the wrapping plane. Every band
// spans the maximum column extent across all lanes.
func (b *builder) laneBounds() {
	maxColumns := 0
	for _, pos := range b.ranks.Positions {
		if pos.Column+1 > maxColumns {
			maxColumns = pos.Column + 1
		}
	}
	width := float64(maxColumns) * ColumnSpacing

	b.diagram.Lanes = make([]LaneBox, len(b.graph.Lanes))
	for i, lane := range b.graph.Lanes {
		b.diagram.Lanes[i] = LaneBox{
			LaneID: lane.ID,
			Bounds: Bounds{
				X:      Padding,
				Y:      Padding + b.offsets[i],
				Width:  width,
				Height: float64(b.ranks.Depths[lane.ID]) * RowSpacing,
			},
		}
	}

	b.diagram.Plane = Bounds{X: Padding, Y: Padding, Width: width, Height: b.total}
}

func (b *builder) waypoints() {
	for _, tr := range b.graph.Transitions {
		src, srcOK := b.diagram.NodeBounds[tr.Source]
		dst, dstOK := b.diagram.NodeBounds[tr.Target]
		if !srcOK || !dstOK {
			b.logger.Warn("transition endpoint has no bounds, rendering without waypoints",
				"transition", tr.ID())
			b.diagram.Waypoints[tr.ID()] = []Point{}
			continue
		}
		b.diagram.Waypoints[tr.ID()] = Route(src, dst)
	}
}

// =============================================================================
// Waypoint Routing
// =============================================================================

// Route computes the polyline connecting two shapes. The cases are checked
// in order; the first match wins:
//
//  1. Target strictly to the right: leave the source's right edge, step
//     right, align vertically, enter the target's left edge.
//  2. Target below: leave the bottom edge, step down, align horizontally,
//     enter the target's top edge.
//  3. Target above (backward loop): leave the bottom edge, step down, run
//     back, enter the target's bottom edge.
//  4. Same row, same or adjacent column: straight right-middle to
//     left-middle.
func Route(src, dst Bounds) []Point {
	switch {
	case dst.X > src.X:
		exit := Point{X: src.X + src.Width, Y: src.CenterY()}
		bendX := exit.X + stepOffset
		return []Point{
			exit,
			{X: bendX, Y: exit.Y},
			{X: bendX, Y: dst.CenterY()},
			{X: dst.X, Y: dst.CenterY()},
		}
	case src.Y < dst.Y:
		exit := Point{X: src.CenterX(), Y: src.Y + src.Height}
		bendY := exit.Y + stepOffset
		return []Point{
			exit,
			{X: exit.X, Y: bendY},
			{X: dst.CenterX(), Y: bendY},
			{X: dst.CenterX(), Y: dst.Y},
		}
	case src.Y > dst.Y:
		exit := Point{X: src.CenterX(), Y: src.Y + src.Height}
		bendY := exit.Y + loopStepOffset
		return []Point{
			exit,
			{X: exit.X, Y: bendY},
			{X: dst.CenterX(), Y: bendY},
			{X: dst.CenterX(), Y: dst.Y + dst.Height},
		}
	default:
		return []Point{
			{X: src.X + src.Width, Y: src.CenterY()},
			{X: dst.X, Y: dst.CenterY()},
		}
	}
}
