// Package layout computes pixel-space geometry for a resolved process graph.
//
// The engine runs in two phases, mirroring classic layered-layout pipelines:
//
//  1. Rank discovery ([Discover]): a breadth-first traversal assigns every
//     node an integer (column, row) cell in its lane's grid, fanning parallel
//     branches into distinct rows and reconciling secondary entry points.
//  2. Geometry ([BuildDiagram]): cells become pixel rectangles sized by node
//     kind, and transitions become routed polylines by case analysis on the
//     relative positions of their endpoints.
//
// All state is allocated per call; concurrent conversions never share grids
// or maps.
package layout

import "github.com/laneflow/laneflow/pkg/layout/grid"

// Point is a 2D pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is a pixel rectangle.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterY returns the vertical middle of the rectangle.
func (b Bounds) CenterY() float64 { return b.Y + b.Height/2 }

// CenterX returns the horizontal middle of the rectangle.
func (b Bounds) CenterX() float64 { return b.X + b.Width/2 }

// Ranks is the output of rank discovery: final grid cells for every reached
// node plus the row depth of every lane.
type Ranks struct {
	// Positions maps node ID to its compacted grid cell.
	Positions map[string]grid.Position

	// Depths maps lane ID to its layout depth (max row extent + 1). Lanes
	// without placed nodes report depth 1 so they still render as a band.
	Depths map[string]int
}

// LaneBox pairs a lane with its computed band rectangle.
type LaneBox struct {
	LaneID string `json:"lane_id"`
	Bounds Bounds `json:"bounds"`
}

// Diagram is the geometry result handed to the document serializer.
//
// Per-element failures are represented by absence: a node missing from
// NodeBounds renders without bounds, and a transition with an empty waypoint
// slice renders without a path. Neither aborts the rest of the diagram.
type Diagram struct {
	// NodeBounds maps node ID to its shape rectangle. Nodes whose grid
	// position could not be resolved are absent.
	NodeBounds map[string]Bounds `json:"node_bounds"`

	// Lanes holds one band rectangle per lane, in stacking order.
	Lanes []LaneBox `json:"lanes"`

	// Plane is the rectangle wrapping all lanes (the participant shape).
	Plane Bounds `json:"plane"`

	// Waypoints maps transition ID to its routed polyline. Transitions whose
	// endpoints could not be resolved map to an empty slice.
	Waypoints map[string][]Point `json:"waypoints"`
}
