// Package grid implements the per-lane placement table used during rank
// discovery.
//
// A Grid is a sparse 2D index from integer (column, row) cells to node IDs.
// It supports inserting empty rows and columns, which shifts already-placed
// nodes without losing them, and compacting away rows and columns that ended
// up empty. Rank discovery leans on these operations to open space for
// parallel branches and secondary start chains.
package grid

import (
	"fmt"
	"slices"
)

// Position is an integer cell within a lane's grid.
type Position struct {
	Column int
	Row    int
}

// Grid is a growable placement table for one lane. The mapping from node ID
// to cell is injective: no two nodes share a cell, and a node occupies at
// most one cell.
//
// The zero value is not usable; use New.
type Grid struct {
	byNode map[string]Position
	byCell map[Position]string
	order  []string // node IDs in placement order
}

// New creates an empty grid.
func New() *Grid {
	return &Grid{
		byNode: make(map[string]Position),
		byCell: make(map[Position]string),
	}
}

// Place records the node at the given cell.
//
// The caller is responsible for freeing the target cell first (via row or
// column insertion); placing into an occupied cell, or placing a node twice,
// is a programming error and panics.
func (g *Grid) Place(nodeID string, p Position) {
	if occupant, taken := g.byCell[p]; taken {
		panic(fmt.Sprintf("grid: cell (%d,%d) already occupied by %q", p.Column, p.Row, occupant))
	}
	if _, placed := g.byNode[nodeID]; placed {
		panic(fmt.Sprintf("grid: node %q already placed", nodeID))
	}
	g.byNode[nodeID] = p
	g.byCell[p] = nodeID
	g.order = append(g.order, nodeID)
}

// PositionOf returns the node's cell, and whether the node has been placed.
func (g *Grid) PositionOf(nodeID string) (Position, bool) {
	p, ok := g.byNode[nodeID]
	return p, ok
}

// PlacedNodes returns all placed node IDs in placement order.
func (g *Grid) PlacedNodes() []string {
	return slices.Clone(g.order)
}

// Len returns the number of placed nodes.
func (g *Grid) Len() int { return len(g.byNode) }

// InsertRowAfter opens an empty row below rowIndex: every node whose row is
// strictly greater than rowIndex moves down by one.
func (g *Grid) InsertRowAfter(rowIndex int) {
	g.shift(func(p Position) Position {
		if p.Row > rowIndex {
			p.Row++
		}
		return p
	})
}

// InsertRowBefore opens an empty row at rowIndex: every node whose row is
// greater than or equal to rowIndex moves down by one.
func (g *Grid) InsertRowBefore(rowIndex int) {
	g.shift(func(p Position) Position {
		if p.Row >= rowIndex {
			p.Row++
		}
		return p
	})
}

// InsertColumnBefore opens an empty column at columnIndex: every node whose
// column is greater than or equal to columnIndex moves right by one.
func (g *Grid) InsertColumnBefore(columnIndex int) {
	g.shift(func(p Position) Position {
		if p.Column >= columnIndex {
			p.Column++
		}
		return p
	})
}

// Compact removes fully empty rows and columns, renumbering the remaining
// ones contiguously from zero while preserving their relative order.
// Compact is idempotent.
func (g *Grid) Compact() {
	if len(g.byNode) == 0 {
		return
	}

	usedCols := make(map[int]bool)
	usedRows := make(map[int]bool)
	for _, p := range g.byNode {
		usedCols[p.Column] = true
		usedRows[p.Row] = true
	}

	colIndex := denseIndex(usedCols)
	rowIndex := denseIndex(usedRows)

	g.shift(func(p Position) Position {
		return Position{Column: colIndex[p.Column], Row: rowIndex[p.Row]}
	})
}

// BoundingSize returns (max column + 1, max row + 1) over placed nodes, or
// (0, 0) for an empty grid.
func (g *Grid) BoundingSize() (columns, rows int) {
	for _, p := range g.byNode {
		if p.Column+1 > columns {
			columns = p.Column + 1
		}
		if p.Row+1 > rows {
			rows = p.Row + 1
		}
	}
	return columns, rows
}

// shift remaps every placed node's cell and rebuilds the cell index.
func (g *Grid) shift(remap func(Position) Position) {
	byCell := make(map[Position]string, len(g.byNode))
	for id, p := range g.byNode {
		moved := remap(p)
		g.byNode[id] = moved
		byCell[moved] = id
	}
	g.byCell = byCell
}

// denseIndex maps each used index to its rank among the used indices.
func denseIndex(used map[int]bool) map[int]int {
	sorted := make([]int, 0, len(used))
	for v := range used {
		sorted = append(sorted, v)
	}
	slices.Sort(sorted)

	index := make(map[int]int, len(sorted))
	for i, v := range sorted {
		index[v] = i
	}
	return index
}
