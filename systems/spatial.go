// Package systems provides the SPH solver and the entities that feed and drain it.
package systems

import "math"

// SpatialGrid provides O(1) neighbor candidate lookups using a uniform cell grid.
// It stores particle indices, never particles, and is rebuilt every step.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int32 // flat grid of index lists, row-major
}

// NewSpatialGrid creates a spatial grid covering a width×height domain.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear empties every cell, keeping the backing arrays for reuse.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds a particle index at the given position.
// Positions outside the grid are dropped; such particles see no neighbors this step.
func (g *SpatialGrid) Insert(idx int32, x, y float64) {
	col, row := g.cellCoords(x, y)
	if col < 0 || col >= g.cols || row < 0 || row >= g.rows {
		return
	}
	cell := row*g.cols + col
	g.cells[cell] = append(g.cells[cell], idx)
}

// QueryInto appends every index stored in the 3×3 block of cells around
// (x, y) to dst and returns it. The block includes the query's own cell,
// so a particle finds itself. No ordering is guaranteed. A position outside
// the grid has no neighborhood and yields nothing.
func (g *SpatialGrid) QueryInto(dst []int32, x, y float64) []int32 {
	centerCol, centerRow := g.cellCoords(x, y)
	if centerCol < 0 || centerRow < 0 {
		return dst
	}

	for dr := -1; dr <= 1; dr++ {
		row := centerRow + dr
		if row < 0 || row >= g.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			col := centerCol + dc
			if col < 0 || col >= g.cols {
				continue
			}
			dst = append(dst, g.cells[row*g.cols+col]...)
		}
	}

	return dst
}

// Query returns the 3×3 neighborhood candidates for (x, y) in a new slice.
func (g *SpatialGrid) Query(x, y float64) []int32 {
	return g.QueryInto(nil, x, y)
}

// Dims returns the number of columns and rows.
func (g *SpatialGrid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the width of a cell.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Len returns the number of indices currently stored.
func (g *SpatialGrid) Len() int {
	n := 0
	for i := range g.cells {
		n += len(g.cells[i])
	}
	return n
}

// cellCoords returns the column and row for a world position.
// Anything outside the grid (including NaN) maps to -1.
func (g *SpatialGrid) cellCoords(x, y float64) (col, row int) {
	fc := math.Floor(x / g.cellSize)
	fr := math.Floor(y / g.cellSize)
	if !(fc >= 0 && fc < float64(g.cols)) {
		fc = -1
	}
	if !(fr >= 0 && fr < float64(g.rows)) {
		fr = -1
	}
	return int(fc), int(fr)
}
