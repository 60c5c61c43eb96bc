// Package coverage tracks which cells of the target area have passed under
// the scanner footprint.
package coverage

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/forest.scan/internal/geom"
)

// ErrEmptyBounds is returned when the tracked area has no cells.
var ErrEmptyBounds = errors.New("coverage bounds contain no cells")

// Grid is a boolean occupancy grid over the target area.
//
// Cells are stored row-major: idx = row*Cols + col, with col growing along X
// and row along Y from Bounds.Min. ScannedCount only ever grows between
// calls to Reset.
type Grid struct {
	Bounds   geom.Bounds
	CellSize float64

	Cols int
	Rows int

	cells   []bool // len = Cols * Rows
	scanned int
}

// NewGrid creates a grid covering bounds with square cells of cellSize.
// Partial cells at the far edges are dropped, matching an integer division
// of the area side by the cell size.
func NewGrid(bounds geom.Bounds, cellSize float64) (*Grid, error) {
	if !(cellSize > 0) {
		return nil, fmt.Errorf("cell size must be positive, got %g", cellSize)
	}
	size := bounds.Size()
	cols := int(math.Floor(size.X / cellSize))
	rows := int(math.Floor(size.Y / cellSize))
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %gx%g area with cell size %g", ErrEmptyBounds, size.X, size.Y, cellSize)
	}
	return &Grid{
		Bounds:   bounds,
		CellSize: cellSize,
		Cols:     cols,
		Rows:     rows,
		cells:    make([]bool, cols*rows),
	}, nil
}

// Idx returns the flat index of cell (col, row).
func (g *Grid) Idx(col, row int) int { return row*g.Cols + col }

func (g *Grid) inRange(col, row int) bool {
	return col >= 0 && col < g.Cols && row >= 0 && row < g.Rows
}

// Update marks every cell within the circular scanner footprint centred on
// pos. The footprint radius is scanWidth/2 expressed in whole cells; cells
// are included when their centre offset (in cell units) is within that
// radius, so corners of the bounding square are not credited.
//
// Positions outside Bounds are ignored. Returns the number of cells that
// changed from unscanned to scanned.
func (g *Grid) Update(pos geom.Point, scanWidth float64) int {
	if !g.Bounds.Contains(pos) {
		return 0
	}

	col := int(math.Floor((pos.X - g.Bounds.Min.X) / g.CellSize))
	row := int(math.Floor((pos.Y - g.Bounds.Min.Y) / g.CellSize))
	radius := int(math.Floor(scanWidth / (2 * g.CellSize)))
	if radius < 0 {
		radius = 0
	}
	r2 := radius * radius

	added := 0
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			c, r := col+dx, row+dy
			if !g.inRange(c, r) {
				continue
			}
			idx := g.Idx(c, r)
			if g.cells[idx] {
				continue
			}
			g.cells[idx] = true
			added++
		}
	}
	g.scanned += added
	return added
}

// Scanned reports whether cell (col, row) has been covered. Out of range
// cells report false.
func (g *Grid) Scanned(col, row int) bool {
	if !g.inRange(col, row) {
		return false
	}
	return g.cells[g.Idx(col, row)]
}

// ScannedCount returns the number of covered cells.
func (g *Grid) ScannedCount() int { return g.scanned }

// TotalCells returns Cols*Rows.
func (g *Grid) TotalCells() int { return len(g.cells) }

// Percentage returns the covered fraction of the area in [0, 100].
func (g *Grid) Percentage() float64 {
	return float64(g.scanned) / float64(len(g.cells)) * 100
}

// Reset clears every cell and the running count.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = false
	}
	g.scanned = 0
}

// Snapshot is a read-only copy of the grid for renderers.
type Snapshot struct {
	Origin   geom.Point `json:"origin"`
	CellSize float64    `json:"cell_size"`
	Cols     int        `json:"cols"`
	Rows     int        `json:"rows"`
	Scanned  int        `json:"scanned"`
	Cells    []bool     `json:"cells"`
}

// Snapshot copies the current grid state.
func (g *Grid) Snapshot() Snapshot {
	cells := make([]bool, len(g.cells))
	copy(cells, g.cells)
	return Snapshot{
		Origin:   g.Bounds.Min,
		CellSize: g.CellSize,
		Cols:     g.Cols,
		Rows:     g.Rows,
		Scanned:  g.scanned,
		Cells:    cells,
	}
}

// CellCenter returns the canvas position of the centre of cell (col, row).
func (s Snapshot) CellCenter(col, row int) geom.Point {
	return geom.Pt(
		s.Origin.X+(float64(col)+0.5)*s.CellSize,
		s.Origin.Y+(float64(row)+0.5)*s.CellSize,
	)
}
