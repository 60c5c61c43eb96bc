package planner

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/forest.scan/internal/geom"
)

// Boustrophedon sweeps the bounds in horizontal rows, reversing direction
// at each side. Rows start at bounds.Min and stop once the next row would
// lie past the far vertical bound.
type Boustrophedon struct {
	RowSpacing float64 // 0 means one tenth of the bounds height
	Step       float64 // horizontal waypoint spacing; 0 means RowSpacing
}

func (Boustrophedon) Kind() Kind { return KindBoustrophedon }

// Waypoints returns the raw zig-zag before safety adjustment.
func (b Boustrophedon) Waypoints(bounds geom.Bounds) []geom.Point {
	size := bounds.Size()
	spacing := b.RowSpacing
	if !(spacing > 0) {
		spacing = size.Y / 10
	}
	step := b.Step
	if !(step > 0) {
		step = spacing
	}

	// Integer counts keep the row and column positions free of drift.
	cols := int(math.Floor(size.X/step + 1e-9))
	rows := int(math.Floor(size.Y/spacing + 1e-9))

	out := make([]geom.Point, 0, (rows+1)*(cols+1))
	for r := 0; r <= rows; r++ {
		y := bounds.Min.Y + float64(r)*spacing
		for c := 0; c <= cols; c++ {
			i := c
			if r%2 == 1 {
				i = cols - c
			}
			out = append(out, geom.Pt(bounds.Min.X+float64(i)*step, y))
		}
	}
	return out
}

func (b Boustrophedon) plan(_ context.Context, p *Planner, obstacles []geom.Obstacle, bounds geom.Bounds) (*Plan, error) {
	raw := b.Waypoints(bounds)
	if len(raw) == 0 {
		return nil, fmt.Errorf("boustrophedon produced no waypoints for %v", bounds)
	}
	adj := Adjust(raw, obstacles, p.cfg.Margin())
	return &Plan{
		Strategy:   KindBoustrophedon,
		Start:      adj.Path[0],
		Path:       adj.Path,
		Preview:    clonePoints(adj.Path),
		RiskPoints: adj.RiskPoints,
	}, nil
}
