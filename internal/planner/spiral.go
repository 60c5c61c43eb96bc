package planner

import (
	"context"
	"math"

	"github.com/banshee-data/forest.scan/internal/geom"
)

// Spiral is an analytic inward (or outward) spiral around Center. It has
// no stored waypoint list; each Advance yields the next candidate.
//
// Angle and radius are derived from the tick counter rather than
// accumulated, so a spiral with StartRadius 300 and ShrinkRate 0.1 reaches
// radius 0 on exactly tick 3000.
type Spiral struct {
	Center          geom.Point
	StartRadius     float64
	ShrinkRate      float64 // radius lost per tick
	AngularSpeedDeg float64 // degrees per tick, negative is clockwise
	MinRadius       float64

	tick int
}

// NewSpiral returns a spiral starting at angle 0 on the circle of
// startRadius around center.
func NewSpiral(center geom.Point, startRadius, shrinkRate, angularSpeedDeg float64) *Spiral {
	return &Spiral{
		Center:          center,
		StartRadius:     startRadius,
		ShrinkRate:      shrinkRate,
		AngularSpeedDeg: angularSpeedDeg,
	}
}

// NewSpiralForBounds sizes a spiral for a scan area. The start radius is
// half the diagonal extended by extendPercent so the first winding lies
// outside the area. The shrink rate keeps consecutive arms
// armGapFraction × scanWidth apart.
func NewSpiralForBounds(bounds geom.Bounds, scanWidth, extendPercent, angularSpeedDeg, armGapFraction float64) *Spiral {
	start := geom.Diagonal(bounds) / 2 * (1 + extendPercent/100)
	shrink := scanWidth * armGapFraction / 360 * math.Abs(angularSpeedDeg)
	return NewSpiral(bounds.Center(), start, shrink, angularSpeedDeg)
}

func (s *Spiral) Kind() Kind { return KindSpiral }

// Tick returns the number of Advance calls since the last Reset.
func (s *Spiral) Tick() int { return s.tick }

// Radius is the current distance from Center.
func (s *Spiral) Radius() float64 {
	return s.radiusAt(s.tick)
}

// AngleDeg is the current polar angle in degrees.
func (s *Spiral) AngleDeg() float64 {
	return float64(s.tick) * s.AngularSpeedDeg
}

// Position is the point at the current tick.
func (s *Spiral) Position() geom.Point {
	return s.positionAt(s.tick)
}

// Advance moves one tick along the spiral and returns the new candidate.
func (s *Spiral) Advance() geom.Point {
	s.tick++
	return s.Position()
}

// Done reports whether the radius has shrunk to MinRadius.
func (s *Spiral) Done() bool {
	return s.Radius() <= s.MinRadius
}

// Reset returns the spiral to its start radius and angle 0.
func (s *Spiral) Reset() {
	s.tick = 0
}

// TotalTicks is the number of Advance calls needed to reach MinRadius.
// It returns -1 for a spiral that never shrinks.
func (s *Spiral) TotalTicks() int {
	if !(s.ShrinkRate > 0) {
		return -1
	}
	n := int(math.Ceil((s.StartRadius - s.MinRadius) / s.ShrinkRate))
	// Guard against ceil landing one off because of float rounding.
	for n > 0 && s.radiusAt(n-1) <= s.MinRadius {
		n--
	}
	for s.radiusAt(n) > s.MinRadius {
		n++
	}
	return n
}

// Preview samples the whole spiral from the start for display, using at
// most maxPoints points. The stepper never reads it.
func (s *Spiral) Preview(maxPoints int) []geom.Point {
	total := s.TotalTicks()
	if total < 0 || maxPoints < 2 {
		return nil
	}
	stride := 1
	if total+1 > maxPoints {
		stride = int(math.Ceil(float64(total) / float64(maxPoints-1)))
	}
	out := make([]geom.Point, 0, total/stride+2)
	for n := 0; n < total; n += stride {
		out = append(out, s.positionAt(n))
	}
	return append(out, s.positionAt(total))
}

func (s *Spiral) radiusAt(n int) float64 {
	return s.StartRadius - float64(n)*s.ShrinkRate
}

func (s *Spiral) positionAt(n int) geom.Point {
	theta := float64(n) * s.AngularSpeedDeg * math.Pi / 180
	return geom.PolarOffset(s.Center, s.radiusAt(n), theta)
}

func (s *Spiral) plan(_ context.Context, p *Planner, _ []geom.Obstacle, _ geom.Bounds) (*Plan, error) {
	s.Reset()
	return &Plan{
		Strategy: KindSpiral,
		Start:    s.Position(),
		Spiral:   s,
		Preview:  s.Preview(p.cfg.PreviewPoints),
	}, nil
}
