package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a planar position or vector in canvas units.
type Point = r2.Vec

// Bounds is an axis-aligned target area. Min is the top-left corner in
// canvas coordinates (y grows downward, as on screen).
type Bounds = r2.Box

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// PointToLineDistance returns the perpendicular distance from p to the
// infinite line through start and end. This is a line distance, not a
// segment distance: callers decide separately whether p is ahead of the
// mover. A degenerate line (start == end) has distance 0.
func PointToLineDistance(p, start, end Point) float64 {
	d := r2.Sub(end, start)
	length := r2.Norm(d)
	if length == 0 {
		return 0
	}
	return math.Abs(r2.Cross(d, r2.Sub(start, p))) / length
}

// NormalizeAngleDelta maps an angle difference in radians into (-π, π], so
// that arcs always turn the shorter way round.
func NormalizeAngleDelta(delta float64) float64 {
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}

// ForwardProjection returns the signed distance of p along dir measured from
// origin. dir must be a unit vector; positive means p lies ahead.
func ForwardProjection(p, origin, dir Point) float64 {
	return r2.Dot(r2.Sub(p, origin), dir)
}

// Direction returns the unit vector from `from` towards `to`, or the zero
// vector when the two points coincide.
func Direction(from, to Point) Point {
	d := r2.Sub(to, from)
	if r2.Norm(d) == 0 {
		return Point{}
	}
	return r2.Unit(d)
}

// Heading returns the angle of v in radians, measured from +X.
func Heading(v Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// PolarOffset returns the point at distance r from center at angle theta.
func PolarOffset(center Point, r, theta float64) Point {
	return Point{
		X: center.X + r*math.Cos(theta),
		Y: center.Y + r*math.Sin(theta),
	}
}

// Lerp moves a towards b by fraction t.
func Lerp(a, b Point, t float64) Point {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Lerp(a, b, 0.5)
}

// StepToward moves from `from` towards `to` by at most step. The second
// return is true when `to` was reached within this step.
func StepToward(from, to Point, step float64) (Point, bool) {
	dist := Distance(from, to)
	if dist <= step {
		return to, true
	}
	return r2.Add(from, r2.Scale(step/dist, r2.Sub(to, from))), false
}

// PolylineLength sums the segment lengths of pts.
func PolylineLength(pts []Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += Distance(pts[i-1], pts[i])
	}
	return total
}

// NewBounds returns the well-formed bounds spanning the two corners.
func NewBounds(x0, y0, x1, y1 float64) Bounds {
	return r2.NewBox(x0, y0, x1, y1)
}

// CenteredBounds returns a size×size square centred on a canvas of the given
// dimensions. This is the scan plot used by the forest scanner.
func CenteredBounds(canvasW, canvasH, size float64) Bounds {
	x0 := (canvasW - size) / 2
	y0 := (canvasH - size) / 2
	return NewBounds(x0, y0, x0+size, y0+size)
}

// Diagonal returns the length of the bounds diagonal.
func Diagonal(b Bounds) float64 {
	return r2.Norm(b.Size())
}
