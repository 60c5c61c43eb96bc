package planner

import (
	"math"

	"github.com/banshee-data/forest.scan/internal/geom"
)

const (
	// safetyTolerance absorbs rounding when a point is pushed exactly onto
	// the safety boundary.
	safetyTolerance = 1e-9
	blendFactor     = 0.3
	retryDirections = 8
	retryScale      = 1.5
)

// RiskPoint is a waypoint the adjuster could not move clear of every
// obstacle. Deficit is how far inside the required gap it still sits.
type RiskPoint struct {
	Index   int        `json:"index"`
	Point   geom.Point `json:"point"`
	Deficit float64    `json:"deficit"`
}

// Adjusted is the output of Adjust.
type Adjusted struct {
	Path       []geom.Point
	RiskPoints []RiskPoint
}

// Adjust moves waypoints until each is at least obstacle radius + margin
// from every obstacle centre, keeping the path smooth.
//
// Each point is pushed radially out of any violated obstacle. An interior
// point that moved is blended toward the midpoint of its adjusted
// predecessor and raw successor if the blend stays safe. A point that is
// still unsafe tries eight compass offsets of 1.5 × margin around its
// original position, and keeps the least violating one when none is safe.
// A final pass smooths interior points toward their neighbours where that
// stays safe. Endpoints are never smoothed. The input is not modified.
func Adjust(path []geom.Point, obstacles []geom.Obstacle, margin float64) Adjusted {
	n := len(path)
	out := make([]geom.Point, n)
	for i, orig := range path {
		p := pushOut(orig, obstacles, margin)
		if p != orig && i > 0 && i < n-1 {
			blended := geom.Lerp(p, geom.Midpoint(out[i-1], path[i+1]), blendFactor)
			if deficit(blended, obstacles, margin) <= safetyTolerance {
				p = blended
			}
		}
		if deficit(p, obstacles, margin) > safetyTolerance {
			p = retry(orig, p, obstacles, margin)
		}
		out[i] = p
	}

	for i := 1; i < n-1; i++ {
		smoothed := geom.Lerp(out[i], geom.Midpoint(out[i-1], out[i+1]), blendFactor)
		if deficit(smoothed, obstacles, margin) <= safetyTolerance {
			out[i] = smoothed
		}
	}

	var risks []RiskPoint
	for i, p := range out {
		if d := deficit(p, obstacles, margin); d > safetyTolerance {
			risks = append(risks, RiskPoint{Index: i, Point: p, Deficit: d})
		}
	}
	return Adjusted{Path: out, RiskPoints: risks}
}

// Safe reports whether p keeps radius + margin from every obstacle.
func Safe(p geom.Point, obstacles []geom.Obstacle, margin float64) bool {
	return deficit(p, obstacles, margin) <= safetyTolerance
}

// deficit is the largest shortfall of p against any obstacle's required
// gap, or 0 when p is safe.
func deficit(p geom.Point, obstacles []geom.Obstacle, margin float64) float64 {
	var worst float64
	for _, o := range obstacles {
		if d := o.Radius + margin - geom.Distance(p, o.Center()); d > worst {
			worst = d
		}
	}
	return worst
}

// pushOut moves p radially out of each violated obstacle in turn so it
// lands on that obstacle's safety boundary. A point exactly on a centre is
// pushed along +X.
func pushOut(p geom.Point, obstacles []geom.Obstacle, margin float64) geom.Point {
	for _, o := range obstacles {
		required := o.Radius + margin
		c := o.Center()
		d := geom.Distance(p, c)
		if d >= required {
			continue
		}
		dir := geom.Pt(1, 0)
		if d > 0 {
			dir = geom.Direction(c, p)
		}
		p = geom.PolarOffset(c, required, geom.Heading(dir))
	}
	return p
}

func retry(orig, fallback geom.Point, obstacles []geom.Obstacle, margin float64) geom.Point {
	best, bestDeficit := fallback, deficit(fallback, obstacles, margin)
	for k := 0; k < retryDirections; k++ {
		theta := float64(k) * math.Pi / 4
		cand := geom.PolarOffset(orig, margin*retryScale, theta)
		d := deficit(cand, obstacles, margin)
		if d <= safetyTolerance {
			return cand
		}
		if d < bestDeficit {
			best, bestDeficit = cand, d
		}
	}
	return best
}
