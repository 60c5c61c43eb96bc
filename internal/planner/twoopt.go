package planner

import (
	"context"
	"math"

	"github.com/banshee-data/forest.scan/internal/geom"
)

// improvementEpsilon is the minimum length reduction that counts as an
// improving 2-opt move. It stops the search cycling on float noise.
const improvementEpsilon = 1e-9

// TwoOptStats describes one optimisation run.
type TwoOptStats struct {
	Passes        int     `json:"passes"`
	Improvements  int     `json:"improvements"`
	InitialLength float64 `json:"initial_length"`
	FinalLength   float64 `json:"final_length"`
	TimedOut      bool    `json:"timed_out"`
}

// RouteLength is the summed edge length of route. A closed route also
// counts the edge from the last point back to the first.
func RouteLength(route []geom.Point, closed bool) float64 {
	total := geom.PolylineLength(route)
	if closed && len(route) > 2 {
		total += geom.Distance(route[len(route)-1], route[0])
	}
	return total
}

// TwoOpt improves route by segment reversal until no strictly improving
// move remains, maxPasses full sweeps have run, or ctx is done. route[0]
// never moves. For an open route it is the fixed start; for a closed route
// every tour has an equivalent rotation that keeps it in place.
//
// The input slice is not modified. The returned route is never longer than
// the input.
func TwoOpt(ctx context.Context, route []geom.Point, closed bool, maxPasses int) ([]geom.Point, TwoOptStats) {
	best := clonePoints(route)
	stats := TwoOptStats{InitialLength: RouteLength(best, closed)}
	n := len(best)
	if n < 3 || (closed && n < 4) {
		stats.FinalLength = stats.InitialLength
		return best, stats
	}

	for stats.Passes < maxPasses {
		stats.Passes++
		improved := false
		for i := 1; i < n-1; i++ {
			if ctx.Err() != nil {
				stats.TimedOut = true
				stats.FinalLength = RouteLength(best, closed)
				return best, stats
			}
			for j := i + 1; j < n; j++ {
				if moveDelta(best, i, j, closed) < -improvementEpsilon {
					reverse(best[i : j+1])
					stats.Improvements++
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	stats.FinalLength = RouteLength(best, closed)
	return best, stats
}

// moveDelta is the change in route length from reversing route[i..j].
func moveDelta(route []geom.Point, i, j int, closed bool) float64 {
	n := len(route)
	a, b, c := route[i-1], route[i], route[j]
	if j == n-1 && !closed {
		// Reversing the tail only swaps the entry edge.
		return geom.Distance(a, c) - geom.Distance(a, b)
	}
	d := route[(j+1)%n]
	return geom.Distance(a, c) + geom.Distance(b, d) - geom.Distance(a, b) - geom.Distance(c, d)
}

func reverse(pts []geom.Point) {
	for l, r := 0, len(pts)-1; l < r; l, r = l+1, r-1 {
		pts[l], pts[r] = pts[r], pts[l]
	}
}

// NearestNeighbour orders targets greedily starting from start. The result
// begins with start. Ties keep the earlier target.
func NearestNeighbour(start geom.Point, targets []geom.Point) []geom.Point {
	remaining := clonePoints(targets)
	route := make([]geom.Point, 0, len(targets)+1)
	route = append(route, start)
	cur := start
	for len(remaining) > 0 {
		bi, bd := 0, math.Inf(1)
		for i, t := range remaining {
			if d := geom.Distance(cur, t); d < bd {
				bi, bd = i, d
			}
		}
		cur = remaining[bi]
		route = append(route, cur)
		remaining = append(remaining[:bi], remaining[bi+1:]...)
	}
	return route
}

func clonePoints(pts []geom.Point) []geom.Point {
	if pts == nil {
		return nil
	}
	out := make([]geom.Point, len(pts))
	copy(out, pts)
	return out
}
