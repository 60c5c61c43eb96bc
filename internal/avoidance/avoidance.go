// Package avoidance substitutes short detour arcs for travel segments that
// pass too close to an obstacle.
package avoidance

import (
	"math"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitoring"
)

// Config holds avoidance parameters.
type Config struct {
	AgentRadius float64
	// Clearance is the extra gap beyond agent and obstacle radii that
	// flags a segment.
	Clearance float64
	// TriggerRadius is how close the blocking obstacle must be to the
	// agent before an arc is generated.
	TriggerRadius float64
	ArcPoints     int
	// ConsiderBehind lets a flagged obstacle behind the agent block when
	// nothing lies ahead. Off by default.
	ConsiderBehind bool
}

// DefaultConfig returns the avoidance defaults.
func DefaultConfig() Config {
	return ConfigFromScan(config.EmptyScanConfig())
}

// ConfigFromScan builds an avoidance Config from a scan config.
func ConfigFromScan(cfg *config.ScanConfig) Config {
	return Config{
		AgentRadius:    cfg.GetAgentRadius(),
		Clearance:      cfg.GetClearance(),
		TriggerRadius:  cfg.GetTriggerRadius(),
		ArcPoints:      cfg.GetArcPoints(),
		ConsiderBehind: cfg.GetConsiderBehind(),
	}
}

// Detour is the outcome of evaluating one travel segment.
type Detour struct {
	// Points always holds at least one point: the target itself or the
	// arc samples around Blocking.
	Points []geom.Point
	// Blocking is the obstacle the arc goes around, nil if none.
	Blocking *geom.Obstacle
	// Flagged is true when some obstacle was too close to the segment.
	Flagged bool
	// Uncorrected is true when the segment was flagged but no arc was
	// generated, so the agent travels the straight segment anyway.
	Uncorrected bool
}

// Arc reports whether the detour replaces the segment with arc points.
func (d Detour) Arc() bool { return d.Blocking != nil }

// Avoider evaluates segments against a static obstacle field.
type Avoider struct {
	cfg Config
}

// New returns an Avoider. A non-positive ArcPoints means 9.
func New(cfg Config) *Avoider {
	if cfg.ArcPoints <= 0 {
		cfg.ArcPoints = 9
	}
	return &Avoider{cfg: cfg}
}

// Config returns the avoider configuration.
func (a *Avoider) Config() Config { return a.cfg }

// Step returns the points to travel through from current toward target.
func (a *Avoider) Step(current, target geom.Point, obstacles []geom.Obstacle) []geom.Point {
	return a.Evaluate(current, target, obstacles).Points
}

// Evaluate checks the segment from current to target.
//
// A segment is flagged when any obstacle centre lies closer to its line than
// obstacle radius + agent radius + clearance. The blocking obstacle is the
// one nearest to current among those whose centre projects forward along
// the direction of travel. If it lies within the trigger radius the result
// is ArcPoints points on the circle through current around that obstacle,
// sweeping the short way toward target. Otherwise the target is returned
// unchanged and the detour is marked uncorrected. A zero-length segment is
// flagged whenever obstacles exist and is always uncorrected.
func (a *Avoider) Evaluate(current, target geom.Point, obstacles []geom.Obstacle) Detour {
	flagged := a.flagged(current, target, obstacles)
	if len(flagged) == 0 {
		return Detour{Points: []geom.Point{target}}
	}

	if current == target {
		// No direction of travel to detour around.
		return Detour{Points: []geom.Point{target}, Flagged: true, Uncorrected: true}
	}

	blocking := a.blocking(current, target, obstacles, flagged)
	if blocking < 0 || geom.Distance(current, obstacles[blocking].Center()) >= a.cfg.TriggerRadius {
		monitoring.Debugf("[avoidance] segment %v -> %v flagged by %d obstacle(s) but no detour triggered",
			current, target, len(flagged))
		return Detour{Points: []geom.Point{target}, Flagged: true, Uncorrected: true}
	}

	o := obstacles[blocking]
	return Detour{
		Points:   a.arc(current, target, o),
		Blocking: &o,
		Flagged:  true,
	}
}

// flagged returns the indices of obstacles too close to the segment line.
func (a *Avoider) flagged(current, target geom.Point, obstacles []geom.Obstacle) []int {
	var out []int
	for i, o := range obstacles {
		// A zero-length segment has line distance 0 and flags everything.
		d := geom.PointToLineDistance(o.Center(), current, target)
		if d < o.Radius+a.cfg.AgentRadius+a.cfg.Clearance {
			out = append(out, i)
		}
	}
	return out
}

// blocking picks the nearest forward obstacle, or -1. With ConsiderBehind
// set it falls back to the nearest flagged obstacle.
func (a *Avoider) blocking(current, target geom.Point, obstacles []geom.Obstacle, flagged []int) int {
	dir := geom.Direction(current, target)
	best, bestDist := -1, math.Inf(1)
	for i, o := range obstacles {
		if geom.ForwardProjection(o.Center(), current, dir) <= 0 {
			continue
		}
		if d := geom.Distance(current, o.Center()); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 || !a.cfg.ConsiderBehind {
		return best
	}
	for _, i := range flagged {
		if d := geom.Distance(current, obstacles[i].Center()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (a *Avoider) arc(current, target geom.Point, o geom.Obstacle) []geom.Point {
	c := o.Center()
	r := geom.Distance(current, c)
	start := geom.Heading(geom.Direction(c, current))
	delta := geom.NormalizeAngleDelta(geom.Heading(geom.Direction(c, target)) - start)

	n := a.cfg.ArcPoints
	step := delta / float64(n+1)
	pts := make([]geom.Point, n)
	for k := 1; k <= n; k++ {
		pts[k-1] = geom.PolarOffset(c, r, start+float64(k)*step)
	}
	monitoring.Debugf("[avoidance] arc of %d points around (%.1f, %.1f) r=%.1f sweep %.2f rad",
		n, o.X, o.Y, r, delta)
	return pts
}
