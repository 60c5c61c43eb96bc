package planner

import (
	"context"
	"time"

	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitoring"
)

// Tour visits every target once, starting from the bounds centre. The
// visiting order is seeded by nearest neighbour and refined with 2-opt.
type Tour struct {
	// Targets overrides the default of obstacle centres inside the bounds.
	Targets []geom.Point
}

func (Tour) Kind() Kind { return KindTour }

func (t Tour) targets(obstacles []geom.Obstacle, bounds geom.Bounds) []geom.Point {
	if len(t.Targets) > 0 {
		return clonePoints(t.Targets)
	}
	inside := geom.Within(obstacles, bounds)
	out := make([]geom.Point, 0, len(inside))
	for _, o := range inside {
		out = append(out, o.Center())
	}
	return out
}

func (t Tour) plan(ctx context.Context, p *Planner, obstacles []geom.Obstacle, bounds geom.Bounds) (*Plan, error) {
	anchor := bounds.Center()
	seed := NearestNeighbour(anchor, t.targets(obstacles, bounds))

	if p.cfg.TwoOptTimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TwoOptTimeBudget)
		defer cancel()
	}
	started := time.Now()
	route, stats := TwoOpt(ctx, seed, false, p.cfg.TwoOptMaxPasses)
	if stats.TimedOut {
		monitoring.Logf("[planner] 2-opt stopped after %d passes (%v); keeping best route so far, length %.1f",
			stats.Passes, time.Since(started), stats.FinalLength)
	} else {
		monitoring.Debugf("[planner] 2-opt: %d targets, %d passes, %d improvements, %.1f -> %.1f",
			len(seed)-1, stats.Passes, stats.Improvements, stats.InitialLength, stats.FinalLength)
	}

	adj := Adjust(route, obstacles, p.cfg.Margin())
	return &Plan{
		Strategy:   KindTour,
		Start:      adj.Path[0],
		Path:       adj.Path,
		Preview:    clonePoints(adj.Path),
		RiskPoints: adj.RiskPoints,
		TwoOpt:     stats,
	}, nil
}
