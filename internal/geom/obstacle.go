package geom

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidObstacle is returned for obstacles that break the radius > 0 rule.
var ErrInvalidObstacle = errors.New("invalid obstacle")

// Obstacle is a static circular obstruction, e.g. a tree trunk.
type Obstacle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Center returns the obstacle centre.
func (o Obstacle) Center() Point {
	return Point{X: o.X, Y: o.Y}
}

// Clearance returns the gap between p and the obstacle surface. Negative
// values mean p is inside the obstacle.
func (o Obstacle) Clearance(p Point) float64 {
	return Distance(p, o.Center()) - o.Radius
}

// Validate checks the radius > 0 invariant.
func (o Obstacle) Validate() error {
	if !(o.Radius > 0) {
		return fmt.Errorf("%w: radius must be positive, got %g at (%g, %g)", ErrInvalidObstacle, o.Radius, o.X, o.Y)
	}
	return nil
}

// ValidateObstacles checks every obstacle in obs.
func ValidateObstacles(obs []Obstacle) error {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("obstacle %d: %w", i, err)
		}
	}
	return nil
}

// ObstacleField is the generator-facing representation: obstacles keyed by
// id with no ordering guarantee.
type ObstacleField map[string]Obstacle

// Obstacles flattens the field in id order so planning is deterministic.
func (f ObstacleField) Obstacles() []Obstacle {
	ids := make([]string, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Obstacle, 0, len(ids))
	for _, id := range ids {
		out = append(out, f[id])
	}
	return out
}

// Within returns the obstacles whose centres lie inside b.
func Within(obs []Obstacle, b Bounds) []Obstacle {
	var out []Obstacle
	for _, o := range obs {
		if b.Contains(o.Center()) {
			out = append(out, o)
		}
	}
	return out
}
