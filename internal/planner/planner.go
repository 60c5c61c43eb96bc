package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitoring"
)

// ErrEmptyBounds is returned when the planning area has no extent.
var ErrEmptyBounds = errors.New("planning bounds are empty")

// Config holds planner parameters.
type Config struct {
	AgentRadius      float64
	SafetyMargin     float64
	TwoOptMaxPasses  int
	TwoOptTimeBudget time.Duration // 0 disables the deadline
	PreviewPoints    int           // spiral preview sample count
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return ConfigFromScan(config.EmptyScanConfig())
}

// ConfigFromScan builds a planner Config from a scan config.
func ConfigFromScan(cfg *config.ScanConfig) Config {
	return Config{
		AgentRadius:      cfg.GetAgentRadius(),
		SafetyMargin:     cfg.GetSafetyMargin(),
		TwoOptMaxPasses:  cfg.GetTwoOptMaxPasses(),
		TwoOptTimeBudget: cfg.GetTwoOptTimeBudget(),
		PreviewPoints:    720,
	}
}

// Margin is the gap required between a waypoint and an obstacle surface.
func (c Config) Margin() float64 {
	return c.AgentRadius + c.SafetyMargin
}

// Plan is the result of one planning pass.
type Plan struct {
	Strategy Kind
	// Start is where the agent is placed when the cycle begins.
	Start geom.Point
	// Path is the safety-adjusted waypoint list. Empty for a spiral.
	Path []geom.Point
	// Spiral is the live analytic generator when Strategy is KindSpiral.
	Spiral *Spiral
	// Preview is a display polyline of the intended route.
	Preview    []geom.Point
	RiskPoints []RiskPoint
	TwoOpt     TwoOptStats
}

// Planner builds plans. It holds no per-cycle state.
type Planner struct {
	cfg Config
}

// New returns a Planner. Zero-valued limits fall back to DefaultConfig.
func New(cfg Config) *Planner {
	def := DefaultConfig()
	if cfg.TwoOptMaxPasses <= 0 {
		cfg.TwoOptMaxPasses = def.TwoOptMaxPasses
	}
	if cfg.PreviewPoints <= 0 {
		cfg.PreviewPoints = def.PreviewPoints
	}
	return &Planner{cfg: cfg}
}

// Config returns the planner configuration.
func (p *Planner) Config() Config { return p.cfg }

// Plan builds the reference path for one cycle over bounds.
func (p *Planner) Plan(ctx context.Context, obstacles []geom.Obstacle, bounds geom.Bounds, strategy Strategy) (*Plan, error) {
	if strategy == nil {
		return nil, fmt.Errorf("plan: nil strategy")
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("plan %s: %w", strategy.Kind(), ErrEmptyBounds)
	}
	if err := geom.ValidateObstacles(obstacles); err != nil {
		return nil, fmt.Errorf("plan %s: %w", strategy.Kind(), err)
	}

	plan, err := strategy.plan(ctx, p, obstacles, bounds)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", strategy.Kind(), err)
	}
	if len(plan.RiskPoints) > 0 {
		monitoring.Logf("[planner] %s: %d waypoint(s) could not be moved clear of obstacles (worst deficit %.2f)",
			plan.Strategy, len(plan.RiskPoints), worstDeficit(plan.RiskPoints))
	}
	return plan, nil
}

func worstDeficit(risks []RiskPoint) float64 {
	var worst float64
	for _, r := range risks {
		if r.Deficit > worst {
			worst = r.Deficit
		}
	}
	return worst
}
