package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
)

func TestConfigFromScan(t *testing.T) {
	cfg := ConfigFromScan(config.EmptyScanConfig())
	assert.Equal(t, 8.0, cfg.AgentRadius)
	assert.Equal(t, 10.0, cfg.SafetyMargin)
	assert.Equal(t, 18.0, cfg.Margin())
	assert.Equal(t, 1000, cfg.TwoOptMaxPasses)
	assert.Equal(t, 250*time.Millisecond, cfg.TwoOptTimeBudget)
}

func TestNew_FillsZeroLimits(t *testing.T) {
	p := New(Config{AgentRadius: 4})
	assert.Equal(t, 1000, p.Config().TwoOptMaxPasses)
	assert.Equal(t, 720, p.Config().PreviewPoints)
	assert.Equal(t, 4.0, p.Config().AgentRadius)
}

func TestPlan_Errors(t *testing.T) {
	p := New(DefaultConfig())
	ctx := context.Background()
	bounds := geom.NewBounds(0, 0, 100, 100)

	_, err := p.Plan(ctx, nil, geom.Bounds{}, Tour{})
	assert.True(t, errors.Is(err, ErrEmptyBounds), "got %v", err)

	_, err = p.Plan(ctx, []geom.Obstacle{{X: 1, Y: 1, Radius: 0}}, bounds, Tour{})
	assert.True(t, errors.Is(err, geom.ErrInvalidObstacle), "got %v", err)

	_, err = p.Plan(ctx, nil, bounds, nil)
	assert.Error(t, err)
}

func TestPlan_Spiral(t *testing.T) {
	bounds := geom.NewBounds(200, 200, 600, 600)
	s := NewSpiralForBounds(bounds, 60, 10, -1, 0.6)
	s.Advance()

	plan, err := New(DefaultConfig()).Plan(context.Background(), nil, bounds, s)
	require.NoError(t, err)

	assert.Equal(t, KindSpiral, plan.Strategy)
	assert.Same(t, s, plan.Spiral)
	assert.Equal(t, 0, s.Tick(), "planning resets the spiral")
	assert.Equal(t, s.Position(), plan.Start)
	assert.Nil(t, plan.Path)
	assert.NotEmpty(t, plan.Preview)
}

func TestPlan_Tour(t *testing.T) {
	bounds := geom.NewBounds(0, 0, 400, 400)
	obstacles := []geom.Obstacle{
		{X: 50, Y: 50, Radius: 4},
		{X: 350, Y: 50, Radius: 5},
		{X: 350, Y: 350, Radius: 3},
		{X: 50, Y: 350, Radius: 6},
		{X: 120, Y: 300, Radius: 4},
		{X: 500, Y: 500, Radius: 4}, // outside the bounds
	}
	p := New(DefaultConfig())

	plan, err := p.Plan(context.Background(), obstacles, bounds, Tour{})
	require.NoError(t, err)

	assert.Equal(t, KindTour, plan.Strategy)
	require.Len(t, plan.Path, 6, "anchor plus five in-bounds targets")
	assert.Equal(t, geom.Pt(200, 200), plan.Path[0])
	assert.Equal(t, plan.Path[0], plan.Start)
	assert.LessOrEqual(t, plan.TwoOpt.FinalLength, plan.TwoOpt.InitialLength+1e-9)
	assert.Empty(t, plan.RiskPoints)
	for i, w := range plan.Path {
		assert.True(t, Safe(w, obstacles, p.Config().Margin()), "waypoint %d %v unsafe", i, w)
	}
}

func TestPlan_TourExplicitTargets(t *testing.T) {
	bounds := geom.NewBounds(-10, -10, 20, 20)
	targets := []geom.Point{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}

	plan, err := New(DefaultConfig()).Plan(context.Background(), nil, bounds, Tour{Targets: targets})
	require.NoError(t, err)
	require.Len(t, plan.Path, 5)
	assert.Equal(t, geom.Pt(5, 5), plan.Path[0])
}

func TestPlan_TourWithoutTargets(t *testing.T) {
	plan, err := New(DefaultConfig()).Plan(context.Background(), nil, geom.NewBounds(0, 0, 10, 10), Tour{})
	require.NoError(t, err)
	assert.Equal(t, []geom.Point{{X: 5, Y: 5}}, plan.Path)
}
