package planner

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/forest.scan/internal/geom"
)

func TestBoustrophedon_Waypoints(t *testing.T) {
	b := Boustrophedon{RowSpacing: 50, Step: 50}
	got := b.Waypoints(geom.NewBounds(0, 0, 100, 100))

	want := []geom.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0},
		{X: 100, Y: 50}, {X: 50, Y: 50}, {X: 0, Y: 50},
		{X: 0, Y: 100}, {X: 50, Y: 100}, {X: 100, Y: 100},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Waypoints() mismatch (-want +got):\n%s", diff)
	}
}

func TestBoustrophedon_DefaultSpacing(t *testing.T) {
	bounds := geom.NewBounds(200, 200, 600, 600)
	got := Boustrophedon{}.Waypoints(bounds)

	// 11 rows of 11 points at a spacing of 40.
	require.Len(t, got, 121)
	for _, p := range got {
		assert.True(t, bounds.Contains(p), "waypoint %v outside bounds", p)
	}
	assert.Equal(t, geom.Pt(600, 240), got[11])
}

func TestBoustrophedon_PlanAvoidsObstacles(t *testing.T) {
	bounds := geom.NewBounds(0, 0, 200, 200)
	obstacles := []geom.Obstacle{{X: 100, Y: 0, Radius: 5}, {X: 60, Y: 100, Radius: 8}}

	p := New(DefaultConfig())
	plan, err := p.Plan(context.Background(), obstacles, bounds, Boustrophedon{RowSpacing: 50, Step: 20})
	require.NoError(t, err)

	assert.Equal(t, KindBoustrophedon, plan.Strategy)
	assert.Empty(t, plan.RiskPoints)
	assert.Equal(t, plan.Path[0], plan.Start)
	for i, w := range plan.Path {
		assert.True(t, Safe(w, obstacles, p.Config().Margin()), "waypoint %d %v unsafe", i, w)
	}
}
