package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Pt(0, 0), Pt(3, 4)), 1e-12)
	assert.Equal(t, 0.0, Distance(Pt(7, -2), Pt(7, -2)))
}

func TestPointToLineDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, s, e Point
		want    float64
	}{
		{"above horizontal line", Pt(5, 3), Pt(0, 0), Pt(10, 0), 3},
		{"beyond segment end still measures the line", Pt(20, -4), Pt(0, 0), Pt(10, 0), 4},
		{"on the line", Pt(2, 2), Pt(0, 0), Pt(1, 1), 0},
		{"diagonal", Pt(0, 2), Pt(0, 0), Pt(2, 2), math.Sqrt2},
		{"degenerate line", Pt(3, 3), Pt(1, 1), Pt(1, 1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, PointToLineDistance(tc.p, tc.s, tc.e), 1e-12)
		})
	}
}

func TestNormalizeAngleDelta(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{5 * math.Pi, math.Pi},
		{-7 * math.Pi / 4, math.Pi / 4},
	}
	for _, tc := range tests {
		got := NormalizeAngleDelta(tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "NormalizeAngleDelta(%v)", tc.in)
		assert.True(t, got > -math.Pi && got <= math.Pi, "result %v outside (-π, π]", got)
	}
}

func TestForwardProjection(t *testing.T) {
	dir := Direction(Pt(0, 0), Pt(10, 0))
	assert.InDelta(t, 4.0, ForwardProjection(Pt(4, 9), Pt(0, 0), dir), 1e-12)
	assert.Less(t, ForwardProjection(Pt(-1, 0), Pt(0, 0), dir), 0.0)
}

func TestDirectionDegenerate(t *testing.T) {
	assert.Equal(t, Point{}, Direction(Pt(2, 2), Pt(2, 2)))
	d := Direction(Pt(0, 0), Pt(0, -3))
	assert.InDelta(t, 0.0, d.X, 1e-12)
	assert.InDelta(t, -1.0, d.Y, 1e-12)
}

func TestStepToward(t *testing.T) {
	p, reached := StepToward(Pt(0, 0), Pt(10, 0), 3)
	assert.False(t, reached)
	assert.InDelta(t, 3.0, p.X, 1e-12)

	p, reached = StepToward(Pt(9, 0), Pt(10, 0), 3)
	assert.True(t, reached)
	assert.Equal(t, Pt(10, 0), p)
}

func TestPolarOffsetAndHeading(t *testing.T) {
	p := PolarOffset(Pt(100, 100), 50, math.Pi/2)
	assert.InDelta(t, 100.0, p.X, 1e-9)
	assert.InDelta(t, 150.0, p.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, Heading(Pt(0, 1)), 1e-12)
}

func TestCenteredBounds(t *testing.T) {
	b := CenteredBounds(800, 800, 400)
	assert.Equal(t, Pt(200, 200), b.Min)
	assert.Equal(t, Pt(600, 600), b.Max)
	assert.Equal(t, Pt(400, 400), b.Center())
	assert.InDelta(t, 400*math.Sqrt2, Diagonal(b), 1e-9)
}

func TestPolylineLength(t *testing.T) {
	assert.Equal(t, 0.0, PolylineLength(nil))
	assert.InDelta(t, 7.0, PolylineLength([]Point{Pt(0, 0), Pt(3, 4), Pt(3, 6)}), 1e-12)
}

func TestObstacleValidate(t *testing.T) {
	require.NoError(t, Obstacle{X: 1, Y: 1, Radius: 0.5}.Validate())

	err := ValidateObstacles([]Obstacle{{Radius: 1}, {Radius: 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidObstacle)
	assert.ErrorIs(t, Obstacle{Radius: math.NaN()}.Validate(), ErrInvalidObstacle)
}

func TestObstacleFieldOrdering(t *testing.T) {
	field := ObstacleField{
		"tree-002": {X: 2, Y: 2, Radius: 1},
		"tree-000": {X: 0, Y: 0, Radius: 1},
		"tree-001": {X: 1, Y: 1, Radius: 1},
	}
	obs := field.Obstacles()
	require.Len(t, obs, 3)
	for i, o := range obs {
		assert.Equal(t, float64(i), o.X)
	}
}

func TestWithinAndClearance(t *testing.T) {
	b := NewBounds(0, 0, 10, 10)
	obs := []Obstacle{{X: 5, Y: 5, Radius: 1}, {X: 20, Y: 5, Radius: 1}}
	in := Within(obs, b)
	require.Len(t, in, 1)
	assert.InDelta(t, 4.0, in[0].Clearance(Pt(10, 5)), 1e-12)
}
