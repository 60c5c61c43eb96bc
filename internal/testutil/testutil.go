// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/forest.scan/internal/geom"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertPointNear fails the test if got is further than tol from want.
func AssertPointNear(t testing.TB, got, want geom.Point, tol float64) {
	t.Helper()
	if d := geom.Distance(got, want); d > tol {
		t.Errorf("point = (%.4f, %.4f), want (%.4f, %.4f) within %g (off by %.4f)",
			got.X, got.Y, want.X, want.Y, tol, d)
	}
}

// AssertClearOf fails the test if any point lies closer than margin to the
// surface of any obstacle.
func AssertClearOf(t testing.TB, path []geom.Point, obstacles []geom.Obstacle, margin float64) {
	t.Helper()
	for i, p := range path {
		for _, o := range obstacles {
			if c := o.Clearance(p); c < margin-1e-9 {
				t.Errorf("point %d (%.3f, %.3f) is %.3f from obstacle at (%g, %g), want >= %g",
					i, p.X, p.Y, c, o.X, o.Y, margin)
			}
		}
	}
}

// ObstacleID names the i-th fixture obstacle.
func ObstacleID(i int) string {
	return fmt.Sprintf("fixture-%03d", i)
}

// ObstacleRow returns n obstacles of the given radius placed along +X from
// start, spacing apart.
func ObstacleRow(start geom.Point, n int, spacing, radius float64) []geom.Obstacle {
	out := make([]geom.Obstacle, n)
	for i := range out {
		out[i] = geom.Obstacle{X: start.X + float64(i)*spacing, Y: start.Y, Radius: radius}
	}
	return out
}

// ObstacleGrid returns a cols x rows lattice of obstacles inside b, each
// centred in its lattice cell.
func ObstacleGrid(b geom.Bounds, cols, rows int, radius float64) []geom.Obstacle {
	size := b.Size()
	dx, dy := size.X/float64(cols), size.Y/float64(rows)
	out := make([]geom.Obstacle, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, geom.Obstacle{
				X:      b.Min.X + (float64(c)+0.5)*dx,
				Y:      b.Min.Y + (float64(r)+0.5)*dy,
				Radius: radius,
			})
		}
	}
	return out
}

// Field keys obstacles with ObstacleID.
func Field(obs []geom.Obstacle) geom.ObstacleField {
	f := make(geom.ObstacleField, len(obs))
	for i, o := range obs {
		f[ObstacleID(i)] = o
	}
	return f
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
