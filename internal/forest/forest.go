// Package forest generates random obstacle fields of tree trunks.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/monitoring"
)

// Config describes a forest: a canvas, a trunk size range, the minimum gap
// between trunks and a density relative to a reference grid.
type Config struct {
	Width, Height float64
	RadiusMin     float64
	RadiusMax     float64
	MinSpacing    float64 // gap between trunk surfaces
	Density       float64 // 0..1
	GridSize      float64 // one tree per GridSize² at density 1
	Attempts      int     // sample budget
}

// ConfigFromScan builds a forest Config from a scan config.
func ConfigFromScan(cfg *config.ScanConfig) Config {
	return Config{
		Width:      cfg.GetCanvasWidth(),
		Height:     cfg.GetCanvasHeight(),
		RadiusMin:  cfg.GetForestRadiusMin(),
		RadiusMax:  cfg.GetForestRadiusMax(),
		MinSpacing: cfg.GetForestMinSpacing(),
		Density:    cfg.GetForestDensity(),
		GridSize:   cfg.GetForestGridSize(),
		Attempts:   cfg.GetForestAttempts(),
	}
}

// Validate checks the config can produce obstacles with positive radii.
func (c Config) Validate() error {
	var errs []error
	if !(c.Width > 0) || !(c.Height > 0) {
		errs = append(errs, fmt.Errorf("canvas must be positive, got %gx%g", c.Width, c.Height))
	}
	if !(c.RadiusMin > 0) || c.RadiusMax < c.RadiusMin {
		errs = append(errs, fmt.Errorf("radius range [%g, %g] is invalid", c.RadiusMin, c.RadiusMax))
	}
	if !(c.GridSize > 0) {
		errs = append(errs, fmt.Errorf("grid size must be positive, got %g", c.GridSize))
	}
	if c.Density < 0 || c.Density > 1 {
		errs = append(errs, fmt.Errorf("density must be within [0, 1], got %g", c.Density))
	}
	return errors.Join(errs...)
}

// TargetCount is the number of trees the generator aims for.
func (c Config) TargetCount() int {
	return int(math.Ceil(c.Width * c.Height * c.Density / (c.GridSize * c.GridSize)))
}

// NewSource returns the deterministic random source used for a seed.
func NewSource(seed uint64) *rand.PCG {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Generate places trees by rejection sampling: a candidate with uniform
// position and radius is kept when its surface is at least MinSpacing from
// every existing trunk. Sampling stops at TargetCount trees or after
// Attempts candidates, whichever comes first.
func Generate(cfg Config, src rand.Source) (geom.ObstacleField, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("generate forest: %w", err)
	}

	xs := distuv.Uniform{Min: 0, Max: cfg.Width, Src: src}
	ys := distuv.Uniform{Min: 0, Max: cfg.Height, Src: src}
	rs := distuv.Uniform{Min: cfg.RadiusMin, Max: cfg.RadiusMax, Src: src}

	target := cfg.TargetCount()
	trees := make([]geom.Obstacle, 0, target)
	attempts := 0
	for len(trees) < target && attempts < cfg.Attempts {
		attempts++
		cand := geom.Obstacle{X: xs.Rand(), Y: ys.Rand(), Radius: rs.Rand()}
		if fits(cand, trees, cfg.MinSpacing) {
			trees = append(trees, cand)
		}
	}

	if len(trees) < target {
		monitoring.Logf("[forest] placed %d of %d trees in %d attempts", len(trees), target, attempts)
	}

	field := make(geom.ObstacleField, len(trees))
	for i, t := range trees {
		field[TreeID(i)] = t
	}
	return field, nil
}

// TreeID names the i-th generated tree. IDs sort in generation order.
func TreeID(i int) string {
	return fmt.Sprintf("tree-%05d", i)
}

func fits(cand geom.Obstacle, trees []geom.Obstacle, spacing float64) bool {
	for _, t := range trees {
		if geom.Distance(cand.Center(), t.Center()) < cand.Radius+t.Radius+spacing {
			return false
		}
	}
	return true
}
