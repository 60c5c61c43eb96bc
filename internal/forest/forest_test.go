package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
)

func TestConfigFromScan(t *testing.T) {
	cfg := ConfigFromScan(config.EmptyScanConfig())
	assert.Equal(t, Config{
		Width: 800, Height: 800,
		RadiusMin: 3, RadiusMax: 6,
		MinSpacing: 20, Density: 0.7, GridSize: 50,
		Attempts: 1000,
	}, cfg)
	assert.Equal(t, 180, cfg.TargetCount())
	require.NoError(t, cfg.Validate())
}

func TestGenerate_RespectsSpacing(t *testing.T) {
	cfg := ConfigFromScan(config.EmptyScanConfig())
	field, err := Generate(cfg, NewSource(1))
	require.NoError(t, err)

	trees := field.Obstacles()
	require.NotEmpty(t, trees)
	assert.LessOrEqual(t, len(trees), cfg.TargetCount())
	require.NoError(t, geom.ValidateObstacles(trees))

	for i, a := range trees {
		assert.GreaterOrEqual(t, a.Radius, cfg.RadiusMin)
		assert.LessOrEqual(t, a.Radius, cfg.RadiusMax)
		assert.True(t, a.X >= 0 && a.X <= cfg.Width && a.Y >= 0 && a.Y <= cfg.Height, "tree %d off canvas", i)
		for _, b := range trees[i+1:] {
			assert.GreaterOrEqual(t, geom.Distance(a.Center(), b.Center()), a.Radius+b.Radius+cfg.MinSpacing)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := ConfigFromScan(config.EmptyScanConfig())
	a, err := Generate(cfg, NewSource(42))
	require.NoError(t, err)
	b, err := Generate(cfg, NewSource(42))
	require.NoError(t, err)
	c, err := Generate(cfg, NewSource(43))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGenerate_AttemptBudget(t *testing.T) {
	cfg := ConfigFromScan(config.EmptyScanConfig())
	cfg.Attempts = 5
	field, err := Generate(cfg, NewSource(7))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(field), 5)

	cfg.Attempts = 0
	field, err = Generate(cfg, NewSource(7))
	require.NoError(t, err)
	assert.Empty(t, field)
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero radius", func(c *Config) { c.RadiusMin = 0 }},
		{"inverted radii", func(c *Config) { c.RadiusMax = 1 }},
		{"zero grid", func(c *Config) { c.GridSize = 0 }},
		{"density", func(c *Config) { c.Density = 2 }},
		{"canvas", func(c *Config) { c.Width = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigFromScan(config.EmptyScanConfig())
			tt.mod(&cfg)
			_, err := Generate(cfg, NewSource(1))
			assert.Error(t, err)
		})
	}
}

func TestTreeIDSortsInOrder(t *testing.T) {
	assert.Less(t, TreeID(9), TreeID(10))
	assert.Equal(t, "tree-00042", TreeID(42))
}
