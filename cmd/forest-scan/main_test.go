package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/db"
)

func TestFlagDefaults(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"config", ""},
		{"strategy", ""},
		{"cycles", "1"},
		{"max-ticks", "0"},
		{"seed", "0"},
		{"db", ""},
		{"plot", ""},
		{"chart", ""},
		{"listen", ""},
		{"debug", "false"},
		{"version", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flag.Lookup(tt.name)
			require.NotNil(t, f, "flag -%s not defined", tt.name)
			assert.Equal(t, tt.want, f.DefValue)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(options{})
	require.NoError(t, err)
	assert.Equal(t, config.StrategySpiral, cfg.GetStrategy())
	assert.Equal(t, uint64(1), cfg.GetSeed())

	cfg, err = loadConfig(options{Strategy: "tour", Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, config.StrategyTour, cfg.GetStrategy())
	assert.Equal(t, uint64(42), cfg.GetSeed())

	_, err = loadConfig(options{Strategy: "zigzag"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"strategy": "boustrophedon", "seed": 9}`), 0o644))

	cfg, err := loadConfig(options{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, config.StrategyBoustrophedon, cfg.GetStrategy())
	assert.Equal(t, uint64(9), cfg.GetSeed())
	// Unset fields keep their defaults.
	assert.Equal(t, 400.0, cfg.GetScanSize())

	cfg, err = loadConfig(options{ConfigPath: path, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cfg.GetSeed())

	_, err = loadConfig(options{ConfigPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		Strategy:  "tour",
		MaxTicks:  200,
		DBPath:    filepath.Join(dir, "scan.db"),
		PlotPath:  filepath.Join(dir, "scan.png"),
		ChartPath: filepath.Join(dir, "coverage.html"),
	}
	require.NoError(t, run(context.Background(), opts))

	png, err := os.ReadFile(opts.PlotPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	chart, err := os.ReadFile(opts.ChartPath)
	require.NoError(t, err)
	assert.Contains(t, string(chart), "Coverage (tour)")
	assert.Contains(t, string(chart), "cycle 1")

	database, err := db.Open(opts.DBPath)
	require.NoError(t, err)
	defer database.Close()

	var sessionID, strategy string
	require.NoError(t, database.QueryRow(`SELECT session_id, strategy FROM scan_sessions`).Scan(&sessionID, &strategy))
	assert.Equal(t, "tour", strategy)

	obstacles, err := db.NewSessionStore(database.DB).Obstacles(sessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, obstacles)

	samples, err := db.NewSessionStore(database.DB).CoverageSamples(sessionID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, samples)
}

func TestRun_InvalidStrategy(t *testing.T) {
	err := run(context.Background(), options{Strategy: "zigzag", MaxTicks: 1})
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plot := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, run(ctx, options{Strategy: "spiral", PlotPath: plot}))

	// The initial snapshot is published before the first tick.
	_, err := os.Stat(plot)
	assert.NoError(t, err)
}
