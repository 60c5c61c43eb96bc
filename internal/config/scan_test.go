package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScanConfig(t *testing.T) {
	cfg := DefaultScanConfig()

	if cfg.ScanSize == nil || *cfg.ScanSize != 400 {
		t.Errorf("Expected ScanSize 400, got %v", cfg.ScanSize)
	}
	if cfg.AngularSpeedDeg == nil || *cfg.AngularSpeedDeg != -1 {
		t.Errorf("Expected AngularSpeedDeg -1, got %v", cfg.AngularSpeedDeg)
	}
	if cfg.TwoOptTimeBudget == nil || *cfg.TwoOptTimeBudget != "250ms" {
		t.Errorf("Expected TwoOptTimeBudget '250ms', got %v", cfg.TwoOptTimeBudget)
	}
	if cfg.ConsiderBehind == nil || *cfg.ConsiderBehind {
		t.Errorf("Expected ConsiderBehind false, got %v", cfg.ConsiderBehind)
	}
	if cfg.RowSpacing == nil || *cfg.RowSpacing != 40 {
		t.Errorf("Expected RowSpacing 40, got %v", cfg.RowSpacing)
	}

	require.NoError(t, cfg.Validate())
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptyScanConfig()

	assert.Equal(t, 800.0, cfg.GetCanvasWidth())
	assert.Equal(t, 10.0, cfg.GetCellSize())
	assert.Equal(t, 24.0, cfg.GetTriggerRadius())
	assert.Equal(t, StrategySpiral, cfg.GetStrategy())
	assert.Equal(t, 250*time.Millisecond, cfg.GetTwoOptTimeBudget())
	assert.Equal(t, 16*time.Millisecond, cfg.GetTickInterval())
	assert.Equal(t, 2000, cfg.GetTrailLength())
	assert.Equal(t, uint64(1), cfg.GetSeed())

	assert.Equal(t, 8.0, cfg.GetAgentRadius())
	assert.Equal(t, 10.0, cfg.GetSafetyMargin())
	assert.Equal(t, 10.0, cfg.GetClearance())
	assert.Equal(t, 9, cfg.GetArcPoints())
	assert.False(t, cfg.GetConsiderBehind())
	assert.Equal(t, 10.0, cfg.GetSweepStep())
}

func TestRowSpacingFollowsScanSize(t *testing.T) {
	size := 250.0
	zero := 0.0
	cfg := &ScanConfig{ScanSize: &size, RowSpacing: &zero}
	assert.Equal(t, 25.0, cfg.GetRowSpacing())

	explicit := 12.0
	cfg.RowSpacing = &explicit
	assert.Equal(t, 12.0, cfg.GetRowSpacing())
}

func TestGetStrategyLowercases(t *testing.T) {
	s := "Tour"
	cfg := &ScanConfig{Strategy: &s}
	assert.Equal(t, StrategyTour, cfg.GetStrategy())
	require.NoError(t, cfg.Validate())
}

func TestLoadScanConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "scan.json")

	testJSON := `{
  "scan_size": 300,
  "angular_speed_deg": -2,
  "strategy": "boustrophedon",
  "tick_interval": "0s",
  "consider_behind": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadScanConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	assert.Equal(t, 300.0, cfg.GetScanSize())
	assert.Equal(t, -2.0, cfg.GetAngularSpeedDeg())
	assert.Equal(t, StrategyBoustrophedon, cfg.GetStrategy())
	assert.Equal(t, time.Duration(0), cfg.GetTickInterval())
	assert.True(t, cfg.GetConsiderBehind())

	// Omitted fields use defaults.
	assert.Nil(t, cfg.CellSize)
	assert.Equal(t, 10.0, cfg.GetCellSize())
}

func TestLoadScanConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"wrong extension", write("scan.yaml", "{}"), ".json extension"},
		{"missing file", filepath.Join(tmpDir, "nope.json"), "failed to stat"},
		{"bad json", write("bad.json", "{"), "failed to parse"},
		{"zero angular speed", write("ang.json", `{"angular_speed_deg": 0}`), "angular_speed_deg"},
		{"unknown strategy", write("strat.json", `{"strategy": "zigzag"}`), "unknown strategy"},
		{"bad duration", write("dur.json", `{"tick_interval": "soon"}`), "tick_interval"},
		{"negative cell", write("cell.json", `{"cell_size": -1}`), "cell_size"},
		{"scan exceeds canvas", write("big.json", `{"canvas_width": 100, "scan_size": 200}`), "exceeds canvas_width"},
		{"radius order", write("rad.json", `{"forest_radius_min": 9, "forest_radius_max": 4}`), "forest_radius_max"},
		{"density", write("dens.json", `{"forest_density": 1.5}`), "forest_density"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScanConfig(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScanConfig_TooLarge(t *testing.T) {
	p := filepath.Join(t.TempDir(), "huge.json")
	body := `{"seed": 1` + strings.Repeat(" ", 1024*1024) + `}`
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))

	_, err := LoadScanConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	// The defaults file must agree with the built-in getters.
	want := DefaultScanConfig()
	assert.Equal(t, want.GetScanSize(), cfg.GetScanSize())
	assert.Equal(t, want.GetScanWidth(), cfg.GetScanWidth())
	assert.Equal(t, want.GetAngularSpeedDeg(), cfg.GetAngularSpeedDeg())
	assert.Equal(t, want.GetRowSpacing(), cfg.GetRowSpacing())
	assert.Equal(t, want.GetTwoOptTimeBudget(), cfg.GetTwoOptTimeBudget())
	assert.Equal(t, want.GetTickInterval(), cfg.GetTickInterval())
	assert.Equal(t, want.GetForestAttempts(), cfg.GetForestAttempts())
	assert.Equal(t, want.GetStrategy(), cfg.GetStrategy())
}
