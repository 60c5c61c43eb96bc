package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigPath is the path to the canonical scan defaults file.
// This is the single source of truth for all default scan values.
const DefaultConfigPath = "config/scan.defaults.json"

// Strategy names accepted in the "strategy" field.
const (
	StrategySpiral        = "spiral"
	StrategyBoustrophedon = "boustrophedon"
	StrategyTour          = "tour"
)

// ScanConfig is the root configuration for a scan session. Every field is
// optional: the Get* accessors supply the operational default for anything
// the JSON leaves out, so partial configs are safe.
type ScanConfig struct {
	// Canvas and target area
	CanvasWidth  *float64 `json:"canvas_width,omitempty"`
	CanvasHeight *float64 `json:"canvas_height,omitempty"`
	ScanSize     *float64 `json:"scan_size,omitempty"`
	CellSize     *float64 `json:"cell_size,omitempty"`

	// Agent and sensor
	AgentRadius  *float64 `json:"agent_radius,omitempty"`
	ScanWidth    *float64 `json:"scan_width,omitempty"`
	SafetyMargin *float64 `json:"safety_margin,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`

	// Reactive avoidance
	Clearance           *float64 `json:"clearance,omitempty"`
	TriggerRadiusFactor *float64 `json:"trigger_radius_factor,omitempty"`
	ArcPoints           *int     `json:"arc_points,omitempty"`
	ConsiderBehind      *bool    `json:"consider_behind,omitempty"`

	// Planner
	Strategy         *string  `json:"strategy,omitempty"`
	ExtendPercent    *float64 `json:"extend_percent,omitempty"`
	AngularSpeedDeg  *float64 `json:"angular_speed_deg,omitempty"`
	ArmGapFraction   *float64 `json:"arm_gap_fraction,omitempty"`
	RowSpacing       *float64 `json:"row_spacing,omitempty"` // 0 means scan_size/10
	SweepStep        *float64 `json:"sweep_step,omitempty"`
	TwoOptMaxPasses  *int     `json:"two_opt_max_passes,omitempty"`
	TwoOptTimeBudget *string  `json:"two_opt_time_budget,omitempty"` // duration string like "250ms"

	// Stepper and loop
	TrailLength         *int    `json:"trail_length,omitempty"`
	TickInterval        *string `json:"tick_interval,omitempty"` // duration string; "0s" free-runs
	CoverageSampleEvery *int    `json:"coverage_sample_every,omitempty"`

	// Obstacle field generator
	ForestMinSpacing *float64 `json:"forest_min_spacing,omitempty"`
	ForestRadiusMin  *float64 `json:"forest_radius_min,omitempty"`
	ForestRadiusMax  *float64 `json:"forest_radius_max,omitempty"`
	ForestDensity    *float64 `json:"forest_density,omitempty"`
	ForestGridSize   *float64 `json:"forest_grid_size,omitempty"`
	ForestAttempts   *int     `json:"forest_attempts,omitempty"`
	Seed             *uint64  `json:"seed,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyScanConfig returns a ScanConfig with all fields set to nil.
func EmptyScanConfig() *ScanConfig {
	return &ScanConfig{}
}

// DefaultScanConfig returns a ScanConfig with every field populated with the
// built-in defaults. Useful as a base for tests and for writing a fresh
// defaults file.
func DefaultScanConfig() *ScanConfig {
	e := EmptyScanConfig()
	return &ScanConfig{
		CanvasWidth:         ptrFloat64(e.GetCanvasWidth()),
		CanvasHeight:        ptrFloat64(e.GetCanvasHeight()),
		ScanSize:            ptrFloat64(e.GetScanSize()),
		CellSize:            ptrFloat64(e.GetCellSize()),
		AgentRadius:         ptrFloat64(e.GetAgentRadius()),
		ScanWidth:           ptrFloat64(e.GetScanWidth()),
		SafetyMargin:        ptrFloat64(e.GetSafetyMargin()),
		Speed:               ptrFloat64(e.GetSpeed()),
		Clearance:           ptrFloat64(e.GetClearance()),
		TriggerRadiusFactor: ptrFloat64(e.GetTriggerRadiusFactor()),
		ArcPoints:           ptrInt(e.GetArcPoints()),
		ConsiderBehind:      ptrBool(e.GetConsiderBehind()),
		Strategy:            ptrString(e.GetStrategy()),
		ExtendPercent:       ptrFloat64(e.GetExtendPercent()),
		AngularSpeedDeg:     ptrFloat64(e.GetAngularSpeedDeg()),
		ArmGapFraction:      ptrFloat64(e.GetArmGapFraction()),
		RowSpacing:          ptrFloat64(e.GetRowSpacing()),
		SweepStep:           ptrFloat64(e.GetSweepStep()),
		TwoOptMaxPasses:     ptrInt(e.GetTwoOptMaxPasses()),
		TwoOptTimeBudget:    ptrString(e.GetTwoOptTimeBudget().String()),
		TrailLength:         ptrInt(e.GetTrailLength()),
		TickInterval:        ptrString(e.GetTickInterval().String()),
		CoverageSampleEvery: ptrInt(e.GetCoverageSampleEvery()),
		ForestMinSpacing:    ptrFloat64(e.GetForestMinSpacing()),
		ForestRadiusMin:     ptrFloat64(e.GetForestRadiusMin()),
		ForestRadiusMax:     ptrFloat64(e.GetForestRadiusMax()),
		ForestDensity:       ptrFloat64(e.GetForestDensity()),
		ForestGridSize:      ptrFloat64(e.GetForestGridSize()),
		ForestAttempts:      ptrInt(e.GetForestAttempts()),
		Seed:                ptrUint64(e.GetSeed()),
	}
}

// LoadScanConfig loads a ScanConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to the Get* defaults.
func LoadScanConfig(path string) (*ScanConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyScanConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical scan defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *ScanConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/ or cmd/forest-scan/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadScanConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *ScanConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"canvas_width", c.CanvasWidth},
		{"canvas_height", c.CanvasHeight},
		{"scan_size", c.ScanSize},
		{"cell_size", c.CellSize},
		{"agent_radius", c.AgentRadius},
		{"scan_width", c.ScanWidth},
		{"speed", c.Speed},
		{"trigger_radius_factor", c.TriggerRadiusFactor},
		{"arm_gap_fraction", c.ArmGapFraction},
		{"forest_grid_size", c.ForestGridSize},
	}
	for _, p := range positive {
		if p.v != nil && !(*p.v > 0) {
			return fmt.Errorf("%s must be positive, got %g", p.name, *p.v)
		}
	}

	nonNegative := []struct {
		name string
		v    *float64
	}{
		{"safety_margin", c.SafetyMargin},
		{"clearance", c.Clearance},
		{"extend_percent", c.ExtendPercent},
		{"row_spacing", c.RowSpacing},
		{"sweep_step", c.SweepStep},
		{"forest_min_spacing", c.ForestMinSpacing},
	}
	for _, p := range nonNegative {
		if p.v != nil && *p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", p.name, *p.v)
		}
	}

	if c.ScanSize != nil {
		if c.CanvasWidth != nil && *c.ScanSize > *c.CanvasWidth {
			return fmt.Errorf("scan_size %g exceeds canvas_width %g", *c.ScanSize, *c.CanvasWidth)
		}
		if c.CanvasHeight != nil && *c.ScanSize > *c.CanvasHeight {
			return fmt.Errorf("scan_size %g exceeds canvas_height %g", *c.ScanSize, *c.CanvasHeight)
		}
	}

	if c.AngularSpeedDeg != nil && *c.AngularSpeedDeg == 0 {
		return fmt.Errorf("angular_speed_deg must be non-zero")
	}

	if c.ArcPoints != nil && *c.ArcPoints < 1 {
		return fmt.Errorf("arc_points must be at least 1, got %d", *c.ArcPoints)
	}

	if c.Strategy != nil {
		switch strings.ToLower(*c.Strategy) {
		case StrategySpiral, StrategyBoustrophedon, StrategyTour:
		default:
			return fmt.Errorf("unknown strategy %q", *c.Strategy)
		}
	}

	if c.TwoOptMaxPasses != nil && *c.TwoOptMaxPasses < 1 {
		return fmt.Errorf("two_opt_max_passes must be at least 1, got %d", *c.TwoOptMaxPasses)
	}
	if c.TrailLength != nil && *c.TrailLength < 0 {
		return fmt.Errorf("trail_length must be non-negative, got %d", *c.TrailLength)
	}
	if c.CoverageSampleEvery != nil && *c.CoverageSampleEvery < 1 {
		return fmt.Errorf("coverage_sample_every must be at least 1, got %d", *c.CoverageSampleEvery)
	}

	if c.TwoOptTimeBudget != nil && *c.TwoOptTimeBudget != "" {
		if _, err := time.ParseDuration(*c.TwoOptTimeBudget); err != nil {
			return fmt.Errorf("invalid two_opt_time_budget '%s': %w", *c.TwoOptTimeBudget, err)
		}
	}
	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}

	if c.ForestDensity != nil && (*c.ForestDensity < 0 || *c.ForestDensity > 1) {
		return fmt.Errorf("forest_density must be between 0 and 1, got %f", *c.ForestDensity)
	}
	if c.ForestRadiusMin != nil && !(*c.ForestRadiusMin > 0) {
		return fmt.Errorf("forest_radius_min must be positive, got %g", *c.ForestRadiusMin)
	}
	if c.GetForestRadiusMax() < c.GetForestRadiusMin() {
		return fmt.Errorf("forest_radius_max %g is below forest_radius_min %g", c.GetForestRadiusMax(), c.GetForestRadiusMin())
	}
	if c.ForestAttempts != nil && *c.ForestAttempts < 0 {
		return fmt.Errorf("forest_attempts must be non-negative, got %d", *c.ForestAttempts)
	}

	return nil
}
