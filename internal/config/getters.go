package config

import (
	"strings"
	"time"
)

// GetCanvasWidth returns the canvas width or 800 if not set.
func (c *ScanConfig) GetCanvasWidth() float64 {
	if c.CanvasWidth == nil {
		return 800
	}
	return *c.CanvasWidth
}

// GetCanvasHeight returns the canvas height or 800 if not set.
func (c *ScanConfig) GetCanvasHeight() float64 {
	if c.CanvasHeight == nil {
		return 800
	}
	return *c.CanvasHeight
}

// GetScanSize returns the side of the square scan area or 400 if not set.
func (c *ScanConfig) GetScanSize() float64 {
	if c.ScanSize == nil {
		return 400
	}
	return *c.ScanSize
}

// GetCellSize returns the coverage cell size or 10 if not set.
func (c *ScanConfig) GetCellSize() float64 {
	if c.CellSize == nil {
		return 10
	}
	return *c.CellSize
}

// GetAgentRadius returns the agent body radius or 8 if not set.
func (c *ScanConfig) GetAgentRadius() float64 {
	if c.AgentRadius == nil {
		return 8
	}
	return *c.AgentRadius
}

// GetScanWidth returns the sensor footprint diameter or 60 if not set.
func (c *ScanConfig) GetScanWidth() float64 {
	if c.ScanWidth == nil {
		return 60
	}
	return *c.ScanWidth
}

// GetSafetyMargin returns the extra waypoint gap kept around obstacles or 10 if not set.
func (c *ScanConfig) GetSafetyMargin() float64 {
	if c.SafetyMargin == nil {
		return 10
	}
	return *c.SafetyMargin
}

// GetSpeed returns the per-tick travel distance along waypoint paths or 5 if not set.
func (c *ScanConfig) GetSpeed() float64 {
	if c.Speed == nil {
		return 5
	}
	return *c.Speed
}

// GetClearance returns the avoidance clearance beyond agent and obstacle radii or 10 if not set.
func (c *ScanConfig) GetClearance() float64 {
	if c.Clearance == nil {
		return 10
	}
	return *c.Clearance
}

// GetTriggerRadiusFactor returns the avoidance trigger radius as a multiple
// of the agent radius, or 3 if not set.
func (c *ScanConfig) GetTriggerRadiusFactor() float64 {
	if c.TriggerRadiusFactor == nil {
		return 3
	}
	return *c.TriggerRadiusFactor
}

// GetTriggerRadius returns the absolute avoidance trigger radius.
func (c *ScanConfig) GetTriggerRadius() float64 {
	return c.GetTriggerRadiusFactor() * c.GetAgentRadius()
}

// GetArcPoints returns the number of points in a detour arc or 9 if not set.
func (c *ScanConfig) GetArcPoints() int {
	if c.ArcPoints == nil {
		return 9
	}
	return *c.ArcPoints
}

// GetConsiderBehind returns whether flagged obstacles behind the agent may block, or false if not set.
func (c *ScanConfig) GetConsiderBehind() bool {
	if c.ConsiderBehind == nil {
		return false
	}
	return *c.ConsiderBehind
}

// GetStrategy returns the lower-cased strategy name or "spiral" if not set.
func (c *ScanConfig) GetStrategy() string {
	if c.Strategy == nil || *c.Strategy == "" {
		return StrategySpiral
	}
	return strings.ToLower(*c.Strategy)
}

// GetExtendPercent returns how far beyond the scan-area half-diagonal the
// spiral starts, or 10 if not set.
func (c *ScanConfig) GetExtendPercent() float64 {
	if c.ExtendPercent == nil {
		return 10
	}
	return *c.ExtendPercent
}

// GetAngularSpeedDeg returns the spiral's per-tick angular step in degrees or -1 if not set.
func (c *ScanConfig) GetAngularSpeedDeg() float64 {
	if c.AngularSpeedDeg == nil {
		return -1
	}
	return *c.AngularSpeedDeg
}

// GetArmGapFraction returns the spacing between spiral arms as a fraction
// of the scan width, or 0.6 if not set.
func (c *ScanConfig) GetArmGapFraction() float64 {
	if c.ArmGapFraction == nil {
		return 0.6
	}
	return *c.ArmGapFraction
}

// GetRowSpacing returns the boustrophedon row spacing. Zero or unset means
// one tenth of the scan size.
func (c *ScanConfig) GetRowSpacing() float64 {
	if c.RowSpacing == nil || *c.RowSpacing == 0 {
		return c.GetScanSize() / 10
	}
	return *c.RowSpacing
}

// GetSweepStep returns the waypoint spacing along boustrophedon rows or 10 if not set.
func (c *ScanConfig) GetSweepStep() float64 {
	if c.SweepStep == nil {
		return 10
	}
	return *c.SweepStep
}

func (c *ScanConfig) GetTwoOptMaxPasses() int {
	if c.TwoOptMaxPasses == nil {
		return 1000
	}
	return *c.TwoOptMaxPasses
}

// GetTwoOptTimeBudget returns the wall-clock cap on route optimisation or
// 250ms if not set. Invalid strings also fall back to the default.
func (c *ScanConfig) GetTwoOptTimeBudget() time.Duration {
	return parseDurationOr(c.TwoOptTimeBudget, 250*time.Millisecond)
}

func (c *ScanConfig) GetTrailLength() int {
	if c.TrailLength == nil {
		return 2000
	}
	return *c.TrailLength
}

// GetTickInterval returns the runner's tick period or 16ms if not set.
func (c *ScanConfig) GetTickInterval() time.Duration {
	return parseDurationOr(c.TickInterval, 16*time.Millisecond)
}

// GetCoverageSampleEvery returns how many ticks pass between persisted
// coverage samples, or 60 if not set.
func (c *ScanConfig) GetCoverageSampleEvery() int {
	if c.CoverageSampleEvery == nil {
		return 60
	}
	return *c.CoverageSampleEvery
}

func (c *ScanConfig) GetForestMinSpacing() float64 {
	if c.ForestMinSpacing == nil {
		return 20
	}
	return *c.ForestMinSpacing
}

func (c *ScanConfig) GetForestRadiusMin() float64 {
	if c.ForestRadiusMin == nil {
		return 3
	}
	return *c.ForestRadiusMin
}

func (c *ScanConfig) GetForestRadiusMax() float64 {
	if c.ForestRadiusMax == nil {
		return 6
	}
	return *c.ForestRadiusMax
}

func (c *ScanConfig) GetForestDensity() float64 {
	if c.ForestDensity == nil {
		return 0.7
	}
	return *c.ForestDensity
}

func (c *ScanConfig) GetForestGridSize() float64 {
	if c.ForestGridSize == nil {
		return 50
	}
	return *c.ForestGridSize
}

func (c *ScanConfig) GetForestAttempts() int {
	if c.ForestAttempts == nil {
		return 1000
	}
	return *c.ForestAttempts
}

func (c *ScanConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def
	}
	return d
}
