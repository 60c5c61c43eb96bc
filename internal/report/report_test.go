package report

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/forest.scan/internal/config"
	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/planner"
	"github.com/banshee-data/forest.scan/internal/scan"
	"github.com/banshee-data/forest.scan/internal/testutil"
	"github.com/banshee-data/forest.scan/internal/timeutil"
)

var (
	testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
)

func runningSnapshot(t *testing.T) scan.Snapshot {
	t.Helper()
	cfg := scan.ConfigFromScan(config.EmptyScanConfig())
	cfg.Clock = timeutil.NewMockClock(testEpoch)
	obs := testutil.ObstacleGrid(cfg.Bounds, 2, 2, 6)
	strategy := planner.Tour{}
	s, err := scan.NewSession(cfg, strategy, obs)
	require.NoError(t, err)
	for i := 0; i < 60; i++ {
		require.NoError(t, s.Tick(context.Background()))
	}
	return s.Snapshot()
}

func TestPlotScan_WritePNG(t *testing.T) {
	snap := runningSnapshot(t)
	require.NotEmpty(t, snap.Trail)

	p, err := PlotScan(snap)
	require.NoError(t, err)
	assert.Contains(t, p.Title.Text, "tour cycle 1")
	assert.LessOrEqual(t, p.X.Min, snap.Bounds.Min.X)
	assert.GreaterOrEqual(t, p.X.Max, snap.Bounds.Max.X)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlotScan_EmptySnapshot(t *testing.T) {
	snap := scan.Snapshot{Bounds: geom.NewBounds(0, 0, 100, 100)}
	p, err := PlotScan(snap)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, &buf))
	assert.NotZero(t, buf.Len())
}

func TestSavePlot(t *testing.T) {
	p, err := PlotScan(runningSnapshot(t))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, SavePlot(p, file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	assert.Error(t, SavePlot(p, filepath.Join(t.TempDir(), "missing", "scan.png")))
}

func TestCoverageChart(t *testing.T) {
	samples := []scan.CoverageSample{
		{Cycle: 2, Tick: 60, Coverage: 12},
		{Cycle: 1, Tick: 120, Coverage: 30},
		{Cycle: 1, Tick: 60, Coverage: 15},
	}
	var buf bytes.Buffer
	require.NoError(t, CoverageChart(&buf, "Spiral coverage", samples))

	html := buf.String()
	assert.Contains(t, html, "Spiral coverage")
	assert.Contains(t, html, "cycle 1")
	assert.Contains(t, html, "cycle 2")
	assert.Contains(t, html, EChartsAssetsHost)
	assert.Less(t, strings.Index(html, "cycle 1"), strings.Index(html, "cycle 2"))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, CoverageStats{}, Summarize(nil))

	samples := []scan.CoverageSample{
		{Cycle: 1, Tick: 60, Coverage: 10},
		{Cycle: 1, Tick: 180, Coverage: 30},
		{Cycle: 1, Tick: 120, Coverage: 20},
		{Cycle: 2, Tick: 60, Coverage: 40},
	}
	st := Summarize(samples)
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 10.0, st.Min)
	assert.Equal(t, 40.0, st.Max)
	assert.InDelta(t, 25, st.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(500.0/3), st.StdDev, 1e-9)
	assert.Equal(t, 20.0, st.Median)
	assert.Equal(t, 40.0, st.Final)

	// Input order is untouched.
	assert.Equal(t, 30.0, samples[1].Coverage)

	one := Summarize(samples[:1])
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 10.0, one.Median)
}

func TestSummarizeCycles(t *testing.T) {
	assert.Equal(t, CycleStats{}, SummarizeCycles(nil))

	st := SummarizeCycles([]scan.CycleSummary{
		{Cycle: 1, Coverage: 96, Ticks: 3000, Distance: 900, Detours: 2, RiskPoints: 1},
		{Cycle: 2, Coverage: 98, Ticks: 2000, Distance: 700, Detours: 1, Uncorrected: 1},
	})
	assert.Equal(t, CycleStats{
		Cycles:       2,
		MeanCoverage: 97,
		MinCoverage:  96,
		MeanTicks:    2500,
		MeanDistance: 800,
		Detours:      3,
		Uncorrected:  1,
		RiskPoints:   1,
	}, st)
}
