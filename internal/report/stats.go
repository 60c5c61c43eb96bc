package report

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/forest.scan/internal/scan"
)

// CoverageStats summarises a coverage series.
type CoverageStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Final  float64 `json:"final"` // coverage of the latest sample
}

// Summarize computes statistics over the coverage values of samples. The
// zero value is returned for an empty series.
func Summarize(samples []scan.CoverageSample) CoverageStats {
	if len(samples) == 0 {
		return CoverageStats{}
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Coverage
	}

	st := CoverageStats{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Final: latest(samples).Coverage,
	}
	st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		st.StdDev = 0
	}
	sort.Float64s(values)
	st.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	return st
}

func latest(samples []scan.CoverageSample) scan.CoverageSample {
	last := samples[0]
	for _, s := range samples[1:] {
		if s.Cycle > last.Cycle || (s.Cycle == last.Cycle && s.Tick > last.Tick) {
			last = s
		}
	}
	return last
}

// CycleStats summarises completed cycles.
type CycleStats struct {
	Cycles       int     `json:"cycles"`
	MeanCoverage float64 `json:"mean_coverage"`
	MinCoverage  float64 `json:"min_coverage"`
	MeanTicks    float64 `json:"mean_ticks"`
	MeanDistance float64 `json:"mean_distance"`
	Detours      int     `json:"detours"`
	Uncorrected  int     `json:"uncorrected"`
	RiskPoints   int     `json:"risk_points"`
}

// SummarizeCycles aggregates cycle summaries.
func SummarizeCycles(cycles []scan.CycleSummary) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}
	cov := make([]float64, len(cycles))
	ticks := make([]float64, len(cycles))
	dist := make([]float64, len(cycles))
	st := CycleStats{Cycles: len(cycles)}
	for i, c := range cycles {
		cov[i] = c.Coverage
		ticks[i] = float64(c.Ticks)
		dist[i] = c.Distance
		st.Detours += c.Detours
		st.Uncorrected += c.Uncorrected
		st.RiskPoints += c.RiskPoints
	}
	st.MeanCoverage = stat.Mean(cov, nil)
	st.MinCoverage = floats.Min(cov)
	st.MeanTicks = stat.Mean(ticks, nil)
	st.MeanDistance = stat.Mean(dist, nil)
	return st
}
