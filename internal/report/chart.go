package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/forest.scan/internal/scan"
)

// EChartsAssetsHost is where rendered pages load the echarts scripts from.
var EChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// CoverageChart renders the coverage series as an HTML line chart with one
// series per cycle, tick on the x axis and coverage percent on the y axis.
func CoverageChart(w io.Writer, title string, samples []scan.CoverageSample) error {
	byCycle := make(map[int][]scan.CoverageSample)
	for _, s := range samples {
		byCycle[s.Cycle] = append(byCycle[s.Cycle], s)
	}
	cycles := make([]int, 0, len(byCycle))
	for c := range byCycle {
		cycles = append(cycles, c)
	}
	sort.Ints(cycles)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: EChartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("cycles=%d samples=%d", len(cycles), len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Tick", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 100, Name: "Coverage (%)", NameLocation: "middle", NameGap: 40}),
	)

	for _, c := range cycles {
		series := byCycle[c]
		sort.Slice(series, func(i, j int) bool { return series[i].Tick < series[j].Tick })
		data := make([]opts.LineData, len(series))
		for i, s := range series {
			data[i] = opts.LineData{Value: []interface{}{s.Tick, s.Coverage}}
		}
		line.AddSeries(fmt.Sprintf("cycle %d", c), data)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render coverage chart: %w", err)
	}
	return nil
}
