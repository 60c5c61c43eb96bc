// Package report renders scan results: a gonum/plot picture of one snapshot,
// a go-echarts coverage chart and summary statistics of coverage series.
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/forest.scan/internal/geom"
	"github.com/banshee-data/forest.scan/internal/scan"
)

// circleSegments is the number of polygon edges used to draw an obstacle.
const circleSegments = 24

// PlotSize is the side length of rendered scan plots.
var PlotSize = 8 * vg.Inch

var (
	colorBounds   = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	colorScanned  = color.RGBA{R: 170, G: 220, B: 170, A: 160}
	colorTree     = color.RGBA{R: 34, G: 110, B: 50, A: 255}
	colorPreview  = color.RGBA{R: 120, G: 120, B: 200, A: 255}
	colorPath     = color.RGBA{R: 40, G: 70, B: 200, A: 255}
	colorTrail    = color.RGBA{R: 220, G: 120, B: 20, A: 255}
	colorDetour   = color.RGBA{R: 200, G: 0, B: 160, A: 255}
	colorRisk     = color.RGBA{R: 220, G: 20, B: 20, A: 255}
	colorAgent    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	previewDashes = []vg.Length{vg.Points(4), vg.Points(3)}
)

// PlotScan draws the snapshot: scan bounds, scanned cells, obstacles, the
// intended route, the remaining path, the trail, avoidance arcs, risk
// points and the agent.
func PlotScan(snap scan.Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s cycle %d, tick %d, coverage %.1f%%", snap.Strategy, snap.Cycle, snap.Tick, snap.Coverage)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	// Start from the scan area plus a margin; obstacles outside it widen the view.
	b := snap.Bounds
	pad := 0.05 * math.Max(b.Size().X, b.Size().Y)
	p.X.Min, p.X.Max = b.Min.X-pad, b.Max.X+pad
	p.Y.Min, p.Y.Max = b.Min.Y-pad, b.Max.Y+pad
	// Canvas coordinates grow downward.
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}

	if err := addScanned(p, snap); err != nil {
		return nil, err
	}

	outline, err := plotter.NewLine(toXYs(append(b.Vertices(), b.Min)))
	if err != nil {
		return nil, fmt.Errorf("bounds outline: %w", err)
	}
	outline.Color = colorBounds
	outline.Width = vg.Points(1)
	p.Add(outline)

	for _, o := range snap.Obstacles {
		poly, err := plotter.NewPolygon(circleXYs(o))
		if err != nil {
			return nil, fmt.Errorf("obstacle at (%g, %g): %w", o.X, o.Y, err)
		}
		poly.Color = colorTree
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	if err := addPolyline(p, "planned", snap.Preview, colorPreview, previewDashes); err != nil {
		return nil, err
	}
	if err := addPolyline(p, "remaining", snap.Path, colorPath, nil); err != nil {
		return nil, err
	}
	if err := addPolyline(p, "trail", snap.Trail, colorTrail, nil); err != nil {
		return nil, err
	}
	if err := addPoints(p, "detour", snap.AvoidTrace, colorDetour, draw.RingGlyph{}, 2); err != nil {
		return nil, err
	}

	risks := make([]geom.Point, len(snap.RiskPoints))
	for i, r := range snap.RiskPoints {
		risks[i] = r.Point
	}
	if err := addPoints(p, "risk", risks, colorRisk, draw.CrossGlyph{}, 4); err != nil {
		return nil, err
	}
	if err := addPoints(p, "agent", []geom.Point{snap.Agent}, colorAgent, draw.CircleGlyph{}, 4); err != nil {
		return nil, err
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePlot writes the plot to file; the image format follows the extension.
func SavePlot(p *plot.Plot, file string) error {
	if err := p.Save(PlotSize, PlotSize, file); err != nil {
		return fmt.Errorf("save plot %s: %w", file, err)
	}
	return nil
}

// WritePNG renders the plot as PNG to w.
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(PlotSize, PlotSize, "png")
	if err != nil {
		return fmt.Errorf("png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func addScanned(p *plot.Plot, snap scan.Snapshot) error {
	g := snap.Grid
	if g.Cols == 0 || g.Rows == 0 {
		return nil
	}
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if !g.Cells[row*g.Cols+col] {
				continue
			}
			x0 := g.Origin.X + float64(col)*g.CellSize
			y0 := g.Origin.Y + float64(row)*g.CellSize
			cell, err := plotter.NewPolygon(toXYs(geom.NewBounds(x0, y0, x0+g.CellSize, y0+g.CellSize).Vertices()))
			if err != nil {
				return fmt.Errorf("cell %d,%d: %w", col, row, err)
			}
			cell.Color = colorScanned
			cell.LineStyle.Width = 0
			p.Add(cell)
		}
	}
	return nil
}

func addPolyline(p *plot.Plot, label string, pts []geom.Point, c color.Color, dashes []vg.Length) error {
	if len(pts) < 2 {
		return nil
	}
	line, err := plotter.NewLine(toXYs(pts))
	if err != nil {
		return fmt.Errorf("%s line: %w", label, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	line.Dashes = dashes
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

func addPoints(p *plot.Plot, label string, pts []geom.Point, c color.Color, shape draw.GlyphDrawer, radius float64) error {
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(toXYs(pts))
	if err != nil {
		return fmt.Errorf("%s points: %w", label, err)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Radius = vg.Points(radius)
	p.Add(sc)
	p.Legend.Add(label, sc)
	return nil
}

func toXYs(pts []geom.Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}

func circleXYs(o geom.Obstacle) plotter.XYs {
	xys := make(plotter.XYs, circleSegments)
	for i := range xys {
		theta := 2 * math.Pi * float64(i) / circleSegments
		pt := geom.PolarOffset(o.Center(), o.Radius, theta)
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}
