// Package visualize renders the static charts of the merged dataset.
package visualize

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Chart file names under the results directory.
const (
	GDPScatterFile     = "gdp_happiness_scatter.png"
	LifeExpScatterFile = "life_exp_happiness_scatter.png"
	HeatmapFile        = "correlation_heatmap.png"
)

// Merged column names the charts read.
const (
	ColScore     = "happiness_score"
	ColContinent = "continent"
	ColGDP       = "gdp_per_capita"
	ColLifeExp   = "life_expectancy"
)

// HeatmapColumns is the fixed correlation subset, in display order.
var HeatmapColumns = []string{
	ColScore, ColGDP, ColLifeExp, "hdi", "social_support", "freedom", "generosity",
}

const alpha = 153 // 0.6 opacity

var continentColors = map[string]color.NRGBA{
	"Africa":   {R: 255, A: alpha},
	"Americas": {B: 255, A: alpha},
	"Asia":     {G: 128, A: alpha},
	"Europe":   {R: 128, B: 128, A: alpha},
	"Oceania":  {R: 255, G: 165, A: alpha},
}

var fallbackColor = color.NRGBA{R: 128, G: 128, B: 128, A: alpha}

// ContinentColor returns the fixed color of a continent, gray when unknown.
func ContinentColor(continent string) color.NRGBA {
	if c, ok := continentColors[continent]; ok {
		return c
	}
	return fallbackColor
}

// ScatterSpec describes one continent-colored scatter plot.
type ScatterSpec struct {
	X, Y   string
	XLabel string
	YLabel string
	Title  string
}

type group struct {
	name string
	xys  plotter.XYs
}

// groupPoints splits the (x, y) pairs by continent in first-seen order.
// Rows with a missing or non-numeric x or y are skipped.
func groupPoints(t *table.Table, spec ScatterSpec, f table.NumberFormat) ([]*group, error) {
	xs, err := t.Column(spec.X)
	if err != nil {
		return nil, err
	}
	ys, err := t.Column(spec.Y)
	if err != nil {
		return nil, err
	}
	cs, err := t.Column(ColContinent)
	if err != nil {
		return nil, err
	}
	var groups []*group
	byName := map[string]*group{}
	for i := range xs {
		x, okx := f.Parse(xs[i])
		y, oky := f.Parse(ys[i])
		if !okx || !oky {
			continue
		}
		name := cs[i]
		if table.IsMissing(name) {
			name = "Unknown"
		}
		g := byName[name]
		if g == nil {
			g = &group{name: name}
			byName[name] = g
			groups = append(groups, g)
		}
		g.xys = append(g.xys, plotter.XY{X: x, Y: y})
	}
	return groups, nil
}

// Scatter builds a scatter plot of spec.X against spec.Y colored by continent.
func Scatter(t *table.Table, spec ScatterSpec, f table.NumberFormat) (*plot.Plot, error) {
	groups, err := groupPoints(t, spec, f)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Add("Continent")
	for _, g := range groups {
		s, err := plotter.NewScatter(g.xys)
		if err != nil {
			return nil, fmt.Errorf("scatter %s: %w", g.name, err)
		}
		s.GlyphStyle.Color = ContinentColor(g.name)
		s.GlyphStyle.Radius = vg.Points(5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(g.name, s)
	}
	return p, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ. Row 0 of the
// matrix is drawn at the top.
type corrGrid struct{ m *profile.CorrMatrix }

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	return float64(g.m.Values[len(g.m.Columns)-1-r][c])
}

func (g corrGrid) X(c int) float64 { return float64(c) }

func (g corrGrid) Y(r int) float64 { return float64(r) }

// Heatmap builds an annotated correlation heatmap with a diverging blue-red
// scale fixed to [-1, 1].
func Heatmap(m *profile.CorrMatrix, title string) (*plot.Plot, error) {
	n := len(m.Columns)
	if n == 0 {
		return nil, fmt.Errorf("heatmap: no columns")
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	grid := corrGrid{m: m}
	h := plotter.NewHeatMap(grid, cmap.Palette(255))
	h.Min, h.Max = -1, 1
	h.NaN = color.White

	p := plot.New()
	p.Title.Text = title
	p.Add(h)

	var xys plotter.XYs
	var labels []string
	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	for c := 0; c < n; c++ {
		xticks[c] = plot.Tick{Value: float64(c), Label: m.Columns[c]}
		yticks[c] = plot.Tick{Value: float64(c), Label: m.Columns[n-1-c]}
		for r := 0; r < n; r++ {
			v := grid.Z(c, r)
			s := "nan"
			if !math.IsNaN(v) {
				s = fmt.Sprintf("%.2f", v)
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, s)
		}
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = text.XCenter
		l.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(l)

	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	return p, nil
}

// Check renders a tiny PNG to confirm the raster backend and fonts work.
func Check() error {
	p := plot.New()
	p.Title.Text = "check"
	s, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return err
	}
	p.Add(s)
	wt, err := p.WriterTo(vg.Inch, vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("png renderer: %w", err)
	}
	if _, err := wt.WriteTo(io.Discard); err != nil {
		return fmt.Errorf("png renderer: %w", err)
	}
	return nil
}
