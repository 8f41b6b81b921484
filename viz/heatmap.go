// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

// Package viz renders the figures of the Bayesian-classification walkthrough:
// posterior-predictive mean and uncertainty surfaces over the input plane
// (PNG via gonum/plot, interactive HTML via Plotly), training curves (SVG via
// margaid) and a montage combining the panels. When running under a GoNB
// notebook the Display* functions additionally push everything inline.
package viz

import (
	"image/color"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/probing-ml/bayesmoons"
	"github.com/probing-ml/bayesmoons/moons"
)

// GridData is one scalar field sampled over a rectangular grid of the input
// plane, ready to be drawn as a heatmap. Values is indexed [idxX2][idxX1],
// matching bayesmoons.GridPrediction.
type GridData struct {
	X1s, X2s []float64
	Values   [][]float64

	// ZMin and ZMax fix the color range; leave both zero to range over the
	// data. The predictive-mean surface pins them to [0, 1] so the diverging
	// palette centers on probability ½.
	ZMin, ZMax float64
}

var _ plotter.GridXYZ = (*GridData)(nil)

// Dims implements plotter.GridXYZ.
func (g *GridData) Dims() (c, r int) { return len(g.X1s), len(g.X2s) }

// Z implements plotter.GridXYZ.
func (g *GridData) Z(c, r int) float64 { return g.Values[r][c] }

// X implements plotter.GridXYZ.
func (g *GridData) X(c int) float64 { return g.X1s[c] }

// Y implements plotter.GridXYZ.
func (g *GridData) Y(r int) float64 { return g.X2s[r] }

// DivergingPalette is used for the predictive mean: blue for class 0, red
// for class 1, white at probability ½.
func DivergingPalette() palette.Palette { return moreland.SmoothBlueRed().Palette(255) }

// SequentialPalette is used for uncertainty surfaces (stddev, entropy).
func SequentialPalette() palette.Palette { return palette.Heat(255, 255) }

// HeatmapPNG draws one grid field as a heatmap with the dataset points
// overlaid (class 0 black, class 1 white) and saves it as a PNG.
func HeatmapPNG(g *GridData, ds moons.Dataset, title, path string, pal palette.Palette) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x1"
	p.Y.Label.Text = "x2"

	h := plotter.NewHeatMap(g, pal)
	if g.ZMin != g.ZMax {
		h.Min, h.Max = g.ZMin, g.ZMax
	}
	p.Add(h)

	for class, classColor := range map[int]color.Color{
		0: color.Black,
		1: color.White,
	} {
		xys := classXYs(ds, class)
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrapf(err, "building class %d scatter for %q", class, title)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  classColor,
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
	}

	if err := p.Save(6*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving heatmap %q to %q", title, path)
	}
	return nil
}

func classXYs(ds moons.Dataset, class int) plotter.XYs {
	xys := make(plotter.XYs, 0, ds.NumExamples())
	for i := 0; i < ds.NumExamples(); i++ {
		if int(ds.Y[i]) != class {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(ds.X[2*i]), Y: float64(ds.X[2*i+1])})
	}
	return xys
}

// SurfaceGrids splits a grid prediction into the two canonical fields: the
// posterior-predictive mean (color range pinned to [0,1]) and its standard
// deviation.
func SurfaceGrids(grid *bayesmoons.GridPrediction) (mean, stddev *GridData) {
	mean = &GridData{X1s: grid.X1s, X2s: grid.X2s, Values: grid.Mean, ZMin: 0, ZMax: 1}
	stddev = &GridData{X1s: grid.X1s, X2s: grid.X2s, Values: grid.StdDev}
	return
}

// SurfacePNGs writes the pair of canonical figures into dir --
// predictive_mean.png and predictive_stddev.png -- with the dataset points
// overlaid, and returns their paths.
func SurfacePNGs(grid *bayesmoons.GridPrediction, ds moons.Dataset, dir string) ([]string, error) {
	mean, stddev := SurfaceGrids(grid)
	panels := []struct {
		grid  *GridData
		title string
		file  string
		pal   palette.Palette
	}{
		{mean, "Posterior-predictive mean p(class=1)", "predictive_mean.png", DivergingPalette()},
		{stddev, "Posterior-predictive stddev", "predictive_stddev.png", SequentialPalette()},
	}
	paths := make([]string, 0, len(panels))
	for _, panel := range panels {
		path := filepath.Join(dir, panel.file)
		if err := HeatmapPNG(panel.grid, ds, panel.title, path, panel.pal); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
