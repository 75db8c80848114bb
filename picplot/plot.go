/*
 * plot.go, part of gopic.
 *
 *
 * Copyright 2024 The gopic Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

//Package picplot builds gonum/plot plots of field and particle data. The plots
//are returned, saving them is left to the caller.
package picplot

import (
	"fmt"
	"image/color"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/analysis"
	"github.com/rmera/gopic/histo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//DefaultColors is the number of colors of the palette used when none is given.
const DefaultColors = 64

func label(name, unit string) string {
	if unit == "" {
		return name
	}
	return fmt.Sprintf("%s [%s]", name, unit)
}

func basicPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

//Heatmap returns a color map of the 2D field data fd. If pal is nil, a
//diverging blue-red palette with DefaultColors colors is used.
func Heatmap(fd *pic.FieldData, title string, pal palette.Palette) (*plot.Plot, error) {
	g, err := NewGrid(fd)
	if err != nil {
		return nil, err
	}
	if pal == nil {
		cm := moreland.SmoothBlueRed()
		cm.SetMin(0)
		cm.SetMax(1)
		pal = cm.Palette(DefaultColors)
	}
	if title == "" {
		title = label(fd.Name+fd.Component, fd.Units)
	}
	p := basicPlot(title, label(fd.Axes[1].Label, fd.Axes[1].Units), label(fd.Axes[0].Label, fd.Axes[0].Units))
	p.Add(plotter.NewHeatMap(g, pal))
	return p, nil
}

//PhaseSpace returns a scatter plot of the components xcomp and ycomp of pd.
func PhaseSpace(pd *pic.ParticleData, xcomp, ycomp, title string) (*plot.Plot, error) {
	x, okx := pd.Get(xcomp)
	y, oky := pd.Get(ycomp)
	if !okx || !oky {
		return nil, fmt.Errorf("picplot: %s and %s needed, the data has %v", xcomp, ycomp, pd.Names())
	}
	pts := make(plotter.XYs, len(x.Data))
	for i := range pts {
		pts[i].X = x.Data[i]
		pts[i].Y = y.Data[i]
	}
	if title == "" {
		title = fmt.Sprintf("%s, iteration %d", pd.Species, pd.Iteration)
	}
	p := basicPlot(title, label(xcomp, x.Units), label(ycomp, y.Units))
	p.Add(plotter.NewGrid())
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(1)
	s.GlyphStyle.Color = color.RGBA{R: 0, G: 0, B: 180, A: 255}
	p.Add(s)
	return p, nil
}

//Spectrum returns a line plot of the bins of h against their centres.
func Spectrum(h *histo.Data, title, xlabel string) (*plot.Plot, error) {
	c, v := h.Centers(), h.View()
	pts := make(plotter.XYs, len(c))
	for i := range pts {
		pts[i].X, pts[i].Y = c[i], v[i]
	}
	p := basicPlot(title, xlabel, "")
	p.Add(plotter.NewGrid())
	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	p.Add(l)
	return p, nil
}

//Waterfall returns a color map of a series of histograms, with the keys along the
//horizontal axis and the bins along the vertical one.
func Waterfall(s *histo.Series, title, ylabel string, pal palette.Palette) (*plot.Plot, error) {
	g, err := newSeriesGrid(s)
	if err != nil {
		return nil, err
	}
	if pal == nil {
		pal = palette.Heat(DefaultColors, 1)
	}
	p := basicPlot(title, "iteration", ylabel)
	p.Add(plotter.NewHeatMap(g, pal))
	return p, nil
}

//Evolution returns a line plot of the column of ev against time. Failed iterations
//are left out.
func Evolution(ev *analysis.Evolution, column, title string) (*plot.Plot, error) {
	y := ev.Column(column)
	t := ev.Column("time")
	if y == nil || t == nil {
		return nil, fmt.Errorf("picplot: column %s or time not in %v", column, ev.Columns)
	}
	pts := make(plotter.XYs, 0, len(y))
	for i, it := range ev.Iterations {
		if _, failed := ev.Errors[it]; failed {
			continue
		}
		pts = append(pts, plotter.XY{X: t[i], Y: y[i]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("picplot: no valid data for %s", column)
	}
	p := basicPlot(title, "time [s]", column)
	p.Add(plotter.NewGrid())
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	p.Add(l, s)
	return p, nil
}
