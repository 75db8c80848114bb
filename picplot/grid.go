/*
 * grid.go, part of gopic.
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

package picplot

import (
	"fmt"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/histo"
)

//Grid adapts a 2D FieldData to plotter.GridXYZ. The last axis of the array goes
//along the columns (the horizontal axis of a plot) and the first along the rows.
type Grid struct {
	fd *pic.FieldData
}

//NewGrid returns a Grid over fd, which must have a 2D array.
func NewGrid(fd *pic.FieldData) (*Grid, error) {
	if fd.Array == nil || fd.Array.Dims() != 2 || len(fd.Axes) != 2 {
		return nil, fmt.Errorf("picplot: %s%s is not a 2D array", fd.Name, fd.Component)
	}
	return &Grid{fd: fd}, nil
}

func (G *Grid) Dims() (c, r int) {
	return G.fd.Array.Shape[1], G.fd.Array.Shape[0]
}

func (G *Grid) Z(c, r int) float64 {
	return G.fd.Array.At(r, c)
}

func (G *Grid) X(c int) float64 {
	a := G.fd.Axes[1]
	return a.Min + float64(c)*a.Spacing
}

func (G *Grid) Y(r int) float64 {
	a := G.fd.Axes[0]
	return a.Min + float64(r)*a.Spacing
}

//seriesGrid adapts a histo.Series: one column per key and one row per bin.
type seriesGrid struct {
	keys    []int
	centers []float64
	data    []float64
}

func newSeriesGrid(s *histo.Series) (*seriesGrid, error) {
	rows, cols, data := s.Matrix()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("picplot: empty histogram series")
	}
	h := s.View(s.Keys()[0])
	return &seriesGrid{keys: s.Keys(), centers: h.Centers(), data: data}, nil
}

func (S *seriesGrid) Dims() (c, r int)   { return len(S.keys), len(S.centers) }
func (S *seriesGrid) Z(c, r int) float64 { return S.data[c*len(S.centers)+r] }
func (S *seriesGrid) X(c int) float64    { return float64(S.keys[c]) }
func (S *seriesGrid) Y(r int) float64    { return S.centers[r] }
