/*
 * helpers_test.go, part of gopic.
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

package pic

import (
	"math"

	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

//fakeField is a FieldReader over in-memory arrays, already in SI.
type fakeField struct {
	geom  Geometry
	its   []int
	units string
	axes  []Axis
	modes int
	shape []int
	data  map[int][]float64
	reads int
	last  *Hyperslab
}

func (f *fakeField) Iterations() []int  { return f.its }
func (f *fakeField) Geometry() Geometry { return f.geom }
func (f *fakeField) Units() string      { return f.units }

func (f *fakeField) Grid(it int) (*Grid, error) {
	return &Grid{Axes: f.axes, Time: float64(it) * 1e-15, TimeUnits: units.Time, Units: f.units, Modes: f.modes}, nil
}

func (f *fakeField) ReadArray(it int, sel *Hyperslab) (*Array, error) {
	f.reads++
	f.last = sel
	d := f.data[it]
	if sel == nil {
		return &Array{Shape: f.shape, Data: append([]float64(nil), d...)}, nil
	}
	if err := h5.CheckSelection(sel, f.shape); err != nil {
		return nil, err
	}
	return &Array{Shape: append([]int(nil), sel.Count...), Data: h5.Extract(d, f.shape, sel)}, nil
}

//cartesian2D returns a (z, x) field with value 100*iz + ix, the same at every iteration.
func cartesian2D(nz, nx int, its ...int) *fakeField {
	f := &fakeField{
		geom:  Cartesian2D,
		its:   its,
		units: units.EField,
		axes: []Axis{
			{Label: "z", Units: "m", Min: 0, Spacing: 1e-6, N: nz},
			{Label: "x", Units: "m", Min: -1e-6, Spacing: 0.5e-6, N: nx},
		},
		shape: []int{nz, nx},
		data:  map[int][]float64{},
	}
	d := make([]float64, nz*nx)
	for iz := 0; iz < nz; iz++ {
		for ix := 0; ix < nx; ix++ {
			d[iz*nx+ix] = float64(100*iz + ix)
		}
	}
	for _, it := range its {
		f.data[it] = d
	}
	return f
}

//constant returns a field with a constant value, on the geometry and grid of proto.
func constant(proto *fakeField, u string, v float64) *fakeField {
	f := *proto
	f.units = u
	f.data = map[int][]float64{}
	n := prod(f.shape)
	for _, it := range f.its {
		d := make([]float64, n)
		for i := range d {
			d[i] = v
		}
		f.data[it] = d
	}
	return &f
}

//fakeSpecies is a ParticleReader over in-memory components.
type fakeSpecies struct {
	its   []int
	comps map[string][]float64
	units map[string]string
	order []string
	reads map[string]int
}

func newFakeSpecies(its ...int) *fakeSpecies {
	return &fakeSpecies{its: its, comps: map[string][]float64{}, units: map[string]string{}, reads: map[string]int{}}
}

func (s *fakeSpecies) add(name, unit string, data ...float64) *fakeSpecies {
	s.comps[name] = data
	s.units[name] = unit
	s.order = append(s.order, name)
	return s
}

func (s *fakeSpecies) Iterations() []int    { return s.its }
func (s *fakeSpecies) Components() []string { return s.order }

func (s *fakeSpecies) Time(it int) (float64, string, error) {
	return float64(it) * 1e-15, units.Time, nil
}

func (s *fakeSpecies) ReadComponent(it int, name string, mask []bool) ([]float64, string, error) {
	s.reads[name]++
	d := s.comps[name]
	var ret []float64
	for i, v := range d {
		if mask == nil || mask[i] {
			ret = append(ret, v)
		}
	}
	return ret, s.units[name], nil
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
