/*
 * series.go, part of gopic.
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

package formats

import (
	"fmt"
	"sort"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/h5"
)

//SeriesField is a pic.FieldReader over a series of files, one per iteration,
//each holding the field in the dataset Dataset. It is what the codes that write
//one file per quantity and iteration need.
type SeriesField struct {
	Format  string
	Opener  h5.Opener
	Files   map[int]string
	Dataset string
	Geom    pic.Geometry
	//SI unit the field is reported in.
	SI string
	//GridOf reads the grid, in native units, from an open file.
	GridOf func(s h5.Store, dataset string) (*pic.Grid, error)
}

func (S *SeriesField) Iterations() []int { return Iterations(S.Files) }

func (S *SeriesField) Geometry() pic.Geometry { return S.Geom }
func (S *SeriesField) Units() string          { return S.SI }

//with opens the file of it and calls f on it.
func with(format string, o h5.Opener, files map[int]string, it int, f func(h5.Store) error) error {
	name, ok := files[it]
	if !ok {
		return NewError(format, "", "no file for the iteration", nil)
	}
	s, err := o(name)
	if err != nil {
		return NewError(format, name, UnableToOpen, err)
	}
	defer s.Close()
	if err := f(s); err != nil {
		return NewError(format, name, ReadError, err)
	}
	return nil
}

func (S *SeriesField) Grid(it int) (*pic.Grid, error) {
	var g *pic.Grid
	err := with(S.Format, S.Opener, S.Files, it, func(s h5.Store) error {
		var err error
		g, err = S.GridOf(s, S.Dataset)
		return err
	})
	return g, err
}

func (S *SeriesField) ReadArray(it int, sel *pic.Hyperslab) (*pic.Array, error) {
	var arr *pic.Array
	err := with(S.Format, S.Opener, S.Files, it, func(s h5.Store) error {
		data, shape, err := s.Read(S.Dataset, sel)
		if err != nil {
			return err
		}
		arr = &pic.Array{Shape: shape, Data: data}
		return nil
	})
	return arr, err
}

//SeriesSpecies is a pic.ParticleReader over a series of files, one per iteration,
//with one dataset per particle component.
type SeriesSpecies struct {
	Format string
	Opener h5.Opener
	Files  map[int]string
	//Datasets maps the canonical component names to the datasets holding them.
	Datasets map[string]string
	//UnitsOf returns the native unit of a dataset.
	UnitsOf func(s h5.Store, dataset string) (string, error)
	//TimeOf returns the time of the file, in native units.
	TimeOf func(s h5.Store) (float64, string, error)
	//Column, if set, gives the column to read from a 2D dataset.
	Column map[string]int
}

func (S *SeriesSpecies) Iterations() []int { return Iterations(S.Files) }

//Components returns the canonical names of the datasets, sorted.
func (S *SeriesSpecies) Components() []string {
	ret := make([]string, 0, len(S.Datasets))
	for k := range S.Datasets {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (S *SeriesSpecies) Time(it int) (float64, string, error) {
	var t float64
	var u string
	err := with(S.Format, S.Opener, S.Files, it, func(s h5.Store) error {
		var err error
		t, u, err = S.TimeOf(s)
		return err
	})
	return t, u, err
}

func (S *SeriesSpecies) ReadComponent(it int, name string, mask []bool) ([]float64, string, error) {
	ds, ok := S.Datasets[name]
	if !ok {
		return nil, "", Unknown(S.Format, S.Files[it], name)
	}
	var data []float64
	var u string
	err := with(S.Format, S.Opener, S.Files, it, func(s h5.Store) error {
		var err error
		var sel *h5.Selection
		if col, ok := S.Column[name]; ok {
			shape, err := s.Shape(ds)
			if err != nil {
				return err
			}
			if len(shape) != 2 {
				return NewError(S.Format, "", WrongFormat+": "+ds+" should be 2D", nil)
			}
			sel = &h5.Selection{Start: []int{0, col}, Count: []int{shape[0], 1}}
		}
		if data, _, err = s.Read(ds, sel); err != nil {
			return err
		}
		u, err = S.UnitsOf(s, ds)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	data, err = Mask(data, mask)
	if err != nil {
		return nil, "", NewError(S.Format, S.Files[it], WrongFormat+": "+ds+": selection and component lengths differ", err)
	}
	return data, u, nil
}

//Mask returns the elements of data for which mask is true, reusing data.
//A nil mask keeps everything. The lengths of data and mask must match.
func Mask(data []float64, mask []bool) ([]float64, error) {
	if mask == nil {
		return data, nil
	}
	if len(mask) != len(data) {
		return nil, fmt.Errorf("%d values, %d in the selection", len(data), len(mask))
	}
	kept := data[:0]
	for i, v := range data {
		if mask[i] {
			kept = append(kept, v)
		}
	}
	return kept, nil
}
