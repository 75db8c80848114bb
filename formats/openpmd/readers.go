/*
 * readers.go, part of gopic.
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

package openpmd

import (
	"math"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/formats"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

//meshReader is the pic.FieldReader of one mesh record component. Data is
//read in SI, as unitSI and gridUnitSI are applied here.
type meshReader struct {
	cfg       pic.FormatConfig
	mesh      string
	component string
	geom      pic.Geometry
	units     string
	files     map[int]string
	its       []int
}

func (M *meshReader) Iterations() []int      { return M.its }
func (M *meshReader) Geometry() pic.Geometry { return M.geom }
func (M *meshReader) Units() string          { return M.units }

//paths returns the path of the mesh record and of the component in the file.
func (M *meshReader) paths(l layout) (string, string) {
	rec := h5.Join(l.meshes, M.mesh)
	if M.component == "" {
		return rec, rec
	}
	return rec, h5.Join(rec, M.component)
}

//with opens the file of it and calls f with the store and the record
//and component paths.
func (M *meshReader) with(it int, f func(s h5.Store, l layout, rec, comp string) error) error {
	name, ok := M.files[it]
	if !ok {
		return formats.NewError(Tag, "", "no file for the iteration", nil)
	}
	s, l, err := open(M.cfg, name, it)
	if err != nil {
		return err
	}
	defer s.Close()
	rec, comp := M.paths(l)
	if err := f(s, l, rec, comp); err != nil {
		return formats.NewError(Tag, name, formats.ReadError, err)
	}
	return nil
}

func reversed(v []float64) []float64 {
	ret := make([]float64, len(v))
	for i, x := range v {
		ret[len(v)-1-i] = x
	}
	return ret
}

func reversedStrings(v []string) []string {
	ret := make([]string, len(v))
	for i, x := range v {
		ret[len(v)-1-i] = x
	}
	return ret
}

func (M *meshReader) Grid(it int) (*pic.Grid, error) {
	var g *pic.Grid
	err := M.with(it, func(s h5.Store, l layout, rec, comp string) error {
		labels, err := s.Attr(rec, "axisLabels")
		if err != nil {
			return err
		}
		spacing, err := h5.FloatsAttr(s, rec, "gridSpacing")
		if err != nil {
			return err
		}
		offset, err := h5.FloatsAttr(s, rec, "gridGlobalOffset")
		if err != nil {
			return err
		}
		gunit := 1.0
		if u, err := h5.FloatAttr(s, rec, "gridUnitSI"); err == nil {
			gunit = u
		}
		lab := labels.Strings
		if order, err := h5.StringAttr(s, rec, "dataOrder"); err == nil && order == "F" {
			lab, spacing, offset = reversedStrings(lab), reversed(spacing), reversed(offset)
		}
		pos := make([]float64, len(lab))
		if p, err := h5.FloatsAttr(s, comp, "position"); err == nil {
			if order, err := h5.StringAttr(s, rec, "dataOrder"); err == nil && order == "F" {
				p = reversed(p)
			}
			copy(pos, p)
		}
		shape, err := recordShape(s, comp)
		if err != nil {
			return err
		}
		modes := 0
		if M.geom == pic.ThetaMode {
			if len(shape) != 3 {
				return formats.NewError(Tag, "", formats.WrongFormat+": thetaMode meshes are (modes, r, z)", nil)
			}
			modes = shape[0]
			shape = shape[1:]
		}
		if len(shape) != len(lab) || len(spacing) != len(lab) || len(offset) != len(lab) {
			return formats.NewError(Tag, "", formats.WrongFormat+": axis attributes don't match the data", nil)
		}
		t, err := iterationTime(s, l.base)
		if err != nil {
			return err
		}
		g = &pic.Grid{Time: t, TimeUnits: units.Time, Units: M.units, Modes: modes}
		for i, a := range lab {
			g.Axes = append(g.Axes, pic.Axis{
				Label:   a,
				Units:   units.Length,
				Min:     (offset[i] + pos[i]*spacing[i]) * gunit,
				Spacing: spacing[i] * gunit,
				N:       shape[i],
			})
		}
		return nil
	})
	return g, err
}

func (M *meshReader) ReadArray(it int, sel *pic.Hyperslab) (*pic.Array, error) {
	var arr *pic.Array
	err := M.with(it, func(s h5.Store, l layout, rec, comp string) error {
		data, shape, err := readRecord(s, comp, sel)
		if err != nil {
			return err
		}
		arr = &pic.Array{Shape: shape, Data: data}
		return nil
	})
	return arr, err
}

//speciesReader is the pic.ParticleReader of one openPMD species.
type speciesReader struct {
	cfg   pic.FormatConfig
	name  string
	comps []string
	files map[int]string
	its   []int
}

func (P *speciesReader) Iterations() []int    { return P.its }
func (P *speciesReader) Components() []string { return P.comps }

func (P *speciesReader) with(it int, f func(s h5.Store, l layout, path string) error) error {
	name, ok := P.files[it]
	if !ok {
		return formats.NewError(Tag, "", "no file for the iteration", nil)
	}
	s, l, err := open(P.cfg, name, it)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := f(s, l, h5.Join(l.particles, P.name)); err != nil {
		return formats.NewError(Tag, name, formats.ReadError, err)
	}
	return nil
}

func (P *speciesReader) Time(it int) (float64, string, error) {
	var t float64
	err := P.with(it, func(s h5.Store, l layout, _ string) error {
		var err error
		t, err = iterationTime(s, l.base)
		return err
	})
	return t, units.Time, err
}

func record(name string) (rec, comp, u string, ok bool) {
	for _, r := range particleRecords {
		if r.name == name {
			return r.record, r.component, r.units, true
		}
	}
	return "", "", "", false
}

//unweight undoes the weighting of macroWeighted records, so data is per
//physical particle.
func unweight(s h5.Store, path, recpath string, data []float64) error {
	mw, err := h5.FloatAttr(s, recpath, "macroWeighted")
	if err != nil || mw == 0 {
		return nil
	}
	power, err := h5.FloatAttr(s, recpath, "weightingPower")
	if err != nil || power == 0 {
		return nil
	}
	w, _, err := readRecord(s, h5.Join(path, "weighting"), nil)
	if err != nil {
		return err
	}
	if len(w) != len(data) {
		return formats.NewError(Tag, "", formats.WrongFormat+": weighting and record lengths differ", nil)
	}
	for i := range data {
		data[i] /= math.Pow(w[i], power)
	}
	return nil
}

func (P *speciesReader) ReadComponent(it int, name string, mask []bool) ([]float64, string, error) {
	rec, comp, u, ok := record(name)
	if !ok {
		return nil, "", formats.Unknown(Tag, "", name)
	}
	var data []float64
	err := P.with(it, func(s h5.Store, l layout, path string) error {
		recpath := h5.Join(path, rec)
		var err error
		data, _, err = readRecord(s, h5.Join(recpath, comp), nil)
		if err != nil {
			return err
		}
		if err := unweight(s, path, recpath, data); err != nil {
			return err
		}
		if rec != "position" {
			return nil
		}
		offpath := h5.Join(path, "positionOffset", comp)
		if s.Kind(offpath) == h5.Missing {
			return nil
		}
		off, _, err := readRecord(s, offpath, nil)
		if err != nil {
			return err
		}
		if len(off) != len(data) {
			return formats.NewError(Tag, "", formats.WrongFormat+": positionOffset and position lengths differ", nil)
		}
		for i := range data {
			data[i] += off[i]
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if mask != nil {
		if len(mask) != len(data) {
			return nil, "", formats.NewError(Tag, P.files[it], formats.WrongFormat+": selection and component lengths differ", nil)
		}
		kept := data[:0]
		for i, v := range data {
			if mask[i] {
				kept = append(kept, v)
			}
		}
		data = kept
	}
	return data, u, nil
}
