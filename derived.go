/*
 * derived.go, part of gopic.
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
	"sort"

	"github.com/rmera/gopic/units"
)

//Recipe computes a derived array from the arrays of its base fields, given in the
//order of the requirements for the geometry.
type Recipe func(arrays []*Array, geom Geometry, params Params) (*Array, error)

//DerivedFieldDefinition describes a field computed from other fields.
type DerivedFieldDefinition struct {
	Name  string
	Units string
	//Full names of the base fields needed, per geometry.
	Requirements map[Geometry][]string
	Recipe       Recipe
}

//DerivedField is a Field computed from base fields. It doesn't own them.
type DerivedField struct {
	def        DerivedFieldDefinition
	geom       Geometry
	bases      []Field
	params     Params
	iterations []int
}

//NewDerivedField builds the derived field def out of bases, which must be the
//fields def requires for geom, in order.
func NewDerivedField(def DerivedFieldDefinition, geom Geometry, bases []Field, params Params) (*DerivedField, error) {
	req, ok := def.Requirements[geom]
	if !ok {
		return nil, unsupported("derived field %s is not implemented for geometry %s", def.Name, geom)
	}
	if len(req) != len(bases) || len(bases) == 0 {
		return nil, configError(nil, "derived field %s needs %d base fields, %d given", def.Name, len(req), len(bases))
	}
	its := bases[0].Iterations()
	for _, b := range bases[1:] {
		its = intersect(its, b.Iterations())
	}
	return &DerivedField{def: def, geom: geom, bases: bases, params: params, iterations: its}, nil
}

func intersect(a, b []int) []int {
	ret := make([]int, 0, len(a))
	for _, v := range a {
		if hasIteration(b, v) {
			ret = append(ret, v)
		}
	}
	sort.Ints(ret)
	return ret
}

func (D *DerivedField) Name() string       { return D.def.Name }
func (D *DerivedField) Component() string  { return "" }
func (D *DerivedField) FullName() string   { return D.def.Name }
func (D *DerivedField) Units() string      { return D.def.Units }
func (D *DerivedField) Geometry() Geometry { return D.geom }
func (D *DerivedField) Iterations() []int  { return append([]int(nil), D.iterations...) }

//Definition returns the definition the field was built from.
func (D *DerivedField) Definition() DerivedFieldDefinition { return D.def }

func (D *DerivedField) Data(it int, req *FieldRequest) (*FieldData, error) {
	if !hasIteration(D.iterations, it) {
		return nil, iterNotFound(it, D.iterations)
	}
	arrays := make([]*Array, len(D.bases))
	var first *FieldData
	for i, b := range D.bases {
		fd, err := b.Data(it, req)
		if err != nil {
			return nil, errDecorate(err, "DerivedField.Data "+D.def.Name)
		}
		if i == 0 {
			first = fd
		}
		arrays[i] = fd.Array
	}
	ret := &FieldData{Name: D.def.Name, Metadata: first.Metadata.copy()}
	ret.Metadata.Units = D.def.Units
	if req != nil && req.OnlyMetadata {
		return ret, nil
	}
	for _, a := range arrays[1:] {
		if !a.SameShape(arrays[0]) {
			return nil, unsupported("base fields of %s have different shapes: %v and %v", D.def.Name, arrays[0].Shape, a.Shape)
		}
	}
	arr, err := D.def.Recipe(arrays, D.geom, D.params)
	if err != nil {
		return nil, errDecorate(err, "DerivedField.Data "+D.def.Name)
	}
	ret.Array = arr
	return ret, nil
}

//eRequirements are the electric field components, per geometry.
var eRequirements = map[Geometry][]string{
	OneD:          {"Ez"},
	Cartesian2D:   {"Ez", "Ex"},
	Cartesian3D:   {"Ez", "Ex", "Ey"},
	Cylindrical2D: {"Ez", "Er"},
	ThetaMode:     {"Ez", "Er", "Et"},
}

func sumSquares(arrays []*Array) *Array {
	ret := NewArray(arrays[0].Shape...)
	for _, a := range arrays {
		for i, v := range a.Data {
			ret.Data[i] += v * v
		}
	}
	return ret
}

//Intensity is I = epsilon_0*c/2 * |E|^2, in W/m^2.
var Intensity = DerivedFieldDefinition{
	Name:         "I",
	Units:        units.Intensity,
	Requirements: eRequirements,
	Recipe: func(arrays []*Array, _ Geometry, _ Params) (*Array, error) {
		ret := sumSquares(arrays)
		for i := range ret.Data {
			ret.Data[i] *= units.Epsilon0 * units.C / 2
		}
		return ret, nil
	},
}

//VectorPotential is the normalized vector potential a = e*|E|/(m_e*c*omega_0), with
//omega_0 = 2*pi*c/lambda_0. It needs the lambda_0 parameter, in metres.
var VectorPotential = DerivedFieldDefinition{
	Name:         "a",
	Units:        units.VectorPotential,
	Requirements: eRequirements,
	Recipe: func(arrays []*Array, _ Geometry, params Params) (*Array, error) {
		l0, err := params.Get("lambda_0")
		if err != nil {
			return nil, err
		}
		w0 := 2 * math.Pi * units.C / l0
		k := units.ElementaryCharge / (units.ElectronMass * units.C * w0)
		ret := sumSquares(arrays)
		for i, v := range ret.Data {
			ret.Data[i] = k * math.Sqrt(v)
		}
		return ret, nil
	},
}

//DerivedFields lists the built-in derived field definitions.
var DerivedFields = []DerivedFieldDefinition{Intensity, VectorPotential}
