/*
 * fielddata.go, part of gopic.
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

	"gonum.org/v1/gonum/floats"
)

//FieldData is the result of reading one iteration of a field. Array is nil
//when only the metadata was requested.
type FieldData struct {
	Metadata
	Array     *Array
	Name      string
	Component string
}

func (F *FieldData) derive(data []float64) *FieldData {
	return &FieldData{
		Array:    &Array{Shape: append([]int(nil), F.Array.Shape...), Data: data},
		Metadata: F.Metadata.copy(),
	}
}

func (F *FieldData) check(o *FieldData) error {
	if F.Array == nil || o.Array == nil {
		return unsupported("arithmetic on metadata-only field data")
	}
	if !F.Array.SameShape(o.Array) {
		return unsupported("shape mismatch: %v and %v", F.Array.Shape, o.Array.Shape)
	}
	return nil
}

//Add returns F+o, elementwise. The result has the metadata of F and no name.
func (F *FieldData) Add(o *FieldData) (*FieldData, error) {
	if err := F.check(o); err != nil {
		return nil, err
	}
	d := make([]float64, F.Array.Len())
	floats.AddTo(d, F.Array.Data, o.Array.Data)
	return F.derive(d), nil
}

//Sub returns F-o, elementwise.
func (F *FieldData) Sub(o *FieldData) (*FieldData, error) {
	if err := F.check(o); err != nil {
		return nil, err
	}
	d := make([]float64, F.Array.Len())
	floats.SubTo(d, F.Array.Data, o.Array.Data)
	return F.derive(d), nil
}

//Mul returns F*o, elementwise.
func (F *FieldData) Mul(o *FieldData) (*FieldData, error) {
	if err := F.check(o); err != nil {
		return nil, err
	}
	d := make([]float64, F.Array.Len())
	floats.MulTo(d, F.Array.Data, o.Array.Data)
	return F.derive(d), nil
}

//AddScalar returns F+c.
func (F *FieldData) AddScalar(c float64) (*FieldData, error) {
	if err := F.check(F); err != nil {
		return nil, err
	}
	d := append([]float64(nil), F.Array.Data...)
	floats.AddConst(c, d)
	return F.derive(d), nil
}

//Scale returns c*F.
func (F *FieldData) Scale(c float64) (*FieldData, error) {
	if err := F.check(F); err != nil {
		return nil, err
	}
	d := make([]float64, F.Array.Len())
	floats.ScaleTo(d, c, F.Array.Data)
	return F.derive(d), nil
}

//Pow returns F^p, elementwise.
func (F *FieldData) Pow(p float64) (*FieldData, error) {
	if err := F.check(F); err != nil {
		return nil, err
	}
	d := make([]float64, F.Array.Len())
	for i, v := range F.Array.Data {
		d[i] = math.Pow(v, p)
	}
	return F.derive(d), nil
}
