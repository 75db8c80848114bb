/*
 * array.go, part of gopic.
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
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
)

//Array is a row-major n-dimensional array of float64.
type Array struct {
	Shape []int
	Data  []float64
}

//NewArray returns a zeroed array of the given shape.
func NewArray(shape ...int) *Array {
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, prod(shape))}
}

//Dims returns the number of dimensions of the array.
func (A *Array) Dims() int { return len(A.Shape) }

//Len returns the number of elements.
func (A *Array) Len() int { return len(A.Data) }

//Index returns the position in Data of the element at idx. It panics if idx
//does not fit the shape.
func (A *Array) Index(idx ...int) int {
	if len(idx) != len(A.Shape) {
		panic(fmt.Sprintf("pic: %d indexes for a %d-dimensional array", len(idx), len(A.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= A.Shape[i] {
			panic(fmt.Sprintf("pic: index %d out of range [0,%d) in dimension %d", v, A.Shape[i], i))
		}
		off = off*A.Shape[i] + v
	}
	return off
}

//At returns the element at idx.
func (A *Array) At(idx ...int) float64 { return A.Data[A.Index(idx...)] }

//Set sets the element at idx to v.
func (A *Array) Set(v float64, idx ...int) { A.Data[A.Index(idx...)] = v }

//Copy returns a deep copy of the array.
func (A *Array) Copy() *Array {
	return &Array{Shape: append([]int(nil), A.Shape...), Data: append([]float64(nil), A.Data...)}
}

//SameShape reports whether A and B have the same dimensions.
func (A *Array) SameShape(B *Array) bool {
	if len(A.Shape) != len(B.Shape) {
		return false
	}
	for i := range A.Shape {
		if A.Shape[i] != B.Shape[i] {
			return false
		}
	}
	return true
}

//Max returns the largest element, or NaN for an empty array.
func (A *Array) Max() float64 {
	if len(A.Data) == 0 {
		return math.NaN()
	}
	return floats.Max(A.Data)
}

//Slice returns a new array with dimension dim removed, keeping only the
//elements at index idx along it.
func (A *Array) Slice(dim, idx int) *Array {
	outer := prod(A.Shape[:dim])
	n := A.Shape[dim]
	inner := prod(A.Shape[dim+1:])
	shape := make([]int, 0, len(A.Shape)-1)
	shape = append(shape, A.Shape[:dim]...)
	shape = append(shape, A.Shape[dim+1:]...)
	ret := &Array{Shape: shape, Data: make([]float64, 0, outer*inner)}
	for o := 0; o < outer; o++ {
		start := (o*n + idx) * inner
		ret.Data = append(ret.Data, A.Data[start:start+inner]...)
	}
	return ret
}

//Lines calls f for every 1D line of the array along dimension dim. The line
//is a copy, and whatever f leaves in it is written back.
func (A *Array) Lines(dim int, f func(line []float64)) {
	outer := prod(A.Shape[:dim])
	n := A.Shape[dim]
	inner := prod(A.Shape[dim+1:])
	line := make([]float64, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			for k := 0; k < n; k++ {
				line[k] = A.Data[base+k*inner]
			}
			f(line)
			for k := 0; k < n; k++ {
				A.Data[base+k*inner] = line[k]
			}
		}
	}
}

func prod(s []int) int {
	n := 1
	for _, v := range s {
		n *= v
	}
	return n
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//Axis is a regular grid axis.
type Axis struct {
	Label   string
	Units   string
	Min     float64
	Spacing float64
	N       int
}

//Values returns the N grid points of the axis.
func (a Axis) Values() []float64 {
	ret := make([]float64, a.N)
	for i := range ret {
		ret[i] = a.Min + float64(i)*a.Spacing
	}
	return ret
}

//Max returns the last grid point.
func (a Axis) Max() float64 {
	if a.N == 0 {
		return a.Min
	}
	return a.Min + float64(a.N-1)*a.Spacing
}

//Extent returns the first and last grid points.
func (a Axis) Extent() [2]float64 {
	return [2]float64{a.Min, a.Max()}
}

//Metadata describes the array returned for one iteration of a field.
//Axes[i] corresponds to dimension i of the array.
type Metadata struct {
	Iteration int
	Time      float64
	TimeUnits string
	Units     string
	Geometry  Geometry
	Axes      []Axis
}

//Axis returns the position in Axes of the axis with the given label, or -1.
func (m *Metadata) Axis(label string) int {
	for i, v := range m.Axes {
		if v.Label == label {
			return i
		}
	}
	return -1
}

func (m Metadata) copy() Metadata {
	m.Axes = append([]Axis(nil), m.Axes...)
	return m
}

//Params holds the physical parameters recipes can need, such as lambda_0.
type Params map[string]float64

//Get returns the parameter name, or an error naming it if it is not set.
func (p Params) Get(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, configError(nil, "parameter '%s' required but not given", name)
	}
	return v, nil
}

//SliceIndex returns the index of the slice at relative position pos, in [-1, 1],
//of an axis with n points: round(n/2*(pos+1)), with halves rounded to even,
//clamped to the axis.
func SliceIndex(n int, pos float64) (int, error) {
	if pos < -1 || pos > 1 || math.IsNaN(pos) {
		return 0, unsupported("slice position %g outside [-1, 1]", pos)
	}
	if n <= 0 {
		return 0, unsupported("can't slice an empty axis")
	}
	i := int(math.RoundToEven(float64(n) / 2 * (pos + 1)))
	return clamp(i, 0, n-1), nil
}
