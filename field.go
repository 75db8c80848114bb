/*
 * field.go, part of gopic.
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
	"sort"

	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

//Hyperslab is a contiguous selection of an on-disk array.
type Hyperslab = h5.Selection

//Grid describes, in native units, the grid of one iteration of a field.
//For thetaMode fields Axes are (r, z) and Modes is the number of stored mode
//components, 2*Nm-1. The array on disk is then (Modes, Nr, Nz).
type Grid struct {
	Axes      []Axis
	Time      float64
	TimeUnits string
	Units     string
	Modes     int
}

//FieldReader is implemented by each format to give access to the arrays of one field.
type FieldReader interface {
	Iterations() []int
	Geometry() Geometry
	//Units returns the SI unit the field is reported in.
	Units() string
	Grid(iteration int) (*Grid, error)
	//ReadArray reads the hyperslab sel (or everything, if sel is nil) of the
	//array of the given iteration, in native units.
	ReadArray(iteration int, sel *Hyperslab) (*Array, error)
}

//FieldRequest tells Field.Data what to return. The zero value (and nil) reads the
//whole field. In thetaMode the zero value sums all modes at theta=0.
type FieldRequest struct {
	//Axes, by label, to slice across. Each removes one dimension.
	SliceAcross []string
	//Relative position of each slice, in [-1, 1]. Missing positions are 0.
	SliceRelativePosition []float64
	//thetaMode: the azimuthal mode to use, nil for all of them.
	Mode *int
	//thetaMode: the angle of the reconstructed plane.
	Theta float64
	//thetaMode: reconstruct a 3D cartesian array instead of a plane.
	Full3D bool
	//Full3D: maximum transverse and longitudinal resolution, 0 keeps the native one.
	MaxResolution3D [2]int
	//Return only the metadata, without reading any array.
	OnlyMetadata bool
}

//Mode returns a pointer to m, for FieldRequest.Mode.
func Mode(m int) *int { return &m }

func (r *FieldRequest) position(i int) float64 {
	if i < len(r.SliceRelativePosition) {
		return r.SliceRelativePosition[i]
	}
	return 0
}

func (r *FieldRequest) validate() error {
	if len(r.SliceRelativePosition) > len(r.SliceAcross) {
		return unsupported("%d slice positions given for %d slice axes", len(r.SliceRelativePosition), len(r.SliceAcross))
	}
	seen := make(map[string]bool, len(r.SliceAcross))
	for i, v := range r.SliceAcross {
		if seen[v] {
			return unsupported("axis '%s' sliced twice", v)
		}
		seen[v] = true
		if p := r.position(i); p < -1 || p > 1 || math.IsNaN(p) {
			return unsupported("slice position %g for axis '%s' outside [-1, 1]", p, v)
		}
	}
	return nil
}

//Field is a grid quantity with one array per iteration.
type Field interface {
	Name() string
	//Component is empty for scalar fields.
	Component() string
	//FullName is the name and the component together, "Ez", "rho".
	FullName() string
	//Units is the SI unit of the data returned.
	Units() string
	Geometry() Geometry
	Iterations() []int
	//Data reads one iteration. The array and axes are in SI units, the time in seconds.
	Data(iteration int, req *FieldRequest) (*FieldData, error)
}

//GridField is the Field over a FieldReader.
type GridField struct {
	name       string
	component  string
	reader     FieldReader
	conv       units.Converter
	iterations []int
}

//NewField returns the field (name, component) read through r. Data read is taken
//to SI with conv.
func NewField(name, component string, r FieldReader, conv units.Converter) *GridField {
	its := append([]int(nil), r.Iterations()...)
	sort.Ints(its)
	return &GridField{name: name, component: component, reader: r, conv: conv, iterations: its}
}

func (F *GridField) Name() string       { return F.name }
func (F *GridField) Component() string  { return F.component }
func (F *GridField) FullName() string   { return F.name + F.component }
func (F *GridField) Units() string      { return F.reader.Units() }
func (F *GridField) Geometry() Geometry { return F.reader.Geometry() }
func (F *GridField) Iterations() []int  { return append([]int(nil), F.iterations...) }

func hasIteration(its []int, it int) bool {
	i := sort.SearchInts(its, it)
	return i < len(its) && its[i] == it
}

func axisLabels(axes []Axis) []string {
	ret := make([]string, len(axes))
	for i, v := range axes {
		ret[i] = v.Label
	}
	return ret
}

//siAxes returns the axes of g in metres.
func (F *GridField) siAxes(g *Grid) ([]Axis, error) {
	ret := make([]Axis, len(g.Axes))
	for i, a := range g.Axes {
		v := []float64{a.Min, a.Spacing}
		if _, _, err := F.conv.ToSI(v, a.Units, units.Length); err != nil {
			return nil, errDecorate(err, "siAxes")
		}
		ret[i] = Axis{Label: a.Label, Units: units.Length, Min: v[0], Spacing: v[1], N: a.N}
	}
	return ret, nil
}

func (F *GridField) Data(it int, req *FieldRequest) (*FieldData, error) {
	if req == nil {
		req = &FieldRequest{}
	}
	if !hasIteration(F.iterations, it) {
		return nil, iterNotFound(it, F.iterations)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	grid, err := F.reader.Grid(it)
	if err != nil {
		return nil, readError(err, "reading the grid of %s at iteration %d", F.FullName(), it)
	}
	axes, err := F.siAxes(grid)
	if err != nil {
		return nil, err
	}
	t := []float64{grid.Time}
	if _, _, err := F.conv.ToSI(t, grid.TimeUnits, units.Time); err != nil {
		return nil, err
	}
	ret := &FieldData{
		Name:      F.name,
		Component: F.component,
		Metadata: Metadata{
			Iteration: it,
			Time:      t[0],
			TimeUnits: units.Time,
			Units:     F.Units(),
			Geometry:  F.Geometry(),
		},
	}
	if F.Geometry() == ThetaMode {
		return F.thetaData(ret, req, grid, axes)
	}
	sel := &Hyperslab{Start: make([]int, len(axes)), Count: make([]int, len(axes))}
	sliced := make([]bool, len(axes))
	for i, a := range axes {
		sel.Count[i] = a.N
	}
	for i, label := range req.SliceAcross {
		dim := (&Metadata{Axes: axes}).Axis(label)
		if dim < 0 {
			return nil, unsupported("can't slice %s across '%s'. Axes: %s", F.FullName(), label, listing(axisLabels(axes)))
		}
		idx, err := SliceIndex(axes[dim].N, req.position(i))
		if err != nil {
			return nil, err
		}
		sel.Start[dim] = idx
		sel.Count[dim] = 1
		sliced[dim] = true
	}
	var shape []int
	for i, a := range axes {
		if !sliced[i] {
			ret.Metadata.Axes = append(ret.Metadata.Axes, a)
			shape = append(shape, a.N)
		}
	}
	if req.OnlyMetadata {
		return ret, nil
	}
	arr, err := F.reader.ReadArray(it, sel)
	if err != nil {
		return nil, readError(err, "reading %s at iteration %d", F.FullName(), it)
	}
	if arr.Len() != sel.Size() {
		return nil, fmt.Errorf("pic: reader returned %d elements for %s, %d expected", arr.Len(), F.FullName(), sel.Size())
	}
	if _, _, err := F.conv.ToSI(arr.Data, grid.Units, F.Units()); err != nil {
		return nil, errDecorate(err, "GridField.Data")
	}
	ret.Array = &Array{Shape: shape, Data: arr.Data}
	return ret, nil
}

type modeWeights func(phi float64) []float64

//thetaWeights returns the rows of the mode array to read and the function giving,
//for an angle, the weight of each row read.
func thetaWeights(mode *int, modes int) (start, count int, w modeWeights) {
	if mode == nil {
		return 0, modes, func(phi float64) []float64 {
			ret := make([]float64, modes)
			ret[0] = 1
			for k := 1; k < modes; k++ {
				m := float64((k + 1) / 2)
				if k%2 == 1 {
					ret[k] = math.Cos(m * phi)
				} else {
					ret[k] = math.Sin(m * phi)
				}
			}
			return ret
		}
	}
	m := *mode
	if m == 0 {
		return 0, 1, func(float64) []float64 { return []float64{1} }
	}
	count = 2
	if 2*m >= modes {
		count = 1
	}
	return 2*m - 1, count, func(phi float64) []float64 {
		if count == 1 {
			return []float64{math.Cos(float64(m) * phi)}
		}
		return []float64{math.Cos(float64(m) * phi), math.Sin(float64(m) * phi)}
	}
}

//thetaData reconstructs a plane at req.Theta, or a 3D cartesian box, out of the
//azimuthal modes of a thetaMode field.
func (F *GridField) thetaData(ret *FieldData, req *FieldRequest, grid *Grid, axes []Axis) (*FieldData, error) {
	if len(axes) != 2 || grid.Modes < 1 {
		return nil, fmt.Errorf("pic: thetaMode field %s needs (r, z) axes and at least one mode", F.FullName())
	}
	nm := (grid.Modes + 1) / 2
	if req.Mode != nil && (*req.Mode < 0 || *req.Mode >= nm) {
		return nil, unsupported("mode %d requested, %s has modes 0 to %d", *req.Mode, F.FullName(), nm-1)
	}
	rax, zax := axes[0], axes[1]
	nr, nz := rax.N, zax.N
	rmax := rax.Max()
	stride := 1
	var out []Axis
	if req.Full3D {
		n := 2 * nr
		if req.MaxResolution3D[0] > 0 && req.MaxResolution3D[0] < n {
			n = req.MaxResolution3D[0]
		}
		if req.MaxResolution3D[1] > 0 && nz > req.MaxResolution3D[1] {
			stride = (nz + req.MaxResolution3D[1] - 1) / req.MaxResolution3D[1]
		}
		sp := 2 * rmax
		if n > 1 {
			sp /= float64(n - 1)
		}
		out = []Axis{
			{Label: "x", Units: units.Length, Min: -rmax, Spacing: sp, N: n},
			{Label: "y", Units: units.Length, Min: -rmax, Spacing: sp, N: n},
			{Label: "z", Units: units.Length, Min: zax.Min, Spacing: zax.Spacing * float64(stride), N: (nz + stride - 1) / stride},
		}
	} else {
		sp := 2 * rmax / float64(2*nr-1)
		out = []Axis{
			{Label: "r", Units: units.Length, Min: -rmax, Spacing: sp, N: 2 * nr},
			{Label: "z", Units: units.Length, Min: zax.Min, Spacing: zax.Spacing, N: nz},
		}
	}
	zdim := len(out) - 1
	mstart, mcount, weights := thetaWeights(req.Mode, grid.Modes)
	sel := &Hyperslab{Start: []int{mstart, 0, 0}, Count: []int{mcount, nr, nz}}
	slices := map[int]int{}
	for i, label := range req.SliceAcross {
		dim := (&Metadata{Axes: out}).Axis(label)
		if dim < 0 {
			return nil, unsupported("can't slice %s across '%s'. Axes: %s", F.FullName(), label, listing(axisLabels(out)))
		}
		idx, err := SliceIndex(out[dim].N, req.position(i))
		if err != nil {
			return nil, err
		}
		if dim == zdim {
			sel.Start[2] = idx * stride
			sel.Count[2] = 1
			idx = 0
		}
		slices[dim] = idx
	}
	for i, a := range out {
		if _, ok := slices[i]; !ok {
			ret.Metadata.Axes = append(ret.Metadata.Axes, a)
		}
	}
	if req.OnlyMetadata {
		return ret, nil
	}
	arr, err := F.reader.ReadArray(ret.Metadata.Iteration, sel)
	if err != nil {
		return nil, readError(err, "reading %s at iteration %d", F.FullName(), ret.Metadata.Iteration)
	}
	if arr.Len() != sel.Size() {
		return nil, fmt.Errorf("pic: reader returned %d elements for %s, %d expected", arr.Len(), F.FullName(), sel.Size())
	}
	if _, _, err := F.conv.ToSI(arr.Data, grid.Units, F.Units()); err != nil {
		return nil, errDecorate(err, "GridField.thetaData")
	}
	modes := &Array{Shape: sel.Count, Data: arr.Data}
	zread := sel.Count[2]
	//the field at radial index ir and z index iz, for the mode weights w of one angle
	value := func(w []float64, ir, iz int) float64 {
		v := 0.0
		for k, wk := range w {
			v += wk * modes.Data[(k*nr+ir)*zread+iz]
		}
		return v
	}
	var rec *Array
	if req.Full3D {
		zs := make([]int, 0, out[2].N)
		if zread == 1 {
			zs = append(zs, 0)
		} else {
			for iz := 0; iz < nz; iz += stride {
				zs = append(zs, iz)
			}
		}
		n := out[0].N
		rec = NewArray(n, n, len(zs))
		for ix := 0; ix < n; ix++ {
			x := out[0].Min + float64(ix)*out[0].Spacing
			for iy := 0; iy < n; iy++ {
				y := out[1].Min + float64(iy)*out[1].Spacing
				r := math.Hypot(x, y)
				if r > rmax*(1+1e-12) {
					continue
				}
				w := weights(math.Atan2(y, x))
				f := 0.0
				if rax.Spacing > 0 {
					f = clamp((r-rax.Min)/rax.Spacing, 0, float64(nr-1))
				}
				i0 := int(f)
				t := f - float64(i0)
				i1 := i0
				if i0 < nr-1 {
					i1 = i0 + 1
				}
				for j, iz := range zs {
					rec.Data[(ix*n+iy)*len(zs)+j] = (1-t)*value(w, i0, iz) + t*value(w, i1, iz)
				}
			}
		}
	} else {
		rec = NewArray(2*nr, zread)
		up := weights(req.Theta)
		down := weights(req.Theta + math.Pi)
		for ir := 0; ir < nr; ir++ {
			for iz := 0; iz < zread; iz++ {
				rec.Data[(nr+ir)*zread+iz] = value(up, ir, iz)
				rec.Data[(nr-1-ir)*zread+iz] = value(down, ir, iz)
			}
		}
	}
	dims := make([]int, 0, len(slices))
	for d := range slices {
		dims = append(dims, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(dims)))
	for _, d := range dims {
		rec = rec.Slice(d, slices[d])
	}
	ret.Array = rec
	return ret, nil
}
