/*
 * hipace_test.go, part of gopic.
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

package hipace

import (
	"fmt"
	"math"
	"testing"
	"testing/fstest"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const density = 1e23

//field is a 3D field file with 2x3x4 (x3, x2, x1) cells. Values are the
//flat index.
func field(name string, t float64) *h5.MemStore {
	data := make([]float64, 24)
	for i := range data {
		data[i] = float64(i)
	}
	return h5.NewMemStore().
		SetFloat("/", "TIME", t).
		SetFloat("/", "XMIN", -4, -3, -2).
		SetFloat("/", "XMAX", 4, 3, 2).
		SetFloat("/", "NX", 4, 3, 2).
		AddDataset("/"+name, []int{2, 3, 4}, data)
}

func raw(t float64) *h5.MemStore {
	s := h5.NewMemStore().SetFloat("/", "TIME", t)
	for name, v := range map[string][]float64{
		"x1": {-1, 0, 1},
		"x2": {0, 0, 0},
		"x3": {0, 0, 0},
		"p1": {1000, 1100, 1200},
		"p2": {0, 0, 0},
		"p3": {0, 0, 0},
		"q":  {1, 1, 1},
	} {
		s.AddDataset("/"+name, []int{3}, v)
	}
	s.AddDataset("/spin", []int{3}, []float64{1, -1, 1})
	return s
}

func load(Te *testing.T, opts ...pic.Option) *pic.DataContainer {
	fsys := fstest.MapFS{}
	files := map[string]*h5.MemStore{}
	for _, it := range []int{5, 10} {
		t := float64(it)
		for _, name := range []string{"Ez", "ExmBy", "rho_beam", "psi"} {
			n := fmt.Sprintf("DATA/field_%s_%06d.h5", name, it)
			fsys[n] = &fstest.MapFile{}
			files[n] = field(name, t)
		}
		n := fmt.Sprintf("DATA/raw_beam_%06d.h5", it)
		fsys[n] = &fstest.MapFile{}
		files[n] = raw(t)
	}
	opts = append([]pic.Option{pic.WithFS(fsys), pic.WithOpener(h5.MemOpener(files)), pic.WithPlasmaDensity(density)}, opts...)
	dc, err := pic.NewDataContainer(Tag, "run", opts...)
	if err != nil {
		Te.Fatal(err)
	}
	if err := dc.LoadData(false); err != nil {
		Te.Fatal(err)
	}
	return dc
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

func TestHipaceFields(Te *testing.T) {
	dc := load(Te)
	if names := dc.FieldNames(); len(names) != 3 {
		Te.Fatalf("Ex, Ez and rho_beam expected, got %v", names)
	}
	if dc.Geometry() != pic.Cartesian3D {
		Te.Errorf("wrong geometry %s", dc.Geometry())
	}
	p := units.Plasma{Density: density}
	ex, err := dc.Field("Ex")
	if err != nil {
		Te.Fatal(err)
	}
	fd, err := ex.Data(10, nil)
	if err != nil {
		Te.Fatal(err)
	}
	labels := []string{fd.Axes[0].Label, fd.Axes[1].Label, fd.Axes[2].Label}
	if labels[0] != "y" || labels[1] != "x" || labels[2] != "z" {
		Te.Errorf("axes should be (y, x, z), got %v", labels)
	}
	z := fd.Axes[2]
	if !near(z.Min, -3/p.Wavenumber(), 1e-12) || !near(z.Spacing, 2/p.Wavenumber(), 1e-12) {
		Te.Errorf("wrong z axis %+v", z)
	}
	if !near(fd.Array.At(1, 2, 3), 23*p.E0(), 1e-12) {
		Te.Errorf("wrong value %g", fd.Array.At(1, 2, 3))
	}
	rho, _ := dc.Field("rho_beam")
	fd, err = rho.Data(5, &pic.FieldRequest{SliceAcross: []string{"y", "x"}, SliceRelativePosition: []float64{-1, -1}})
	if err != nil {
		Te.Fatal(err)
	}
	if fd.Array.Dims() != 1 || fd.Array.Len() != 4 || !near(fd.Array.Data[3], 3*units.ElementaryCharge*density, 1e-12) {
		Te.Errorf("wrong lineout %v", fd.Array.Data)
	}
}

func TestHipaceSpecies(Te *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dc := load(Te, pic.WithLogger(zap.New(core)))
	if n := logs.FilterMessage("dataset skipped").FilterField(zap.String("species", "beam")).Len(); n != 1 {
		Te.Errorf("the unknown dataset spin should be logged once, got %d", n)
	}
	sp, err := dc.Species("beam")
	if err != nil {
		Te.Fatal(err)
	}
	if sp.HasComponents("spin") {
		Te.Error("spin is not a known component")
	}
	pd, err := sp.Data(5, []string{"z", "gamma", "q"}, pic.Selection{"z": pic.AtLeast(0)})
	if err != nil {
		Te.Fatal(err)
	}
	if pd.Len() != 2 {
		Te.Fatalf("2 particles with z>=0 expected, got %d", pd.Len())
	}
	if g := pd.Data("gamma"); !near(g[1], math.Sqrt(1+1200*1200), 1e-9) {
		Te.Errorf("wrong gamma %v", g)
	}
	if q := pd.Data("q"); !near(q[0], units.ElementaryCharge, 1e-12) {
		Te.Errorf("q should be in C, got %v", q)
	}
	p := units.Plasma{Density: density}
	if !near(pd.Time, 5/p.Frequency(), 1e-12) {
		Te.Errorf("wrong time %g", pd.Time)
	}
}
