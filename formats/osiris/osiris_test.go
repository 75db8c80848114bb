/*
 * osiris_test.go, part of gopic.
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

package osiris

import (
	"errors"
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

const density = 1e24

//fieldFile is a 2D OSIRIS field file: x1 (z) in [0, 8] with 4 cells and
//x2 (x) in [-1, 1] with 2 cells. Values are 10*ix+iz.
func fieldFile(q, u string, t float64) *h5.MemStore {
	data := make([]float64, 8)
	for ix := 0; ix < 2; ix++ {
		for iz := 0; iz < 4; iz++ {
			data[ix*4+iz] = float64(10*ix + iz)
		}
	}
	return h5.NewMemStore().
		SetFloat("/", "TIME", t).
		SetString("/", "TIME UNITS", "1 / \\omega_p").
		AddDataset("/"+q, []int{2, 4}, data).
		SetString("/"+q, "UNITS", u).
		AddDataset("/AXIS/AXIS1", []int{2}, []float64{0, 8}).
		SetString("/AXIS/AXIS1", "UNITS", "c / \\omega_p").
		AddDataset("/AXIS/AXIS2", []int{2}, []float64{-1, 1}).
		SetString("/AXIS/AXIS2", "UNITS", "c / \\omega_p")
}

func rawFile(t float64) *h5.MemStore {
	s := h5.NewMemStore().SetFloat("/", "TIME", t).SetString("/", "TIME UNITS", "1 / \\omega_p")
	add := func(name, u string, v ...float64) {
		s.AddDataset("/"+name, []int{len(v)}, v).SetString("/"+name, "UNITS", u)
	}
	add("x1", "c / \\omega_p", 1, 2, 3)
	add("x2", "c / \\omega_p", 0, 0.5, -0.5)
	add("p1", "m_e c", 100, 200, 300)
	add("p2", "m_e c", 0, 1, -1)
	add("p3", "m_e c", 0, 0, 0)
	add("q", "e", -1, -1, -2)
	add("ene", "m_e c^2", 99, 199, 299)
	s.AddDataset("/tag", []int{3, 2}, []float64{1, 10, 1, 11, 2, 12})
	s.AddDataset("/SIMULATION", []int{1}, []float64{0})
	s.AddGroup("/ATTRS")
	return s
}

func simulation() (fstest.MapFS, map[string]*h5.MemStore) {
	fsys := fstest.MapFS{}
	files := map[string]*h5.MemStore{}
	add := func(name string, s *h5.MemStore) {
		fsys[name] = &fstest.MapFile{}
		files[name] = s
	}
	for _, it := range []int{0, 100, 200} {
		t := float64(it) / 10
		add(fmt.Sprintf("MS/FLD/e1/e1-%06d.h5", it), fieldFile("e1", "m_e c \\omega_p / e", t))
		add(fmt.Sprintf("MS/FLD/b3/b3-%06d.h5", it), fieldFile("b3", "m_e c \\omega_p / e", t))
		add(fmt.Sprintf("MS/FLD/psi/psi-%06d.h5", it), fieldFile("psi", "m_e c^2 / e", t))
		add(fmt.Sprintf("MS/DENSITY/electrons/charge/charge-electrons-%06d.h5", it), fieldFile("charge", "e \\omega_p^2 / c^2", t))
		add(fmt.Sprintf("MS/RAW/electrons/RAW-electrons-%06d.h5", it), rawFile(t))
	}
	return fsys, files
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

func load(Te *testing.T, opts ...pic.Option) *pic.DataContainer {
	fsys, files := simulation()
	opts = append([]pic.Option{pic.WithFS(fsys), pic.WithOpener(h5.MemOpener(files))}, opts...)
	dc, err := pic.NewDataContainer(Tag, "sim", opts...)
	if err != nil {
		Te.Fatal(err)
	}
	if err := dc.LoadData(false); err != nil {
		Te.Fatal(err)
	}
	return dc
}

func TestOsirisFields(Te *testing.T) {
	dc := load(Te, pic.WithPlasmaDensity(density))
	names := dc.FieldNames()
	if len(names) != 3 {
		Te.Fatalf("Ez, By and rho_electrons expected, psi skipped. Got %v", names)
	}
	p := units.Plasma{Density: density}
	ez, err := dc.Field("Ez")
	if err != nil {
		Te.Fatal(err)
	}
	fd, err := ez.Data(100, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if fd.Axes[0].Label != "x" || fd.Axes[1].Label != "z" {
		Te.Fatalf("axes should be (x, z), got %+v", fd.Axes)
	}
	z := fd.Axes[1]
	if !near(z.Min, 1/p.Wavenumber(), 1e-12) || !near(z.Spacing, 2/p.Wavenumber(), 1e-12) || z.N != 4 {
		Te.Errorf("wrong z axis %+v", z)
	}
	if !near(fd.Array.At(1, 2), 12*p.E0(), 1e-12) {
		Te.Errorf("E should be in V/m: %g, want %g", fd.Array.At(1, 2), 12*p.E0())
	}
	if !near(fd.Time, 10/p.Frequency(), 1e-12) {
		Te.Errorf("wrong time %g", fd.Time)
	}
	by, _ := dc.Field("B", "y")
	fd, err = by.Data(0, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if fd.Units != units.BField || !near(fd.Array.At(1, 1), 11*p.B0(), 1e-12) {
		Te.Errorf("B should be in T: %g %s", fd.Array.At(1, 1), fd.Units)
	}
	rho, err := dc.Field("rho_electrons")
	if err != nil {
		Te.Fatal(err)
	}
	fd, err = rho.Data(200, &pic.FieldRequest{SliceAcross: []string{"z"}})
	if err != nil {
		Te.Fatal(err)
	}
	if fd.Array.Dims() != 1 || !near(fd.Array.Data[1], 12*units.ElementaryCharge*density, 1e-12) {
		Te.Errorf("wrong rho slice %v", fd.Array.Data)
	}
}

func TestOsirisNeedsDensity(Te *testing.T) {
	dc := load(Te)
	ez, _ := dc.Field("Ez")
	if _, err := ez.Data(0, nil); !errors.Is(err, pic.ErrUnitConversion) {
		Te.Errorf("without a plasma density normalized units can't be converted, got %v", err)
	}
}

func TestOsirisSpecies(Te *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dc := load(Te, pic.WithPlasmaDensity(density), pic.WithLogger(zap.New(core)))
	skipped := logs.FilterMessage("dataset skipped").FilterField(zap.String("species", "electrons"))
	if skipped.Len() != 1 {
		Te.Errorf("only the unknown SIMULATION dataset should be logged, got %d entries", skipped.Len())
	}
	sp, err := dc.Species("electrons")
	if err != nil {
		Te.Fatal(err)
	}
	if !sp.HasComponents("x", "z", "px", "py", "pz", "q", "ekin", "tag", "gamma") {
		Te.Errorf("missing components: %v", sp.Components())
	}
	pd, err := sp.Data(100, []string{"z", "pz", "q", "tag", "ekin"}, pic.Selection{"px": pic.AtLeast(0)})
	if err != nil {
		Te.Fatal(err)
	}
	if pd.Len() != 2 {
		Te.Fatalf("2 particles with px>=0 expected, got %d", pd.Len())
	}
	p := units.Plasma{Density: density}
	if z := pd.Data("z"); !near(z[1], 2/p.Wavenumber(), 1e-12) {
		Te.Errorf("wrong z %v", z)
	}
	if pz := pd.Data("pz"); !near(pz[0], 100, 1e-12) || !near(pz[1], 200, 1e-12) {
		Te.Errorf("p should stay in m_e*c, got %v", pz)
	}
	if q := pd.Data("q"); !near(q[0], -units.ElementaryCharge, 1e-12) {
		Te.Errorf("q should be in C, got %v", q)
	}
	if tag := pd.Data("tag"); tag[0] != 10 || tag[1] != 11 {
		Te.Errorf("tag should be the particle id, got %v", tag)
	}
	if e := pd.Data("ekin"); !near(e[1], 199, 1e-12) {
		Te.Errorf("ekin should be read from ene, got %v", e)
	}
}
