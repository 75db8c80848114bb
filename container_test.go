/*
 * container_test.go, part of gopic.
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
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

type fakeScanner func() ([]Field, []ParticleSpecies, error)

func (f fakeScanner) Scan() ([]Field, []ParticleSpecies, error) { return f() }

//scan is what the "fake" format finds.
var scan fakeScanner

func init() {
	RegisterFormat("fake", func(path string, cfg FormatConfig) (Scanner, error) {
		return scan, nil
	})
}

func catalogue() fakeScanner {
	conv := units.NewTable()
	proto := cartesian2D(4, 3, 0, 10)
	return func() ([]Field, []ParticleSpecies, error) {
		return []Field{
				NewField("E", "z", constant(proto, units.EField, 1), conv),
				NewField("E", "x", constant(proto, units.EField, 2), conv),
				NewField("rho", "", constant(proto, units.ChargeDensity, -1), conv),
			}, []ParticleSpecies{
				NewSpecies("beam", beam(), conv),
				NewSpecies("ions", newFakeSpecies(0).add("x", "m", 1).add("w", "", 1), conv),
			}, nil
	}
}

func newContainer(Te *testing.T) *DataContainer {
	scan = catalogue()
	dc, err := NewDataContainer("fake", "sim", WithOpener(h5.MemOpener(nil)), WithFS(fstest.MapFS{}), WithParams(Params{"lambda_0": 0.8e-6}))
	if err != nil {
		Te.Fatal(err)
	}
	return dc
}

func TestContainer(Te *testing.T) {
	dc := newContainer(Te)
	if _, err := dc.Field("Ez"); !errors.Is(err, ErrConfig) {
		Te.Errorf("lookups before LoadData should fail, got %v", err)
	}
	if err := dc.LoadData(false); err != nil {
		Te.Fatal(err)
	}
	if dc.Geometry() != Cartesian2D {
		Te.Errorf("wrong geometry %s", dc.Geometry())
	}
	if names := dc.FieldNames(); len(names) != 3 {
		Te.Errorf("3 fields expected, got %v", names)
	}
	f, err := dc.Field("E", "x")
	if err != nil || f.FullName() != "Ex" {
		Te.Errorf("Field(E, x): %v %v", f, err)
	}
	if f, err := dc.Field("Ex"); err != nil || f.Component() != "x" {
		Te.Errorf("Field(Ex): %v %v", f, err)
	}
	if f, err := dc.Field("rho"); err != nil || f.Component() != "" {
		Te.Errorf("Field(rho): %v %v", f, err)
	}
	if _, err := dc.Field("E"); !errors.Is(err, ErrUnsupported) {
		Te.Errorf("a vector field without component is ambiguous, got %v", err)
	}
	if _, err := dc.Field("B", "x"); !errors.Is(err, ErrNotFound) {
		Te.Errorf("Bx doesn't exist, got %v", err)
	} else if !strings.Contains(err.Error(), "Available: [Ex, Ez, rho]") {
		Te.Errorf("the error should list the fields, got %q", err)
	}
	if _, err := dc.Field("Bz"); !errors.Is(err, ErrNotFound) {
		Te.Errorf("Bz doesn't exist, got %v", err)
	}
	if s := dc.SpeciesNames("pz"); len(s) != 1 || s[0] != "beam" {
		Te.Errorf("only beam has pz, got %v", s)
	}
	if s := dc.SpeciesNames(); len(s) != 2 {
		Te.Errorf("2 species expected, got %v", s)
	}
	sp, err := dc.Species("beam")
	if err != nil {
		Te.Fatal(err)
	}
	if !sp.HasComponents("gamma", "ekin", "x_prime", "y_prime") {
		Te.Errorf("built-in derived components should be registered, got %v", sp.Components())
	}
	if _, err := dc.Species("positrons"); !errors.Is(err, ErrNotFound) {
		Te.Errorf("unknown species should be not found, got %v", err)
	} else if !strings.Contains(err.Error(), "Available: [beam, ions]") {
		Te.Errorf("the error should list the species, got %q", err)
	}
	names, err := dc.AddDerivedParticleComponent(ParticleComponentDefinition{
		Name:         "xw",
		Requirements: []string{"x", "w"},
		Recipe: func(c map[string][]float64) []float64 {
			ret := make([]float64, len(c["x"]))
			for i := range ret {
				ret[i] = c["x"][i] * c["w"][i]
			}
			return ret
		},
	})
	if err != nil || len(names) != 2 {
		Te.Errorf("xw should be added to both species: %v %v", names, err)
	}
}

func TestContainerDerivedFields(Te *testing.T) {
	dc := newContainer(Te)
	if err := dc.LoadData(false); err != nil {
		Te.Fatal(err)
	}
	if err := dc.AddDerivedField(Intensity); err != nil {
		Te.Fatal(err)
	}
	if err := dc.AddDerivedField(Intensity); !errors.Is(err, ErrUnsupported) {
		Te.Errorf("adding I twice should fail, got %v", err)
	}
	I, err := dc.Field("I")
	if err != nil {
		Te.Fatal(err)
	}
	fd, err := I.Data(10, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if want := units.Epsilon0 * units.C / 2 * 5; !near(fd.Array.Data[0], want, 1e-12) {
		Te.Errorf("I should be %g, got %g", want, fd.Array.Data[0])
	}
	if err := dc.AddDerivedField(VectorPotential); err != nil {
		Te.Fatal(err)
	}
	a, _ := dc.Field("a")
	if _, err := a.Data(0, nil); err != nil {
		Te.Errorf("lambda_0 is in the container params: %v", err)
	}
	only3D := DerivedFieldDefinition{Name: "By2", Requirements: map[Geometry][]string{Cartesian3D: {"By"}}}
	if err := dc.AddDerivedField(only3D); !errors.Is(err, ErrUnsupported) {
		Te.Errorf("geometry without requirements should be unsupported, got %v", err)
	}
	missing := DerivedFieldDefinition{Name: "B2", Requirements: map[Geometry][]string{Cartesian2D: {"Bz"}}}
	if err := dc.AddDerivedField(missing); !errors.Is(err, ErrNotFound) {
		Te.Errorf("missing base fields should be not found, got %v", err)
	}
	//a forced reload scans again and rebuilds the derived fields
	before := dc.fields[0]
	if err := dc.LoadData(true); err != nil {
		Te.Fatal(err)
	}
	if dc.fields[0] == before {
		Te.Error("a forced reload should rebuild the fields")
	}
	if _, err := dc.Field("I"); err != nil {
		Te.Errorf("I should survive a forced reload: %v", err)
	}
	if n := len(dc.FieldNames()); n != 5 {
		Te.Errorf("3 base fields and 2 derived ones expected, got %d", n)
	}
	before = dc.fields[0]
	if err := dc.LoadData(false); err != nil || dc.fields[0] != before {
		Te.Error("LoadData(false) should not scan again")
	}
}

func TestContainerConfig(Te *testing.T) {
	if _, err := NewDataContainer("nope", "sim", WithOpener(h5.MemOpener(nil))); !errors.Is(err, ErrNotFound) {
		Te.Errorf("unknown formats should be not found, got %v", err)
	}
	if _, err := NewDataContainer("fake", "sim"); !errors.Is(err, ErrConfig) {
		Te.Errorf("a missing opener should be a configuration error, got %v", err)
	}
	found := false
	for _, f := range Formats() {
		found = found || f == "fake"
	}
	if !found {
		Te.Errorf("fake should be registered: %v", Formats())
	}
	scan = func() ([]Field, []ParticleSpecies, error) {
		f := NewField("rho", "", cartesian2D(2, 2, 0), units.NewTable())
		return []Field{f, f}, nil, nil
	}
	dc, _ := NewDataContainer("fake", "sim", WithOpener(h5.MemOpener(nil)), WithFS(fstest.MapFS{}))
	if err := dc.LoadData(false); !errors.Is(err, ErrUnsupported) {
		Te.Errorf("duplicated names should fail the load, got %v", err)
	}
}
