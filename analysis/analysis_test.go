/*
 * analysis_test.go, part of gopic.
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

package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

//particles is a ParticleReader with the same SI data at every iteration.
type particles struct {
	its  []int
	data map[string][]float64
	bad  int //iteration that fails to read
}

func (P *particles) Iterations() []int { return P.its }

func (P *particles) Components() []string {
	var ret []string
	for k := range P.data {
		ret = append(ret, k)
	}
	return ret
}

func (P *particles) Time(it int) (float64, string, error) {
	return float64(it) * 1e-15, "s", nil
}

func (P *particles) ReadComponent(it int, name string, mask []bool) ([]float64, string, error) {
	if it == P.bad {
		return nil, "", errors.New("broken file")
	}
	var ret []float64
	for i, v := range P.data[name] {
		if mask == nil || mask[i] {
			ret = append(ret, v)
		}
	}
	return ret, pic.ComponentUnits(name), nil
}

func beam() *pic.Species {
	e := units.ElementaryCharge
	p := &particles{
		its: []int{1, 2, 3},
		bad: 3,
		data: map[string][]float64{
			"x":  {-1e-6, 1e-6, -1e-6, 1e-6},
			"z":  {0, 1e-6, 2e-6, 3e-6},
			"px": {-1, 1, 1, -1},
			"py": {0, 0, 0, 0},
			"pz": {100, 100, 300, 300},
			"q":  {-e, -e, -e, -e},
		},
	}
	sp := pic.NewSpecies("beam", p, units.NewTable())
	for _, def := range pic.ParticleComponents {
		if sp.HasComponents(def.Requirements...) {
			sp.AddDerivedComponent(def)
		}
	}
	return sp
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(math.Abs(a), math.Abs(b))
}

func TestBeamParameters(Te *testing.T) {
	b, err := BeamParameters(beam(), 1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if b.Particles != 4 || !near(b.Charge, -4*units.ElementaryCharge, 1e-12) {
		Te.Errorf("wrong particles or charge %+v", b)
	}
	g1, g3 := math.Sqrt(1+1+100*100), math.Sqrt(1+1+300*300)
	if mean := (g1 + g3) / 2; !near(b.MeanGamma, mean, 1e-12) || !near(b.EnergySpread, (g3-g1)/2/mean, 1e-9) {
		Te.Errorf("wrong energy: %g %g", b.MeanGamma, b.EnergySpread)
	}
	if !near(b.SigmaX, 1e-6, 1e-12) || !near(b.MeanZ, 1.5e-6, 1e-12) {
		Te.Errorf("wrong sizes %+v", b)
	}
	//x and px are uncorrelated, each with rms 1e-6 m and 1 m_e*c.
	if !near(b.EmittanceX, 1e-6, 1e-9) {
		Te.Errorf("wrong emittance %g", b.EmittanceX)
	}
	if !math.IsNaN(b.SigmaY) {
		Te.Errorf("there is no y, sigma_y should be NaN, got %g", b.SigmaY)
	}
	b, err = BeamParameters(beam(), 1, pic.Selection{"pz": pic.AtMost(200)})
	if err != nil || b.Particles != 2 || b.EnergySpread > 1e-12 {
		Te.Errorf("selection ignored: %+v %v", b, err)
	}
}

func TestBeamEvolution(Te *testing.T) {
	Te.Setenv(NumProcEnv, "2")
	if Workers(0) != 2 || Workers(5) != 5 {
		Te.Errorf("wrong worker count %d", Workers(0))
	}
	ev := BeamEvolution(beam(), []int{1, 2, 3}, nil, 0)
	r, c := ev.Data.Dims()
	if r != 3 || c != len(BeamColumns) {
		Te.Fatalf("wrong shape %d %d", r, c)
	}
	t := ev.Column("time")
	if t[0] != 1e-15 || t[1] != 2e-15 || !math.IsNaN(t[2]) {
		Te.Errorf("rows should follow the iterations, the failed one NaN: %v", t)
	}
	if len(ev.Errors) != 1 || ev.Errors[3] == nil || ev.Failed() {
		Te.Errorf("only iteration 3 should fail: %v", ev.Errors)
	}
	if ev.Column("nope") != nil {
		Te.Error("unknown columns should be nil")
	}
}

func TestSpectra(Te *testing.T) {
	sp := beam()
	h, err := EnergySpectrum(sp, 1, nil, []float64{0, 100, 200}, "MeV")
	if err != nil {
		Te.Fatal(err)
	}
	//gamma-1 is about 100 and 300, i.e. 51 and 153 MeV.
	if v := h.View(); !near(v[0], 2*units.ElementaryCharge, 1e-12) || !near(v[1], 2*units.ElementaryCharge, 1e-12) {
		Te.Errorf("wrong spectrum %v", v)
	}
	series, failed := SpectrumEvolution(sp, []int{1, 2, 3}, nil, []float64{0, 100, 200}, "MeV", 2)
	if series.Len() != 2 || failed[3] == nil {
		Te.Errorf("iterations 1 and 2 expected in the series, got %v, errors %v", series.Keys(), failed)
	}
	if _, err := EnergySpectrum(sp, 1, nil, []float64{0, 1}, "furlongs"); err == nil {
		Te.Error("unknown energy units should fail")
	}
	prof, err := CurrentProfile(sp, 1, nil, 3)
	if err != nil {
		Te.Fatal(err)
	}
	//the first 1 um bin holds the particles at 0 and 1 um, the others one each.
	want := units.ElementaryCharge / 1e-6 * units.C
	if !near(prof.Current[0], 2*want, 1e-6) || !near(prof.Current[1], want, 1e-6) || !near(prof.Charge.Total(), 4*units.ElementaryCharge, 1e-12) {
		Te.Errorf("wrong current %v", prof.Current)
	}
}

//pulse is a 1D FieldReader with a Gaussian laser pulse.
type pulse struct {
	n      int
	dz     float64
	lambda float64
	e0     float64
	tau    float64 //FWHM of the field envelope, in m
}

func (P *pulse) Iterations() []int      { return []int{0} }
func (P *pulse) Geometry() pic.Geometry { return pic.OneD }
func (P *pulse) Units() string          { return units.EField }

func (P *pulse) ReadArray(it int, sel *pic.Hyperslab) (*pic.Array, error) {
	d := make([]float64, P.n)
	sigma := P.tau / (2 * math.Sqrt(2*math.Ln2))
	for i := range d {
		z := float64(i-P.n/2) * P.dz
		d[i] = P.e0 * math.Exp(-z*z/(2*sigma*sigma)) * math.Cos(2*math.Pi*z/P.lambda)
	}
	return &pic.Array{Shape: []int{P.n}, Data: h5.Extract(d, []int{P.n}, sel)}, nil
}

func (P *pulse) Grid(it int) (*pic.Grid, error) {
	return &pic.Grid{
		Axes:      []pic.Axis{{Label: "z", Units: "m", Min: 0, Spacing: P.dz, N: P.n}},
		TimeUnits: "s",
		Units:     units.EField,
	}, nil
}

func TestLaserParameters(Te *testing.T) {
	p := &pulse{n: 512, dz: 0.05e-6, lambda: 0.8e-6, e0: 4e12, tau: 5e-6}
	env, err := pic.NewEnvelopeField(pic.NewField("E", "x", p, units.NewTable()), "z")
	if err != nil {
		Te.Fatal(err)
	}
	l, err := LaserParameters(env, 0, 0.8e-6)
	if err != nil {
		Te.Fatal(err)
	}
	if !near(l.PeakField, p.e0, 0.02) {
		Te.Errorf("peak field %g, want %g", l.PeakField, p.e0)
	}
	if !near(l.A0, A0(p.e0, 0.8e-6), 0.02) || !near(l.A0, 1.0, 0.1) {
		Te.Errorf("a0 %g", l.A0)
	}
	if !near(l.Duration, p.tau/units.C, 0.05) {
		Te.Errorf("duration %g, want %g", l.Duration, p.tau/units.C)
	}
	if !near(l.Wavelength, p.lambda, 0.05) {
		Te.Errorf("wavelength %g, want %g", l.Wavelength, p.lambda)
	}
	if !near(l.Position, 256*p.dz, 0.01) {
		Te.Errorf("position %g", l.Position)
	}
	ev := LaserEvolution(env, []int{0, 7}, 0, 0)
	if len(ev.Errors) != 1 || ev.Errors[7] == nil {
		Te.Errorf("iteration 7 doesn't exist: %v", ev.Errors)
	}
}
