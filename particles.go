/*
 * particles.go, part of gopic.
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

//ParticleReader is implemented by each format to read the components of one species.
type ParticleReader interface {
	Iterations() []int
	//Components returns the canonical names of the components stored on disk.
	Components() []string
	//Time returns the time of the iteration, in native units.
	Time(iteration int) (float64, string, error)
	//ReadComponent reads the component name in native units, keeping only the
	//particles for which mask is true, or all of them if mask is nil.
	ReadComponent(iteration int, name string, mask []bool) ([]float64, string, error)
}

//Range is an inclusive interval. A nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

//Between returns the range [min, max].
func Between(min, max float64) Range { return Range{Min: &min, Max: &max} }

//AtLeast returns the range [min, inf).
func AtLeast(min float64) Range { return Range{Min: &min} }

//AtMost returns the range (-inf, max].
func AtMost(max float64) Range { return Range{Max: &max} }

//Contains reports whether v is in the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

//Selection keeps only the particles whose components, in SI units, are within the
//given ranges.
type Selection map[string]Range

//ParticleComponentDefinition describes a particle component computed from others.
type ParticleComponentDefinition struct {
	Name         string
	Units        string
	Requirements []string
	//Recipe gets the required components, in SI units, by name.
	Recipe func(comps map[string][]float64) []float64
}

//ComponentData holds one component of a ParticleData.
type ComponentData struct {
	Name  string
	Units string
	Data  []float64
}

//ParticleData is the result of reading one iteration of a species.
type ParticleData struct {
	Species   string
	Iteration int
	Time      float64
	TimeUnits string
	comps     map[string]*ComponentData
	order     []string
}

//NewParticleData returns an empty ParticleData, to be filled with Add.
func NewParticleData(species string, it int, time float64, timeUnits string) *ParticleData {
	return &ParticleData{
		Species:   species,
		Iteration: it,
		Time:      time,
		TimeUnits: timeUnits,
		comps:     map[string]*ComponentData{},
	}
}

//Add adds the component c. It fails if a component with the same name exists
//or if c has a different number of particles than the components already there.
func (P *ParticleData) Add(c *ComponentData) error {
	if _, ok := P.comps[c.Name]; ok {
		return unsupported("component %s already in the data of %s", c.Name, P.Species)
	}
	if len(P.comps) > 0 && len(c.Data) != P.Len() {
		return unsupported("component %s has %d particles, %s has %d", c.Name, len(c.Data), P.Species, P.Len())
	}
	P.comps[c.Name] = c
	P.order = append(P.order, c.Name)
	return nil
}

//Get returns the component name.
func (P *ParticleData) Get(name string) (*ComponentData, bool) {
	c, ok := P.comps[name]
	return c, ok
}

//Data returns the values of the component name, or nil if it was not read.
func (P *ParticleData) Data(name string) []float64 {
	if c, ok := P.comps[name]; ok {
		return c.Data
	}
	return nil
}

//Names returns the components, in the order they were requested.
func (P *ParticleData) Names() []string { return append([]string(nil), P.order...) }

//Len returns the number of particles.
func (P *ParticleData) Len() int {
	for _, c := range P.comps {
		return len(c.Data)
	}
	return 0
}

//Q returns the charge carried by each macroparticle, w*charge.
func (P *ParticleData) Q() ([]float64, error) {
	if q, ok := P.comps["q"]; ok {
		return q.Data, nil
	}
	w, okw := P.comps["w"]
	c, okc := P.comps["charge"]
	if !okw || !okc {
		return nil, notFound("component", "q", P.order)
	}
	ret := make([]float64, len(w.Data))
	for i := range ret {
		ret[i] = w.Data[i] * c.Data[i]
	}
	return ret, nil
}

//ParticleSpecies is a particle species with data for a set of iterations.
type ParticleSpecies interface {
	Name() string
	Iterations() []int
	Components() []string
	HasComponents(names ...string) bool
	//Data reads the given components (all if nil) of the particles in sel.
	Data(iteration int, components []string, sel Selection) (*ParticleData, error)
	AddDerivedComponent(def ParticleComponentDefinition) error
}

//componentUnits are the SI units components are reported in.
var componentUnits = map[string]string{
	"x":      units.Length,
	"y":      units.Length,
	"z":      units.Length,
	"r":      units.Length,
	"px":     units.NormMomentum,
	"py":     units.NormMomentum,
	"pz":     units.NormMomentum,
	"pr":     units.NormMomentum,
	"w":      units.Dimensionless,
	"charge": units.Charge,
	"q":      units.Charge,
	"mass":   units.Mass,
	"id":     units.Dimensionless,
	"tag":    units.Dimensionless,
	"ekin":   units.NormEnergy,
}

//ComponentUnits returns the units component name is reported in.
func ComponentUnits(name string) string {
	return componentUnits[name]
}

//Species is the ParticleSpecies over a ParticleReader.
type Species struct {
	name       string
	reader     ParticleReader
	conv       units.Converter
	iterations []int
	native     map[string]bool
	derived    map[string]ParticleComponentDefinition
	order      []string
}

//NewSpecies returns the species name read through r.
func NewSpecies(name string, r ParticleReader, conv units.Converter) *Species {
	its := append([]int(nil), r.Iterations()...)
	sort.Ints(its)
	S := &Species{
		name:       name,
		reader:     r,
		conv:       conv,
		iterations: its,
		native:     map[string]bool{},
		derived:    map[string]ParticleComponentDefinition{},
	}
	for _, c := range r.Components() {
		S.native[c] = true
		S.order = append(S.order, c)
	}
	if !S.native["q"] && S.native["w"] && S.native["charge"] {
		S.order = append(S.order, "q")
	}
	return S
}

func (S *Species) Name() string      { return S.name }
func (S *Species) Iterations() []int { return append([]int(nil), S.iterations...) }

//Components returns the on-disk components, then the computed ones.
func (S *Species) Components() []string { return append([]string(nil), S.order...) }

func (S *Species) has(name string) bool {
	if S.native[name] {
		return true
	}
	if _, ok := S.derived[name]; ok {
		return true
	}
	return name == "q" && S.native["w"] && S.native["charge"]
}

//HasComponents reports whether every one of names is available.
func (S *Species) HasComponents(names ...string) bool {
	for _, v := range names {
		if !S.has(v) {
			return false
		}
	}
	return true
}

//AddDerivedComponent registers def. It fails if the species lacks the requirements
//or already has a component with the same name.
func (S *Species) AddDerivedComponent(def ParticleComponentDefinition) error {
	if S.has(def.Name) {
		return unsupported("species %s already has a component '%s'", S.name, def.Name)
	}
	for _, r := range def.Requirements {
		if !S.has(r) {
			return notFound("component required by "+def.Name+" in species "+S.name, r, S.order)
		}
	}
	S.derived[def.Name] = def
	S.order = append(S.order, def.Name)
	return nil
}

func (S *Species) Data(it int, components []string, sel Selection) (*ParticleData, error) {
	if !hasIteration(S.iterations, it) {
		return nil, iterNotFound(it, S.iterations)
	}
	if components == nil {
		components = S.Components()
	}
	for _, c := range components {
		if !S.has(c) {
			return nil, notFound("component", c, S.order)
		}
	}
	var mask []bool
	for name, r := range sel {
		if !S.has(name) {
			return nil, notFound("selection component", name, S.order)
		}
		v, _, err := S.read(it, name, nil)
		if err != nil {
			return nil, errDecorate(err, "Species.Data")
		}
		if mask == nil {
			mask = make([]bool, len(v))
			for i := range mask {
				mask[i] = true
			}
		}
		if len(v) != len(mask) {
			return nil, unsupported("selection components of %s have different lengths", S.name)
		}
		for i, x := range v {
			mask[i] = mask[i] && r.Contains(x)
		}
	}
	t, tu, err := S.reader.Time(it)
	if err != nil {
		return nil, readError(err, "reading the time of species %s at iteration %d", S.name, it)
	}
	tt := []float64{t}
	if _, _, err := S.conv.ToSI(tt, tu, units.Time); err != nil {
		return nil, err
	}
	ret := NewParticleData(S.name, it, tt[0], units.Time)
	for _, c := range components {
		if _, ok := ret.comps[c]; ok {
			continue
		}
		d, u, err := S.read(it, c, mask)
		if err != nil {
			return nil, errDecorate(err, "Species.Data")
		}
		ret.comps[c] = &ComponentData{Name: c, Units: u, Data: d}
		ret.order = append(ret.order, c)
	}
	return ret, nil
}

//read returns component name in SI units, for the particles in mask.
func (S *Species) read(it int, name string, mask []bool) ([]float64, string, error) {
	if S.native[name] {
		d, native, err := S.reader.ReadComponent(it, name, mask)
		if err != nil {
			return nil, "", readError(err, "reading %s of species %s at iteration %d", name, S.name, it)
		}
		return S.conv.ToSI(d, native, ComponentUnits(name))
	}
	if def, ok := S.derived[name]; ok {
		comps := make(map[string][]float64, len(def.Requirements))
		for _, r := range def.Requirements {
			d, _, err := S.read(it, r, mask)
			if err != nil {
				return nil, "", err
			}
			comps[r] = d
		}
		return def.Recipe(comps), def.Units, nil
	}
	if name == "q" {
		w, _, err := S.read(it, "w", mask)
		if err != nil {
			return nil, "", err
		}
		c, _, err := S.read(it, "charge", mask)
		if err != nil {
			return nil, "", err
		}
		for i := range w {
			w[i] *= c[i]
		}
		return w, units.Charge, nil
	}
	return nil, "", notFound("component", name, S.order)
}

func gamma(px, py, pz float64) float64 {
	return math.Sqrt(1 + px*px + py*py + pz*pz)
}

//Built-in derived particle components.
var (
	XPrime = ParticleComponentDefinition{
		Name:         "x_prime",
		Units:        units.Angle,
		Requirements: []string{"px", "pz"},
		Recipe: func(c map[string][]float64) []float64 {
			ret := make([]float64, len(c["px"]))
			for i := range ret {
				ret[i] = c["px"][i] / c["pz"][i]
			}
			return ret
		},
	}
	YPrime = ParticleComponentDefinition{
		Name:         "y_prime",
		Units:        units.Angle,
		Requirements: []string{"py", "pz"},
		Recipe: func(c map[string][]float64) []float64 {
			ret := make([]float64, len(c["py"]))
			for i := range ret {
				ret[i] = c["py"][i] / c["pz"][i]
			}
			return ret
		},
	}
	Gamma = ParticleComponentDefinition{
		Name:         "gamma",
		Units:        units.Dimensionless,
		Requirements: []string{"px", "py", "pz"},
		Recipe: func(c map[string][]float64) []float64 {
			ret := make([]float64, len(c["pz"]))
			for i := range ret {
				ret[i] = gamma(c["px"][i], c["py"][i], c["pz"][i])
			}
			return ret
		},
	}
	KineticEnergy = ParticleComponentDefinition{
		Name:         "ekin",
		Units:        units.NormEnergy,
		Requirements: []string{"px", "py", "pz"},
		Recipe: func(c map[string][]float64) []float64 {
			ret := make([]float64, len(c["pz"]))
			for i := range ret {
				ret[i] = gamma(c["px"][i], c["py"][i], c["pz"][i]) - 1
			}
			return ret
		},
	}
)

//ParticleComponents lists the built-in derived particle components.
var ParticleComponents = []ParticleComponentDefinition{XPrime, YPrime, Gamma, KineticEnergy}
