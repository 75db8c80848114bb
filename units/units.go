/*
 * units.go, part of gopic.
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

package units

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//Converter translates data between units of the same physical family, and from the
//native units of a simulation code to SI.
type Converter interface {
	//Convert converts data, in place, from the unit from to the unit to.
	//Both units must belong to the same family. The converted slice is returned.
	Convert(data []float64, from, to string) ([]float64, error)

	//ToSI converts data, in place, from the code-specific unit native to the
	//canonical unit canonical, which is normally the SI unit of the family. It returns the
	//converted slice and the unit it is now expressed in.
	ToSI(data []float64, native, canonical string) ([]float64, string, error)

	//Options returns the display units registered for the family of the given unit.
	Options(unit string) []string
}

//Family names. Each family is identified by its SI unit.
const (
	Length          = "m"
	Time            = "s"
	Angle           = "rad"
	EField          = "V/m"
	BField          = "T"
	Momentum        = "J*s/m"
	Intensity       = "W/m^2"
	Charge          = "C"
	ChargeDensity   = "C/m^3"
	CurrentDensity  = "A/m^2"
	NumberDensity   = "m^-3"
	Energy          = "J"
	Mass            = "kg"
	Dimensionless   = ""
	NormMomentum    = "m_e*c"   //the canonical unit for particle momenta, in the Momentum family
	NormEnergy      = "m_e*c^2" //the canonical unit for particle kinetic energy, in the Energy family
	VectorPotential = "m_e*c^2/e"
)

//plasma-dependent display units and the family they belong to.
var plasmaUnits = map[string]string{
	"c/w_p":       Length,
	"1/w_p":       Time,
	"m_e*c*w_p/e": EField,
	"m_e*w_p/e":   BField,
	"n_p":         NumberDensity,
}

//display = SI * factor
func baseFamilies() map[string]map[string]float64 {
	return map[string]map[string]float64{
		Length: {
			"m":  1,
			"cm": 1e2,
			"mm": 1e3,
			"um": 1e6,
			"nm": 1e9,
		},
		Time: {
			"s":  1,
			"ns": 1e9,
			"ps": 1e12,
			"fs": 1e15,
		},
		Angle: {
			"rad":  1,
			"mrad": 1e3,
			"urad": 1e6,
		},
		EField: {
			"V/m":  1,
			"MV/m": 1e-6,
			"GV/m": 1e-9,
			"TV/m": 1e-12,
		},
		BField: {
			"T":  1,
			"mT": 1e3,
		},
		Momentum: {
			"J*s/m":  1,
			"kg*m/s": 1,
			"MeV/c":  C / (ElementaryCharge * 1e6),
			"m_e*c":  1 / (ElectronMass * C),
		},
		Intensity: {
			"W/m^2":  1,
			"W/cm^2": 1e-4,
		},
		Charge: {
			"C":  1,
			"nC": 1e9,
			"pC": 1e12,
			"fC": 1e15,
			"e":  1 / ElementaryCharge,
		},
		ChargeDensity: {
			"C/m^3":  1,
			"C/cm^3": 1e-6,
		},
		CurrentDensity: {
			"A/m^2":  1,
			"A/cm^2": 1e-4,
			"kA/m^2": 1e-3,
		},
		NumberDensity: {
			"m^-3":  1,
			"cm^-3": 1e-6,
		},
		Energy: {
			"J":       1,
			"eV":      1 / ElementaryCharge,
			"keV":     1 / (ElementaryCharge * 1e3),
			"MeV":     1 / (ElementaryCharge * 1e6),
			"GeV":     1 / (ElementaryCharge * 1e9),
			"m_e*c^2": 1 / ElectronRestMass,
		},
		Mass: {
			"kg":  1,
			"m_e": 1 / ElectronMass,
		},
		Dimensionless: {
			"":          1,
			"m_e*c^2/e": 1,
		},
	}
}

//Plasma holds the plasma quantities derived from a reference density.
type Plasma struct {
	Density float64 //[m^-3]
}

//Frequency returns the plasma frequency w_p in rad/s.
func (p Plasma) Frequency() float64 {
	return math.Sqrt(p.Density * ElementaryCharge * ElementaryCharge / (Epsilon0 * ElectronMass))
}

//Wavenumber returns k_p = w_p/c, in 1/m.
func (p Plasma) Wavenumber() float64 {
	return p.Frequency() / C
}

//E0 returns the cold non-relativistic wavebreaking field m_e*c*w_p/e, in V/m.
func (p Plasma) E0() float64 {
	return ElectronMass * C * p.Frequency() / ElementaryCharge
}

//B0 returns m_e*w_p/e, in T.
func (p Plasma) B0() float64 {
	return p.E0() / C
}

//nativeUnit describes a code-specific unit: the family it belongs to and the factor
//that takes a value in this unit to SI (SI = native*toSI).
type nativeUnit struct {
	family string
	plasma bool
	toSI   func(p Plasma) float64
}

//Option configures a Table.
type Option func(*Table)

//WithPlasmaDensity gives the converter the reference plasma density (in m^-3) needed for
//plasma-normalized units.
func WithPlasmaDensity(n float64) Option {
	return func(t *Table) {
		t.plasma = Plasma{Density: n}
	}
}

//Table is the table-driven Converter. Each family has a flat table of
//display_unit -> factor, with display = SI*factor. There is no dimensional analysis:
//units that are not registered in a table can't be converted.
type Table struct {
	plasma   Plasma
	families map[string]map[string]float64
	native   map[string]nativeUnit
}

//NewTable returns a Table with only the display units registered. Native units
//are expected to already be display units (or SI), so ToSI is a plain conversion.
func NewTable(opts ...Option) *Table {
	t := &Table{
		families: baseFamilies(),
		native:   map[string]nativeUnit{},
	}
	for _, o := range opts {
		o(t)
	}
	if t.plasma.Density > 0 {
		p := t.plasma
		t.families[Length]["c/w_p"] = p.Wavenumber()
		t.families[Time]["1/w_p"] = p.Frequency()
		t.families[EField]["m_e*c*w_p/e"] = 1 / p.E0()
		t.families[BField]["m_e*w_p/e"] = 1 / p.B0()
		t.families[NumberDensity]["n_p"] = 1 / p.Density
	}
	return t
}

//NewPassthrough returns the converter for data that is already in SI, such as openPMD
//data once the unitSI attributes have been applied. ToSI only converts when the requested
//canonical unit is not the SI unit of its family (particle momenta in m_e*c, for instance).
func NewPassthrough(opts ...Option) *Table {
	return NewTable(opts...)
}

//PlasmaDensity returns the reference density given at construction, or 0.
func (t *Table) PlasmaDensity() float64 {
	return t.plasma.Density
}

//Family returns the SI unit of the family the given unit belongs to.
func (t *Table) Family(unit string) (string, bool) {
	if _, ok := t.families[unit]; ok {
		return unit, true
	}
	if fam, ok := plasmaUnits[unit]; ok {
		return fam, true
	}
	for fam, table := range t.families {
		if _, ok := table[unit]; ok {
			return fam, true
		}
	}
	return "", false
}

//Options returns, sorted, the display units registered for the family of unit.
//Plasma units are only listed if the plasma density is known.
func (t *Table) Options(unit string) []string {
	fam, ok := t.Family(unit)
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(t.families[fam]))
	for k := range t.families[fam] {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (t *Table) factor(fam, unit string) (float64, error) {
	f, ok := t.families[fam][unit]
	if ok {
		return f, nil
	}
	if pfam, isplasma := plasmaUnits[unit]; isplasma && pfam == fam {
		return 0, Error{message: "plasma density required but not given", from: unit, to: fam, options: t.Options(fam)}
	}
	return 0, Error{message: "unit not registered", from: unit, to: fam, options: t.Options(fam)}
}

//Convert converts data in place from one display unit to another of the same family.
func (t *Table) Convert(data []float64, from, to string) ([]float64, error) {
	if from == to {
		return data, nil
	}
	fam, ok := t.Family(from)
	if !ok {
		return nil, Error{message: "unknown unit " + from, from: from, to: to}
	}
	if _, ok := t.families[fam][to]; !ok {
		if pfam, isplasma := plasmaUnits[to]; !isplasma || pfam != fam {
			return nil, Error{message: "target unit not registered for family " + familyName(fam), from: from, to: to, options: t.Options(fam)}
		}
	}
	ffrom, err := t.factor(fam, from)
	if err != nil {
		return nil, convErr(err, from, to)
	}
	fto, err := t.factor(fam, to)
	if err != nil {
		return nil, convErr(err, from, to)
	}
	if ffrom == fto {
		return data, nil
	}
	floats.Scale(fto/ffrom, data)
	return data, nil
}

//ToSI converts data in place from a native unit to canonical. Native units registered by
//a code-specific converter are taken to SI first, anything else is handled by Convert.
func (t *Table) ToSI(data []float64, native, canonical string) ([]float64, string, error) {
	fam, ok := t.Family(canonical)
	if !ok {
		return nil, "", Error{message: "unknown canonical unit", from: native, to: canonical}
	}
	key := normalizeNative(native)
	nu, ok := t.native[key]
	if alt, isalt := t.native[key+"["+fam+"]"]; isalt {
		nu, ok = alt, true
	}
	if ok {
		if nu.family != fam {
			return nil, "", Error{message: "native unit belongs to family " + familyName(nu.family), from: native, to: canonical, options: t.Options(fam)}
		}
		if nu.plasma && t.plasma.Density <= 0 {
			return nil, "", Error{message: "plasma density required to convert from native units, but not given", from: native, to: canonical}
		}
		if f := nu.toSI(t.plasma); f != 1 {
			floats.Scale(f, data)
		}
		native = fam
	}
	ret, err := t.Convert(data, native, canonical)
	if err != nil {
		return nil, "", err
	}
	return ret, canonical, nil
}

//normalizeNative strips the decorations codes put in their unit strings (spaces, TeX
//backslashes) so "m_e c \omega_p / e" and "m_ec\omega_p/e" match the same entry.
func normalizeNative(s string) string {
	return strings.NewReplacer(" ", "", "\\", "").Replace(s)
}

func familyName(fam string) string {
	if fam == "" {
		return "dimensionless"
	}
	return fam
}

func convErr(err error, from, to string) error {
	if e, ok := err.(Error); ok {
		e.from = from
		e.to = to
		return e
	}
	return err
}
