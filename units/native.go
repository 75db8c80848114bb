/*
 * native.go, part of gopic.
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

func one(Plasma) float64 { return 1 }

func plasmaLength(p Plasma) float64 { return 1 / p.Wavenumber() }

func plasmaTime(p Plasma) float64 { return 1 / p.Frequency() }

func plasmaE(p Plasma) float64 { return p.E0() }

func plasmaB(p Plasma) float64 { return p.B0() }

func plasmaChargeDensity(p Plasma) float64 { return ElementaryCharge * p.Density }

func plasmaDensity(p Plasma) float64 { return p.Density }

func plasmaCurrentDensity(p Plasma) float64 { return ElementaryCharge * C * p.Density }

//osirisUnits are keyed by the normalized (no spaces, no backslashes) form of the UNITS
//attributes OSIRIS writes. Charge densities are "e \omega_p^N / c^N", N being the
//dimensionality of the run, all of them map to e*n_p. Current densities, one power
//of c lower, map to e*c*n_p.
var osirisUnits = map[string]nativeUnit{
	"c/omega_p":        {Length, true, plasmaLength},
	"1/omega_p":        {Time, true, plasmaTime},
	"m_ecomega_p/e":    {EField, true, plasmaE},
	"m_ecomega_p/e[T]": {BField, true, plasmaB},
	"eomega_p/c":       {ChargeDensity, true, plasmaChargeDensity},
	"eomega_p^2/c^2":   {ChargeDensity, true, plasmaChargeDensity},
	"eomega_p^3/c^3":   {ChargeDensity, true, plasmaChargeDensity},
	"eomega_p":         {CurrentDensity, true, plasmaCurrentDensity},
	"eomega_p^2/c":     {CurrentDensity, true, plasmaCurrentDensity},
	"eomega_p^3/c^2":   {CurrentDensity, true, plasmaCurrentDensity},
	"n_0":              {NumberDensity, true, plasmaDensity},
	"m_ec":             {Momentum, false, func(Plasma) float64 { return ElectronMass * C }},
	"m_ec^2":           {Energy, false, func(Plasma) float64 { return ElectronRestMass }},
	"e":                {Charge, false, func(Plasma) float64 { return ElementaryCharge }},
	"a.u.":             {Dimensionless, false, one},
	"":                 {Dimensionless, false, one},
}

//hipaceUnits are the implicit normalized units of the legacy HiPACE output. HiPACE does
//not write unit strings, the reader assigns these tags per quantity.
var hipaceUnits = map[string]nativeUnit{
	"1/k_p": {Length, true, plasmaLength},
	"1/w_p": {Time, true, plasmaTime},
	"E_0":   {EField, true, plasmaE},
	"E_0/c": {BField, true, plasmaB},
	"en_0":  {ChargeDensity, true, plasmaChargeDensity},
	"en_0c": {CurrentDensity, true, plasmaCurrentDensity},
	"n_0":   {NumberDensity, true, plasmaDensity},
	"m_e*c": {Momentum, false, func(Plasma) float64 { return ElectronMass * C }},
	"e":     {Charge, false, func(Plasma) float64 { return ElementaryCharge }},
	"":      {Dimensionless, false, one},
}

func withNative(t *Table, natives map[string]nativeUnit) *Table {
	for k, v := range natives {
		t.native[k] = v
	}
	return t
}

//NewOsiris returns the converter for OSIRIS data. OSIRIS writes normalized units, so
//WithPlasmaDensity is needed for everything except momenta, energies and charges.
//OSIRIS labels both E and B with "m_e c \omega_p / e"; ToSI resolves the ambiguity with
//the canonical unit requested.
func NewOsiris(opts ...Option) *Table {
	return withNative(NewTable(opts...), osirisUnits)
}

//NewHipace returns the converter for legacy HiPACE data.
func NewHipace(opts ...Option) *Table {
	return withNative(NewTable(opts...), hipaceUnits)
}

//IsNative reports whether the converter has a code-specific entry for the unit.
func (t *Table) IsNative(unit string) bool {
	_, ok := t.native[normalizeNative(unit)]
	return ok
}
