/*
 * spectrum.go, part of gopic.
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
	"fmt"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/histo"
	"github.com/rmera/gopic/units"
)

func weightComponent(sp pic.ParticleSpecies) string {
	if sp.HasComponents("q") {
		return "q"
	}
	return "w"
}

//EnergySpectrum returns the histogram of the kinetic energy of the particles of sp
//in sel, weighted by their absolute charge (or their weight if there are no charges).
//dividers are in the energy unit unit, "MeV" for instance.
func EnergySpectrum(sp pic.ParticleSpecies, it int, sel pic.Selection, dividers []float64, unit string) (*histo.Data, error) {
	if len(dividers) < 2 {
		return nil, fmt.Errorf("analysis: at least 2 dividers needed, got %d", len(dividers))
	}
	pd, err := sp.Data(it, []string{"ekin", weightComponent(sp)}, sel)
	if err != nil {
		return nil, err
	}
	e := pd.Data("ekin")
	if _, err := units.NewTable().Convert(e, units.NormEnergy, unit); err != nil {
		return nil, err
	}
	w, err := weights(pd)
	if err != nil {
		return nil, err
	}
	return histo.NewData(dividers, e, w, it), nil
}

//SpectrumEvolution returns the energy spectrum (see EnergySpectrum) at each iteration
//in its, computed in parallel. Failed iterations are left out of the series and
//their errors returned by iteration.
func SpectrumEvolution(sp pic.ParticleSpecies, its []int, sel pic.Selection, dividers []float64, unit string, workers int) (*histo.Series, map[int]error) {
	spectra, errs := Parallel(its, workers, func(it int) (*histo.Data, error) {
		return EnergySpectrum(sp, it, sel, dividers, unit)
	})
	ret := histo.NewSeries(dividers)
	failed := map[int]error{}
	for i, h := range spectra {
		if errs[i] != nil {
			failed[its[i]] = errs[i]
			continue
		}
		if err := ret.Add(its[i], h); err != nil {
			failed[its[i]] = err
		}
	}
	return ret, failed
}

//Profile is the current profile of a beam along z.
type Profile struct {
	Z       []float64 //bin centres, m
	Current []float64 //A
	Charge  *histo.Data
}

//CurrentProfile returns the current of the particles of sp in sel, in nbins bins
//along z. The particles are taken to move at c.
func CurrentProfile(sp pic.ParticleSpecies, it int, sel pic.Selection, nbins int) (*Profile, error) {
	if !sp.HasComponents("q") {
		return nil, fmt.Errorf("analysis: species %s has no charges", sp.Name())
	}
	pd, err := sp.Data(it, []string{"z", "q"}, sel)
	if err != nil {
		return nil, err
	}
	z := pd.Data("z")
	if len(z) == 0 {
		return nil, fmt.Errorf("analysis: no particles of %s selected at iteration %d", sp.Name(), it)
	}
	w, err := weights(pd)
	if err != nil {
		return nil, err
	}
	lo, hi := z[0], z[0]
	for _, v := range z {
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi == lo {
		hi = lo + 1e-9
	}
	//the last divider is pushed a little so the last particle is counted.
	div := histo.Dividers(lo, hi+(hi-lo)*1e-9, nbins)
	h := histo.NewData(div, z, w, it)
	ret := &Profile{Z: h.Centers(), Current: h.Density(), Charge: h}
	for i := range ret.Current {
		ret.Current[i] *= units.C
	}
	return ret, nil
}
