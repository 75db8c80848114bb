/*
 * beam.go, part of gopic.
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
	"math"

	"github.com/rmera/gopic"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Beam holds the parameters of a particle beam at one iteration. Lengths are in m,
//the time in s, momenta in m_e*c, emittances in m*rad and the charge in C.
//Quantities that need missing components (y in a 2D run, for instance) are NaN.
type Beam struct {
	Iteration    int
	Time         float64
	Particles    int
	Charge       float64
	MeanGamma    float64
	EnergySpread float64 //relative rms
	MeanZ        float64
	SigmaZ       float64
	SigmaX       float64
	SigmaY       float64
	EmittanceX   float64 //normalized rms
	EmittanceY   float64
}

//BeamColumns are the names of the values returned by Beam.Values.
var BeamColumns = []string{"time", "particles", "charge", "mean_gamma", "energy_spread", "mean_z", "sigma_z", "sigma_x", "sigma_y", "emittance_x", "emittance_y"}

//Values returns the beam parameters, in the order of BeamColumns.
func (B *Beam) Values() []float64 {
	return []float64{B.Time, float64(B.Particles), B.Charge, B.MeanGamma, B.EnergySpread, B.MeanZ, B.SigmaZ, B.SigmaX, B.SigmaY, B.EmittanceX, B.EmittanceY}
}

//weights returns the weights of the particles: the absolute value of the charge
//if available, the macroparticle weight otherwise.
func weights(pd *pic.ParticleData) ([]float64, error) {
	if q := pd.Data("q"); q != nil {
		w := make([]float64, len(q))
		for i, v := range q {
			w[i] = math.Abs(v)
		}
		return w, nil
	}
	if w := pd.Data("w"); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf("analysis: species %s has neither charges nor weights", pd.Species)
}

//emittance returns the normalized rms emittance from positions and normalized momenta.
func emittance(x, ux, w []float64) float64 {
	mx, mux := stat.Mean(x, w), stat.Mean(ux, w)
	dx := make([]float64, len(x))
	dux := make([]float64, len(x))
	xux := make([]float64, len(x))
	for i := range x {
		dx[i] = (x[i] - mx) * (x[i] - mx)
		dux[i] = (ux[i] - mux) * (ux[i] - mux)
		xux[i] = (x[i] - mx) * (ux[i] - mux)
	}
	x2, ux2, c := stat.Mean(dx, w), stat.Mean(dux, w), stat.Mean(xux, w)
	return math.Sqrt(math.Max(x2*ux2-c*c, 0))
}

func popStd(x, w []float64) float64 {
	if x == nil {
		return math.NaN()
	}
	_, s := stat.PopMeanStdDev(x, w)
	return s
}

//BeamParameters computes the parameters of the particles of sp within sel at the
//given iteration. The species needs z, px and pz and either q or w.
func BeamParameters(sp pic.ParticleSpecies, it int, sel pic.Selection) (*Beam, error) {
	comps := []string{"z", "px", "pz"}
	for _, c := range []string{"x", "y", "py", "q", "w"} {
		if sp.HasComponents(c) {
			comps = append(comps, c)
		}
	}
	if !sp.HasComponents(comps[:3]...) {
		return nil, fmt.Errorf("analysis: species %s needs the components %v, has %v", sp.Name(), comps[:3], sp.Components())
	}
	pd, err := sp.Data(it, comps, sel)
	if err != nil {
		return nil, err
	}
	ret := &Beam{Iteration: it, Time: pd.Time, Particles: pd.Len()}
	if pd.Len() == 0 {
		return nil, fmt.Errorf("analysis: no particles of %s selected at iteration %d", sp.Name(), it)
	}
	w, err := weights(pd)
	if err != nil {
		return nil, err
	}
	if q := pd.Data("q"); q != nil {
		ret.Charge = floats.Sum(q)
	} else {
		ret.Charge = math.NaN()
	}
	px, py, pz := pd.Data("px"), pd.Data("py"), pd.Data("pz")
	g := make([]float64, len(pz))
	for i := range g {
		p2 := px[i]*px[i] + pz[i]*pz[i]
		if py != nil {
			p2 += py[i] * py[i]
		}
		g[i] = math.Sqrt(1 + p2)
	}
	var sg float64
	ret.MeanGamma, sg = stat.PopMeanStdDev(g, w)
	ret.EnergySpread = sg / ret.MeanGamma
	ret.MeanZ, ret.SigmaZ = stat.PopMeanStdDev(pd.Data("z"), w)
	ret.SigmaX, ret.SigmaY = popStd(pd.Data("x"), w), popStd(pd.Data("y"), w)
	ret.EmittanceX, ret.EmittanceY = math.NaN(), math.NaN()
	if x := pd.Data("x"); x != nil {
		ret.EmittanceX = emittance(x, px, w)
	}
	if y := pd.Data("y"); y != nil && py != nil {
		ret.EmittanceY = emittance(y, py, w)
	}
	return ret, nil
}

//BeamEvolution computes the beam parameters at each iteration in its, in parallel
//(see Parallel), with columns BeamColumns.
func BeamEvolution(sp pic.ParticleSpecies, its []int, sel pic.Selection, workers int) *Evolution {
	return Stack(its, workers, BeamColumns, func(it int) ([]float64, error) {
		b, err := BeamParameters(sp, it, sel)
		if err != nil {
			return nil, err
		}
		return b.Values(), nil
	})
}
