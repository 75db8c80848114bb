/*
 * laser.go, part of gopic.
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
	"math/cmplx"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/units"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

//Laser holds the parameters of a laser pulse at one iteration. Wavelength and
//position are in m, the time and duration in s and the field in V/m.
type Laser struct {
	Iteration  int
	Time       float64
	PeakField  float64
	A0         float64
	Duration   float64 //FWHM of the envelope, divided by c
	Wavelength float64 //central wavelength, from the spectrum of the lineout through the peak
	Position   float64 //of the peak along the propagation axis
}

//LaserColumns are the names of the values returned by Laser.Values.
var LaserColumns = []string{"time", "peak_field", "a0", "duration", "wavelength", "position"}

//Values returns the laser parameters, in the order of LaserColumns.
func (L *Laser) Values() []float64 {
	return []float64{L.Time, L.PeakField, L.A0, L.Duration, L.Wavelength, L.Position}
}

//A0 returns the normalized vector potential of a field of amplitude e (V/m) and
//wavelength lambda (m).
func A0(e, lambda float64) float64 {
	omega := 2 * math.Pi * units.C / lambda
	return units.ElementaryCharge * e / (units.ElectronMass * units.C * omega)
}

//unravel returns the multi-index of the flat row-major index i.
func unravel(i int, shape []int) []int {
	ret := make([]int, len(shape))
	for d := len(shape) - 1; d >= 0; d-- {
		ret[d] = i % shape[d]
		i /= shape[d]
	}
	return ret
}

//fwhm returns the full width at half maximum, in samples, of the peak of v at index peak.
func fwhm(v []float64, peak int) float64 {
	half := v[peak] / 2
	left, right := 0.0, float64(len(v)-1)
	for i := peak; i > 0; i-- {
		if v[i-1] < half {
			left = float64(i-1) + (half-v[i-1])/(v[i]-v[i-1])
			break
		}
	}
	for i := peak; i < len(v)-1; i++ {
		if v[i+1] < half {
			right = float64(i) + (v[i]-half)/(v[i]-v[i+1])
			break
		}
	}
	return right - left
}

//centralWavelength returns the wavelength at the peak of the spectrum of the
//signal s, sampled every dz.
func centralWavelength(s []float64, dz float64) float64 {
	n := len(s)
	if n < 2 {
		return math.NaN()
	}
	coef := fourier.NewFFT(n).Coefficients(nil, s)
	best, kbest := 0.0, 0
	for k := 1; k < len(coef); k++ {
		if a := cmplx.Abs(coef[k]); a > best {
			best, kbest = a, k
		}
	}
	if kbest == 0 {
		return math.NaN()
	}
	return float64(n) * dz / float64(kbest)
}

//LaserParameters computes the parameters of the pulse in env at the given iteration.
//lambda0 is the laser wavelength used for a0. If it is not positive, the central
//wavelength measured from the data is used.
func LaserParameters(env *pic.EnvelopeField, it int, lambda0 float64) (*Laser, error) {
	z, fd, err := env.Envelope(it, nil)
	if err != nil {
		return nil, err
	}
	if fd.Units != units.EField {
		return nil, fmt.Errorf("analysis: %s is not an electric field (units %s)", env.Name(), fd.Units)
	}
	dim := fd.Axis(env.Propagation())
	if dim < 0 || fd.Array.Len() == 0 {
		return nil, fmt.Errorf("analysis: %s has no data along %s", env.Name(), env.Propagation())
	}
	abs := fd.Array.Data
	peak := floats.MaxIdx(abs)
	idx := unravel(peak, fd.Array.Shape)
	idx[dim] = 0
	start := fd.Array.Index(idx...)
	n := fd.Array.Shape[dim]
	stride := 1
	for _, v := range fd.Array.Shape[dim+1:] {
		stride *= v
	}
	line := make([]float64, n)
	field := make([]float64, n)
	for k := 0; k < n; k++ {
		line[k] = abs[start+k*stride]
		field[k] = real(z[start+k*stride])
	}
	ax := fd.Axes[dim]
	kpeak := floats.MaxIdx(line)
	ret := &Laser{
		Iteration:  it,
		Time:       fd.Time,
		PeakField:  abs[peak],
		Duration:   fwhm(line, kpeak) * ax.Spacing / units.C,
		Wavelength: centralWavelength(field, ax.Spacing),
		Position:   ax.Min + float64(kpeak)*ax.Spacing,
	}
	if lambda0 <= 0 {
		lambda0 = ret.Wavelength
	}
	ret.A0 = A0(ret.PeakField, lambda0)
	return ret, nil
}

//LaserEvolution computes the laser parameters at each iteration in its, in
//parallel, with columns LaserColumns.
func LaserEvolution(env *pic.EnvelopeField, its []int, lambda0 float64, workers int) *Evolution {
	return Stack(its, workers, LaserColumns, func(it int) ([]float64, error) {
		l, err := LaserParameters(env, it, lambda0)
		if err != nil {
			return nil, err
		}
		return l.Values(), nil
	})
}
