/*
 * doc.go, part of gopic.
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

/*Package pic gives uniform access to the output of particle-in-cell simulations.

A DataContainer catalogues the fields and particle species found in one simulation
directory. Fields return their data for one iteration as an Array plus Metadata, with
everything in SI units: the arrays, the grid axes (in metres) and the time (in
seconds). Particle momenta are the exception, they are given in m_e*c.

The on-disk layouts are implemented in the formats/ packages, which register
themselves when imported:

	import (
		"github.com/rmera/gopic"
		_ "github.com/rmera/gopic/formats/openpmd"
		"github.com/rmera/gopic/h5/native"
	)

	dc, err := pic.NewDataContainer("openpmd", dir, pic.WithOpener(native.Opener(dir)))
	...
	err = dc.LoadData(false)
	ez, err := dc.Field("E", "z")
	fd, err := ez.Data(100, &pic.FieldRequest{SliceAcross: []string{"x"}})

Fields can be sliced across any axis, and thetaMode fields are reconstructed on a
plane or on a 3D cartesian box. Derived fields (Intensity, VectorPotential, or any
DerivedFieldDefinition) are computed from the base fields, and EnvelopeField gives
the envelope of a laser pulse.
*/
package pic
