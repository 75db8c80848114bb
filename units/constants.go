/*
 * constants.go, part of gopic.
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

//Physical constants, CODATA 2018, SI.
const (
	C                float64 = 299792458.           // [m/s]
	ElectronMass     float64 = 9.1093837015e-31     // [kg]
	ElementaryCharge float64 = 1.602176634e-19      // [C]
	Epsilon0         float64 = 8.8541878128e-12     // [F/m]
	Mu0              float64 = 1.25663706212e-6     // [N/A^2]
	ElectronRestMass float64 = ElectronMass * C * C // [J]
)
