/*
 * geometry.go, part of gopic.
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

//Geometry is the grid geometry of a simulation.
type Geometry string

const (
	OneD          Geometry = "1d"
	Cartesian2D   Geometry = "2dcartesian"
	Cartesian3D   Geometry = "3dcartesian"
	Cylindrical2D Geometry = "2dcylindrical"
	ThetaMode     Geometry = "thetaMode"
)

//Geometries lists the supported geometries.
var Geometries = []Geometry{OneD, Cartesian2D, Cartesian3D, Cylindrical2D, ThetaMode}

//Dims returns the number of spatial dimensions stored on disk for the geometry.
//thetaMode data is stored on an (r, z) grid, so it has 2.
func (g Geometry) Dims() int {
	switch g {
	case OneD:
		return 1
	case Cartesian2D, Cylindrical2D, ThetaMode:
		return 2
	case Cartesian3D:
		return 3
	}
	return 0
}

//Valid reports whether g is one of the supported geometries.
func (g Geometry) Valid() bool {
	return g.Dims() > 0
}

//ParseGeometry returns the geometry named s.
func ParseGeometry(s string) (Geometry, error) {
	g := Geometry(s)
	if !g.Valid() {
		names := make([]string, len(Geometries))
		for i, v := range Geometries {
			names[i] = string(v)
		}
		return "", unsupported("unknown geometry '%s'. Supported: %s", s, listing(names))
	}
	return g, nil
}
