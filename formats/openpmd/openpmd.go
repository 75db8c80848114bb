/*
 * openpmd.go, part of gopic.
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

//Package openpmd reads openPMD data written with file-based iteration encoding:
//one HDF5 file per iteration in the simulation directory. Importing it registers
//the "openpmd" format.
package openpmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/formats"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
	"go.uber.org/zap"
)

//Tag is the name the format is registered with.
const Tag = "openpmd"

func init() {
	pic.RegisterFormat(Tag, New)
}

//meshUnits are the SI units of the usual meshes.
var meshUnits = map[string]string{
	"E":   units.EField,
	"B":   units.BField,
	"J":   units.CurrentDensity,
	"rho": units.ChargeDensity,
}

//unitDimensions maps the powers of (L, M, T, I, theta, N, J) to the units of meshes
//not in meshUnits.
var unitDimensions = map[[7]float64]string{
	{1, 1, -3, -1, 0, 0, 0}: units.EField,
	{0, 1, -2, -1, 0, 0, 0}: units.BField,
	{-2, 0, 0, 1, 0, 0, 0}:  units.CurrentDensity,
	{-3, 0, 1, 1, 0, 0, 0}:  units.ChargeDensity,
	{-3, 0, 0, 0, 0, 0, 0}:  units.NumberDensity,
	{0, 1, -3, 0, 0, 0, 0}:  units.Intensity,
	{0, 0, 0, 0, 0, 0, 0}:   units.Dimensionless,
}

//particle components: canonical name, record and component on disk, and SI unit of the data.
var particleRecords = []struct {
	name, record, component, units string
}{
	{"x", "position", "x", units.Length},
	{"y", "position", "y", units.Length},
	{"z", "position", "z", units.Length},
	{"r", "position", "r", units.Length},
	{"px", "momentum", "x", units.Momentum},
	{"py", "momentum", "y", units.Momentum},
	{"pz", "momentum", "z", units.Momentum},
	{"pr", "momentum", "r", units.Momentum},
	{"w", "weighting", "", units.Dimensionless},
	{"charge", "charge", "", units.Charge},
	{"mass", "mass", "", units.Mass},
	{"id", "id", "", units.Dimensionless},
}

//Scanner finds the meshes and species of an openPMD directory.
type Scanner struct {
	path   string
	cfg    pic.FormatConfig
	conv   *units.Table
	logger *zap.Logger
}

//New returns the Scanner for the directory path, read through cfg.
func New(path string, cfg pic.FormatConfig) (pic.Scanner, error) {
	if err := formats.CheckConfig(Tag, cfg); err != nil {
		return nil, err
	}
	return &Scanner{
		path:   path,
		cfg:    cfg,
		conv:   units.NewPassthrough(units.WithPlasmaDensity(cfg.PlasmaDensity)),
		logger: formats.Logger(cfg.Logger, Tag),
	}, nil
}

//layout holds the paths of one file.
type layout struct {
	base      string
	meshes    string
	particles string
}

func basePath(s h5.Store, it int) string {
	bp, err := h5.StringAttr(s, "/", "basePath")
	if err != nil {
		bp = "/data/%T/"
	}
	return h5.Join(strings.ReplaceAll(bp, "%T", strconv.Itoa(it)))
}

func readLayout(s h5.Store, it int) layout {
	l := layout{base: basePath(s, it)}
	if mp, err := h5.StringAttr(s, "/", "meshesPath"); err == nil {
		l.meshes = h5.Join(l.base, mp)
	}
	if pp, err := h5.StringAttr(s, "/", "particlesPath"); err == nil {
		l.particles = h5.Join(l.base, pp)
	}
	return l
}

//open opens the file of an iteration, and reads its layout.
func open(cfg pic.FormatConfig, name string, it int) (h5.Store, layout, error) {
	s, err := cfg.Opener(name)
	if err != nil {
		return nil, layout{}, formats.NewError(Tag, name, formats.UnableToOpen, err)
	}
	return s, readLayout(s, it), nil
}

type meshInfo struct {
	geom   pic.Geometry
	units  string
	comps  []string
	scalar bool
	files  map[int]string
}

type speciesInfo struct {
	comps map[string]bool
	files map[int]string
}

//Scan opens every file once and builds the catalogue.
func (S *Scanner) Scan() ([]pic.Field, []pic.ParticleSpecies, error) {
	snaps, err := formats.Snapshots(S.cfg.FS, "*.h5")
	if err != nil {
		return nil, nil, formats.NewError(Tag, S.path, formats.ReadError, err)
	}
	meshes := map[string]*meshInfo{}
	var meshOrder []string
	species := map[string]*speciesInfo{}
	var speciesOrder []string
	for _, sn := range snaps {
		s, l, err := open(S.cfg, sn.Path, sn.Iteration)
		if err != nil {
			return nil, nil, err
		}
		if l.meshes != "" && s.Kind(l.meshes) == h5.Group {
			names, err := s.Children(l.meshes)
			if err != nil {
				s.Close()
				return nil, nil, formats.NewError(Tag, sn.Path, formats.ReadError, err)
			}
			for _, n := range names {
				m, ok := meshes[n]
				if !ok {
					m, err = S.meshInfo(s, h5.Join(l.meshes, n), n)
					if err != nil {
						S.logger.Warn("mesh skipped", zap.String("mesh", n), zap.String("file", sn.Path), zap.Error(err))
						continue
					}
					meshes[n] = m
					meshOrder = append(meshOrder, n)
				}
				m.files[sn.Iteration] = sn.Path
			}
		}
		if l.particles != "" && s.Kind(l.particles) == h5.Group {
			names, err := s.Children(l.particles)
			if err != nil {
				s.Close()
				return nil, nil, formats.NewError(Tag, sn.Path, formats.ReadError, err)
			}
			for _, n := range names {
				sp, ok := species[n]
				if !ok {
					sp = &speciesInfo{comps: speciesComponents(s, h5.Join(l.particles, n)), files: map[int]string{}}
					species[n] = sp
					speciesOrder = append(speciesOrder, n)
				}
				sp.files[sn.Iteration] = sn.Path
			}
		}
		s.Close()
	}
	var fields []pic.Field
	for _, n := range meshOrder {
		m := meshes[n]
		its := formats.Iterations(m.files)
		if m.scalar {
			r := &meshReader{cfg: S.cfg, mesh: n, geom: m.geom, units: m.units, files: m.files, its: its}
			fields = append(fields, pic.NewField(n, "", r, S.conv))
			continue
		}
		for _, c := range m.comps {
			r := &meshReader{cfg: S.cfg, mesh: n, component: c, geom: m.geom, units: m.units, files: m.files, its: its}
			fields = append(fields, pic.NewField(n, c, r, S.conv))
		}
		S.logger.Debug("mesh found", zap.String("mesh", n), zap.Strings("components", m.comps), zap.Int("iterations", len(its)))
	}
	var sps []pic.ParticleSpecies
	for _, n := range speciesOrder {
		sp := species[n]
		r := &speciesReader{cfg: S.cfg, name: n, files: sp.files, its: formats.Iterations(sp.files)}
		for _, rec := range particleRecords {
			if sp.comps[rec.name] {
				r.comps = append(r.comps, rec.name)
			}
		}
		sps = append(sps, pic.NewSpecies(n, r, S.conv))
		S.logger.Debug("species found", zap.String("species", n), zap.Strings("components", r.comps))
	}
	return fields, sps, nil
}

func (S *Scanner) meshInfo(s h5.Store, path, name string) (*meshInfo, error) {
	m := &meshInfo{files: map[int]string{}}
	kind := s.Kind(path)
	if kind == h5.Dataset || isConstant(s, path) {
		m.scalar = true
	} else {
		comps, err := s.Children(path)
		if err != nil {
			return nil, err
		}
		m.comps = comps
	}
	g, err := h5.StringAttr(s, path, "geometry")
	if err != nil {
		return nil, err
	}
	labels, err := s.Attr(path, "axisLabels")
	if err != nil {
		return nil, err
	}
	switch g {
	case "cartesian":
		switch len(labels.Strings) {
		case 1:
			m.geom = pic.OneD
		case 2:
			m.geom = pic.Cartesian2D
		case 3:
			m.geom = pic.Cartesian3D
		default:
			return nil, fmt.Errorf("%d axis labels", len(labels.Strings))
		}
	case "thetaMode":
		m.geom = pic.ThetaMode
	case "cylindrical":
		m.geom = pic.Cylindrical2D
	default:
		return nil, formats.Unknown(Tag, "", "geometry "+g)
	}
	if u, ok := meshUnits[name]; ok {
		m.units = u
		return m, nil
	}
	dim, err := h5.FloatsAttr(s, path, "unitDimension")
	if err != nil || len(dim) != 7 {
		return nil, formats.Unknown(Tag, "", name)
	}
	var key [7]float64
	copy(key[:], dim)
	u, ok := unitDimensions[key]
	if !ok {
		return nil, formats.Unknown(Tag, "", name)
	}
	m.units = u
	return m, nil
}

func isConstant(s h5.Store, path string) bool {
	_, err := s.Attr(path, "value")
	return err == nil
}

func speciesComponents(s h5.Store, path string) map[string]bool {
	ret := map[string]bool{}
	for _, rec := range particleRecords {
		p := h5.Join(path, rec.record, rec.component)
		if s.Kind(p) != h5.Missing {
			ret[rec.name] = true
		}
	}
	return ret
}

//readRecord reads a record component, constant or not, times its unitSI.
func readRecord(s h5.Store, path string, sel *h5.Selection) ([]float64, []int, error) {
	unit := 1.0
	if u, err := h5.FloatAttr(s, path, "unitSI"); err == nil {
		unit = u
	}
	var data []float64
	var shape []int
	if isConstant(s, path) {
		v, err := h5.FloatAttr(s, path, "value")
		if err != nil {
			return nil, nil, err
		}
		sh, err := h5.FloatsAttr(s, path, "shape")
		if err != nil {
			return nil, nil, err
		}
		shape = make([]int, len(sh))
		for i, x := range sh {
			shape[i] = int(x)
		}
		if sel != nil {
			if err := h5.CheckSelection(sel, shape); err != nil {
				return nil, nil, err
			}
			shape = append([]int(nil), sel.Count...)
		}
		n := 1
		for _, x := range shape {
			n *= x
		}
		data = make([]float64, n)
		for i := range data {
			data[i] = v
		}
	} else {
		var err error
		data, shape, err = s.Read(path, sel)
		if err != nil {
			return nil, nil, err
		}
	}
	if unit != 1 {
		for i := range data {
			data[i] *= unit
		}
	}
	return data, shape, nil
}

//recordShape returns the shape of a record component, constant or not.
func recordShape(s h5.Store, path string) ([]int, error) {
	if isConstant(s, path) {
		sh, err := h5.FloatsAttr(s, path, "shape")
		if err != nil {
			return nil, err
		}
		ret := make([]int, len(sh))
		for i, x := range sh {
			ret[i] = int(x)
		}
		return ret, nil
	}
	return s.Shape(path)
}

//iterationTime returns the time of the iteration in seconds.
func iterationTime(s h5.Store, base string) (float64, error) {
	t, err := h5.FloatAttr(s, base, "time")
	if err != nil {
		return 0, err
	}
	if u, err := h5.FloatAttr(s, base, "timeUnitSI"); err == nil {
		t *= u
	}
	return t, nil
}
