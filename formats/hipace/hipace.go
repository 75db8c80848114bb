/*
 * hipace.go, part of gopic.
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

//Package hipace reads the DATA folder of the legacy HiPACE code. Importing it
//registers the "hipace" format.
//
//Legacy HiPACE writes no unit strings. All data is normalized to the plasma
//density, which must be given with pic.WithPlasmaDensity to get SI data.
package hipace

import (
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/formats"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
	"go.uber.org/zap"
)

//Tag is the name the format is registered with.
const Tag = "hipace"

func init() {
	pic.RegisterFormat(Tag, New)
}

type fieldName struct {
	name, component string
	native, si      string
}

//fieldNames translates the HiPACE field names. In the co-moving frame HiPACE
//writes the transverse wakefields Ex-By and Ey+Bx, which are reported as Ex and Ey.
var fieldNames = map[string]fieldName{
	"Ez":    {"E", "z", "E_0", units.EField},
	"ExmBy": {"E", "x", "E_0", units.EField},
	"EypBx": {"E", "y", "E_0", units.EField},
	"Bx":    {"B", "x", "E_0/c", units.BField},
	"By":    {"B", "y", "E_0/c", units.BField},
	"Bz":    {"B", "z", "E_0/c", units.BField},
	"Jz":    {"J", "z", "en_0c", units.CurrentDensity},
}

//rawNames translates the datasets of the raw files, and gives their native units.
var rawNames = map[string][2]string{
	"x1": {"z", "1/k_p"},
	"x2": {"x", "1/k_p"},
	"x3": {"y", "1/k_p"},
	"p1": {"pz", "m_e*c"},
	"p2": {"px", "m_e*c"},
	"p3": {"py", "m_e*c"},
	"q":  {"q", "e"},
}

//axisLabels are the labels of x1, x2 and x3.
var axisLabels = []string{"z", "x", "y"}

var (
	fieldFile = regexp.MustCompile(`^field_(.+)_(\d+)\.h5$`)
	rawFile   = regexp.MustCompile(`^raw_(.+)_(\d+)\.h5$`)
)

//lookup translates a native field name, rho_<species> included.
func lookup(native string) (fieldName, bool) {
	if fn, ok := fieldNames[native]; ok {
		return fn, true
	}
	if native == "rho" || strings.HasPrefix(native, "rho_") {
		return fieldName{native, "", "en_0", units.ChargeDensity}, true
	}
	return fieldName{}, false
}

//Scanner finds the fields and species in the DATA folder of a HiPACE run.
type Scanner struct {
	path   string
	cfg    pic.FormatConfig
	conv   *units.Table
	logger *zap.Logger
}

//New returns the Scanner for the simulation folder path (the one containing DATA).
func New(path string, cfg pic.FormatConfig) (pic.Scanner, error) {
	if err := formats.CheckConfig(Tag, cfg); err != nil {
		return nil, err
	}
	return &Scanner{
		path:   path,
		cfg:    cfg,
		conv:   units.NewHipace(units.WithPlasmaDensity(cfg.PlasmaDensity)),
		logger: formats.Logger(cfg.Logger, Tag),
	}, nil
}

//series groups the files of DATA by quantity, matching re.
func series(fsys fs.FS, re *regexp.Regexp) (map[string]map[int]string, []string, error) {
	snaps, err := formats.Snapshots(fsys, "DATA/*.h5")
	if err != nil {
		return nil, nil, err
	}
	ret := map[string]map[int]string{}
	var order []string
	for _, sn := range snaps {
		m := re.FindStringSubmatch(path.Base(sn.Path))
		if m == nil {
			continue
		}
		it, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if ret[m[1]] == nil {
			ret[m[1]] = map[int]string{}
			order = append(order, m[1])
		}
		ret[m[1]][it] = sn.Path
	}
	sort.Strings(order)
	return ret, order, nil
}

func (S *Scanner) Scan() ([]pic.Field, []pic.ParticleSpecies, error) {
	fseries, forder, err := series(S.cfg.FS, fieldFile)
	if err != nil {
		return nil, nil, formats.NewError(Tag, "DATA", formats.ReadError, err)
	}
	var fields []pic.Field
	for _, native := range forder {
		fn, ok := lookup(native)
		if !ok {
			S.logger.Warn("field skipped", zap.Error(formats.Unknown(Tag, "", native)))
			continue
		}
		files := fseries[native]
		geom, err := S.geometry(files, native)
		if err != nil {
			return nil, nil, err
		}
		r := &formats.SeriesField{
			Format:  Tag,
			Opener:  S.cfg.Opener,
			Files:   files,
			Dataset: "/" + native,
			Geom:    geom,
			SI:      fn.si,
			GridOf:  gridOf(fn.native),
		}
		fields = append(fields, pic.NewField(fn.name, fn.component, r, S.conv))
	}
	rseries, rorder, err := series(S.cfg.FS, rawFile)
	if err != nil {
		return nil, nil, formats.NewError(Tag, "DATA", formats.ReadError, err)
	}
	var species []pic.ParticleSpecies
	for _, sp := range rorder {
		s, err := S.species(sp, rseries[sp])
		if err != nil {
			return nil, nil, err
		}
		species = append(species, s)
	}
	S.logger.Debug("scan done", zap.Int("fields", len(fields)), zap.Int("species", len(species)))
	return fields, species, nil
}

func first(files map[int]string) string {
	return files[formats.Iterations(files)[0]]
}

func (S *Scanner) geometry(files map[int]string, native string) (pic.Geometry, error) {
	name := first(files)
	s, err := S.cfg.Opener(name)
	if err != nil {
		return "", formats.NewError(Tag, name, formats.UnableToOpen, err)
	}
	defer s.Close()
	shape, err := s.Shape("/" + native)
	if err != nil {
		return "", formats.NewError(Tag, name, formats.ReadError, err)
	}
	switch len(shape) {
	case 2:
		return pic.Cartesian2D, nil
	case 3:
		return pic.Cartesian3D, nil
	}
	return "", formats.NewError(Tag, name, formats.WrongFormat+": fields must be 2D or 3D", nil)
}

func timeOf(s h5.Store) (float64, string, error) {
	t, err := h5.FloatAttr(s, "/", "TIME")
	return t, "1/w_p", err
}

//gridOf returns the function reading the grid of a field in the native unit u.
//Arrays are stored (x3, x2, x1), with the box limits in XMIN and XMAX and the
//number of cells in NX, all ordered (x1, x2, x3).
func gridOf(u string) func(s h5.Store, ds string) (*pic.Grid, error) {
	return func(s h5.Store, ds string) (*pic.Grid, error) {
		shape, err := s.Shape(ds)
		if err != nil {
			return nil, err
		}
		t, tu, err := timeOf(s)
		if err != nil {
			return nil, err
		}
		xmin, err := h5.FloatsAttr(s, "/", "XMIN")
		if err != nil {
			return nil, err
		}
		xmax, err := h5.FloatsAttr(s, "/", "XMAX")
		if err != nil {
			return nil, err
		}
		nx, err := h5.FloatsAttr(s, "/", "NX")
		if err != nil {
			return nil, err
		}
		nd := len(shape)
		if len(xmin) < nd || len(xmax) < nd || len(nx) < nd {
			return nil, formats.NewError(Tag, "", formats.MissingAttr+": XMIN, XMAX and NX need one value per dimension", nil)
		}
		g := &pic.Grid{Time: t, TimeUnits: tu, Units: u}
		for dim := 0; dim < nd; dim++ {
			n := nd - 1 - dim
			if int(nx[n]) != shape[dim] {
				return nil, formats.NewError(Tag, "", formats.WrongFormat+": NX doesn't match the data", nil)
			}
			sp := (xmax[n] - xmin[n]) / nx[n]
			g.Axes = append(g.Axes, pic.Axis{Label: axisLabels[n], Units: "1/k_p", Min: xmin[n] + sp/2, Spacing: sp, N: shape[dim]})
		}
		return g, nil
	}
}

func (S *Scanner) species(sp string, files map[int]string) (pic.ParticleSpecies, error) {
	name := first(files)
	s, err := S.cfg.Opener(name)
	if err != nil {
		return nil, formats.NewError(Tag, name, formats.UnableToOpen, err)
	}
	defer s.Close()
	children, err := s.Children("/")
	if err != nil {
		return nil, formats.NewError(Tag, name, formats.ReadError, err)
	}
	r := &formats.SeriesSpecies{
		Format:   Tag,
		Opener:   S.cfg.Opener,
		Files:    files,
		Datasets: map[string]string{},
		UnitsOf: func(_ h5.Store, ds string) (string, error) {
			return rawNames[strings.TrimPrefix(ds, "/")][1], nil
		},
		TimeOf: timeOf,
	}
	for _, c := range children {
		if s.Kind("/"+c) != h5.Dataset {
			continue
		}
		rn, ok := rawNames[c]
		if !ok {
			S.logger.Warn("dataset skipped", zap.String("species", sp), zap.Error(formats.Unknown(Tag, name, c)))
			continue
		}
		r.Datasets[rn[0]] = "/" + c
	}
	return pic.NewSpecies(sp, r, S.conv), nil
}
