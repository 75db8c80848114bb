/*
 * osiris.go, part of gopic.
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

//Package osiris reads the MS/ folder written by OSIRIS: grid fields in MS/FLD,
//species densities in MS/DENSITY and particle dumps in MS/RAW. Importing it
//registers the "osiris" format.
//
//OSIRIS writes normalized units, so the plasma density is needed to get SI
//data (pic.WithPlasmaDensity).
package osiris

import (
	"path"
	"strconv"
	"strings"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/formats"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
	"go.uber.org/zap"
)

//Tag is the name the format is registered with.
const Tag = "osiris"

func init() {
	pic.RegisterFormat(Tag, New)
}

type fieldName struct {
	name, component, units string
}

//fieldNames translates the OSIRIS field names.
var fieldNames = map[string]fieldName{
	"e1":     {"E", "z", units.EField},
	"e2":     {"E", "x", units.EField},
	"e3":     {"E", "y", units.EField},
	"b1":     {"B", "z", units.BField},
	"b2":     {"B", "x", units.BField},
	"b3":     {"B", "y", units.BField},
	"j1":     {"J", "z", units.CurrentDensity},
	"j2":     {"J", "x", units.CurrentDensity},
	"j3":     {"J", "y", units.CurrentDensity},
	"charge": {"rho", "", units.ChargeDensity},
}

//rawNames translates the datasets of the RAW files.
var rawNames = map[string]string{
	"x1":  "z",
	"x2":  "x",
	"x3":  "y",
	"p1":  "pz",
	"p2":  "px",
	"p3":  "py",
	"q":   "q",
	"ene": "ekin",
	"tag": "tag",
}

//axisLabels are the labels of x1, x2 and x3.
var axisLabels = []string{"z", "x", "y"}

//Scanner finds the fields and species in an OSIRIS MS folder.
type Scanner struct {
	path   string
	cfg    pic.FormatConfig
	conv   *units.Table
	logger *zap.Logger
}

//New returns the Scanner for the simulation folder path (the one containing MS).
func New(path string, cfg pic.FormatConfig) (pic.Scanner, error) {
	if err := formats.CheckConfig(Tag, cfg); err != nil {
		return nil, err
	}
	return &Scanner{
		path:   path,
		cfg:    cfg,
		conv:   units.NewOsiris(units.WithPlasmaDensity(cfg.PlasmaDensity)),
		logger: formats.Logger(cfg.Logger, Tag),
	}, nil
}

func (S *Scanner) Scan() ([]pic.Field, []pic.ParticleSpecies, error) {
	var fields []pic.Field
	fld, err := formats.Dirs(S.cfg.FS, "MS/FLD")
	if err == nil {
		for _, d := range fld {
			f, err := S.field(path.Join("MS/FLD", d), d, "")
			if err != nil {
				S.logger.Warn("field folder skipped", zap.String("folder", d), zap.Error(err))
				continue
			}
			if f != nil {
				fields = append(fields, f)
			}
		}
	}
	dens, err := formats.Dirs(S.cfg.FS, "MS/DENSITY")
	if err == nil {
		for _, sp := range dens {
			quantities, err := formats.Dirs(S.cfg.FS, path.Join("MS/DENSITY", sp))
			if err != nil {
				return nil, nil, formats.NewError(Tag, path.Join("MS/DENSITY", sp), formats.ReadError, err)
			}
			for _, q := range quantities {
				f, err := S.field(path.Join("MS/DENSITY", sp, q), q, sp)
				if err != nil {
					S.logger.Warn("density folder skipped", zap.String("species", sp), zap.String("folder", q), zap.Error(err))
					continue
				}
				if f != nil {
					fields = append(fields, f)
				}
			}
		}
	}
	var species []pic.ParticleSpecies
	raw, err := formats.Dirs(S.cfg.FS, "MS/RAW")
	if err == nil {
		for _, sp := range raw {
			s, err := S.species(sp)
			if err != nil {
				return nil, nil, err
			}
			if s != nil {
				species = append(species, s)
			}
		}
	}
	S.logger.Debug("scan done", zap.Int("fields", len(fields)), zap.Int("species", len(species)))
	return fields, species, nil
}

//field builds the field in the folder dir, holding the quantity q. species is
//the species of density fields, empty for the fields in FLD. A nil field
//without error means the folder has no files.
func (S *Scanner) field(dir, q, species string) (pic.Field, error) {
	fn, ok := fieldNames[q]
	if !ok {
		return nil, formats.Unknown(Tag, dir, q)
	}
	if species != "" {
		//only charge densities are per species.
		if fn.name != "rho" {
			return nil, formats.Unknown(Tag, dir, q)
		}
		fn.name = "rho_" + species
	}
	snaps, err := formats.Snapshots(S.cfg.FS, path.Join(dir, "*.h5"))
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	files := make(map[int]string, len(snaps))
	for _, sn := range snaps {
		files[sn.Iteration] = sn.Path
	}
	geom, err := S.geometry(snaps[0].Path, q)
	if err != nil {
		return nil, err
	}
	r := &formats.SeriesField{
		Format:  Tag,
		Opener:  S.cfg.Opener,
		Files:   files,
		Dataset: "/" + q,
		Geom:    geom,
		SI:      fn.units,
		GridOf:  grid,
	}
	return pic.NewField(fn.name, fn.component, r, S.conv), nil
}

//geometry opens the first file of a series to get the dimensionality of the data.
func (S *Scanner) geometry(name, q string) (pic.Geometry, error) {
	s, err := S.cfg.Opener(name)
	if err != nil {
		return "", formats.NewError(Tag, name, formats.UnableToOpen, err)
	}
	defer s.Close()
	shape, err := s.Shape("/" + q)
	if err != nil {
		return "", formats.NewError(Tag, name, formats.ReadError, err)
	}
	switch len(shape) {
	case 1:
		return pic.OneD, nil
	case 2:
		if c, err := h5.StringAttr(s, "/", "COORDINATES"); err == nil && strings.EqualFold(c, "cylindrical") {
			return pic.Cylindrical2D, nil
		}
		return pic.Cartesian2D, nil
	case 3:
		return pic.Cartesian3D, nil
	}
	return "", formats.NewError(Tag, name, formats.WrongFormat+": data must have 1 to 3 dimensions", nil)
}

//timeOf reads the TIME and TIME UNITS attributes of the root group.
func timeOf(s h5.Store) (float64, string, error) {
	t, err := h5.FloatAttr(s, "/", "TIME")
	if err != nil {
		return 0, "", err
	}
	u, err := h5.StringAttr(s, "/", "TIME UNITS")
	if err != nil {
		u = "1 / \\omega_p"
	}
	return t, u, nil
}

//unitsOf reads the UNITS attribute of a dataset.
func unitsOf(s h5.Store, ds string) (string, error) {
	u, err := h5.StringAttr(s, ds, "UNITS")
	if err != nil {
		return "", err
	}
	return u, nil
}

//grid reads the axes in AXIS/AXISn. OSIRIS stores x1 as the fastest index, so
//the array dimensions are (x3, x2, x1) and the axes are listed backwards.
//Axis values are cell centres.
func grid(s h5.Store, ds string) (*pic.Grid, error) {
	shape, err := s.Shape(ds)
	if err != nil {
		return nil, err
	}
	t, tu, err := timeOf(s)
	if err != nil {
		return nil, err
	}
	u, err := unitsOf(s, ds)
	if err != nil {
		return nil, err
	}
	cyl := false
	if c, err := h5.StringAttr(s, "/", "COORDINATES"); err == nil && strings.EqualFold(c, "cylindrical") {
		cyl = true
	}
	g := &pic.Grid{Time: t, TimeUnits: tu, Units: u}
	nd := len(shape)
	for dim := 0; dim < nd; dim++ {
		n := nd - dim //OSIRIS axis number
		ap := h5.Join("AXIS", "AXIS"+strconv.Itoa(n))
		ext, _, err := s.Read(ap, nil)
		if err != nil {
			return nil, err
		}
		if len(ext) != 2 {
			return nil, formats.NewError(Tag, "", formats.WrongFormat+": "+ap+" should hold the axis limits", nil)
		}
		au, err := unitsOf(s, ap)
		if err != nil {
			return nil, err
		}
		label := axisLabels[n-1]
		if cyl && n == 2 {
			label = "r"
		}
		sp := (ext[1] - ext[0]) / float64(shape[dim])
		g.Axes = append(g.Axes, pic.Axis{Label: label, Units: au, Min: ext[0] + sp/2, Spacing: sp, N: shape[dim]})
	}
	return g, nil
}

//species builds the species with files in MS/RAW/sp. It returns nil if there are none.
func (S *Scanner) species(sp string) (pic.ParticleSpecies, error) {
	dir := path.Join("MS/RAW", sp)
	snaps, err := formats.Snapshots(S.cfg.FS, path.Join(dir, "*.h5"))
	if err != nil {
		return nil, formats.NewError(Tag, dir, formats.ReadError, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	files := make(map[int]string, len(snaps))
	for _, sn := range snaps {
		files[sn.Iteration] = sn.Path
	}
	s, err := S.cfg.Opener(snaps[0].Path)
	if err != nil {
		return nil, formats.NewError(Tag, snaps[0].Path, formats.UnableToOpen, err)
	}
	defer s.Close()
	names, err := s.Children("/")
	if err != nil {
		return nil, formats.NewError(Tag, snaps[0].Path, formats.ReadError, err)
	}
	r := &formats.SeriesSpecies{
		Format:   Tag,
		Opener:   S.cfg.Opener,
		Files:    files,
		Datasets: map[string]string{},
		UnitsOf: func(s h5.Store, ds string) (string, error) {
			if ds == "/tag" {
				return "", nil
			}
			return unitsOf(s, ds)
		},
		TimeOf: timeOf,
	}
	for _, n := range names {
		if s.Kind("/"+n) != h5.Dataset {
			continue
		}
		c, ok := rawNames[n]
		if !ok {
			S.logger.Warn("dataset skipped", zap.String("species", sp), zap.Error(formats.Unknown(Tag, snaps[0].Path, n)))
			continue
		}
		if n == "tag" {
			//tags are (node, id) pairs.
			shape, err := s.Shape("/tag")
			if err != nil || len(shape) != 2 {
				continue
			}
			r.Column = map[string]int{"tag": 1}
		}
		r.Datasets[c] = "/" + n
	}
	return pic.NewSpecies(sp, r, S.conv), nil
}
