/*
 * config_test.go, part of gopic.
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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/h5"
	"github.com/rmera/gopic/units"
)

const testFormat = "configtest"

//line is a 1D Ez with values 1, 2 and 3 V/m at iteration 0.
type line struct{}

func (line) Iterations() []int      { return []int{0} }
func (line) Geometry() pic.Geometry { return pic.OneD }
func (line) Units() string          { return units.EField }

func (line) Grid(it int) (*pic.Grid, error) {
	return &pic.Grid{
		Axes:      []pic.Axis{{Label: "z", Units: "m", Spacing: 1e-6, N: 3}},
		TimeUnits: "s",
		Units:     units.EField,
	}, nil
}

func (line) ReadArray(it int, sel *pic.Hyperslab) (*pic.Array, error) {
	return &pic.Array{Shape: []int{3}, Data: h5.Extract([]float64{1, 2, 3}, []int{3}, sel)}, nil
}

type scanner struct {
	cfg pic.FormatConfig
}

func (S *scanner) Scan() ([]pic.Field, []pic.ParticleSpecies, error) {
	return []pic.Field{pic.NewField("E", "z", line{}, units.NewTable())}, nil, nil
}

func init() {
	pic.RegisterFormat(testFormat, func(path string, cfg pic.FormatConfig) (pic.Scanner, error) {
		return &scanner{cfg: cfg}, nil
	})
}

func TestLoad(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "run.toml")
	data := `
format = "configtest"
path = "/nowhere"
plasma_density = 1e24
lambda_0 = 0.8e-6
derived_fields = ["I"]
log_level = "debug"

[params]
a0 = 2.5
`
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		Te.Fatal(err)
	}
	c, err := Load(name)
	if err != nil {
		Te.Fatal(err)
	}
	p := c.Parameters()
	if p["lambda_0"] != 0.8e-6 || p["a0"] != 2.5 || c.PlasmaDensity != 1e24 {
		Te.Errorf("wrong parameters %v %+v", p, c)
	}
	logger, err := c.Logger()
	if err != nil {
		Te.Fatal(err)
	}
	dc, err := c.Container(h5.MemOpener(nil), logger, pic.WithFS(fstest.MapFS{}))
	if err != nil {
		Te.Fatal(err)
	}
	if l, err := dc.Params().Get("lambda_0"); err != nil || l != 0.8e-6 {
		Te.Errorf("lambda_0 not passed to the container: %g %v", l, err)
	}
	f, err := dc.Field("I")
	if err != nil {
		Te.Fatalf("derived field not added: %v, fields %v", err, dc.FieldNames())
	}
	fd, err := f.Data(0, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if want := units.Epsilon0 * units.C / 2 * 9; fd.Array.At(2) != want {
		Te.Errorf("wrong intensity %g, want %g", fd.Array.At(2), want)
	}
}

func TestDecodeErrors(Te *testing.T) {
	for _, v := range []struct {
		data, msg string
	}{
		{`format = "osiris"` + "\n" + `plasma_densty = 1e24`, "plasma_densty"},
		{`path = "/x"`, "no format"},
		{`format = "osiris"` + "\n" + `derived_fields = ["Q"]`, "unknown derived field Q"},
		{`format = "osiris"` + "\n" + `log_level = "loud"`, "loud"},
		{`format = "osiris"` + "\n" + `plasma_density = -1.0`, "negative"},
		{`format = `, ""},
	} {
		_, err := Decode(v.data)
		if err == nil || !strings.Contains(err.Error(), v.msg) {
			Te.Errorf("%q: expected an error with %q, got %v", v.data, v.msg, err)
		}
	}
	c, err := Decode(`format = "nope"`)
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := c.Container(h5.MemOpener(nil), nil); !errors.Is(err, pic.ErrNotFound) {
		Te.Errorf("unknown formats should fail with ErrNotFound, got %v", err)
	}
	c.Format = testFormat
	c.DerivedFields = []string{"a"}
	dc, err := c.Container(h5.MemOpener(nil), nil, pic.WithFS(fstest.MapFS{}))
	if err != nil {
		Te.Fatal(err)
	}
	a, err := dc.Field("a")
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := a.Data(0, nil); err == nil {
		Te.Error("a without lambda_0 should fail")
	}
}
