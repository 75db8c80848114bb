/*
 * json_test.go, part of gopic.
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

package picjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/gopic"
)

func field() *pic.FieldData {
	arr := pic.NewArray(2, 3)
	for i := range arr.Data {
		arr.Data[i] = float64(i) * 1.5e9
	}
	arr.Data[4] = math.NaN()
	arr.Data[5] = math.Inf(-1)
	return &pic.FieldData{
		Name:      "E",
		Component: "z",
		Array:     arr,
		Metadata: pic.Metadata{
			Iteration: 300,
			Time:      1.25e-13,
			TimeUnits: "s",
			Units:     "V/m",
			Geometry:  pic.Cartesian2D,
			Axes: []pic.Axis{
				{Label: "x", Units: "m", Min: -1e-6, Spacing: 1e-6, N: 2},
				{Label: "z", Units: "m", Min: 0, Spacing: 0.5e-6, N: 3},
			},
		},
	}
}

func sameField(Te *testing.T, got, want *pic.FieldData) {
	Te.Helper()
	if got.Name != want.Name || got.Component != want.Component || got.Iteration != want.Iteration || got.Time != want.Time {
		Te.Errorf("wrong header %+v", got)
	}
	if got.Geometry != want.Geometry || got.Units != want.Units || len(got.Axes) != 2 || got.Axes[1] != want.Axes[1] {
		Te.Errorf("wrong metadata %+v", got.Metadata)
	}
	if !got.Array.SameShape(want.Array) {
		Te.Fatalf("wrong shape %v", got.Array.Shape)
	}
	for i, v := range want.Array.Data {
		g := got.Array.Data[i]
		if g != v && !(math.IsNaN(g) && math.IsNaN(v)) {
			Te.Errorf("value %d is %g, want %g", i, g, v)
		}
	}
}

func TestFieldRoundTrip(Te *testing.T) {
	fd := field()
	var buf bytes.Buffer
	if err := WriteField(fd, &buf); err != nil {
		Te.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		Te.Errorf("a header and a values line expected, got %d lines", n)
	}
	got, err := ReadField(bufio.NewReader(&buf))
	if err != nil {
		Te.Fatal(err)
	}
	sameField(Te, got, fd)

	fd.Array = nil
	buf.Reset()
	if err := WriteField(fd, &buf); err != nil {
		Te.Fatal(err)
	}
	got, err = ReadField(bufio.NewReader(&buf))
	if err != nil || got.Array != nil || got.Iteration != 300 {
		Te.Errorf("metadata-only data not kept: %+v %v", got, err)
	}
}

func TestCompressedFiles(Te *testing.T) {
	dir := Te.TempDir()
	for _, name := range []string{"e.json", "e.json.zst", "e.json.gz"} {
		path := filepath.Join(dir, name)
		w, err := Create(path)
		if err != nil {
			Te.Fatal(err)
		}
		if err := WriteField(field(), w); err != nil {
			Te.Fatal(err)
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, c, err := Open(path)
		if err != nil {
			Te.Fatal(err)
		}
		got, err := ReadField(r)
		c.Close()
		if err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		sameField(Te, got, field())
	}
	_, _, err := Open(filepath.Join(dir, "missing.zst"))
	var jerr *Error
	if !errors.As(err, &jerr) || !jerr.InOpen {
		Te.Errorf("expected an open error, got %v", err)
	}
}

func TestParticlesRoundTrip(Te *testing.T) {
	pd := pic.NewParticleData("electrons", 10, 3e-14, "s")
	for _, c := range []*pic.ComponentData{
		{Name: "z", Units: "m", Data: []float64{1e-6, 2e-6, 3e-6}},
		{Name: "pz", Units: "m_e*c", Data: []float64{10, math.NaN(), 30}},
		{Name: "q", Units: "C", Data: []float64{-1e-15, -1e-15, -2e-15}},
	} {
		if err := pd.Add(c); err != nil {
			Te.Fatal(err)
		}
	}
	if err := pd.Add(&pic.ComponentData{Name: "x", Data: []float64{1}}); err == nil {
		Te.Error("a component of the wrong length should be rejected")
	}
	var buf bytes.Buffer
	if err := WriteParticles(pd, &buf); err != nil {
		Te.Fatal(err)
	}
	got, err := ReadParticles(bufio.NewReader(&buf))
	if err != nil {
		Te.Fatal(err)
	}
	if got.Species != "electrons" || got.Iteration != 10 || got.Len() != 3 {
		Te.Errorf("wrong header %+v", got)
	}
	if names := got.Names(); len(names) != 3 || names[0] != "z" || names[2] != "q" {
		Te.Errorf("component order lost: %v", names)
	}
	if c, _ := got.Get("pz"); c.Units != "m_e*c" || !math.IsNaN(c.Data[1]) || c.Data[2] != 30 {
		Te.Errorf("wrong pz %+v", c)
	}
	if q, err := got.Q(); err != nil || q[2] != -2e-15 {
		Te.Errorf("wrong charges %v %v", q, err)
	}
}

func TestReadErrors(Te *testing.T) {
	in := `{"Name":"E","Shape":[2,2]}` + "\n" + `{"Values":[1,2,3]}` + "\n"
	_, err := ReadField(bufio.NewReader(strings.NewReader(in)))
	var jerr *Error
	if !errors.As(err, &jerr) || !jerr.InRead || jerr.Function != "ReadField" {
		Te.Fatalf("expected a read error, got %v", err)
	}
	back := new(Error)
	if err := json.Unmarshal(jerr.Marshal(), back); err != nil || back.Message != jerr.Message || !back.IsError {
		Te.Errorf("error didn't survive serialization: %+v %v", back, err)
	}
	_, err = ReadParticles(bufio.NewReader(strings.NewReader(`{"Species":"e","Particles":1,"Components":[{"Name":"z"}]}` + "\n" + `{"Values":["oops"]}`)))
	if err == nil {
		Te.Error("invalid values should fail")
	}
}
