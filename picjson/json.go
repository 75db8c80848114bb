/*
 * json.go, part of gopic.
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
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rmera/gopic"
)

//An easily JSON-serializable error type.
type Error struct {
	deco     []string
	IsError  bool //If this is false (no error) all the other fields will be at their zero-values.
	InRead   bool //Was it in decoding data?
	InWrite  bool //Was it in encoding data?
	InOpen   bool //Was it in opening or creating a file?
	File     string
	Function string //which go function gave the error
	Message  string //the error itself
}

//Error implements the error interface
func (J *Error) Error() string {
	if J.File != "" {
		return J.Message + " (" + J.File + ")"
	}
	return J.Message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (J *Error) Decorate(dec string) []string {
	if dec == "" {
		return J.deco
	}
	J.deco = append(J.deco, dec)
	return J.deco
}

//Serializes the error. Panics on failure.
func (J *Error) Marshal() []byte {
	ret, err2 := json.Marshal(J)
	if err2 != nil {
		panic(strings.Join([]string{J.Error(), err2.Error()}, " - "))
	}
	return ret
}

//NewError takes an error and some additional info to create a json-marshal-able error.
//where is one of "read", "write" or "open".
func NewError(where, function string, err error) *Error {
	jerr := &Error{IsError: true, Function: function, Message: err.Error()}
	switch where {
	case "read":
		jerr.InRead = true
	case "write":
		jerr.InWrite = true
	default:
		jerr.InOpen = true
	}
	return jerr
}

//Values is a slice of floats that survives JSON encoding with non-finite elements.
type Values []float64

//MarshalJSON writes finite values as numbers and the rest as strings.
func (V Values) MarshalJSON() ([]byte, error) {
	ret := make([]byte, 0, 2+len(V)*12)
	ret = append(ret, '[')
	for i, v := range V {
		if i > 0 {
			ret = append(ret, ',')
		}
		switch {
		case math.IsNaN(v):
			ret = append(ret, `"NaN"`...)
		case math.IsInf(v, 1):
			ret = append(ret, `"+Inf"`...)
		case math.IsInf(v, -1):
			ret = append(ret, `"-Inf"`...)
		default:
			ret = strconv.AppendFloat(ret, v, 'g', -1, 64)
		}
	}
	return append(ret, ']'), nil
}

//UnmarshalJSON reads what MarshalJSON writes.
func (V *Values) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ret := make(Values, len(raw))
	for i, r := range raw {
		switch v := r.(type) {
		case float64:
			ret[i] = v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("picjson: invalid value %q at position %d", v, i)
			}
			ret[i] = f
		default:
			return fmt.Errorf("picjson: invalid value %v at position %d", r, i)
		}
	}
	*V = ret
	return nil
}

//Field is the header line of a serialized FieldData. Shape is nil
//if there is no array, in which case no values line follows.
type Field struct {
	Name      string
	Component string
	Iteration int
	Time      float64
	TimeUnits string
	Units     string
	Geometry  pic.Geometry
	Axes      []pic.Axis
	Shape     []int
}

//Component describes one of the lines that follow a Particles header.
type Component struct {
	Name  string
	Units string
}

//Particles is the header line of a serialized ParticleData.
type Particles struct {
	Species    string
	Iteration  int
	Time       float64
	TimeUnits  string
	Particles  int
	Components []Component
}

type jSONValues struct {
	Values Values
}

//WriteField encodes fd and writes it to out.
func WriteField(fd *pic.FieldData, out io.Writer) error {
	const funcname = "WriteField"
	enc := json.NewEncoder(out)
	h := &Field{
		Name:      fd.Name,
		Component: fd.Component,
		Iteration: fd.Iteration,
		Time:      fd.Time,
		TimeUnits: fd.TimeUnits,
		Units:     fd.Units,
		Geometry:  fd.Geometry,
		Axes:      fd.Axes,
	}
	if fd.Array != nil {
		h.Shape = fd.Array.Shape
	}
	if err := enc.Encode(h); err != nil {
		return NewError("write", funcname, err)
	}
	if fd.Array == nil {
		return nil
	}
	if err := enc.Encode(&jSONValues{Values: fd.Array.Data}); err != nil {
		return NewError("write", funcname, err)
	}
	return nil
}

//readLine unmarshals the next line of stream into v.
func readLine(stream *bufio.Reader, v any) error {
	line, err := stream.ReadBytes('\n') //the last line can lack the newline.
	if err != nil && (err != io.EOF || len(line) == 0) {
		return err
	}
	return json.Unmarshal(line, v)
}

//ReadField decodes a FieldData written by WriteField.
func ReadField(stream *bufio.Reader) (*pic.FieldData, error) {
	const funcname = "ReadField"
	h := new(Field)
	if err := readLine(stream, h); err != nil {
		return nil, NewError("read", funcname+"(header)", err)
	}
	ret := &pic.FieldData{
		Name:      h.Name,
		Component: h.Component,
		Metadata: pic.Metadata{
			Iteration: h.Iteration,
			Time:      h.Time,
			TimeUnits: h.TimeUnits,
			Units:     h.Units,
			Geometry:  h.Geometry,
			Axes:      h.Axes,
		},
	}
	if h.Shape == nil {
		return ret, nil
	}
	v := new(jSONValues)
	if err := readLine(stream, v); err != nil {
		return nil, NewError("read", funcname+"(values)", err)
	}
	arr := pic.NewArray(h.Shape...)
	if len(v.Values) != arr.Len() {
		return nil, NewError("read", funcname, fmt.Errorf("%d values for an array of shape %v", len(v.Values), h.Shape))
	}
	copy(arr.Data, v.Values)
	ret.Array = arr
	return ret, nil
}

//WriteParticles encodes pd and writes it to out.
func WriteParticles(pd *pic.ParticleData, out io.Writer) error {
	const funcname = "WriteParticles"
	enc := json.NewEncoder(out)
	h := &Particles{
		Species:   pd.Species,
		Iteration: pd.Iteration,
		Time:      pd.Time,
		TimeUnits: pd.TimeUnits,
		Particles: pd.Len(),
	}
	names := pd.Names()
	for _, n := range names {
		c, _ := pd.Get(n)
		h.Components = append(h.Components, Component{Name: n, Units: c.Units})
	}
	if err := enc.Encode(h); err != nil {
		return NewError("write", funcname, err)
	}
	v := new(jSONValues)
	for _, n := range names {
		v.Values = pd.Data(n)
		if err := enc.Encode(v); err != nil {
			return NewError("write", funcname+"("+n+")", err)
		}
	}
	return nil
}

//ReadParticles decodes a ParticleData written by WriteParticles.
func ReadParticles(stream *bufio.Reader) (*pic.ParticleData, error) {
	const funcname = "ReadParticles"
	h := new(Particles)
	if err := readLine(stream, h); err != nil {
		return nil, NewError("read", funcname+"(header)", err)
	}
	ret := pic.NewParticleData(h.Species, h.Iteration, h.Time, h.TimeUnits)
	for _, c := range h.Components {
		v := new(jSONValues)
		if err := readLine(stream, v); err != nil {
			return nil, NewError("read", funcname+"("+c.Name+")", err)
		}
		if len(v.Values) != h.Particles {
			return nil, NewError("read", funcname, fmt.Errorf("component %s has %d values, expected %d", c.Name, len(v.Values), h.Particles))
		}
		if err := ret.Add(&pic.ComponentData{Name: c.Name, Units: c.Units, Data: v.Values}); err != nil {
			return nil, NewError("read", funcname, err)
		}
	}
	return ret, nil
}
