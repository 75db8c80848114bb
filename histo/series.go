/*
 * series.go, part of gopic.
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

package histo

import (
	"encoding/json"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//Series is a set of histograms with the same dividers, one per key (normally
//an iteration), such as the evolution of an energy spectrum.
type Series struct {
	keys     []int
	d        []*Data
	dividers []float64
}

//NewSeries returns an empty series whose histograms will use dividers.
func NewSeries(dividers []float64) *Series {
	return &Series{dividers: append([]float64(nil), dividers...)}
}

//Len returns the number of histograms in the series.
func (S *Series) Len() int {
	return len(S.d)
}

//Keys returns the keys of the histograms, in the order they were added.
func (S *Series) Keys() []int {
	return append([]int(nil), S.keys...)
}

//CopyDividers copies the dividers of the series.
func (S *Series) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(S.dividers), dest...)
	copy(d, S.dividers)
	return d
}

//Add puts h in the series, under key. The dividers of h must be those of the series.
func (S *Series) Add(key int, h *Data) error {
	if !floats.Equal(h.dividers, S.dividers) {
		return fmt.Errorf("histo: histogram %d doesn't have the dividers of the series", key)
	}
	for i, k := range S.keys {
		if k == key {
			S.d[i] = h
			return nil
		}
	}
	S.keys = append(S.keys, key)
	S.d = append(S.d, h)
	return nil
}

//NewHisto builds a histogram from values and weights with the dividers of the series,
//and adds it under key.
func (S *Series) NewHisto(key int, values, weights []float64) *Data {
	h := NewData(S.dividers, values, weights, key)
	S.Add(key, h)
	return h
}

//View returns the histogram under key, or nil.
func (S *Series) View(key int) *Data {
	for i, k := range S.keys {
		if k == key {
			return S.d[i]
		}
	}
	return nil
}

//NormalizeAll normalizes all the histograms in the series
func (S *Series) NormalizeAll() {
	for _, v := range S.d {
		v.Normalize()
	}
}

//UnNormalizeAll un-normalizes all the histograms in the series
func (S *Series) UnNormalizeAll() {
	for _, v := range S.d {
		v.UnNormalize()
	}
}

//Map applies f to each histogram, and returns the results in the order of Keys.
func (S *Series) Map(f func(D *Data) (float64, error)) ([]float64, error) {
	ret := make([]float64, len(S.d))
	for i, v := range S.d {
		var err error
		ret[i], err = f(v)
		if err != nil {
			return nil, fmt.Errorf("histo: error at key %d: %w", S.keys[i], err)
		}
	}
	return ret, nil
}

//Matrix returns the bins of all the histograms, one row per key, row-major.
func (S *Series) Matrix() (rows, cols int, data []float64) {
	rows, cols = len(S.d), len(S.dividers)-1
	data = make([]float64, 0, rows*cols)
	for _, v := range S.d {
		data = append(data, v.histo...)
	}
	return rows, cols, data
}

func (S *Series) String() string {
	t := make([]string, 0, len(S.d))
	for _, v := range S.d {
		t = append(t, v.String())
	}
	return fmt.Sprintf("histograms:%d | Data:\n", len(S.d)) + strings.Join(t, "\n\n")
}

type jsonSeries struct {
	Keys     []int     `json:"keys"`
	D        []*Data   `json:"data"`
	Dividers []float64 `json:"dividers"`
}

func (S *Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSeries{Keys: S.keys, D: S.d, Dividers: S.dividers})
}

func (S *Series) UnmarshalJSON(b []byte) error {
	var a jsonSeries
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Keys) != len(a.D) {
		return fmt.Errorf("histo: %d keys for %d histograms", len(a.Keys), len(a.D))
	}
	S.keys = a.Keys
	S.d = a.D
	S.dividers = a.Dividers
	return nil
}
