/*
 * histo_test.go, part of gopic.
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
	"math"
	"testing"
)

func TestWeightedHisto(Te *testing.T) {
	div := Dividers(0, 4, 4)
	if len(div) != 5 || div[1] != 1 || div[4] != 4 {
		Te.Fatalf("wrong dividers %v", div)
	}
	h := NewData(div, []float64{3.5, 0.5, 1, 1.5, 4, -1, math.NaN()}, []float64{1, 2, 3, 4, 5, 6, 7})
	want := []float64{2, 7, 0, 1}
	for i, v := range h.View() {
		if v != want[i] {
			Te.Fatalf("wrong bins %v, want %v", h.View(), want)
		}
	}
	if h.Total() != 10 || h.ID() != -1 {
		Te.Errorf("values out of range shouldn't count: total %g", h.Total())
	}
	h.Normalize()
	h.Normalize()
	if math.Abs(h.Sum()-1) > 1e-12 {
		Te.Errorf("normalizing twice should be harmless, sum %g", h.Sum())
	}
	h.AddData(10, 2.5)
	h.UnNormalize()
	if h.View()[2] != 10 || h.Total() != 20 {
		Te.Errorf("AddData on a normalized histogram: %v", h)
	}
	if c := h.Centers(); c[0] != 0.5 || c[3] != 3.5 {
		Te.Errorf("wrong centers %v", c)
	}
}

func TestAddSub(Te *testing.T) {
	div := []float64{0, 1, 2}
	a := NewData(div, []float64{0.5, 1.5}, nil)
	b := NewData(div, []float64{0.5, 0.5}, nil)
	sum := new(Data)
	if err := sum.Add(a, b); err != nil {
		Te.Fatal(err)
	}
	if sum.View()[0] != 3 || sum.View()[1] != 1 || sum.Total() != 4 {
		Te.Errorf("wrong sum %v", sum)
	}
	diff := new(Data)
	if err := diff.Sub(a, b, true); err != nil {
		Te.Fatal(err)
	}
	if diff.View()[0] != 1 || diff.View()[1] != 1 {
		Te.Errorf("wrong difference %v", diff)
	}
	if err := sum.Add(a, NewData([]float64{0, 2}, nil, nil)); err == nil {
		Te.Error("histograms with different dividers can't be added")
	}
}

func TestSeriesJSON(Te *testing.T) {
	S := NewSeries([]float64{0, 1, 2, 3, 4, 8})
	rawdata := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	S.NewHisto(10, rawdata, nil)
	S.NewHisto(20, rawdata[:10], nil)
	if err := S.Add(30, NewData([]float64{0, 1}, nil, nil)); err == nil {
		Te.Error("a histogram with other dividers can't join the series")
	}
	j, err := json.Marshal(S)
	if err != nil {
		Te.Fatal(err)
	}
	S2 := new(Series)
	if err := json.Unmarshal(j, S2); err != nil {
		Te.Fatal(err)
	}
	if S2.Len() != 2 || S2.View(20).Total() != 10 || S2.View(10).ID() != 10 {
		Te.Errorf("series changed in the JSON round trip: %v", S2)
	}
	rows, cols, data := S2.Matrix()
	if rows != 2 || cols != 5 || len(data) != 10 {
		Te.Errorf("wrong matrix %d %d %v", rows, cols, data)
	}
	totals, err := S2.Map(func(D *Data) (float64, error) { return D.Total(), nil })
	if err != nil || totals[0] != 26 {
		Te.Errorf("rawdata has 26 values in [0, 8): %v %v", totals, err)
	}
}
