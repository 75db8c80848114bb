/*
 * histo.go, part of gopic.
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

//Package histo has weighted 1D histograms, and series of them sharing the same
//bins, such as energy spectra over a set of iterations.
package histo

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Data is a weighted histogram. The bins are [dividers[i], dividers[i+1]).
type Data struct {
	id         int
	normalized bool
	total      float64 //total weight inside the bins
	dividers   []float64
	histo      []float64
}

type jsonData struct {
	ID         int       `json:"id"`
	Normalized bool      `json:"normalized"`
	Total      float64   `json:"total"`
	Dividers   []float64 `json:"dividers"`
	Histo      []float64 `json:"histo"`
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonData{
		ID:         D.id,
		Normalized: D.normalized,
		Total:      D.total,
		Dividers:   D.dividers,
		Histo:      D.histo,
	})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a jsonData
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Dividers) > 0 && len(a.Histo) != len(a.Dividers)-1 {
		return fmt.Errorf("histo: %d bins for %d dividers", len(a.Histo), len(a.Dividers))
	}
	D.id = a.ID
	D.normalized = a.Normalized
	D.total = a.Total
	D.dividers = a.Dividers
	D.histo = a.Histo
	return nil
}

//ID returns the ID of the histogram
func (D *Data) ID() int {
	return D.id
}

//String prints a -hopefully- pretty string representation of
//the histogram, in 3 lines of text.
func (D *Data) String() string {
	ret := fmt.Sprintf("ID: %d, Normalized: %v, Total: %g\n", D.id, D.normalized, D.total)
	d := make([]string, 0, len(D.histo))
	h := make([]string, 0, len(D.histo))
	for i, v := range D.histo {
		d = append(d, fmt.Sprintf("%4.2g-%4.2g", D.dividers[i], D.dividers[i+1]))
		h = append(h, fmt.Sprintf("%9.3g", v))
	}
	return ret + fmt.Sprintf("%s\n%s", strings.Join(d, " "), strings.Join(h, " "))
}

//Dividers returns n+1 evenly spaced dividers for n bins between min and max.
func Dividers(min, max float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	return floats.Span(make([]float64, n+1), min, max)
}

//NewData returns a new histogram from the dividers, values and weights given.
//values can be nil, in which case an empty histogram is created. weights can be
//nil, in which case every value weights 1.
//If an ID is given, it will be set. If not, the ID will be set to -1.
func NewData(dividers, values, weights []float64, ID ...int) *Data {
	d := new(Data)
	//copied, so it can't be changed from outside.
	d.dividers = append([]float64(nil), dividers...)
	d.histo = make([]float64, len(dividers)-1)
	if values != nil {
		d.ReHisto(d.dividers, values, weights)
	}
	d.id = -1
	if len(ID) > 0 {
		d.id = ID[0]
	}
	return d
}

//bin returns the bin v falls in, or -1 if it is outside the histogram.
func (D *Data) bin(v float64) int {
	n := len(D.dividers)
	if n < 2 || v < D.dividers[0] || v >= D.dividers[n-1] || math.IsNaN(v) {
		return -1
	}
	return sort.Search(n, func(i int) bool { return D.dividers[i] > v }) - 1
}

//AddData adds the given data point(s), with weight w, to the histogram.
//Points out of the range of the histogram are omitted.
func (D *Data) AddData(w float64, point ...float64) {
	norma := D.normalized
	if norma {
		D.UnNormalize()
	}
	for _, v := range point {
		if b := D.bin(v); b >= 0 {
			D.histo[b] += w
			D.total += w
		}
	}
	if norma {
		D.Normalize()
	}
}

//Normalized Returns true if the histogram is normalized
func (D *Data) Normalized() bool {
	return D.normalized
}

//Normalize normalizes the histogram, so its bins add up to 1.
func (D *Data) Normalize() {
	D.normaunnorma(true)
}

//UnNormalize un-normalizes the histogram
func (D *Data) UnNormalize() {
	D.normaunnorma(false)
}

func (D *Data) normaunnorma(normalize bool) {
	if D.total == 0 || D.normalized == normalize {
		return
	}
	n := D.total
	if normalize {
		n = 1 / D.total
	}
	D.normalized = normalize
	floats.Scale(n, D.histo)
}

//Total returns the weight inside the bins of the histogram.
func (D *Data) Total() float64 {
	return D.total
}

//CopyDividers copies the dividers of the histogram into dest, if given and
//large enough, or into a new slice.
func (D *Data) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.dividers), dest...)
	copy(d, D.dividers)
	return d
}

//Copy copies the bins of the histogram, like CopyDividers.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.histo), dest...)
	copy(d, D.histo)
	return d
}

//View returns the bins of the histogram, not a copy.
func (D *Data) View() []float64 {
	return D.histo
}

//Centers returns the centre of each bin.
func (D *Data) Centers() []float64 {
	ret := make([]float64, len(D.histo))
	for i := range ret {
		ret[i] = (D.dividers[i] + D.dividers[i+1]) / 2
	}
	return ret
}

//Density returns the bins divided by their width.
func (D *Data) Density() []float64 {
	ret := D.Copy()
	for i := range ret {
		ret[i] /= D.dividers[i+1] - D.dividers[i]
	}
	return ret
}

func (D *Data) checkDividers(a, b *Data) error {
	if !floats.Equal(a.dividers, b.dividers) {
		return fmt.Errorf("histo: dividers must match")
	}
	if a.normalized != b.normalized {
		return fmt.Errorf("histo: can't combine a normalized and an un-normalized histogram")
	}
	return nil
}

//Add adds the histograms a and b putting the result in the receiver.
func (D *Data) Add(a, b *Data) error {
	if err := D.checkDividers(a, b); err != nil {
		return err
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.histo = getCopySlice(len(a.histo), D.histo)
	floats.AddTo(D.histo, a.histo, b.histo)
	D.total = a.total + b.total
	D.normalized = a.normalized
	return nil
}

//Sub substracts b from a putting the results in the receiver.
//if abs is given and true, the absolute value of the difference is kept.
func (D *Data) Sub(a, b *Data, abs ...bool) error {
	if err := D.checkDividers(a, b); err != nil {
		return err
	}
	D.dividers = a.CopyDividers(D.dividers)
	D.histo = getCopySlice(len(a.histo), D.histo)
	floats.SubTo(D.histo, a.histo, b.histo)
	if len(abs) > 0 && abs[0] {
		for i, v := range D.histo {
			D.histo[i] = math.Abs(v)
		}
	}
	D.total = floats.Sum(D.histo)
	D.normalized = a.normalized
	return nil
}

//Sum returns the sum of the bins.
func (D *Data) Sum() float64 {
	return floats.Sum(D.histo)
}

//ReHisto rebuilds the histogram with the given dividers from values and weights.
//weights can be nil.
func (D *Data) ReHisto(dividers, values, weights []float64) {
	//stat.Histogram panics with values off limits and wants them sorted,
	//so they are filtered and sorted, with their weights, first.
	type vw struct{ v, w float64 }
	last := dividers[len(dividers)-1]
	in := make([]vw, 0, len(values))
	for i, v := range values {
		if v < dividers[0] || v >= last || math.IsNaN(v) {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		in = append(in, vw{v, w})
	}
	sort.Slice(in, func(i, j int) bool { return in[i].v < in[j].v })
	x := make([]float64, len(in))
	var wts []float64
	if weights != nil {
		wts = make([]float64, len(in))
	}
	D.total = 0
	for i, p := range in {
		x[i] = p.v
		if wts != nil {
			wts[i] = p.w
		}
		D.total += p.w
	}
	D.dividers = append(D.dividers[:0], dividers...)
	D.normalized = false
	D.histo = stat.Histogram(nil, D.dividers, x, wts)
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && cap(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
