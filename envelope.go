/*
 * envelope.go, part of gopic.
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

import (
	"fmt"
	"math/cmplx"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/dsp/fourier"
)

const envelopeCacheSize = 4

type envelopeKey struct {
	iteration int
	slices    string
	positions string
	mode      int
	theta     float64
	full3D    bool
	maxres    [2]int
	metaOnly  bool
}

func newEnvelopeKey(it int, req *FieldRequest) envelopeKey {
	pos := make([]string, len(req.SliceAcross))
	for i := range pos {
		pos[i] = fmt.Sprint(req.position(i))
	}
	mode := -1
	if req.Mode != nil {
		mode = *req.Mode
	}
	return envelopeKey{
		iteration: it,
		slices:    strings.Join(req.SliceAcross, "\x00"),
		positions: strings.Join(pos, "\x00"),
		mode:      mode,
		theta:     req.Theta,
		full3D:    req.Full3D,
		maxres:    req.MaxResolution3D,
		metaOnly:  req.OnlyMetadata,
	}
}

type envelope struct {
	meta    *FieldData
	complex []complex128
}

//copy returns results the caller can modify without touching the cache.
func (e *envelope) copy() ([]complex128, *FieldData) {
	fd := &FieldData{Name: e.meta.Name, Component: e.meta.Component, Metadata: e.meta.Metadata.copy()}
	if e.meta.Array != nil {
		fd.Array = e.meta.Array.Copy()
	}
	var z []complex128
	if e.complex != nil {
		z = append([]complex128(nil), e.complex...)
	}
	return z, fd
}

//EnvelopeField is the envelope of an oscillating field, such as a laser, along its
//propagation axis. It is the modulus of the analytic signal of the field, computed
//with a Hilbert transform. The last results are kept in a small cache.
type EnvelopeField struct {
	base        Field
	propagation string
	cache       *lru.Cache[envelopeKey, *envelope]
}

//NewEnvelopeField returns the envelope of base along the axis labelled propagation
//("z" if empty).
func NewEnvelopeField(base Field, propagation string) (*EnvelopeField, error) {
	if propagation == "" {
		propagation = "z"
	}
	c, err := lru.New[envelopeKey, *envelope](envelopeCacheSize)
	if err != nil {
		return nil, err
	}
	return &EnvelopeField{base: base, propagation: propagation, cache: c}, nil
}

func (E *EnvelopeField) Name() string       { return E.base.FullName() + "_envelope" }
func (E *EnvelopeField) Component() string  { return "" }
func (E *EnvelopeField) FullName() string   { return E.Name() }
func (E *EnvelopeField) Units() string      { return E.base.Units() }
func (E *EnvelopeField) Geometry() Geometry { return E.base.Geometry() }
func (E *EnvelopeField) Iterations() []int  { return E.base.Iterations() }

//Propagation returns the label of the axis the envelope is computed along.
func (E *EnvelopeField) Propagation() string { return E.propagation }

//Envelope returns the complex envelope (the analytic signal) of the iteration, with
//the metadata of the result.
func (E *EnvelopeField) Envelope(it int, req *FieldRequest) ([]complex128, *FieldData, error) {
	if req == nil {
		req = &FieldRequest{}
	}
	for _, v := range req.SliceAcross {
		if v == E.propagation {
			return nil, nil, unsupported("can't slice the envelope of %s across its propagation axis '%s'", E.base.FullName(), v)
		}
	}
	key := newEnvelopeKey(it, req)
	if env, ok := E.cache.Get(key); ok {
		z, fd := env.copy()
		return z, fd, nil
	}
	fd, err := E.base.Data(it, req)
	if err != nil {
		return nil, nil, errDecorate(err, "EnvelopeField.Envelope")
	}
	ret := &FieldData{Name: E.Name(), Metadata: fd.Metadata.copy()}
	var z []complex128
	if !req.OnlyMetadata {
		dim := fd.Metadata.Axis(E.propagation)
		if dim < 0 {
			return nil, nil, unsupported("%s has no propagation axis '%s'. Axes: %s", E.base.FullName(), E.propagation, listing(axisLabels(fd.Metadata.Axes)))
		}
		z = analytic(fd.Array, dim)
		abs := &Array{Shape: append([]int(nil), fd.Array.Shape...), Data: make([]float64, len(z))}
		for i, v := range z {
			abs.Data[i] = cmplx.Abs(v)
		}
		ret.Array = abs
	}
	env := &envelope{meta: ret, complex: z}
	E.cache.Add(key, env)
	z, ret = env.copy()
	return z, ret, nil
}

//Data returns the modulus of the envelope.
func (E *EnvelopeField) Data(it int, req *FieldRequest) (*FieldData, error) {
	_, fd, err := E.Envelope(it, req)
	if err != nil {
		return nil, err
	}
	return fd, nil
}

//analytic returns the analytic signal of a along dimension dim, in the
//row-major layout of a.
func analytic(a *Array, dim int) []complex128 {
	n := a.Shape[dim]
	ret := make([]complex128, a.Len())
	if n == 0 {
		return ret
	}
	fft := fourier.NewCmplxFFT(n)
	seq := make([]complex128, n)
	coef := make([]complex128, n)
	outer := prod(a.Shape[:dim])
	inner := prod(a.Shape[dim+1:])
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			for k := 0; k < n; k++ {
				seq[k] = complex(a.Data[base+k*inner], 0)
			}
			hilbert(fft, seq, coef)
			for k := 0; k < n; k++ {
				ret[base+k*inner] = seq[k]
			}
		}
	}
	return ret
}

//hilbert replaces seq with its analytic signal. Negative frequencies are removed
//and positive ones doubled. The unnormalized inverse is divided by n.
func hilbert(fft *fourier.CmplxFFT, seq, coef []complex128) {
	n := len(seq)
	fft.Coefficients(coef, seq)
	for k := 1; k < n; k++ {
		switch {
		case 2*k < n:
			coef[k] *= 2
		case 2*k > n:
			coef[k] = 0
		}
	}
	fft.Sequence(seq, coef)
	for k := range seq {
		seq[k] /= complex(float64(n), 0)
	}
}
