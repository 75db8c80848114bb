/*
 * native.go, part of gopic.
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

//Package native implements h5.Store over the HDF5 C library, through gonum.org/v1/hdf5.
//It needs cgo and libhdf5.
package native

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rmera/gopic/h5"
	"gonum.org/v1/hdf5"
)

//fixed-length strings longer than this are truncated when read from attributes.
const maxStringLen = 256

//File is an open HDF5 file.
type File struct {
	f    *hdf5.File
	name string
}

//Open opens the HDF5 file name read-only.
func Open(name string) (*File, error) {
	f, err := hdf5.OpenFile(name, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("native: opening %s: %w", name, err)
	}
	return &File{f: f, name: name}, nil
}

//Opener returns an h5.Opener that opens files relative to the directory root.
func Opener(root string) h5.Opener {
	return func(name string) (h5.Store, error) {
		return Open(filepath.Join(root, filepath.FromSlash(name)))
	}
}

func (F *File) Close() error {
	return F.f.Close()
}

func (F *File) Children(path string) ([]string, error) {
	g, err := F.f.OpenGroup(h5.Join(path))
	if err != nil {
		return nil, fmt.Errorf("%w: group %s in %s", h5.ErrNotExist, path, F.name)
	}
	defer g.Close()
	n, err := g.NumObjects()
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret, nil
}

func (F *File) Kind(path string) h5.Kind {
	path = h5.Join(path)
	if path == "/" {
		return h5.Group
	}
	dir, base := filepath.Split(path)
	g, err := F.f.OpenGroup(h5.Join(dir))
	if err != nil {
		return h5.Missing
	}
	defer g.Close()
	n, err := g.NumObjects()
	if err != nil {
		return h5.Missing
	}
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil || name != base {
			continue
		}
		t, err := g.ObjectTypeByIndex(i)
		if err != nil {
			return h5.Missing
		}
		switch t {
		case hdf5.H5G_GROUP:
			return h5.Group
		case hdf5.H5G_DATASET:
			return h5.Dataset
		}
	}
	return h5.Missing
}

func (F *File) dataset(path string) (*hdf5.Dataset, []int, error) {
	d, err := F.f.OpenDataset(h5.Join(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dataset %s in %s", h5.ErrNotExist, path, F.name)
	}
	space := d.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	shape := make([]int, len(dims))
	for i, v := range dims {
		shape[i] = int(v)
	}
	return d, shape, nil
}

func (F *File) Shape(path string) ([]int, error) {
	d, shape, err := F.dataset(path)
	if err != nil {
		return nil, err
	}
	d.Close()
	return shape, nil
}

func (F *File) Read(path string, sel *h5.Selection) ([]float64, []int, error) {
	d, shape, err := F.dataset(path)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()
	if sel == nil {
		sel = &h5.Selection{Start: make([]int, len(shape)), Count: shape}
	} else if err := h5.CheckSelection(sel, shape); err != nil {
		return nil, nil, err
	}
	n := sel.Size()
	if n == 0 {
		return []float64{}, append([]int(nil), sel.Count...), nil
	}
	start := make([]uint, len(shape))
	count := make([]uint, len(shape))
	for i := range shape {
		start[i] = uint(sel.Start[i])
		count[i] = uint(sel.Count[i])
	}
	fspace := d.Space()
	defer fspace.Close()
	if err := fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		return nil, nil, err
	}
	mspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return nil, nil, err
	}
	defer mspace.Close()
	data, err := readAs(d, n, mspace, fspace)
	if err != nil {
		return nil, nil, fmt.Errorf("native: reading %s in %s: %w", path, F.name, err)
	}
	return data, append([]int(nil), sel.Count...), nil
}

//readAs reads into a buffer of the on-disk type and converts it to float64.
//ReadSubset uses the file datatype as the memory type.
func readAs(d *hdf5.Dataset, n int, mspace, fspace *hdf5.Dataspace) ([]float64, error) {
	dtype, err := d.Datatype()
	if err != nil {
		return nil, err
	}
	defer dtype.Close()
	ret := make([]float64, n)
	switch class, size := dtype.Class(), dtype.Size(); {
	case class == hdf5.T_FLOAT && size == 8:
		if err := d.ReadSubset(&ret, mspace, fspace); err != nil {
			return nil, err
		}
	case class == hdf5.T_FLOAT && size == 4:
		buf := make([]float32, n)
		if err := d.ReadSubset(&buf, mspace, fspace); err != nil {
			return nil, err
		}
		for i, v := range buf {
			ret[i] = float64(v)
		}
	case class == hdf5.T_INTEGER && size == 8:
		buf := make([]int64, n)
		if err := d.ReadSubset(&buf, mspace, fspace); err != nil {
			return nil, err
		}
		for i, v := range buf {
			ret[i] = float64(v)
		}
	case class == hdf5.T_INTEGER && size == 4:
		buf := make([]int32, n)
		if err := d.ReadSubset(&buf, mspace, fspace); err != nil {
			return nil, err
		}
		for i, v := range buf {
			ret[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported datatype (class %v, %d bytes)", class, size)
	}
	return ret, nil
}

type attributer interface {
	OpenAttribute(name string) (*hdf5.Attribute, error)
}

func (F *File) object(path string) (attributer, func() error, error) {
	path = h5.Join(path)
	switch F.Kind(path) {
	case h5.Group:
		g, err := F.f.OpenGroup(path)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case h5.Dataset:
		d, err := F.f.OpenDataset(path)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
	return nil, nil, fmt.Errorf("%w: %s in %s", h5.ErrNotExist, path, F.name)
}

//Attr reads numeric attributes as float64. Anything that can't be converted to
//a double is read as a string: fixed-length strings first, then a scalar
//variable-length string.
func (F *File) Attr(path, name string) (h5.Attr, error) {
	obj, closer, err := F.object(path)
	if err != nil {
		return h5.Attr{}, err
	}
	defer closer()
	a, err := obj.OpenAttribute(name)
	if err != nil {
		return h5.Attr{}, fmt.Errorf("%w: attribute %s of %s in %s", h5.ErrNotExist, name, path, F.name)
	}
	defer a.Close()
	space := a.Space()
	n := space.SimpleExtentNPoints()
	space.Close()
	if n <= 0 {
		n = 1
	}
	floats := make([]float64, n)
	if err := a.Read(&floats[0], hdf5.T_NATIVE_DOUBLE); err == nil {
		return h5.Attr{Floats: floats}, nil
	}
	if s, err := fixedStrings(a, n); err == nil {
		return h5.Attr{Strings: s}, nil
	}
	var s string
	if err := a.Read(&s, hdf5.T_GO_STRING); err != nil {
		return h5.Attr{}, fmt.Errorf("native: attribute %s of %s in %s has an unsupported type: %w", name, path, F.name, err)
	}
	return h5.Attr{Strings: []string{s}}, nil
}

func fixedStrings(a *hdf5.Attribute, n int) ([]string, error) {
	st, err := hdf5.T_C_S1.Copy()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	if err := st.SetSize(maxStringLen); err != nil {
		return nil, err
	}
	buf := make([]byte, n*maxStringLen)
	if err := a.Read(&buf[0], st); err != nil {
		return nil, err
	}
	ret := make([]string, n)
	for i := range ret {
		b := buf[i*maxStringLen : (i+1)*maxStringLen]
		if j := bytes.IndexByte(b, 0); j >= 0 {
			b = b[:j]
		}
		ret[i] = string(bytes.TrimRight(b, " "))
	}
	return ret, nil
}
