/*
 * mem.go, part of gopic.
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

package h5

import (
	"fmt"
	"path"
	"sort"
	"sync"
)

type memObject struct {
	kind  Kind
	data  []float64
	shape []int
	attrs map[string]Attr
}

//MemStore is an in-memory Store. It is safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]*memObject
	reads   int
}

//NewMemStore returns a MemStore containing only the root group.
func NewMemStore() *MemStore {
	m := &MemStore{objects: map[string]*memObject{}}
	m.objects["/"] = &memObject{kind: Group, attrs: map[string]Attr{}}
	return m
}

func (m *MemStore) mkdirs(p string) {
	for p != "/" {
		if _, ok := m.objects[p]; !ok {
			m.objects[p] = &memObject{kind: Group, attrs: map[string]Attr{}}
		}
		p = path.Dir(p)
	}
}

//AddGroup creates the group at p, and any missing parent groups.
func (m *MemStore) AddGroup(p string) *MemStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirs(Join(p))
	return m
}

//AddDataset stores data, row-major with the given shape, at p. It panics if the
//data doesn't fit the shape, as it is only meant to build fixtures.
func (m *MemStore) AddDataset(p string, shape []int, data []float64) *MemStore {
	n := 1
	for _, v := range shape {
		n *= v
	}
	if n != len(data) {
		panic(fmt.Sprintf("h5.MemStore: %d elements don't fit shape %v", len(data), shape))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p = Join(p)
	m.mkdirs(path.Dir(p))
	m.objects[p] = &memObject{
		kind:  Dataset,
		data:  append([]float64(nil), data...),
		shape: append([]int(nil), shape...),
		attrs: map[string]Attr{},
	}
	return m
}

//SetAttr sets an attribute on the object at p, creating a group there if nothing exists.
func (m *MemStore) SetAttr(p, name string, a Attr) *MemStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = Join(p)
	if _, ok := m.objects[p]; !ok {
		m.mkdirs(p)
	}
	m.objects[p].attrs[name] = a
	return m
}

//SetFloat sets a numeric attribute.
func (m *MemStore) SetFloat(p, name string, v ...float64) *MemStore {
	return m.SetAttr(p, name, Attr{Floats: v})
}

//SetString sets a string attribute.
func (m *MemStore) SetString(p, name string, v ...string) *MemStore {
	return m.SetAttr(p, name, Attr{Strings: v})
}

//Reads returns how many times Read has been called.
func (m *MemStore) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MemStore) Children(p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = Join(p)
	o, ok := m.objects[p]
	if !ok || o.kind != Group {
		return nil, fmt.Errorf("%w: group %s", ErrNotExist, p)
	}
	var ret []string
	for k := range m.objects {
		if k != "/" && path.Dir(k) == p {
			ret = append(ret, path.Base(k))
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func (m *MemStore) Kind(p string) Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[Join(p)]
	if !ok {
		return Missing
	}
	return o.kind
}

func (m *MemStore) dataset(p string) (*memObject, error) {
	o, ok := m.objects[Join(p)]
	if !ok || o.kind != Dataset {
		return nil, fmt.Errorf("%w: dataset %s", ErrNotExist, p)
	}
	return o, nil
}

func (m *MemStore) Shape(p string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.dataset(p)
	if err != nil {
		return nil, err
	}
	return append([]int(nil), o.shape...), nil
}

func (m *MemStore) Read(p string, sel *Selection) ([]float64, []int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, err := m.dataset(p)
	if err != nil {
		return nil, nil, err
	}
	if sel == nil {
		m.reads++
		return append([]float64(nil), o.data...), append([]int(nil), o.shape...), nil
	}
	if err := CheckSelection(sel, o.shape); err != nil {
		return nil, nil, err
	}
	m.reads++
	return Extract(o.data, o.shape, sel), append([]int(nil), sel.Count...), nil
}

func (m *MemStore) Attr(p, name string) (Attr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[Join(p)]
	if !ok {
		return Attr{}, fmt.Errorf("%w: %s", ErrNotExist, p)
	}
	a, ok := o.attrs[name]
	if !ok {
		return Attr{}, fmt.Errorf("%w: attribute %s of %s", ErrNotExist, name, p)
	}
	return a, nil
}

func (m *MemStore) Close() error { return nil }

//MemOpener returns an Opener serving the given stores by file name.
func MemOpener(files map[string]*MemStore) Opener {
	return func(name string) (Store, error) {
		s, ok := files[path.Clean(name)]
		if !ok {
			return nil, fmt.Errorf("%w: file %s", ErrNotExist, name)
		}
		return s, nil
	}
}

//Extract copies the hyperslab sel out of the row-major array data of the given shape.
//sel must have been checked against shape.
func Extract(data []float64, shape []int, sel *Selection) []float64 {
	nd := len(shape)
	ret := make([]float64, 0, sel.Size())
	if sel.Size() == 0 {
		return ret
	}
	strides := make([]int, nd)
	s := 1
	for i := nd - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	idx := make([]int, nd)
	for {
		off := 0
		for i := 0; i < nd; i++ {
			off += (sel.Start[i] + idx[i]) * strides[i]
		}
		ret = append(ret, data[off])
		d := nd - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < sel.Count[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			break
		}
	}
	return ret
}
