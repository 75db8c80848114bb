/*
 * store.go, part of gopic.
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

//Package h5 defines the small view of an HDF5 file that the gopic readers need:
//groups, n-dimensional float datasets with hyperslab reads, and attributes.
//The actual HDF5 binding lives in h5/native; MemStore is an in-memory
//implementation used to build synthetic data sets.
package h5

import (
	"errors"
	"fmt"
	"strings"
)

//ErrNotExist is matched by errors about missing objects or attributes.
var ErrNotExist = errors.New("h5: object does not exist")

//Kind tells what an object in a file is.
type Kind int

const (
	Missing Kind = iota
	Group
	Dataset
)

//Selection is a contiguous hyperslab. Start and Count must have one element per
//dimension of the dataset.
type Selection struct {
	Start []int
	Count []int
}

//Size returns the number of elements selected.
func (s *Selection) Size() int {
	n := 1
	for _, v := range s.Count {
		n *= v
	}
	return n
}

//Attr is the value of an attribute. Numeric attributes fill Floats (one element for
//scalars), string attributes fill Strings.
type Attr struct {
	Floats  []float64
	Strings []string
}

//Float returns the first numeric value of the attribute.
func (a Attr) Float() (float64, bool) {
	if len(a.Floats) == 0 {
		return 0, false
	}
	return a.Floats[0], true
}

//String returns the string value of the attribute, joining arrays of strings.
func (a Attr) String() string {
	return strings.Join(a.Strings, "")
}

//IsString reports whether the attribute holds strings.
func (a Attr) IsString() bool {
	return a.Strings != nil
}

//Store is an open HDF5 file. Paths are absolute within the file ("/data/100/fields").
type Store interface {
	//Children returns the names of the objects in the group at path.
	Children(path string) ([]string, error)

	//Kind returns what the object at path is, or Missing.
	Kind(path string) Kind

	//Shape returns the dimensions of the dataset at path.
	Shape(path string) ([]int, error)

	//Read reads the dataset at path, or only the hyperslab sel if sel is not nil.
	//Data is returned as float64 row-major, whatever the type on disk, together
	//with its shape.
	Read(path string, sel *Selection) ([]float64, []int, error)

	//Attr returns the attribute name of the object at path.
	Attr(path, name string) (Attr, error)

	Close() error
}

//Opener opens the file name, relative to the data set root.
type Opener func(name string) (Store, error)

//Join builds an in-file path.
func Join(elem ...string) string {
	p := strings.Join(elem, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

//FloatAttr is a helper that reads a numeric attribute.
func FloatAttr(s Store, path, name string) (float64, error) {
	a, err := s.Attr(path, name)
	if err != nil {
		return 0, err
	}
	f, ok := a.Float()
	if !ok {
		return 0, fmt.Errorf("h5: attribute %s of %s is not numeric", name, path)
	}
	return f, nil
}

//FloatsAttr is a helper that reads a numeric array attribute.
func FloatsAttr(s Store, path, name string) ([]float64, error) {
	a, err := s.Attr(path, name)
	if err != nil {
		return nil, err
	}
	if a.Floats == nil {
		return nil, fmt.Errorf("h5: attribute %s of %s is not numeric", name, path)
	}
	return a.Floats, nil
}

//StringAttr is a helper that reads a string attribute.
func StringAttr(s Store, path, name string) (string, error) {
	a, err := s.Attr(path, name)
	if err != nil {
		return "", err
	}
	if !a.IsString() {
		return "", fmt.Errorf("h5: attribute %s of %s is not a string", name, path)
	}
	return a.String(), nil
}

//CheckSelection validates sel against shape.
func CheckSelection(sel *Selection, shape []int) error {
	if len(sel.Start) != len(shape) || len(sel.Count) != len(shape) {
		return fmt.Errorf("h5: selection has %d/%d dimensions, dataset has %d", len(sel.Start), len(sel.Count), len(shape))
	}
	for i := range shape {
		if sel.Start[i] < 0 || sel.Count[i] < 0 || sel.Start[i]+sel.Count[i] > shape[i] {
			return fmt.Errorf("h5: selection out of bounds in dimension %d: start=%d + count=%d > size=%d", i, sel.Start[i], sel.Count[i], shape[i])
		}
	}
	return nil
}
