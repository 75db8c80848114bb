/*
 * series_test.go, part of gopic.
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

package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/rmera/gopic/h5"
)

func rawSpecies(y []float64) *SeriesSpecies {
	s := h5.NewMemStore().
		AddDataset("/x1", []int{4}, []float64{1, 2, 3, 4}).
		AddDataset("/x2", []int{len(y)}, y)
	return &SeriesSpecies{
		Format:   "series",
		Opener:   h5.MemOpener(map[string]*h5.MemStore{"raw-000010.h5": s}),
		Files:    map[int]string{10: "raw-000010.h5"},
		Datasets: map[string]string{"z": "/x1", "x": "/x2"},
		UnitsOf:  func(h5.Store, string) (string, error) { return "m", nil },
		TimeOf:   func(h5.Store) (float64, string, error) { return 1, "s", nil },
	}
}

func TestSeriesSpeciesMask(Te *testing.T) {
	mask := []bool{true, false, true, false}
	sp := rawSpecies([]float64{5, 6, 7, 8})
	x, u, err := sp.ReadComponent(10, "x", mask)
	if err != nil {
		Te.Fatal(err)
	}
	if len(x) != 2 || x[0] != 5 || x[1] != 7 || u != "m" {
		Te.Errorf("wrong selection %v %s", x, u)
	}
	if all, _, err := sp.ReadComponent(10, "z", nil); err != nil || len(all) != 4 {
		Te.Errorf("a nil mask keeps everything, got %v %v", all, err)
	}

	//a dataset shorter than the others can't be aligned with the selection
	sp = rawSpecies([]float64{5, 6, 7})
	_, _, err = sp.ReadComponent(10, "x", mask)
	var ferr Error
	if !errors.As(err, &ferr) || !strings.Contains(err.Error(), WrongFormat) || ferr.FileName() != "raw-000010.h5" {
		Te.Errorf("mismatched lengths should be a format error, got %v", err)
	}
	if _, err := Mask([]float64{1, 2}, []bool{true}); err == nil {
		Te.Error("Mask should reject a selection of a different length")
	}
}
