/*
 * parallel.go, part of gopic.
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

//Package analysis has the batch diagnostics built on the data containers: beam
//parameters, laser parameters and spectra, for one iteration or, in parallel,
//for a set of them.
package analysis

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/mat"
)

//NumProcEnv is the environment variable giving the default number of workers.
const NumProcEnv = "GOPIC_NUM_PROC"

//Workers returns n if positive, otherwise the value of GOPIC_NUM_PROC, or the
//number of CPUs if that is not set to a positive integer.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	if v, err := strconv.Atoi(os.Getenv(NumProcEnv)); err == nil && v > 0 {
		return v
	}
	return runtime.NumCPU()
}

type job[T any] struct {
	i   int
	ret T
	err error
}

//Parallel calls f for each iteration in its using a pool of workers goroutines
//(see Workers). Results and errors are returned in the order of its. A failed
//iteration has the zero T as result and a non-nil error.
func Parallel[T any](its []int, workers int, f func(it int) (T, error)) ([]T, []error) {
	workers = Workers(workers)
	if workers > len(its) {
		workers = len(its)
	}
	in := make(chan int)
	out := make(chan job[T])
	var wg sync.WaitGroup
	for p := 0; p < workers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range in {
				r, err := f(its[i])
				out <- job[T]{i: i, ret: r, err: err}
			}
		}()
	}
	go func() {
		for i := range its {
			in <- i
		}
		close(in)
		wg.Wait()
		close(out)
	}()
	rets := make([]T, len(its))
	errs := make([]error, len(its))
	for j := range out {
		rets[j.i], errs[j.i] = j.ret, j.err
	}
	return rets, errs
}

//Evolution is a quantity, with one or more columns, over a set of iterations.
type Evolution struct {
	Iterations []int
	Columns    []string
	//Data has one row per iteration. Rows of failed iterations are NaN.
	Data *mat.Dense
	//Errors holds the error of each failed iteration.
	Errors map[int]error
}

//Column returns the values of the column name, or nil if there is no such column.
func (E *Evolution) Column(name string) []float64 {
	for j, c := range E.Columns {
		if c == name {
			return mat.Col(nil, j, E.Data)
		}
	}
	return nil
}

//Failed returns true if every iteration failed.
func (E *Evolution) Failed() bool {
	return len(E.Errors) == len(E.Iterations)
}

//Stack runs f in parallel over its (see Parallel) and stacks the rows it returns,
//which must have len(columns) elements.
func Stack(its []int, workers int, columns []string, f func(it int) ([]float64, error)) *Evolution {
	rows, errs := Parallel(its, workers, f)
	ret := &Evolution{
		Iterations: append([]int(nil), its...),
		Columns:    columns,
		Errors:     map[int]error{},
	}
	if len(its) == 0 {
		return ret
	}
	ret.Data = mat.NewDense(len(its), len(columns), nil)
	nan := make([]float64, len(columns))
	for j := range nan {
		nan[j] = math.NaN()
	}
	for i, r := range rows {
		if errs[i] == nil && len(r) != len(columns) {
			errs[i] = fmt.Errorf("analysis: %d values for %d columns", len(r), len(columns))
		}
		if errs[i] != nil {
			ret.Errors[its[i]] = errs[i]
			r = nan
		}
		ret.Data.SetRow(i, r)
	}
	return ret
}
