/*
 * formats.go, part of gopic.
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

//Package formats has the pieces shared by the format scanners: discovery of
//snapshot files and the error type.
package formats

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"

	"github.com/facette/natsort"
	"github.com/rmera/gopic"
	"go.uber.org/zap"
)

//Snapshot is one file of a series, one per iteration.
type Snapshot struct {
	Path      string
	Iteration int
}

var trailingDigits = regexp.MustCompile(`(\d+)\.h5$`)

//IterationOf returns the iteration encoded in the trailing digits of a file name.
func IterationOf(name string) (int, bool) {
	m := trailingDigits.FindStringSubmatch(path.Base(name))
	if m == nil {
		return 0, false
	}
	it, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return it, true
}

//Snapshots returns the files in fsys matching pattern (see fs.Glob), sorted by
//iteration. Files without a trailing iteration number are skipped.
func Snapshots(fsys fs.FS, pattern string) ([]Snapshot, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	sort.Slice(names, func(i, j int) bool { return natsort.Compare(names[i], names[j]) })
	ret := make([]Snapshot, 0, len(names))
	for _, n := range names {
		if it, ok := IterationOf(n); ok {
			ret = append(ret, Snapshot{Path: n, Iteration: it})
		}
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].Iteration < ret[j].Iteration })
	return ret, nil
}

//Dirs returns the sub-directories of dir, in natural order.
func Dirs(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, e := range entries {
		if e.IsDir() {
			ret = append(ret, e.Name())
		}
	}
	sort.Slice(ret, func(i, j int) bool { return natsort.Compare(ret[i], ret[j]) })
	return ret, nil
}

//Iterations returns the keys of a map of files per iteration, sorted.
func Iterations(files map[int]string) []int {
	ret := make([]int, 0, len(files))
	for k := range files {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}

//Logger returns l, or a logger that discards everything if l is nil.
func Logger(l *zap.Logger, format string) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.With(zap.String("scanner", format))
}

//CheckConfig returns an error if cfg can't be used to read files.
func CheckConfig(format string, cfg pic.FormatConfig) error {
	if cfg.Opener == nil || cfg.FS == nil {
		return Error{message: "an HDF5 opener and a file system are required", format: format, kind: pic.ErrConfig, critical: true}
	}
	return nil
}

//Error is the error type of the format readers.
type Error struct {
	message  string
	filename string //the file with problems, or empty if none.
	format   string
	kind     error
	cause    error
	deco     []string
	critical bool
}

//NewError returns an error about filename, wrapping cause, which can be nil.
func NewError(format, filename, message string, cause error) Error {
	return Error{message: message, filename: filename, format: format, cause: cause, critical: true}
}

func (err Error) Error() string {
	s := fmt.Sprintf("%s: %s", err.format, err.message)
	if err.filename != "" {
		s = fmt.Sprintf("%s file %s: %s", err.format, err.filename, err.message)
	}
	if err.cause != nil {
		s += ": " + err.cause.Error()
	}
	return s
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//FileName returns the file the error is about.
func (err Error) FileName() string { return err.filename }

//Format returns the format tag of the reader that failed.
func (err Error) Format() string { return err.format }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

func (err Error) Unwrap() error { return err.cause }

//Is matches the pic error kind of the error, if it has one.
func (err Error) Is(target error) bool {
	return err.kind != nil && target == err.kind
}

//Unknown returns the error for a data name the format tables don't know.
func Unknown(format, filename, name string) Error {
	return Error{message: UnknownName + " '" + name + "'", filename: filename, format: format, kind: pic.ErrUnsupported, critical: true}
}

//Messages.
const (
	UnableToOpen = "unable to open file"
	ReadError    = "error reading data"
	WrongFormat  = "wrong format"
	UnknownName  = "unknown data name"
	MissingAttr  = "missing attribute"
)
