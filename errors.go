/*
 * errors.go, part of gopic.
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
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rmera/gopic/units"
)

//Error kinds. Every Error returned by this package matches exactly one of them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrUnsupported    = errors.New("unsupported")
	ErrUnitConversion = units.ErrConversion
	ErrConfig         = errors.New("configuration error")
)

//Decorator is implemented by the errors of all gopic packages. Decorate adds the
//name of a function in the call stack to the error, and returns the current
//decoration slice. An empty string only returns the slice.
type Decorator interface {
	Error() string
	Decorate(string) []string
}

//Error is the error type of the pic package.
type Error struct {
	message  string
	kind     error
	cause    error
	deco     []string
	critical bool
}

func (err Error) Error() string {
	s := err.message
	if err.cause != nil {
		s += ": " + err.cause.Error()
	}
	return "pic: " + s
}

//Decorate adds dec to the decoration slice of the error and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical is false only for errors that leave the object that returned them usable.
func (err Error) Critical() bool { return err.critical }

func (err Error) Is(target error) bool { return target == err.kind }

func (err Error) Unwrap() error { return err.cause }

//errDecorate returns a copy of err with the caller added, if err is an Error.
func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = append(e.deco, caller)
		return e
	}
	return err
}

func listing(names []string) string {
	s := append([]string(nil), names...)
	sort.Strings(s)
	return "[" + strings.Join(s, ", ") + "]"
}

func notFound(what, name string, available []string) Error {
	return Error{message: fmt.Sprintf("%s '%s' not found. Available: %s", what, name, listing(available)), kind: ErrNotFound}
}

func iterNotFound(it int, available []int) Error {
	return Error{message: fmt.Sprintf("iteration %d not found. Available: %v", it, available), kind: ErrNotFound}
}

func unsupported(format string, args ...any) Error {
	return Error{message: fmt.Sprintf(format, args...), kind: ErrUnsupported}
}

func configError(cause error, format string, args ...any) Error {
	return Error{message: fmt.Sprintf(format, args...), kind: ErrConfig, cause: cause, critical: true}
}

//readError wraps an error coming from a reader.
func readError(cause error, format string, args ...any) error {
	if errors.Is(cause, ErrNotFound) || errors.Is(cause, ErrUnsupported) || errors.Is(cause, ErrUnitConversion) {
		return cause
	}
	return fmt.Errorf(format+": %w", append(args, cause)...)
}
