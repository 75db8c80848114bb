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

package units

import (
	"errors"
	"fmt"
	"strings"
)

//ErrConversion is matched (with errors.Is) by every error produced by a failed conversion.
var ErrConversion = errors.New("unit conversion failed")

//Error is returned when a conversion is not possible. It carries the attempted
//conversion and, when known, the units that would have been valid.
type Error struct {
	message string
	from    string
	to      string
	options []string
	deco    []string
}

func (err Error) Error() string {
	s := fmt.Sprintf("units: can't convert '%s' to '%s': %s", err.from, err.to, err.message)
	if len(err.options) > 0 {
		s += fmt.Sprintf(". Valid options: [%s]", strings.Join(err.options, ", "))
	}
	return s
}

//Decorate adds the caller name to the error's decoration slice and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Options returns the units that were valid targets for the failed conversion.
func (err Error) Options() []string { return err.options }

//From returns the unit the conversion started from.
func (err Error) From() string { return err.from }

//To returns the unit the conversion was meant to reach.
func (err Error) To() string { return err.to }

//Critical is always true, a failed conversion can't be ignored.
func (err Error) Critical() bool { return true }

func (err Error) Is(target error) bool { return target == ErrConversion }
