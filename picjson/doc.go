/*
 * doc.go, part of gopic.
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

//Package picjson implements the serialization and unserialization of
//gopic field and particle data. Its planned use is the communication of
//gopic programs with other, independent programs, such as renderers written
//in other languages, which only need to read JSON.
//
//Each object is a stream of JSON lines: a header, followed by one line of
//values for a field, or by one line per component for particles. Non-finite
//values are written as the strings "NaN", "+Inf" and "-Inf".
//Files with names ending in .zst or .gz are compressed.
package picjson
