/*
 * compat.go, part of gopic.
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
	"sort"

	"go.uber.org/zap"
)

//deprecated keyword names and the current ones.
var legacyNames = map[string]string{
	"slicing_dir": "slice_across",
	"slice_dir":   "slice_across",
	"slicing":     "slice_relative_position",
	"slice_pos":   "slice_relative_position",
}

//TranslateLegacy builds a FieldRequest from the keyword arguments used by older
//clients. Current names are slice_across, slice_relative_position, m, theta,
//max_resolution_3d and only_metadata. Deprecated names are translated with a
//warning. m can be "all" or an int, a nil theta asks for the 3D reconstruction.
func TranslateLegacy(kw map[string]any, logger *zap.Logger) (*FieldRequest, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	req := &FieldRequest{}
	set := map[string]bool{}
	for _, k := range keys {
		v := kw[k]
		name := k
		if n, ok := legacyNames[k]; ok {
			logger.Warn("deprecated keyword", zap.String("keyword", k), zap.String("use", n))
			name = n
		}
		if set[name] {
			return nil, unsupported("keyword %s given twice (as %s)", name, k)
		}
		set[name] = true
		var err error
		switch name {
		case "slice_across":
			req.SliceAcross, err = toStrings(v)
		case "slice_relative_position":
			req.SliceRelativePosition, err = toFloats(v)
		case "m":
			req.Mode, err = toMode(v)
		case "theta":
			if v == nil {
				req.Full3D = true
			} else {
				req.Theta, err = toFloat(v)
			}
		case "max_resolution_3d":
			var r []float64
			r, err = toFloats(v)
			if err == nil && len(r) != 2 {
				err = fmt.Errorf("needs 2 values, got %d", len(r))
			}
			if err == nil {
				req.MaxResolution3D = [2]int{int(r[0]), int(r[1])}
			}
		case "only_metadata":
			b, ok := v.(bool)
			if !ok {
				err = fmt.Errorf("not a bool: %v", v)
			}
			req.OnlyMetadata = b
		default:
			return nil, unsupported("unknown keyword '%s'", k)
		}
		if err != nil {
			return nil, unsupported("keyword %s: %v", k, err)
		}
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		ret := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("not a string: %v", e)
			}
			ret[i] = s
		}
		return ret, nil
	}
	return nil, fmt.Errorf("not a string or list of strings: %v", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

func toFloats(v any) ([]float64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return append([]float64(nil), t...), nil
	case []int:
		ret := make([]float64, len(t))
		for i, e := range t {
			ret[i] = float64(e)
		}
		return ret, nil
	case []any:
		ret := make([]float64, len(t))
		for i, e := range t {
			f, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			ret[i] = f
		}
		return ret, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	return []float64{f}, nil
}

func toMode(v any) (*int, error) {
	if s, ok := v.(string); ok {
		if s == "all" {
			return nil, nil
		}
		return nil, fmt.Errorf("mode must be 'all' or an integer, not '%s'", s)
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if f != float64(int(f)) || f < 0 {
		return nil, fmt.Errorf("mode must be a non-negative integer, not %v", v)
	}
	return Mode(int(f)), nil
}
