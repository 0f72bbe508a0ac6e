// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package matfile

import (
	"math"
	"reflect"
	"strings"
	"unicode/utf16"

	"github.com/daniellowtw/matlab"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Names of the MATLAB array classes, as reported by the matlab library.
const (
	cellClass   = "Cell array"
	structClass = "Structure"
	charClass   = "Character array"
)

// numericClasses are decoded as a flat list of numbers.
var numericClasses = map[string]bool{
	"Double precision array":   true,
	"Single precision array":   true,
	"8-bit, signed integer":    true,
	"8-bit, unsigned integer":  true,
	"16-bit, signed integer":   true,
	"16-bit, unsigned integer": true,
	"32-bit, signed integer":   true,
	"32-bit, unsigned integer": true,
	"64-bit, signed integer":   true,
	"64-bit, unsigned integer": true,
}

func isStruct(m *matlab.Matrix) bool {
	return m.Class.String() == structClass
}

// numElements is the product of the dimensions.
func numElements(dims []int32) int {
	n := 1
	for _, dim := range dims {
		n *= int(dim)
	}
	return n
}

// decode converts a matrix returned by the matlab library to plain Go values. See the package
// documentation for the shapes returned.
func decode(m *matlab.Matrix) (any, error) {
	class := m.Class.String()
	values := m.Value()
	switch {
	case class == cellClass:
		cells := make([]any, len(values))
		for ii, v := range values {
			cell, ok := v.(*matlab.Matrix)
			if !ok {
				return nil, errors.Wrapf(annotation.ErrFormat, "cell #%d holds a %T", ii, v)
			}
			var err error
			if cells[ii], err = decode(cell); err != nil {
				return nil, errors.WithMessagef(err, "cell #%d", ii)
			}
		}
		return cells, nil

	case class == structClass:
		if numElements(m.Dimension) != 1 || len(values) != 1 {
			return nil, errors.Wrapf(annotation.ErrFormat, "struct arrays (dimensions %v) are only supported as top-level variables", m.Dimension)
		}
		fields, ok := values[0].(map[string]*matlab.Matrix)
		if !ok {
			return nil, errors.Wrapf(annotation.ErrFormat, "struct holds a %T", values[0])
		}
		record := make(map[string]any, len(fields))
		for name, field := range fields {
			value, err := decode(field)
			if err != nil {
				return nil, errors.WithMessagef(err, "field %q", name)
			}
			record[name] = value
		}
		return record, nil

	case class == charClass:
		return decodeChars(m)

	case numericClasses[class]:
		numbers := make([]any, len(values))
		copy(numbers, values)
		return numbers, nil
	}
	return nil, errors.Wrapf(annotation.ErrFormat, "unsupported Matlab array class %q", class)
}

// decodeChars converts a char array, stored as UTF-16 code units (or UTF-8 bytes) in column-major
// order. Rows of multi-row char arrays are returned separately, without their padding spaces.
func decodeChars(m *matlab.Matrix) (any, error) {
	values := m.Value()
	units := make([]uint16, len(values))
	for ii, v := range values {
		code, err := Int(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "char #%d", ii)
		}
		units[ii] = uint16(code)
	}
	rows := 1
	if len(m.Dimension) > 0 {
		rows = int(m.Dimension[0])
	}
	if rows <= 1 {
		return string(utf16.Decode(units)), nil
	}
	cols := len(units) / rows
	lines := make([]any, rows)
	row := make([]uint16, cols)
	for ii := range rows {
		for jj := range cols {
			row[jj] = units[ii+jj*rows]
		}
		lines[ii] = strings.TrimRight(string(utf16.Decode(row)), " ")
	}
	return lines, nil
}

// asSlice returns the elements of v if it is a []any.
func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

// isScalar returns whether v is a number or a bool.
func isScalar(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return true
	}
	return false
}

// Unwrap removes singleton containers around v: a 1-element slice is replaced by its element,
// repeatedly.
func Unwrap(v any) any {
	for {
		elements, ok := asSlice(v)
		if !ok || len(elements) != 1 {
			return v
		}
		v = elements[0]
	}
}

// Elements returns the elements of a variable. If the variable holds one single container
// of non-scalar elements (e.g. a cell holding a cell array of strings), its elements are returned
// instead.
func Elements(values []any) []any {
	for len(values) == 1 {
		inner, ok := asSlice(values[0])
		if !ok || len(inner) == 0 {
			break
		}
		allContainers := true
		for _, e := range inner {
			if isScalar(e) {
				allContainers = false
				break
			}
		}
		if !allContainers {
			break
		}
		values = inner
	}
	return values
}

// Flatten recursively expands nested slices into a flat list of leaf values.
func Flatten(values []any) []any {
	flat := make([]any, 0, len(values))
	for _, v := range values {
		if inner, ok := asSlice(v); ok {
			flat = append(flat, Flatten(inner)...)
			continue
		}
		flat = append(flat, v)
	}
	return flat
}

// Float converts v (after Unwrap) to a float64.
func Float(v any) (float64, error) {
	v = Unwrap(v)
	if v == nil {
		return 0, errors.Wrapf(annotation.ErrMalformedRecord, "expected a number, got an empty value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errors.Wrapf(annotation.ErrMalformedRecord, "expected a number, got %T", v)
}

// Int converts v (after Unwrap) to an int. Floating point values must be integral.
func Int(v any) (int, error) {
	f, err := Float(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errors.Wrapf(annotation.ErrMalformedRecord, "expected an integer, got %g", f)
	}
	return int(f), nil
}

// Numbers reads the named variable as a flat list of numbers of type T. Each value must be
// exactly representable in T: e.g. 1.5 is an error for Numbers[int].
func Numbers[T constraints.Integer | constraints.Float](src Source, name string) ([]T, error) {
	values, err := src.Array(name)
	if err != nil {
		return nil, err
	}
	values = Flatten(values)
	numbers := make([]T, len(values))
	for ii, v := range values {
		f, err := Float(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "element #%d of %q", ii, name)
		}
		numbers[ii] = T(f)
		if float64(numbers[ii]) != f {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "element #%d of %q: %g can't be represented as %T",
				ii, name, f, numbers[ii])
		}
	}
	return numbers, nil
}

// String converts v (after Unwrap) to a string.
func String(v any) (string, error) {
	v = Unwrap(v)
	s, ok := v.(string)
	if !ok {
		return "", errors.Wrapf(annotation.ErrMalformedRecord, "expected a string, got %T", v)
	}
	return s, nil
}

// Field returns the named field of a struct element v.
//
// It returns an error wrapping annotation.ErrFormat if v is not a struct or the field is absent.
func Field(v any, name string) (any, error) {
	v = Unwrap(v)
	record, ok := v.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(annotation.ErrFormat, "field %q requested from a %T, not a struct", name, v)
	}
	value, found := record[name]
	if !found {
		return nil, errors.Wrapf(annotation.ErrFormat, "field %q not found in struct", name)
	}
	return value, nil
}
