// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package kvtext reads the line-oriented text annotation files used by most FGVC datasets:
// one record per line, with a key separated from its value by the first space.
//
// Values (and keys) that look like integers are opportunistically converted, see Value.
package kvtext

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Value is either an integer or a string: it holds an integer if the raw text parsed as one.
//
// It is comparable, so it can be used as a map key.
type Value struct {
	text  string
	num   int
	isInt bool
}

// ParseValue converts text to an integer Value if possible, otherwise it keeps it as a string.
func ParseValue(text string) Value {
	if num, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		return Value{text: text, num: num, isInt: true}
	}
	return Value{text: text}
}

// Int creates an integer Value.
func Int(num int) Value {
	return Value{text: strconv.Itoa(num), num: num, isInt: true}
}

// Int returns the integer value and true, or 0 and false if the Value is a string.
func (v Value) Int() (int, bool) {
	return v.num, v.isInt
}

// IsInt returns whether the value parsed as an integer.
func (v Value) IsInt() bool { return v.isInt }

// String returns the raw text of the value.
func (v Value) String() string {
	return v.text
}

// Equal compares values: integers compare by value, strings by text, and an integer
// never equals a string.
func (v Value) Equal(other Value) bool {
	if v.isInt != other.isInt {
		return false
	}
	if v.isInt {
		return v.num == other.num
	}
	return v.text == other.text
}

// Less orders values: integers numerically first, then strings lexicographically.
func (v Value) Less(other Value) bool {
	if v.isInt != other.isInt {
		return v.isInt
	}
	if v.isInt {
		return v.num < other.num
	}
	return v.text < other.text
}

// Key returns a canonical copy of the value to be used as a map key: integer values with
// different text ("1", "01") have the same Key.
func (v Value) Key() Value {
	if v.isInt {
		return Value{num: v.num, isInt: true}
	}
	return v
}

// Table maps keys to values, as read from a key/value file.
type Table struct {
	entries map[Value]Value
	keys    []Value
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[Value]Value)}
}

// Set the value of key. Later values of the same key override previous ones.
func (t *Table) Set(key, value Value) {
	k := key.Key()
	if _, found := t.entries[k]; !found {
		t.keys = append(t.keys, key)
	}
	t.entries[k] = value
}

// Get returns the value for key and whether it was found.
func (t *Table) Get(key Value) (Value, bool) {
	v, found := t.entries[key.Key()]
	return v, found
}

// Has returns whether key is in the table.
func (t *Table) Has(key Value) bool {
	_, found := t.entries[key.Key()]
	return found
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// SortedKeys returns the keys in ascending order (see Value.Less).
func (t *Table) SortedKeys() []Value {
	keys := make([]Value, len(t.keys))
	copy(keys, t.keys)
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// readLines returns the lines of the file, after trimming leading and trailing white space of
// the whole contents. Carriage returns are dropped. An empty file yields no lines.
func readLines(filePath string) ([]string, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, annotation.SourceError(filePath, err)
	}
	text := strings.TrimSpace(strings.ReplaceAll(string(contents), "\r\n", "\n"))
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// ReadLines returns the lines of a text list file, with the whole contents trimmed of leading
// and trailing white space.
func ReadLines(filePath string) ([]string, error) {
	return readLines(filePath)
}

// splitFirst splits line on its first space.
func splitFirst(filePath string, lineNum int, line string) (key, value string, err error) {
	key, value, found := strings.Cut(line, " ")
	if !found {
		err = errors.Wrapf(annotation.ErrMalformedRecord, "%s:%d: no space separating key and value in %q",
			filePath, lineNum, line)
	}
	return
}

// ReadPairs reads a file of "<key> <value...>" lines, split on the first space, and returns
// the keys and values in file order, without any conversion.
func ReadPairs(filePath string) (keys, values []string, err error) {
	lines, err := readLines(filePath)
	if err != nil {
		return nil, nil, err
	}
	keys = make([]string, 0, len(lines))
	values = make([]string, 0, len(lines))
	for ii, line := range lines {
		key, value, err := splitFirst(filePath, ii+1, line)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, value)
	}
	return keys, values, nil
}

// ReadTable reads a key/value file into a Table. Keys and values are converted with ParseValue.
//
// It fails with annotation.ErrMalformedRecord if any line doesn't have a separating space, and with
// annotation.ErrSourceFileNotFound if the file can't be read.
func ReadTable(filePath string) (*Table, error) {
	lines, err := readLines(filePath)
	if err != nil {
		return nil, err
	}
	table := NewTable()
	for ii, line := range lines {
		key, value, err := splitFirst(filePath, ii+1, line)
		if err != nil {
			return nil, err
		}
		table.Set(ParseValue(key), ParseValue(value))
	}
	klog.V(2).Infof("kvtext: read %d entries from %q", table.Len(), filePath)
	return table, nil
}

// ParseFloats parses a space separated list of numbers, as used for bounding boxes.
func ParseFloats(text string) ([]float64, error) {
	fields := strings.Split(strings.TrimSpace(text), " ")
	values := make([]float64, len(fields))
	for ii, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "invalid number %q in %q", field, text)
		}
		values[ii] = v
	}
	return values, nil
}
