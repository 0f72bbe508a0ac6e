// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package quotedcsv reads the comma separated metadata files of the Danish Fungi dataset.
//
// The files use a simple dialect: each line is split on every comma, and a field that starts
// with a double quote is re-assembled from the following comma-split tokens until one ends with
// a double quote. Doubled quotes ("") are not treated as escapes, and empty tokens are never
// joined into an open quoted field. This is not RFC 4180 CSV, and encoding/csv would parse some
// of the class names differently.
package quotedcsv

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Converter converts the raw text of a field to a typed value.
type Converter func(text string) (any, error)

// Column requested from the file: Name must match a header field exactly.
type Column struct {
	Name    string
	Convert Converter
}

// Record holds the converted values of the requested columns of one row.
type Record map[string]any

// AsString keeps the field as is.
func AsString(text string) (any, error) {
	return text, nil
}

// AsFloatInt parses the field as a floating point number and truncates it to an int,
// e.g. "60234.0" -> 60234.
func AsFloatInt(text string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, err
	}
	return int(f), nil
}

// SplitFields splits one (already trimmed) line into fields, re-joining quoted fragments.
func SplitFields(line string) []string {
	tokens := strings.Split(line, ",")
	fields := make([]string, 0, len(tokens))
	inFragment := false
	for _, token := range tokens {
		switch {
		case len(token) == 0:
			fields = append(fields, token)
		case inFragment:
			last := len(fields) - 1
			if token[len(token)-1] == '"' {
				fields[last] += "," + token[:len(token)-1]
				inFragment = false
			} else {
				fields[last] += "," + token
			}
		case token[0] == '"':
			if len(token) == 1 {
				fields = append(fields, "")
			} else if token[len(token)-1] == '"' {
				fields = append(fields, token[1:len(token)-1])
			} else {
				fields = append(fields, token[1:])
				inFragment = true
			}
		default:
			fields = append(fields, token)
		}
	}
	return fields
}

// ReadFile reads the file at filePath, using the first line as the header, and returns one
// Record per data row with the requested columns converted.
//
// If a column name appears more than once in the header, the last occurrence is used.
// Blank lines are skipped.
func ReadFile(filePath string, columns []Column) ([]Record, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, annotation.SourceError(filePath, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var indices []int
	var records []Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if indices == nil {
			// Header: its tokens are matched verbatim, no quote handling.
			indices, err = columnIndices(filePath, strings.Split(line, ","), columns)
			if err != nil {
				return nil, err
			}
			continue
		}
		if line == "" {
			continue
		}
		fields := SplitFields(line)
		record := make(Record, len(columns))
		for ii, column := range columns {
			idx := indices[ii]
			if idx >= len(fields) {
				return nil, errors.Wrapf(annotation.ErrMalformedRecord, "%s:%d: column %q (#%d) missing, row has only %d fields",
					filePath, lineNum, column.Name, idx, len(fields))
			}
			value, err := column.Convert(fields[idx])
			if err != nil {
				return nil, errors.Wrapf(annotation.ErrMalformedRecord, "%s:%d: invalid value %q for column %q: %v",
					filePath, lineNum, fields[idx], column.Name, err)
			}
			record[column.Name] = value
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, annotation.SourceError(filePath, err)
	}
	if indices == nil {
		return nil, errors.Wrapf(annotation.ErrFormat, "%q has no header line", filePath)
	}
	klog.V(1).Infof("quotedcsv: read %d records from %q", len(records), filePath)
	return records, nil
}

func columnIndices(filePath string, header []string, columns []Column) ([]int, error) {
	indices := make([]int, len(columns))
	for ii, column := range columns {
		indices[ii] = -1
		for jj, name := range header {
			if name == column.Name {
				indices[ii] = jj
			}
		}
		if indices[ii] < 0 {
			return nil, errors.Wrapf(annotation.ErrFormat, "column %q not found in header of %q", column.Name, filePath)
		}
	}
	return indices, nil
}
