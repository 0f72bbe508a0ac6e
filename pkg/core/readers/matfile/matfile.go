// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package matfile reads named arrays out of MATLAB level-5 ".mat" files, as distributed with
// Stanford Cars, Stanford Dogs and Oxford Flowers.
//
// Variables are decoded into plain Go values:
//
//   - Numeric arrays: []any of the numbers, in column-major order.
//   - Char arrays: a string, or a []any of strings (one per row) for multi-row char arrays.
//   - Cell arrays: []any of the decoded cells.
//   - Structs: map[string]any of the decoded fields, and struct arrays a []any of those maps.
//
// MATLAB wraps most scalars in singleton containers (a 1x1 cell, a 1x1 matrix), so the accessors
// in this package unwrap those containers before converting the element to a Go scalar.
package matfile

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/daniellowtw/matlab"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Source provides named arrays. It is implemented by File, and can be implemented in memory
// for tests.
type Source interface {
	// Array returns the elements of the named variable. It returns an error wrapping
	// annotation.ErrFormat if the variable is absent.
	Array(name string) ([]any, error)
}

// File is a parsed ".mat" file.
type File struct {
	path string
	data []byte
	mat  *matlab.File
}

// Open reads and parses the ".mat" file at filePath.
//
// It returns an error wrapping annotation.ErrSourceFileNotFound if the file can't be read, and
// annotation.ErrFormat if it can't be parsed.
func Open(filePath string) (*File, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, annotation.SourceError(filePath, err)
	}
	mat, err := parse(data)
	if err != nil {
		return nil, errors.Wrapf(annotation.ErrFormat, "failed to parse Matlab file %q: %v", filePath, err)
	}
	klog.V(2).Infof("matfile: parsed %q, variables %v", filePath, mat.GetVarsNames())
	return &File{path: filePath, data: data, mat: mat}, nil
}

// parse reads the header and all the variables of a ".mat" file held in memory.
// The matlab library panics on some malformed or unsupported content, and those panics are
// returned as errors.
func parse(data []byte) (mat *matlab.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			mat, err = nil, errors.Errorf("%v", r)
		}
	}()
	mat, err = matlab.NewFileFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	// Variables are only read on first access.
	if len(mat.GetVarsNames()) == 0 {
		return nil, errors.New("no variables could be read")
	}
	return mat, nil
}

// Path of the file.
func (f *File) Path() string { return f.path }

// byteOrder of the file, as declared in its header.
func (f *File) byteOrder() binary.ByteOrder {
	return f.mat.Header.Endianess
}

// Array implements Source.
func (f *File) Array(name string) ([]any, error) {
	matVar, found := f.mat.GetVar(name)
	if !found {
		return nil, errors.Wrapf(annotation.ErrFormat, "variable %q not found in Matlab file %q", name, f.path)
	}
	if isStruct(matVar) && numElements(matVar.Dimension) != 1 {
		values, err := f.structArray(name)
		if err != nil {
			return nil, errors.WithMessagef(err, "Matlab file %q", f.path)
		}
		return values, nil
	}
	value, err := decode(matVar)
	if err != nil {
		return nil, errors.WithMessagef(err, "variable %q of Matlab file %q", name, f.path)
	}
	if values, ok := value.([]any); ok {
		return values, nil
	}
	return []any{value}, nil
}

// Strings reads the named variable as a list of strings (e.g. a cell array of char arrays).
func Strings(src Source, name string) ([]string, error) {
	values, err := src.Array(name)
	if err != nil {
		return nil, err
	}
	values = Elements(values)
	strs := make([]string, len(values))
	for ii, v := range values {
		strs[ii], err = String(v)
		if err != nil {
			return nil, errors.WithMessagef(err, "element #%d of %q", ii, name)
		}
	}
	return strs, nil
}

// Records reads the named variable as a list of struct elements, to be accessed with Field.
func Records(src Source, name string) ([]any, error) {
	values, err := src.Array(name)
	if err != nil {
		return nil, err
	}
	return Elements(values), nil
}

// MemSource is an in-memory Source, keyed by variable name. Values should have the shapes
// File.Array returns.
type MemSource map[string][]any

// Array implements Source.
func (m MemSource) Array(name string) ([]any, error) {
	values, found := m[name]
	if !found {
		return nil, errors.Wrapf(annotation.ErrFormat, "variable %q not found", name)
	}
	return values, nil
}
