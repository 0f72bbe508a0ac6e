// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package annotation

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error taxonomy. Errors returned by the readers and normalizers wrap one of these, and can be
// tested with errors.Is.
var (
	// ErrSourceFileNotFound is returned when a required annotation file (or image directory) is
	// missing or can't be read.
	ErrSourceFileNotFound = errors.New("source file not found")

	// ErrMalformedRecord is returned when a line or element doesn't match its expected micro-format.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrFormat is returned when an expected named field is absent from a structured matrix file.
	ErrFormat = errors.New("format error")

	// ErrMissingAnnotation is returned when an image has no label or box where one is required.
	ErrMissingAnnotation = errors.New("missing annotation")

	// ErrUnsupportedFeature is returned when a dataset is asked for something it doesn't provide,
	// e.g. bounding boxes for Oxford Flowers.
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// SourceFileError reports a required source file that could not be opened or read.
//
// It matches ErrSourceFileNotFound with errors.Is, and unwraps to the underlying file system error.
type SourceFileError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *SourceFileError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrSourceFileNotFound, e.Path, e.Err)
}

// Unwrap returns the underlying file system error.
func (e *SourceFileError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSourceFileNotFound) true.
func (e *SourceFileError) Is(target error) bool {
	return target == ErrSourceFileNotFound
}

// SourceError wraps a failure to open or read the file at path, with a stack trace.
func SourceError(path string, err error) error {
	return errors.WithStack(&SourceFileError{Path: path, Err: err})
}
