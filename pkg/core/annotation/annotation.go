// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package annotation defines the canonical, dataset independent, representation of a
// fine-grained visual categorization (FGVC) dataset split: an ordered list of images, their
// integer targets, the class vocabulary and, optionally, bounding boxes.
//
// Every per-dataset normalizer reduces its source files to a Record, and every failure is
// reported with one of the sentinel errors of this package, so callers can classify errors
// with errors.Is.
package annotation

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Split selects the train or the test partition of a dataset.
type Split int

const (
	Train Split = iota
	Test
)

// String implements fmt.Stringer.
func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Test:
		return "test"
	}
	return fmt.Sprintf("Split(%d)", int(s))
}

// Flag returns the integer flag used by split assignment files: 1 for Train and 0 for Test.
func (s Split) Flag() int {
	if s == Train {
		return 1
	}
	return 0
}

// SplitFromBool converts a "train" boolean flag to a Split.
func SplitFromBool(train bool) Split {
	if train {
		return Train
	}
	return Test
}

// ParseSplit converts the names "train", "test" and "val" to a Split. "val" is an alias to Test.
// The second value is false if the name is not a split name.
func ParseSplit(name string) (Split, bool) {
	switch name {
	case "train":
		return Train, true
	case "test", "val":
		return Test, true
	}
	return Train, false
}

// BBox is a bounding box in absolute pixel coordinates of the original image.
//
// It is serialized to JSON as the 4-element array [x, y, width, height].
type BBox struct {
	X, Y, Width, Height float64
}

// FromCorners creates a BBox from the top-left (x1, y1) and bottom-right (x2, y2) corners.
func FromCorners(x1, y1, x2, y2 float64) BBox {
	return BBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Array returns the box as [x, y, width, height].
func (b BBox) Array() [4]float64 {
	return [4]float64{b.X, b.Y, b.Width, b.Height}
}

// MarshalJSON implements json.Marshaler.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Array())
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if len(values) != 4 {
		return errors.Wrapf(ErrMalformedRecord, "bounding box must have 4 values, got %d", len(values))
	}
	*b = BBox{X: values[0], Y: values[1], Width: values[2], Height: values[3]}
	return nil
}

// Record is the canonical representation of one split of a dataset.
//
// A Record is built once by a normalizer and never mutated afterwards.
type Record struct {
	// ImageDir is the directory, relative to the dataset root, where Images are stored.
	ImageDir string

	// Images holds the relative paths (to ImageDir) of the images, in iteration order.
	Images []string

	// Targets holds the class index of each image, aligned with Images.
	Targets []int

	// Classes holds the class name of each class index.
	Classes []string

	// ClassToIdx is the inverse of Classes.
	ClassToIdx map[string]int

	// BBoxes is optional (nil if not requested). When present, it is aligned with Images, and each
	// image may have zero, one or more boxes.
	BBoxes [][]BBox
}

// Len returns the number of images in the record.
func (r *Record) Len() int {
	return len(r.Images)
}

// NumClasses returns the number of classes in the record.
func (r *Record) NumClasses() int {
	return len(r.Classes)
}

// HasBBoxes returns whether bounding boxes were loaded.
func (r *Record) HasBBoxes() bool {
	return r.BBoxes != nil
}

// Validate checks the invariants of the Record: aligned lengths, targets within range of
// Classes and ClassToIdx being the inverse of Classes.
func (r *Record) Validate() error {
	if len(r.Targets) != len(r.Images) {
		return errors.Wrapf(ErrMalformedRecord, "%d targets for %d images", len(r.Targets), len(r.Images))
	}
	if r.BBoxes != nil && len(r.BBoxes) != len(r.Images) {
		return errors.Wrapf(ErrMissingAnnotation, "%d bounding box entries for %d images", len(r.BBoxes), len(r.Images))
	}
	numClasses := len(r.Classes)
	for ii, target := range r.Targets {
		if target < 0 || target >= numClasses {
			return errors.Wrapf(ErrMissingAnnotation, "image #%d (%q) has target %d, but there are only %d classes",
				ii, r.Images[ii], target, numClasses)
		}
	}
	if len(r.ClassToIdx) != numClasses {
		return errors.Wrapf(ErrMalformedRecord, "class_to_idx has %d entries for %d classes", len(r.ClassToIdx), numClasses)
	}
	for ii, name := range r.Classes {
		if idx, found := r.ClassToIdx[name]; !found || idx != ii {
			return errors.Wrapf(ErrMalformedRecord, "class %q is at position %d but class_to_idx maps it to %d (found=%v)",
				name, ii, idx, found)
		}
	}
	return nil
}

// IndexClasses returns the ClassToIdx mapping for the given ordered class names.
func IndexClasses(classes []string) map[string]int {
	classToIdx := make(map[string]int, len(classes))
	for ii, name := range classes {
		classToIdx[name] = ii
	}
	return classToIdx
}
