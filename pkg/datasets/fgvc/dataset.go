// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fgvc provides a common interface to fine-grained visual categorization (FGVC)
// datasets: CUB birds (and CUB++), NABirds, Stanford Cars, Stanford Dogs, Tsinghua Dogs,
// Oxford Flowers 102, FGVC Aircraft, Danish Fungi and the iNaturalist CUB evaluation sets.
//
// Each dataset is read from its original distribution layout, and exposed as an indexed list
// of (image, class index) pairs, with the class names and optional bounding boxes:
//
//	ds, err := fgvc.New("cub", "~/work/fgvc/CUB_200_2011").
//		Test().
//		ImageTransforms(fgvc.ResizeShorter(256), fgvc.CenterCrop(224, 224)).
//		Done()
//	if err != nil { ... }
//	img, target, err := ds.Item(0)
//
// The root directory may end in "/train", "/test" or "/val" to select the split, even if no such
// sub-directory exists.
package fgvc

import (
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"

	// Extra image formats.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dataset is an immutable, indexed list of the images of one split of a dataset. It is safe
// for concurrent use.
type Dataset struct {
	family *Family
	root   string
	split  annotation.Split
	record *annotation.Record

	imageTransforms  []ImageTransform
	targetTransforms []TargetTransform
}

// Family of the dataset.
func (ds *Dataset) Family() *Family { return ds.family }

// Name of the dataset.
func (ds *Dataset) Name() string { return ds.family.Display }

// Root directory of the dataset, after the split suffix was removed.
func (ds *Dataset) Root() string { return ds.root }

// Split of the dataset.
func (ds *Dataset) Split() annotation.Split { return ds.split }

// Record returns the normalized annotations. It must not be modified.
func (ds *Dataset) Record() *annotation.Record { return ds.record }

// Len returns the number of images.
func (ds *Dataset) Len() int { return ds.record.Len() }

// Classes returns the class names, indexed by target. It must not be modified.
func (ds *Dataset) Classes() []string { return ds.record.Classes }

// checkIndex returns an error if idx is out of range.
func (ds *Dataset) checkIndex(idx int) error {
	if idx < 0 || idx >= ds.Len() {
		return errors.Errorf("%s: index %d out of range, dataset has %d images", ds.Name(), idx, ds.Len())
	}
	return nil
}

// Path returns the path to the image file of item idx.
func (ds *Dataset) Path(idx int) (string, error) {
	if err := ds.checkIndex(idx); err != nil {
		return "", err
	}
	return filepath.Join(ds.root, ds.record.ImageDir, ds.record.Images[idx]), nil
}

// Target returns the class index of item idx, without target transforms.
func (ds *Dataset) Target(idx int) (int, error) {
	if err := ds.checkIndex(idx); err != nil {
		return 0, err
	}
	return ds.record.Targets[idx], nil
}

// BBoxes returns the bounding boxes of item idx, or nil if bounding boxes were not loaded.
func (ds *Dataset) BBoxes(idx int) ([]annotation.BBox, error) {
	if err := ds.checkIndex(idx); err != nil {
		return nil, err
	}
	if !ds.record.HasBBoxes() {
		return nil, nil
	}
	return ds.record.BBoxes[idx], nil
}

// Item reads and decodes the image of item idx, applying the EXIF orientation, and returns it
// along with its target. Image and target transforms are applied in order.
func (ds *Dataset) Item(idx int) (img image.Image, target int, err error) {
	imagePath, err := ds.Path(idx)
	if err != nil {
		return nil, 0, err
	}
	img, err = imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, annotation.SourceError(imagePath, err)
		}
		return nil, 0, errors.Wrapf(err, "%s: failed to decode image #%d (%q)", ds.Name(), idx, imagePath)
	}
	if len(ds.imageTransforms) > 0 {
		info := ItemInfo{Index: idx, Path: imagePath}
		if ds.record.HasBBoxes() {
			info.BBoxes = ds.record.BBoxes[idx]
		}
		for _, transform := range ds.imageTransforms {
			img = transform.Apply(img, info)
		}
	}
	target = ds.record.Targets[idx]
	for _, transform := range ds.targetTransforms {
		target = transform.Apply(target)
	}
	return img, target, nil
}

// String implements fmt.Stringer, with a summary of the dataset.
func (ds *Dataset) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Dataset %s\n", ds.Name())
	_, _ = fmt.Fprintf(&sb, "    Number of datapoints: %s\n", humanize.Comma(int64(ds.Len())))
	_, _ = fmt.Fprintf(&sb, "    Number of classes: %s\n", humanize.Comma(int64(ds.record.NumClasses())))
	_, _ = fmt.Fprintf(&sb, "    Root location: %s\n", ds.root)
	_, _ = fmt.Fprintf(&sb, "    Split: %s\n", ds.split)
	if ds.record.HasBBoxes() {
		sb.WriteString("    Bounding boxes: loaded\n")
	}
	if len(ds.imageTransforms) > 0 {
		names := make([]string, len(ds.imageTransforms))
		for ii, transform := range ds.imageTransforms {
			names[ii] = transform.Name
		}
		_, _ = fmt.Fprintf(&sb, "    Transforms: %s\n", strings.Join(names, ", "))
	}
	if len(ds.targetTransforms) > 0 {
		names := make([]string, len(ds.targetTransforms))
		for ii, transform := range ds.targetTransforms {
			names[ii] = transform.Name
		}
		_, _ = fmt.Fprintf(&sb, "    Target transforms: %s\n", strings.Join(names, ", "))
	}
	return sb.String()
}

// ClassCounts returns the number of images of each class, indexed by target.
func (ds *Dataset) ClassCounts() []int {
	counts := make([]int, ds.record.NumClasses())
	for _, target := range ds.record.Targets {
		counts[target]++
	}
	return counts
}
