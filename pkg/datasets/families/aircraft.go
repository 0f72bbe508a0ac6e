// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/gomlx/fgvcdata/pkg/support/sets"
	"github.com/pkg/errors"
)

const (
	AircraftName     = "FGVC Aircraft"
	AircraftImageDir = "data/images"
	AircraftBoxFile  = "data/images_box.txt"
)

// AircraftVariantFile returns the "<image> <variant>" list file of the split.
func AircraftVariantFile(split annotation.Split) string {
	if split == annotation.Train {
		return "data/images_variant_trainval.txt"
	}
	return "data/images_variant_test.txt"
}

// Aircraft normalizes the FGVC Aircraft dataset, at the "variant" level. Classes are the sorted
// distinct variant names of the split.
//
// Bounding boxes are read from "data/images_box.txt", with lines "<image> x1 y1 x2 y2".
func Aircraft(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	variantPath := join(root, AircraftVariantFile(split))
	stems, labels, err := kvtext.ReadPairs(variantPath)
	if err != nil {
		return nil, errors.WithMessage(err, AircraftName)
	}
	record := aircraftRecord(stems, labels)
	if opts.BBoxes {
		boxPath := join(root, AircraftBoxFile)
		boxStems, boxTexts, err := kvtext.ReadPairs(boxPath)
		if err != nil {
			return nil, errors.WithMessage(err, AircraftName)
		}
		record.BBoxes, err = aircraftBoxes(record.Images, boxStems, boxTexts)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s boxes %q", AircraftName, boxPath)
		}
	}
	return finish(AircraftName, root, split, record)
}

// aircraftRecord keeps the file order of the images, and adds the ".jpg" extension to the stems.
func aircraftRecord(stems, labels []string) *annotation.Record {
	record := &annotation.Record{
		ImageDir: AircraftImageDir,
		Images:   make([]string, len(stems)),
		Targets:  make([]int, len(stems)),
		Classes:  sets.Distinct(labels),
	}
	record.ClassToIdx = annotation.IndexClasses(record.Classes)
	for ii, stem := range stems {
		record.Images[ii] = stem + ".jpg"
		record.Targets[ii] = record.ClassToIdx[labels[ii]]
	}
	return record
}

// aircraftBoxes converts the corner boxes of the box file to boxes aligned with images.
func aircraftBoxes(images, boxStems, boxTexts []string) ([][]annotation.BBox, error) {
	byImage := make(map[string]string, len(boxStems))
	for ii, stem := range boxStems {
		byImage[stem+".jpg"] = boxTexts[ii]
	}
	boxes := make([][]annotation.BBox, len(images))
	for ii, image := range images {
		text, found := byImage[image]
		if !found {
			return nil, errors.Wrapf(annotation.ErrMissingAnnotation, "no bounding box for image %q", image)
		}
		corners, err := parseBox(text)
		if err != nil {
			return nil, errors.WithMessagef(err, "image %q", image)
		}
		// parseBox reads the 4 values as x, y, width, height: here they are the corners.
		boxes[ii] = []annotation.BBox{annotation.FromCorners(corners.X, corners.Y, corners.Width, corners.Height)}
	}
	return boxes, nil
}
