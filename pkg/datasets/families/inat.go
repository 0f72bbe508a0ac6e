// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"slices"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/gomlx/fgvcdata/pkg/support/sets"
	"github.com/pkg/errors"
)

const (
	InatCUBName       = "iNat CUB"
	InatCUBImagesFile = "images.txt"
	InatCUBBoxesFile  = "bounding_boxes.txt"
	InatCUBImageDir   = "images"
)

// InatCUB normalizes the iNaturalist CUB evaluation sets, which have one single split: the
// split argument is ignored.
//
// The images file lists one "<label>/<file name>" per line, and the bounding boxes file, if
// requested, one "x y width height" per line, in the same order as the images file.
func InatCUB(root string, _ annotation.Split, opts Options) (*annotation.Record, error) {
	imagesPath := join(root, InatCUBImagesFile)
	lines, err := kvtext.ReadLines(imagesPath)
	if err != nil {
		return nil, errors.WithMessage(err, InatCUBName)
	}
	record, err := inatRecord(lines)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s images %q", InatCUBName, imagesPath)
	}
	if opts.BBoxes {
		boxesPath := join(root, InatCUBBoxesFile)
		boxLines, err := kvtext.ReadLines(boxesPath)
		if err != nil {
			return nil, errors.WithMessage(err, InatCUBName)
		}
		record.BBoxes = make([][]annotation.BBox, len(boxLines))
		for ii, line := range boxLines {
			box, err := parseBox(line)
			if err != nil {
				return nil, errors.WithMessagef(err, "%s boxes %q, line %d", InatCUBName, boxesPath, ii+1)
			}
			record.BBoxes[ii] = []annotation.BBox{box}
		}
	}
	return finish(InatCUBName, root, annotation.Test, record)
}

// inatRecord sorts the lines, and uses the folder of each one as its label. Classes are the
// sorted distinct labels.
func inatRecord(lines []string) (*annotation.Record, error) {
	images := slices.Clone(lines)
	slices.Sort(images)
	labels := make([]string, len(images))
	for ii, image := range images {
		if strings.Count(image, "/") != 1 {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "entry %q is not in the form <label>/<file name>", image)
		}
		labels[ii], _, _ = strings.Cut(image, "/")
	}
	record := &annotation.Record{
		ImageDir: InatCUBImageDir,
		Images:   images,
		Targets:  make([]int, len(images)),
		Classes:  sets.Distinct(labels),
	}
	record.ClassToIdx = annotation.IndexClasses(record.Classes)
	for ii, label := range labels {
		record.Targets[ii] = record.ClassToIdx[label]
	}
	return record, nil
}
