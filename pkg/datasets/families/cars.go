// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/matfile"
	"github.com/pkg/errors"
)

const (
	StanfordCarsName     = "Stanford Cars"
	StanfordCarsMetaFile = "devkit/cars_meta.mat"
)

// StanfordCarsAnnotationsFile returns the annotations file of the split.
func StanfordCarsAnnotationsFile(split annotation.Split) string {
	if split == annotation.Train {
		return "devkit/cars_train_annos.mat"
	}
	return "devkit/cars_test_annos_withlabels.mat"
}

// StanfordCarsImageDir returns the image folder of the split.
func StanfordCarsImageDir(split annotation.Split) string {
	return "cars_" + split.String()
}

// Box corner fields of the "annotations" struct array.
var carCornerFields = [4]string{"bbox_x1", "bbox_y1", "bbox_x2", "bbox_y2"}

// StanfordCars normalizes the Stanford Cars dataset. The annotation files are already split,
// and the classes are the ones listed in the meta file.
func StanfordCars(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	annosPath := join(root, StanfordCarsAnnotationsFile(split))
	annos, err := matfile.Open(annosPath)
	if err != nil {
		return nil, errors.WithMessage(err, StanfordCarsName)
	}
	meta, err := matfile.Open(join(root, StanfordCarsMetaFile))
	if err != nil {
		return nil, errors.WithMessage(err, StanfordCarsName)
	}
	record, err := stanfordCarsRecord(annos, meta, opts.BBoxes)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s annotations %q", StanfordCarsName, annosPath)
	}
	record.ImageDir = StanfordCarsImageDir(split)
	return finish(StanfordCarsName, root, split, record)
}

// stanfordCarsRecord reads the images, 1-based classes and, optionally, the boxes from the
// "annotations" struct array, and the class names from "class_names".
//
// Box corners are 1-based pixel coordinates, and are shifted by -1 before conversion.
func stanfordCarsRecord(annos, meta matfile.Source, withBoxes bool) (*annotation.Record, error) {
	classes, err := matfile.Strings(meta, "class_names")
	if err != nil {
		return nil, err
	}
	elements, err := matfile.Records(annos, "annotations")
	if err != nil {
		return nil, err
	}
	record := &annotation.Record{
		Images:     make([]string, len(elements)),
		Targets:    make([]int, len(elements)),
		Classes:    classes,
		ClassToIdx: annotation.IndexClasses(classes),
	}
	if withBoxes {
		record.BBoxes = make([][]annotation.BBox, len(elements))
	}
	for ii, element := range elements {
		fname, err := matfile.Field(element, "fname")
		if err != nil {
			return nil, errors.WithMessagef(err, "annotation #%d", ii)
		}
		if record.Images[ii], err = matfile.String(fname); err != nil {
			return nil, errors.WithMessagef(err, "annotation #%d file name", ii)
		}
		class, err := matfile.Field(element, "class")
		if err != nil {
			return nil, errors.WithMessagef(err, "annotation #%d", ii)
		}
		label, err := matfile.Int(class)
		if err != nil {
			return nil, errors.WithMessagef(err, "annotation #%d class", ii)
		}
		record.Targets[ii] = label - 1
		if !withBoxes {
			continue
		}
		var corners [4]float64
		for jj, field := range carCornerFields {
			v, err := matfile.Field(element, field)
			if err != nil {
				return nil, errors.WithMessagef(err, "annotation #%d", ii)
			}
			if corners[jj], err = matfile.Float(v); err != nil {
				return nil, errors.WithMessagef(err, "annotation #%d field %s", ii, field)
			}
			corners[jj]--
		}
		record.BBoxes[ii] = []annotation.BBox{annotation.FromCorners(corners[0], corners[1], corners[2], corners[3])}
	}
	return record, nil
}
