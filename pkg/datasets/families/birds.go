// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/pkg/errors"
)

// Annotation files of the bird family, relative to the dataset root.
const (
	BirdImagesFile        = "images.txt"
	BirdSplitFile         = "train_test_split.txt"
	BirdClassesFile       = "classes.txt"
	BirdLabelsFile        = "image_class_labels.txt"
	BirdBoundingBoxesFile = "bounding_boxes.txt"
	CUBPlusLabelsFile     = "cubplus_image_class_labels.txt"
	BirdImageDir          = "images"
)

// Birds returns the normalizer for a bird family dataset, that reads the image labels from
// labelsFile.
func Birds(name, labelsFile string) Normalizer {
	return func(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
		tables := &labeledImages{}
		for _, entry := range []struct {
			table **kvtext.Table
			file  string
		}{
			{&tables.images, BirdImagesFile},
			{&tables.splits, BirdSplitFile},
			{&tables.classes, BirdClassesFile},
			{&tables.labels, labelsFile},
		} {
			table, err := kvtext.ReadTable(join(root, entry.file))
			if err != nil {
				return nil, errors.WithMessagef(err, "%s", name)
			}
			*entry.table = table
		}
		if opts.BBoxes {
			var err error
			tables.boxes, err = kvtext.ReadTable(join(root, BirdBoundingBoxesFile))
			if err != nil {
				return nil, errors.WithMessagef(err, "%s", name)
			}
		}
		record, err := tables.normalize(split)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s in %q", name, root)
		}
		record.ImageDir = BirdImageDir
		return finish(name, root, split, record)
	}
}

var (
	// CUB is the normalizer of Caltech-UCSD Birds 200 (2011).
	CUB = Birds("Caltech UCSD Birds (CUB)", BirdLabelsFile)

	// CUBPlus is the normalizer of CUB++: CUB with expert validated labels.
	CUBPlus = Birds("Caltech UCSD Birds (CUB++)", CUBPlusLabelsFile)

	// NABirds is the normalizer of the NABirds dataset.
	NABirds = Birds("NABirds", BirdLabelsFile)
)
