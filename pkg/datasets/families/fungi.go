// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"fmt"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/gomlx/fgvcdata/pkg/core/readers/quotedcsv"
	"github.com/gomlx/fgvcdata/pkg/support/sets"
	"github.com/pkg/errors"
)

const (
	DanishFungiName     = "Danish Fungi (DF20M)"
	DanishFungiImageDir = "images"
)

// DanishFungiMetadataFile returns the metadata file of the split.
func DanishFungiMetadataFile(split annotation.Split) string {
	if split == annotation.Train {
		return "DF20M-train_metadata_PROD.csv"
	}
	return "DF20M-public_test_metadata_PROD.csv"
}

// DanishFungiColumns are the metadata columns read.
var DanishFungiColumns = []quotedcsv.Column{
	{Name: "ImageUniqueID", Convert: quotedcsv.AsString},
	{Name: "image_path", Convert: quotedcsv.AsString},
	{Name: "taxonID", Convert: quotedcsv.AsFloatInt},
	{Name: "species", Convert: quotedcsv.AsString},
}

// DanishFungi normalizes the Danish Fungi (DF20M) dataset, from the metadata file of the split.
//
// It has no bounding boxes: requesting them fails with annotation.ErrUnsupportedFeature.
func DanishFungi(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	if opts.BBoxes {
		return nil, errors.Wrapf(annotation.ErrUnsupportedFeature, "%s doesn't have bounding boxes", DanishFungiName)
	}
	metadataPath := join(root, DanishFungiMetadataFile(split))
	rows, err := quotedcsv.ReadFile(metadataPath, DanishFungiColumns)
	if err != nil {
		return nil, errors.WithMessage(err, DanishFungiName)
	}
	tables, err := fungiTables(rows, split)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s metadata %q", DanishFungiName, metadataPath)
	}
	record, err := tables.normalize(split)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s metadata %q", DanishFungiName, metadataPath)
	}
	record.ImageDir = DanishFungiImageDir
	return finish(DanishFungiName, root, split, record)
}

// fungiTables converts the metadata rows to the id keyed tables of the labeled image list
// algorithm: ids are 1-based row positions, and class ids are 1-based positions in the sorted
// list of class names "<species> (<taxonID>)". Every row belongs to split.
func fungiTables(rows []quotedcsv.Record, split annotation.Split) (*labeledImages, error) {
	tables := &labeledImages{
		images:  kvtext.NewTable(),
		splits:  kvtext.NewTable(),
		classes: kvtext.NewTable(),
		labels:  kvtext.NewTable(),
	}
	names := make([]string, len(rows))
	for ii, row := range rows {
		path, _ := row["image_path"].(string)
		species, _ := row["species"].(string)
		taxonID, ok := row["taxonID"].(int)
		if !ok {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "row %d: taxonID is %T", ii+1, row["taxonID"])
		}
		id := kvtext.Int(ii + 1)
		tables.images.Set(id, kvtext.ParseValue("images/"+path))
		tables.splits.Set(id, kvtext.Int(split.Flag()))
		names[ii] = fmt.Sprintf("%s (%d)", species, taxonID)
	}

	sortedNames := sets.Distinct(names)
	classIDs := make(map[string]int, len(sortedNames))
	for ii, name := range sortedNames {
		classIDs[name] = ii + 1
		tables.classes.Set(kvtext.Int(ii+1), kvtext.ParseValue(name))
	}
	for ii, name := range names {
		tables.labels.Set(kvtext.Int(ii+1), kvtext.Int(classIDs[name]))
	}
	return tables, nil
}
