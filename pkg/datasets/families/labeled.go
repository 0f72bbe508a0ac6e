// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/gomlx/fgvcdata/pkg/support/sets"
	"github.com/pkg/errors"
)

// labeledImages holds the four id keyed tables of a "labeled image list" dataset, unfiltered.
type labeledImages struct {
	// images maps image id to the image path.
	images *kvtext.Table

	// splits maps image id to the split flag (1 for train, 0 for test).
	splits *kvtext.Table

	// classes maps class id to class name.
	classes *kvtext.Table

	// labels maps image id to class id.
	labels *kvtext.Table

	// boxes maps image id to "x y width height". Only used if not nil.
	boxes *kvtext.Table
}

// inSplit returns whether the image id is labeled and assigned to split. Ids missing from the
// labels or the splits table are excluded.
func (l *labeledImages) inSplit(id kvtext.Value, split annotation.Split) bool {
	if !l.labels.Has(id) {
		return false
	}
	flag, found := l.splits.Get(id)
	if !found {
		return false
	}
	n, isInt := flag.Int()
	return isInt && n == split.Flag()
}

// normalize selects the images of split in ascending image id order, and renumbers the classes
// present in the split densely, in ascending class id order.
func (l *labeledImages) normalize(split annotation.Split) (*annotation.Record, error) {
	var ids []kvtext.Value
	rawTargets := make([]kvtext.Value, 0, l.images.Len())
	occurring := sets.Make[kvtext.Value]()
	for _, id := range l.images.SortedKeys() {
		if !l.inSplit(id, split) {
			continue
		}
		label, _ := l.labels.Get(id)
		ids = append(ids, id)
		rawTargets = append(rawTargets, label)
		occurring.Insert(label.Key())
	}

	record := &annotation.Record{
		Images:  make([]string, len(ids)),
		Targets: make([]int, len(ids)),
	}
	denseIdx := make(map[kvtext.Value]int, len(occurring))
	for _, classID := range l.classes.SortedKeys() {
		if !occurring.Has(classID.Key()) {
			continue
		}
		name, _ := l.classes.Get(classID)
		denseIdx[classID.Key()] = len(record.Classes)
		record.Classes = append(record.Classes, name.String())
	}
	record.ClassToIdx = annotation.IndexClasses(record.Classes)

	for ii, id := range ids {
		path, _ := l.images.Get(id)
		record.Images[ii] = path.String()
		target, found := denseIdx[rawTargets[ii].Key()]
		if !found {
			return nil, errors.Wrapf(annotation.ErrMissingAnnotation,
				"image id %s (%q) is labeled with class id %s, which has no class name", id, path, rawTargets[ii])
		}
		record.Targets[ii] = target
	}

	if l.boxes != nil {
		record.BBoxes = make([][]annotation.BBox, len(ids))
		for ii, id := range ids {
			text, found := l.boxes.Get(id)
			if !found {
				return nil, errors.Wrapf(annotation.ErrMissingAnnotation, "no bounding box for image id %s", id)
			}
			box, err := parseBox(text.String())
			if err != nil {
				return nil, errors.WithMessagef(err, "bounding box of image id %s", id)
			}
			record.BBoxes[ii] = []annotation.BBox{box}
		}
	}
	return record, nil
}

// parseBox parses 4 space separated numbers, "x y width height".
func parseBox(text string) (annotation.BBox, error) {
	values, err := kvtext.ParseFloats(text)
	if err != nil {
		return annotation.BBox{}, err
	}
	if len(values) != 4 {
		return annotation.BBox{}, errors.Wrapf(annotation.ErrMalformedRecord, "bounding box needs 4 values, got %q", text)
	}
	return annotation.BBox{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}
