// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"os"
	"slices"
	"strconv"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/matfile"
	"github.com/gomlx/fgvcdata/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	OxfordFlowersName       = "Oxford Flowers 102"
	OxfordFlowersImageDir   = "jpg"
	OxfordFlowersLabelsFile = "imagelabels.mat"
	OxfordFlowersSplitFile  = "setid.mat"
)

// Split arrays of setid.mat: validation images are part of the train split.
var flowersSplitArrays = []struct {
	name  string
	split annotation.Split
}{
	{"trnid", annotation.Train},
	{"valid", annotation.Train},
	{"tstid", annotation.Test},
}

// OxfordFlowers normalizes the Oxford Flowers 102 dataset. The image list is the sorted list
// of files of the "jpg" folder, and each image id is read from its file name
// ("image_00001.jpg" has id 1).
//
// It has no bounding boxes: requesting them fails with annotation.ErrUnsupportedFeature.
func OxfordFlowers(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	if opts.BBoxes {
		return nil, errors.Wrapf(annotation.ErrUnsupportedFeature, "%s doesn't have bounding boxes", OxfordFlowersName)
	}
	imageDir := join(root, OxfordFlowersImageDir)
	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, errors.WithMessage(annotation.SourceError(imageDir, err), OxfordFlowersName)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			klog.Warningf("%s: skipping directory %q in %q", OxfordFlowersName, entry.Name(), imageDir)
			continue
		}
		files = append(files, entry.Name())
	}
	slices.Sort(files)

	labels, err := matfile.Open(join(root, OxfordFlowersLabelsFile))
	if err != nil {
		return nil, errors.WithMessage(err, OxfordFlowersName)
	}
	splits, err := matfile.Open(join(root, OxfordFlowersSplitFile))
	if err != nil {
		return nil, errors.WithMessage(err, OxfordFlowersName)
	}
	record, err := oxfordFlowersRecord(files, labels, splits, split)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s in %q", OxfordFlowersName, root)
	}
	return finish(OxfordFlowersName, root, split, record)
}

// flowersImageID parses the image id from the characters [6, 11) of the file name.
func flowersImageID(file string) (int, error) {
	if len(file) < 11 {
		return 0, errors.Wrapf(annotation.ErrMalformedRecord, "image file name %q too short to hold an id", file)
	}
	id, err := strconv.Atoi(file[6:11])
	if err != nil {
		return 0, errors.Wrapf(annotation.ErrMalformedRecord, "image file name %q doesn't hold an id", file)
	}
	return id, nil
}

// oxfordFlowersRecord pairs the sorted files with the labels by position, and keeps the ones whose
// id is assigned to split. Classes are all the distinct labels, sorted.
//
// The id parsed from the file name selects the split only: a missing or extra file in the folder
// shifts the labels of the files after it.
func oxfordFlowersRecord(files []string, labelsSrc, splitsSrc matfile.Source, split annotation.Split) (*annotation.Record, error) {
	labels, err := matfile.Numbers[int](labelsSrc, "labels")
	if err != nil {
		return nil, err
	}
	idToSplit := make(map[int]annotation.Split)
	for _, array := range flowersSplitArrays {
		ids, err := matfile.Numbers[int](splitsSrc, array.name)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			idToSplit[id] = array.split
		}
	}

	distinct := sets.MakeWith(labels...)
	classLabels := sets.Sorted(distinct)
	labelToIdx := make(map[int]int, len(classLabels))
	record := &annotation.Record{ImageDir: OxfordFlowersImageDir}
	for ii, label := range classLabels {
		labelToIdx[label] = ii
		record.Classes = append(record.Classes, strconv.Itoa(label))
	}
	record.ClassToIdx = annotation.IndexClasses(record.Classes)

	if len(files) != len(labels) {
		klog.Warningf("%s: %d image files for %d labels, labels are paired with files by position", OxfordFlowersName, len(files), len(labels))
	}
	n := min(len(files), len(labels))
	for ii := range n {
		id, err := flowersImageID(files[ii])
		if err != nil {
			return nil, err
		}
		imageSplit, found := idToSplit[id]
		if !found || imageSplit != split {
			continue
		}
		record.Images = append(record.Images, files[ii])
		record.Targets = append(record.Targets, labelToIdx[labels[ii]])
	}
	return record, nil
}
