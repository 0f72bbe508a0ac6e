// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"slices"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/kvtext"
	"github.com/gomlx/fgvcdata/pkg/core/readers/matfile"
	"github.com/gomlx/fgvcdata/pkg/core/readers/xmlbox"
	"github.com/pkg/errors"
)

const (
	StanfordDogsName          = "Stanford Dogs"
	StanfordDogsImageDir      = "Images"
	StanfordDogsAnnotationDir = "Annotation"

	TsinghuaDogsName          = "Tsinghua Dogs"
	TsinghuaDogsImageDir      = "low-resolution"
	TsinghuaDogsAnnotationDir = "Low-Annotations"
	TsinghuaDogsBoxTag        = "bodybndbox"
)

// StanfordDogsListFile returns the Matlab list file of the split.
func StanfordDogsListFile(split annotation.Split) string {
	return split.String() + "_list.mat"
}

// TsinghuaDogsListFile returns the image list file of the split.
func TsinghuaDogsListFile(split annotation.Split) string {
	if split == annotation.Train {
		return "TrainAndValList/train.lst"
	}
	return "TrainAndValList/validation.lst"
}

// StanfordDogs normalizes the Stanford Dogs dataset.
//
// Bounding boxes are parsed from the per-image XML files in the "Annotation" folder, and cached
// in the root directory.
func StanfordDogs(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	listPath := join(root, StanfordDogsListFile(split))
	list, err := matfile.Open(listPath)
	if err != nil {
		return nil, errors.WithMessage(err, StanfordDogsName)
	}
	record, err := stanfordDogsRecord(list)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s list %q", StanfordDogsName, listPath)
	}
	if opts.BBoxes {
		annotations, err := matfile.Strings(list, "annotation_list")
		if err != nil {
			return nil, errors.WithMessagef(err, "%s list %q", StanfordDogsName, listPath)
		}
		xmlPaths := make([]string, len(annotations))
		for ii, a := range annotations {
			xmlPaths[ii] = join(root, StanfordDogsAnnotationDir, a)
		}
		record.BBoxes, err = cachedBoxes(root, split, xmlPaths, xmlbox.DefaultTag, opts)
		if err != nil {
			return nil, errors.WithMessage(err, StanfordDogsName)
		}
	}
	return finish(StanfordDogsName, root, split, record)
}

// stanfordDogsRecord builds the record from the "file_list" and "labels" arrays. The class of an
// image is its folder name, and classes are listed in order of first appearance.
func stanfordDogsRecord(list matfile.Source) (*annotation.Record, error) {
	files, err := matfile.Strings(list, "file_list")
	if err != nil {
		return nil, err
	}
	labels, err := matfile.Numbers[int](list, "labels")
	if err != nil {
		return nil, err
	}
	if len(files) != len(labels) {
		return nil, errors.Wrapf(annotation.ErrMissingAnnotation, "%d files for %d labels", len(files), len(labels))
	}
	record := &annotation.Record{
		ImageDir:   StanfordDogsImageDir,
		Images:     files,
		Targets:    make([]int, len(files)),
		ClassToIdx: make(map[string]int),
	}
	for ii, file := range files {
		target := labels[ii] - 1
		record.Targets[ii] = target
		folder, _, _ := strings.Cut(file, "/")
		if _, found := record.ClassToIdx[folder]; !found {
			record.Classes = append(record.Classes, folder)
		}
		record.ClassToIdx[folder] = target
	}
	return record, nil
}

// TsinghuaDogs normalizes the Tsinghua Dogs dataset. The test split is the validation list.
//
// Bounding boxes (of the dog bodies) are parsed from the per-image XML files in the
// "Low-Annotations" folder, and cached in the root directory.
func TsinghuaDogs(root string, split annotation.Split, opts Options) (*annotation.Record, error) {
	listPath := join(root, TsinghuaDogsListFile(split))
	lines, err := kvtext.ReadLines(listPath)
	if err != nil {
		return nil, errors.WithMessage(err, TsinghuaDogsName)
	}
	record, err := tsinghuaDogsRecord(lines)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s list %q", TsinghuaDogsName, listPath)
	}
	if opts.BBoxes {
		xmlPaths := make([]string, len(record.Images))
		for ii, image := range record.Images {
			xmlPaths[ii] = join(root, TsinghuaDogsAnnotationDir, image+".xml")
		}
		record.BBoxes, err = cachedBoxes(root, split, xmlPaths, TsinghuaDogsBoxTag, opts)
		if err != nil {
			return nil, errors.WithMessage(err, TsinghuaDogsName)
		}
	}
	return finish(TsinghuaDogsName, root, split, record)
}

// tsinghuaDogsRecord builds the record from the lines of a list file. The first line holds a
// stray byte and is skipped, and each entry starts with a 3 characters prefix (".//"). Classes
// are the folder names, in order of first appearance in the sorted list.
func tsinghuaDogsRecord(lines []string) (*annotation.Record, error) {
	if len(lines) > 0 {
		lines = lines[1:]
	}
	files := make([]string, len(lines))
	for ii, line := range lines {
		if len(line) < 3 {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "line %d: entry %q too short", ii+2, line)
		}
		files[ii] = line[3:]
	}
	slices.Sort(files)

	record := &annotation.Record{
		ImageDir:   TsinghuaDogsImageDir,
		Images:     files,
		Targets:    make([]int, len(files)),
		ClassToIdx: make(map[string]int),
	}
	for ii, file := range files {
		folder, _, _ := strings.Cut(file, "/")
		idx, found := record.ClassToIdx[folder]
		if !found {
			idx = len(record.Classes)
			record.ClassToIdx[folder] = idx
			record.Classes = append(record.Classes, folder)
		}
		record.Targets[ii] = idx
	}
	return record, nil
}
