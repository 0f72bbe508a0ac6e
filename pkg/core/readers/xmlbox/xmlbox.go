// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package xmlbox reads bounding boxes from per-image XML annotation files (PASCAL VOC style),
// as used by Stanford Dogs and Tsinghua Dogs.
package xmlbox

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
)

// DefaultTag is the element holding the box coordinates in most annotation files.
const DefaultTag = "bndbox"

// coordinateFields are the children of a box element, in the order they are read.
var coordinateFields = [4]string{"xmin", "ymin", "xmax", "ymax"}

// ReadFile parses the XML file at filePath and returns all boxes found under elements named tag
// (anywhere in the document), in document order. An empty tag means DefaultTag.
//
// A document may have zero, one or more boxes.
func ReadFile(filePath, tag string) ([]annotation.BBox, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, annotation.SourceError(filePath, err)
	}
	defer func() { _ = f.Close() }()
	boxes, err := Read(f, tag)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", filePath)
	}
	return boxes, nil
}

// Read is like ReadFile, but parses the document from r.
func Read(r io.Reader, tag string) ([]annotation.BBox, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Wrapf(annotation.ErrMalformedRecord, "failed to parse XML: %v", err)
	}
	return boxesFromDocument(doc, tag)
}

func boxesFromDocument(doc *etree.Document, tag string) ([]annotation.BBox, error) {
	if tag == "" {
		tag = DefaultTag
	}
	path, err := etree.CompilePath(".//" + tag)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid box tag %q", tag)
	}
	elements := doc.FindElementsPath(path)
	boxes := make([]annotation.BBox, 0, len(elements))
	for ii, element := range elements {
		var coords [4]float64
		for jj, field := range coordinateFields {
			child := element.SelectElement(field)
			if child == nil {
				return nil, errors.Wrapf(annotation.ErrMalformedRecord, "<%s> #%d is missing <%s>", tag, ii, field)
			}
			text := strings.TrimSpace(child.Text())
			coords[jj], err = strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.Wrapf(annotation.ErrMalformedRecord, "<%s> #%d has invalid <%s> value %q", tag, ii, field, text)
			}
		}
		boxes = append(boxes, annotation.FromCorners(coords[0], coords[1], coords[2], coords[3]))
	}
	return boxes, nil
}
