// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gomlx/fgvcdata/internal/workerspool"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/xmlbox"
	"github.com/gomlx/fgvcdata/pkg/support/fsutil"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// BoxCacheFile returns the name of the bounding box cache file of the split, relative to the
// dataset root.
func BoxCacheFile(split annotation.Split) string {
	return split.String() + "_bbox.json"
}

// LoadBoxCache reads a bounding box cache file: a JSON list with one entry per image, where
// each entry is either a list of [x, y, width, height] boxes or one single such box.
func LoadBoxCache(cachePath string) ([][]annotation.BBox, error) {
	contents, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, annotation.SourceError(cachePath, err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(contents, &entries); err != nil {
		return nil, errors.Wrapf(annotation.ErrMalformedRecord, "bounding box cache %q: %v", cachePath, err)
	}
	boxes := make([][]annotation.BBox, len(entries))
	for ii, entry := range entries {
		var imageBoxes []annotation.BBox
		if errList := json.Unmarshal(entry, &imageBoxes); errList == nil {
			boxes[ii] = imageBoxes
			continue
		}
		var box annotation.BBox
		if err := json.Unmarshal(entry, &box); err != nil {
			return nil, errors.Wrapf(annotation.ErrMalformedRecord, "bounding box cache %q, entry #%d: %v", cachePath, ii, err)
		}
		boxes[ii] = []annotation.BBox{box}
	}
	return boxes, nil
}

// SaveBoxCache writes the bounding boxes, one list of boxes per image, to cachePath.
func SaveBoxCache(cachePath string, boxes [][]annotation.BBox) error {
	for ii := range boxes {
		if boxes[ii] == nil {
			boxes[ii] = []annotation.BBox{}
		}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(boxes); err != nil {
		return errors.Wrapf(err, "failed to encode bounding boxes")
	}
	tmpPath := cachePath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write bounding box cache %q", tmpPath)
	}
	if err := os.Rename(tmpPath, cachePath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move bounding box cache to %q", cachePath)
	}
	return nil
}

// DeriveBoxes parses the per-image XML annotation files, looking for elements with the given
// tag. The result is aligned with xmlPaths.
func DeriveBoxes(xmlPaths []string, tag string, opts Options) ([][]annotation.BBox, error) {
	boxes := make([][]annotation.BBox, len(xmlPaths))
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(xmlPaths)), "bounding boxes")
		defer func() { _ = bar.Close() }()
	}
	pool := workerspool.New(opts.Parallelism)
	err := pool.ForEach(len(xmlPaths), func(i int) error {
		imageBoxes, err := xmlbox.ReadFile(xmlPaths[i], tag)
		if err != nil {
			return err
		}
		boxes[i] = imageBoxes
		if bar != nil {
			_ = bar.Add(1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return boxes, nil
}

// cachedBoxes returns the boxes stored in the cache file of the split if it exists and is
// usable, otherwise it derives the boxes from xmlPaths and tries to cache them.
//
// A cache that can't be parsed, or that doesn't have one entry per image, is ignored. Failing
// to write the cache is only logged.
func cachedBoxes(root string, split annotation.Split, xmlPaths []string, tag string, opts Options) ([][]annotation.BBox, error) {
	cachePath := filepath.Join(root, BoxCacheFile(split))
	if fsutil.IsRegularFile(cachePath) {
		boxes, err := LoadBoxCache(cachePath)
		switch {
		case err != nil:
			klog.Warningf("Ignoring bounding box cache: %v", err)
		case len(boxes) != len(xmlPaths):
			klog.Warningf("Ignoring bounding box cache %q: it has %d entries for %d images", cachePath, len(boxes), len(xmlPaths))
		default:
			klog.V(1).Infof("Bounding boxes loaded from cache %q", cachePath)
			return boxes, nil
		}
	}

	boxes, err := DeriveBoxes(xmlPaths, tag, opts)
	if err != nil {
		return nil, err
	}
	if err := SaveBoxCache(cachePath, boxes); err != nil {
		klog.Warningf("Unable to cache bounding boxes: %v", err)
	} else {
		klog.V(1).Infof("Bounding boxes cached in %q", cachePath)
	}
	return boxes, nil
}
