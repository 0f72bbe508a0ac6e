// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package families implements one normalizer per FGVC dataset family. A normalizer reads the
// family's annotation files from the dataset root, with the readers in pkg/core/readers, and
// reduces them to an annotation.Record for the requested split.
//
// Each family keeps the class index assignment of its original distribution, even where the
// families disagree with each other:
//
//   - Bird family (CUB, CUB++, NABirds) and Danish Fungi: classes present in the split,
//     ordered by ascending raw class id, renumbered densely.
//   - Stanford Cars: classes of the meta file, in file order.
//   - Stanford Dogs: first-seen order of the image folders, indices taken from the raw labels.
//   - Tsinghua Dogs: first-seen order of the image folders, over the sorted image list.
//   - Aircraft, iNat-CUB and Oxford Flowers: sorted distinct labels.
package families

import (
	"path/filepath"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Options for a normalizer.
type Options struct {
	// BBoxes requests bounding boxes to be loaded. Families without bounding boxes fail with
	// annotation.ErrUnsupportedFeature.
	BBoxes bool

	// Parallelism is the number of per-image annotation files parsed concurrently, when bounding
	// boxes must be derived from them. Values <= 1 parse them sequentially, negative values use
	// the number of CPUs. The order of the results is not affected.
	Parallelism int

	// ShowProgress displays a progress bar while deriving bounding boxes from per-image files.
	ShowProgress bool
}

// Normalizer reads the annotations of one dataset family found in root, and returns the
// validated Record of the split.
type Normalizer func(root string, split annotation.Split, opts Options) (*annotation.Record, error)

// finish validates the record and logs its size.
func finish(name, root string, split annotation.Split, record *annotation.Record) (*annotation.Record, error) {
	if err := record.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s in %q, split %s", name, root, split)
	}
	klog.V(1).Infof("%s: %d images, %d classes (split %s, bboxes=%v) from %q",
		name, record.Len(), record.NumClasses(), split, record.HasBBoxes(), root)
	return record, nil
}

// join is filepath.Join for the dataset relative paths.
func join(root string, elem ...string) string {
	return filepath.Join(append([]string{root}, elem...)...)
}
