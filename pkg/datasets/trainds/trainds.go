// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package trainds adapts an fgvc.Dataset to the GoMLX train.Dataset interface (Name, Reset and
// Yield), yielding one example at a time.
//
// To do batching, shuffling or parallel reading, wrap it with the GoMLX dataset tools.
package trainds

import (
	"io"
	"sync"

	"github.com/gomlx/fgvcdata/pkg/datasets/fgvc"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Dataset yields the images of an fgvc.Dataset, resized and center cropped to size x size, as
// normalized float32 tensors.
type Dataset struct {
	ds    *fgvc.Dataset
	size  int
	stats fgvc.Stats
	crop  []fgvc.ImageTransform

	mu   sync.Mutex
	next int
}

// New returns a Dataset for one epoch over ds. Images are resized so their smaller dimension
// is size, and then the central size x size square is cut. Pixel values are normalized with
// fgvc.ImageNetStats.
func New(ds *fgvc.Dataset, size int) *Dataset {
	return &Dataset{
		ds:    ds,
		size:  size,
		stats: fgvc.ImageNetStats,
		crop:  []fgvc.ImageTransform{fgvc.ResizeShorter(size), fgvc.CenterCrop(size, size)},
	}
}

// nextIndex returns the next index and increments it, or -1 at the end of the epoch.
// Concurrency safe.
func (d *Dataset) nextIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= d.ds.Len() {
		return -1
	}
	index := d.next
	d.next++
	return index
}

// Name implements train.Dataset.
func (d *Dataset) Name() string {
	return d.ds.Name() + " (" + d.ds.Split().String() + ")"
}

// Reset implements train.Dataset, restarting the epoch.
func (d *Dataset) Reset() {
	d.mu.Lock()
	d.next = 0
	d.mu.Unlock()
}

// Yield implements train.Dataset. It returns the Dataset itself as spec, and for each example:
//
//   - inputs: the float32 image tensor shaped [size, size, 3], and the int32 scalar index of
//     the example.
//   - labels: the int32 scalar target, after the target transforms of the fgvc.Dataset.
//
// At the end of the epoch it returns io.EOF.
func (d *Dataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	spec = d
	index := d.nextIndex()
	if index < 0 {
		err = io.EOF
		return
	}
	img, target, err := d.ds.Item(index)
	if err != nil {
		err = errors.WithMessagef(err, "failed to read image/label #%d", index)
		return
	}
	info := fgvc.ItemInfo{Index: index}
	for _, transform := range d.crop {
		img = transform.Apply(img, info)
	}
	bounds := img.Bounds()
	values := fgvc.Normalize(img, d.stats)
	inputs = []*tensors.Tensor{
		tensors.FromFlatDataAndDimensions(values, bounds.Dy(), bounds.Dx(), 3),
		tensors.FromScalar(int32(index)),
	}
	labels = []*tensors.Tensor{tensors.FromScalar(int32(target))}
	return
}
