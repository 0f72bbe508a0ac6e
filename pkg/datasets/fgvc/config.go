// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fgvc

import (
	"net/http"
	"path/filepath"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/datasets/families"
	"github.com/gomlx/fgvcdata/pkg/support/downloader"
	"github.com/gomlx/fgvcdata/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Config for a Dataset. Create it with New, configure it with the chained methods, and build
// the Dataset with Done.
type Config struct {
	family *Family
	err    error

	root     string
	split    annotation.Split
	opts     families.Options
	download bool
	client   *http.Client

	imageTransforms  []ImageTransform
	targetTransforms []TargetTransform
}

// New creates the configuration of a dataset of the named family (see Families) stored in root.
// The default split is Train.
//
// If the last element of root is "train", "test" or "val" ("val" is the same as "test"), it
// selects the split, taking precedence over Train and Test, and it is removed from root.
//
// Example:
//
//	ds, err := fgvc.New("stanford_dogs", "~/work/fgvc/dogs").Test().WithBoundingBoxes().Done()
func New(familyName, root string) *Config {
	c := &Config{root: root, split: annotation.Train}
	c.family, c.err = Lookup(familyName)
	return c
}

// Train selects the train split. This is the default.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) Train() *Config {
	c.split = annotation.Train
	return c
}

// Test selects the test split.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) Test() *Config {
	c.split = annotation.Test
	return c
}

// Split selects the split.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) Split(split annotation.Split) *Config {
	c.split = split
	return c
}

// WithBoundingBoxes requests bounding boxes to be loaded. Done fails with
// annotation.ErrUnsupportedFeature if the family has none.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) WithBoundingBoxes() *Config {
	c.opts.BBoxes = true
	return c
}

// Parallelism sets the number of per-image annotation files parsed concurrently, when bounding
// boxes have to be derived from them. Default is 1 (sequential), and -1 uses all CPUs.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) Parallelism(parallelism int) *Config {
	c.opts.Parallelism = parallelism
	return c
}

// ProgressBar displays progress bars for downloads and bounding box derivation.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) ProgressBar() *Config {
	c.opts.ShowProgress = true
	return c
}

// Download the dataset files into root, if they are not there yet, before reading them.
// Once downloaded, the dataset is read from the directory created by the archives, if any
// (see Family.ArchiveRoot).
//
// Datasets are never downloaded unless requested.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) Download() *Config {
	c.download = true
	return c
}

// HTTPClient used for downloads. Default is http.DefaultClient.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) HTTPClient(client *http.Client) *Config {
	c.client = client
	return c
}

// ImageTransforms appends transforms applied, in order, to each image returned by Dataset.Item.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) ImageTransforms(transforms ...ImageTransform) *Config {
	c.imageTransforms = append(c.imageTransforms, transforms...)
	return c
}

// TargetTransforms appends transforms applied, in order, to each target returned by Dataset.Item.
//
// It returns the Config, so configuration calls can be cascaded.
func (c *Config) TargetTransforms(transforms ...TargetTransform) *Config {
	c.targetTransforms = append(c.targetTransforms, transforms...)
	return c
}

// ResolveRoot applies the path suffix convention: if the last element of root is "train",
// "test" or "val", it is removed, and it selects the split. Otherwise, root and split are
// returned unchanged.
func ResolveRoot(root string, split annotation.Split) (string, annotation.Split) {
	root = filepath.Clean(root)
	if suffixSplit, ok := annotation.ParseSplit(filepath.Base(root)); ok {
		return filepath.Dir(root), suffixSplit
	}
	return root, split
}

// Done reads and normalizes the annotations, and returns the Dataset.
//
// All errors are fatal: no partial Dataset is ever returned.
func (c *Config) Done() (*Dataset, error) {
	if c.err != nil {
		return nil, c.err
	}
	family := c.family
	if c.opts.BBoxes && !family.BBoxes {
		return nil, errors.Wrapf(annotation.ErrUnsupportedFeature, "%s doesn't have bounding boxes", family.Display)
	}
	root, err := fsutil.ReplaceTildeInDir(c.root)
	if err != nil {
		return nil, err
	}
	root, split := ResolveRoot(root, c.split)

	if c.download {
		if len(family.Downloads) == 0 {
			return nil, errors.Wrapf(annotation.ErrUnsupportedFeature, "%s can't be downloaded automatically, see %s",
				family.Display, family.URL)
		}
		if err := downloader.Fetch(c.client, root, family.Downloads, c.opts.ShowProgress); err != nil {
			return nil, errors.WithMessagef(err, "failed to download %s", family.Display)
		}
		if family.ArchiveRoot != "" {
			root = filepath.Join(root, family.ArchiveRoot)
		}
	}

	klog.V(1).Infof("Loading %s (%s split) from %q", family.Display, split, root)
	record, err := family.Normalize(root, split, c.opts)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		family:           family,
		root:             root,
		split:            split,
		record:           record,
		imageTransforms:  c.imageTransforms,
		targetTransforms: c.targetTransforms,
	}, nil
}
