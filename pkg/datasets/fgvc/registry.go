// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fgvc

import (
	"slices"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/datasets/families"
	"github.com/gomlx/fgvcdata/pkg/support/downloader"
	"github.com/pkg/errors"
)

// Family describes one supported dataset.
type Family struct {
	// Name used to select the family, e.g. "cub" or "stanford_dogs".
	Name string

	// Display name of the dataset.
	Display string

	// URL of the dataset home page.
	URL string

	// Normalize reads the annotations of a dataset root.
	Normalize families.Normalizer

	// SingleSplit datasets have one split only, and ignore the requested one.
	SingleSplit bool

	// BBoxes is whether the dataset has bounding boxes.
	BBoxes bool

	// Downloads lists the files to fetch into the root directory, when a download is requested.
	// Empty if the dataset can't be downloaded automatically (registration or manual agreement
	// needed).
	Downloads []downloader.Item

	// ArchiveRoot is the directory created by the downloaded archives that holds the dataset,
	// relative to the download directory. Empty if it is the download directory itself.
	ArchiveRoot string
}

// ErrUnknownFamily is returned by Lookup for names not registered.
var ErrUnknownFamily = errors.New("unknown dataset family")

const (
	cubBaseURL     = "http://www.vision.caltech.edu/visipedia-data/CUB-200-2011/"
	dogsBaseURL    = "http://vision.stanford.edu/aditya86/ImageNetDogs/"
	flowersBaseURL = "https://www.robots.ox.ac.uk/~vgg/data/flowers/102/"
)

// registry is ordered as listed by Families.
var registry = []*Family{
	{
		Name:      "cub",
		Display:   "Caltech UCSD Birds (CUB)",
		URL:       "http://www.vision.caltech.edu/visipedia/CUB-200-2011.html",
		Normalize: families.CUB,
		BBoxes:    true,
		Downloads: []downloader.Item{
			{URL: cubBaseURL + "CUB_200_2011.tgz", UntarDir: "CUB_200_2011"},
			{URL: cubBaseURL + "README.txt"},
		},
		ArchiveRoot: "CUB_200_2011",
	},
	{
		Name:      "cub_plus",
		Display:   "Caltech UCSD Birds (CUB++)",
		URL:       "http://www.vision.caltech.edu/visipedia/CUB-200-2011.html",
		Normalize: families.CUBPlus,
		BBoxes:    true,
	},
	{
		Name:      "nabirds",
		Display:   "NABirds",
		URL:       "https://dl.allaboutbirds.org/nabirds",
		Normalize: families.NABirds,
		BBoxes:    true,
	},
	{
		Name:      "stanford_cars",
		Display:   families.StanfordCarsName,
		URL:       "https://ai.stanford.edu/~jkrause/cars/car_dataset.html",
		Normalize: families.StanfordCars,
		BBoxes:    true,
		Downloads: []downloader.Item{
			{URL: "http://imagenet.stanford.edu/internal/car196/cars_train.tgz", UntarDir: "cars_train"},
			{URL: "http://imagenet.stanford.edu/internal/car196/cars_test.tgz", UntarDir: "cars_test"},
			{URL: "https://ai.stanford.edu/~jkrause/cars/car_devkit.tgz", UntarDir: "devkit"},
		},
	},
	{
		Name:      "stanford_dogs",
		Display:   families.StanfordDogsName,
		URL:       "http://vision.stanford.edu/aditya86/ImageNetDogs/",
		Normalize: families.StanfordDogs,
		BBoxes:    true,
		Downloads: []downloader.Item{
			{URL: dogsBaseURL + "images.tar", UntarDir: families.StanfordDogsImageDir},
			{URL: dogsBaseURL + "annotation.tar", UntarDir: families.StanfordDogsAnnotationDir},
			{URL: dogsBaseURL + "lists.tar", UntarDir: "train_list.mat"},
			{URL: dogsBaseURL + "README.txt"},
		},
	},
	{
		Name:      "tsinghua_dogs",
		Display:   families.TsinghuaDogsName,
		URL:       "https://cg.cs.tsinghua.edu.cn/ThuDogs/",
		Normalize: families.TsinghuaDogs,
		BBoxes:    true,
	},
	{
		Name:      "oxford_flowers",
		Display:   families.OxfordFlowersName,
		URL:       "https://www.robots.ox.ac.uk/~vgg/data/flowers/102/index.html",
		Normalize: families.OxfordFlowers,
		Downloads: []downloader.Item{
			{URL: flowersBaseURL + "102flowers.tgz", UntarDir: families.OxfordFlowersImageDir},
			{URL: flowersBaseURL + families.OxfordFlowersLabelsFile},
			{URL: flowersBaseURL + families.OxfordFlowersSplitFile},
			{URL: flowersBaseURL + "README.txt"},
		},
	},
	{
		Name:      "fgvc_aircraft",
		Display:   families.AircraftName,
		URL:       "http://www.robots.ox.ac.uk/~vgg/data/fgvc-aircraft/",
		Normalize: families.Aircraft,
		BBoxes:    true,
		Downloads: []downloader.Item{
			{URL: "http://www.robots.ox.ac.uk/~vgg/data/fgvc-aircraft/archives/fgvc-aircraft-2013b.tar.gz",
				UntarDir: "fgvc-aircraft-2013b"},
		},
		ArchiveRoot: "fgvc-aircraft-2013b",
	},
	{
		Name:      "danish_fungi",
		Display:   families.DanishFungiName,
		URL:       "https://sites.google.com/view/danish-fungi-dataset",
		Normalize: families.DanishFungi,
	},
	{
		Name:        "inat_cub",
		Display:     families.InatCUBName,
		URL:         "https://www.inaturalist.org/",
		Normalize:   families.InatCUB,
		SingleSplit: true,
		BBoxes:      true,
	},
	{
		Name:        "inat_cub_val",
		Display:     families.InatCUBName + " (validation)",
		URL:         "https://www.inaturalist.org/",
		Normalize:   families.InatCUB,
		SingleSplit: true,
		BBoxes:      true,
	},
}

// clone returns a copy of the family that shares no mutable state with the registry.
func (f *Family) clone() *Family {
	c := *f
	c.Downloads = slices.Clone(f.Downloads)
	return &c
}

// Families returns a copy of all registered dataset families.
func Families() []Family {
	families := make([]Family, len(registry))
	for ii, family := range registry {
		families[ii] = *family.clone()
	}
	return families
}

// Names returns the names of all registered dataset families.
func Names() []string {
	names := make([]string, len(registry))
	for ii, family := range registry {
		names[ii] = family.Name
	}
	return names
}

// Lookup returns a copy of the family registered with the given name.
func Lookup(name string) (*Family, error) {
	for _, family := range registry {
		if family.Name == name {
			return family.clone(), nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownFamily, "%q, known families: %s", name, strings.Join(Names(), ", "))
}
