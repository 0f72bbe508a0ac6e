// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// fgvcdata lists the supported FGVC datasets, loads one of them and prints a summary of it:
// number of images, classes and per class counts.
//
// Example:
//
//	fgvcdata -dataset=stanford_dogs -split=test -bboxes -histogram=/tmp/dogs.png
//
// Datasets are read from <-data>/<-dataset> unless -root is given.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/datasets/fgvc"
	"github.com/gomlx/fgvcdata/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagDataDir = flag.String("data", "~/work/fgvc", "Directory under which datasets are stored, one sub-directory per dataset name.")
	flagRoot    = flag.String("root", "", "Root directory of the dataset. If empty, <-data>/<-dataset> is used. "+
		"It may end in /train, /test or /val to select the split.")
	flagDataset = flag.String("dataset", "", fmt.Sprintf("Dataset to load, one of: %s. "+
		"If empty, the supported datasets are listed.", strings.Join(fgvc.Names(), ", ")))
	flagSplit       = flag.String("split", "train", "Split to load: train, test or val (same as test).")
	flagBBoxes      = flag.Bool("bboxes", false, "Load the bounding boxes.")
	flagDownload    = flag.Bool("download", false, "Download the dataset, if not yet downloaded and if the dataset can be downloaded automatically.")
	flagParallelism = flag.Int("parallelism", 1, "Number of annotation files parsed in parallel when deriving bounding boxes. -1 uses all CPUs.")
	flagClasses     = flag.Bool("classes", false, "List the classes with their number of images.")
	flagHistogram   = flag.String("histogram", "", "If set, saves a bar chart of the number of images per class to this file (.png, .svg, .pdf).")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagDataset == "" {
		listFamilies()
		return
	}
	split, ok := annotation.ParseSplit(*flagSplit)
	if !ok {
		klog.Errorf("Invalid -split=%q, it must be train, test or val", *flagSplit)
		os.Exit(1)
	}
	root := *flagRoot
	if root == "" {
		root = filepath.Join(fsutil.MustReplaceTildeInDir(*flagDataDir), *flagDataset)
	}

	config := fgvc.New(*flagDataset, root).
		Split(split).
		Parallelism(*flagParallelism).
		ProgressBar()
	if *flagBBoxes {
		config.WithBoundingBoxes()
	}
	if *flagDownload {
		config.Download()
	}
	ds, err := config.Done()
	if err != nil {
		klog.Errorf("Failed to load dataset: %+v", err)
		os.Exit(1)
	}
	report(ds)
}

// listFamilies prints a table with the supported datasets.
func listFamilies() {
	fmt.Println(titleStyle.Render("Supported datasets"))
	table := newPlainTable(lipgloss.Left, lipgloss.Left, lipgloss.Center, lipgloss.Center, lipgloss.Left).
		Headers("name", "dataset", "bboxes", "download", "home page")
	for _, family := range fgvc.Families() {
		table.Row(family.Name, family.Display, yesNo(family.BBoxes), yesNo(len(family.Downloads) > 0), family.URL)
	}
	fmt.Println(table.Render())
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "-"
}

// report prints the summary of the dataset, and optionally the classes and the histogram.
func report(ds *fgvc.Dataset) {
	record := ds.Record()
	counts := ds.ClassCounts()

	fmt.Println(titleStyle.Render(ds.Name()))
	table := newPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("root", ds.Root())
	table.Row("split", ds.Split().String())
	table.Row("images directory", record.ImageDir)
	table.Row("# images", humanize.Comma(int64(ds.Len())))
	table.Row("# classes", humanize.Comma(int64(record.NumClasses())))
	if len(counts) > 0 {
		minCount, maxCount := counts[0], counts[0]
		for _, count := range counts {
			minCount = min(minCount, count)
			maxCount = max(maxCount, count)
		}
		table.Row("images per class", fmt.Sprintf("%s to %s", humanize.Comma(int64(minCount)), humanize.Comma(int64(maxCount))))
	}
	if record.HasBBoxes() {
		numBoxes := 0
		for _, boxes := range record.BBoxes {
			numBoxes += len(boxes)
		}
		table.Row("# bounding boxes", humanize.Comma(int64(numBoxes)))
	}
	fmt.Println(table.Render())

	if *flagClasses {
		fmt.Println(titleStyle.Render("Classes"))
		classesTable := newPlainTable(lipgloss.Right, lipgloss.Left, lipgloss.Right).
			Headers("index", "class", "# images", "share")
		for _, row := range classRows(record.Classes, counts) {
			classesTable.Row(row...)
		}
		fmt.Println(classesTable.Render())
	}

	if *flagHistogram != "" {
		must.M(saveHistogram(fmt.Sprintf("%s (%s)", ds.Name(), ds.Split()), counts, *flagHistogram))
		klog.Infof("Histogram saved to %q", *flagHistogram)
	}
}
