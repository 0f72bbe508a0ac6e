// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// saveHistogram plots the number of images per class index as a bar chart, and saves it to
// outputPath. The image format is taken from the file extension (png, svg, pdf, ...).
func saveHistogram(title string, counts []int, outputPath string) error {
	if len(counts) == 0 {
		return errors.Errorf("no classes to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "class index"
	p.Y.Label.Text = "# images"

	values := make(plotter.Values, len(counts))
	for ii, count := range counts {
		values[ii] = float64(count)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(4))
	if err != nil {
		return errors.Wrapf(err, "failed to create bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())

	width := max(8*vg.Inch, vg.Length(len(counts))*vg.Points(5))
	if err := p.Save(width, 4*vg.Inch, outputPath); err != nil {
		return errors.Wrapf(err, "failed to save histogram to %q", outputPath)
	}
	return nil
}

// classRows returns the rows of the class table: index, name, count and percentage of images.
func classRows(classes []string, counts []int) [][]string {
	total := 0
	for _, count := range counts {
		total += count
	}
	rows := make([][]string, len(classes))
	for ii, name := range classes {
		share := 0.0
		if total > 0 {
			share = 100 * float64(counts[ii]) / float64(total)
		}
		rows[ii] = []string{fmt.Sprintf("%d", ii), name, fmt.Sprintf("%d", counts[ii]), fmt.Sprintf("%.1f%%", share)}
	}
	return rows
}
