// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fgvc

import (
	"image"
)

// Stats holds per channel (R, G, B) statistics of pixel values in the [0, 1] range.
type Stats struct {
	Mean, Std [3]float32
}

// ImageNetStats are the statistics of the ImageNet images, commonly used to normalize the
// inputs of models pre-trained on ImageNet.
var ImageNetStats = Stats{
	Mean: [3]float32{0.485, 0.456, 0.406},
	Std:  [3]float32{0.229, 0.224, 0.225},
}

// Normalize converts img to a flat slice of float32 in height x width x channel order (RGB),
// with each channel normalized as (value - mean) / std, where value is in [0, 1].
// Transparency is ignored.
func Normalize(img image.Image, stats Stats) []float32 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	values := make([]float32, 0, width*height*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			for channel, v := range [3]uint32{r, g, b} {
				value := float32(v) / 0xFFFF
				values = append(values, (value-stats.Mean[channel])/stats.Std[channel])
			}
		}
	}
	return values
}
