// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fgvc

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gomlx/fgvcdata/pkg/core/annotation"
)

// ItemInfo is the information of the item being transformed.
type ItemInfo struct {
	Index  int
	Path   string
	BBoxes []annotation.BBox
}

// ImageTransform is applied to the decoded images returned by Dataset.Item.
type ImageTransform struct {
	// Name describes the transform, and is used by Dataset.String.
	Name string

	// Apply the transform.
	Apply func(img image.Image, info ItemInfo) image.Image
}

// TargetTransform is applied to the targets returned by Dataset.Item.
type TargetTransform struct {
	// Name describes the transform, and is used by Dataset.String.
	Name string

	// Apply the transform.
	Apply func(target int) int
}

// Resize the image to width x height, using the Lanczos filter. If one of width or height is 0,
// the aspect ratio is preserved.
func Resize(width, height int) ImageTransform {
	return ImageTransform{
		Name: fmt.Sprintf("Resize(%dx%d)", width, height),
		Apply: func(img image.Image, _ ItemInfo) image.Image {
			return imaging.Resize(img, width, height, imaging.Lanczos)
		},
	}
}

// ResizeShorter resizes the smaller dimension of the image to size, preserving the aspect ratio.
func ResizeShorter(size int) ImageTransform {
	return ImageTransform{
		Name: fmt.Sprintf("ResizeShorter(%d)", size),
		Apply: func(img image.Image, _ ItemInfo) image.Image {
			width, height := img.Bounds().Dx(), img.Bounds().Dy()
			switch {
			case width < height:
				height = int(math.Round(float64(height) * float64(size) / float64(width)))
				width = size
			case height < width:
				width = int(math.Round(float64(width) * float64(size) / float64(height)))
				height = size
			default:
				width, height = size, size
			}
			return imaging.Resize(img, width, height, imaging.Linear)
		},
	}
}

// CenterCrop cuts the central width x height region of the image.
func CenterCrop(width, height int) ImageTransform {
	return ImageTransform{
		Name: fmt.Sprintf("CenterCrop(%dx%d)", width, height),
		Apply: func(img image.Image, _ ItemInfo) image.Image {
			return imaging.CropCenter(img, width, height)
		},
	}
}

// CropBox cuts the region of the first bounding box of the item, enlarged by margin (a fraction
// of the box size) on each side. Images without boxes are returned unchanged.
//
// It requires the Dataset to be created WithBoundingBoxes.
func CropBox(margin float64) ImageTransform {
	return ImageTransform{
		Name: fmt.Sprintf("CropBox(margin=%g)", margin),
		Apply: func(img image.Image, info ItemInfo) image.Image {
			if len(info.BBoxes) == 0 {
				return img
			}
			box := info.BBoxes[0]
			dx, dy := box.Width*margin, box.Height*margin
			bounds := img.Bounds()
			rect := image.Rect(
				bounds.Min.X+int(math.Floor(box.X-dx)),
				bounds.Min.Y+int(math.Floor(box.Y-dy)),
				bounds.Min.X+int(math.Ceil(box.X+box.Width+dx)),
				bounds.Min.Y+int(math.Ceil(box.Y+box.Height+dy)),
			).Intersect(bounds)
			if rect.Empty() {
				return img
			}
			return imaging.Crop(img, rect)
		},
	}
}
