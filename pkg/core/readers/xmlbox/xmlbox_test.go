// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xmlbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoDogs = `<annotation>
	<folder>02085620</folder>
	<filename>n02085620_7</filename>
	<size><width>250</width><height>188</height><depth>3</depth></size>
	<object>
		<name>Chihuahua</name>
		<bndbox><xmin>71</xmin><ymin>1</ymin><xmax>192</xmax><ymax>180</ymax></bndbox>
	</object>
	<object>
		<name>Chihuahua</name>
		<bndbox><xmin>10.5</xmin><ymin>20</ymin><xmax>30.5</xmax><ymax>60</ymax></bndbox>
	</object>
</annotation>`

func TestRead(t *testing.T) {
	boxes, err := Read(strings.NewReader(twoDogs), "")
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, annotation.BBox{X: 71, Y: 1, Width: 121, Height: 179}, boxes[0])
	assert.Equal(t, annotation.BBox{X: 10.5, Y: 20, Width: 20, Height: 40}, boxes[1])

	// No matching element: zero boxes.
	boxes, err = Read(strings.NewReader(twoDogs), "bodybndbox")
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestReadAlternateTag(t *testing.T) {
	doc := `<annotation><object>
		<headbndbox><xmin>5</xmin><ymin>5</ymin><xmax>9</xmax><ymax>9</ymax></headbndbox>
		<bodybndbox><xmin>1</xmin><ymin>2</ymin><xmax>11</xmax><ymax>22</ymax></bodybndbox>
	</object></annotation>`
	boxes, err := Read(strings.NewReader(doc), "bodybndbox")
	require.NoError(t, err)
	assert.Equal(t, []annotation.BBox{{X: 1, Y: 2, Width: 10, Height: 20}}, boxes)
}

func TestReadErrors(t *testing.T) {
	doc := `<annotation><bndbox><xmin>1</xmin><ymin>2</ymin><xmax>3</xmax></bndbox></annotation>`
	_, err := Read(strings.NewReader(doc), DefaultTag)
	require.Error(t, err)
	assert.ErrorIs(t, err, annotation.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "ymax")

	doc = `<annotation><bndbox><xmin>a</xmin><ymin>2</ymin><xmax>3</xmax><ymax>4</ymax></bndbox></annotation>`
	_, err = Read(strings.NewReader(doc), DefaultTag)
	assert.ErrorIs(t, err, annotation.ErrMalformedRecord)

	_, err = ReadFile(filepath.Join(t.TempDir(), "n02085620_7"), DefaultTag)
	assert.ErrorIs(t, err, annotation.ErrSourceFileNotFound)
}

func TestReadFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "n02085620_7")
	require.NoError(t, os.WriteFile(filePath, []byte(twoDogs), 0644))
	boxes, err := ReadFile(filePath, DefaultTag)
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
}
