// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package trainds

import (
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gomlx/fgvcdata/pkg/datasets/fgvc"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aircraftFixture(t *testing.T) string {
	root := t.TempDir()
	files := map[string]string{
		"data/images_variant_trainval.txt": "0001 A320\n0002 737\n",
	}
	for name, contents := range files {
		filePath := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(contents), 0644))
	}
	for _, stem := range []string{"0001", "0002"} {
		filePath := filepath.Join(root, "data", "images", stem+".jpg")
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, imaging.Save(imaging.New(12, 8, color.White), filePath))
	}
	return root
}

func TestYield(t *testing.T) {
	ds, err := fgvc.New("fgvc_aircraft", aircraftFixture(t)).Done()
	require.NoError(t, err)
	trainDS := New(ds, 4)
	assert.Equal(t, "FGVC Aircraft (train)", trainDS.Name())

	for epoch := range 2 {
		var targets []int32
		for ii := range 2 {
			spec, inputs, labels, err := trainDS.Yield()
			require.NoError(t, err, "epoch %d, example %d", epoch, ii)
			assert.Same(t, trainDS, spec)
			require.Len(t, inputs, 2)
			require.Len(t, labels, 1)
			assert.Equal(t, []int{4, 4, 3}, inputs[0].Shape().Dimensions)
			assert.Equal(t, int32(ii), tensors.ToScalar[int32](inputs[1]))
			targets = append(targets, tensors.ToScalar[int32](labels[0]))
		}
		assert.Equal(t, []int32{1, 0}, targets)
		_, _, _, err = trainDS.Yield()
		require.ErrorIs(t, err, io.EOF)
		trainDS.Reset()
	}
}
