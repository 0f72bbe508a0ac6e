// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package annotation

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	assert.Equal(t, 1, Train.Flag())
	assert.Equal(t, 0, Test.Flag())
	assert.Equal(t, "train", Train.String())
	assert.Equal(t, Test, SplitFromBool(false))

	for name, want := range map[string]Split{"train": Train, "test": Test, "val": Test} {
		got, ok := ParseSplit(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseSplit("images")
	assert.False(t, ok)
}

func TestBBoxJSON(t *testing.T) {
	box := FromCorners(10, 20, 110, 70)
	assert.Equal(t, BBox{X: 10, Y: 20, Width: 100, Height: 50}, box)

	data, err := json.Marshal([][]BBox{{box}, {}})
	require.NoError(t, err)
	assert.Equal(t, "[[[10,20,100,50]],[]]", string(data))

	var got [][]BBox
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, [][]BBox{{box}, {}}, got)

	var bad BBox
	err = json.Unmarshal([]byte("[1,2,3]"), &bad)
	require.Error(t, err)
}

func TestRecordValidate(t *testing.T) {
	classes := []string{"Sparrow", "Hawk"}
	rec := &Record{
		Images:     []string{"a.jpg", "b.jpg", "c.jpg"},
		Targets:    []int{0, 1, 1},
		Classes:    classes,
		ClassToIdx: IndexClasses(classes),
	}
	require.NoError(t, rec.Validate())
	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, 2, rec.NumClasses())
	assert.False(t, rec.HasBBoxes())

	rec.Targets[2] = 2
	assert.ErrorIs(t, rec.Validate(), ErrMissingAnnotation)
	rec.Targets[2] = 1

	rec.BBoxes = [][]BBox{{}}
	assert.ErrorIs(t, rec.Validate(), ErrMissingAnnotation)
	rec.BBoxes = nil

	rec.ClassToIdx = map[string]int{"Sparrow": 1, "Hawk": 0}
	assert.ErrorIs(t, rec.Validate(), ErrMalformedRecord)
}

func TestSourceError(t *testing.T) {
	err := SourceError("/nowhere/images.txt", fs.ErrNotExist)
	err = errors.WithMessage(err, "reading birds")
	assert.ErrorIs(t, err, ErrSourceFileNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "/nowhere/images.txt")
}
