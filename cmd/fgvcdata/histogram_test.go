// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/fgvcdata/pkg/support/fsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveHistogram(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "histogram.png")
	require.NoError(t, saveHistogram("test", []int{3, 0, 7}, outputPath))
	assert.True(t, fsutil.IsRegularFile(outputPath))

	require.Error(t, saveHistogram("empty", nil, filepath.Join(t.TempDir(), "empty.png")))
}

func TestClassRows(t *testing.T) {
	rows := classRows([]string{"a", "b"}, []int{1, 3})
	assert.Equal(t, [][]string{
		{"0", "a", "1", "25.0%"},
		{"1", "b", "3", "75.0%"},
	}, rows)
	assert.Equal(t, []string{"0", "a", "0", "0.0%"}, classRows([]string{"a"}, []int{0})[0])
}
