// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	exists, err := FileExists(dir)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, IsRegularFile(dir))

	filePath := filepath.Join(dir, "README.txt")
	exists, err = FileExists(filePath)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(filePath, []byte("abc"), 0644))
	assert.True(t, IsRegularFile(filePath))
}

func TestReplaceTildeInDir(t *testing.T) {
	dir, err := ReplaceTildeInDir("/tmp/fgvc")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fgvc", dir)

	dir, err = ReplaceTildeInDir("~/work/fgvc")
	require.NoError(t, err)
	assert.NotContains(t, dir, "~")
	assert.Equal(t, "fgvc", filepath.Base(dir))
}

func TestChecksum(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "setid.mat")
	require.NoError(t, os.WriteFile(filePath, []byte("abc"), 0644))
	const abcSHA256 = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	require.NoError(t, ValidateChecksum(filePath, abcSHA256))
	assert.Error(t, ValidateChecksum(filePath, "00"))
}

func TestByteCountIEC(t *testing.T) {
	assert.Equal(t, "512 B", ByteCountIEC(512))
	assert.Equal(t, "1.5 KiB", ByteCountIEC(1536))
	assert.Equal(t, "2.0 MiB", ByteCountIEC(2*1024*1024))
}
