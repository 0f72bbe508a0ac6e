// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package quotedcsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b,c", "d"}, SplitFields(`a,"b,c",d`))
	assert.Equal(t, []string{"a", "b", "c,d,e"}, SplitFields(`a,"b","c,d,e"`))
	assert.Equal(t, []string{"", "x", ""}, SplitFields(`,x,`))

	// Doubled quotes are not escapes: only the outer quotes are removed.
	assert.Equal(t, []string{`a""b`, "c"}, SplitFields(`"a""b",c`))

	// Empty tokens inside a quoted fragment start a new field.
	assert.Equal(t, []string{"x", ",y", "z"}, SplitFields(`"x,,y",z`))

	// A lone quote is an empty quoted field.
	assert.Equal(t, []string{"", "abc\""}, SplitFields(`",abc"`))

	// Unterminated fragment swallows the rest of the line.
	assert.Equal(t, []string{"a", "b,c"}, SplitFields(`a,"b,c`))
}

func writeCSV(t *testing.T, contents string) string {
	filePath := filepath.Join(t.TempDir(), "DF20M-train_metadata_PROD.csv")
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0644))
	return filePath
}

func TestReadFile(t *testing.T) {
	filePath := writeCSV(t, "x,y,z\na,\"b,c\",d\n\n  e,f,g  \n")
	records, err := ReadFile(filePath, []Column{{Name: "y", Convert: AsString}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{"y": "b,c"}, records[0])
	assert.Equal(t, Record{"y": "f"}, records[1])
}

func TestReadFileTyped(t *testing.T) {
	filePath := writeCSV(t, "ImageUniqueID,image_path,taxonID,species\n"+
		"1,2237851949-22.JPG,60234.0,\"Amanita muscaria, var. formosa\"\n"+
		"2,2238546328-309.JPG,10012.0,Boletus edulis\n")
	columns := []Column{
		{Name: "image_path", Convert: AsString},
		{Name: "taxonID", Convert: AsFloatInt},
		{Name: "species", Convert: AsString},
	}
	records, err := ReadFile(filePath, columns)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{"image_path": "2237851949-22.JPG", "taxonID": 60234, "species": "Amanita muscaria, var. formosa"}, records[0])
	assert.Equal(t, 10012, records[1]["taxonID"])
}

func TestReadFileErrors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.ErrorIs(t, err, annotation.ErrSourceFileNotFound)

	filePath := writeCSV(t, "a,b\n1,2\n")
	_, err = ReadFile(filePath, []Column{{Name: "c", Convert: AsString}})
	assert.ErrorIs(t, err, annotation.ErrFormat)

	filePath = writeCSV(t, "a,b\n1,x\n")
	_, err = ReadFile(filePath, []Column{{Name: "b", Convert: AsFloatInt}})
	assert.ErrorIs(t, err, annotation.ErrMalformedRecord)

	filePath = writeCSV(t, "a,b\n1\n")
	_, err = ReadFile(filePath, []Column{{Name: "b", Convert: AsString}})
	assert.ErrorIs(t, err, annotation.ErrMalformedRecord)
}
