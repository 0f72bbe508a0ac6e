// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package families

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/fgvcdata/pkg/core/annotation"
	"github.com/gomlx/fgvcdata/pkg/core/readers/matfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dogXML(tag string, boxes ...[4]int) string {
	xml := "<annotation><filename>dog</filename>"
	for _, box := range boxes {
		xml += fmt.Sprintf("<object><name>dog</name><%s><xmin>%d</xmin><ymin>%d</ymin><xmax>%d</xmax><ymax>%d</ymax></%s></object>",
			tag, box[0], box[1], box[2], box[3], tag)
	}
	return xml + "</annotation>"
}

func TestStanfordDogsRecord(t *testing.T) {
	list := matfile.MemSource{
		"file_list": []any{"n02085620-Chihuahua/n02085620_5927.jpg", "n02085620-Chihuahua/n02085620_4441.jpg",
			"n02085782-Japanese_spaniel/n02085782_2874.jpg"},
		"labels": []any{[]any{1.0, 1.0, 2.0}},
	}
	record, err := stanfordDogsRecord(list)
	require.NoError(t, err)
	assert.Equal(t, StanfordDogsImageDir, record.ImageDir)
	assert.Equal(t, []int{0, 0, 1}, record.Targets)
	assert.Equal(t, []string{"n02085620-Chihuahua", "n02085782-Japanese_spaniel"}, record.Classes)
	require.NoError(t, record.Validate())

	// Classes are in first-seen order, with indices taken from the labels.
	list["file_list"] = []any{"b/1.jpg", "a/2.jpg"}
	list["labels"] = []any{2.0, 1.0}
	record, err = stanfordDogsRecord(list)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, record.Classes)
	assert.Equal(t, map[string]int{"b": 1, "a": 0}, record.ClassToIdx)
	assert.ErrorIs(t, record.Validate(), annotation.ErrMalformedRecord)

	delete(list, "labels")
	_, err = stanfordDogsRecord(list)
	require.ErrorIs(t, err, annotation.ErrFormat)
}

func TestStanfordDogs(t *testing.T) {
	root := copyFixture(t, "stanford_dogs")
	writeFiles(t, root, map[string]string{
		"Annotation/n02085620-Chihuahua/n02085620_5927":        dogXML("bndbox", [4]int{10, 20, 110, 220}),
		"Annotation/n02085620-Chihuahua/n02085620_4441":        dogXML("bndbox", [4]int{0, 0, 50, 40}, [4]int{5, 5, 10, 10}),
		"Annotation/n02085782-Japanese_spaniel/n02085782_2874": dogXML("bndbox"),
	})

	record, err := StanfordDogs(root, annotation.Train, Options{BBoxes: true})
	require.NoError(t, err)
	assert.Equal(t, StanfordDogsImageDir, record.ImageDir)
	assert.Equal(t, []string{"n02085620-Chihuahua/n02085620_5927.jpg", "n02085620-Chihuahua/n02085620_4441.jpg",
		"n02085782-Japanese_spaniel/n02085782_2874.jpg"}, record.Images)
	assert.Equal(t, []int{0, 0, 1}, record.Targets)
	assert.Equal(t, []string{"n02085620-Chihuahua", "n02085782-Japanese_spaniel"}, record.Classes)
	assert.Equal(t, [][]annotation.BBox{
		{{X: 10, Y: 20, Width: 100, Height: 200}},
		{{X: 0, Y: 0, Width: 50, Height: 40}, {X: 5, Y: 5, Width: 5, Height: 5}},
		{},
	}, record.BBoxes)
	_, err = os.Stat(filepath.Join(root, BoxCacheFile(annotation.Train)))
	require.NoError(t, err)

	record, err = StanfordDogs(root, annotation.Test, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, record.Targets)
	assert.Len(t, record.Images, 2)

	// Test annotations are missing.
	_, err = StanfordDogs(root, annotation.Test, Options{BBoxes: true})
	require.ErrorIs(t, err, annotation.ErrSourceFileNotFound)
}

func TestStanfordDogsMissingList(t *testing.T) {
	_, err := StanfordDogs(t.TempDir(), annotation.Test, Options{})
	require.ErrorIs(t, err, annotation.ErrSourceFileNotFound)
}

func tsinghuaFixture(t *testing.T) string {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		TsinghuaDogsListFile(annotation.Train): "\xef\n.//5-Shiba/b.jpg\n.//1-Akita/z.jpg\n.//1-Akita/a.jpg\n",
		TsinghuaDogsListFile(annotation.Test):  "\xef\r\n.//1-Akita/t.jpg\r\n",
		"Low-Annotations/1-Akita/a.jpg.xml":    dogXML(TsinghuaDogsBoxTag, [4]int{10, 20, 30, 60}),
		"Low-Annotations/1-Akita/z.jpg.xml":    dogXML(TsinghuaDogsBoxTag, [4]int{0, 0, 5, 5}, [4]int{1, 1, 2, 2}),
		"Low-Annotations/5-Shiba/b.jpg.xml":    dogXML(TsinghuaDogsBoxTag),
	})
	return root
}

func TestTsinghuaDogs(t *testing.T) {
	root := tsinghuaFixture(t)
	record, err := TsinghuaDogs(root, annotation.Train, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1-Akita/a.jpg", "1-Akita/z.jpg", "5-Shiba/b.jpg"}, record.Images)
	assert.Equal(t, []string{"1-Akita", "5-Shiba"}, record.Classes)
	assert.Equal(t, []int{0, 0, 1}, record.Targets)
	assert.Equal(t, TsinghuaDogsImageDir, record.ImageDir)

	record, err = TsinghuaDogs(root, annotation.Test, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1-Akita/t.jpg"}, record.Images)
}

func TestTsinghuaDogsBoxCache(t *testing.T) {
	root := tsinghuaFixture(t)
	cachePath := filepath.Join(root, "train_bbox.json")
	want := [][]annotation.BBox{
		{{X: 10, Y: 20, Width: 20, Height: 40}},
		{{X: 0, Y: 0, Width: 5, Height: 5}, {X: 1, Y: 1, Width: 1, Height: 1}},
		{},
	}

	for _, parallelism := range []int{0, 3} {
		require.NoError(t, os.RemoveAll(cachePath))
		derived, err := TsinghuaDogs(root, annotation.Train, Options{BBoxes: true, Parallelism: parallelism})
		require.NoError(t, err)
		assert.Equal(t, want, derived.BBoxes)
		require.FileExists(t, cachePath)

		// Remove an annotation file: boxes must now come from the cache.
		xmlPath := filepath.Join(root, "Low-Annotations/5-Shiba/b.jpg.xml")
		require.NoError(t, os.Rename(xmlPath, xmlPath+".bak"))
		cached, err := TsinghuaDogs(root, annotation.Train, Options{BBoxes: true})
		require.NoError(t, err)
		assert.Equal(t, derived.BBoxes, cached.BBoxes)

		// Without cache, the missing annotation file is fatal.
		require.NoError(t, os.Remove(cachePath))
		_, err = TsinghuaDogs(root, annotation.Train, Options{BBoxes: true, Parallelism: parallelism})
		require.ErrorIs(t, err, annotation.ErrSourceFileNotFound)
		require.NoError(t, os.Rename(xmlPath+".bak", xmlPath))
	}

	// A corrupt cache is ignored, and rewritten.
	require.NoError(t, os.WriteFile(cachePath, []byte("[[1, 2"), 0644))
	record, err := TsinghuaDogs(root, annotation.Train, Options{BBoxes: true})
	require.NoError(t, err)
	assert.Equal(t, want, record.BBoxes)
	boxes, err := LoadBoxCache(cachePath)
	require.NoError(t, err)
	assert.Equal(t, want, boxes)

	// A cache with the wrong number of entries is ignored.
	require.NoError(t, os.WriteFile(cachePath, []byte("[[1, 2, 3, 4]]"), 0644))
	record, err = TsinghuaDogs(root, annotation.Train, Options{BBoxes: true})
	require.NoError(t, err)
	assert.Equal(t, want, record.BBoxes)
}

func TestBoxCacheFormats(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "test_bbox.json")
	require.NoError(t, os.WriteFile(cachePath, []byte(`[[1, 2, 3, 4], [[5, 6, 7, 8]], []]`), 0644))
	boxes, err := LoadBoxCache(cachePath)
	require.NoError(t, err)
	assert.Equal(t, [][]annotation.BBox{
		{{X: 1, Y: 2, Width: 3, Height: 4}},
		{{X: 5, Y: 6, Width: 7, Height: 8}},
		{},
	}, boxes)

	require.NoError(t, os.WriteFile(cachePath, []byte(`[[1, 2, 3]]`), 0644))
	_, err = LoadBoxCache(cachePath)
	require.ErrorIs(t, err, annotation.ErrMalformedRecord)

	_, err = LoadBoxCache(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, annotation.ErrSourceFileNotFound)
}

func TestBoxCacheWriteFailure(t *testing.T) {
	root := tsinghuaFixture(t)
	// A directory in place of the cache file makes the write fail: boxes are still returned.
	require.NoError(t, os.Mkdir(filepath.Join(root, "train_bbox.json"), 0755))
	record, err := TsinghuaDogs(root, annotation.Train, Options{BBoxes: true})
	require.NoError(t, err)
	require.Len(t, record.BBoxes, 3)
}
