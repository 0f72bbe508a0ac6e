// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package downloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.mat" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("abc"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, &hits)
	dir := t.TempDir()
	items := []Item{
		{URL: server.URL + "/files/setid.mat", Checksum: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{URL: server.URL + "/files/imagelabels.mat", File: "labels.mat"},
	}
	require.NoError(t, Fetch(server.Client(), dir, items, false))
	contents, err := os.ReadFile(filepath.Join(dir, "setid.mat"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(contents))
	_, err = os.Stat(filepath.Join(dir, "labels.mat"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// Files already present are not downloaded again.
	require.NoError(t, Fetch(server.Client(), dir, items, false))
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchErrors(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, &hits)
	dir := t.TempDir()

	err := Fetch(server.Client(), dir, []Item{{URL: server.URL + "/missing.mat"}}, false)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "missing.mat"))
	assert.True(t, os.IsNotExist(statErr))

	err = Fetch(server.Client(), dir, []Item{{URL: server.URL + "/setid.mat", Checksum: "00"}}, false)
	require.Error(t, err)
}

func TestFetchSkipsExtracted(t *testing.T) {
	var hits atomic.Int32
	server := newServer(t, &hits)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "jpg"), 0755))
	items := []Item{{URL: server.URL + "/102flowers.tgz", UntarDir: "jpg"}}
	require.NoError(t, Fetch(server.Client(), dir, items, false))
	assert.Equal(t, int32(0), hits.Load())
}
