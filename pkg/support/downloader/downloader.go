// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package downloader provides functions for downloading and extracting dataset archives.
//
// Downloads are never started implicitly: the dataset facade only calls this package when the
// user explicitly asks for it.
package downloader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/gomlx/fgvcdata/pkg/support/fsutil"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Item is one file to download into a dataset root directory.
type Item struct {
	// URL to download from. The local file name is the last path element of the URL, unless
	// File is set.
	URL string

	// File is the local file name, relative to the root. Optional.
	File string

	// Checksum is the hex encoded SHA-256 of the file. Optional: if empty it is not checked.
	Checksum string

	// UntarDir, if set, means the file is a tar archive to be extracted in the root directory,
	// and that extraction creates UntarDir (a directory or file relative to the root). The
	// archive is not extracted again if UntarDir already exists.
	UntarDir string
}

// LocalFile returns the local file name of the item.
func (item Item) LocalFile() string {
	if item.File != "" {
		return item.File
	}
	return path.Base(item.URL)
}

// copyBytesBar copies bytes from an io.Reader to an io.Writer while displaying a progressbar.
// It requires knowing the contentLength.
type copyBytesBar struct {
	w                             io.Writer
	bar                           *progressbar.ProgressBar
	contentLength, amountWritten  int64
	barUnit, numUnits, addedUnits int64
}

// newCopyBytesBar creates a new copyBytesBar. It requires knowing the contentLength.
func newCopyBytesBar(w io.Writer, contentLength int64, description string) *copyBytesBar {
	bar := &copyBytesBar{w: w, contentLength: contentLength}
	bar.barUnit = 1
	for contentLength > bar.barUnit*1024*1024 {
		bar.barUnit *= 1024
	}
	bar.numUnits = (contentLength + bar.barUnit - 1) / bar.barUnit
	bar.bar = progressbar.NewOptions(int(bar.numUnits),
		progressbar.OptionSetDescription(fmt.Sprintf("%s (%s)", description, fsutil.ByteCountIEC(contentLength))),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)
	return bar
}

// Write implements io.Write, while updating the progress bar.
func (bar *copyBytesBar) Write(p []byte) (n int, err error) {
	n, err = bar.w.Write(p)
	bar.amountWritten += int64(n)
	toUnits := bar.amountWritten / bar.barUnit
	if toUnits > bar.addedUnits {
		_ = bar.bar.Add(int(toUnits - bar.addedUnits))
		bar.addedUnits = toUnits
	}
	return
}

// copyWithProgressBar is similar to io.Copy, but updates a progress bar with the amount
// of data copied. If contentLength is unknown (<= 0), it simply copies.
func copyWithProgressBar(dst io.Writer, src io.Reader, contentLength int64, description string) (n int64, err error) {
	if contentLength <= 0 {
		return io.Copy(dst, src)
	}
	bar := newCopyBytesBar(dst, contentLength, description)
	n, err = io.Copy(bar, src)
	if bar.addedUnits < bar.numUnits {
		_ = bar.bar.Add(int(bar.numUnits - bar.addedUnits))
	}
	_ = bar.bar.Close()
	fmt.Println()
	return
}

// Download file from url and save it at the given path.
// It attempts to create the directory if it doesn't yet exist.
//
// The file is first written to a temporary name, and only renamed to filePath once complete.
func Download(client *http.Client, url, filePath string, showProgressBar bool) (size int64, err error) {
	if client == nil {
		client = http.DefaultClient
	}
	if err = os.MkdirAll(filepath.Dir(filePath), 0777); err != nil {
		return 0, errors.Wrapf(err, "failed to create the directory for the path: %q", filepath.Dir(filePath))
	}
	resp, err := client.Get(url)
	if err != nil {
		return 0, errors.Wrapf(err, "failed downloading %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("failed downloading %q: status %q", url, resp.Status)
	}

	tmpPath := filePath + ".downloading"
	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed creating file %q", tmpPath)
	}
	if showProgressBar {
		size, err = copyWithProgressBar(file, resp.Body, resp.ContentLength, path.Base(filePath))
	} else {
		size, err = io.Copy(file, resp.Body)
	}
	if err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return 0, errors.Wrapf(err, "downloading %q to %q", url, filePath)
	}
	if err = file.Close(); err != nil {
		return 0, errors.Wrapf(err, "failed closing %q", tmpPath)
	}
	if err = os.Rename(tmpPath, filePath); err != nil {
		return 0, errors.Wrapf(err, "failed to move %q to %q", tmpPath, filePath)
	}
	return size, nil
}

// DownloadIfMissing will check if the path exists already, and if not it will download the file
// from the given URL.
//
// If checkHash is provided, it checks that the file has the hash or fail.
func DownloadIfMissing(client *http.Client, url, filePath, checkHash string, showProgressBar bool) error {
	exists, err := fsutil.FileExists(filePath)
	if err != nil {
		return err
	}
	if !exists {
		klog.Infof("Downloading %s ...", url)
		if _, err := Download(client, url, filePath, showProgressBar); err != nil {
			return err
		}
	}
	if checkHash == "" {
		return nil
	}
	return fsutil.ValidateChecksum(filePath, checkHash)
}

// Untar file, using decompression flags according to suffix: .gz/.tgz for gzip, .bz2 for bzip2.
func Untar(baseDir, tarFile string) error {
	compressionFlag := ""
	if strings.HasSuffix(tarFile, ".gz") || strings.HasSuffix(tarFile, ".tgz") {
		compressionFlag = "z"
	} else if strings.HasSuffix(tarFile, ".bz2") {
		compressionFlag = "j"
	}
	cmd := exec.Command("tar", fmt.Sprintf("x%sf", compressionFlag), tarFile)
	cmd.Dir = baseDir
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "failed to run %q", cmd)
	}
	return nil
}

// Fetch downloads (and extracts, when configured) each item into baseDir, skipping the ones
// already present.
func Fetch(client *http.Client, baseDir string, items []Item, showProgressBar bool) error {
	baseDir, err := fsutil.ReplaceTildeInDir(baseDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(baseDir, 0777); err != nil {
		return errors.Wrapf(err, "failed to create directory %q", baseDir)
	}
	for _, item := range items {
		filePath := filepath.Join(baseDir, item.LocalFile())
		if item.UntarDir != "" {
			targetPath := filepath.Join(baseDir, item.UntarDir)
			done, err := fsutil.FileExists(targetPath)
			if err != nil {
				return err
			}
			if done {
				klog.V(1).Infof("%q already extracted, skipping %s", targetPath, item.URL)
				continue
			}
		}
		if err := DownloadIfMissing(client, item.URL, filePath, item.Checksum, showProgressBar); err != nil {
			return errors.WithMessagef(err, "failed to fetch %q", item.URL)
		}
		if item.UntarDir == "" {
			continue
		}
		if err := Untar(baseDir, filePath); err != nil {
			return err
		}
		targetPath := filepath.Join(baseDir, item.UntarDir)
		if exists, _ := fsutil.FileExists(targetPath); !exists {
			return errors.Errorf("downloaded from %q and untar'ed %q, but didn't get %q", item.URL, filePath, targetPath)
		}
	}
	return nil
}
