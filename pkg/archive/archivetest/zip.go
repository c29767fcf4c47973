// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package archivetest builds and inspects archives in tests.
package archivetest

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/ghs/pkg/archive"
)

// ZipFile returns a zip archive containing entries, in order.
func ZipFile(entries []archive.ZipEntry) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		if err := entry.WriteTo(zw); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteZip writes a zip archive of entries to name on fs.
func WriteZip(fs billy.Filesystem, name string, entries []archive.ZipEntry) error {
	buf, err := ZipFile(entries)
	if err != nil {
		return err
	}
	return util.WriteFile(fs, name, buf.Bytes(), 0o644)
}

// ReadZip returns the uncompressed contents of every entry of the zip
// archive name on fs, keyed by entry name, along with the entry order.
func ReadZip(fs billy.Filesystem, name string) (map[string]string, []string, error) {
	b, err := util.ReadFile(fs, name)
	if err != nil {
		return nil, nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, nil, err
	}
	contents := make(map[string]string, len(zr.File))
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, nil, err
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, err
		}
		contents[f.Name] = string(body)
		order = append(order, f.Name)
	}
	return contents, order, nil
}
