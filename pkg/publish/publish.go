// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package publish copies finished archives to Google Cloud Storage.
package publish

import (
	"context"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// Destination is a GCS object location.
type Destination struct {
	Bucket string
	Object string
}

func (d Destination) String() string {
	return "gs://" + d.Bucket + "/" + d.Object
}

// ParseGCSURL parses gs://bucket/object. An object ending in a slash, or a
// missing object, names a directory into which the archive keeps its base
// name.
func ParseGCSURL(u, archiveName string) (Destination, error) {
	if !strings.HasPrefix(u, "gs://") {
		return Destination{}, errors.Errorf("not a gs:// URL: %q", u)
	}
	p := strings.TrimLeft(strings.TrimPrefix(u, "gs://"), "/")
	bucket, object, _ := strings.Cut(p, "/")
	if bucket == "" {
		return Destination{}, errors.Errorf("missing bucket in %q", u)
	}
	if object == "" || strings.HasSuffix(object, "/") {
		object = path.Join(object, path.Base(archiveName))
	}
	return Destination{Bucket: bucket, Object: object}, nil
}

// Uploader opens writers for destination objects. The upload completes when
// the writer is closed without error.
type Uploader interface {
	NewWriter(ctx context.Context, dest Destination) io.WriteCloser
}

// GCSUploader writes objects with a Cloud Storage client.
type GCSUploader struct {
	Client *storage.Client
}

var _ Uploader = &GCSUploader{}

// NewGCSUploader creates a client using application default credentials.
func NewGCSUploader(ctx context.Context, opts ...option.ClientOption) (*GCSUploader, error) {
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &GCSUploader{Client: c}, nil
}

func (u *GCSUploader) NewWriter(ctx context.Context, dest Destination) io.WriteCloser {
	w := u.Client.Bucket(dest.Bucket).Object(dest.Object).NewWriter(ctx)
	w.ContentType = "application/zip"
	return w
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	return u.Client.Close()
}

// Publish uploads the file called name on fs to dest.
func Publish(ctx context.Context, fs billy.Filesystem, name string, dest Destination, u Uploader) error {
	f, err := fs.Open(name)
	if err != nil {
		return errors.Wrapf(err, "opening %s", name)
	}
	defer f.Close()
	// Canceling before Close aborts the upload instead of finalizing a
	// truncated object.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := u.NewWriter(ctx, dest)
	if _, err := io.Copy(w, f); err != nil {
		cancel()
		w.Close()
		return errors.Wrapf(err, "uploading %s to %s", name, dest)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "finalizing %s", dest)
	}
	return nil
}
