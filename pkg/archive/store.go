// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/google/ghs/pkg/report"
	"github.com/pkg/errors"
)

// NewSuffix is appended to the archive name for the snapshot being built.
const NewSuffix = ".new"

// ErrClosed is returned when a Store is used after Commit or Discard.
var ErrClosed = errors.New("archive store closed")

// Entry is one archived resource.
type Entry struct {
	Name string
	// ETag is the version token, empty when the server sent none.
	ETag     string
	Contents json.RawMessage
}

// envelope is the on-disk form of an entry in incremental archives.
type envelope struct {
	ETag     *string         `json:"etag"`
	Contents json.RawMessage `json:"contents"`
}

// EntryName returns the archive entry name of a resource path under root.
func EntryName(root, resourcePath string) string {
	return root + "/" + resourcePath + ".json"
}

// Options configures a Store.
type Options struct {
	// Incremental enables reading the previous snapshot and storing version
	// tokens alongside contents.
	Incremental bool
	// Comment is recorded as the archive comment.
	Comment  string
	Reporter report.Reporter
}

type written struct {
	etag   string
	digest [sha256.Size]byte
}

// Store reconciles a previous snapshot with the one being built.
//
// The previous snapshot is only ever read. The next snapshot is written to
// a sibling file and replaces the previous one on Commit, so an abandoned
// run leaves the prior archive untouched.
type Store struct {
	fs      billy.Filesystem
	name    string
	tmpName string
	opts    Options

	prevFile billy.File
	prev     map[string]*zip.File

	nextFile billy.File
	next     *zip.Writer
	written  map[string]written
	closed   bool
}

// Open prepares a Store for the archive called name on fs.
func Open(fs billy.Filesystem, name string, opts Options) (*Store, error) {
	if opts.Reporter == nil {
		opts.Reporter = report.Discard
	}
	s := &Store{
		fs:      fs,
		name:    name,
		tmpName: name + NewSuffix,
		opts:    opts,
		written: make(map[string]written),
	}
	if opts.Incremental {
		if err := s.openPrevious(); err != nil {
			return nil, err
		}
	}
	f, err := fs.Create(s.tmpName)
	if err != nil {
		s.closePrevious()
		return nil, errors.Wrapf(err, "creating %s", s.tmpName)
	}
	s.nextFile = f
	s.next = zip.NewWriter(f)
	return s, nil
}

func (s *Store) openPrevious() error {
	f, err := s.fs.Open(s.name)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "opening %s", s.name)
	}
	ra, size, err := ToZipCompatibleReader(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "reading %s", s.name)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "opening %s as zip", s.name)
	}
	s.prevFile = f
	s.prev = make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		s.prev[zf.Name] = zf
	}
	return nil
}

// HasPrevious reports whether a previous snapshot was opened.
func (s *Store) HasPrevious() bool {
	return s.prev != nil
}

// Has reports whether the next snapshot already holds name.
func (s *Store) Has(name string) bool {
	_, ok := s.written[name]
	return ok
}

// Lookup returns the previous snapshot's entry for name, or nil when there
// is no previous snapshot or it has no usable entry.
func (s *Store) Lookup(name string) (*Entry, error) {
	zf, ok := s.prev[name]
	if !ok {
		return nil, nil
	}
	b, err := readZipFile(zf)
	if err != nil {
		return nil, errors.Wrapf(err, "reading previous %s", name)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Contents == nil {
		s.opts.Reporter.Verbosef("Ignoring previous %s, not an incremental entry", name)
		return nil, nil
	}
	e := &Entry{Name: name, Contents: env.Contents}
	if env.ETag != nil {
		e.ETag = *env.ETag
	}
	return e, nil
}

// Put stores contents under name. The first value written for a name wins:
// a repeat with the same version is a no-op and a differing one is
// discarded with a warning.
func (s *Store) Put(name string, contents json.RawMessage, etag string) error {
	if s.closed {
		return ErrClosed
	}
	d, err := digest(contents)
	if err != nil {
		return errors.Wrapf(err, "storing %s", name)
	}
	if s.seen(name, etag, d) {
		return nil
	}
	body, err := s.encode(contents, etag)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	if err := NewZipEntry(name, body).WriteTo(s.next); err != nil {
		return errors.Wrapf(err, "writing %s", name)
	}
	s.written[name] = written{etag: etag, digest: d}
	return nil
}

// CarryForward copies the previous snapshot's entry for name into the next
// snapshot unchanged and returns it. It returns nil when there is nothing
// to carry.
func (s *Store) CarryForward(name string) (*Entry, error) {
	if s.closed {
		return nil, ErrClosed
	}
	e, err := s.Lookup(name)
	if err != nil || e == nil {
		return nil, err
	}
	d, err := digest(e.Contents)
	if err != nil {
		return nil, errors.Wrapf(err, "carrying %s", name)
	}
	if s.seen(name, e.ETag, d) {
		return e, nil
	}
	if err := s.next.Copy(s.prev[name]); err != nil {
		return nil, errors.Wrapf(err, "copying %s", name)
	}
	s.written[name] = written{etag: e.ETag, digest: d}
	return e, nil
}

// seen reports whether name was already written, warning when the earlier
// value differs from the offered one.
func (s *Store) seen(name, etag string, d [sha256.Size]byte) bool {
	w, ok := s.written[name]
	if !ok {
		return false
	}
	if w.etag != etag || w.digest != d {
		s.opts.Reporter.Warnf("%s already exists with a non-matching ETag (old: %s, new: %s), new value will be discarded",
			name, displayETag(w.etag), displayETag(etag))
	} else {
		s.opts.Reporter.Verbosef("Skipping %s, already exists", name)
	}
	return true
}

func (s *Store) encode(contents json.RawMessage, etag string) ([]byte, error) {
	var buf bytes.Buffer
	if !s.opts.Incremental {
		if err := json.Indent(&buf, contents, "", "  "); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	env := envelope{Contents: contents}
	if etag != "" {
		env.ETag = &etag
	}
	return json.MarshalIndent(env, "", "  ")
}

// Commit finalizes the next snapshot and atomically replaces the previous
// archive with it.
func (s *Store) Commit() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	if s.opts.Comment != "" {
		if err := s.next.SetComment(s.opts.Comment); err != nil {
			s.abandon()
			return errors.Wrap(err, "setting archive comment")
		}
	}
	if err := s.next.Close(); err != nil {
		s.abandon()
		return errors.Wrap(err, "finalizing archive")
	}
	if err := s.nextFile.Close(); err != nil {
		s.abandon()
		return errors.Wrapf(err, "closing %s", s.tmpName)
	}
	s.closePrevious()
	if err := s.fs.Rename(s.tmpName, s.name); err != nil {
		s.fs.Remove(s.tmpName)
		return errors.Wrapf(err, "renaming %s to %s", s.tmpName, s.name)
	}
	return nil
}

// Discard abandons the next snapshot, leaving the previous archive as is.
// It is a no-op after Commit.
func (s *Store) Discard() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.abandon()
}

func (s *Store) abandon() error {
	s.nextFile.Close()
	s.closePrevious()
	if err := s.fs.Remove(s.tmpName); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", s.tmpName)
	}
	return nil
}

func (s *Store) closePrevious() {
	if s.prevFile != nil {
		s.prevFile.Close()
		s.prevFile = nil
	}
}

func digest(contents json.RawMessage) ([sha256.Size]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, contents); err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

func displayETag(etag string) string {
	if etag == "" {
		return "none"
	}
	return etag
}
