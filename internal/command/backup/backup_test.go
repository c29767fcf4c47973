// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/ghs/internal/httpx"
	"github.com/google/ghs/internal/httpx/httpxtest"
	"github.com/google/ghs/pkg/act"
	"github.com/google/ghs/pkg/act/cli"
	"github.com/google/ghs/pkg/archive"
	"github.com/google/ghs/pkg/config"
	"github.com/google/ghs/pkg/publish"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "nothing to back up",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "bad upload destination",
			cfg:     Config{What: []string{"o"}, Upload: "/tmp/backup.zip"},
			wantErr: true,
		},
		{
			name:    "valid config",
			cfg:     Config{What: []string{"o", "o/r"}, Upload: "gs://bucket/backups/"},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type memUploader struct {
	dest publish.Destination
	buf  bytes.Buffer
}

func (u *memUploader) NewWriter(_ context.Context, dest publish.Destination) io.WriteCloser {
	u.dest = dest
	return nopCloser{&u.buf}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func newDeps(t *testing.T, calls []httpxtest.Call) (*Deps, *httpxtest.MockClient, *bytes.Buffer) {
	t.Helper()
	mock := &httpxtest.MockClient{Calls: calls, URLValidator: httpxtest.NewURLValidator(t)}
	var out bytes.Buffer
	return &Deps{
		IO:       cli.IO{Out: &out, Err: io.Discard},
		FS:       memfs.New(),
		ConfigFS: memfs.New(),
		Getenv:   func(string) string { return "" },
		Clock:    &instantClock{now: time.Unix(1700000000, 0)},
		HTTP: func(context.Context, *config.Config) httpx.BasicClient {
			return mock
		},
	}, mock, &out
}

// userCalls scripts the requests for backing up user u.
func userCalls() []httpxtest.Call {
	return []httpxtest.Call{
		{
			Method:   http.MethodGet,
			URL:      "https://api.github.com/orgs/u?per_page=100",
			Response: httpxtest.JSON(http.StatusNotFound, `{"message":"Not Found"}`),
		},
		{
			Method:   http.MethodGet,
			URL:      "https://api.github.com/users/u?per_page=100",
			Response: httpxtest.JSON(http.StatusOK, `{"login":"u"}`, "ETag", `"e1"`),
		},
	}
}

func readArchive(t *testing.T, fs billy.Filesystem, name string) (*zip.Reader, []byte) {
	t.Helper()
	b, err := util.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		t.Fatalf("opening %s: %v", name, err)
	}
	return zr, b
}

func TestHandler(t *testing.T) {
	calls := userCalls()
	deps, mock, out := newDeps(t, calls)
	cfg := Config{What: []string{"u"}, FileName: "out.zip", ConfigPath: "/ghs.yaml"}
	if _, err := Handler(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if mock.CallCount() != len(calls) {
		t.Errorf("made %d requests, want %d", mock.CallCount(), len(calls))
	}
	zr, _ := readArchive(t, deps.FS, "out.zip")
	if _, err := uuid.Parse(zr.Comment); err != nil {
		t.Errorf("archive comment %q is not a run ID: %v", zr.Comment, err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"u/users/u.json"}, names); diff != "" {
		t.Errorf("archive entries mismatch (-want +got):\n%s", diff)
	}
	if _, err := deps.FS.Stat("out.zip" + archive.NewSuffix); err == nil {
		t.Error("next snapshot left behind")
	}
	if !strings.Contains(out.String(), "Added u/users/u.json") {
		t.Errorf("output missing progress line:\n%s", out.String())
	}
}

func TestHandlerUsesConfigFile(t *testing.T) {
	deps, _, _ := newDeps(t, userCalls())
	if err := util.WriteFile(deps.ConfigFS, "/ghs.yaml", []byte("file_name: cfg.zip\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Config{What: []string{"u"}, ConfigPath: "/ghs.yaml", Quiet: 1}
	if _, err := Handler(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if _, err := deps.FS.Stat("cfg.zip"); err != nil {
		t.Errorf("archive not written to configured file name: %v", err)
	}
}

func TestHandlerRetryExhausted(t *testing.T) {
	calls := userCalls()[:1]
	for range 11 {
		calls = append(calls, httpxtest.Call{
			Method:   http.MethodGet,
			URL:      "https://api.github.com/users/u?per_page=100",
			Response: httpxtest.JSON(http.StatusBadGateway, `{}`),
		})
	}
	deps, mock, _ := newDeps(t, calls)
	cfg := Config{What: []string{"u"}, FileName: "out.zip", ConfigPath: "/ghs.yaml"}
	_, err := Handler(context.Background(), cfg, deps)
	if got := act.ExitCode(err); got != ExitRetryExhausted {
		t.Fatalf("ExitCode(%v) = %d, want %d", err, got, ExitRetryExhausted)
	}
	if mock.CallCount() != len(calls) {
		t.Errorf("made %d requests, want %d", mock.CallCount(), len(calls))
	}
	for _, name := range []string{"out.zip", "out.zip" + archive.NewSuffix} {
		if _, err := deps.FS.Stat(name); err == nil {
			t.Errorf("%s exists after failed run", name)
		}
	}
}

func TestHandlerKeepsPreviousOnFailure(t *testing.T) {
	calls := []httpxtest.Call{
		userCalls()[0],
		{
			Method:   http.MethodGet,
			URL:      "https://api.github.com/users/u?per_page=100",
			Response: httpxtest.JSON(http.StatusUnauthorized, `{"message":"Bad credentials"}`),
		},
	}
	deps, _, _ := newDeps(t, calls)
	prev := []byte("previous archive bytes")
	if err := util.WriteFile(deps.FS, "out.zip", prev, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Config{What: []string{"u"}, FileName: "out.zip", ConfigPath: "/ghs.yaml"}
	_, err := Handler(context.Background(), cfg, deps)
	if got := act.ExitCode(err); got != act.ExitFailure {
		t.Fatalf("ExitCode(%v) = %d, want %d", err, got, act.ExitFailure)
	}
	got, err := util.ReadFile(deps.FS, "out.zip")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(prev, got) {
		t.Error("previous archive modified by failed run")
	}
}

func TestHandlerUpload(t *testing.T) {
	deps, _, _ := newDeps(t, userCalls())
	u := &memUploader{}
	deps.NewUploader = func(context.Context, *config.Config) (publish.Uploader, error) {
		return u, nil
	}
	cfg := Config{What: []string{"u"}, FileName: "out.zip", ConfigPath: "/ghs.yaml", Upload: "gs://bkt/snapshots/"}
	if _, err := Handler(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	if diff := cmp.Diff(publish.Destination{Bucket: "bkt", Object: "snapshots/out.zip"}, u.dest); diff != "" {
		t.Errorf("destination mismatch (-want +got):\n%s", diff)
	}
	_, b := readArchive(t, deps.FS, "out.zip")
	if !bytes.Equal(b, u.buf.Bytes()) {
		t.Error("uploaded bytes differ from the archive")
	}
}

func TestCommandUsage(t *testing.T) {
	path := ""
	cmd := Command(&path)
	cmd.SetArgs([]string{"--incremental"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	err := cmd.Execute()
	if got := act.ExitCode(err); got != act.ExitUsage {
		t.Errorf("ExitCode(%v) = %d, want %d", err, got, act.ExitUsage)
	}
}
