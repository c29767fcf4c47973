// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package backup walks the GitHub resource tree below a set of roots and
// records every resource in an archive store.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/google/ghs/pkg/archive"
	"github.com/google/ghs/pkg/fetch"
	"github.com/google/ghs/pkg/ghapi"
	"github.com/google/ghs/pkg/report"
	"github.com/pkg/errors"
)

// ErrMissing is returned when a resource expected to exist is not found.
var ErrMissing = errors.New("resource not found")

// Fetcher executes a request to a final outcome.
type Fetcher interface {
	Fetch(context.Context, ghapi.Request) (fetch.Outcome, error)
}

var _ Fetcher = &fetch.Controller{}

// Store records fetched resources.
type Store interface {
	Has(name string) bool
	Lookup(name string) (*archive.Entry, error)
	Put(name string, contents json.RawMessage, etag string) error
	CarryForward(name string) (*archive.Entry, error)
}

var _ Store = &archive.Store{}

// PathResolver maps request URLs to resource paths.
type PathResolver interface {
	RelPath(string) string
}

var _ PathResolver = &ghapi.Client{}

// Task is one resource to archive. All tasks are read-only GETs.
type Task struct {
	// Root is the identifier of the backup root the resource belongs to.
	Root string
	// URL is either an API-relative path or an absolute API URL.
	URL    string
	Accept string
	Params url.Values
	Kind   Kind
	// FromPrevious allows serving the resource from the previous snapshot
	// without a request, because its parent was unchanged.
	FromPrevious bool
}

// Walker drives tasks to completion one request at a time.
type Walker struct {
	Fetcher     Fetcher
	Store       Store
	Paths       PathResolver
	Reporter    report.Reporter
	Incremental bool
}

// Walk archives t and everything below it, depth first.
func (w *Walker) Walk(ctx context.Context, t Task) error {
	stack := []Task{t}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children, err := w.visit(ctx, t)
		if err != nil {
			return err
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// visit archives a single task and returns the tasks for its children.
func (w *Walker) visit(ctx context.Context, t Task) ([]Task, error) {
	path := w.Paths.RelPath(t.URL)
	name := archive.EntryName(t.Root, path)
	if w.Store.Has(name) {
		w.reporter().Verbosef("Skipping %s, already archived", name)
		return nil, nil
	}
	var prev *archive.Entry
	if w.Incremental {
		if t.FromPrevious {
			e, err := w.Store.CarryForward(name)
			if err != nil {
				return nil, err
			}
			if e != nil {
				w.reporter().Verbosef("Skipped unmodified %s", name)
				return w.expand(t, e.Contents, true)
			}
		}
		var err error
		if prev, err = w.Store.Lookup(name); err != nil {
			return nil, err
		}
	}
	req := ghapi.Request{Path: t.URL, Accept: t.Accept, Params: t.Params}
	if prev != nil {
		req.IfNoneMatch = prev.ETag
	}
	out, err := w.Fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving %s", path)
	}
	switch out.Kind {
	case fetch.Fetched:
		if err := w.Store.Put(name, out.Body, out.ETag); err != nil {
			return nil, err
		}
		if prev == nil {
			w.reporter().Infof("Added %s", name)
		} else {
			w.reporter().Infof("Updated %s", name)
		}
		return w.expand(t, out.Body, false)
	case fetch.Unchanged:
		e, err := w.Store.CarryForward(name)
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, errors.Errorf("%s reported unchanged but has no previous entry", name)
		}
		w.reporter().Verbosef("Skipped unmodified %s", name)
		return w.expand(t, e.Contents, true)
	case fetch.Gone:
		w.reporter().Infof("Skipped disabled %s", name)
		return nil, nil
	case fetch.Missing:
		return nil, errors.Wrap(ErrMissing, path)
	default:
		return nil, errors.Errorf("unexpected outcome %v for %s", out.Kind, path)
	}
}

// expand returns the children the rule for t.Kind declares over body.
func (w *Walker) expand(t Task, body json.RawMessage, unchanged bool) ([]Task, error) {
	r, ok := rules[t.Kind]
	if !ok || len(r.children) == 0 {
		return nil, nil
	}
	var objs []map[string]any
	if r.each {
		if err := decode(body, &objs); err != nil {
			return nil, errors.Wrapf(err, "decoding %s listing %s", t.Kind, t.URL)
		}
	} else {
		var obj map[string]any
		if err := decode(body, &obj); err != nil {
			return nil, errors.Wrapf(err, "decoding %s %s", t.Kind, t.URL)
		}
		objs = []map[string]any{obj}
	}
	var tasks []Task
	for _, obj := range objs {
		for _, c := range r.children {
			u, ok := c.link(t.URL, obj)
			if !ok {
				continue
			}
			tasks = append(tasks, Task{
				Root:         t.Root,
				URL:          u,
				Accept:       c.accept,
				Params:       c.params,
				Kind:         c.kind,
				FromPrevious: unchanged && c.cached,
			})
		}
	}
	return tasks, nil
}

func decode(body json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func (w *Walker) reporter() report.Reporter {
	if w.Reporter == nil {
		return report.Discard
	}
	return w.Reporter
}
