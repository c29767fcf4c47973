// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"

	"github.com/google/ghs/internal/uri"
	"github.com/google/ghs/pkg/fetch"
	"github.com/google/ghs/pkg/ghapi"
	"github.com/pkg/errors"
)

// RootKind is the kind of account or repository a backup starts from.
type RootKind int

const (
	OrgRoot RootKind = iota
	UserRoot
	RepoRoot
)

func (k RootKind) String() string {
	switch k {
	case OrgRoot:
		return "organization"
	case UserRoot:
		return "user"
	case RepoRoot:
		return "repository"
	default:
		return "unknown"
	}
}

// Root is a classified backup root.
type Root struct {
	Kind RootKind
	// Name is the login of an account or the full name of a repository.
	Name string
}

func (r Root) String() string { return r.Kind.String() + " " + r.Name }

// Task returns the task that archives the root and everything below it.
func (r Root) Task() Task {
	switch r.Kind {
	case OrgRoot:
		return Task{Root: r.Name, URL: "orgs/" + r.Name, Kind: Organization}
	case UserRoot:
		return Task{Root: r.Name, URL: "users/" + r.Name, Kind: User}
	default:
		return Task{Root: r.Name, URL: "repos/" + r.Name, Kind: Repository}
	}
}

// Classify normalizes ids and sorts them into organizations, users and
// repositories, in that order and each sorted by name. Accounts are told
// apart by probing the organization endpoint. With recursive set, the
// repositories owned by each account are added as roots of their own.
func Classify(ctx context.Context, f Fetcher, ids []string, recursive bool) ([]Root, error) {
	accounts := make(map[string]bool)
	repos := make(map[string]bool)
	for _, id := range ids {
		name, isRepo, err := uri.ParseRoot(id)
		if err != nil {
			return nil, err
		}
		if isRepo {
			repos[name] = true
		} else {
			accounts[name] = true
		}
	}
	var orgs, users []string
	for _, name := range sortedKeys(accounts) {
		out, err := f.Fetch(ctx, ghapi.Request{Path: "orgs/" + name})
		if err != nil {
			return nil, errors.Wrapf(err, "inspecting %s", name)
		}
		var listing ghapi.Request
		switch out.Kind {
		case fetch.Fetched:
			orgs = append(orgs, name)
			listing = ghapi.Request{Path: "orgs/" + name + "/repos", Params: url.Values{"type": {"sources"}}}
		case fetch.Missing:
			users = append(users, name)
			listing = ghapi.Request{Path: "users/" + name + "/repos", Params: url.Values{"type": {"owner"}}}
		default:
			return nil, errors.Errorf("inspecting %s: unexpected outcome %v", name, out.Kind)
		}
		if !recursive {
			continue
		}
		names, err := listRepos(ctx, f, listing)
		if err != nil {
			return nil, errors.Wrapf(err, "listing repositories of %s", name)
		}
		for _, n := range names {
			repos[n] = true
		}
	}
	var roots []Root
	for _, n := range orgs {
		roots = append(roots, Root{Kind: OrgRoot, Name: n})
	}
	for _, n := range users {
		roots = append(roots, Root{Kind: UserRoot, Name: n})
	}
	for _, n := range sortedKeys(repos) {
		roots = append(roots, Root{Kind: RepoRoot, Name: n})
	}
	return roots, nil
}

func listRepos(ctx context.Context, f Fetcher, req ghapi.Request) ([]string, error) {
	out, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.Kind != fetch.Fetched {
		return nil, errors.Errorf("unexpected outcome %v", out.Kind)
	}
	var listing []struct {
		FullName string `json:"full_name"`
	}
	if err := json.Unmarshal(out.Body, &listing); err != nil {
		return nil, errors.Wrap(err, "decoding repository listing")
	}
	var names []string
	for _, r := range listing {
		if r.FullName != "" {
			names = append(names, r.FullName)
		}
	}
	return names, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Backup archives root and everything below it.
func (w *Walker) Backup(ctx context.Context, root Root) error {
	w.reporter().Verbosef("Backing up %s", root)
	return errors.Wrapf(w.Walk(ctx, root.Task()), "backing up %s", root)
}
