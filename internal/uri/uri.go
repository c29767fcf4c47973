// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package uri normalizes the identifiers users give for backup roots.
package uri

import (
	re "regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	// Matches github.com/owner/repo, github:owner/repo and clone URLs.
	githubRE = re.MustCompile(`(?i)\bgithub(\.com)?[:/]([\w-]+/[\w.-]+)`)
	// Matches a leading GitHub web or API host, e.g. for account URLs.
	hostRE  = re.MustCompile(`(?i)^(https?://)?(www\.)?github\.com/`)
	nameRE  = re.MustCompile(`^[\w.-]+$`)
	errRoot = errors.New("unsupported backup root")
)

// ParseRoot returns the canonical name of a backup root and whether it
// names a repository (owner/repo) rather than a user or organization.
func ParseRoot(id string) (name string, isRepo bool, err error) {
	s := strings.TrimSpace(id)
	if s == "" {
		return "", false, errors.Wrap(errRoot, "empty identifier")
	}
	if m := githubRE.FindStringSubmatch(s); m != nil {
		s = strings.TrimSuffix(m[2], ".git")
	} else {
		s = hostRE.ReplaceAllString(s, "")
	}
	s = strings.Trim(s, "/")
	parts := strings.Split(s, "/")
	for _, p := range parts {
		if !nameRE.MatchString(p) || p == "." || p == ".." {
			return "", false, errors.Wrap(errRoot, id)
		}
	}
	switch len(parts) {
	case 1:
		return parts[0], false, nil
	case 2:
		return parts[0] + "/" + parts[1], true, nil
	default:
		return "", false, errors.Wrap(errRoot, id)
	}
}
