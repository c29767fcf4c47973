// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package urlx holds URL helpers.
package urlx

import (
	"net/url"
	"regexp"
)

// MustParse will call url.Parse and panic if there is an error, returning on success.
func MustParse(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}

// A trailing RFC 6570 expression such as {/member} or {?since,all}.
var templateSuffix = regexp.MustCompile(`\{[^{}]+\}$`)

// TrimTemplate removes a trailing URI template expression from link, as
// found in the *_url fields of API responses.
func TrimTemplate(link string) string {
	return templateSuffix.ReplaceAllString(link, "")
}
