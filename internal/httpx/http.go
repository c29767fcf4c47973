// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package httpx provides a simpler http.Client abstraction and derivative uses.
package httpx

import (
	"net/http"
)

// BasicClient is a simpler http.Client that only requires a Do method.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// WithUserAgent is a basic HTTP client that adds a User-Agent header.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

var _ BasicClient = &WithUserAgent{}

// Do adds the User-Agent header and sends the request.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

// WithHeaders is a basic HTTP client that sets a fixed set of headers on
// every request that does not already carry them.
type WithHeaders struct {
	BasicClient
	Header http.Header
}

var _ BasicClient = &WithHeaders{}

// Do fills in any missing default headers and sends the request.
func (c *WithHeaders) Do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.Header {
		if req.Header.Get(k) != "" {
			continue
		}
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.BasicClient.Do(req)
}
