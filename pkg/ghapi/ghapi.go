// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package ghapi performs read-only requests against the GitHub REST API.
package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/ghs/internal/httpx"
	"github.com/google/ghs/internal/urlx"
	"github.com/pkg/errors"
)

// DefaultBaseURL is the public GitHub API endpoint.
var DefaultBaseURL = urlx.MustParse("https://api.github.com")

// DefaultAccept is the media type used when a request names none.
const DefaultAccept = "application/vnd.github.v3+json"

// DefaultPerPage is the page size requested for listings.
const DefaultPerPage = 100

// DefaultHeader returns headers sent with every API request. Timestamps are
// requested in UTC so that snapshots do not depend on the account settings.
func DefaultHeader() http.Header {
	return http.Header{"Time-Zone": {"Etc/UTC"}}
}

// maxErrorBody bounds how much of an error response is retained.
const maxErrorBody = 4 << 10

// ErrNotModified is returned when a conditional request matched the
// server's current representation.
var ErrNotModified = errors.New("not modified")

// HTTPError is a non-success response from the API.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("GET %s: %s", e.URL, e.Status)
	var apiErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Body, &apiErr) == nil && apiErr.Message != "" {
		msg += ": " + apiErr.Message
	}
	return msg
}

// TransportError is a failure to exchange a request with the server, such
// as a connection reset or a truncated body.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Request is a single read-only API request.
type Request struct {
	// Path is either relative to the base URL or an absolute API URL as
	// returned in response bodies.
	Path string
	// Accept is the media type to negotiate. Empty means DefaultAccept.
	Accept string
	Params url.Values
	// IfNoneMatch, when set, makes the request conditional.
	IfNoneMatch string
}

// Page is the metadata of one response that contributed to a result.
type Page struct {
	URL    string
	Status int
	Header http.Header
}

// Response is the combined result of a request and all its follow-up pages.
type Response struct {
	Pages []Page
	Body  json.RawMessage
}

// ETag returns the version token of the first page.
func (r *Response) ETag() string {
	if len(r.Pages) == 0 {
		return ""
	}
	return r.Pages[0].Header.Get("ETag")
}

// Client talks to a GitHub API endpoint.
type Client struct {
	HTTP    httpx.BasicClient
	BaseURL *url.URL
	PerPage int
}

// NewClient returns a Client for base, or DefaultBaseURL when base is nil.
func NewClient(c httpx.BasicClient, base *url.URL) *Client {
	if base == nil {
		base = DefaultBaseURL
	}
	return &Client{HTTP: c, BaseURL: base, PerPage: DefaultPerPage}
}

// RelPath returns the resource path of p: the base URL prefix, any URI
// template suffix and surrounding slashes are removed.
func (c *Client) RelPath(p string) string {
	p = urlx.TrimTemplate(p)
	base := strings.TrimSuffix(c.base().String(), "/")
	p = strings.TrimPrefix(p, base)
	return strings.Trim(p, "/")
}

func (c *Client) base() *url.URL {
	if c.BaseURL == nil {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// URL resolves a request path against the base URL.
func (c *Client) URL(p string, params url.Values) (*url.URL, error) {
	rel := c.RelPath(p)
	u, err := url.Parse(rel)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing path %q", p)
	}
	if u.IsAbs() {
		return nil, errors.Errorf("URL %q is outside of %s", p, c.base())
	}
	target := c.base().JoinPath(u.Path)
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	target.RawQuery = q.Encode()
	return target, nil
}

// Get performs req and follows pagination links. When the first page is a
// JSON array the elements of all pages are concatenated.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	params := url.Values{}
	for k, vs := range req.Params {
		params[k] = append([]string(nil), vs...)
	}
	if c.PerPage > 0 && params.Get("per_page") == "" {
		params.Set("per_page", strconv.Itoa(c.PerPage))
	}
	u, err := c.URL(req.Path, params)
	if err != nil {
		return nil, err
	}
	resp := &Response{}
	var items []json.RawMessage
	next := u.String()
	for first := true; next != ""; first = false {
		page, body, link, err := c.getPage(ctx, next, req, first)
		if err != nil {
			return nil, err
		}
		resp.Pages = append(resp.Pages, page)
		if first && !isArray(body) {
			resp.Body = body
			return resp, nil
		}
		var pageItems []json.RawMessage
		if err := json.Unmarshal(body, &pageItems); err != nil {
			return nil, errors.Wrapf(err, "decoding page %s", next)
		}
		items = append(items, pageItems...)
		next = link
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	resp.Body, err = json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "combining pages")
	}
	return resp, nil
}

func (c *Client) getPage(ctx context.Context, target string, req Request, first bool) (Page, []byte, string, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, nil, "", errors.Wrap(err, "creating request")
	}
	accept := req.Accept
	if accept == "" {
		accept = DefaultAccept
	}
	hr.Header.Set("Accept", accept)
	if first && req.IfNoneMatch != "" {
		hr.Header.Set("If-None-Match", req.IfNoneMatch)
	}
	resp, err := c.HTTP.Do(hr)
	if err != nil {
		return Page{}, nil, "", &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()
	page := Page{URL: target, Status: resp.StatusCode, Header: resp.Header}
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return page, nil, "", ErrNotModified
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return page, nil, "", &HTTPError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       body,
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return page, nil, "", &TransportError{URL: target, Err: err}
	}
	if len(body) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		return page, nil, "", errors.Errorf("invalid JSON from %s", target)
	}
	return page, body, nextLink(resp.Header), nil
}

func isArray(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// nextLink extracts the rel="next" target of an RFC 8288 Link header.
func nextLink(h http.Header) string {
	for _, v := range h.Values("Link") {
		for _, part := range strings.Split(v, ",") {
			target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
			if !ok {
				continue
			}
			target = strings.TrimSpace(target)
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			for _, p := range strings.Split(params, ";") {
				k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
				if strings.EqualFold(k, "rel") && strings.Trim(v, `"`) == "next" {
					return target[1 : len(target)-1]
				}
			}
		}
	}
	return ""
}

// RateLimit is the quota state reported in response headers.
type RateLimit struct {
	Remaining int
	Reset     time.Time
	// Date is the server's clock when the response was sent, zero if the
	// Date header is missing or malformed.
	Date time.Time
}

// ParseRateLimit reads X-RateLimit-Remaining, X-RateLimit-Reset and Date.
// ok is false when either rate limit header is missing or malformed.
func ParseRateLimit(h http.Header) (rl RateLimit, ok bool) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return RateLimit{}, false
	}
	reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return RateLimit{}, false
	}
	rl = RateLimit{Remaining: remaining, Reset: time.Unix(reset, 0)}
	if date, err := http.ParseTime(h.Get("Date")); err == nil {
		rl.Date = date
	}
	return rl, true
}
