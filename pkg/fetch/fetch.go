// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package fetch executes conditional API requests, absorbing transient
// failures and waiting out rate limits so callers only see final outcomes.
package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/ghs/pkg/ghapi"
	"github.com/google/ghs/pkg/report"
	"github.com/juju/clock"
	"github.com/pkg/errors"
)

// Kind classifies a non-fatal outcome.
type Kind int

const (
	// Fetched means a full representation was received.
	Fetched Kind = iota
	// Unchanged means the server confirmed the conditional request's version.
	Unchanged
	// Gone means the resource is disabled or removed (410).
	Gone
	// Missing means the resource does not exist (404).
	Missing
)

func (k Kind) String() string {
	switch k {
	case Fetched:
		return "fetched"
	case Unchanged:
		return "unchanged"
	case Gone:
		return "gone"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Outcome is the result of one successful exchange with the API.
// Body and ETag are only set for Fetched.
type Outcome struct {
	Kind Kind
	Body json.RawMessage
	ETag string
}

// ErrRetryExhausted is returned when transient failures outlast the budget.
var ErrRetryExhausted = errors.New("too many retries, giving up")

const (
	// DefaultMaxRetries is the transient-failure retry budget per request.
	DefaultMaxRetries = 10
	// DefaultBaseDelay is the wait before the first retry. Each subsequent
	// retry doubles it, so ten retries span 31.25ms to 16s.
	DefaultBaseDelay = time.Second / 32
	// MinRateLimitWait is the shortest pause after a rate-limited response.
	MinRateLimitWait = time.Second
)

// Clock is the subset of clock.Clock used for waiting.
type Clock interface {
	Now() time.Time
	After(time.Duration) <-chan time.Time
}

var _ Clock = clock.WallClock

// Getter performs a single API request without retries.
type Getter interface {
	Get(context.Context, ghapi.Request) (*ghapi.Response, error)
}

var _ Getter = &ghapi.Client{}

// Controller wraps a Getter with retry and rate-limit handling.
type Controller struct {
	Getter     Getter
	Clock      Clock
	Reporter   report.Reporter
	MaxRetries int
	BaseDelay  time.Duration
}

// NewController returns a Controller with the default retry policy and the
// wall clock.
func NewController(g Getter, r report.Reporter) *Controller {
	return &Controller{
		Getter:     g,
		Clock:      clock.WallClock,
		Reporter:   r,
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
}

// Backoff returns the wait before retry number attempt (starting at 0).
func (c *Controller) Backoff(attempt int) time.Duration {
	return c.BaseDelay << attempt
}

// Fetch performs req until it produces a final outcome. Any returned error
// is fatal to the caller's run.
func (c *Controller) Fetch(ctx context.Context, req ghapi.Request) (Outcome, error) {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		resp, err := c.Getter.Get(ctx, req)
		if err == nil {
			return Outcome{Kind: Fetched, Body: resp.Body, ETag: resp.ETag()}, nil
		}
		if errors.Is(err, ghapi.ErrNotModified) {
			if req.IfNoneMatch == "" {
				return Outcome{}, errors.Wrapf(err, "unsolicited 304 for %s", req.Path)
			}
			return Outcome{Kind: Unchanged}, nil
		}
		var he *ghapi.HTTPError
		var te *ghapi.TransportError
		if errors.As(err, &he) {
			switch {
			case he.StatusCode == http.StatusNotFound:
				return Outcome{Kind: Missing}, nil
			case he.StatusCode == http.StatusGone:
				return Outcome{Kind: Gone}, nil
			case he.StatusCode == http.StatusForbidden:
				rl, ok := ghapi.ParseRateLimit(he.Header)
				if !ok || rl.Remaining != 0 {
					return Outcome{}, err
				}
				if err := c.waitForReset(ctx, req, rl); err != nil {
					return Outcome{}, err
				}
				continue
			case he.StatusCode < http.StatusInternalServerError:
				return Outcome{}, err
			}
		} else if !errors.As(err, &te) || ctx.Err() != nil {
			return Outcome{}, err
		}
		if attempt >= c.MaxRetries {
			return Outcome{}, errors.Wrapf(ErrRetryExhausted, "retrieving %s: %v", req.Path, err)
		}
		wait := c.Backoff(attempt)
		c.reporter().Warnf("Error while retrieving %s: %v, retrying in %v...", req.Path, err, wait)
		if err := c.sleep(ctx, wait); err != nil {
			return Outcome{}, err
		}
		attempt++
	}
}

// waitForReset sleeps until the quota resets. The reset time is measured
// against the server's Date when present since the local clock may drift.
func (c *Controller) waitForReset(ctx context.Context, req ghapi.Request, rl ghapi.RateLimit) error {
	now := rl.Date
	if now.IsZero() {
		now = c.Clock.Now()
	}
	wait := max(rl.Reset.Sub(now), MinRateLimitWait)
	c.reporter().Warnf("Hit GitHub's rate limit retrieving %s, waiting %v (until %s)...",
		req.Path, wait.Round(time.Second), rl.Reset.Local().Format(time.RFC1123))
	return c.sleep(ctx, wait)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.Clock.After(d):
		return nil
	}
}

func (c *Controller) reporter() report.Reporter {
	if c.Reporter == nil {
		return report.Discard
	}
	return c.Reporter
}
