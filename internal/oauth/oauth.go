// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package oauth builds HTTP clients authenticated against the GitHub API.
package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// TokenType is the authorization scheme GitHub expects for personal access
// tokens.
const TokenType = "token"

// NewClient returns a client sending token with every request made through
// base. An empty token yields base itself.
func NewClient(ctx context.Context, token string, base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if token == "" {
		return base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   TokenType,
	}))
}
