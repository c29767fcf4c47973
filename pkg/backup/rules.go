// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind names a resource kind and thereby how it expands into children.
type Kind string

const (
	Leaf         Kind = "leaf"
	Organization Kind = "organization"
	User         Kind = "user"
	Repository   Kind = "repository"
	Projects     Kind = "projects"
	Project      Kind = "project"
	Columns      Kind = "columns"
	Teams        Kind = "teams"
	Team         Kind = "team"
	Issues       Kind = "issues"
	Issue        Kind = "issue"
	PullRequest  Kind = "pull-request"
	Reviews      Kind = "reviews"
	Review       Kind = "review"
)

// Media types of the preview APIs some endpoints require.
const (
	AcceptBlocks    = "application/vnd.github.giant-sentry-fist-preview+json"
	AcceptProjects  = "application/vnd.github.inertia-preview+json"
	AcceptTeams     = "application/vnd.github.hellcat-preview+json"
	AcceptIssues    = "application/vnd.github.squirrel-girl-preview"
	AcceptReviewers = "application/vnd.github.thor-preview+json"
)

// link derives a child URL from the parent's URL and decoded body. It
// returns false when the parent has no such child.
type link func(parentURL string, obj map[string]any) (string, bool)

// suffix appends a path segment to the parent URL.
func suffix(s string) link {
	return func(parent string, _ map[string]any) (string, bool) {
		return strings.TrimSuffix(parent, "/") + "/" + s, true
	}
}

// field reads a URL from a (nested) string field of the parent body.
func field(keys ...string) link {
	return func(_ string, obj map[string]any) (string, bool) {
		var cur any = obj
		for _, k := range keys {
			m, ok := cur.(map[string]any)
			if !ok {
				return "", false
			}
			cur = m[k]
		}
		s, ok := cur.(string)
		return s, ok && s != ""
	}
}

// element appends the value of key to the listing's URL.
func element(key string) link {
	return func(parent string, obj map[string]any) (string, bool) {
		v, ok := obj[key]
		if !ok || v == nil {
			return "", false
		}
		return strings.TrimSuffix(parent, "/") + "/" + fmt.Sprint(v), true
	}
}

// child declares one resource to enqueue beneath a parent.
type child struct {
	kind   Kind
	link   link
	accept string
	params url.Values
	// cached children are taken from the previous snapshot without a
	// request when their parent was unchanged.
	cached bool
}

// rule declares how a kind expands.
type rule struct {
	// each applies children to every element of a listing rather than to
	// the body itself.
	each     bool
	children []child
}

var (
	allState     = url.Values{"state": {"all"}}
	issuesParams = url.Values{"state": {"all"}, "sort": {"created"}, "direction": {"asc"}}
)

var rules = map[Kind]rule{
	Organization: {children: []child{
		{kind: Leaf, link: suffix("members")},
		{kind: Leaf, link: suffix("invitations")},
		{kind: Leaf, link: suffix("outside_collaborators")},
		{kind: Leaf, link: suffix("hooks")},
		{kind: Leaf, link: suffix("blocks"), accept: AcceptBlocks},
		{kind: Projects, link: suffix("projects"), accept: AcceptProjects, params: allState},
		{kind: Teams, link: suffix("teams"), accept: AcceptTeams},
	}},
	Repository: {children: []child{
		{kind: Leaf, link: suffix("labels")},
		{kind: Leaf, link: suffix("milestones")},
		{kind: Leaf, link: suffix("comments")},
		{kind: Leaf, link: suffix("keys")},
		{kind: Leaf, link: suffix("deployments")},
		{kind: Leaf, link: suffix("hooks")},
		{kind: Leaf, link: suffix("releases")},
		{kind: Leaf, link: suffix("invitations")},
		{kind: Leaf, link: suffix("collaborators"), accept: AcceptTeams},
		{kind: Projects, link: suffix("projects"), accept: AcceptProjects, params: allState},
		{kind: Issues, link: suffix("issues"), accept: AcceptIssues, params: issuesParams},
	}},
	Projects: {each: true, children: []child{
		{kind: Project, link: field("url"), accept: AcceptProjects},
	}},
	Project: {children: []child{
		{kind: Columns, link: field("columns_url"), accept: AcceptProjects},
	}},
	Columns: {each: true, children: []child{
		{kind: Leaf, link: field("cards_url"), accept: AcceptProjects, cached: true},
	}},
	Teams: {each: true, children: []child{
		{kind: Team, link: field("url"), accept: AcceptTeams},
	}},
	Team: {children: []child{
		{kind: Leaf, link: field("members_url"), accept: AcceptTeams, cached: true},
		{kind: Leaf, link: field("repositories_url"), accept: AcceptTeams, cached: true},
	}},
	Issues: {each: true, children: []child{
		{kind: Issue, link: field("url"), accept: AcceptIssues},
	}},
	Issue: {children: []child{
		{kind: Leaf, link: field("comments_url"), accept: AcceptIssues, cached: true},
		{kind: Leaf, link: field("events_url"), accept: AcceptIssues, cached: true},
		{kind: PullRequest, link: field("pull_request", "url"), accept: AcceptIssues},
	}},
	PullRequest: {children: []child{
		{kind: Leaf, link: field("review_comments_url"), accept: AcceptIssues, cached: true},
		{kind: Leaf, link: field("commits_url"), accept: AcceptIssues, cached: true},
		{kind: Leaf, link: field("statuses_url"), accept: AcceptIssues, cached: true},
		{kind: Leaf, link: suffix("requested_reviewers"), accept: AcceptReviewers},
		{kind: Reviews, link: suffix("reviews"), accept: AcceptIssues, cached: true},
	}},
	Reviews: {each: true, children: []child{
		{kind: Review, link: element("id"), accept: AcceptIssues},
	}},
	Review: {children: []child{
		{kind: Leaf, link: suffix("comments"), accept: AcceptIssues, cached: true},
	}},
}
