// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package urlx

import "testing"

func TestTrimTemplate(t *testing.T) {
	for _, tc := range []struct {
		link string
		want string
	}{
		{"https://api.github.com/orgs/o/teams/t/members{/member}", "https://api.github.com/orgs/o/teams/t/members"},
		{"https://api.github.com/repos/o/r/issues/1/comments{?since}", "https://api.github.com/repos/o/r/issues/1/comments"},
		{"https://api.github.com/notifications{?since,all,participating}", "https://api.github.com/notifications"},
		{"repos/o/r/labels", "repos/o/r/labels"},
		{"repos/o/{r}/labels", "repos/o/{r}/labels"},
	} {
		if got := TrimTemplate(tc.link); got != tc.want {
			t.Errorf("TrimTemplate(%q) = %q, want %q", tc.link, got, tc.want)
		}
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic on an invalid URL")
		}
	}()
	MustParse("http://[::1")
}
