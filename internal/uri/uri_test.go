// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package uri

import (
	"testing"
)

func TestParseRoot(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		isRepo   bool
		wantErr  bool
	}{
		{"", "", false, true},
		{"octocat", "octocat", false, false},
		{" my-org ", "my-org", false, false},
		{"octocat/hello-world", "octocat/hello-world", true, false},
		{"github.com/octocat/Hello-World", "octocat/Hello-World", true, false},
		{"https://github.com/octocat/hello.js.git", "octocat/hello.js", true, false},
		{"git@github.com:octocat/hello-world.git", "octocat/hello-world", true, false},
		{"github:octocat/hello-world", "octocat/hello-world", true, false},
		{"https://github.com/octocat", "octocat", false, false},
		{"https://github.com/octocat/", "octocat", false, false},
		{"a/b/c", "", false, true},
		{"octo cat", "", false, true},
		{"octocat/..", "", false, true},
	}
	for _, test := range tests {
		name, isRepo, err := ParseRoot(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseRoot(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if name != test.expected || isRepo != test.isRepo {
			t.Errorf("ParseRoot(%q) = %q, %v; want %q, %v", test.input, name, isRepo, test.expected, test.isRepo)
		}
	}
}
