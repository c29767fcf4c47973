// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"testing"

	"github.com/google/ghs/pkg/act"
)

func TestRootExitCodes(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown flag", args: []string{"backup", "--no-such-flag", "o"}, want: act.ExitUsage},
		{name: "missing roots", args: []string{"backup"}, want: act.ExitUsage},
		{name: "conflicting config arguments", args: []string{"config", "--list=both", "token"}, want: act.ExitUsage},
		{name: "bad upload", args: []string{"backup", "--upload", "s3://bucket", "o"}, want: act.ExitUsage},
	} {
		t.Run(tc.name, func(t *testing.T) {
			root := rootCommand()
			root.SetArgs(tc.args)
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			err := root.Execute()
			if got := act.ExitCode(err); got != tc.want {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, tc.want)
			}
		})
	}
}

func TestRootListsSubcommands(t *testing.T) {
	root := rootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"backup", "config"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("subcommand %q not registered (have %v)", want, names)
		}
	}
}
