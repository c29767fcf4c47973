// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package act

import (
	"testing"

	"github.com/pkg/errors"
)

func TestExitCode(t *testing.T) {
	errExhausted := errors.New("too many retries")
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitOK},
		{name: "plain failure", err: errors.New("boom"), want: ExitFailure},
		{name: "usage", err: Usagef("missing %s", "root"), want: ExitUsage},
		{name: "wrapped usage", err: errors.Wrap(Usage(errors.New("bad flag")), "validating"), want: ExitUsage},
		{name: "exit code", err: WithExitCode(errExhausted, 10), want: 10},
		{name: "wrapped exit code", err: errors.Wrap(WithExitCode(errExhausted, 10), "backing up o/r"), want: 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestMarkersKeepCause(t *testing.T) {
	cause := errors.New("cause")
	if !errors.Is(WithExitCode(cause, 10), cause) {
		t.Error("ExitError does not unwrap to its cause")
	}
	if !errors.Is(Usage(cause), cause) {
		t.Error("UsageError does not unwrap to its cause")
	}
	if Usage(nil) != nil || WithExitCode(nil, 3) != nil {
		t.Error("nil errors must stay nil")
	}
}
