// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
)

func TestLoggerLevels(t *testing.T) {
	color.NoColor = true
	for _, tc := range []struct {
		name    string
		level   int
		wantOut []string
		wantErr []string
	}{
		{
			name:  "quiet",
			level: -1,
		},
		{
			name:    "warnings only",
			level:   LevelWarn,
			wantErr: []string{"Warning: conflict on a.json"},
		},
		{
			name:    "default",
			level:   LevelInfo,
			wantOut: []string{"Added a.json"},
			wantErr: []string{"Warning: conflict on a.json"},
		},
		{
			name:    "verbose",
			level:   LevelVerbose,
			wantOut: []string{"Added a.json", "Skipped unmodified b.json"},
			wantErr: []string{"Warning: conflict on a.json"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			l := NewLogger(tc.level, &out, &errOut)
			l.Warnf("conflict on %s", "a.json")
			l.Infof("Added %s", "a.json")
			l.Verbosef("Skipped unmodified %s", "b.json")
			if diff := cmp.Diff(tc.wantOut, lines(out.String())); diff != "" {
				t.Errorf("stdout mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantErr, lines(errOut.String())); diff != "" {
				t.Errorf("stderr mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
