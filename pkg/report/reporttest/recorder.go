// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package reporttest provides a Reporter that records messages for tests.
package reporttest

import (
	"fmt"
	"strings"

	"github.com/google/ghs/pkg/report"
)

// Recorder keeps every message it receives, grouped by level.
type Recorder struct {
	Warnings []string
	Infos    []string
	Verboses []string
}

var _ report.Reporter = &Recorder{}

func (r *Recorder) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Recorder) Infof(format string, args ...any) {
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Verbosef(format string, args ...any) {
	r.Verboses = append(r.Verboses, fmt.Sprintf(format, args...))
}

// WarningsContaining returns the warnings that contain substr.
func (r *Recorder) WarningsContaining(substr string) []string {
	var out []string
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			out = append(out, w)
		}
	}
	return out
}
