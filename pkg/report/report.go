// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package report carries user-facing progress messages at three levels of
// detail. A Reporter is built once per run and handed to each component.
package report

import (
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// Reporter receives warnings, progress info and verbose notes.
type Reporter interface {
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
	Verbosef(format string, args ...any)
}

// Levels understood by Logger.
const (
	LevelWarn    = 0
	LevelInfo    = 1
	LevelVerbose = 2
)

// Logger is a Reporter writing through standard library loggers.
// Messages are emitted when Level is at least the message's level.
type Logger struct {
	Level int
	out   *log.Logger
	err   *log.Logger
}

var _ Reporter = &Logger{}

var warnPrefix = color.New(color.FgYellow).SprintFunc()

// NewLogger returns a Logger writing info and verbose messages to out and
// warnings to errOut.
func NewLogger(level int, out, errOut io.Writer) *Logger {
	return &Logger{
		Level: level,
		out:   log.New(out, "", 0),
		err:   log.New(errOut, "", 0),
	}
}

// Warnf reports a recoverable problem.
func (l *Logger) Warnf(format string, args ...any) {
	if l.Level < LevelWarn {
		return
	}
	l.err.Print(warnPrefix("Warning:") + " " + fmt.Sprintf(format, args...))
}

// Infof reports normal progress.
func (l *Logger) Infof(format string, args ...any) {
	if l.Level < LevelInfo {
		return
	}
	l.out.Printf(format, args...)
}

// Verbosef reports fine-grained progress.
func (l *Logger) Verbosef(format string, args ...any) {
	if l.Level < LevelVerbose {
		return
	}
	l.out.Printf(format, args...)
}

type discard struct{}

func (discard) Warnf(string, ...any)    {}
func (discard) Infof(string, ...any)    {}
func (discard) Verbosef(string, ...any) {}

// Discard drops every message.
var Discard Reporter = discard{}
