// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/ghs/pkg/act"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Test types
type TestConfig struct {
	Name  string
	Value int
	Args  []string
}

func (c TestConfig) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type TestDeps struct {
	IO IO
}

func (d *TestDeps) SetIO(cio IO) { d.IO = cio }

// Test action that writes to output
func testAction(ctx context.Context, cfg TestConfig, deps *TestDeps) (*act.NoOutput, error) {
	deps.IO.Out.Write([]byte("Hello " + cfg.Name))
	return &act.NoOutput{}, nil
}

func testInitDeps(ctx context.Context) (*TestDeps, error) {
	return &TestDeps{}, nil
}

func TestSkipArgs(t *testing.T) {
	cfg := &TestConfig{}
	err := SkipArgs(cfg, []string{})
	if err != nil {
		t.Errorf("NoArgs() error = %v, wantErr %v", err, nil)
	}
}

func TestRunE(t *testing.T) {
	cfg := TestConfig{Name: "World"}

	// Create a cobra command with our RunE
	cmd := &cobra.Command{
		Use: "test",
		RunE: RunE(
			&cfg,
			SkipArgs[TestConfig],
			testInitDeps,
			testAction,
		),
	}

	// Capture output
	cmd.SetArgs([]string{})
	var outBuf bytes.Buffer
	cmd.SetOut(&outBuf)

	// Execute
	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	// Check output
	got := outBuf.String()
	want := "Hello World"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunEUsageErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		cfg       TestConfig
		parseArgs ParseArgs[TestConfig]
		args      []string
	}{
		{
			name:      "validation",
			cfg:       TestConfig{},
			parseArgs: SkipArgs[TestConfig],
		},
		{
			name: "argument parsing",
			cfg:  TestConfig{Name: "World"},
			parseArgs: func(cfg *TestConfig, args []string) error {
				return errors.Errorf("unexpected argument %q", args[0])
			},
			args: []string{"extra"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cmd := &cobra.Command{
				Use:          "test",
				SilenceUsage: true,
				RunE:         RunE(&cfg, tc.parseArgs, testInitDeps, testAction),
			}
			cmd.SetArgs(append([]string{}, tc.args...))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			err := cmd.Execute()
			if got := act.ExitCode(err); got != act.ExitUsage {
				t.Errorf("ExitCode(%v) = %d, want %d", err, got, act.ExitUsage)
			}
		})
	}
}

func TestUsageArgs(t *testing.T) {
	cfg := TestConfig{Name: "World"}
	cmd := &cobra.Command{
		Use:          "test",
		Args:         UsageArgs(cobra.MinimumNArgs(1)),
		SilenceUsage: true,
		RunE:         RunE(&cfg, SkipArgs[TestConfig], testInitDeps, testAction),
	}
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if got := act.ExitCode(err); got != act.ExitUsage {
		t.Errorf("ExitCode(%v) = %d, want %d", err, got, act.ExitUsage)
	}
}
