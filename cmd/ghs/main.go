// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// ghs backs up GitHub organizations, users and repositories through the
// GitHub REST API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/ghs/internal/command/backup"
	"github.com/google/ghs/internal/command/config"
	"github.com/google/ghs/pkg/act"
	"github.com/google/ghs/pkg/act/cli"
	"github.com/spf13/cobra"
)

func rootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "ghs",
		Short:         "GitHub backup tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML or TOML, default $XDG_CONFIG_HOME/ghs/config.yaml)")
	root.SetFlagErrorFunc(cli.UsageFlagError)
	root.AddCommand(backup.Command(&configPath))
	root.AddCommand(config.Command(&configPath))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(act.ExitCode(err))
	}
}
