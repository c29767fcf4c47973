// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/ghs/pkg/act"
	"github.com/google/ghs/pkg/act/cli"
	"github.com/google/ghs/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Listing formats.
const (
	ListName  = "name"
	ListValue = "value"
	ListBoth  = "both"
)

// Config holds all configuration for the config command.
type Config struct {
	Names      []string
	List       string
	ConfigPath string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	switch c.List {
	case "":
		if len(c.Names) == 0 {
			return errors.New("either setting names or --list is required")
		}
	case ListName, ListValue, ListBoth:
		if len(c.Names) > 0 {
			return errors.New("setting names cannot be combined with --list")
		}
	default:
		return errors.Errorf("--list must be one of %s, %s or %s, got %q", ListName, ListValue, ListBoth, c.List)
	}
	return nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO     cli.IO
	FS     billy.Filesystem
	Getenv func(string) string
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(context.Context) (*Deps, error) {
	return &Deps{FS: osfs.New("/"), Getenv: os.Getenv}, nil
}

// Handler prints the requested settings.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	path := cfg.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolving config path")
	}
	settings, err := config.Load(deps.FS, path, deps.Getenv)
	if err != nil {
		return nil, err
	}
	if cfg.List != "" {
		for _, s := range settings.Describe() {
			switch cfg.List {
			case ListName:
				fmt.Fprintln(deps.IO.Out, s.Name)
			case ListValue:
				fmt.Fprintln(deps.IO.Out, s.Value)
			case ListBoth:
				fmt.Fprintf(deps.IO.Out, "%s=%s\n", s.Name, s.Value)
			}
		}
		return &act.NoOutput{}, nil
	}
	var unknown []string
	for _, name := range cfg.Names {
		v, err := settings.Get(name)
		if errors.Is(err, config.ErrUnknownSetting) {
			fmt.Fprintf(deps.IO.Err, "Unknown config variable '%s'!\n", name)
			unknown = append(unknown, name)
			continue
		} else if err != nil {
			return nil, err
		}
		fmt.Fprintln(deps.IO.Out, v)
	}
	if len(unknown) > 0 {
		return nil, errors.Wrapf(config.ErrUnknownSetting, "%q", unknown)
	}
	return &act.NoOutput{}, nil
}

// Command creates a new config command instance. configPath is read when
// the command runs.
func Command(configPath *string) *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "config [NAME...] | --list[=name|value|both]",
		Short: "Get configuration values",
		RunE: cli.RunE(
			&cfg,
			func(cfg *Config, args []string) error {
				cfg.Names = args
				if configPath != nil {
					cfg.ConfigPath = *configPath
				}
				return nil
			},
			InitDeps,
			Handler,
		),
	}
	cmd.Flags().AddFlagSet(flagSet(cmd.Name(), &cfg))
	return cmd
}

// flagSet returns the command-line flags for the Config struct.
func flagSet(name string, cfg *Config) *pflag.FlagSet {
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.StringVarP(&cfg.List, "list", "l", "", "list all settings (WHAT: name, value or both)")
	set.Lookup("list").NoOptDefVal = ListName
	return set
}
