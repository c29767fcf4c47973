// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

// Package config holds the settings shared by all ghs commands.
package config

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/ghs/pkg/ghapi"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSetting is returned when asking for a setting that does not exist.
var ErrUnknownSetting = errors.New("unknown config variable")

const (
	DefaultUserAgent = "ghs"
	DefaultTimeout   = 60
	DefaultFileName  = "backup.zip"
)

// Environment variables overriding file settings.
const (
	EnvBaseURL     = "GHS_BASE_URL"
	EnvToken       = "GHS_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvUserAgent   = "GHS_USER_AGENT"
)

// Config is the set of ghs settings.
type Config struct {
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	Token          string `yaml:"token" toml:"token"`
	UserAgent      string `yaml:"user_agent" toml:"user_agent"`
	PerPage        int    `yaml:"per_page" toml:"per_page"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	FileName       string `yaml:"file_name" toml:"file_name"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		BaseURL:        ghapi.DefaultBaseURL.String(),
		UserAgent:      DefaultUserAgent,
		PerPage:        ghapi.DefaultPerPage,
		TimeoutSeconds: DefaultTimeout,
		FileName:       DefaultFileName,
	}
}

// DefaultPath returns the config file read when none is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating user config directory")
	}
	return filepath.Join(dir, "ghs", "config.yaml"), nil
}

// Load reads path from fs on top of the defaults and applies environment
// overrides from getenv. A missing file yields the defaults.
func Load(fs billy.Filesystem, path string, getenv func(string) string) (*Config, error) {
	c := Default()
	if path != "" {
		if err := c.decodeFile(fs, path); err != nil {
			return nil, err
		}
	}
	if getenv != nil {
		c.applyEnv(getenv)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration")
	}
	return &c, nil
}

func (c *Config) decodeFile(fs billy.Filesystem, path string) error {
	f, err := fs.Open(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && err != io.EOF {
			return errors.Wrapf(err, "decoding %s", path)
		}
	case ".toml":
		if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
			return errors.Wrapf(err, "decoding %s", path)
		}
	default:
		return errors.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Token = v
	} else if v := getenv(EnvGitHubToken); v != "" && c.Token == "" {
		c.Token = v
	}
	if v := getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Wrap(err, "base_url")
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return errors.Errorf("per_page must be between 1 and 100, got %d", c.PerPage)
	}
	if c.TimeoutSeconds < 0 {
		return errors.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if c.FileName == "" {
		return errors.New("file_name is required")
	}
	return nil
}

// APIBase returns the parsed base URL.
func (c Config) APIBase() *url.URL {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ghapi.DefaultBaseURL
	}
	return u
}

// Timeout returns the per-request timeout, zero meaning none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Setting is one named config value, formatted for display.
type Setting struct {
	Name  string
	Value string
}

// Describe lists every setting in a fixed order. Secrets are masked.
func (c Config) Describe() []Setting {
	return []Setting{
		{Name: "base_url", Value: c.BaseURL},
		{Name: "token", Value: mask(c.Token)},
		{Name: "user_agent", Value: c.UserAgent},
		{Name: "per_page", Value: strconv.Itoa(c.PerPage)},
		{Name: "timeout_seconds", Value: strconv.Itoa(c.TimeoutSeconds)},
		{Name: "file_name", Value: c.FileName},
	}
}

// Get returns the displayed value of the setting called name.
func (c Config) Get(name string) (string, error) {
	for _, s := range c.Describe() {
		if s.Name == name {
			return s.Value, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownSetting, "%q", name)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
