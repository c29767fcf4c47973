// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/ghs/internal/httpx"
	"github.com/google/ghs/internal/oauth"
	"github.com/google/ghs/pkg/act"
	"github.com/google/ghs/pkg/act/cli"
	"github.com/google/ghs/pkg/archive"
	archiver "github.com/google/ghs/pkg/backup"
	"github.com/google/ghs/pkg/config"
	"github.com/google/ghs/pkg/fetch"
	"github.com/google/ghs/pkg/ghapi"
	"github.com/google/ghs/pkg/publish"
	"github.com/google/ghs/pkg/report"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"
)

// ExitRetryExhausted is the exit status of a run that gave up on a
// repeatedly failing request.
const ExitRetryExhausted = 10

// Config holds all configuration for the backup command.
type Config struct {
	What        []string
	FileName    string
	Recursive   bool
	Incremental bool
	Verbose     int
	Quiet       int
	Progress    bool
	Upload      string
	ConfigPath  string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if len(c.What) == 0 {
		return errors.New("at least one organization, user or repository is required")
	}
	if c.Upload != "" {
		if _, err := publish.ParseGCSURL(c.Upload, config.DefaultFileName); err != nil {
			return errors.Wrap(err, "--upload")
		}
	}
	return nil
}

// Deps holds dependencies for the command.
type Deps struct {
	IO cli.IO
	// FS holds the archive, relative to the working directory.
	FS billy.Filesystem
	// ConfigFS resolves absolute config file paths.
	ConfigFS billy.Filesystem
	Getenv   func(string) string
	Clock    fetch.Clock
	// HTTP builds the API transport from the loaded settings.
	HTTP func(context.Context, *config.Config) httpx.BasicClient
	// NewUploader is only invoked when an upload is requested.
	NewUploader func(context.Context, *config.Config) (publish.Uploader, error)
}

func (d *Deps) SetIO(cio cli.IO) { d.IO = cio }

// InitDeps initializes Deps.
func InitDeps(context.Context) (*Deps, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	return &Deps{
		FS:       osfs.New(wd),
		ConfigFS: osfs.New("/"),
		Getenv:   os.Getenv,
		Clock:    clock.WallClock,
		HTTP:     NewHTTPClient,
		NewUploader: func(ctx context.Context, s *config.Config) (publish.Uploader, error) {
			return publish.NewGCSUploader(ctx, option.WithUserAgent(s.UserAgent))
		},
	}, nil
}

// NewHTTPClient returns the authenticated API transport for s.
func NewHTTPClient(ctx context.Context, s *config.Config) httpx.BasicClient {
	c := oauth.NewClient(ctx, s.Token, &http.Client{Timeout: s.Timeout()})
	return &httpx.WithUserAgent{
		BasicClient: &httpx.WithHeaders{BasicClient: c, Header: ghapi.DefaultHeader()},
		UserAgent:   s.UserAgent,
	}
}

// Handler contains the business logic for backing up GitHub resources.
func Handler(ctx context.Context, cfg Config, deps *Deps) (*act.NoOutput, error) {
	settings, err := loadSettings(cfg, deps)
	if err != nil {
		return nil, err
	}
	fileName := cfg.FileName
	if fileName == "" {
		fileName = settings.FileName
	}
	rep := report.NewLogger(report.LevelInfo+cfg.Verbose-cfg.Quiet, deps.IO.Out, deps.IO.Err)
	runID := uuid.New().String()
	rep.Verbosef("Starting run %s", runID)

	client := ghapi.NewClient(deps.HTTP(ctx, settings), settings.APIBase())
	client.PerPage = settings.PerPage
	ctl := fetch.NewController(client, rep)
	if deps.Clock != nil {
		ctl.Clock = deps.Clock
	}
	roots, err := archiver.Classify(ctx, ctl, cfg.What, cfg.Recursive)
	if err != nil {
		return nil, exitError(errors.Wrap(err, "classifying backup roots"))
	}
	store, err := archive.Open(deps.FS, fileName, archive.Options{
		Incremental: cfg.Incremental,
		Comment:     runID,
		Reporter:    rep,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Incremental && !store.HasPrevious() {
		rep.Verbosef("No previous %s, starting from scratch", fileName)
	}
	w := &archiver.Walker{
		Fetcher:     ctl,
		Store:       store,
		Paths:       client,
		Reporter:    rep,
		Incremental: cfg.Incremental,
	}
	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.New(len(roots))
		bar.Output = deps.IO.Err
		bar.ShowTimeLeft = true
		bar.Start()
	}
	for _, root := range roots {
		if err := w.Backup(ctx, root); err != nil {
			if bar != nil {
				bar.Finish()
			}
			if derr := store.Discard(); derr != nil {
				rep.Warnf("Cleaning up: %v", derr)
			}
			return nil, exitError(err)
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	if err := store.Commit(); err != nil {
		return nil, errors.Wrap(err, "saving archive")
	}
	rep.Infof("Backed up %d roots to %s", len(roots), fileName)
	if cfg.Upload != "" {
		if err := upload(ctx, cfg, deps, settings, fileName, rep); err != nil {
			return nil, err
		}
	}
	return &act.NoOutput{}, nil
}

func loadSettings(cfg Config, deps *Deps) (*config.Config, error) {
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
	return config.Load(deps.ConfigFS, path, deps.Getenv)
}

func upload(ctx context.Context, cfg Config, deps *Deps, settings *config.Config, fileName string, rep report.Reporter) error {
	dest, err := publish.ParseGCSURL(cfg.Upload, fileName)
	if err != nil {
		return err
	}
	u, err := deps.NewUploader(ctx, settings)
	if err != nil {
		return err
	}
	if c, ok := u.(io.Closer); ok {
		defer c.Close()
	}
	if err := publish.Publish(ctx, deps.FS, fileName, dest, u); err != nil {
		return err
	}
	rep.Infof("Uploaded %s to %s", fileName, dest)
	return nil
}

func exitError(err error) error {
	if errors.Is(err, fetch.ErrRetryExhausted) {
		return act.WithExitCode(err, ExitRetryExhausted)
	}
	return err
}

// Command creates a new backup command instance. configPath is read when
// the command runs.
func Command(configPath *string) *cobra.Command {
	cfg := Config{}
	cmd := &cobra.Command{
		Use:   "backup [flags] WHAT...",
		Short: "Back up GitHub organizations, users and repositories",
		Long: "Back up GitHub organizations, users and repositories into a ZIP archive.\n" +
			"WHAT is an organization or user name, or a repository as owner/repo or URL.",
		Args: cli.UsageArgs(cobra.MinimumNArgs(1)),
		RunE: cli.RunE(
			&cfg,
			func(cfg *Config, args []string) error {
				cfg.What = args
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
	set.StringVarP(&cfg.FileName, "file-name", "f", "", "ZIP file to write the backup to (default from config, \"backup.zip\")")
	set.BoolVarP(&cfg.Recursive, "recursive", "r", false, "also back up every repository of the given users and organizations")
	set.BoolVarP(&cfg.Incremental, "incremental", "i", false, "reuse unchanged resources from the existing archive")
	set.CountVarP(&cfg.Verbose, "verbose", "v", "report more, may be repeated")
	set.CountVarP(&cfg.Quiet, "quiet", "q", "report less, may be repeated")
	set.BoolVar(&cfg.Progress, "progress", false, "show a progress bar over the backup roots")
	set.StringVar(&cfg.Upload, "upload", "", "upload the finished archive to gs://BUCKET/OBJECT")
	return set
}
