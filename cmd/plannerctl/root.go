package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/degree-planner/internal/buildinfo"
	"github.com/garyellow/degree-planner/internal/config"
	"github.com/garyellow/degree-planner/internal/data"
	"github.com/garyellow/degree-planner/internal/keylock"
	"github.com/garyellow/degree-planner/internal/logger"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/requirements"
	"github.com/garyellow/degree-planner/internal/schedule"
	"github.com/garyellow/degree-planner/internal/storage"
	"github.com/garyellow/degree-planner/internal/validate"
)

// options holds the persistent flags. Empty values fall back to the
// PLANNER_* environment.
type options struct {
	dataDir     string
	backend     string
	catalogPath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "plannerctl",
		Short:         "Degree planner operator CLI",
		Long:          "plannerctl inspects the requirements catalog and reads or edits student profiles and schedules directly in the data directory.",
		Version:       buildinfo.Summary(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory (default $"+config.EnvDataDir+")")
	flags.StringVar(&opts.backend, "backend", "", "Storage backend: sqlite or file (default $"+config.EnvStorageBackend+")")
	flags.StringVar(&opts.catalogPath, "catalog", "", "Requirements catalog file (default $"+config.EnvCatalogPath+" or the embedded catalog)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	cmd.AddCommand(
		newCatalogCmd(),
		newRequirementsCmd(opts),
		newProgressCmd(opts),
		newNormalizeCmd(opts),
		newProfileCmd(opts),
		newScheduleCmd(opts),
		newBackupCmd(opts),
		newBackupStatusCmd(opts),
		newRestoreCmd(opts),
	)
	return cmd
}

// config loads the environment configuration and applies flag overrides.
func (o *options) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.backend != "" {
		cfg.StorageBackend = strings.ToLower(o.backend)
	}
	if o.catalogPath != "" {
		cfg.CatalogPath = o.catalogPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer) *logger.Logger {
	log := logger.NewWithWriter(o.logLevel, w)
	slog.SetDefault(log.Logger)
	return log
}

func loadCatalog(ctx context.Context, cfg *config.Config) (*requirements.Source, error) {
	loader := requirements.BytesLoader(data.DefaultCatalog)
	if cfg.CatalogPath != "" {
		loader = requirements.FileLoader(cfg.CatalogPath)
	}
	source, err := requirements.NewSource(ctx, loader)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return source, nil
}

// env is an opened data directory with the services on top of it.
type env struct {
	cfg       *config.Config
	store     storage.Store
	catalog   *requirements.Source
	profiles  *profile.Service
	schedules *schedule.Service
}

func (o *options) open(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	log := o.logger(cmd.ErrOrStderr())

	source, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.StorageBackend, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	locks := keylock.New()
	return &env{
		cfg:       cfg,
		store:     store,
		catalog:   source,
		profiles:  profile.NewService(store, func() profile.Programs { return source.Catalog() }, locks, nil, log),
		schedules: schedule.NewService(store, locks, nil, log),
	}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
}

// addUserFlag registers the required --user flag.
func addUserFlag(cmd *cobra.Command, user *string) {
	cmd.Flags().StringVarP(user, "user", "u", "", "User id")
	_ = cmd.MarkFlagRequired("user")
}

func checkUser(user string) error {
	return validate.UserID(user)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
