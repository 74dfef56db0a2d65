package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyellow/degree-planner/internal/backup"
	"github.com/garyellow/degree-planner/internal/config"
	"github.com/garyellow/degree-planner/internal/r2client"
	"github.com/garyellow/degree-planner/internal/storage"
)

// r2Client builds the object store client from the R2 settings.
func r2Client(cmd *cobra.Command, cfg *config.Config) (*r2client.Client, error) {
	if !cfg.R2Enabled {
		return nil, fmt.Errorf("R2 is not configured (set %s=true and the R2 credentials)", config.EnvR2Enabled)
	}
	return r2client.New(cmd.Context(), r2client.Config{
		Endpoint:    cfg.R2Endpoint(),
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2BucketName,
	})
}

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the SQLite database and upload it to R2",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			client, err := r2Client(cmd, cfg)
			if err != nil {
				return err
			}
			db, err := storage.New(cmd.Context(), cfg.SQLitePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			res, err := backup.NewManager(db, client, cfg.R2BackupKey, nil, opts.logger(cmd.ErrOrStderr())).Run(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes, %d compressed, etag %s)\n",
				res.Key, res.RawBytes, res.CompressedSize, res.ETag)
			return nil
		},
	}
}

func newBackupStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup-status",
		Short: "Show the size and age of the latest R2 backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			client, err := r2Client(cmd, cfg)
			if err != nil {
				return err
			}
			info, err := client.Head(cmd.Context(), cfg.R2BackupKey)
			if errors.Is(err, r2client.ErrNotFound) {
				return fmt.Errorf("no backup found at %s", cfg.R2BackupKey)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes, modified %s (%s ago), etag %s\n",
				cfg.R2BackupKey, info.Size, info.LastModified.UTC().Format(time.RFC3339),
				time.Since(info.LastModified).Round(time.Second), info.ETag)
			return nil
		},
	}
}

func newRestoreCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Download the R2 backup and install it as the SQLite database",
		Long:  "Download the R2 backup and install it as the SQLite database. Run it before starting the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			dbPath := cfg.SQLitePath()
			if _, err := os.Stat(dbPath); err == nil && !force {
				return fmt.Errorf("database %s already exists (use --force to replace it)", dbPath)
			}
			client, err := r2Client(cmd, cfg)
			if err != nil {
				return err
			}

			err = backup.Restore(cmd.Context(), client, cfg.R2BackupKey, dbPath)
			if errors.Is(err, backup.ErrNoBackup) {
				return fmt.Errorf("no backup found at %s", cfg.R2BackupKey)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", dbPath, cfg.R2BackupKey)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing database")
	return cmd
}
