package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/comics-comments-api/internal/auth"
	"github.com/noah-isme/comics-comments-api/internal/config"
	"github.com/noah-isme/comics-comments-api/internal/database"
	"github.com/noah-isme/comics-comments-api/internal/repository"
	"github.com/noah-isme/comics-comments-api/internal/service"
)

type cliEnv struct {
	loadConfig func() (config.Config, error)
	openDB     func(dsn string) (*gorm.DB, error)
	now        func() time.Time
}

func newRootCommand(env cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:          "commentsctl",
		Short:        "Operate the comics comments database",
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCommand(env),
		newImportLegacyCommand(env),
		newAdminTokenCommand(env),
	)
	return root
}

func newMigrateCommand(env cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, logger, err := openDatabase(cmd, env)
			if err != nil {
				return err
			}

			applied, err := database.Migrate(cmd.Context(), db, logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: schema is up to date\n", cfg.AppName)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied migrations %v\n", applied)
			return nil
		},
	}
}

func newImportLegacyCommand(env cliEnv) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Copy comments from the legacy table into the normalized schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, logger, err := openDatabase(cmd, env)
			if err != nil {
				return err
			}
			if strings.TrimSpace(table) == "" {
				table = cfg.LegacyTableName
			}

			if _, err := database.Migrate(cmd.Context(), db, logger); err != nil {
				return err
			}

			importer := service.NewLegacyImportService(
				repository.NewLegacyCommentRepository(db),
				repository.NewCommentRepository(db),
				logger,
			)
			report, err := importer.Import(cmd.Context(), table)
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "legacy table to read (defaults to COMMENTS_LEGACY_TABLE)")
	return cmd
}

func newAdminTokenCommand(env cliEnv) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an admin session token for the admin_token cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if cfg.AdminJWTSecret == "" {
				return errors.New("admin secret not configured (COMMENTS_ADMIN_JWT_SECRET)")
			}
			if ttl <= 0 {
				ttl = cfg.AdminTokenTTL
			}

			token, err := auth.IssueAdminToken(cfg.AdminJWTSecret, subject, ttl, env.now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "subject recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to COMMENTS_ADMIN_TOKEN_TTL)")
	return cmd
}

func openDatabase(cmd *cobra.Command, env cliEnv) (config.Config, *gorm.DB, zerolog.Logger, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Str("command", cmd.Name()).
		Logger()

	cfg, err := env.loadConfig()
	if err != nil {
		return config.Config{}, nil, logger, err
	}

	db, err := env.openDB(cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, logger, err
	}
	return cfg, db, logger, nil
}
