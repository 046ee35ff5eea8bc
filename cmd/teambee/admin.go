// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Teambee Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/teambee/teambee/internal/auth"
	"github.com/teambee/teambee/internal/auth/postgres"
	"github.com/teambee/teambee/internal/config"
	"github.com/teambee/teambee/internal/store"
)

// repoSet bundles the repositories the admin subcommands share.
type repoSet struct {
	users  *postgres.UserRepository
	clubs  *postgres.ClubRepository
	tokens *postgres.TokenRepository
	tx     *postgres.Transactor
}

// NewAdminCmd creates the admin subcommand.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative operations",
		Long:  `Create clubs, platform administrators, and registration invitations directly against the database.`,
	}

	cmd.AddCommand(newCreateClubCmd(), newCreateAdminCmd(), newInviteCmd())
	return cmd
}

func newCreateClubCmd() *cobra.Command {
	var (
		name     string
		prefix   string
		language string
	)

	cmd := &cobra.Command{
		Use:   "create-club",
		Short: "Create a club",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, _ *config.Config, repos *repoSet) error {
				accounts := auth.NewAccountService(repos.users, repos.clubs, auth.NewArgon2idHasher())
				id, err := accounts.CreateClub(ctx, name, prefix, language)
				if err != nil {
					return err
				}
				cmd.Printf("created club %d (%s)\n", id, name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "club name (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "system prefix used for club-scoped resources")
	cmd.Flags().StringVar(&language, "language", auth.DefaultLanguage, "club language (nl or en)")
	_ = cmd.MarkFlagRequired("name") //nolint:errcheck // flag exists

	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a platform administrator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, _ *config.Config, repos *repoSet) error {
				accounts := auth.NewAccountService(repos.users, repos.clubs, auth.NewArgon2idHasher())
				id, err := accounts.CreateAdmin(ctx, email, password)
				if err != nil {
					return err
				}
				cmd.Printf("created administrator %d (%s)\n", id, email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "administrator email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "administrator password (required)")
	_ = cmd.MarkFlagRequired("email")    //nolint:errcheck // flag exists
	_ = cmd.MarkFlagRequired("password") //nolint:errcheck // flag exists

	return cmd
}

func newInviteCmd() *cobra.Command {
	var (
		clubID   int64
		ttlHours int
	)

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Create a registration invitation for a club",
		Long: `Create a single-use registration invitation token for a club and
print the registration link. The link can be handed out through any
channel; it expires after the configured lifetime.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(ctx context.Context, cfg *config.Config, repos *repoSet) error {
				registrations := auth.NewRegistrationService(
					repos.users, repos.clubs, repos.tokens, repos.tx,
					auth.NewArgon2idHasher(), slog.Default(),
				)

				ttl := auth.DefaultInviteTTL
				if ttlHours > 0 {
					ttl = time.Duration(ttlHours) * time.Hour
				}

				value, err := registrations.CreateInvite(ctx, clubID, ttl)
				if err != nil {
					return err
				}
				cmd.Printf("invitation created, valid for %s\n", ttl)
				cmd.Printf("%s/register/%s\n", cfg.Server.BaseURL, value)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&clubID, "club-id", 0, "club the invitation registers into (required)")
	cmd.Flags().IntVar(&ttlHours, "ttl", 0, "invitation lifetime in hours (default 24)")
	_ = cmd.MarkFlagRequired("club-id") //nolint:errcheck // flag exists

	return cmd
}

// withDatabase loads configuration, connects to the database, and runs
// fn with ready-made repositories.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, repos *repoSet) error) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required (or set DATABASE_URL)")
	}

	ctx := cmd.Context()
	pool, err := store.Connect(ctx, cfg.Database.URL, slog.Default())
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, &repoSet{
		users:  postgres.NewUserRepository(pool),
		clubs:  postgres.NewClubRepository(pool),
		tokens: postgres.NewTokenRepository(pool),
		tx:     postgres.NewTransactor(pool),
	})
}
