package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/geocoder89/doctorportal/internal/auth"
	"github.com/geocoder89/doctorportal/internal/config"
	"github.com/geocoder89/doctorportal/internal/db"
	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/geocoder89/doctorportal/internal/repo"
	"github.com/spf13/cobra"
)

const opTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operator commands for the doctor portal store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(promoteCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withStore loads config, opens the configured backend and runs fn against it.
func withStore(fn func(ctx context.Context, cfg config.Config, store *repo.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver == config.StoreMemory {
		return errors.New("STORE_DRIVER=memory has nothing to administer")
	}

	slog.SetDefault(observability.NewLogger(cfg.Env))

	ctx, cancel := config.WithTimeout(opTimeout)
	defer cancel()

	store, err := repo.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	return fn(ctx, cfg, store)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables or indexes for the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the store applies the schema
			return withStore(func(ctx context.Context, cfg config.Config, store *repo.Store) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema up to date\n", store.Driver)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.json>",
		Short: "Replace the service catalog with the contents of a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg config.Config, store *repo.Store) error {
				n, err := db.SeedCatalog(ctx, store.Services, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d services\n", n)
				return nil
			})
		},
	}
}

func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role, creating the user if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, cfg config.Config, store *repo.Store) error {
				promoted, err := db.EnsureAdminUser(ctx, store.Users, args[0])
				if err != nil {
					return err
				}
				if promoted {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was already an admin\n", args[0])
				}
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Mint an access token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")

			return withStore(func(ctx context.Context, cfg config.Config, store *repo.Store) error {
				if _, err := store.Users.GetByEmail(ctx, args[0]); err != nil {
					if errors.Is(err, user.ErrNotFound) {
						return fmt.Errorf("no user %q", args[0])
					}
					return err
				}

				if ttl <= 0 {
					ttl = cfg.TokenTTL
				}

				token, err := auth.NewManager(cfg.JWTSecret, ttl).GenerateAccessToken(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}

	cmd.Flags().Duration("ttl", 0, "Token lifetime, defaults to TOKEN_TTL")
	return cmd
}
