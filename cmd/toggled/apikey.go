package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adminkit/toggle/internal/config"
	"github.com/adminkit/toggle/internal/dbpool"
	"github.com/adminkit/toggle/internal/store"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for api_key guards",
	}

	var name string

	createCmd := &cobra.Command{
		Use:   "create <actor-id>",
		Short: "Issue a new API key for an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(cmd.Context(), func(ks *store.APIKeyStore) error {
				key, err := ks.CreateAPIKey(cmd.Context(), args[0], name)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), key)

				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Display name of the actor")

	revokeCmd := &cobra.Command{
		Use:   "revoke <actor-id>",
		Short: "Revoke every active API key of an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeyStore(cmd.Context(), func(ks *store.APIKeyStore) error {
				n, err := ks.RevokeAPIKeys(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "revoked %d key(s)\n", n)

				return nil
			})
		},
	}

	cmd.AddCommand(createCmd, revokeCmd)

	return cmd
}

func withKeyStore(ctx context.Context, fn func(*store.APIKeyStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	return fn(store.NewAPIKeyStore(store.Base{Pool: pool, Log: newLogger(cfg)}))
}
