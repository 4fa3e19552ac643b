package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/db"
	"github.com/example/book-social/services/discussion/internal/store"
)

func newMigrateCommand(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pool, err := db.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := store.Migrate(cmd.Context(), pool, log)
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Int("count", n))
			return nil
		},
	}
}
