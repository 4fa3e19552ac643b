package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/config"
	"github.com/example/book-social/internal/platform/logging"
)

type rootOptions struct {
	EnvFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "discussion",
		Short:         "Threaded discussion service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.EnvFile != "" {
				return os.Setenv("ENV_FILE", opts.EnvFile)
			}
			return nil
		},
		// serve is the default action
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file merged into the environment (default .env)")
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}

// setup loads configuration and builds the process logger.
func setup() (config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("logging: %w", err)
	}
	log = log.With(zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))
	return cfg, log, nil
}
