package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/storage"
	"github.com/spf13/cobra"
)

const serviceName = "imagestore"

var envFiles []string

// rootCmd runs the server when called without a subcommand
var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Image upload and catalogue service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), envFiles)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), envFiles)
	},
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate configuration, then build the storage provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serviceName, envFiles...)
		if err != nil {
			return err
		}

		log := logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)
		if _, err := storage.New(cmd.Context(), cfg.Storage, log); err != nil {
			return err
		}

		log.Info("configuration ok",
			"environment", cfg.Service.Environment,
			"port", cfg.Service.Port,
			"store", cfg.Store.Backend,
			"provider", cfg.Storage.Provider,
			"rate_limit", cfg.RateLimit.Enabled,
			"auth", cfg.Security.APIKey != "",
		)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Path to a .env file (repeatable, default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkConfigCmd)
}
