// ABOUTME: Root Cobra command and shared state for the postgate CLI.
// ABOUTME: Loads config, builds the logger, and opens the post store for subcommands.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2389-research/postgate/internal/config"
	"github.com/2389-research/postgate/internal/logging"
	"github.com/2389-research/postgate/internal/storage"
)

var globalConfig *config.Config
var globalLogger *logrus.Entry
var globalStore storage.PostStore

var rootCmd = &cobra.Command{
	Use:   "postgate",
	Short: "Subscription-gated file delivery bot for Telegram",
	Long: `
 ___  ___  ___ _____ ___   _ _____ ___
| _ \/ _ \/ __|_   _/ __| /_\_   _| __|
|  _/ (_) \__ \ | || (_ |/ _ \| | | _|
|_|  \___/|___/ |_| \___/_/ \_\_| |___|

Publish media posts to a Telegram channel and hand out the attached
files only to users subscribed to every required channel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "setup" {
			return nil
		}

		globalLogger = logging.WithService(logging.New())

		cfg, err := config.Load(globalLogger)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		if cmd.Name() == "serve" {
			if err := cfg.Validate(); err != nil {
				return err
			}
		} else if cfg.Mongo.URI == "" {
			return fmt.Errorf("missing required configuration: MONGO_URI")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		store, err := storage.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return fmt.Errorf("failed to open post store: %w", err)
		}
		globalStore = store
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if globalStore != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := globalStore.Close(ctx); err != nil && globalLogger != nil {
				globalLogger.WithError(err).Warn("Failed to close post store")
			}
			globalStore = nil
		}
		return nil
	},
}
