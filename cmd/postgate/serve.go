// ABOUTME: Serve command running the Telegram bot until interrupted.
// ABOUTME: Long-polls updates and optionally exposes /health and /metrics over HTTP.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/2389-research/postgate/internal/bot"
	"github.com/2389-research/postgate/internal/metrics"
	"github.com/2389-research/postgate/internal/telegram"
)

// pollTimeout is the long-poll timeout in seconds for getUpdates.
const pollTimeout = 60

var serveWorkers int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Connect to Telegram and MongoDB and handle updates until interrupted.

Set METRICS_ADDR (for example ":9090") to expose /health and /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 8, "Number of concurrent update lanes")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := globalConfig
	log := globalLogger

	if err := tgbotapi.SetLogger(log.WithField("component", "telegram")); err != nil {
		return fmt.Errorf("failed to set telegram logger: %w", err)
	}

	client, err := telegram.New(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}
	username := cfg.Telegram.BotUsername
	if username == "" {
		username = client.Username()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b, err := bot.New(bot.Options{
		Messenger:        client,
		Oracle:           client,
		Store:            globalStore,
		Channels:         cfg.Channels,
		AdminID:          cfg.Telegram.AdminChatID,
		BotUsername:      username,
		InstagramProfile: cfg.InstagramProfile,
		Logger:           log,
		Metrics:          metrics.NewBotMetrics(reg),
		Workers:          serveWorkers,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	updates := client.Updates(pollTimeout)
	g.Go(func() error {
		defer cancel()
		defer client.StopUpdates()
		return b.Run(gctx, updates)
	})

	if cfg.MetricsAddr != "" {
		router := metrics.NewRouter(reg, map[string]metrics.HealthCheck{
			"post_store": globalStore.Ping,
		})
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddr, router, log)
		})
	}

	log.WithFields(logrus.Fields{
		"bot":      username,
		"channels": len(cfg.Channels),
		"workers":  serveWorkers,
	}).Info("Bot started")

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Bot stopped")
	return nil
}
