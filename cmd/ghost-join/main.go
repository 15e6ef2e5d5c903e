package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/api"
	"github.com/sunknudsen/ghost-join/pkg/config"
	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/mail"
	"github.com/sunknudsen/ghost-join/pkg/member"
	prommetrics "github.com/sunknudsen/ghost-join/pkg/metrics/prometheus"
	"github.com/sunknudsen/ghost-join/pkg/stats"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	m := prommetrics.DefaultMetrics("ghostjoin")

	stripeClient, err := stripeapi.NewClient(stripeapi.Config{
		PrefixURL: cfg.StripeAPIPrefixURL,
		APIKey:    cfg.StripeAPIKey,
		Logger:    logger,
		Metrics:   m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stripe client")
	}

	ghostClient, err := ghost.NewClient(ghost.Config{
		APIURL:   cfg.GhostAPIURL,
		AdminKey: cfg.GhostAdminAPIKey,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ghost client")
	}

	reconciler, err := member.New(member.Config{
		Store:           ghostClient,
		ProductID:       cfg.StripeProductID,
		LowercaseEmails: cfg.LowercaseEmails,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create reconciler")
	}

	mailer, err := mail.NewMailer(mail.Config{
		Host:         cfg.SMTPHost,
		Port:         cfg.SMTPPort,
		Username:     cfg.SMTPUsername,
		Password:     cfg.SMTPPassword,
		FromName:     cfg.FromName,
		FromEmail:    cfg.FromEmail,
		TemplatePath: cfg.TemplateFile,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create mailer")
	}

	statsStore := stats.NewStore(cfg.StatsFile)
	aggregator, err := stats.New(stats.Config{
		Source:   stripeClient,
		Store:    statsStore,
		Interval: cfg.SyncInterval,
		Logger:   logger,
		Metrics:  m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stats aggregator")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first sync must succeed before ingress starts; afterwards cycle
	// failures only skip a tick.
	if err := aggregator.Sync(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initial stats sync failed")
	}
	go aggregator.Run(ctx)

	server, err := api.NewServer(api.Config{
		Stripe:         stripeClient,
		Ghost:          ghostClient,
		Reconciler:     reconciler,
		Stats:          statsStore,
		Mailer:         mailer,
		WebhookSecret:  cfg.StripeWebhookSecret,
		StatsToken:     cfg.StatsToken,
		MembershipPage: cfg.GhostMembershipPage,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
}
