// Command ghost-join-patch backfills Stripe linkage onto existing members.
// It walks the member list, matches each member to its Stripe customer by
// email, pushes the member name to Stripe and rewrites the member's labels
// and linkage note from the live subscription.
package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/config"
	"github.com/sunknudsen/ghost-join/pkg/ghost"
	"github.com/sunknudsen/ghost-join/pkg/member"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

const defaultLimit = 100

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

	limit := defaultLimit
	if val := os.Getenv("LIMIT"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			logger.Fatal().Str("limit", val).Msg("LIMIT must be a positive integer")
		}
		limit = n
	}

	stripeClient, err := stripeapi.NewClient(stripeapi.Config{
		PrefixURL: cfg.StripeAPIPrefixURL,
		APIKey:    cfg.StripeAPIKey,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stripe client")
	}

	ghostClient, err := ghost.NewClient(ghost.Config{
		APIURL:   cfg.GhostAPIURL,
		AdminKey: cfg.GhostAdminAPIKey,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create ghost client")
	}

	ctx := context.Background()

	members, err := ghostClient.Members(ctx, limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list members")
	}
	logger.Info().Int("count", len(members)).Msg("patching members")

	for _, m := range members {
		if err := patchMember(ctx, logger, stripeClient, ghostClient, m); err != nil {
			logger.Fatal().Err(err).Str("email", m.Email).Msg("patch failed")
		}
	}

	logger.Info().Msg("done")
}

func patchMember(ctx context.Context, logger zerolog.Logger, stripeClient *stripeapi.Client, ghostClient *ghost.Client, m *ghost.Member) error {
	customers, err := stripeClient.CustomersByEmail(ctx, m.Email)
	if err != nil {
		return err
	}
	switch {
	case len(customers) == 0:
		logger.Warn().Str("email", m.Email).Msg("no stripe customer, skipping")
		return nil
	case len(customers) > 1:
		logger.Fatal().Str("email", m.Email).Int("count", len(customers)).Msg("multiple stripe customers share one email")
	}
	customer := customers[0]

	subs, err := stripeClient.CustomerSubscriptions(ctx, customer.ID)
	if err != nil {
		return err
	}
	if len(subs) != 1 {
		logger.Fatal().Str("email", m.Email).Int("count", len(subs)).Msg("expected exactly one subscription")
	}
	sub := subs[0]

	if err := stripeClient.UpdateCustomer(ctx, customer.ID, "", m.Name); err != nil {
		return err
	}

	note := &ghost.Note{Stripe: ghost.StripeLinkage{
		Customer:        customer.ID,
		Subscription:    sub.ID,
		PendingDeletion: sub.CancelAtPeriodEnd,
		Starts:          sub.PeriodStartDate(),
		Ends:            sub.PeriodEndDate(),
	}}
	encoded, err := note.Encode()
	if err != nil {
		return err
	}

	if _, err := ghostClient.EditMember(ctx, m.ID, &ghost.Member{
		Labels: member.StripeLabels(sub.CancelAtPeriodEnd),
		Note:   encoded,
	}); err != nil {
		return err
	}

	logger.Info().Str("email", m.Email).Str("customer_id", customer.ID).Msg("member patched")
	return nil
}
