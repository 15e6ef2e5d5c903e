package stats

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/metrics"
	"github.com/sunknudsen/ghost-join/pkg/stripeapi"
)

const defaultInterval = 60 * time.Second

// Source produces the full active-subscription collection.
type Source interface {
	ActiveSubscriptions(ctx context.Context) iter.Seq2[*stripeapi.Subscription, error]
}

// Config holds configuration for the aggregator.
type Config struct {
	// Source lists active subscriptions (required).
	Source Source

	// Store receives the recomputed snapshots (required).
	Store *Store

	// Interval between cycles. Defaults to 60 seconds.
	Interval time.Duration

	Logger  zerolog.Logger
	Metrics metrics.Metrics
}

// Aggregator walks the active-subscription collection once per cycle and
// publishes a fresh snapshot.
type Aggregator struct {
	source   Source
	store    *Store
	interval time.Duration
	logger   zerolog.Logger
	metrics  metrics.Metrics
}

// New creates an aggregator from config.
func New(config Config) (*Aggregator, error) {
	if config.Source == nil {
		return nil, fmt.Errorf("stats: source is required")
	}
	if config.Store == nil {
		return nil, fmt.Errorf("stats: store is required")
	}
	interval := config.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	m := config.Metrics
	if m == nil {
		m = &metrics.Noop{}
	}
	return &Aggregator{
		source:   config.Source,
		store:    config.Store,
		interval: interval,
		logger:   config.Logger,
		metrics:  m,
	}, nil
}

// Sync runs one aggregation cycle: walk every active subscription, count
// members, sum plan amounts, and publish the snapshot. A fetch failure aborts
// the cycle and leaves the previous snapshot in place.
func (a *Aggregator) Sync(ctx context.Context) error {
	start := time.Now()
	a.logger.Debug().Msg("syncing stats")

	members := 0
	var revenueMinor int64
	for sub, err := range a.source.ActiveSubscriptions(ctx) {
		if err != nil {
			a.metrics.RecordStatsSync("error")
			a.metrics.RecordStatsSyncDuration(time.Since(start))
			return fmt.Errorf("stats: list subscriptions: %w", err)
		}
		members++
		revenueMinor += sub.Plan.Amount
	}

	snapshot := &Snapshot{
		Members: members,
		Revenue: float64(revenueMinor) / 100,
	}
	if err := a.store.Publish(snapshot); err != nil {
		a.metrics.RecordStatsSync("error")
		a.metrics.RecordStatsSyncDuration(time.Since(start))
		return err
	}

	a.metrics.RecordStatsSync("success")
	a.metrics.RecordStatsSyncDuration(time.Since(start))
	a.logger.Debug().
		Int("members", members).
		Float64("revenue", snapshot.Revenue).
		Msg("stats synced")
	return nil
}

// Run repeats Sync for the life of ctx. The next cycle is scheduled only
// after the previous one returns, so runs never overlap, and a failed cycle
// is logged and skipped rather than killing the loop.
func (a *Aggregator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.interval):
		}
		if err := a.Sync(ctx); err != nil {
			a.logger.Error().Err(err).Msg("stats sync failed, retrying at next tick")
		}
	}
}
