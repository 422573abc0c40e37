package relay

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/internal/db"
	"github.com/hashicorp-forge/persistid/pkg/kafka"
	"github.com/hashicorp-forge/persistid/pkg/outbox"
)

type Command struct {
	*base.Command

	flagConfig       string
	flagOnce         bool
	flagRetryFailed  int
	flagCleanupAfter time.Duration
}

func (c *Command) Synopsis() string {
	return "Publish identifier events from the outbox to Kafka"
}

func (c *Command) Help() string {
	return `Usage: persistid relay [options]

  Polls the identifier outbox and produces pending events to the configured
  Kafka topic, keyed by native UUID. Runs until interrupted unless -once is
  given. Brokers and topic come from PERSISTID_KAFKA_BROKERS and
  PERSISTID_KAFKA_TOPIC, then the kafka block of the config file.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("relay", flag.ContinueOnError))

	f.ConfigFlag(&c.flagConfig)
	f.BoolVar(
		&c.flagOnce, "once", false,
		"Publish one batch of pending events and exit.",
	)
	f.IntVar(
		&c.flagRetryFailed, "retry-failed", 0,
		"Republish up to this many failed events before starting.",
	)
	f.DurationVar(
		&c.flagCleanupAfter, "cleanup-after", 0,
		"Delete published events older than this before starting, e.g. 168h.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(base.ConfigPath(c.flagConfig))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	database, err := db.NewDB(ctx, *cfg.Database, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	r, err := outbox.NewRelay(outbox.Config{
		DB:           database,
		Brokers:      kafka.GetBrokers(cfg),
		Topic:        kafka.GetTopic(cfg),
		PollInterval: cfg.Kafka.PollIntervalDuration(),
		BatchSize:    cfg.Kafka.BatchSize,
		Logger:       c.Log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating relay: %v", err))
		return 1
	}
	defer r.Stop()

	if c.flagCleanupAfter > 0 {
		n, err := r.CleanupOldEntries(ctx, c.flagCleanupAfter)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error cleaning up outbox: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Deleted %d published events", n))
	}

	if c.flagRetryFailed > 0 {
		n, err := r.RetryFailed(ctx, c.flagRetryFailed)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error republishing failed events: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Republished %d failed events", n))
	}

	if c.flagOnce {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error publishing events: %v", err))
			return 1
		}
		c.UI.Info(fmt.Sprintf("Published %d events", n))
		return 0
	}

	c.UI.Info("Relay running; press Ctrl-C to stop")
	if err := r.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.UI.Error(fmt.Sprintf("relay stopped: %v", err))
		return 1
	}

	if stats, err := r.GetStats(context.Background()); err == nil {
		c.UI.Info(fmt.Sprintf("Outbox: %d pending, %d published, %d failed",
			stats.Pending, stats.Published, stats.Failed))
	}
	return 0
}
