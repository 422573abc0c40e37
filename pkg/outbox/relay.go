package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/twmb/franz-go/pkg/kgo"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/models"
)

// Producer is the part of *kgo.Client the relay uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Relay polls the identifier_outbox table and produces pending events to
// Kafka, keyed by native UUID so events for one object stay ordered.
type Relay struct {
	db           *gorm.DB
	producer     Producer
	topic        string
	logger       hclog.Logger
	pollInterval time.Duration
	batchSize    int

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Config holds configuration for the relay.
type Config struct {
	DB *gorm.DB

	Brokers []string
	Topic   string

	// Producer replaces the franz-go client built from Brokers.
	Producer Producer

	PollInterval time.Duration // Default: 1s
	BatchSize    int           // Default: 100

	Logger hclog.Logger
}

// NewRelay creates a relay.
func NewRelay(cfg Config) (*Relay, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.Producer == nil && len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	producer := cfg.Producer
	if producer == nil {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Brokers...),
			kgo.DefaultProduceTopic(cfg.Topic),

			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.ProducerBatchCompression(kgo.GzipCompression()),

			kgo.RetryBackoffFn(func(tries int) time.Duration {
				backoff := time.Duration(tries) * 100 * time.Millisecond
				if backoff > 60*time.Second {
					backoff = 60 * time.Second
				}
				return backoff
			}),
			kgo.RequestRetries(10),

			kgo.ProducerLinger(10*time.Millisecond),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka client: %w", err)
		}
		producer = client
	}

	return &Relay{
		db:           cfg.DB,
		producer:     producer,
		topic:        cfg.Topic,
		logger:       cfg.Logger.Named("outbox-relay"),
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		stopCh:       make(chan struct{}),
	}, nil
}

// Start runs the polling loop until Stop is called or ctx is done.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info("starting outbox relay",
		"poll_interval", r.pollInterval,
		"batch_size", r.batchSize,
		"topic", r.topic,
	)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped by context")
			return ctx.Err()

		case <-r.stopCh:
			r.logger.Info("outbox relay stopped")
			return nil

		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				r.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// Stop stops the polling loop and closes the producer. It is safe to call
// more than once.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.producer.Close()
	})
}

// ProcessBatch produces up to one batch of pending entries and returns how
// many were published. Entries that fail are marked failed.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	entries, err := models.FindPendingOutboxEntries(r.db.WithContext(ctx), r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find pending outbox entries: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	r.logger.Debug("processing outbox batch", "count", len(entries))

	published := 0
	for i := range entries {
		if r.deliver(ctx, &entries[i]) {
			published++
		}
	}

	r.logger.Info("processed outbox batch",
		"total", len(entries),
		"success", published,
		"failed", len(entries)-published,
	)
	return published, nil
}

// RetryFailed resets up to limit failed entries and tries them again.
func (r *Relay) RetryFailed(ctx context.Context, limit int) (int, error) {
	failed, err := models.GetFailedOutboxEntries(r.db.WithContext(ctx), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed outbox entries: %w", err)
	}
	if len(failed) == 0 {
		r.logger.Info("no failed outbox entries to retry")
		return 0, nil
	}

	published := 0
	for i := range failed {
		entry := &failed[i]
		if err := entry.Retry(r.db.WithContext(ctx)); err != nil {
			r.logger.Error("failed to reset outbox entry to pending",
				"outbox_id", entry.ID,
				"error", err,
			)
			continue
		}
		if r.deliver(ctx, entry) {
			published++
		}
	}

	r.logger.Info("retry completed",
		"attempted", len(failed),
		"success", published,
		"failed", len(failed)-published,
	)
	return published, nil
}

// deliver produces one entry and records the outcome.
func (r *Relay) deliver(ctx context.Context, entry *models.IdentifierOutbox) bool {
	db := r.db.WithContext(ctx)

	if err := r.publishEntry(ctx, entry); err != nil {
		r.logger.Error("failed to publish outbox entry",
			"outbox_id", entry.ID,
			"identifier", entry.Identifier,
			"error", err,
		)
		if markErr := entry.MarkAsFailed(db, err); markErr != nil {
			r.logger.Error("failed to mark outbox entry as failed",
				"outbox_id", entry.ID,
				"error", markErr,
			)
		}
		return false
	}

	if err := entry.MarkAsPublished(db); err != nil {
		r.logger.Error("failed to mark outbox entry as published",
			"outbox_id", entry.ID,
			"error", err,
		)
		return false
	}
	return true
}

func (r *Relay) publishEntry(ctx context.Context, entry *models.IdentifierOutbox) error {
	msg := Message{
		ID:            entry.ID,
		EventType:     entry.EventType,
		Identifier:    entry.Identifier,
		NativeUUID:    entry.NativeUUID.String(),
		IdempotentKey: entry.IdempotentKey,
		Payload:       entry.Payload,
		Timestamp:     entry.CreatedAt,
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: r.topic,
		Key:   []byte(entry.NativeUUID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(entry.EventType)},
			{Key: "idempotent_key", Value: []byte(entry.IdempotentKey)},
		},
	}

	if err := r.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	r.logger.Debug("published event to kafka",
		"outbox_id", entry.ID,
		"identifier", entry.Identifier,
		"event_type", entry.EventType,
	)
	return nil
}

// CleanupOldEntries removes published entries older than olderThan.
func (r *Relay) CleanupOldEntries(ctx context.Context, olderThan time.Duration) (int64, error) {
	deleted, err := models.DeleteOldPublishedEntries(r.db.WithContext(ctx), olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old outbox entries: %w", err)
	}

	r.logger.Info("cleaned up old outbox entries",
		"deleted", deleted,
		"older_than", olderThan,
	)
	return deleted, nil
}

// Stats counts outbox entries by status.
type Stats struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Failed    int64 `json:"failed"`
}

// GetStats returns the current outbox counts.
func (r *Relay) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx)

	for status, dst := range map[string]*int64{
		models.OutboxStatusPending:   &stats.Pending,
		models.OutboxStatusPublished: &stats.Published,
		models.OutboxStatusFailed:    &stats.Failed,
	} {
		n, err := models.CountOutboxByStatus(db, status)
		if err != nil {
			return stats, err
		}
		*dst = n
	}
	return stats, nil
}
