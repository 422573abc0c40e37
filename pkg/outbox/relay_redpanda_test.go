package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// createKafkaTopic creates a Kafka topic for testing.
func createKafkaTopic(ctx context.Context, t *testing.T, brokers string, topicName string) {
	t.Helper()
	adminClient, err := kgo.NewClient(kgo.SeedBrokers(brokers))
	require.NoError(t, err)
	defer adminClient.Close()

	req := kmsg.NewCreateTopicsRequest()
	topic := kmsg.NewCreateTopicsRequestTopic()
	topic.Topic = topicName
	topic.NumPartitions = 1
	topic.ReplicationFactor = 1
	req.Topics = append(req.Topics, topic)

	_, err = adminClient.Request(ctx, &req)
	require.NoError(t, err)

	time.Sleep(1 * time.Second)
}

func TestRelay_PublishToRedpanda(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Debug})

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:latest")
	require.NoError(t, err)
	defer func() {
		_ = container.Terminate(ctx)
	}()

	brokers, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	topic := "test.identifiers"
	createKafkaTopic(ctx, t, brokers, topic)

	db := setupTestDB(t)
	native, ext := testIdentifiers(t)
	require.NoError(t, NewPublisher(logger).PublishMinted(ctx, db, native, ext))

	relay, err := NewRelay(Config{
		DB:           db,
		Brokers:      []string{brokers},
		Topic:        topic,
		PollInterval: 100 * time.Millisecond,
		BatchSize:    10,
		Logger:       logger,
	})
	require.NoError(t, err)
	defer relay.Stop()

	n, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(fetchCtx)
	require.Empty(t, fetches.Errors())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, native.UUID().String(), string(records[0].Key))

	var msg Message
	require.NoError(t, json.Unmarshal(records[0].Value, &msg))
	assert.Equal(t, "hdl:123456789/42", msg.Identifier)

	ev, err := DecodeIdentifierEvent(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ev.ResourceID)
	assert.Equal(t, "http://hdl.handle.net/123456789/42", ev.ExternalURL)
}
