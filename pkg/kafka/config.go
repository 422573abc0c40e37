// Package kafka resolves broker and topic settings for the identifier event
// relay.
package kafka

import (
	"os"
	"strings"

	"github.com/hashicorp-forge/persistid/internal/config"
)

// Environment variables checked before the config file.
const (
	EnvBrokers = "PERSISTID_KAFKA_BROKERS"
	EnvTopic   = "PERSISTID_KAFKA_TOPIC"
)

// Defaults used when neither the environment nor the config file sets a value.
const (
	DefaultBroker = "localhost:19092"
	DefaultTopic  = "persistid.identifiers"
)

// GetBrokers returns the Kafka/Redpanda broker addresses.
// It checks environment variables first, then falls back to config, then default.
// The environment variable may hold a comma-separated list.
func GetBrokers(cfg *config.Config) []string {
	if brokers := os.Getenv(EnvBrokers); brokers != "" {
		var out []string
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	if cfg != nil && cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		return cfg.Kafka.Brokers
	}

	return []string{DefaultBroker}
}

// GetTopic returns the identifier event topic name.
// It checks environment variables first, then falls back to config, then default.
func GetTopic(cfg *config.Config) string {
	if topic := os.Getenv(EnvTopic); topic != "" {
		return topic
	}

	if cfg != nil && cfg.Kafka != nil && cfg.Kafka.Topic != "" {
		return cfg.Kafka.Topic
	}

	return DefaultTopic
}
