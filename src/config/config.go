// Package config provides configuration management for the rider publisher.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"rider-publisher/src/contracts"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultClientID    = "my-app"
	DefaultDialTimeout = 10 * time.Second
)

var (
	ErrNoBrokers     = errors.New("at least one broker address is required")
	ErrInvalidBroker = errors.New("invalid broker address")
)

// Config holds the application configuration.
type Config struct {
	// ClientID is sent to the cluster as the Kafka client.id.
	ClientID string
	// Brokers is the seed broker list (host:port).
	Brokers []string
	// Topic receives the location updates.
	Topic string
	// DialTimeout bounds each broker connection attempt.
	DialTimeout time.Duration
}

// LoadFromEnv loads configuration from environment variables.
// Brokers are validated separately so flags can still supply them.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ClientID:    DefaultClientID,
		Brokers:     ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		Topic:       contracts.TopicRiderUpdates,
		DialTimeout: DefaultDialTimeout,
	}

	if id := os.Getenv("KAFKA_CLIENT_ID"); id != "" {
		cfg.ClientID = id
	}
	if topic := os.Getenv("RIDER_TOPIC"); topic != "" {
		cfg.Topic = topic
	}
	if raw := os.Getenv("KAFKA_DIAL_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid KAFKA_DIAL_TIMEOUT %q: %w", raw, err)
		}
		cfg.DialTimeout = d
	}

	return cfg, nil
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			brokers = append(brokers, part)
		}
	}
	return brokers
}

// Validate checks the broker list before any connection is attempted.
func (c *Config) Validate() error {
	return ValidateBrokers(c.Brokers)
}

// ValidateBrokers requires a non-empty list of host:port entries.
func ValidateBrokers(brokers []string) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}
	for _, addr := range brokers {
		host, port, err := net.SplitHostPort(addr)
		if err != nil || host == "" || port == "" {
			return fmt.Errorf("%w: %q (expected host:port)", ErrInvalidBroker, addr)
		}
	}
	return nil
}

// BrokerConfig returns the immutable cluster identity for the client factory.
func (c *Config) BrokerConfig() contracts.BrokerConfig {
	return contracts.BrokerConfig{
		ApplicationID: c.ClientID,
		Brokers:       c.Brokers,
	}.Clone()
}
