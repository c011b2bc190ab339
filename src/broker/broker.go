// Package broker builds Kafka client handles and the producers used to publish rider updates.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"rider-publisher/src/config"
	"rider-publisher/src/contracts"
	"rider-publisher/src/logger"
)

var (
	// ErrNotConnected is returned by Send before Connect or after Disconnect.
	ErrNotConnected = errors.New("producer is not connected")
	// ErrConnect wraps any failure to reach the cluster during Connect.
	ErrConnect = errors.New("failed to connect to kafka")
)

// Producer publishes records to a topic.
// Implementations must be safe for concurrent Send calls once connected.
type Producer interface {
	// Connect opens the connection to the cluster.
	Connect(ctx context.Context) error

	// Send publishes one record and waits for the broker to acknowledge it.
	Send(ctx context.Context, msg contracts.OutboundMessage) error

	// Disconnect flushes and closes the connection. Calling it twice is a no-op.
	Disconnect() error
}

var (
	_ Producer = (*KafkaProducer)(nil)
	_ Producer = (*InMemoryProducer)(nil)
)

// Client is a configured handle to a Kafka cluster. It performs no I/O;
// producers obtained from it connect on demand.
type Client struct {
	cfg         contracts.BrokerConfig
	dialTimeout time.Duration
	log         logger.Logger
	extra       []kgo.Opt
}

// Option customizes a Client.
type Option func(*Client)

// WithDialTimeout bounds each broker connection attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// WithLogger routes client and kgo diagnostics to log.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithKgoOpts appends raw franz-go options, e.g. kgo.AllowAutoTopicCreation.
func WithKgoOpts(opts ...kgo.Opt) Option {
	return func(c *Client) {
		c.extra = append(c.extra, opts...)
	}
}

// NewClient validates cfg and returns a reusable client handle.
// brokers is a slice of broker addresses (e.g., ["localhost:9092"]).
func NewClient(cfg contracts.BrokerConfig, opts ...Option) (*Client, error) {
	if err := config.ValidateBrokers(cfg.Brokers); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg.Clone(),
		dialTimeout: config.DefaultDialTimeout,
		log:         logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns a copy of the cluster identity this client was built with.
func (c *Client) Config() contracts.BrokerConfig {
	return c.cfg.Clone()
}

// Producer returns a new, unconnected producer for this cluster.
func (c *Client) Producer() *KafkaProducer {
	return newKafkaProducer(c.kgoOpts(), c.log)
}

func (c *Client) kgoOpts() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.cfg.Brokers...),
		kgo.RecordPartitioner(HintedPartitioner()),
		kgo.DialTimeout(c.dialTimeout),
		kgo.WithLogger(NewKgoLogger(c.log)),
	}
	if c.cfg.ApplicationID != "" {
		opts = append(opts, kgo.ClientID(c.cfg.ApplicationID))
	}
	return append(opts, c.extra...)
}
